package types

import (
	"github.com/google/uuid"
)

type (
	CreateClientParams struct {
		Name        string `json:"name" validate:"required"`
		ShortName   string `json:"short_name" validate:"required,alphanum,max=12"`
		Description string `json:"description"`
	}

	CreateSiteParams struct {
		ClientID    uuid.UUID `json:"client_id" validate:"required"`
		Name        string    `json:"name" validate:"required"`
		ShortName   string    `json:"short_name" validate:"required,alphanum,max=12"`
		Description string    `json:"description"`
	}

	CreateImageParams struct {
		ClientID     uuid.UUID `json:"client_id" validate:"required"`
		SiteID       uuid.UUID `json:"site_id" validate:"required"`
		Role         string    `json:"role" validate:"required"`
		SourceVolume string    `json:"source_volume" validate:"required"`
	}

	StartBackupParams struct {
		ImageID uuid.UUID `json:"image_id" validate:"required"`
	}

	StartRestoreParams struct {
		ImageID    uuid.UUID `json:"image_id" validate:"required"`
		SnapshotID string    `json:"snapshot_id" validate:"required"`
		TargetPath string    `json:"target_path" validate:"required"`
	}

	OperationResponse struct {
		OperationID string    `json:"operation_id"`
		ImageID     uuid.UUID `json:"image_id"`
	}

	SnapshotResponse struct {
		ID      string   `json:"id"`
		ShortID string   `json:"short_id"`
		Time    string   `json:"time"`
		Paths   []string `json:"paths"`
		Tags    []string `json:"tags"`
	}

	// StorageCredentials configures both the restic S3 backend and the
	// metadata mirror. One bucket carries both, under different prefixes.
	StorageCredentials struct {
		Endpoint    string
		Bucket      string
		AccessKeyID string
		SecretKey   string
		Region      string
		UseTLS      bool
	}
)
