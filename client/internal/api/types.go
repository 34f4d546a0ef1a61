package api

import (
	"encoding/json"
	"github.com/google/uuid"
	"time"
)

type (
	Client struct {
		ID          uuid.UUID `json:"id"`
		Name        string    `json:"name"`
		ShortName   string    `json:"short_name"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}

	Site struct {
		ID          uuid.UUID `json:"id"`
		ClientID    uuid.UUID `json:"client_id"`
		Name        string    `json:"name"`
		ShortName   string    `json:"short_name"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}

	Image struct {
		ID                uuid.UUID  `json:"id"`
		ClientID          uuid.UUID  `json:"client_id"`
		SiteID            uuid.UUID  `json:"site_id"`
		Role              string     `json:"role"`
		RepositoryLocator string     `json:"repository_locator"`
		SourceVolume      string     `json:"source_volume"`
		LastSnapshotID    string     `json:"last_snapshot_id"`
		LastBackupAt      *time.Time `json:"last_backup_at"`
		CreatedAt         time.Time  `json:"created_at"`
	}

	Credential struct {
		ID             uuid.UUID  `json:"id"`
		ClientID       uuid.UUID  `json:"client_id"`
		SiteID         uuid.UUID  `json:"site_id"`
		Password       string     `json:"password,omitempty"`
		Fresh          bool       `json:"fresh"`
		AcknowledgedAt *time.Time `json:"acknowledged_at"`
	}

	BackupRecord struct {
		ID              uuid.UUID `json:"id"`
		ImageID         uuid.UUID `json:"image_id"`
		SnapshotID      string    `json:"snapshot_id"`
		SizeBytes       uint64    `json:"size_bytes"`
		DurationSeconds float64   `json:"duration_seconds"`
		Warnings        bool      `json:"warnings"`
		SyncState       string    `json:"sync_state"`
		CreatedAt       time.Time `json:"created_at"`
	}

	Snapshot struct {
		ID      string   `json:"id"`
		ShortID string   `json:"short_id"`
		Time    string   `json:"time"`
		Paths   []string `json:"paths"`
		Tags    []string `json:"tags"`
	}

	Operation struct {
		OperationID string    `json:"operation_id"`
		ImageID     uuid.UUID `json:"image_id"`
	}

	OperationStatus struct {
		OperationID string    `json:"operation_id"`
		Kind        string    `json:"kind"`
		ImageID     uuid.UUID `json:"image_id"`
		State       string    `json:"state"`
		Warnings    bool      `json:"warnings"`
		Failure     string    `json:"failure"`
	}

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

	StartRestoreParams struct {
		ImageID    uuid.UUID `json:"image_id" validate:"required"`
		SnapshotID string    `json:"snapshot_id" validate:"required"`
		TargetPath string    `json:"target_path" validate:"required"`
	}

	Event struct {
		Type    EventType       `json:"type"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}

	EventType string
)

const (
	Error    EventType = "error"
	Info     EventType = "info"
	Warning  EventType = "warning"
	Success  EventType = "success"
	Complete EventType = "complete"
)
