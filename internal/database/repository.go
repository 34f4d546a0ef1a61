package database

import (
	"context"
	"github.com/google/uuid"
	"imagevault/internal/types"
)

type ClientRepository interface {
	Save(ctx context.Context, client *types.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*types.Client, error)
	FindByShortName(ctx context.Context, shortName string) (*types.Client, error)
	FindAll(ctx context.Context) ([]*types.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SiteRepository interface {
	Save(ctx context.Context, site *types.Site) error
	FindByID(ctx context.Context, id uuid.UUID) (*types.Site, error)
	FindByClientID(ctx context.Context, clientID uuid.UUID) ([]*types.Site, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ImageRepository interface {
	Save(ctx context.Context, image *types.Image) error
	FindByID(ctx context.Context, id uuid.UUID) (*types.Image, error)
	FindBySiteID(ctx context.Context, siteID uuid.UUID) ([]*types.Image, error)
	FindAll(ctx context.Context) ([]*types.Image, error)
	UpdateLastBackup(ctx context.Context, id uuid.UUID, snapshotID string) error
	DeleteBySiteID(ctx context.Context, siteID uuid.UUID) error
}

type CredentialRepository interface {
	Save(ctx context.Context, cred *types.RepositoryCredential) error
	FindByScope(ctx context.Context, clientID, siteID uuid.UUID) (*types.RepositoryCredential, error)
	Acknowledge(ctx context.Context, id uuid.UUID) error
}

type BackupRecordRepository interface {
	Save(ctx context.Context, record *types.BackupRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*types.BackupRecord, error)
	FindByImageID(ctx context.Context, imageID uuid.UUID) ([]*types.BackupRecord, error)
	FindBySyncState(ctx context.Context, states ...types.SyncState) ([]*types.BackupRecord, error)
	UpdateSyncState(ctx context.Context, id uuid.UUID, state types.SyncState) error
}
