package manager

import (
	"context"
	"crypto/subtle"
	"errors"
	"github.com/google/uuid"
	"imagevault/internal/credentials"
	"imagevault/internal/orchestrator"
	"imagevault/internal/service"
	"imagevault/internal/types"
)

type (
	// Manager is the single entry point the API handlers talk to. It composes
	// the catalog, credential and imaging services behind one interface.
	Manager interface {
		ValidateToken(token string) error

		CreateClient(ctx context.Context, params types.CreateClientParams) (*types.Client, error)
		GetClient(ctx context.Context, id uuid.UUID) (*types.Client, error)
		ListClients(ctx context.Context) ([]*types.Client, error)
		DeleteClient(ctx context.Context, id uuid.UUID) error

		CreateSite(ctx context.Context, params types.CreateSiteParams) (*types.Site, error)
		ListSites(ctx context.Context, clientID uuid.UUID) ([]*types.Site, error)
		DeleteSite(ctx context.Context, id uuid.UUID) error

		CreateImage(ctx context.Context, params types.CreateImageParams) (*types.Image, error)
		GetImage(ctx context.Context, id uuid.UUID) (*types.Image, error)
		ListImages(ctx context.Context, siteID uuid.UUID) ([]*types.Image, error)
		ListAllImages(ctx context.Context) ([]*types.Image, error)

		IssueCredential(ctx context.Context, clientID, siteID uuid.UUID) (*types.CredentialResponse, error)
		AcknowledgeCredential(ctx context.Context, clientID, siteID uuid.UUID) error

		StartBackup(ctx context.Context, params types.StartBackupParams) (*orchestrator.Operation, error)
		StartRestore(ctx context.Context, params types.StartRestoreParams) (*orchestrator.Operation, error)
		GetOperation(operationID string) (*orchestrator.Operation, bool)
		CancelOperation(operationID string) error
		ListSnapshots(ctx context.Context, imageID uuid.UUID) ([]types.SnapshotResponse, error)
		ListBackupRecords(ctx context.Context, imageID uuid.UUID) ([]*types.BackupRecord, error)
	}

	manager struct {
		accessKey   string
		catalog     service.CatalogService
		imaging     service.ImagingService
		credentials credentials.Manager
	}
)

func New(
	accessKey string,
	catalog service.CatalogService,
	imaging service.ImagingService,
	creds credentials.Manager,
) Manager {
	return &manager{
		accessKey:   accessKey,
		catalog:     catalog,
		imaging:     imaging,
		credentials: creds,
	}
}

func (m *manager) ValidateToken(token string) error {
	if m.accessKey == "" {
		// no access key configured, the API is open (development setups)
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(m.accessKey), []byte(token)) != 1 {
		return errors.New("access denied")
	}
	return nil
}

func (m *manager) CreateClient(ctx context.Context, params types.CreateClientParams) (*types.Client, error) {
	return m.catalog.CreateClient(ctx, params)
}

func (m *manager) GetClient(ctx context.Context, id uuid.UUID) (*types.Client, error) {
	return m.catalog.GetClient(ctx, id)
}

func (m *manager) ListClients(ctx context.Context) ([]*types.Client, error) {
	return m.catalog.ListClients(ctx)
}

func (m *manager) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return m.catalog.DeleteClient(ctx, id)
}

func (m *manager) CreateSite(ctx context.Context, params types.CreateSiteParams) (*types.Site, error) {
	return m.catalog.CreateSite(ctx, params)
}

func (m *manager) ListSites(ctx context.Context, clientID uuid.UUID) ([]*types.Site, error) {
	return m.catalog.ListSites(ctx, clientID)
}

func (m *manager) DeleteSite(ctx context.Context, id uuid.UUID) error {
	return m.catalog.DeleteSite(ctx, id)
}

func (m *manager) CreateImage(ctx context.Context, params types.CreateImageParams) (*types.Image, error) {
	return m.catalog.CreateImage(ctx, params)
}

func (m *manager) GetImage(ctx context.Context, id uuid.UUID) (*types.Image, error) {
	return m.catalog.GetImage(ctx, id)
}

func (m *manager) ListImages(ctx context.Context, siteID uuid.UUID) ([]*types.Image, error) {
	return m.catalog.ListImages(ctx, siteID)
}

func (m *manager) ListAllImages(ctx context.Context) ([]*types.Image, error) {
	return m.catalog.ListAllImages(ctx)
}

// IssueCredential returns the repository password for a client/site pair,
// generating it on first call. The password is only included in the response
// while the credential is fresh: once acknowledged it is never shown again.
func (m *manager) IssueCredential(ctx context.Context, clientID, siteID uuid.UUID) (*types.CredentialResponse, error) {
	cred, fresh, err := m.credentials.GetOrCreate(ctx, clientID, siteID)
	if err != nil {
		return nil, err
	}

	resp := &types.CredentialResponse{
		ID:             cred.ID,
		ClientID:       cred.ClientID,
		SiteID:         cred.SiteID,
		Fresh:          fresh,
		AcknowledgedAt: cred.AcknowledgedAt,
	}
	if !cred.Acknowledged() {
		resp.Password = cred.Password
	}
	return resp, nil
}

func (m *manager) AcknowledgeCredential(ctx context.Context, clientID, siteID uuid.UUID) error {
	return m.credentials.Acknowledge(ctx, clientID, siteID)
}

func (m *manager) StartBackup(ctx context.Context, params types.StartBackupParams) (*orchestrator.Operation, error) {
	return m.imaging.StartBackup(ctx, params)
}

func (m *manager) StartRestore(ctx context.Context, params types.StartRestoreParams) (*orchestrator.Operation, error) {
	return m.imaging.StartRestore(ctx, params)
}

func (m *manager) GetOperation(operationID string) (*orchestrator.Operation, bool) {
	return m.imaging.GetOperation(operationID)
}

func (m *manager) CancelOperation(operationID string) error {
	return m.imaging.Cancel(operationID)
}

func (m *manager) ListSnapshots(ctx context.Context, imageID uuid.UUID) ([]types.SnapshotResponse, error) {
	return m.imaging.ListSnapshots(ctx, imageID)
}

func (m *manager) ListBackupRecords(ctx context.Context, imageID uuid.UUID) ([]*types.BackupRecord, error) {
	return m.imaging.ListBackupRecords(ctx, imageID)
}
