package database

import (
	"context"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagevault/internal/types"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *testRepos {
	t.Helper()
	db, err := Open("file::memory:")
	require.NoError(t, err)
	return &testRepos{
		clients:     NewClientRepository(db),
		sites:       NewSiteRepository(db),
		images:      NewImageRepository(db),
		credentials: NewCredentialRepository(db),
		records:     NewBackupRecordRepository(db),
	}
}

type testRepos struct {
	clients     ClientRepository
	sites       SiteRepository
	images      ImageRepository
	credentials CredentialRepository
	records     BackupRecordRepository
}

func TestClientRepository_DuplicateShortName(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()

	first := &types.Client{ID: uuid.New(), Name: "Acme Corp", ShortName: "ACME"}
	require.NoError(t, repos.clients.Save(ctx, first))

	dup := &types.Client{ID: uuid.New(), Name: "Acme Clone", ShortName: "ACME"}
	err := repos.clients.Save(ctx, dup)
	assert.ErrorIs(t, err, types.ErrConstraint)
}

func TestClientRepository_FindByIDNotFound(t *testing.T) {
	repos := openTestDB(t)

	_, err := repos.clients.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSiteRepository_ShortNameUniquePerClient(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()

	clientA := &types.Client{ID: uuid.New(), Name: "Acme", ShortName: "ACME"}
	clientB := &types.Client{ID: uuid.New(), Name: "Globex", ShortName: "GLOBEX"}
	require.NoError(t, repos.clients.Save(ctx, clientA))
	require.NoError(t, repos.clients.Save(ctx, clientB))

	require.NoError(t, repos.sites.Save(ctx, &types.Site{ID: uuid.New(), ClientID: clientA.ID, Name: "HQ", ShortName: "HQ"}))

	// same short name under a different client is fine
	require.NoError(t, repos.sites.Save(ctx, &types.Site{ID: uuid.New(), ClientID: clientB.ID, Name: "HQ", ShortName: "HQ"}))

	err := repos.sites.Save(ctx, &types.Site{ID: uuid.New(), ClientID: clientA.ID, Name: "Head Office", ShortName: "HQ"})
	assert.ErrorIs(t, err, types.ErrConstraint)
}

func TestImageRepository_UpdateLastBackup(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()

	image := &types.Image{
		ID:                uuid.New(),
		ClientID:          uuid.New(),
		SiteID:            uuid.New(),
		Role:              types.RoleWorkstation,
		RepositoryLocator: "s3:http://localhost:9000/imagevault/acme/hq",
		SourceVolume:      "C:",
	}
	require.NoError(t, repos.images.Save(ctx, image))
	require.NoError(t, repos.images.UpdateLastBackup(ctx, image.ID, "abc123"))

	got, err := repos.images.FindByID(ctx, image.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.LastSnapshotID)
	require.NotNil(t, got.LastBackupAt)
	assert.WithinDuration(t, time.Now(), *got.LastBackupAt, time.Minute)
}

func TestCredentialRepository_ScopeIsUnique(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()

	clientID, siteID := uuid.New(), uuid.New()
	require.NoError(t, repos.credentials.Save(ctx, &types.RepositoryCredential{
		ID: uuid.New(), ClientID: clientID, SiteID: siteID, Password: "p1",
	}))

	err := repos.credentials.Save(ctx, &types.RepositoryCredential{
		ID: uuid.New(), ClientID: clientID, SiteID: siteID, Password: "p2",
	})
	assert.ErrorIs(t, err, types.ErrConstraint)

	got, err := repos.credentials.FindByScope(ctx, clientID, siteID)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.Password)
}

func TestBackupRecordRepository_SyncStateAndOrdering(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()

	imageID := uuid.New()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		id, err := uuid.NewV7()
		require.NoError(t, err)
		ids = append(ids, id)

		state := types.SyncStateSynced
		if i == 1 {
			state = types.SyncStatePending
		}
		require.NoError(t, repos.records.Save(ctx, &types.BackupRecord{
			ID:         id,
			ImageID:    imageID,
			ClientID:   uuid.New(),
			SiteID:     uuid.New(),
			Role:       types.RoleServer,
			SnapshotID: "snap",
			SyncState:  state,
		}))
	}

	all, err := repos.records.FindByImageID(ctx, imageID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// UUIDv7 ids sort in creation order
	for i, rec := range all {
		assert.Equal(t, ids[i], rec.ID)
	}

	pending, err := repos.records.FindBySyncState(ctx, types.SyncStatePending, types.SyncStateFailed)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ids[1], pending[0].ID)

	require.NoError(t, repos.records.UpdateSyncState(ctx, ids[1], types.SyncStateSynced))
	rec, err := repos.records.FindByID(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, types.SyncStateSynced, rec.SyncState)
	assert.NotNil(t, rec.SyncedAt)
}
