package credentials

import (
	"context"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagevault/internal/database"
	"imagevault/logger"
	"testing"
)

func newTestManager(t *testing.T) Manager {
	t.Helper()
	require.NoError(t, logger.InitLogger("development"))
	db, err := database.Open("file::memory:")
	require.NoError(t, err)
	return NewManager(database.NewCredentialRepository(db))
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	clientID, siteID := uuid.New(), uuid.New()

	first, fresh, err := mgr.GetOrCreate(ctx, clientID, siteID)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Len(t, first.Password, 44)

	second, fresh, err := mgr.GetOrCreate(ctx, clientID, siteID)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, first.Password, second.Password)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreate_DistinctScopesDistinctPasswords(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	a, _, err := mgr.GetOrCreate(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	b, _, err := mgr.GetOrCreate(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.NotEqual(t, a.Password, b.Password)
}

func TestAcknowledge(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	clientID, siteID := uuid.New(), uuid.New()

	cred, _, err := mgr.GetOrCreate(ctx, clientID, siteID)
	require.NoError(t, err)
	assert.False(t, cred.Acknowledged())

	require.NoError(t, mgr.Acknowledge(ctx, clientID, siteID))

	got, err := mgr.Get(ctx, clientID, siteID)
	require.NoError(t, err)
	assert.True(t, got.Acknowledged())

	// acknowledging twice is a no-op
	require.NoError(t, mgr.Acknowledge(ctx, clientID, siteID))
}
