package metadata

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagevault/internal/database"
	"imagevault/internal/types"
	"imagevault/logger"
	"sync"
	"testing"
	"time"
)

type fakeObjectStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	putFails int // fail this many Puts with a transient error before succeeding
	putCalls int
	permErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.putCalls++
	if f.permErr != nil {
		return f.permErr
	}
	if f.putCalls <= f.putFails {
		return &types.TransientError{Err: errors.New("connection timed out")}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.objects[key] = cp
	return nil
}

func (f *fakeObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[key]
	if !ok {
		return nil, types.ErrNotFound
	}
	return data, nil
}

func (f *fakeObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0)
	for k := range f.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func newTestStore(objects ObjectStore) Store {
	return &store{objects: objects, attempts: 4, baseWait: time.Millisecond, timeout: time.Second}
}

func testRecord(t *testing.T) *types.BackupRecord {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return &types.BackupRecord{
		ID:         id,
		ImageID:    uuid.New(),
		ClientID:   uuid.New(),
		SiteID:     uuid.New(),
		Role:       types.RoleWorkstation,
		SnapshotID: "9c3a1f",
		SizeBytes:  1 << 20,
		SyncState:  types.SyncStatePending,
		CreatedAt:  time.Now().UTC(),
	}
}

func newTestSynchronizer(t *testing.T, objects ObjectStore) (Synchronizer, database.BackupRecordRepository) {
	t.Helper()
	require.NoError(t, logger.InitLogger("development"))
	db, err := database.Open("file::memory:")
	require.NoError(t, err)
	records := database.NewBackupRecordRepository(db)
	return NewSynchronizer(newTestStore(objects), records), records
}

func TestStore_PublishFetchRoundTrip(t *testing.T) {
	objects := newFakeObjectStore()
	st := newTestStore(objects)
	rec := testRecord(t).Metadata()

	require.NoError(t, st.Publish(context.Background(), rec))

	got, err := st.Fetch(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.True(t, sameRecord(rec, got))
}

func TestStore_RetriesTransientFailures(t *testing.T) {
	objects := newFakeObjectStore()
	objects.putFails = 3 // three timeouts, fourth attempt succeeds
	st := newTestStore(objects)

	err := st.Publish(context.Background(), testRecord(t).Metadata())
	require.NoError(t, err)
	assert.Equal(t, 4, objects.putCalls)
}

func TestStore_PermanentFailureNotRetried(t *testing.T) {
	objects := newFakeObjectStore()
	objects.permErr = errors.New("403 access denied")
	st := newTestStore(objects)

	err := st.Publish(context.Background(), testRecord(t).Metadata())
	require.Error(t, err)
	assert.Equal(t, 1, objects.putCalls)
}

func TestSynchronizer_PublishSuccessMarksSynced(t *testing.T) {
	objects := newFakeObjectStore()
	sync, records := newTestSynchronizer(t, objects)
	ctx := context.Background()

	rec := testRecord(t)
	require.NoError(t, records.Save(ctx, rec))

	state, err := sync.PublishRecord(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, types.SyncStateSynced, state)

	got, err := records.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SyncStateSynced, got.SyncState)
}

func TestSynchronizer_PublishFailureLeavesPending(t *testing.T) {
	objects := newFakeObjectStore()
	objects.putFails = 100 // exhausts the retry budget
	sync, records := newTestSynchronizer(t, objects)
	ctx := context.Background()

	rec := testRecord(t)
	require.NoError(t, records.Save(ctx, rec))

	state, err := sync.PublishRecord(ctx, rec)
	require.NoError(t, err, "a failed mirror must not fail the backup")
	assert.Equal(t, types.SyncStatePending, state)

	got, err := records.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SyncStatePending, got.SyncState)
}

func TestSynchronizer_ReconcilePublishesPending(t *testing.T) {
	objects := newFakeObjectStore()
	sync, records := newTestSynchronizer(t, objects)
	ctx := context.Background()

	rec := testRecord(t)
	require.NoError(t, records.Save(ctx, rec))

	require.NoError(t, sync.Reconcile(ctx))

	got, err := records.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SyncStateSynced, got.SyncState)

	_, ok := objects.objects[rec.Metadata().ObjectKey()]
	assert.True(t, ok, "record mirrored during reconciliation")
}

func TestSynchronizer_ReconcileDetectsDivergence(t *testing.T) {
	objects := newFakeObjectStore()
	sync, records := newTestSynchronizer(t, objects)
	ctx := context.Background()

	rec := testRecord(t)
	require.NoError(t, records.Save(ctx, rec))

	// a conflicting remote copy under the same id
	conflicting := rec.Metadata()
	conflicting.SnapshotID = "different"
	data, err := conflicting.Encode()
	require.NoError(t, err)
	objects.objects[conflicting.ObjectKey()] = data

	err = sync.Reconcile(ctx)
	assert.ErrorIs(t, err, types.ErrStateCorruption)

	got, err := records.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SyncStateFailed, got.SyncState)

	// remote copy untouched
	assert.Equal(t, data, objects.objects[conflicting.ObjectKey()])
}
