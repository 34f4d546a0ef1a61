package orchestrator

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagevault/internal/database"
	"imagevault/internal/eventbus"
	"imagevault/internal/restic"
	"imagevault/internal/types"
	"imagevault/internal/vss"
	"imagevault/logger"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSnapshotter struct {
	mu         sync.Mutex
	created    int
	deleted    int
	failCreate bool
}

func (f *fakeSnapshotter) Create(_ context.Context, volume string) (*vss.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return nil, errors.New("vss writer timed out")
	}
	f.created++
	return &vss.Snapshot{ID: "shadow-1", Volume: volume, DevicePath: volume}, nil
}

func (f *fakeSnapshotter) Delete(_ context.Context, _ *vss.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted++
	return nil
}

func (f *fakeSnapshotter) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, f.deleted
}

type fakeResticClient struct {
	summary    *restic.BackupSummary
	warnings   bool
	err        error
	blockOnCtx bool // simulate a long-running backup that only ends on cancel
}

func (f *fakeResticClient) Init(context.Context, restic.Repository) error { return nil }

func (f *fakeResticClient) Backup(ctx context.Context, _ restic.Repository, _ string, _ []string, onLine restic.LineFunc) (*restic.BackupSummary, bool, error) {
	if f.blockOnCtx {
		<-ctx.Done()
		return nil, false, ctx.Err()
	}
	if f.err != nil {
		return nil, false, f.err
	}
	if onLine != nil {
		onLine(`{"message_type":"status","percent_done":1}`)
	}
	return f.summary, f.warnings, nil
}

func (f *fakeResticClient) Restore(ctx context.Context, _ restic.Repository, _, _ string, _ restic.LineFunc) error {
	return f.err
}

func (f *fakeResticClient) Snapshots(context.Context, restic.Repository) ([]restic.Snapshot, error) {
	return []restic.Snapshot{{ID: "abc", ShortID: "abc123"}}, nil
}

func (f *fakeResticClient) Unlock(context.Context, restic.Repository) error { return nil }

type fakePublisher struct {
	state types.SyncState
	err   error
}

func (f *fakePublisher) PublishRecord(context.Context, *types.BackupRecord) (types.SyncState, error) {
	if f.state == "" {
		return types.SyncStateSynced, f.err
	}
	return f.state, f.err
}

type fixture struct {
	orch    Orchestrator
	snaps   *fakeSnapshotter
	client  *fakeResticClient
	records database.BackupRecordRepository
	images  database.ImageRepository
	image   *types.Image
}

func newFixture(t *testing.T, client *fakeResticClient, publisher Publisher) *fixture {
	t.Helper()
	require.NoError(t, logger.InitLogger("development"))

	db, err := database.Open("file::memory:")
	require.NoError(t, err)
	records := database.NewBackupRecordRepository(db)
	images := database.NewImageRepository(db)

	image := &types.Image{
		ID:                uuid.New(),
		ClientID:          uuid.New(),
		SiteID:            uuid.New(),
		Role:              types.RoleWorkstation,
		RepositoryLocator: "s3:http://localhost:9000/imagevault/acme/hq",
		SourceVolume:      "C:",
	}
	require.NoError(t, images.Save(context.Background(), image))

	snaps := &fakeSnapshotter{}
	orch := New(snaps, client, eventbus.New(), records, images, publisher, Config{})
	return &fixture{orch: orch, snaps: snaps, client: client, records: records, images: images, image: image}
}

func (f *fixture) backupRequest() BackupRequest {
	return BackupRequest{
		Image:        f.image,
		Repo:         restic.Repository{Locator: f.image.RepositoryLocator, Password: "p"},
		SourceVolume: f.image.SourceVolume,
	}
}

func waitDone(t *testing.T, op *Operation) {
	t.Helper()
	select {
	case <-op.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("operation did not finish in time")
	}
}

func TestBackup_CompleteFlow(t *testing.T) {
	client := &fakeResticClient{summary: &restic.BackupSummary{
		SnapshotID:    "9c3a1f",
		TotalBytes:    4096,
		TotalDuration: 12.5,
	}}
	f := newFixture(t, client, &fakePublisher{})

	op, err := f.orch.StartBackup(context.Background(), f.backupRequest())
	require.NoError(t, err)
	waitDone(t, op)

	assert.Equal(t, StateComplete, op.State())
	assert.False(t, op.Warnings())

	created, deleted := f.snaps.counts()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, deleted, "shadow copy removed on success")

	records, err := f.records.FindByImageID(context.Background(), f.image.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "9c3a1f", records[0].SnapshotID)
	assert.Equal(t, types.SyncStateSynced, records[0].SyncState)

	image, err := f.images.FindByID(context.Background(), f.image.ID)
	require.NoError(t, err)
	assert.Equal(t, "9c3a1f", image.LastSnapshotID)
}

func TestBackup_WarningsStillComplete(t *testing.T) {
	client := &fakeResticClient{
		summary:  &restic.BackupSummary{SnapshotID: "warned"},
		warnings: true,
	}
	f := newFixture(t, client, &fakePublisher{})

	op, err := f.orch.StartBackup(context.Background(), f.backupRequest())
	require.NoError(t, err)
	waitDone(t, op)

	assert.Equal(t, StateComplete, op.State())
	assert.True(t, op.Warnings())
	assert.True(t, op.State().Success())
}

func TestBackup_ToolFailureCleansUp(t *testing.T) {
	client := &fakeResticClient{err: &types.ExternalToolError{Tool: "restic backup", ExitCode: 1, Stderr: "boom"}}
	f := newFixture(t, client, &fakePublisher{})

	op, err := f.orch.StartBackup(context.Background(), f.backupRequest())
	require.NoError(t, err)
	waitDone(t, op)

	assert.Equal(t, StateBackupFailed, op.State())
	assert.Contains(t, op.Failure(), "boom")

	_, deleted := f.snaps.counts()
	assert.Equal(t, 1, deleted, "shadow copy removed on failure")

	records, err := f.records.FindByImageID(context.Background(), f.image.ID)
	require.NoError(t, err)
	assert.Empty(t, records, "no record for a failed backup")
}

func TestBackup_SnapshotFailureIsTerminal(t *testing.T) {
	client := &fakeResticClient{summary: &restic.BackupSummary{SnapshotID: "x"}}
	f := newFixture(t, client, &fakePublisher{})
	f.snaps.failCreate = true

	op, err := f.orch.StartBackup(context.Background(), f.backupRequest())
	require.NoError(t, err)
	waitDone(t, op)

	assert.Equal(t, StateSnapshotFailed, op.State())
}

func TestBackup_RepositoryLockedWhileRunning(t *testing.T) {
	client := &fakeResticClient{blockOnCtx: true}
	f := newFixture(t, client, &fakePublisher{})

	op, err := f.orch.StartBackup(context.Background(), f.backupRequest())
	require.NoError(t, err)

	// second operation against the same repository is refused immediately
	_, err = f.orch.StartBackup(context.Background(), f.backupRequest())
	assert.ErrorIs(t, err, types.ErrRepositoryBusy)

	require.NoError(t, f.orch.Cancel(op.ID))
	waitDone(t, op)

	// lock released after cancellation, next operation may start
	op2, err := f.orch.StartBackup(context.Background(), f.backupRequest())
	require.NoError(t, err)
	require.NoError(t, f.orch.Cancel(op2.ID))
	waitDone(t, op2)
}

func TestBackup_ConcurrentSameRepositoryOnlyOneWins(t *testing.T) {
	client := &fakeResticClient{blockOnCtx: true}
	f := newFixture(t, client, &fakePublisher{})

	const attempts = 16
	var started []*Operation
	var busy atomic.Int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			op, err := f.orch.StartBackup(context.Background(), f.backupRequest())
			if errors.Is(err, types.ErrRepositoryBusy) {
				busy.Add(1)
				return
			}
			mu.Lock()
			started = append(started, op)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, len(started), "exactly one operation may hold the repository lock")
	assert.Equal(t, int32(attempts-1), busy.Load())

	require.NoError(t, f.orch.Cancel(started[0].ID))
	waitDone(t, started[0])
}

func TestBackup_CancellationCleansUpAndReleasesLock(t *testing.T) {
	client := &fakeResticClient{blockOnCtx: true}
	f := newFixture(t, client, &fakePublisher{})

	op, err := f.orch.StartBackup(context.Background(), f.backupRequest())
	require.NoError(t, err)

	// wait until the backup is actually running before cancelling
	require.Eventually(t, func() bool {
		return op.State() == StateBackupRunning
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.orch.Cancel(op.ID))
	waitDone(t, op)

	assert.Equal(t, StateBackupFailed, op.State())
	assert.Contains(t, op.Failure(), "cancelled")

	created, deleted := f.snaps.counts()
	assert.Equal(t, created, deleted, "cancelled operation leaves no orphaned snapshot")
}

func TestBackup_MetadataPendingStillSuccess(t *testing.T) {
	client := &fakeResticClient{summary: &restic.BackupSummary{SnapshotID: "pending"}}
	f := newFixture(t, client, &fakePublisher{state: types.SyncStatePending})

	op, err := f.orch.StartBackup(context.Background(), f.backupRequest())
	require.NoError(t, err)
	waitDone(t, op)

	assert.Equal(t, StateMetadataPending, op.State())
	assert.True(t, op.State().Success(), "deferred metadata mirror still reports success")
}

func TestRestore_FailureIsFatal(t *testing.T) {
	client := &fakeResticClient{err: &types.ExternalToolError{Tool: "restic restore", ExitCode: 1, Stderr: "target busy"}}
	f := newFixture(t, client, &fakePublisher{})

	op, err := f.orch.StartRestore(context.Background(), RestoreRequest{
		Image:      f.image,
		Repo:       restic.Repository{Locator: f.image.RepositoryLocator, Password: "p"},
		SnapshotID: "abc",
		TargetPath: `D:\restore`,
	})
	require.NoError(t, err)
	waitDone(t, op)

	assert.Equal(t, StateRestoreFailed, op.State())
	assert.Contains(t, op.Failure(), "target busy")
}

func TestFinishedOperationEvictedAfterRetention(t *testing.T) {
	client := &fakeResticClient{summary: &restic.BackupSummary{SnapshotID: "evicted"}}
	f := newFixture(t, client, &fakePublisher{})
	f.orch = New(f.snaps, client, eventbus.New(), f.records, f.images, &fakePublisher{},
		Config{OpRetention: 20 * time.Millisecond})

	op, err := f.orch.StartBackup(context.Background(), f.backupRequest())
	require.NoError(t, err)
	waitDone(t, op)

	_, found := f.orch.Get(op.ID)
	assert.True(t, found, "still queryable right after finishing")

	require.Eventually(t, func() bool {
		_, live := f.orch.Get(op.ID)
		return !live
	}, 2*time.Second, 10*time.Millisecond, "terminal operations must not accumulate")
}

func TestCancel_UnknownOperation(t *testing.T) {
	f := newFixture(t, &fakeResticClient{}, &fakePublisher{})
	assert.ErrorIs(t, f.orch.Cancel("nope"), types.ErrNotFound)
}
