package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/google/uuid"
	errors2 "github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"imagevault/internal/database"
	"imagevault/internal/eventbus"
	"imagevault/internal/restic"
	"imagevault/internal/types"
	"imagevault/internal/vss"
	"imagevault/logger"
	"sync"
	"time"
)

type (
	BackupRequest struct {
		Image        *types.Image
		Repo         restic.Repository
		SourceVolume string
	}

	RestoreRequest struct {
		Image      *types.Image
		Repo       restic.Repository
		SnapshotID string
		TargetPath string
	}

	// Publisher mirrors a finished backup's metadata. Satisfied by
	// metadata.Synchronizer.
	Publisher interface {
		PublishRecord(ctx context.Context, record *types.BackupRecord) (types.SyncState, error)
	}

	// Orchestrator sequences VSS snapshot, restic invocation, record keeping
	// and metadata publishing for each operation, one at a time per
	// repository. Operations run on background workers; progress streams
	// through the event bus under the operation id.
	Orchestrator interface {
		StartBackup(ctx context.Context, req BackupRequest) (*Operation, error)
		StartRestore(ctx context.Context, req RestoreRequest) (*Operation, error)
		ListSnapshots(ctx context.Context, repo restic.Repository) ([]restic.Snapshot, error)
		Cancel(operationID string) error
		Get(operationID string) (*Operation, bool)
	}

	Config struct {
		StagingVolume  string
		MinFreeBytes   uint64
		MaxConcurrency int64

		// OpRetention is how long a finished operation stays queryable before
		// it is dropped from memory.
		OpRetention time.Duration
	}

	orchestrator struct {
		snapshotter vss.Snapshotter
		restic      restic.Client
		bus         eventbus.Bus
		records     database.BackupRecordRepository
		images      database.ImageRepository
		publisher   Publisher
		preflight   FreeSpaceChecker
		locks       *lockTable
		workers     *semaphore.Weighted
		cfg         Config

		mu  sync.Mutex
		ops map[string]*Operation
	}
)

func New(
	snapshotter vss.Snapshotter,
	resticClient restic.Client,
	bus eventbus.Bus,
	records database.BackupRecordRepository,
	images database.ImageRepository,
	publisher Publisher,
	cfg Config,
) Orchestrator {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.OpRetention <= 0 {
		cfg.OpRetention = time.Hour
	}
	return &orchestrator{
		snapshotter: snapshotter,
		restic:      resticClient,
		bus:         bus,
		records:     records,
		images:      images,
		publisher:   publisher,
		preflight:   NewFreeSpaceChecker(),
		locks:       newLockTable(),
		workers:     semaphore.NewWeighted(cfg.MaxConcurrency),
		cfg:         cfg,
	}
}

func (o *orchestrator) StartBackup(ctx context.Context, req BackupRequest) (*Operation, error) {
	if !o.locks.TryAcquire(req.Repo.Locator) {
		return nil, types.ErrRepositoryBusy
	}

	if err := o.preflight.Check(o.cfg.StagingVolume, o.cfg.MinFreeBytes); err != nil {
		o.locks.Release(req.Repo.Locator)
		return nil, errors2.Wrap(types.ErrValidation, err.Error())
	}

	opCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	op := newOperation(uuid.NewString(), KindBackup, req.Image.ID, req.Repo.Locator, cancel)
	o.track(op)

	go o.runBackup(opCtx, op, req)
	return op, nil
}

func (o *orchestrator) runBackup(ctx context.Context, op *Operation, req BackupRequest) {
	defer o.finish(op)

	if err := o.workers.Acquire(ctx, 1); err != nil {
		op.fail(StateBackupFailed, "cancelled before start")
		o.bus.Broadcast(op.ID, eventbus.Error, "operation cancelled before start")
		return
	}
	defer o.workers.Release(1)

	// snapshot phase
	op.setState(StateSnapshotRequested)
	o.bus.Broadcast(op.ID, eventbus.Info, "creating volume shadow copy of "+req.SourceVolume)

	snapshot, err := o.snapshotter.Create(ctx, req.SourceVolume)
	if err != nil {
		op.fail(StateSnapshotFailed, err.Error())
		o.bus.Broadcast(op.ID, eventbus.Error, "snapshot creation failed: "+err.Error())
		return
	}

	// the shadow copy is removed on every exit path, including cancellation
	defer func() {
		cleanupCtx, cancelCleanup := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancelCleanup()
		if err := o.snapshotter.Delete(cleanupCtx, snapshot); err != nil {
			logger.Error("failed to delete shadow copy",
				zap.String("operation_id", op.ID),
				zap.String("snapshot_id", snapshot.ID),
				zap.Error(err))
		}
	}()

	op.setState(StateSnapshotReady)

	// a crashed run can leave stale locks in the repository; restic only
	// removes locks it considers dead
	if err := o.restic.Unlock(ctx, req.Repo); err != nil {
		logger.Warn("failed to clear stale repository locks",
			zap.String("operation_id", op.ID),
			zap.Error(err))
	}

	// backup phase; no timeout, backups legitimately run for hours
	op.setState(StateBackupRunning)
	o.bus.Broadcast(op.ID, eventbus.Info, "backup started for repository "+req.Repo.Locator)

	tags := []string{
		"image=" + req.Image.ID.String(),
		"role=" + req.Image.Role.String(),
	}
	summary, warnings, err := o.restic.Backup(ctx, req.Repo, snapshot.DevicePath, tags, func(line string) {
		o.bus.Broadcast(op.ID, eventbus.Info, line)
	})
	if err != nil {
		reason := err.Error()
		if ctx.Err() != nil {
			reason = "operation cancelled: " + reason
		}
		op.fail(StateBackupFailed, reason)
		o.bus.Broadcast(op.ID, eventbus.Error, reason)
		return
	}

	op.setState(StateBackupSucceeded)
	if warnings {
		op.setWarnings()
		o.bus.Broadcast(op.ID, eventbus.Warning, "backup finished with warnings, some files were skipped")
	}

	// the catalog is updated before any remote mirroring is attempted
	record, err := o.writeRecord(ctx, req.Image, summary, warnings)
	if err != nil {
		op.fail(StateBackupFailed, "backup stored but catalog update failed: "+err.Error())
		o.bus.Broadcast(op.ID, eventbus.Error, op.Failure())
		return
	}

	op.setState(StateMetadataPublishing)
	state, err := o.publisher.PublishRecord(ctx, record)
	if err != nil {
		logger.Error("metadata publish bookkeeping failed",
			zap.String("operation_id", op.ID),
			zap.Error(err))
	}

	final := StateComplete
	if state != types.SyncStateSynced {
		final = StateMetadataPending
		o.bus.Broadcast(op.ID, eventbus.Warning, "metadata mirror deferred, will be reconciled later")
	}
	op.setState(final)

	data, _ := json.Marshal(map[string]interface{}{
		"state":       final,
		"warnings":    warnings,
		"snapshot_id": summary.SnapshotID,
		"record_id":   record.ID,
		"size_bytes":  summary.TotalBytes,
	})
	o.bus.BroadcastWithData(op.ID, eventbus.Complete, "backup complete", data)
}

func (o *orchestrator) writeRecord(ctx context.Context, image *types.Image, summary *restic.BackupSummary, warnings bool) (*types.BackupRecord, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	record := &types.BackupRecord{
		ID:              id,
		ImageID:         image.ID,
		ClientID:        image.ClientID,
		SiteID:          image.SiteID,
		Role:            image.Role,
		SnapshotID:      summary.SnapshotID,
		SizeBytes:       summary.TotalBytes,
		DurationSeconds: summary.TotalDuration,
		Warnings:        warnings,
		SyncState:       types.SyncStatePending,
	}
	if err := o.records.Save(ctx, record); err != nil {
		return nil, err
	}
	if err := o.images.UpdateLastBackup(ctx, image.ID, summary.SnapshotID); err != nil {
		return nil, err
	}
	return record, nil
}

func (o *orchestrator) StartRestore(ctx context.Context, req RestoreRequest) (*Operation, error) {
	if !o.locks.TryAcquire(req.Repo.Locator) {
		return nil, types.ErrRepositoryBusy
	}

	opCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	op := newOperation(uuid.NewString(), KindRestore, req.Image.ID, req.Repo.Locator, cancel)
	o.track(op)

	go o.runRestore(opCtx, op, req)
	return op, nil
}

// runRestore is deliberately simpler than backup: no snapshot, no retry. A
// failed restore is always fatal and reported; retrying blindly could corrupt
// a partially written target.
func (o *orchestrator) runRestore(ctx context.Context, op *Operation, req RestoreRequest) {
	defer o.finish(op)

	if err := o.workers.Acquire(ctx, 1); err != nil {
		op.fail(StateRestoreFailed, "cancelled before start")
		o.bus.Broadcast(op.ID, eventbus.Error, "operation cancelled before start")
		return
	}
	defer o.workers.Release(1)

	op.setState(StateRestoreRunning)
	o.bus.Broadcast(op.ID, eventbus.Info, "restoring snapshot "+req.SnapshotID+" to "+req.TargetPath)

	err := o.restic.Restore(ctx, req.Repo, req.SnapshotID, req.TargetPath, func(line string) {
		o.bus.Broadcast(op.ID, eventbus.Info, line)
	})
	if err != nil {
		op.fail(StateRestoreFailed, err.Error())
		o.bus.Broadcast(op.ID, eventbus.Error, err.Error())
		return
	}

	op.setState(StateRestoreDone)
	o.bus.Broadcast(op.ID, eventbus.Complete, "restore complete")
}

func (o *orchestrator) ListSnapshots(ctx context.Context, repo restic.Repository) ([]restic.Snapshot, error) {
	return o.restic.Snapshots(ctx, repo)
}

func (o *orchestrator) Cancel(operationID string) error {
	op, ok := o.Get(operationID)
	if !ok {
		return types.ErrNotFound
	}
	if op.State().Terminal() {
		return errors.New("operation already finished")
	}

	logger.Info("cancelling operation",
		zap.String("operation_id", operationID))
	op.cancel()
	return nil
}

func (o *orchestrator) Get(operationID string) (*Operation, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	op, ok := o.ops[operationID]
	return op, ok
}

func (o *orchestrator) track(op *Operation) {
	o.mu.Lock()
	if o.ops == nil {
		o.ops = make(map[string]*Operation)
	}
	o.ops[op.ID] = op
	o.mu.Unlock()
}

// finish releases the repository lock after all deferred cleanup has run and
// signals waiters. The finished operation stays queryable for the retention
// window, then drops out of the map so week-long uptimes don't accumulate one
// Operation per backup ever run.
func (o *orchestrator) finish(op *Operation) {
	o.locks.Release(op.Locator)
	op.cancel()
	close(op.done)

	time.AfterFunc(o.cfg.OpRetention, func() {
		o.mu.Lock()
		delete(o.ops, op.ID)
		o.mu.Unlock()
	})
}
