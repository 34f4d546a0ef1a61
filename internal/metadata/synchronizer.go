package metadata

import (
	"context"
	"errors"
	errors2 "github.com/pkg/errors"
	"go.uber.org/zap"
	"imagevault/internal/database"
	"imagevault/internal/types"
	"imagevault/logger"
)

type (
	// Synchronizer keeps local backup records and their remote JSON mirrors in
	// agreement. Publishing is best-effort behind a bounded retry budget: a
	// backup whose data is safely in the repository is never failed because
	// the metadata mirror was unreachable. Records that could not be mirrored
	// stay pending and are picked up by the reconciler.
	Synchronizer interface {
		PublishRecord(ctx context.Context, record *types.BackupRecord) (types.SyncState, error)
		Reconcile(ctx context.Context) error
	}

	synchronizer struct {
		store   Store
		records database.BackupRecordRepository
	}
)

func NewSynchronizer(store Store, records database.BackupRecordRepository) Synchronizer {
	return &synchronizer{store: store, records: records}
}

func (s *synchronizer) PublishRecord(ctx context.Context, record *types.BackupRecord) (types.SyncState, error) {
	if s.store == nil {
		// no object storage configured; records stay local-only
		return types.SyncStatePending, s.records.UpdateSyncState(ctx, record.ID, types.SyncStatePending)
	}

	if err := s.store.Publish(ctx, record.Metadata()); err != nil {
		logger.Warn("metadata publish deferred",
			zap.String("record_id", record.ID.String()),
			zap.Error(err))
		if uerr := s.records.UpdateSyncState(ctx, record.ID, types.SyncStatePending); uerr != nil {
			return types.SyncStatePending, uerr
		}
		return types.SyncStatePending, nil
	}

	return types.SyncStateSynced, s.records.UpdateSyncState(ctx, record.ID, types.SyncStateSynced)
}

// Reconcile republishes every record still waiting for its remote mirror.
// Local is authoritative for in-flight records; a remote object that already
// exists with different content for the same id is never overwritten, the
// record is parked as failed and the divergence surfaced for manual review.
func (s *synchronizer) Reconcile(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	pending, err := s.records.FindBySyncState(ctx, types.SyncStatePending, types.SyncStateFailed)
	if err != nil {
		return err
	}

	var firstErr error
	for _, record := range pending {
		if err := s.reconcileOne(ctx, record); err != nil {
			logger.Error("reconciliation failed for record",
				zap.String("record_id", record.ID.String()),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *synchronizer) reconcileOne(ctx context.Context, record *types.BackupRecord) error {
	remote, err := s.store.Fetch(ctx, record.ID.String())
	switch {
	case errors.Is(err, types.ErrNotFound):
		if err := s.store.Publish(ctx, record.Metadata()); err != nil {
			return err
		}
	case err != nil:
		return err
	case !sameRecord(remote, record.Metadata()):
		if uerr := s.records.UpdateSyncState(ctx, record.ID, types.SyncStateFailed); uerr != nil {
			return uerr
		}
		return errors2.Wrap(types.ErrStateCorruption,
			"remote metadata exists with different content for record "+record.ID.String())
	}

	return s.records.UpdateSyncState(ctx, record.ID, types.SyncStateSynced)
}

// sameRecord compares records field by field; timestamps are compared as
// instants since a JSON round trip normalizes their location.
func sameRecord(a, b types.MetadataRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	a.CreatedAt = b.CreatedAt
	return a == b
}
