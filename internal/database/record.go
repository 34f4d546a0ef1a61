package database

import (
	"context"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"imagevault/internal/types"
	"time"
)

type backupRecordRepository struct {
	db *gorm.DB
}

func NewBackupRecordRepository(db *gorm.DB) BackupRecordRepository {
	return &backupRecordRepository{db: db}
}

func (b *backupRecordRepository) Save(ctx context.Context, record *types.BackupRecord) error {
	return translate(b.db.WithContext(ctx).Create(record).Error)
}

func (b *backupRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*types.BackupRecord, error) {
	value := &types.BackupRecord{}
	err := b.db.
		WithContext(ctx).
		Where("id = ?", id).First(value).Error
	if err != nil {
		return nil, translate(err)
	}
	return value, nil
}

func (b *backupRecordRepository) FindByImageID(ctx context.Context, imageID uuid.UUID) ([]*types.BackupRecord, error) {
	result := make([]*types.BackupRecord, 0)
	err := b.db.WithContext(ctx).
		Where("image_id = ?", imageID).
		Order("id").
		Find(&result).Error
	return result, translate(err)
}

func (b *backupRecordRepository) FindBySyncState(ctx context.Context, states ...types.SyncState) ([]*types.BackupRecord, error) {
	result := make([]*types.BackupRecord, 0)
	err := b.db.WithContext(ctx).
		Where("sync_state IN ?", states).
		Order("id").
		Find(&result).Error
	return result, translate(err)
}

func (b *backupRecordRepository) UpdateSyncState(ctx context.Context, id uuid.UUID, state types.SyncState) error {
	updates := map[string]interface{}{"sync_state": state}
	if state == types.SyncStateSynced {
		now := time.Now()
		updates["synced_at"] = &now
	}
	return translate(b.db.WithContext(ctx).
		Model(&types.BackupRecord{}).
		Where("id = ?", id).
		Updates(updates).Error)
}
