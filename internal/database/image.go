package database

import (
	"context"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"imagevault/internal/types"
	"time"
)

type imageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (i *imageRepository) Save(ctx context.Context, image *types.Image) error {
	return translate(i.db.WithContext(ctx).Save(image).Error)
}

func (i *imageRepository) FindByID(ctx context.Context, id uuid.UUID) (*types.Image, error) {
	value := &types.Image{}
	err := i.db.
		WithContext(ctx).
		Where("id = ?", id).First(value).Error
	if err != nil {
		return nil, translate(err)
	}
	return value, nil
}

func (i *imageRepository) FindBySiteID(ctx context.Context, siteID uuid.UUID) ([]*types.Image, error) {
	result := make([]*types.Image, 0)
	err := i.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("created_at").
		Find(&result).Error
	return result, translate(err)
}

func (i *imageRepository) FindAll(ctx context.Context) ([]*types.Image, error) {
	result := make([]*types.Image, 0)
	err := i.db.WithContext(ctx).Order("created_at").Find(&result).Error
	return result, translate(err)
}

func (i *imageRepository) UpdateLastBackup(ctx context.Context, id uuid.UUID, snapshotID string) error {
	now := time.Now()
	return translate(i.db.WithContext(ctx).
		Model(&types.Image{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_snapshot_id": snapshotID,
			"last_backup_at":   &now,
		}).Error)
}

func (i *imageRepository) DeleteBySiteID(ctx context.Context, siteID uuid.UUID) error {
	return translate(i.db.WithContext(ctx).Delete(&types.Image{}, "site_id = ?", siteID).Error)
}
