package database

import (
	"context"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"imagevault/internal/types"
)

type siteRepository struct {
	db *gorm.DB
}

func NewSiteRepository(db *gorm.DB) SiteRepository {
	return &siteRepository{db: db}
}

func (s *siteRepository) Save(ctx context.Context, site *types.Site) error {
	return translate(s.db.WithContext(ctx).Save(site).Error)
}

func (s *siteRepository) FindByID(ctx context.Context, id uuid.UUID) (*types.Site, error) {
	value := &types.Site{}
	err := s.db.
		WithContext(ctx).
		Where("id = ?", id).First(value).Error
	if err != nil {
		return nil, translate(err)
	}
	return value, nil
}

func (s *siteRepository) FindByClientID(ctx context.Context, clientID uuid.UUID) ([]*types.Site, error) {
	result := make([]*types.Site, 0)
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at").
		Find(&result).Error
	return result, translate(err)
}

func (s *siteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&types.Site{}, "id = ?", id).Error)
}
