package database

import (
	"context"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"imagevault/internal/types"
)

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (c *clientRepository) Save(ctx context.Context, client *types.Client) error {
	return translate(c.db.WithContext(ctx).Save(client).Error)
}

func (c *clientRepository) FindByID(ctx context.Context, id uuid.UUID) (*types.Client, error) {
	value := &types.Client{}
	err := c.db.
		WithContext(ctx).
		Where("id = ?", id).First(value).Error
	if err != nil {
		return nil, translate(err)
	}
	return value, nil
}

func (c *clientRepository) FindByShortName(ctx context.Context, shortName string) (*types.Client, error) {
	value := &types.Client{}
	err := c.db.
		WithContext(ctx).
		Where("short_name = ?", shortName).
		First(value).Error
	if err != nil {
		return nil, translate(err)
	}
	return value, nil
}

func (c *clientRepository) FindAll(ctx context.Context) ([]*types.Client, error) {
	result := make([]*types.Client, 0)
	err := c.db.WithContext(ctx).Order("created_at").Find(&result).Error
	return result, translate(err)
}

func (c *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(c.db.WithContext(ctx).Delete(&types.Client{}, "id = ?", id).Error)
}
