package database

import (
	"context"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"imagevault/internal/types"
	"time"
)

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

// Save inserts only. Credentials are immutable; an update here would be a bug.
func (c *credentialRepository) Save(ctx context.Context, cred *types.RepositoryCredential) error {
	return translate(c.db.WithContext(ctx).Create(cred).Error)
}

func (c *credentialRepository) FindByScope(ctx context.Context, clientID, siteID uuid.UUID) (*types.RepositoryCredential, error) {
	value := &types.RepositoryCredential{}
	err := c.db.
		WithContext(ctx).
		Where("client_id = ? AND site_id = ?", clientID, siteID).
		First(value).Error
	if err != nil {
		return nil, translate(err)
	}
	return value, nil
}

func (c *credentialRepository) Acknowledge(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return translate(c.db.WithContext(ctx).
		Model(&types.RepositoryCredential{}).
		Where("id = ?", id).
		Update("acknowledged_at", &now).Error)
}
