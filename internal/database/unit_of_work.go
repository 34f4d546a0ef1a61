package database

import (
	"context"
	"gorm.io/gorm"
)

type (
	// TxRepositories are repository handles bound to a single transaction.
	// Writes through them commit or roll back together.
	TxRepositories struct {
		Clients ClientRepository
		Sites   SiteRepository
		Images  ImageRepository
	}

	// UnitOfWork runs multi-entity catalog writes atomically.
	UnitOfWork interface {
		Transaction(ctx context.Context, fn func(repos TxRepositories) error) error
	}

	unitOfWork struct {
		db *gorm.DB
	}
)

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Transaction(ctx context.Context, fn func(repos TxRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(TxRepositories{
			Clients: NewClientRepository(tx),
			Sites:   NewSiteRepository(tx),
			Images:  NewImageRepository(tx),
		})
	})
}
