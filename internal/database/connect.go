package database

import (
	"errors"
	errors2 "github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"imagevault/internal/types"
)

func Open(dir string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dir), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, errors2.Wrap(err, "failed to open DB: "+dir)
	}

	// sqlite allows one writer at a time; a second pooled connection would only
	// produce SQLITE_BUSY (and would see a different database entirely for
	// in-memory targets)
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&types.Client{},
		&types.Site{},
		&types.Image{},
		&types.RepositoryCredential{},
		&types.BackupRecord{}); err != nil {
		return nil, err
	}

	return db, nil
}

// translate maps gorm's errors onto the catalog's error taxonomy so callers
// never depend on the storage driver.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return types.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated):
		return errors2.Wrap(types.ErrConstraint, err.Error())
	default:
		return err
	}
}
