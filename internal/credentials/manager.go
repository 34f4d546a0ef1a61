package credentials

import (
	"context"
	"errors"
	"github.com/google/uuid"
	errors2 "github.com/pkg/errors"
	"go.uber.org/zap"
	"imagevault/internal/database"
	"imagevault/internal/misc"
	"imagevault/internal/types"
	"imagevault/logger"
)

type (
	// Manager hands out the repository password for a client/site pair. A
	// password is generated exactly once; every later call returns the stored
	// value. The fresh flag tells the caller this is the one and only chance
	// to show the password to the operator, losing it at that point loses the
	// repository.
	Manager interface {
		GetOrCreate(ctx context.Context, clientID, siteID uuid.UUID) (*types.RepositoryCredential, bool, error)
		Get(ctx context.Context, clientID, siteID uuid.UUID) (*types.RepositoryCredential, error)
		Acknowledge(ctx context.Context, clientID, siteID uuid.UUID) error
	}

	manager struct {
		repository database.CredentialRepository
		generator  misc.RandomPasswordGenerator
	}
)

func NewManager(repo database.CredentialRepository) Manager {
	return &manager{repository: repo, generator: misc.DefaultPasswordGenerator}
}

func (m *manager) GetOrCreate(ctx context.Context, clientID, siteID uuid.UUID) (*types.RepositoryCredential, bool, error) {
	existing, err := m.repository.FindByScope(ctx, clientID, siteID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, false, err
	}

	password, err := m.generator.Generate(misc.PasswordLength)
	if err != nil {
		return nil, false, errors2.Wrap(err, "failed to generate repository password")
	}

	cred := &types.RepositoryCredential{
		ID:       uuid.New(),
		ClientID: clientID,
		SiteID:   siteID,
		Password: password,
	}
	if err := m.repository.Save(ctx, cred); err != nil {
		// a concurrent caller won the insert; the unique index is the arbiter
		if errors.Is(err, types.ErrConstraint) {
			existing, ferr := m.repository.FindByScope(ctx, clientID, siteID)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	logger.Info("generated repository credential",
		zap.String("client_id", clientID.String()),
		zap.String("site_id", siteID.String()))
	return cred, true, nil
}

func (m *manager) Get(ctx context.Context, clientID, siteID uuid.UUID) (*types.RepositoryCredential, error) {
	return m.repository.FindByScope(ctx, clientID, siteID)
}

func (m *manager) Acknowledge(ctx context.Context, clientID, siteID uuid.UUID) error {
	cred, err := m.repository.FindByScope(ctx, clientID, siteID)
	if err != nil {
		return err
	}
	if cred.Acknowledged() {
		return nil
	}
	return m.repository.Acknowledge(ctx, cred.ID)
}
