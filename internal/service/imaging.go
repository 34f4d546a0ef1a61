package service

import (
	"context"
	"errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	errors2 "github.com/pkg/errors"
	"github.com/samber/lo"
	"imagevault/internal/credentials"
	"imagevault/internal/database"
	"imagevault/internal/orchestrator"
	"imagevault/internal/restic"
	"imagevault/internal/types"
)

type (
	// ImagingService ties the catalog, credential manager and orchestrator
	// together for the backup/restore operations. It resolves an image id into
	// everything restic needs and refuses to touch a repository whose password
	// the operator has not acknowledged saving.
	ImagingService interface {
		StartBackup(ctx context.Context, params types.StartBackupParams) (*orchestrator.Operation, error)
		StartRestore(ctx context.Context, params types.StartRestoreParams) (*orchestrator.Operation, error)
		ListSnapshots(ctx context.Context, imageID uuid.UUID) ([]types.SnapshotResponse, error)
		ListBackupRecords(ctx context.Context, imageID uuid.UUID) ([]*types.BackupRecord, error)
		GetOperation(operationID string) (*orchestrator.Operation, bool)
		Cancel(operationID string) error
	}

	imagingService struct {
		images      database.ImageRepository
		records     database.BackupRecordRepository
		credentials credentials.Manager
		restic      restic.Client
		orch        orchestrator.Orchestrator
		storage     *types.StorageCredentials
		validate    *validator.Validate
	}
)

func NewImagingService(
	images database.ImageRepository,
	records database.BackupRecordRepository,
	creds credentials.Manager,
	resticClient restic.Client,
	orch orchestrator.Orchestrator,
	storage *types.StorageCredentials,
) ImagingService {
	return &imagingService{
		images:      images,
		records:     records,
		credentials: creds,
		restic:      resticClient,
		orch:        orch,
		storage:     storage,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *imagingService) StartBackup(ctx context.Context, params types.StartBackupParams) (*orchestrator.Operation, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, errors2.Wrap(types.ErrValidation, err.Error())
	}

	image, err := s.images.FindByID(ctx, params.ImageID)
	if err != nil {
		return nil, err
	}

	repo, err := s.repositoryFor(ctx, image)
	if err != nil {
		return nil, err
	}

	// init is idempotent; an existing repository is left untouched. A rejected
	// password surfaces here, before any snapshot work starts.
	if err := s.restic.Init(ctx, repo); err != nil {
		return nil, err
	}

	return s.orch.StartBackup(ctx, orchestrator.BackupRequest{
		Image:        image,
		Repo:         repo,
		SourceVolume: image.SourceVolume,
	})
}

func (s *imagingService) StartRestore(ctx context.Context, params types.StartRestoreParams) (*orchestrator.Operation, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, errors2.Wrap(types.ErrValidation, err.Error())
	}

	image, err := s.images.FindByID(ctx, params.ImageID)
	if err != nil {
		return nil, err
	}

	repo, err := s.repositoryFor(ctx, image)
	if err != nil {
		return nil, err
	}

	return s.orch.StartRestore(ctx, orchestrator.RestoreRequest{
		Image:      image,
		Repo:       repo,
		SnapshotID: params.SnapshotID,
		TargetPath: params.TargetPath,
	})
}

func (s *imagingService) ListSnapshots(ctx context.Context, imageID uuid.UUID) ([]types.SnapshotResponse, error) {
	image, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return nil, err
	}

	repo, err := s.repositoryFor(ctx, image)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.orch.ListSnapshots(ctx, repo)
	if err != nil {
		return nil, err
	}

	return lo.Map(snapshots, func(item restic.Snapshot, index int) types.SnapshotResponse {
		return types.SnapshotResponse{
			ID:      item.ID,
			ShortID: item.ShortID,
			Time:    item.Time,
			Paths:   item.Paths,
			Tags:    item.Tags,
		}
	}), nil
}

func (s *imagingService) ListBackupRecords(ctx context.Context, imageID uuid.UUID) ([]*types.BackupRecord, error) {
	return s.records.FindByImageID(ctx, imageID)
}

func (s *imagingService) GetOperation(operationID string) (*orchestrator.Operation, bool) {
	return s.orch.Get(operationID)
}

func (s *imagingService) Cancel(operationID string) error {
	return s.orch.Cancel(operationID)
}

// repositoryFor resolves the image's repository credential and storage
// environment. The credential must exist and be acknowledged: an operator who
// never confirmed saving the password would be one server loss away from an
// unopenable repository.
func (s *imagingService) repositoryFor(ctx context.Context, image *types.Image) (restic.Repository, error) {
	cred, err := s.credentials.Get(ctx, image.ClientID, image.SiteID)
	if errors.Is(err, types.ErrNotFound) {
		return restic.Repository{}, errors2.Wrap(types.ErrCredentialUnacknowledged,
			"no repository credential issued for this client/site yet")
	}
	if err != nil {
		return restic.Repository{}, err
	}
	if !cred.Acknowledged() {
		return restic.Repository{}, errors2.Wrap(types.ErrCredentialUnacknowledged,
			"repository credential has not been acknowledged as saved")
	}

	repo := restic.Repository{
		Locator:  image.RepositoryLocator,
		Password: cred.Password,
	}
	if restic.IsS3(repo.Locator) {
		repo.Storage = s.storage
	}
	return repo, nil
}
