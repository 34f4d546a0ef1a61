package service

import (
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	errors2 "github.com/pkg/errors"
	"go.uber.org/zap"
	"imagevault/internal/database"
	"imagevault/internal/restic"
	"imagevault/internal/types"
	"imagevault/logger"
	"strings"
)

type (
	// CatalogService manages the client/site/image hierarchy. Repository
	// locators are assigned when an image is created and never change
	// afterwards: a moved repository is a new image.
	CatalogService interface {
		CreateClient(ctx context.Context, params types.CreateClientParams) (*types.Client, error)
		GetClient(ctx context.Context, id uuid.UUID) (*types.Client, error)
		GetClientByShortName(ctx context.Context, shortName string) (*types.Client, error)
		ListClients(ctx context.Context) ([]*types.Client, error)
		DeleteClient(ctx context.Context, id uuid.UUID) error

		CreateSite(ctx context.Context, params types.CreateSiteParams) (*types.Site, error)
		GetSite(ctx context.Context, id uuid.UUID) (*types.Site, error)
		ListSites(ctx context.Context, clientID uuid.UUID) ([]*types.Site, error)
		DeleteSite(ctx context.Context, id uuid.UUID) error

		CreateImage(ctx context.Context, params types.CreateImageParams) (*types.Image, error)
		GetImage(ctx context.Context, id uuid.UUID) (*types.Image, error)
		ListImages(ctx context.Context, siteID uuid.UUID) ([]*types.Image, error)
		ListAllImages(ctx context.Context) ([]*types.Image, error)
	}

	// StoragePolicy decides where a new image's repository lives.
	StoragePolicy struct {
		// Credentials enables S3 locators when set; nil falls back to local
		// repositories under DataDir.
		Credentials *types.StorageCredentials
		DataDir     string
	}

	catalogService struct {
		clients  database.ClientRepository
		sites    database.SiteRepository
		images   database.ImageRepository
		uow      database.UnitOfWork
		validate *validator.Validate
		storage  StoragePolicy

		// cascadeDelete allows deleting a client or site to take its children
		// with it. Off by default: a delete that would orphan images is refused.
		cascadeDelete bool
	}
)

func NewCatalogService(
	clients database.ClientRepository,
	sites database.SiteRepository,
	images database.ImageRepository,
	uow database.UnitOfWork,
	storage StoragePolicy,
	cascadeDelete bool,
) CatalogService {
	return &catalogService{
		clients:       clients,
		sites:         sites,
		images:        images,
		uow:           uow,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		storage:       storage,
		cascadeDelete: cascadeDelete,
	}
}

func (c *catalogService) CreateClient(ctx context.Context, params types.CreateClientParams) (*types.Client, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors2.Wrap(types.ErrValidation, err.Error())
	}

	client := &types.Client{
		ID:          uuid.New(),
		Name:        params.Name,
		ShortName:   strings.ToLower(params.ShortName),
		Description: params.Description,
	}
	if err := c.clients.Save(ctx, client); err != nil {
		return nil, err
	}

	logger.Info("client created",
		zap.String("client_id", client.ID.String()),
		zap.String("short_name", client.ShortName))
	return client, nil
}

func (c *catalogService) GetClient(ctx context.Context, id uuid.UUID) (*types.Client, error) {
	return c.clients.FindByID(ctx, id)
}

func (c *catalogService) GetClientByShortName(ctx context.Context, shortName string) (*types.Client, error) {
	return c.clients.FindByShortName(ctx, strings.ToLower(shortName))
}

func (c *catalogService) ListClients(ctx context.Context) ([]*types.Client, error) {
	return c.clients.FindAll(ctx)
}

// DeleteClient removes a client and, with cascade enabled, its sites and
// images in one transaction. A failure anywhere rolls the whole delete back.
func (c *catalogService) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return c.uow.Transaction(ctx, func(repos database.TxRepositories) error {
		sites, err := repos.Sites.FindByClientID(ctx, id)
		if err != nil {
			return err
		}

		if len(sites) > 0 && !c.cascadeDelete {
			return errors2.Wrapf(types.ErrConstraint,
				"client has %d site(s); remove them first or enable cascade delete", len(sites))
		}

		for _, site := range sites {
			if err := repos.Images.DeleteBySiteID(ctx, site.ID); err != nil {
				return err
			}
			if err := repos.Sites.Delete(ctx, site.ID); err != nil {
				return err
			}
		}

		// repository credentials are deliberately left in place: the restic
		// repositories they unlock outlive the catalog rows
		return repos.Clients.Delete(ctx, id)
	})
}

func (c *catalogService) CreateSite(ctx context.Context, params types.CreateSiteParams) (*types.Site, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors2.Wrap(types.ErrValidation, err.Error())
	}

	if _, err := c.clients.FindByID(ctx, params.ClientID); err != nil {
		return nil, errors2.Wrap(err, "unknown client")
	}

	site := &types.Site{
		ID:          uuid.New(),
		ClientID:    params.ClientID,
		Name:        params.Name,
		ShortName:   strings.ToLower(params.ShortName),
		Description: params.Description,
	}
	if err := c.sites.Save(ctx, site); err != nil {
		return nil, err
	}

	logger.Info("site created",
		zap.String("site_id", site.ID.String()),
		zap.String("client_id", site.ClientID.String()),
		zap.String("short_name", site.ShortName))
	return site, nil
}

func (c *catalogService) GetSite(ctx context.Context, id uuid.UUID) (*types.Site, error) {
	return c.sites.FindByID(ctx, id)
}

func (c *catalogService) ListSites(ctx context.Context, clientID uuid.UUID) ([]*types.Site, error) {
	return c.sites.FindByClientID(ctx, clientID)
}

func (c *catalogService) DeleteSite(ctx context.Context, id uuid.UUID) error {
	return c.uow.Transaction(ctx, func(repos database.TxRepositories) error {
		images, err := repos.Images.FindBySiteID(ctx, id)
		if err != nil {
			return err
		}

		if len(images) > 0 && !c.cascadeDelete {
			return errors2.Wrapf(types.ErrConstraint,
				"site has %d image(s); remove them first or enable cascade delete", len(images))
		}

		if err := repos.Images.DeleteBySiteID(ctx, id); err != nil {
			return err
		}
		return repos.Sites.Delete(ctx, id)
	})
}

func (c *catalogService) CreateImage(ctx context.Context, params types.CreateImageParams) (*types.Image, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors2.Wrap(types.ErrValidation, err.Error())
	}

	role, err := types.ParseRole(params.Role)
	if err != nil {
		return nil, errors2.Wrap(types.ErrValidation, err.Error())
	}

	client, err := c.clients.FindByID(ctx, params.ClientID)
	if err != nil {
		return nil, errors2.Wrap(err, "unknown client")
	}
	site, err := c.sites.FindByID(ctx, params.SiteID)
	if err != nil {
		return nil, errors2.Wrap(err, "unknown site")
	}
	if site.ClientID != client.ID {
		return nil, errors2.Wrap(types.ErrValidation,
			fmt.Sprintf("site %s does not belong to client %s", site.ShortName, client.ShortName))
	}

	image := &types.Image{
		ID:                uuid.New(),
		ClientID:          client.ID,
		SiteID:            site.ID,
		Role:              role,
		RepositoryLocator: c.locatorFor(client, site),
		SourceVolume:      params.SourceVolume,
	}
	if err := c.images.Save(ctx, image); err != nil {
		return nil, err
	}

	logger.Info("image registered",
		zap.String("image_id", image.ID.String()),
		zap.String("role", role.String()),
		zap.String("repository", image.RepositoryLocator))
	return image, nil
}

func (c *catalogService) GetImage(ctx context.Context, id uuid.UUID) (*types.Image, error) {
	return c.images.FindByID(ctx, id)
}

func (c *catalogService) ListImages(ctx context.Context, siteID uuid.UUID) ([]*types.Image, error) {
	return c.images.FindBySiteID(ctx, siteID)
}

func (c *catalogService) ListAllImages(ctx context.Context) ([]*types.Image, error) {
	return c.images.FindAll(ctx)
}

// locatorFor resolves where a client/site repository lives. All images of the
// same site share one repository and are told apart by snapshot tags.
func (c *catalogService) locatorFor(client *types.Client, site *types.Site) string {
	if c.storage.Credentials != nil {
		return restic.S3Locator(*c.storage.Credentials, client.ShortName, site.ShortName)
	}
	return restic.LocalLocator(c.storage.DataDir, client.ShortName, site.ShortName)
}
