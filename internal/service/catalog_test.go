package service

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagevault/internal/database"
	"imagevault/internal/types"
	"imagevault/logger"
	"testing"
)

func newCatalog(t *testing.T, storage StoragePolicy, cascade bool) (CatalogService, *catalogFixture) {
	t.Helper()
	require.NoError(t, logger.InitLogger("development"))

	db, err := database.Open("file::memory:")
	require.NoError(t, err)

	f := &catalogFixture{
		clients: database.NewClientRepository(db),
		sites:   database.NewSiteRepository(db),
		images:  database.NewImageRepository(db),
		uow:     database.NewUnitOfWork(db),
	}
	return NewCatalogService(f.clients, f.sites, f.images, f.uow, storage, cascade), f
}

type catalogFixture struct {
	clients database.ClientRepository
	sites   database.SiteRepository
	images  database.ImageRepository
	uow     database.UnitOfWork
}

func localStorage() StoragePolicy {
	return StoragePolicy{DataDir: "/var/imagevault/data"}
}

func (f *catalogFixture) seed(t *testing.T, svc CatalogService) (*types.Client, *types.Site) {
	t.Helper()
	ctx := context.Background()

	client, err := svc.CreateClient(ctx, types.CreateClientParams{Name: "Acme Corp", ShortName: "ACME"})
	require.NoError(t, err)
	site, err := svc.CreateSite(ctx, types.CreateSiteParams{ClientID: client.ID, Name: "Headquarters", ShortName: "HQ"})
	require.NoError(t, err)
	return client, site
}

func TestCreateClient_Validation(t *testing.T) {
	svc, _ := newCatalog(t, localStorage(), false)

	_, err := svc.CreateClient(context.Background(), types.CreateClientParams{Name: "No Short Name"})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = svc.CreateClient(context.Background(), types.CreateClientParams{
		Name:      "Bad Short Name",
		ShortName: "has spaces!",
	})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestCreateClient_ShortNameNormalizedAndUnique(t *testing.T) {
	svc, _ := newCatalog(t, localStorage(), false)
	ctx := context.Background()

	client, err := svc.CreateClient(ctx, types.CreateClientParams{Name: "Acme Corp", ShortName: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, "acme", client.ShortName)

	_, err = svc.CreateClient(ctx, types.CreateClientParams{Name: "Another Acme", ShortName: "acme"})
	assert.ErrorIs(t, err, types.ErrConstraint)
}

func TestCreateSite_UnknownClient(t *testing.T) {
	svc, _ := newCatalog(t, localStorage(), false)

	_, err := svc.CreateSite(context.Background(), types.CreateSiteParams{
		ClientID:  uuid.New(),
		Name:      "Nowhere",
		ShortName: "nw",
	})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCreateImage_SiteMustBelongToClient(t *testing.T) {
	svc, f := newCatalog(t, localStorage(), false)
	ctx := context.Background()
	_, site := f.seed(t, svc)

	other, err := svc.CreateClient(ctx, types.CreateClientParams{Name: "Globex", ShortName: "globex"})
	require.NoError(t, err)

	_, err = svc.CreateImage(ctx, types.CreateImageParams{
		ClientID:     other.ID,
		SiteID:       site.ID,
		Role:         "workstation",
		SourceVolume: "C:",
	})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestCreateImage_UnknownRole(t *testing.T) {
	svc, f := newCatalog(t, localStorage(), false)
	client, site := f.seed(t, svc)

	_, err := svc.CreateImage(context.Background(), types.CreateImageParams{
		ClientID:     client.ID,
		SiteID:       site.ID,
		Role:         "mainframe",
		SourceVolume: "C:",
	})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestCreateImage_LocalLocator(t *testing.T) {
	svc, f := newCatalog(t, localStorage(), false)
	client, site := f.seed(t, svc)

	image, err := svc.CreateImage(context.Background(), types.CreateImageParams{
		ClientID:     client.ID,
		SiteID:       site.ID,
		Role:         "workstation",
		SourceVolume: "C:",
	})
	require.NoError(t, err)
	assert.Equal(t, "/var/imagevault/data/repos/acme/hq", image.RepositoryLocator)
	assert.Equal(t, types.RoleWorkstation, image.Role)
}

func TestCreateImage_S3Locator(t *testing.T) {
	storage := StoragePolicy{Credentials: &types.StorageCredentials{
		Endpoint: "minio:9000",
		Bucket:   "imagevault",
	}}
	svc, f := newCatalog(t, storage, false)
	client, site := f.seed(t, svc)

	image, err := svc.CreateImage(context.Background(), types.CreateImageParams{
		ClientID:     client.ID,
		SiteID:       site.ID,
		Role:         "server",
		SourceVolume: "D:",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3:http://minio:9000/imagevault/acme/hq", image.RepositoryLocator)
}

func TestCreateImage_SameSiteSharesRepository(t *testing.T) {
	svc, f := newCatalog(t, localStorage(), false)
	client, site := f.seed(t, svc)
	ctx := context.Background()

	first, err := svc.CreateImage(ctx, types.CreateImageParams{
		ClientID: client.ID, SiteID: site.ID, Role: "workstation", SourceVolume: "C:",
	})
	require.NoError(t, err)
	second, err := svc.CreateImage(ctx, types.CreateImageParams{
		ClientID: client.ID, SiteID: site.ID, Role: "sql-server", SourceVolume: "C:",
	})
	require.NoError(t, err)

	assert.Equal(t, first.RepositoryLocator, second.RepositoryLocator)
}

func TestDeleteClient_RefusedWithSites(t *testing.T) {
	svc, f := newCatalog(t, localStorage(), false)
	client, _ := f.seed(t, svc)

	err := svc.DeleteClient(context.Background(), client.ID)
	assert.ErrorIs(t, err, types.ErrConstraint)

	_, err = svc.GetClient(context.Background(), client.ID)
	assert.NoError(t, err, "refused delete leaves the client in place")
}

func TestDeleteClient_CascadeRemovesChildren(t *testing.T) {
	svc, f := newCatalog(t, localStorage(), true)
	client, site := f.seed(t, svc)
	ctx := context.Background()

	_, err := svc.CreateImage(ctx, types.CreateImageParams{
		ClientID: client.ID, SiteID: site.ID, Role: "workstation", SourceVolume: "C:",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteClient(ctx, client.ID))

	_, err = svc.GetClient(ctx, client.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = svc.GetSite(ctx, site.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	images, err := f.images.FindBySiteID(ctx, site.ID)
	require.NoError(t, err)
	assert.Empty(t, images)
}

// failingSiteDeletes injects a site-delete failure inside the transaction,
// after the images of that site are already gone.
type failingSiteDeletes struct {
	database.UnitOfWork
}

func (f failingSiteDeletes) Transaction(ctx context.Context, fn func(database.TxRepositories) error) error {
	return f.UnitOfWork.Transaction(ctx, func(repos database.TxRepositories) error {
		repos.Sites = undeletableSites{SiteRepository: repos.Sites}
		return fn(repos)
	})
}

type undeletableSites struct {
	database.SiteRepository
}

func (undeletableSites) Delete(context.Context, uuid.UUID) error {
	return errors.New("disk I/O error")
}

func TestDeleteClient_CascadeFailureRollsBack(t *testing.T) {
	svc, f := newCatalog(t, localStorage(), true)
	client, site := f.seed(t, svc)
	ctx := context.Background()

	_, err := svc.CreateImage(ctx, types.CreateImageParams{
		ClientID: client.ID, SiteID: site.ID, Role: "workstation", SourceVolume: "C:",
	})
	require.NoError(t, err)

	broken := NewCatalogService(f.clients, f.sites, f.images, failingSiteDeletes{f.uow}, localStorage(), true)
	require.Error(t, broken.DeleteClient(ctx, client.ID))

	// nothing was deleted: the image removal rolled back with the failure
	images, err := f.images.FindBySiteID(ctx, site.ID)
	require.NoError(t, err)
	assert.Len(t, images, 1)
	_, err = svc.GetSite(ctx, site.ID)
	assert.NoError(t, err)
	_, err = svc.GetClient(ctx, client.ID)
	assert.NoError(t, err)
}

func TestDeleteSite_RefusedWithImages(t *testing.T) {
	svc, f := newCatalog(t, localStorage(), false)
	client, site := f.seed(t, svc)
	ctx := context.Background()

	_, err := svc.CreateImage(ctx, types.CreateImageParams{
		ClientID: client.ID, SiteID: site.ID, Role: "workstation", SourceVolume: "C:",
	})
	require.NoError(t, err)

	err = svc.DeleteSite(ctx, site.ID)
	assert.ErrorIs(t, err, types.ErrConstraint)
}
