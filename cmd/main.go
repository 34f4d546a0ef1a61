package main

import (
	"context"
	"fmt"
	"go.uber.org/zap"
	"imagevault/internal/config"
	"imagevault/internal/credentials"
	"imagevault/internal/database"
	"imagevault/internal/eventbus"
	"imagevault/internal/httphandlers"
	"imagevault/internal/manager"
	"imagevault/internal/metadata"
	"imagevault/internal/modes"
	"imagevault/internal/orchestrator"
	"imagevault/internal/restic"
	"imagevault/internal/service"
	"imagevault/internal/types"
	"imagevault/internal/vss"
	"imagevault/logger"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.InitLogger(string(cfg.Mode)); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		return
	}
	defer logger.Sync()

	srv, teardown, err := setup(cfg)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		logger.Info("serving http(s)", zap.String("addr", cfg.ServerAddr))
		if cfg.HasTLSConfig() {
			if err := srv.ListenAndServeTLS(cfg.ServerSSLCertFile, cfg.ServerSSLKeyFile); err != nil {
				log.Fatal("server closed: ", err)
			}
		} else {
			if err := srv.ListenAndServe(); err != nil {
				log.Fatal("server closed: ", err)
			}
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	<-done
	log.Println("Shutting down...")

	if teardown != nil {
		if err := teardown(); err != nil {
			logger.Error("teardown failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %s\n", err)
	}
}

func setup(cfg config.Config) (*http.Server, func() error, error) {
	eventBus := eventbus.New()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	target, err := modes.Select(cfg.Mode, cfg.DataDir)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if !target.Durable {
		logger.Warn("development mode: the catalog will not survive a restart",
			zap.String("catalog", target.CatalogPath))
	}

	db, err := database.Open(target.CatalogPath)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	clientRepo := database.NewClientRepository(db)
	siteRepo := database.NewSiteRepository(db)
	imageRepo := database.NewImageRepository(db)
	credentialRepo := database.NewCredentialRepository(db)
	recordRepo := database.NewBackupRecordRepository(db)

	var (
		metadataStore metadata.Store
		storageCreds  *types.StorageCredentials
	)
	if cfg.S3.Enabled() {
		objects, err := metadata.NewObjectStore(cfg.S3.Credentials())
		if err != nil {
			cancel()
			return nil, nil, err
		}
		metadataStore = metadata.NewStore(objects, cfg.S3.OperationTimeout)
		creds := cfg.S3.Credentials()
		storageCreds = &creds
	} else {
		logger.Warn("no object storage configured; repositories are local and metadata stays on this machine")
	}

	synchronizer := metadata.NewSynchronizer(metadataStore, recordRepo)
	reconciler, err := metadata.NewReconciler(synchronizer, cfg.ReconcileInterval)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if err := reconciler.Start(ctx); err != nil {
		cancel()
		return nil, nil, err
	}

	resticClient := restic.NewClient(restic.NewRunner(cfg.ResticBin))
	orch := orchestrator.New(
		vss.NewSnapshotter(),
		resticClient,
		eventBus,
		recordRepo,
		imageRepo,
		synchronizer,
		orchestrator.Config{
			StagingVolume: cfg.StagingVolume,
			MinFreeBytes:  cfg.MinFreeBytes,
		})

	credManager := credentials.NewManager(credentialRepo)
	catalogSvc := service.NewCatalogService(clientRepo, siteRepo, imageRepo,
		database.NewUnitOfWork(db),
		service.StoragePolicy{
			Credentials: storageCreds,
			DataDir:     cfg.DataDir,
		}, cfg.CascadeDelete)
	imagingSvc := service.NewImagingService(imageRepo, recordRepo, credManager, resticClient, orch, storageCreds)

	mn := manager.New(cfg.AccessKey, catalogSvc, imagingSvc, credManager)
	apiHandler := httphandlers.NewApiHandler(mn, eventBus)
	routes := httphandlers.Routes(apiHandler)

	return &http.Server{
			Addr:    cfg.ServerAddr,
			Handler: routes,
		}, func() error {
			if err := reconciler.Stop(); err != nil {
				logger.Error("reconciler shutdown failed", zap.Error(err))
			}
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				err := sqlDB.Close()
				logger.Info("DB Closed", zap.Error(err))
			}
			cancel()
			return nil
		}, nil
}
