package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/db"
	"github.com/atelierhq/atelier/internal/provider"
	"github.com/atelierhq/atelier/internal/repository"
	"github.com/atelierhq/atelier/internal/service"
	"github.com/atelierhq/atelier/internal/storage"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	MediaService      *service.MediaService
	GenerationService *service.GenerationService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	folderRepository := repository.NewFolderRepository(database)
	mediaRepository := repository.NewMediaRepository(database)

	// Storage
	blobStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Generation provider
	falProvider := provider.NewFalClient(cfg.FalAPIKey, cfg.FalBaseURL, cfg.GenerateTimeout)

	// Services
	mediaService := service.NewMediaService(folderRepository, mediaRepository, blobStorage)
	generationService := service.NewGenerationService(mediaRepository, mediaService, blobStorage, falProvider)

	return &App{
		Cfg:               cfg,
		DB:                database,
		MediaService:      mediaService,
		GenerationService: generationService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
