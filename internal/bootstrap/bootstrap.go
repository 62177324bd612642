// Package bootstrap wires configuration into the repositories, storage and
// services shared by the API server and the docctl CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"treatviz/internal/config"
	"treatviz/internal/database"
	"treatviz/internal/database/migration"
	"treatviz/internal/extract"
	"treatviz/internal/openai"
	"treatviz/internal/repository"
	"treatviz/internal/repository/file"
	"treatviz/internal/repository/postgres"
	"treatviz/internal/service"
	"treatviz/internal/storage"
)

// App is the assembled service graph.
type App struct {
	Config    *config.AppConfig
	Logger    *slog.Logger
	Settings  service.SettingsService
	Documents service.DocumentService
	Imaging   service.ImagingService

	db *sql.DB
}

// New builds the service graph for cfg. The caller must Close the result.
func New(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	repo, err := a.settingsRepository(ctx)
	if err != nil {
		return nil, err
	}

	blobs, err := blobStorage(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Settings = service.NewSettingsService(repo, logger)
	if err := a.Settings.EnsureStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.Documents = service.NewDocumentService(blobs, a.Settings, extract.New(), logger)
	a.Imaging = service.NewImagingService(openai.New(cfg.OpenAI), a.Settings, a.Documents, cfg.OpenAI.ExcerptChars, logger)

	logger.InfoContext(ctx, "services_ready",
		"settings_backend", cfg.Storage.SettingsBackend,
		"blob_backend", cfg.Storage.BlobBackend,
		"openai_configured", cfg.OpenAI.APIKey != "",
	)
	return a, nil
}

func (a *App) settingsRepository(ctx context.Context) (repository.SettingsRepository, error) {
	switch a.Config.Storage.SettingsBackend {
	case config.SettingsBackendFile, "":
		return file.NewSettingsFile(a.Config.Storage.DataDir), nil
	case config.SettingsBackendPostgres:
		db, err := database.NewPostgres(ctx, a.Config.Database, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.db = db
		if err := migration.EnsureMigrated(ctx, db, a.Logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		return postgres.NewSettingsPostgres(db), nil
	default:
		return nil, fmt.Errorf("unknown settings backend %q", a.Config.Storage.SettingsBackend)
	}
}

func blobStorage(cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Storage.BlobBackend {
	case config.BlobBackendLocal, "":
		return storage.NewLocal(cfg.Storage.DataDir)
	case config.BlobBackendMinIO:
		s, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("initialize object storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Storage.BlobBackend)
	}
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
