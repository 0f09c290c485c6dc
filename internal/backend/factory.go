package backend

import (
	"context"
	"fmt"
	"log/slog"

	"gastos/internal/config"
	"gastos/internal/drive"
	gdrive "gastos/internal/drive/google"
	"gastos/internal/drive/local"
	"gastos/internal/store/file"
	"gastos/internal/store/memory"
	"gastos/internal/storage"
)

// Factory builds a Backend from the application config.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Open creates every adapter named by cfg. On error nothing stays open.
func (f *Factory) Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}

	b := &Backend{}
	// Variable expenses and history stay in memory unless SQLite is used.
	mem := memory.NewFromFile(cfg.ConfigPath)
	b.Variables = mem
	b.History = mem

	var repo *storage.SQLiteRepository
	if cfg.UsesSQLite() {
		var err error
		repo, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		b.Variables = repo
		b.Ready = repo
		b.Cleanup = repo.Close
		if cfg.HistoryEnabled {
			b.History = repo
		}
	}

	switch cfg.ConfigBackend {
	case config.BackendFile:
		b.Config = file.New(cfg.ConfigPath)
	case config.BackendMemory:
		b.Config = mem
	case config.BackendSQLite:
		b.Config = repo
	default:
		b.Close()
		return nil, fmt.Errorf("unsupported config backend: %s", cfg.ConfigBackend)
	}

	remote, err := f.openRemote(ctx, cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Remote = remote

	f.logger.InfoContext(ctx, "Initialized backend",
		"config_backend", cfg.ConfigBackend,
		"drive_backend", cfg.DriveBackend,
		"sqlite", repo != nil,
		"history", cfg.HistoryEnabled)
	return b, nil
}

func (f *Factory) openRemote(ctx context.Context, cfg *config.Config) (drive.Remote, error) {
	switch cfg.DriveBackend {
	case config.DriveLocal:
		return local.New(cfg.DriveLocalDir), nil
	case config.DriveGoogle:
		cli, err := gdrive.New(ctx, gdrive.Credentials{
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			OAuthClientFile:    cfg.GoogleOAuthClientFile,
			OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Drive client: %w", err)
		}
		return cli, nil
	}
	return nil, fmt.Errorf("unsupported drive backend: %s", cfg.DriveBackend)
}
