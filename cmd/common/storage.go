package common

import (
	"context"
	"fmt"

	"github.com/jonesrussell/seocrawl/internal/config"
	"github.com/jonesrussell/seocrawl/internal/logger"
	"github.com/jonesrussell/seocrawl/internal/storage"
)

// CreateStore builds the configured state store backend. The caller
// owns the returned store and must Close it.
func CreateStore(ctx context.Context, cfg *config.Config, log logger.Interface) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		store, err := storage.NewFileStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("create file store: %w", err)
		}
		log.Debug("Using file store", "data_dir", cfg.Storage.DataDir)
		return store, nil

	case config.BackendPostgres:
		db, err := storage.NewPostgresConnection(cfg.Storage.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		store := storage.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		log.Debug("Using postgres store",
			"host", cfg.Storage.Postgres.Host,
			"dbname", cfg.Storage.Postgres.DBName,
		)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
