// Package db opens the configured storage backend and hands back its repositories.
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appMigrations "github.com/jdon/coffeechat/internal/app/migrations"
	"github.com/jdon/coffeechat/internal/app/repositories"
	"github.com/jdon/coffeechat/internal/config"
)

// Store is an opened storage backend
type Store struct {
	Driver string
	Repos  *repositories.Repositories
	close  func()
}

// Close releases the backend's connections
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects to the backend named by cfg.Database.Driver and prepares its schema.
func Open(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Store, error) {
	switch strings.ToLower(cfg.Database.Driver) {
	case config.DriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg, lgr)
		if err != nil {
			return nil, err
		}

		migrator := appMigrations.NewMigrator(pool, lgr)
		if err := migrator.MigrateFromDirectory(ctx, cfg.Database.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Database migrations successfully applied.")

		return &Store{Driver: config.DriverPostgres, Repos: repositories.NewRepositories(pool), close: pool.Close}, nil

	case config.DriverSQLite:
		gdb, err := OpenSQLite(cfg.Database.SQLitePath, lgr)
		if err != nil {
			return nil, err
		}
		closeFn := func() {
			if sqlDB, err := gdb.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return &Store{Driver: config.DriverSQLite, Repos: repositories.NewGormRepositories(gdb), close: closeFn}, nil

	case config.DriverMemory:
		lgr.Warn().Msg("Using in-memory storage; data is lost on restart")
		return &Store{Driver: config.DriverMemory, Repos: repositories.NewMemoryRepositories()}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
