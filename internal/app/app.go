// Package app wires configuration into the stores shared by the server
// and the background commands.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/iliyamo/fixer-backend/internal/config"
	"github.com/iliyamo/fixer-backend/internal/database"
	"github.com/iliyamo/fixer-backend/internal/repository"
	"github.com/iliyamo/fixer-backend/internal/repository/memory"
	"github.com/iliyamo/fixer-backend/internal/service"
)

// Backend is the persistence selected by STORE_DRIVER.  DB is nil for the
// memory driver.
type Backend struct {
	Store  service.Store
	Users  repository.UserStore
	Tokens repository.TokenStore
	DB     *sql.DB
}

// Close releases the database pool, if any.
func (b *Backend) Close() error {
	if b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// OpenBackend connects to Postgres, applying the schema when AutoMigrate
// is set, or builds an empty in-memory store.
func OpenBackend(ctx context.Context, cfg config.Config, log *slog.Logger) (*Backend, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on exit")
		st := memory.NewStore()
		return &Backend{Store: st, Users: st, Tokens: st}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("schema applied")
	}
	return &Backend{
		Store:  repository.NewStore(db),
		Users:  repository.NewUserRepo(db),
		Tokens: repository.NewTokenRepo(db),
		DB:     db,
	}, nil
}
