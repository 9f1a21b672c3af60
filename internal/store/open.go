package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/importusers/import-service/config"
	"github.com/importusers/import-service/internal/database"
)

// Store backend names accepted by Open
const (
	TypeMemory   = "memory"
	TypePostgres = "postgres"
)

// Open creates the store selected by cfg.Store.Type. The Postgres backend
// connects the shared pool, retrying as configured, and applies the schema.
// The returned func closes whatever Open opened.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (Store, func(), error) {
	switch cfg.Store.Type {
	case "", TypeMemory:
		return NewMemory(), func() {}, nil
	case TypePostgres:
		if err := database.ConnectWithRetry(ctx, cfg.Database, logger); err != nil {
			return nil, nil, err
		}
		pg := NewPostgres(database.Pool())
		if err := pg.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
		return pg, database.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type %q", cfg.Store.Type)
	}
}
