// Package backend opens the storage backend selected by configuration.
package backend

import (
	"fmt"

	"github.com/getstreetcred/backend/config"
	"github.com/getstreetcred/backend/database"
	"github.com/getstreetcred/backend/storage"
	"github.com/getstreetcred/backend/storage/postgrest"
	"github.com/getstreetcred/backend/storage/sqlstore"
)

// Open connects the configured backend. Callers own the returned Storage
// and must Close it.
func Open(cfg config.Config) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendSQL, "":
		db, err := database.Connect(database.Options{
			Driver: cfg.DatabaseDriver,
			URL:    cfg.DatabaseURL,
			LogSQL: cfg.LogSQL,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrBackend, err)
		}
		return sqlstore.New(db), nil
	case config.BackendPostgREST:
		return postgrest.New(cfg.SupabaseURL, cfg.SupabaseKey, nil)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", storage.ErrNotConfigured, cfg.StorageBackend)
	}
}
