package store

import (
	"context"

	"ramen-house/internal/config"
	"ramen-house/internal/logger"
	"ramen-house/internal/models"
)

// OrderStore persists orders and their idempotency bindings. Lookups are
// best-effort: any read failure is reported as absent, never as an error.
// Save failures propagate to the caller.
type OrderStore interface {
	GetByID(ctx context.Context, orderID string) (*models.Order, bool)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Order, bool)
	Save(ctx context.Context, order *models.Order, idempotencyKey string) error
}

// New selects the order store once at startup. Durable backends are tried
// in order (Azure Blob, then Postgres); any initialization failure degrades
// silently to the next option and finally to the in-memory store.
func New(ctx context.Context, cfg *config.StorageConfig, log *logger.Logger) OrderStore {
	if cfg.AzureConnectionString != "" || cfg.AzureAccountName != "" {
		s, err := NewBlobStore(ctx, cfg, log)
		if err == nil {
			log.Info("store_selected", "Using blob-backed order store", "startup", map[string]interface{}{
				"container": cfg.Container,
			})
			return s
		}
		log.Error("store_init_failed", "Blob store unavailable, falling back", "startup", err, nil)
	}

	if cfg.PostgresURL != "" {
		s, err := NewPostgresStore(ctx, cfg.PostgresURL, log)
		if err == nil {
			log.Info("store_selected", "Using Postgres order store", "startup", nil)
			return s
		}
		log.Error("store_init_failed", "Postgres store unavailable, falling back", "startup", err, nil)
	}

	log.Info("store_selected", "Using in-memory order store", "startup", nil)
	return NewMemoryStore()
}
