package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ramen-house/internal/logger"
	"ramen-house/internal/models"
)

// PostgresStore persists the full order JSON per row. It mirrors the blob
// variant's semantics: upserts are last-write-wins and lookups never
// surface storage errors.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgresStore connects to Postgres and ensures the order tables exist.
func NewPostgresStore(ctx context.Context, url string, log *logger.Logger) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, logger: log}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			order_id   TEXT PRIMARY KEY,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS idempotency_keys (
			key      TEXT PRIMARY KEY,
			order_id TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, orderID string) (*models.Order, bool) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM orders WHERE order_id = $1`, orderID).Scan(&payload)
	if err != nil {
		return nil, false
	}

	var order models.Order
	if err := json.Unmarshal(payload, &order); err != nil {
		s.logger.Debug("order_payload_malformed", "Stored order is not valid JSON", "", map[string]interface{}{
			"order_id": orderID,
		})
		return nil, false
	}

	return &order, true
}

func (s *PostgresStore) GetByIdempotencyKey(ctx context.Context, key string) (*models.Order, bool) {
	var orderID string
	err := s.pool.QueryRow(ctx, `SELECT order_id FROM idempotency_keys WHERE key = $1`, key).Scan(&orderID)
	if err != nil {
		return nil, false
	}

	return s.GetByID(ctx, orderID)
}

// Save upserts the order row first, then the idempotency binding. The two
// statements are intentionally separate, matching the blob variant's
// write ordering and last-write-wins behaviour.
func (s *PostgresStore) Save(ctx context.Context, order *models.Order, idempotencyKey string) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order %s: %w", order.OrderID, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO orders (order_id, payload) VALUES ($1, $2)
		 ON CONFLICT (order_id) DO UPDATE SET payload = EXCLUDED.payload`,
		order.OrderID, payload)
	if err != nil {
		return fmt.Errorf("failed to write order %s: %w", order.OrderID, err)
	}

	if idempotencyKey != "" {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO idempotency_keys (key, order_id) VALUES ($1, $2)
			 ON CONFLICT (key) DO UPDATE SET order_id = EXCLUDED.order_id`,
			idempotencyKey, order.OrderID)
		if err != nil {
			return fmt.Errorf("failed to bind idempotency key for order %s: %w", order.OrderID, err)
		}
	}

	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
