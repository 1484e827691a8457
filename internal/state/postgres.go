package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const stateSchema = `
CREATE TABLE IF NOT EXISTS state_entries (
	namespace  text        NOT NULL,
	id         text        NOT NULL,
	value      bytea       NOT NULL,
	version    bigint      NOT NULL DEFAULT 1,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, id)
)`

// PostgresStore persists state in a single PostgreSQL table keyed by
// (namespace, id). Each write bumps the row version.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// EnsureSchema creates the state table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, stateSchema); err != nil {
		return fmt.Errorf("create state_entries: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, key Key) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM state_entries WHERE namespace = $1 AND id = $2`,
		key.Namespace, key.ID,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Put implements Store.
func (s *PostgresStore) Put(ctx context.Context, key Key, value []byte) error {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO state_entries (namespace, id, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (namespace, id) DO UPDATE
		 SET value = EXCLUDED.value,
		     version = state_entries.version + 1,
		     updated_at = now()`,
		key.Namespace, key.ID, value,
	); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.logger.Debug("state put", zap.String("key", key.String()), zap.Int("bytes", len(value)))
	return nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, key Key) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM state_entries WHERE namespace = $1 AND id = $2`,
		key.Namespace, key.ID,
	); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Scan implements Store. Rows are buffered before fn runs so callbacks may
// issue their own queries without holding a pool connection.
func (s *PostgresStore) Scan(ctx context.Context, namespace string, fn ScanFunc) error {
	rows, err := s.pool.Query(ctx,
		`SELECT id, value FROM state_entries WHERE namespace = $1 ORDER BY id ASC`,
		namespace,
	)
	if err != nil {
		return fmt.Errorf("scan %s: %w", namespace, err)
	}

	type kv struct {
		id    string
		value []byte
	}
	var buf []kv
	for rows.Next() {
		var e kv
		if err := rows.Scan(&e.id, &e.value); err != nil {
			rows.Close()
			return fmt.Errorf("scan %s row: %w", namespace, err)
		}
		buf = append(buf, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", namespace, err)
	}

	for _, e := range buf {
		if err := fn(e.id, e.value); err != nil {
			if errors.Is(err, ErrStopScan) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Close implements Store. The pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }
