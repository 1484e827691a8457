package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// advisoryLockKey serialises concurrent Append calls across ledgerd
// instances sharing one database.
const advisoryLockKey = int64(1_159_876_544)

const selectColumns = `idx, timestamp, tx_id, contract, function, invoker, outcome, data_hash, prev_hash, hash`

// PostgresJournal persists the chain in the invocation_journal table.
type PostgresJournal struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres creates a PostgresJournal backed by pool.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *PostgresJournal {
	return &PostgresJournal{pool: pool, logger: logger}
}

// EnsureSchema creates the journal table and its genesis row when missing.
func (j *PostgresJournal) EnsureSchema(ctx context.Context) error {
	if _, err := j.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS invocation_journal (
			idx        integer     PRIMARY KEY,
			timestamp  timestamptz NOT NULL,
			tx_id      text        NOT NULL DEFAULT '',
			contract   text        NOT NULL DEFAULT '',
			function   text        NOT NULL,
			invoker    text        NOT NULL,
			outcome    text        NOT NULL,
			data_hash  text        NOT NULL,
			prev_hash  text        NOT NULL,
			hash       text        NOT NULL
		)`); err != nil {
		return fmt.Errorf("create invocation_journal: %w", err)
	}
	g := genesis(time.Now().UTC().Truncate(time.Microsecond))
	if _, err := j.pool.Exec(ctx,
		`INSERT INTO invocation_journal (`+selectColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (idx) DO NOTHING`,
		g.Index, g.Timestamp, g.TxID, g.Contract, g.Function,
		g.Invoker, g.Outcome, g.DataHash, g.PrevHash, g.Hash,
	); err != nil {
		return fmt.Errorf("insert genesis entry: %w", err)
	}
	return nil
}

func scanEntry(row pgx.Row) (*Entry, error) {
	e := &Entry{}
	err := row.Scan(
		&e.Index, &e.Timestamp, &e.TxID, &e.Contract, &e.Function,
		&e.Invoker, &e.Outcome, &e.DataHash, &e.PrevHash, &e.Hash,
	)
	if err != nil {
		return nil, err
	}
	e.Timestamp = e.Timestamp.UTC()
	return e, nil
}

// Append implements Journal. It takes an advisory lock, reads the chain
// tail and inserts the new entry in a single transaction.
func (j *PostgresJournal) Append(ctx context.Context, inv Invocation) (*Entry, error) {
	tx, err := j.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	prev, err := scanEntry(tx.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM invocation_journal ORDER BY idx DESC LIMIT 1`))
	if err != nil {
		return nil, fmt.Errorf("read journal tail: %w", err)
	}

	entry, err := newEntry(prev, inv)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO invocation_journal (`+selectColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.Index, entry.Timestamp, entry.TxID, entry.Contract, entry.Function,
		entry.Invoker, entry.Outcome, entry.DataHash, entry.PrevHash, entry.Hash,
	); err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit journal tx: %w", err)
	}

	j.logger.Debug("journal entry appended",
		zap.Int("idx", entry.Index),
		zap.String("contract", entry.Contract),
		zap.String("function", entry.Function),
	)
	return entry, nil
}

// Get implements Journal.
func (j *PostgresJournal) Get(ctx context.Context, index int) (*Entry, error) {
	e, err := scanEntry(j.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM invocation_journal WHERE idx = $1`, index))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("index %d: %w", index, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get journal entry %d: %w", index, err)
	}
	return e, nil
}

// Len implements Journal.
func (j *PostgresJournal) Len(ctx context.Context) (int, error) {
	var n int
	if err := j.pool.QueryRow(ctx, "SELECT COUNT(*) FROM invocation_journal").Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}

// Verify implements Journal. It streams every row in index order.
func (j *PostgresJournal) Verify(ctx context.Context) error {
	rows, err := j.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM invocation_journal ORDER BY idx ASC`)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var prev *Entry
	for rows.Next() {
		curr, err := scanEntry(rows)
		if err != nil {
			return fmt.Errorf("scan journal row: %w", err)
		}
		if err := verifyLink(prev, curr); err != nil {
			return err
		}
		prev = curr
	}
	return rows.Err()
}

// Root implements Journal.
func (j *PostgresJournal) Root(ctx context.Context) (string, error) {
	var hash string
	if err := j.pool.QueryRow(ctx,
		"SELECT hash FROM invocation_journal ORDER BY idx DESC LIMIT 1",
	).Scan(&hash); err != nil {
		return "", fmt.Errorf("get journal root: %w", err)
	}
	return hash, nil
}
