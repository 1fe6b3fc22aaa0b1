// Package postgres provides a PostgreSQL implementation of storage.RunStore.
// It uses pgx/v5 for connection pooling and JSONB for scenario outcomes.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/probelauf/pkg/storage"
	"github.com/rhuss/probelauf/pkg/verify"
)

// Store is a PostgreSQL-backed RunStore.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.RunStore at compile time.
var _ storage.RunStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveRun persists a verification run.
func (s *Store) SaveRun(ctx context.Context, run *storage.Run) error {
	outcomesJSON, err := json.Marshal(run.Outcomes)
	if err != nil {
		return fmt.Errorf("marshaling outcomes: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO runs (id, endpoint, model, started_at, passed, outcomes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		run.ID, run.Endpoint, run.Model, run.StartedAt, run.Passed, outcomesJSON,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, endpoint, model, started_at, passed, outcomes
		FROM runs
		WHERE id = $1
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*storage.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, endpoint, model, started_at, passed, outcomes
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*storage.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// scanRun reads one run row from a pgx.Row or pgx.Rows.
func scanRun(row pgx.Row) (*storage.Run, error) {
	var run storage.Run
	var outcomesJSON []byte

	if err := row.Scan(&run.ID, &run.Endpoint, &run.Model, &run.StartedAt, &run.Passed, &outcomesJSON); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(outcomesJSON, &run.Outcomes); err != nil {
		return nil, fmt.Errorf("unmarshaling outcomes: %w", err)
	}
	if run.Outcomes == nil {
		run.Outcomes = []verify.Outcome{}
	}

	return &run, nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
