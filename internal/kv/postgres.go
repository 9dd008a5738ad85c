package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/migrate"
)

// PgxPool is the subset of a Postgres pool used by the store.
// It is implemented by *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	// Exec executes a SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	// Close shuts down the pool and frees resources.
	Close()
}

// Postgres is a Store shared across devices through a PostgreSQL table.
type Postgres struct{ pool PgxPool }

// NewPostgres wraps an existing pool. The kv_store table must already exist.
func NewPostgres(pool PgxPool) *Postgres { return &Postgres{pool: pool} }

// OpenPostgres migrates the schema and connects a pool for dsn.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if err := migrate.Up(ctx, dsn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM kv_store WHERE key=$1`
	var v string
	if err := s.pool.QueryRow(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (s *Postgres) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	_, err := s.pool.Exec(ctx, q, key, value)
	return err
}

func (s *Postgres) Remove(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM kv_store WHERE key=$1`, key)
	return err
}

// Close closes the underlying pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
