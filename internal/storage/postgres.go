package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres stores values in the kv_state table created by the embedded migrations.
func NewPostgres(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM kv_state WHERE key = $1`
	var value string
	if err := s.pool.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", pkgerrors.Wrapf(err, "select kv %s", key)
	}
	return value, nil
}

func (s *postgresStore) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO kv_state (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = now()
`
	if _, err := s.pool.Exec(ctx, q, key, value); err != nil {
		return pkgerrors.Wrapf(err, "upsert kv %s", key)
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_state WHERE key = $1`, key); err != nil {
		return pkgerrors.Wrapf(err, "delete kv %s", key)
	}
	return nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
