package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps entries in the client_storage table (see migrations/).
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore creates a PostgresStore on top of an existing pool.
func NewPostgresStore(pool *pgxpool.Pool, now func() time.Time) *PostgresStore {
	if now == nil {
		now = time.Now
	}
	return &PostgresStore{pool: pool, now: now}
}

// Get selects key and purges it when expired.
func (s *PostgresStore) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		entry     = Entry{Key: key}
		expiresAt *time.Time
	)

	err := s.pool.QueryRow(ctx,
		`SELECT payload, expires_at FROM client_storage WHERE key = $1`, key,
	).Scan(&entry.Payload, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select %s: %w", key, err)
	}

	if expiresAt != nil {
		entry.ExpiresAt = *expiresAt
	}

	if entry.Expired(s.now()) {
		if err := s.Remove(ctx, key); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return &entry, nil
}

// Put upserts key.
func (s *PostgresStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if exp := expiryFor(s.now(), ttl); !exp.IsZero() {
		expiresAt = &exp
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO client_storage (key, payload, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE
		 SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at, updated_at = NOW()`,
		key, payload, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM client_storage WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
