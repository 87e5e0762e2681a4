package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/store"
	"github.com/lib/pq"
)

const (
	getBlob    = `SELECT value FROM blobs WHERE key = $1`
	deleteBlob = `DELETE FROM blobs WHERE key = $1`
	upsertBlob = `INSERT INTO blobs (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an already opened database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects using a lib/pq connection string or postgres:// URL.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, getBlob, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, wrap("get", key, err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertBlob, key, value, time.Now().UTC()); err != nil {
		return wrap("put", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteBlob, key); err != nil {
		return wrap("delete", key, err)
	}
	return nil
}

// wrap adds the SQLSTATE name to server-side errors so logs say more than
// "pq: ...".
func wrap(op, key string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("postgres: %s %q (%s): %w", op, key, pqErr.Code.Name(), err)
	}
	return fmt.Errorf("postgres: %s %q: %w", op, key, err)
}
