// Package pgkv implements kv.Store on a PostgreSQL table.
package pgkv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fixoo-app/fixoo/internal/kv"
	"github.com/fixoo-app/fixoo/internal/repository/postgres"
)

// Store keeps each key as one row of kv_entries (key TEXT PK, value JSONB).
type Store struct{ db *postgres.DB }

var _ kv.Store = (*Store)(nil)

// New constructs a PostgreSQL-backed store.
func New(db *postgres.DB) *Store { return &Store{db: db} }

const (
	qGet    = `SELECT value FROM kv_entries WHERE key=$1`
	qUpsert = `
INSERT INTO kv_entries (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	qDelete = `DELETE FROM kv_entries WHERE key=$1`
)

// Get selects the value for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := s.db.Pool.QueryRow(ctx, qGet, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return v, true, nil
}

// Set upserts the value for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := kv.Validate(kv.Put(key, value)); err != nil {
		return err
	}
	if _, err := s.db.Pool.Exec(ctx, qUpsert, key, value); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Remove deletes the row for key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.Pool.Exec(ctx, qDelete, key); err != nil {
		return fmt.Errorf("kv remove %s: %w", key, err)
	}
	return nil
}

// Apply runs all ops in one transaction.
func (s *Store) Apply(ctx context.Context, ops ...kv.Op) (err error) {
	if len(ops) == 0 {
		return nil
	}
	if err := kv.Validate(ops...); err != nil {
		return err
	}
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	for _, op := range ops {
		if op.Delete {
			if _, err = tx.Exec(ctx, qDelete, op.Key); err != nil {
				return fmt.Errorf("kv apply remove %s: %w", op.Key, err)
			}
			continue
		}
		if _, err = tx.Exec(ctx, qUpsert, op.Key, op.Value); err != nil {
			return fmt.Errorf("kv apply set %s: %w", op.Key, err)
		}
	}
	return nil
}
