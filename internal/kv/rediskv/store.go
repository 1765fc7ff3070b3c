// Package rediskv implements kv.Store on Redis string keys.
package rediskv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fixoo-app/fixoo/internal/kv"
)

// Store maps each key to a Redis string under an optional prefix.
type Store struct {
	rc     redis.UniversalClient
	prefix string
}

var _ kv.Store = (*Store)(nil)

// New wraps an existing client. prefix is prepended to every key.
func New(rc redis.UniversalClient, prefix string) *Store {
	return &Store{rc: rc, prefix: prefix}
}

// Connect dials addr and verifies the connection with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis: address is empty")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to ping server: %w", err)
	}
	return client, nil
}

func (s *Store) key(k string) string { return s.prefix + k }

// Get reads the value for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.rc.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := kv.Validate(kv.Put(key, value)); err != nil {
		return err
	}
	if err := s.rc.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.rc.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Apply sends all ops in one MULTI/EXEC block.
func (s *Store) Apply(ctx context.Context, ops ...kv.Op) error {
	if len(ops) == 0 {
		return nil
	}
	if err := kv.Validate(ops...); err != nil {
		return err
	}
	_, err := s.rc.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, op := range ops {
			if op.Delete {
				p.Del(ctx, s.key(op.Key))
				continue
			}
			p.Set(ctx, s.key(op.Key), op.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis apply: %w", err)
	}
	return nil
}
