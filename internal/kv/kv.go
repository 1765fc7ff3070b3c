// Package kv defines the key-value capability the client-side stores are built on.
//
// Values are JSON documents; every backend rejects anything else with
// ErrNotJSON. Apply commits a batch of writes as a single unit so that
// multi-key mutations cannot be observed half-applied.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotJSON is returned when a value written to a Store is not valid JSON.
var ErrNotJSON = errors.New("kv: value is not JSON")

// Store is the key-value capability injected into the session and entity stores.
type Store interface {
	// Get returns the value stored under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value under key, replacing any previous value. value must be JSON.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Apply commits all ops as one unit.
	Apply(ctx context.Context, ops ...Op) error
}

// Op is a single write inside an Apply batch.
type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

// Validate checks that every non-delete op carries a JSON value.
func Validate(ops ...Op) error {
	for _, op := range ops {
		if !op.Delete && !json.Valid(op.Value) {
			return fmt.Errorf("%w: %s", ErrNotJSON, op.Key)
		}
	}
	return nil
}

// Put returns an op storing value under key.
func Put(key string, value []byte) Op { return Op{Key: key, Value: value} }

// Delete returns an op removing key.
func Delete(key string) Op { return Op{Key: key, Delete: true} }

// PutJSON marshals v and returns an op storing it under key.
func PutJSON(key string, v any) (Op, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Op{}, fmt.Errorf("kv: marshal %s: %w", key, err)
	}
	return Put(key, b), nil
}

// GetJSON loads key and unmarshals it into dst.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	b, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("kv: unmarshal %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	op, err := PutJSON(key, v)
	if err != nil {
		return err
	}
	return s.Set(ctx, op.Key, op.Value)
}
