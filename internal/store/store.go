// Package store is the entity store: Users, Orders and per-user Media kept as
// whole JSON collections in a kv.Store.
//
// Every mutation reads a collection, changes it in memory and writes the
// complete collection back. Operations never return errors to callers; a
// failed read or write is logged and reported as false, nil or an empty slice.
package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fixoo-app/fixoo/internal/ids"
	"github.com/fixoo-app/fixoo/internal/kv"
	"github.com/fixoo-app/fixoo/internal/model"
)

// Persisted key space.
const (
	KeyUsers       = "fixoo_users"
	KeyOrders      = "fixoo_orders"
	KeyUserMedia   = "fixoo_user_media"
	KeyCurrentUser = "fixoo_current_user"
)

// Store owns the Users, Orders and Media collections.
type Store struct {
	kv    kv.Store
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the generator for order and media ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New constructs an entity store over kvs.
func New(kvs kv.Store, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{kv: kvs, log: log, now: time.Now, newID: ids.NewShort}
	for _, o := range opts {
		o(s)
	}
	return s
}

// KV exposes the underlying key-value store.
func (s *Store) KV() kv.Store { return s.kv }

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.now() }

func (s *Store) fail(op, key string, err error) {
	s.log.Warn("store operation failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
}

// LoadUsers reads the full User collection. A missing key is an empty collection.
func (s *Store) LoadUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if _, err := kv.GetJSON(ctx, s.kv, KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CommitUsers writes the User collection together with extra ops in one batch.
func (s *Store) CommitUsers(ctx context.Context, users []model.User, extra ...kv.Op) error {
	if users == nil {
		users = []model.User{}
	}
	op, err := kv.PutJSON(KeyUsers, users)
	if err != nil {
		return err
	}
	return s.kv.Apply(ctx, append([]kv.Op{op}, extra...)...)
}

// LoadSession reads the active session snapshot, nil when absent.
func (s *Store) LoadSession(ctx context.Context) (*model.User, error) {
	var u model.User
	ok, err := kv.GetJSON(ctx, s.kv, KeyCurrentUser, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (s *Store) loadOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if _, err := kv.GetJSON(ctx, s.kv, KeyOrders, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) commitOrders(ctx context.Context, orders []model.Order) error {
	if orders == nil {
		orders = []model.Order{}
	}
	op, err := kv.PutJSON(KeyOrders, orders)
	if err != nil {
		return err
	}
	return s.kv.Apply(ctx, op)
}

func (s *Store) loadMedia(ctx context.Context) (map[string][]model.Media, error) {
	media := map[string][]model.Media{}
	if _, err := kv.GetJSON(ctx, s.kv, KeyUserMedia, &media); err != nil {
		return nil, err
	}
	if media == nil {
		media = map[string][]model.Media{}
	}
	return media, nil
}

func indexOfUser(users []model.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfOrder(orders []model.Order, id string) int {
	for i := range orders {
		if orders[i].ID == id {
			return i
		}
	}
	return -1
}
