// Package session tracks the logged-in User of the local client.
//
// The active session is a copy of the User record stored under
// store.KeyCurrentUser. Its tokenExpiry is checked lazily by IsAuthenticated;
// nothing expires sessions in the background.
//
// Phone and password comparison is exact string equality against the
// plaintext password kept in the User record. This mirrors records written
// by the web client; hashing them would break compatibility with existing
// storage and needs a migration.
package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fixoo-app/fixoo/internal/errs"
	"github.com/fixoo-app/fixoo/internal/ids"
	"github.com/fixoo-app/fixoo/internal/kv"
	"github.com/fixoo-app/fixoo/internal/model"
	"github.com/fixoo-app/fixoo/internal/store"
)

// DefaultTTL is how long a login stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// Store manages the active session on top of the entity store.
type Store struct {
	users *store.Store
	log   *zap.Logger
	now   func() time.Time
	ttl   time.Duration
	newID func() string
}

// Option customizes a session Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option { return func(s *Store) { s.ttl = ttl } }

// WithIDGenerator overrides the user id generator.
func WithIDGenerator(gen func() string) Option { return func(s *Store) { s.newID = gen } }

// New constructs a session store sharing the entity store's key-value backend.
func New(users *store.Store, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{users: users, log: log, now: time.Now, ttl: DefaultTTL, newID: ids.NewUUID}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) expiry() int64 { return s.now().Add(s.ttl).UnixMilli() }

// Register creates a User and makes it the active session. It returns
// errs.ErrAlreadyExists when the phone is taken; the collection is unchanged then.
func (s *Store) Register(ctx context.Context, u model.User) (*model.User, error) {
	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	for i := range users {
		if users[i].Phone == u.Phone {
			return nil, fmt.Errorf("register %s: %w", u.Phone, errs.ErrAlreadyExists)
		}
	}

	u.ID = s.newID()
	u.CreatedAt = s.now().UnixMilli()
	u.TokenExpiry = s.expiry()
	users = append(users, u)

	sess, err := kv.PutJSON(store.KeyCurrentUser, u)
	if err != nil {
		return nil, err
	}
	if err := s.users.CommitUsers(ctx, users, sess); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("type", string(u.Type)))
	return &u, nil
}

// Login finds the User by phone. A non-empty password must match exactly.
// On success tokenExpiry is refreshed in both the collection and the session.
// No match is reported as (nil, false), never as an error.
func (s *Store) Login(ctx context.Context, phone, password string) (*model.User, bool) {
	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		s.log.Warn("login: load users", zap.Error(err))
		return nil, false
	}
	i := -1
	for j := range users {
		if users[j].Phone == phone {
			i = j
			break
		}
	}
	if i < 0 {
		return nil, false
	}
	if password != "" && users[i].Password != password {
		return nil, false
	}

	users[i].TokenExpiry = s.expiry()
	u := users[i]
	sess, err := kv.PutJSON(store.KeyCurrentUser, u)
	if err != nil {
		s.log.Warn("login: encode session", zap.Error(err))
		return nil, false
	}
	if err := s.users.CommitUsers(ctx, users, sess); err != nil {
		s.log.Warn("login: commit", zap.Error(err))
		return nil, false
	}
	return &u, true
}

// IsAuthenticated reports whether an unexpired session exists. An expired
// session is removed as a side effect.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	u, err := s.users.LoadSession(ctx)
	if err != nil {
		s.log.Warn("session: load", zap.Error(err))
		return false
	}
	if u == nil {
		return false
	}
	if u.Expired(s.now()) {
		if err := s.users.KV().Remove(ctx, store.KeyCurrentUser); err != nil {
			s.log.Warn("session: clear expired", zap.Error(err))
		}
		s.log.Info("session expired", zap.String("user_id", u.ID))
		return false
	}
	return true
}

// CurrentUser returns the session snapshot or nil. It does not check expiry.
func (s *Store) CurrentUser(ctx context.Context) *model.User {
	u, err := s.users.LoadSession(ctx)
	if err != nil {
		s.log.Warn("session: load", zap.Error(err))
		return nil
	}
	return u
}

// Logout clears the session. The User collection is not touched.
func (s *Store) Logout(ctx context.Context) bool {
	if err := s.users.KV().Remove(ctx, store.KeyCurrentUser); err != nil {
		s.log.Warn("session: logout", zap.Error(err))
		return false
	}
	return true
}

// Refresh re-reads the session's User from the collection and rewrites the
// snapshot, for callers that changed the collection directly.
func (s *Store) Refresh(ctx context.Context) bool {
	cur := s.CurrentUser(ctx)
	if cur == nil {
		return false
	}
	u, ok := s.users.UserByID(ctx, cur.ID)
	if !ok {
		return false
	}
	if err := kv.SetJSON(ctx, s.users.KV(), store.KeyCurrentUser, u); err != nil {
		s.log.Warn("session: refresh", zap.Error(err))
		return false
	}
	return true
}
