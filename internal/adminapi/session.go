package adminapi

import (
	"context"

	"go.uber.org/zap"

	"github.com/fixoo-app/fixoo/internal/kv"
	"github.com/fixoo-app/fixoo/internal/model"
)

// Persisted admin keys.
const (
	KeyAdminToken = "fixoo_admin_token"
	KeyAdminUser  = "fixoo_admin_user"
)

// Session keeps the admin bearer token and profile in a kv.Store.
type Session struct {
	kv  kv.Store
	log *zap.Logger
}

var _ TokenSource = (*Session)(nil)

// NewSession constructs an admin session over kvs.
func NewSession(kvs kv.Store, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{kv: kvs, log: log}
}

// Token returns the stored bearer token or "".
func (s *Session) Token(ctx context.Context) string {
	var tok string
	if _, err := kv.GetJSON(ctx, s.kv, KeyAdminToken, &tok); err != nil {
		s.log.Warn("admin session: load token", zap.Error(err))
		return ""
	}
	return tok
}

// Admin returns the stored admin profile or nil.
func (s *Session) Admin(ctx context.Context) *model.AdminUser {
	var a model.AdminUser
	ok, err := kv.GetJSON(ctx, s.kv, KeyAdminUser, &a)
	if err != nil {
		s.log.Warn("admin session: load admin", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return &a
}

// Save stores token and admin together.
func (s *Session) Save(ctx context.Context, token string, admin model.AdminUser) error {
	tokOp, err := kv.PutJSON(KeyAdminToken, token)
	if err != nil {
		return err
	}
	adminOp, err := kv.PutJSON(KeyAdminUser, admin)
	if err != nil {
		return err
	}
	return s.kv.Apply(ctx, tokOp, adminOp)
}

// Clear removes token and admin.
func (s *Session) Clear(ctx context.Context) error {
	return s.kv.Apply(ctx, kv.Delete(KeyAdminToken), kv.Delete(KeyAdminUser))
}
