// Package service contains the admin API's application services.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/fixoo-app/fixoo/internal/crypto"
	"github.com/fixoo-app/fixoo/internal/errs"
	"github.com/fixoo-app/fixoo/internal/ids"
	"github.com/fixoo-app/fixoo/internal/limiter"
	"github.com/fixoo-app/fixoo/internal/model"
	"github.com/fixoo-app/fixoo/internal/repository"
)

// Admin roles.
const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// AdminAuth manages dashboard operators and their access tokens.
type AdminAuth struct {
	admins    repository.AdminRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	log       *zap.Logger
	now       func() time.Time
}

// NewAdminAuth constructs AdminAuth with required dependencies.
func NewAdminAuth(admins repository.AdminRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter, log *zap.Logger) *AdminAuth {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminAuth{admins: admins, signKey: signKey, accessTTL: accessTTL, lim: lim, log: log, now: time.Now}
}

// CreateAdmin hashes password and stores a new admin. An empty role means RoleAdmin.
func (s *AdminAuth) CreateAdmin(ctx context.Context, username, password, role string) (*model.AdminUser, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: empty username/password", errs.ErrValidation)
	}
	if role == "" {
		role = RoleAdmin
	}
	if role != RoleAdmin && role != RoleSuperadmin {
		return nil, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, role)
	}
	hash, salt, err := pkgcrypto.NewPasswordHash(password)
	if err != nil {
		return nil, err
	}
	a := &model.Admin{
		AdminUser: model.AdminUser{
			ID:        ids.NewUUID(),
			Username:  username,
			Role:      role,
			CreatedAt: s.now().UTC(),
		},
		PwdHash: hash,
		Salt:    salt,
	}
	if err := s.admins.Create(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("admin created", zap.String("admin_id", a.ID), zap.String("username", username))
	return &a.AdminUser, nil
}

// EnsureBootstrap creates a superadmin when no admin exists yet.
func (s *AdminAuth) EnsureBootstrap(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	n, err := s.admins.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.CreateAdmin(ctx, username, password, RoleSuperadmin); err != nil {
		return false, err
	}
	return true, nil
}

// Login authenticates with rate limiting by (username, client address).
func (s *AdminAuth) Login(ctx context.Context, username, password, addr string) (model.Tokens, model.AdminUser, error) {
	client := limiter.HashClient(addr)

	allowed, _, err := s.lim.Allow(ctx, username, client)
	if err != nil {
		return model.Tokens{}, model.AdminUser{}, err
	}
	if !allowed {
		return model.Tokens{}, model.AdminUser{}, errs.ErrRateLimited
	}

	a, err := s.admins.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.AdminUser{}, err
	}
	if err != nil || !pkgcrypto.VerifyPassword(password, a.Salt, a.PwdHash) {
		blocked, _, ferr := s.lim.Failure(ctx, username, client)
		if ferr != nil {
			s.log.Warn("limiter failure record", zap.Error(ferr))
		}
		if blocked {
			return model.Tokens{}, model.AdminUser{}, errs.ErrRateLimited
		}
		// unknown user and wrong password look the same
		return model.Tokens{}, model.AdminUser{}, errs.ErrUnauthorized
	}

	if err := s.lim.Success(ctx, username, client); err != nil {
		s.log.Warn("limiter reset", zap.Error(err))
	}

	access, exp, err := s.issueAccessToken(a.ID)
	if err != nil {
		return model.Tokens{}, model.AdminUser{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, a.AdminUser, nil
}

// issueAccessToken creates a signed HS256 JWT for the given admin.
func (s *AdminAuth) issueAccessToken(adminID string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   adminID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	return signed, exp, err
}

// ParseToken validates an access token and returns the admin id.
// Expired tokens yield errs.ErrExpired, anything else invalid errs.ErrUnauthorized.
func (s *AdminAuth) ParseToken(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", errs.ErrExpired
	case err != nil:
		return "", errs.ErrUnauthorized
	case claims.Subject == "":
		return "", errs.ErrUnauthorized
	}
	return claims.Subject, nil
}

// Admin returns the public view of an admin.
func (s *AdminAuth) Admin(ctx context.Context, id string) (*model.AdminUser, error) {
	a, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &a.AdminUser, nil
}

// ListAdmins returns all admins without credentials.
func (s *AdminAuth) ListAdmins(ctx context.Context) ([]model.AdminUser, error) {
	list, err := s.admins.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.AdminUser, 0, len(list))
	for _, a := range list {
		out = append(out, a.AdminUser)
	}
	return out, nil
}

// DeleteAdmin removes id on behalf of actorID. Admins cannot delete themselves.
func (s *AdminAuth) DeleteAdmin(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return fmt.Errorf("%w: cannot delete own account", errs.ErrValidation)
	}
	if err := s.admins.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("admin deleted", zap.String("admin_id", id), zap.String("by", actorID))
	return nil
}
