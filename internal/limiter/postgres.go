package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG keeps limiter state in admin_login_limits so it is shared by every API replica.
type PG struct {
	q      Querier
	policy Policy
	now    func() time.Time
}

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(q Querier, p Policy) *PG {
	return &PG{q: q, policy: p, now: time.Now}
}

// Allow implements Limiter.
func (l *PG) Allow(ctx context.Context, username string, client []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM admin_login_limits WHERE username=$1 AND client_hash=$2`
	var blockedUntil time.Time
	err := l.q.QueryRow(ctx, q, username, client).Scan(&blockedUntil)
	switch {
	case err == nil:
		if now := l.now(); blockedUntil.After(now) {
			return false, blockedUntil.Sub(now), nil
		}
		return true, 0, nil
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	default:
		return false, 0, err
	}
}

// Success implements Limiter.
func (l *PG) Success(ctx context.Context, username string, client []byte) error {
	const q = `DELETE FROM admin_login_limits WHERE username=$1 AND client_hash=$2`
	_, err := l.q.Exec(ctx, q, username, client)
	return err
}

// Failure implements Limiter. The counter restarts when the previous failure
// is older than the policy window.
func (l *PG) Failure(ctx context.Context, username string, client []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO admin_login_limits (username, client_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 1, 'epoch', now())
ON CONFLICT (username, client_hash) DO UPDATE
SET
  fail_count = CASE WHEN now() - admin_login_limits.updated_at > $3::interval THEN 1 ELSE admin_login_limits.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.q.QueryRow(ctx, q, username, client, l.policy.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.policy.MaxFails {
		return false, 0, nil
	}
	const upd = `UPDATE admin_login_limits SET blocked_until=$3 WHERE username=$1 AND client_hash=$2`
	if _, err := l.q.Exec(ctx, upd, username, client, l.now().Add(l.policy.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.policy.BlockFor, nil
}
