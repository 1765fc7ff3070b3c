package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var policy = Policy{Window: 5 * time.Minute, MaxFails: 3, BlockFor: 10 * time.Minute}

func TestMemory_BlocksAtThresholdAndResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(policy, func() time.Time { return now })
	ctx := context.Background()
	client := HashClient("10.0.0.1")

	for i := 0; i < 2; i++ {
		blocked, _, err := m.Failure(ctx, "root", client)
		require.NoError(t, err)
		require.False(t, blocked)
	}
	blocked, d, err := m.Failure(ctx, "root", client)
	require.NoError(t, err)
	require.True(t, blocked)
	require.Equal(t, policy.BlockFor, d)

	ok, wait, err := m.Allow(ctx, "root", client)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, policy.BlockFor, wait)

	// other client is unaffected
	ok, _, _ = m.Allow(ctx, "root", HashClient("10.0.0.2"))
	require.True(t, ok)

	now = now.Add(policy.BlockFor + time.Second)
	ok, _, _ = m.Allow(ctx, "root", client)
	require.True(t, ok)

	require.NoError(t, m.Success(ctx, "root", client))
	blocked, _, _ = m.Failure(ctx, "root", client)
	require.False(t, blocked)
}

func TestMemory_WindowExpiryRestartsCount(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(policy, func() time.Time { return now })
	ctx := context.Background()

	_, _, _ = m.Failure(ctx, "u", nil)
	_, _, _ = m.Failure(ctx, "u", nil)
	now = now.Add(policy.Window + time.Minute)
	blocked, _, err := m.Failure(ctx, "u", nil)
	require.NoError(t, err)
	require.False(t, blocked)
}

const (
	reAllow   = `SELECT blocked_until FROM admin_login_limits WHERE username=\$1 AND client_hash=\$2`
	reSuccess = `DELETE FROM admin_login_limits WHERE username=\$1 AND client_hash=\$2`
	reFailure = `INSERT INTO admin_login_limits .* RETURNING fail_count`
	reBlock   = `UPDATE admin_login_limits SET blocked_until=\$3 WHERE username=\$1 AND client_hash=\$2`
)

func newPG(t *testing.T) (*PG, pgxmock.PgxPoolIface, time.Time) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewPG(mock, policy)
	l.now = func() time.Time { return now }
	return l, mock, now
}

func TestPG_Allow(t *testing.T) {
	l, mock, now := newPG(t)
	defer mock.Close()
	ctx := context.Background()
	h := []byte("h")

	mock.ExpectQuery(reAllow).WithArgs("u", h).WillReturnError(pgx.ErrNoRows)
	ok, _, err := l.Allow(ctx, "u", h)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectQuery(reAllow).WithArgs("u", h).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(now.Add(time.Minute)))
	ok, wait, err := l.Allow(ctx, "u", h)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, time.Minute, wait)

	mock.ExpectQuery(reAllow).WithArgs("u", h).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(now.Add(-time.Minute)))
	ok, _, err = l.Allow(ctx, "u", h)
	require.NoError(t, err)
	require.True(t, ok)

	boom := errors.New("db down")
	mock.ExpectQuery(reAllow).WithArgs("u", h).WillReturnError(boom)
	ok, _, err = l.Allow(ctx, "u", h)
	require.ErrorIs(t, err, boom)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_FailureAndSuccess(t *testing.T) {
	l, mock, now := newPG(t)
	defer mock.Close()
	ctx := context.Background()
	h := []byte("h")

	mock.ExpectQuery(reFailure).WithArgs("u", h, policy.Window).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(1))
	blocked, _, err := l.Failure(ctx, "u", h)
	require.NoError(t, err)
	require.False(t, blocked)

	mock.ExpectQuery(reFailure).WithArgs("u", h, policy.Window).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(3))
	mock.ExpectExec(reBlock).WithArgs("u", h, now.Add(policy.BlockFor)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	blocked, d, err := l.Failure(ctx, "u", h)
	require.NoError(t, err)
	require.True(t, blocked)
	require.Equal(t, policy.BlockFor, d)

	mock.ExpectExec(reSuccess).WithArgs("u", h).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, l.Success(ctx, "u", h))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemory_SweepsStaleEntries(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := t0
	m := NewMemory(policy, func() time.Time { return now })
	ctx := context.Background()

	_, _, _ = m.Failure(ctx, "a", nil)
	_, _, _ = m.Failure(ctx, "b", nil)
	for i := 0; i < policy.MaxFails; i++ {
		_, _, _ = m.Failure(ctx, "c", nil)
	}
	require.Len(t, m.entries, 3)

	now = t0.Add(policy.Window + time.Minute)
	_, _, _ = m.Failure(ctx, "d", nil)
	require.Len(t, m.entries, 2, "stale a and b are gone, blocked c stays")
	ok, _, _ := m.Allow(ctx, "c", nil)
	require.False(t, ok)

	now = t0.Add(policy.BlockFor + policy.Window + 2*time.Minute)
	_, _, _ = m.Failure(ctx, "e", nil)
	require.Len(t, m.entries, 1)
}

func TestHashClient(t *testing.T) {
	a := HashClient("1.2.3.4")
	require.Len(t, a, 32)
	require.Equal(t, a, HashClient("1.2.3.4"))
	require.NotEqual(t, a, HashClient("5.6.7.8"))
}
