package pgkv

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/fixoo-app/fixoo/internal/kv"
	"github.com/fixoo-app/fixoo/internal/repository/postgres"
)

const (
	reGet    = `SELECT value FROM kv_entries WHERE key=\$1`
	reUpsert = `INSERT INTO kv_entries \(key, value, updated_at\) VALUES \(\$1, \$2, now\(\)\) ON CONFLICT \(key\) DO UPDATE SET value = EXCLUDED.value, updated_at = now\(\)`
	reDelete = `DELETE FROM kv_entries WHERE key=\$1`
)

func newStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return New(&postgres.DB{Pool: mock}), mock
}

func TestStore_Get(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectQuery(reGet).
		WithArgs("fixoo_users").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))
	v, ok, err := s.Get(ctx, "fixoo_users")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[]`, string(v))

	mock.ExpectQuery(reGet).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, ok, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	mock.ExpectQuery(reGet).
		WithArgs("broken").
		WillReturnError(errors.New("conn reset"))
	_, _, err = s.Get(ctx, "broken")
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SetAndRemove(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectExec(reUpsert).
		WithArgs("k", []byte(`1`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.Set(ctx, "k", []byte(`1`)))

	mock.ExpectExec(reDelete).
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, s.Remove(ctx, "k"))

	mock.ExpectExec(reDelete).
		WithArgs("k").
		WillReturnError(errors.New("boom"))
	require.Error(t, s.Remove(ctx, "k"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Apply_CommitsBatch(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(reUpsert).
		WithArgs("fixoo_users", []byte(`[]`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(reDelete).
		WithArgs("fixoo_current_user").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := s.Apply(ctx, kv.Put("fixoo_users", []byte(`[]`)), kv.Delete("fixoo_current_user"))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Apply_RollsBackOnError(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(reUpsert).
		WithArgs("a", []byte(`1`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(reDelete).
		WithArgs("b").
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := s.Apply(ctx, kv.Put("a", []byte(`1`)), kv.Delete("b"))
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Apply_Empty(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	require.NoError(t, s.Apply(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RejectsNonJSONWithoutQuery(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()

	require.ErrorIs(t, s.Set(ctx, "k", []byte("plain")), kv.ErrNotJSON)
	require.ErrorIs(t, s.Apply(ctx, kv.Put("k", []byte("plain"))), kv.ErrNotJSON)
	require.NoError(t, mock.ExpectationsWereMet())
}
