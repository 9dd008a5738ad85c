package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/voicenotes/internal/errs"
)

func newMockPostgres(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewPostgres(mock), mock
}

func TestPostgres_Get(t *testing.T) {
	s, mock := newMockPostgres(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectQuery(`SELECT value FROM kv_store WHERE key=\$1`).
		WithArgs("auth_tokens").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(`{"access_token":"A"}`))
	v, err := s.Get(ctx, "auth_tokens")
	require.NoError(t, err)
	require.Equal(t, `{"access_token":"A"}`, v)

	mock.ExpectQuery(`SELECT value FROM kv_store WHERE key=\$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(`SELECT value FROM kv_store WHERE key=\$1`).
		WithArgs("k").
		WillReturnError(errors.New("conn reset"))
	_, err = s.Get(ctx, "k")
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetRemove(t *testing.T) {
	s, mock := newMockPostgres(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO kv_store \(key, value, updated_at\) VALUES \(\$1, \$2, now\(\)\)`).
		WithArgs("user_email", "a@b.com").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.Set(ctx, "user_email", "a@b.com"))

	mock.ExpectExec(`DELETE FROM kv_store WHERE key=\$1`).
		WithArgs("user_email").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, s.Remove(ctx, "user_email"))

	mock.ExpectExec(`DELETE FROM kv_store WHERE key=\$1`).
		WithArgs("x").
		WillReturnError(errors.New("boom"))
	require.Error(t, s.Remove(ctx, "x"))

	require.NoError(t, mock.ExpectationsWereMet())
}
