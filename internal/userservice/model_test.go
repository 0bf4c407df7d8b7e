package userservice

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/blogify/internal/common"
)

func setupMockDB(t *testing.T) (*PostgresAccounts, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresAccounts(db), mock
}

func TestPostgresCreateAccount(t *testing.T) {
	testCases := []struct {
		name        string
		dbErr       error
		expectedErr error
	}{
		{name: "created"},
		{name: "duplicate email", dbErr: &pq.Error{Code: "23505", Constraint: "users_email_key"}, expectedErr: ErrDuplicateEmail},
		{name: "other error", dbErr: errors.New("connection reset")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			accounts, mock := setupMockDB(t)

			exp := mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
				WithArgs(sqlmock.AnyArg(), "Ada", "ada@example.com", sqlmock.AnyArg())
			if tc.dbErr != nil {
				exp.WillReturnError(tc.dbErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			p, err := accounts.CreateAccount(context.Background(), "Ada", "ada@example.com", "password123")

			switch {
			case tc.expectedErr != nil:
				assert.ErrorIs(t, err, tc.expectedErr)
			case tc.dbErr != nil:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Len(t, p.ID, 36)
				assert.Equal(t, "Ada", p.Name)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresCreateSession(t *testing.T) {
	var p password
	require.NoError(t, p.set("password123"))

	t.Run("valid credentials", func(t *testing.T) {
		accounts, mock := setupMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, password_hash`)).
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("u1", p.hash))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions`)).
			WithArgs(sqlmock.AnyArg(), "u1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		secret, err := accounts.CreateSession(context.Background(), "ada@example.com", "password123")
		require.NoError(t, err)
		assert.Len(t, secret, 26)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		accounts, mock := setupMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, password_hash`)).
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("u1", p.hash))

		_, err := accounts.CreateSession(context.Background(), "ada@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown email", func(t *testing.T) {
		accounts, mock := setupMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, password_hash`)).
			WithArgs("bob@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := accounts.CreateSession(context.Background(), "bob@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestPostgresGetCurrentUser(t *testing.T) {
	t.Run("active session", func(t *testing.T) {
		accounts, mock := setupMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT u.id, u.name, u.email`)).
			WithArgs(hashSecret("secret"), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow("u1", "Ada", "ada@example.com"))

		p, err := accounts.GetCurrentUser(context.Background(), "secret")
		require.NoError(t, err)
		assert.Equal(t, &Profile{ID: "u1", Name: "Ada", Email: "ada@example.com"}, p)
	})

	t.Run("no session", func(t *testing.T) {
		accounts, mock := setupMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT u.id, u.name, u.email`)).
			WillReturnError(sql.ErrNoRows)

		_, err := accounts.GetCurrentUser(context.Background(), "secret")
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestPostgresDeleteSession(t *testing.T) {
	testCases := []struct {
		name        string
		rows        int64
		expectedErr error
	}{
		{name: "deleted", rows: 1},
		{name: "missing", rows: 0, expectedErr: ErrNoSession},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			accounts, mock := setupMockDB(t)

			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions`)).
				WithArgs(hashSecret("secret")).
				WillReturnResult(sqlmock.NewResult(0, tc.rows))

			err := accounts.DeleteSession(context.Background(), "secret")
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostgresDeleteExpiredSessions(t *testing.T) {
	accounts, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := accounts.DeleteExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := common.TestDB("file://../../migrations", t)
	accounts := NewPostgresAccounts(db)
	ctx := context.Background()

	p, err := accounts.CreateAccount(ctx, "Ada", "ada@example.com", "password123")
	require.NoError(t, err)

	_, err = accounts.CreateAccount(ctx, "Ada", "ada@example.com", "password123")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	secret, err := accounts.CreateSession(ctx, "ada@example.com", "password123")
	require.NoError(t, err)

	current, err := accounts.GetCurrentUser(ctx, secret)
	require.NoError(t, err)
	assert.Equal(t, p.ID, current.ID)

	require.NoError(t, accounts.DeleteSession(ctx, secret))

	_, err = accounts.GetCurrentUser(ctx, secret)
	assert.ErrorIs(t, err, ErrNoSession)
}
