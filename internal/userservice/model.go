package userservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sushihentaime/blogify/internal/common"
)

var _ Accounts = (*PostgresAccounts)(nil)

// PostgresAccounts keeps users and their sessions in the users and sessions tables.
type PostgresAccounts struct {
	db  *sql.DB
	ttl time.Duration
}

func NewPostgresAccounts(db *sql.DB) *PostgresAccounts {
	return &PostgresAccounts{db: db, ttl: SessionTTL}
}

func uniqueViolation(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == name
	}

	return false
}

func (m *PostgresAccounts) CreateAccount(ctx context.Context, name, email, pwd string) (*Profile, error) {
	defer common.TrackCall("postgres", "create_account")()

	var p password
	if err := p.set(pwd); err != nil {
		return nil, err
	}

	profile := Profile{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
	}

	query := `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)`

	_, err := m.db.ExecContext(ctx, query, profile.ID, profile.Name, profile.Email, p.hash)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_email_key"):
			return nil, ErrDuplicateEmail
		default:
			return nil, err
		}
	}

	return &profile, nil
}

func (m *PostgresAccounts) CreateSession(ctx context.Context, email, pwd string) (string, error) {
	defer common.TrackCall("postgres", "create_session")()

	query := `
		SELECT id, password_hash
		FROM users
		WHERE email = $1`

	var (
		userID string
		p      password
	)

	err := m.db.QueryRowContext(ctx, query, email).Scan(&userID, &p.hash)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return "", ErrInvalidCredentials
		default:
			return "", err
		}
	}

	ok, err := p.compare(pwd)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	secret, err := newSecret()
	if err != nil {
		return "", err
	}

	query = `
		INSERT INTO sessions (hash, user_id, expiry)
		VALUES ($1, $2, $3)`

	_, err = m.db.ExecContext(ctx, query, hashSecret(secret), userID, time.Now().Add(m.ttl))
	if err != nil {
		return "", err
	}

	return secret, nil
}

func (m *PostgresAccounts) GetCurrentUser(ctx context.Context, secret string) (*Profile, error) {
	defer common.TrackCall("postgres", "get_current_user")()

	query := `
		SELECT u.id, u.name, u.email
		FROM users u
		INNER JOIN sessions s ON u.id = s.user_id
		WHERE s.hash = $1 AND s.expiry > $2`

	var p Profile

	err := m.db.QueryRowContext(ctx, query, hashSecret(secret), time.Now()).Scan(&p.ID, &p.Name, &p.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNoSession
		default:
			return nil, err
		}
	}

	return &p, nil
}

func (m *PostgresAccounts) DeleteSession(ctx context.Context, secret string) error {
	defer common.TrackCall("postgres", "delete_session")()

	query := `
		DELETE FROM sessions
		WHERE hash = $1`

	res, err := m.db.ExecContext(ctx, query, hashSecret(secret))
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNoSession
	}

	return nil
}

// DeleteExpiredSessions removes sessions past their expiry.
func (m *PostgresAccounts) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE expiry <= $1`

	res, err := m.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
