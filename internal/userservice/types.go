package userservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sushihentaime/blogify/internal/common"
)

const (
	SessionTTL      = 30 * 24 * time.Hour
	sessionCacheTTL = time.Minute
)

var (
	ErrNoSession          = errors.New("no active session")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("a user with this email address already exists")
)

type Profile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Session is the authentication state of one client. Profile is nil unless Status is true.
type Session struct {
	Status  bool     `json:"status"`
	Profile *Profile `json:"profile"`
}

// Login is the result of a successful sign in. Secret authenticates later requests.
type Login struct {
	Secret  string   `json:"secret"`
	Profile *Profile `json:"profile"`
}

type CurrentUserGetter interface {
	GetCurrentUser(ctx context.Context, secret string) (*Profile, error)
}

// Accounts is the authentication backend.
type Accounts interface {
	CurrentUserGetter
	CreateAccount(ctx context.Context, name, email, password string) (*Profile, error)
	CreateSession(ctx context.Context, email, password string) (string, error)
	DeleteSession(ctx context.Context, secret string) error
}

// LikeStore keeps the liked post ids of each client.
type LikeStore interface {
	Add(ctx context.Context, client, postID string) error
	Remove(ctx context.Context, client, postID string) error
	Has(ctx context.Context, client, postID string) (bool, error)
	List(ctx context.Context, client string) ([]string, error)
	Clear(ctx context.Context, client string) error
}

// UserCreatedMessage is published on user.created.
type UserCreatedMessage struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UserService struct {
	accounts Accounts
	likes    LikeStore
	mb       common.MessageProducer
	c        *common.Cache
	logger   *slog.Logger
}
