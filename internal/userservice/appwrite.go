package userservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/appwrite/sdk-for-go/id"
	"github.com/appwrite/sdk-for-go/models"
	"github.com/sushihentaime/blogify/internal/appwrite"
	"github.com/sushihentaime/blogify/internal/common"
)

var _ Accounts = (*AppwriteAccounts)(nil)

var errMissingSecret = errors.New("appwrite did not return a session secret; an API key is required")

// AppwriteAccounts authenticates against the Appwrite account API. Sign up and
// sign in use the API key; everything else acts with the user's session.
type AppwriteAccounts struct {
	client *appwrite.Client
}

func NewAppwriteAccounts(client *appwrite.Client) *AppwriteAccounts {
	return &AppwriteAccounts{client: client}
}

func (a *AppwriteAccounts) CreateAccount(ctx context.Context, name, email, password string) (*Profile, error) {
	defer common.TrackCall("appwrite", "create_account")()

	acc := a.client.Account()
	user, err := acc.Create(id.Unique(), email, password, acc.WithCreateName(name))
	if err != nil {
		switch {
		case appwrite.IsConflict(err):
			return nil, ErrDuplicateEmail
		default:
			return nil, err
		}
	}

	return toProfile(user)
}

func (a *AppwriteAccounts) CreateSession(ctx context.Context, email, password string) (string, error) {
	defer common.TrackCall("appwrite", "create_session")()

	session, err := a.client.Account().CreateEmailPasswordSession(email, password)
	if err != nil {
		switch {
		case appwrite.IsUnauthorized(err):
			return "", ErrInvalidCredentials
		default:
			return "", err
		}
	}

	if session.Secret == "" {
		return "", errMissingSecret
	}

	return session.Secret, nil
}

func (a *AppwriteAccounts) GetCurrentUser(ctx context.Context, secret string) (*Profile, error) {
	defer common.TrackCall("appwrite", "get_current_user")()

	user, err := a.client.SessionAccount(secret).Get()
	if err != nil {
		switch {
		case appwrite.IsUnauthorized(err):
			return nil, ErrNoSession
		default:
			return nil, err
		}
	}

	return toProfile(user)
}

func (a *AppwriteAccounts) DeleteSession(ctx context.Context, secret string) error {
	defer common.TrackCall("appwrite", "delete_session")()

	_, err := a.client.SessionAccount(secret).DeleteSession("current")
	if appwrite.IsUnauthorized(err) || appwrite.IsNotFound(err) {
		return ErrNoSession
	}

	return err
}

type appwriteUser struct {
	Prefs struct {
		ProfilePicture string `json:"profilePicture"`
	} `json:"prefs"`
}

func toProfile(user *models.User) (*Profile, error) {
	var raw appwriteUser
	if err := user.Decode(&raw); err != nil {
		return nil, fmt.Errorf("could not decode appwrite user: %w", err)
	}

	return &Profile{
		ID:             user.Id,
		Name:           user.Name,
		Email:          user.Email,
		ProfilePicture: raw.Prefs.ProfilePicture,
	}, nil
}
