package userservice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/blogify/internal/common"
)

func setupTestEnvironment(t *testing.T) (*UserService, *MemoryAccounts, *MockMessageProducer) {
	t.Helper()

	accounts := NewMemoryAccounts()
	mb := new(MockMessageProducer)
	s := NewUserService(accounts, NewMemoryLikeStore(testCache()), mb, testCache(), testLogger())

	return s, accounts, mb
}

func TestRegister(t *testing.T) {
	s, _, mb := setupTestEnvironment(t)
	ctx := context.Background()

	mb.On("Publish", mock.Anything, mock.Anything, common.UserCreatedKey, common.UserExchange).Return(nil).Once()

	login, err := s.Register(ctx, "  Ada Lovelace ", "Ada@Example.com", "password123")
	require.NoError(t, err)
	require.NotNil(t, login.Profile)

	assert.NotEmpty(t, login.Secret)
	assert.Equal(t, "Ada Lovelace", login.Profile.Name)
	assert.Equal(t, "ada@example.com", login.Profile.Email)

	mb.AssertExpectations(t)

	msg := mb.Calls[0].Arguments.Get(1).([]byte)
	var created UserCreatedMessage
	require.NoError(t, json.Unmarshal(msg, &created))
	assert.Equal(t, UserCreatedMessage{Name: "Ada Lovelace", Email: "ada@example.com"}, created)
}

func TestRegisterValidation(t *testing.T) {
	s, _, mb := setupTestEnvironment(t)

	testCases := []struct {
		name     string
		username string
		email    string
		password string
		field    string
	}{
		{name: "missing name", username: "", email: "ada@example.com", password: "password123", field: "name"},
		{name: "bad email", username: "Ada", email: "ada", password: "password123", field: "email"},
		{name: "short password", username: "Ada", email: "ada@example.com", password: "short", field: "password"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tc.username, tc.email, tc.password)

			var verr common.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Errors, tc.field)
		})
	}

	mb.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s, _, mb := setupTestEnvironment(t)
	ctx := context.Background()

	mb.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := s.Register(ctx, "Ada", "ada@example.com", "password123")
	require.NoError(t, err)

	_, err = s.Register(ctx, "Ada Again", "ada@example.com", "password456")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	mb.AssertNumberOfCalls(t, "Publish", 1)
}

func TestRegisterPublishFailureDoesNotFail(t *testing.T) {
	s, _, mb := setupTestEnvironment(t)

	mb.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	login, err := s.Register(context.Background(), "Ada", "ada@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, login.Secret)
}

func TestRegisterWithoutBroker(t *testing.T) {
	s := NewUserService(NewMemoryAccounts(), NewMemoryLikeStore(testCache()), nil, testCache(), testLogger())

	login, err := s.Register(context.Background(), "Ada", "ada@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, login.Secret)
}

func TestLogin(t *testing.T) {
	s, accounts, _ := setupTestEnvironment(t)
	ctx := context.Background()

	_, err := accounts.CreateAccount(ctx, "Ada", "ada@example.com", "password123")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		email    string
		password string
		err      error
	}{
		{name: "valid", email: "ada@example.com", password: "password123"},
		{name: "email case", email: "ADA@example.com", password: "password123"},
		{name: "wrong password", email: "ada@example.com", password: "password124", err: ErrInvalidCredentials},
		{name: "unknown email", email: "bob@example.com", password: "password123", err: ErrInvalidCredentials},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			login, err := s.Login(ctx, tc.email, tc.password)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.Nil(t, login)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, login.Secret)
			assert.Equal(t, "Ada", login.Profile.Name)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	s, accounts, _ := setupTestEnvironment(t)
	ctx := context.Background()

	_, err := accounts.CreateAccount(ctx, "Ada", "ada@example.com", "password123")
	require.NoError(t, err)

	login, err := s.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)

	store := s.Authenticate(ctx, login.Secret)
	snap := store.Snapshot()
	assert.True(t, snap.Status)
	assert.Equal(t, "ada@example.com", snap.Profile.Email)

	anon := s.Authenticate(ctx, "")
	assert.Equal(t, Session{}, anon.Snapshot())

	bogus := s.Authenticate(ctx, "not-a-session")
	assert.Equal(t, Session{}, bogus.Snapshot())
}

func TestAuthenticateUsesCache(t *testing.T) {
	accounts := new(MockAccounts)
	s := NewUserService(accounts, NewMemoryLikeStore(testCache()), nil, testCache(), testLogger())

	accounts.On("GetCurrentUser", mock.Anything, "secret").Return(&Profile{ID: "u1"}, nil).Once()

	assert.True(t, s.Authenticate(context.Background(), "secret").Authenticated())
	assert.True(t, s.Authenticate(context.Background(), "secret").Authenticated())

	accounts.AssertNumberOfCalls(t, "GetCurrentUser", 1)
}

func TestLogout(t *testing.T) {
	s, accounts, _ := setupTestEnvironment(t)
	ctx := context.Background()

	_, err := accounts.CreateAccount(ctx, "Ada", "ada@example.com", "password123")
	require.NoError(t, err)

	login, err := s.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)

	store := s.Authenticate(ctx, login.Secret)
	require.True(t, store.Authenticated())

	client := ClientKey(login.Secret)
	_, err = s.ToggleLike(ctx, client, "post-1")
	require.NoError(t, err)

	err = s.Logout(ctx, store, login.Secret)
	require.NoError(t, err)

	assert.Equal(t, NewStore().Snapshot(), store.Snapshot())

	liked, err := s.LikedPosts(ctx, client)
	require.NoError(t, err)
	assert.Empty(t, liked)

	assert.False(t, s.Authenticate(ctx, login.Secret).Authenticated())

	err = s.Logout(ctx, NewStore(), login.Secret)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLogoutFailureKeepsState(t *testing.T) {
	accounts := new(MockAccounts)
	s := NewUserService(accounts, NewMemoryLikeStore(testCache()), nil, testCache(), testLogger())

	accounts.On("DeleteSession", mock.Anything, "secret").Return(errors.New("network down")).Once()

	store := NewStore()
	store.Login(Profile{ID: "u1"})

	err := s.Logout(context.Background(), store, "secret")
	assert.Error(t, err)
	assert.True(t, store.Authenticated())

	err = s.Logout(context.Background(), store, "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestToggleLike(t *testing.T) {
	s, _, _ := setupTestEnvironment(t)
	ctx := context.Background()

	liked, err := s.ToggleLike(ctx, "client", "post-1")
	require.NoError(t, err)
	assert.True(t, liked)

	_, err = s.ToggleLike(ctx, "client", "post-2")
	require.NoError(t, err)

	ids, err := s.LikedPosts(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, []string{"post-1", "post-2"}, ids)

	liked, err = s.ToggleLike(ctx, "client", "post-1")
	require.NoError(t, err)
	assert.False(t, liked)

	ids, err = s.LikedPosts(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, []string{"post-2"}, ids)

	ids, err = s.LikedPosts(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, []string{}, ids)

	_, err = s.ToggleLike(ctx, "client", "")
	var verr common.ValidationError
	assert.ErrorAs(t, err, &verr)
}
