package userservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/sushihentaime/blogify/internal/common"
)

// NewUserService wires the account backend and like store. mb may be nil, in
// which case no welcome message is published.
func NewUserService(accounts Accounts, likes LikeStore, mb common.MessageProducer, c *common.Cache, logger *slog.Logger) *UserService {
	return &UserService{
		accounts: accounts,
		likes:    likes,
		mb:       mb,
		c:        c,
		logger:   logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account, publishes user.created and signs the new user in.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*Login, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	v := common.NewValidator()
	validateName(v, name)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	profile, err := s.accounts.CreateAccount(ctx, name, email, password)
	if err != nil {
		return nil, err
	}

	s.publishUserCreated(ctx, profile)

	return s.Login(ctx, email, password)
}

func (s *UserService) publishUserCreated(ctx context.Context, profile *Profile) {
	if s.mb == nil {
		return
	}

	data, err := json.Marshal(UserCreatedMessage{Name: profile.Name, Email: profile.Email})
	if err != nil {
		s.logger.Error("failed to marshal user.created message", slog.String("error", err.Error()))
		return
	}

	err = s.mb.Publish(ctx, data, common.UserCreatedKey, common.UserExchange)
	if err != nil {
		s.logger.Error("failed to publish user.created message", slog.String("email", profile.Email), slog.String("error", err.Error()))
	}
}

// Login opens a session and returns its secret with the signed in profile.
func (s *UserService) Login(ctx context.Context, email, password string) (*Login, error) {
	email = normalizeEmail(email)

	v := common.NewValidator()
	validateEmail(v, email)
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	secret, err := s.accounts.CreateSession(ctx, email, password)
	if err != nil {
		return nil, err
	}

	profile, err := s.accounts.GetCurrentUser(ctx, secret)
	if err != nil {
		return nil, err
	}

	return &Login{Secret: secret, Profile: profile}, nil
}

// Logout deletes the session first. If that fails nothing else changes.
func (s *UserService) Logout(ctx context.Context, store *Store, secret string) error {
	v := common.NewValidator()
	validateSecret(v, secret)
	if !v.Valid() {
		return ErrNoSession
	}

	if err := s.accounts.DeleteSession(ctx, secret); err != nil {
		return err
	}

	client := ClientKey(secret)
	if s.likes != nil {
		if err := s.likes.Clear(ctx, client); err != nil {
			s.logger.Error("failed to clear liked posts", slog.String("error", err.Error()))
		}
	}
	s.c.Delete(common.CacheKeySession(client))

	store.Logout()

	return nil
}

// Authenticate returns a store bootstrapped from secret.
func (s *UserService) Authenticate(ctx context.Context, secret string) *Store {
	store := NewStore()
	store.Bootstrap(ctx, cachedUsers{s}, secret)
	return store
}

// cachedUsers serves GetCurrentUser from the session cache when possible.
type cachedUsers struct {
	s *UserService
}

func (u cachedUsers) GetCurrentUser(ctx context.Context, secret string) (*Profile, error) {
	key := common.CacheKeySession(ClientKey(secret))

	if v, found := u.s.c.Get(key); found {
		if p, ok := v.(Profile); ok {
			return &p, nil
		}
	}

	p, err := u.s.accounts.GetCurrentUser(ctx, secret)
	if err != nil {
		return nil, err
	}

	u.s.c.Set(key, *p, sessionCacheTTL)

	return p, nil
}

// ToggleLike flips the like state of postID for client and returns the new state.
func (s *UserService) ToggleLike(ctx context.Context, client, postID string) (bool, error) {
	v := common.NewValidator()
	v.Check(client != "", "client", "must be provided")
	validatePostID(v, postID)
	if !v.Valid() {
		return false, v.ValidationError()
	}

	liked, err := s.likes.Has(ctx, client, postID)
	if err != nil {
		return false, err
	}

	if liked {
		return false, s.likes.Remove(ctx, client, postID)
	}

	return true, s.likes.Add(ctx, client, postID)
}

func (s *UserService) LikedPosts(ctx context.Context, client string) ([]string, error) {
	if client == "" {
		return []string{}, nil
	}

	ids, err := s.likes.List(ctx, client)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}

	return ids, nil
}
