package userservice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Accounts = (*MemoryAccounts)(nil)

type memoryUser struct {
	profile Profile
	pwd     password
}

type memorySession struct {
	userID string
	expiry time.Time
}

// MemoryAccounts keeps accounts in process memory.
type MemoryAccounts struct {
	mu       sync.RWMutex
	users    map[string]*memoryUser
	byEmail  map[string]string
	sessions map[string]memorySession
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{
		users:    make(map[string]*memoryUser),
		byEmail:  make(map[string]string),
		sessions: make(map[string]memorySession),
		ttl:      SessionTTL,
		now:      time.Now,
	}
}

func (m *MemoryAccounts) CreateAccount(ctx context.Context, name, email, pwd string) (*Profile, error) {
	var p password
	if err := p.set(pwd); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	u := &memoryUser{
		profile: Profile{ID: uuid.NewString(), Name: name, Email: email},
		pwd:     p,
	}
	m.users[u.profile.ID] = u
	m.byEmail[email] = u.profile.ID

	profile := u.profile
	return &profile, nil
}

func (m *MemoryAccounts) CreateSession(ctx context.Context, email, pwd string) (string, error) {
	m.mu.RLock()
	id, exists := m.byEmail[email]
	var u *memoryUser
	if exists {
		u = m.users[id]
	}
	m.mu.RUnlock()

	if u == nil {
		return "", ErrInvalidCredentials
	}

	ok, err := u.pwd.compare(pwd)
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

	m.mu.Lock()
	m.sessions[ClientKey(secret)] = memorySession{userID: id, expiry: m.now().Add(m.ttl)}
	m.mu.Unlock()

	return secret, nil
}

func (m *MemoryAccounts) GetCurrentUser(ctx context.Context, secret string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[ClientKey(secret)]
	if !exists || !s.expiry.After(m.now()) {
		return nil, ErrNoSession
	}

	u, exists := m.users[s.userID]
	if !exists {
		return nil, ErrNoSession
	}

	profile := u.profile
	return &profile, nil
}

func (m *MemoryAccounts) DeleteSession(ctx context.Context, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ClientKey(secret)
	if _, exists := m.sessions[key]; !exists {
		return ErrNoSession
	}
	delete(m.sessions, key)

	return nil
}
