package userservice

import (
	"context"
	"sync"
)

// Store holds the session state of one client. It starts anonymous.
type Store struct {
	mu           sync.Mutex
	session      Session
	bootstrapped bool
}

func NewStore() *Store {
	return &Store{}
}

// Bootstrap resolves the session from secret. Only the first call queries
// users; later calls return the current state. Any failure leaves the store anonymous.
func (s *Store) Bootstrap(ctx context.Context, users CurrentUserGetter, secret string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bootstrapped {
		return s.snapshot()
	}
	s.bootstrapped = true

	if secret == "" || users == nil {
		s.session = Session{}
		return s.snapshot()
	}

	p, err := users.GetCurrentUser(ctx, secret)
	if err != nil || p == nil {
		s.session = Session{}
		return s.snapshot()
	}

	profile := *p
	s.session = Session{Status: true, Profile: &profile}

	return s.snapshot()
}

func (s *Store) Login(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = Session{Status: true, Profile: &p}
}

func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = Session{}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

func (s *Store) Authenticated() bool {
	return s.Snapshot().Status
}

func (s *Store) snapshot() Session {
	if s.session.Profile == nil {
		return Session{Status: s.session.Status}
	}

	profile := *s.session.Profile
	return Session{Status: s.session.Status, Profile: &profile}
}
