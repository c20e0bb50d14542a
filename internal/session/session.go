// Package session keeps the signed-in user and bearer token, persisted so a
// restarted client stays signed in.
package session

import (
	"sync"

	"go.uber.org/zap"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/logging"
)

// Credentials is what a successful sign-in yields.
type Credentials struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Storage persists credentials between runs.
type Storage interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	creds   Credentials
	storage Storage
	subs    map[int]func(authenticated bool)
	nextSub int
	logger  *zap.Logger
}

// New restores the session from storage. Unreadable stored data yields a
// signed-out session.
func New(storage Storage, logger *zap.Logger) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Store{
		storage: storage,
		subs:    make(map[int]func(bool)),
		logger:  logging.OrNop(logger),
	}
	creds, err := storage.Load()
	if err != nil {
		s.logger.Warn("discarding stored session", zap.Error(err))
		return s
	}
	s.creds = creds
	return s
}

// SetCredentials records a signed-in user and persists it.
func (s *Store) SetCredentials(user domain.User, token string) error {
	s.mu.Lock()
	s.creds = Credentials{User: &user, Token: token}
	err := s.storage.Save(s.creds)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(s.IsAuthenticated())
	}
	return err
}

// Logout forgets the credentials and removes the persisted copy.
func (s *Store) Logout() error {
	s.mu.Lock()
	was := s.creds.User != nil || s.creds.Token != ""
	s.creds = Credentials{}
	err := s.storage.Clear()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	if was {
		for _, fn := range subs {
			fn(false)
		}
	}
	return err
}

// IsAuthenticated reports whether both a user and a token are present.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.User != nil && s.creds.Token != ""
}

// Token returns the bearer token, or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Token
}

// User returns the signed-in user.
func (s *Store) User() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds.User == nil {
		return domain.User{}, false
	}
	return *s.creds.User, true
}

// OnChange calls fn with the authentication state after sign-in and sign-out.
func (s *Store) OnChange(fn func(authenticated bool)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) subscribersLocked() []func(bool) {
	out := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}
