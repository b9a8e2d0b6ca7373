// Package session holds the credential pair and cached profile of the
// signed-in user and announces when that session ends.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fraudcheck/cli/internal/models"
)

var (
	// ErrEmptyAccessToken is returned when a pair without an access token is stored
	ErrEmptyAccessToken = errors.New("access token must not be empty")

	// ErrSessionChanged is returned by ReplacePair when the stored refresh
	// token is no longer the one the renewal started from
	ErrSessionChanged = errors.New("session changed during renewal")
)

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is the single source of truth for the current credentials.
// Authentication status is always derived from the stored tokens.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	state   State
	now     func() time.Time
}

// NewStore loads the persisted session from backend
func NewStore(backend Backend, opts ...Option) (*Store, error) {
	state, err := backend.Load()
	if err != nil {
		return nil, err
	}

	// A refresh token is never kept without its access token.
	if state.AccessToken == "" && state.RefreshToken != "" {
		state = State{}
	}

	s := &Store{
		backend: backend,
		state:   state,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessToken returns the stored access token, or "" when signed out
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

// RefreshToken returns the stored refresh token, or "" when none is held
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken
}

// User returns a copy of the cached profile
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

// SetPair replaces both tokens at once and persists them. The cached user
// survives a refresh.
func (s *Store) SetPair(pair models.TokenPair) error {
	if pair.AccessToken == "" {
		return ErrEmptyAccessToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setPairLocked(pair)
}

// ReplacePair stores a renewed pair only while expectedRefresh is still the
// stored refresh token. A logout or a new sign-in in the meantime wins.
func (s *Store) ReplacePair(expectedRefresh string, pair models.TokenPair) error {
	if pair.AccessToken == "" {
		return ErrEmptyAccessToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.AccessToken == "" || s.state.RefreshToken != expectedRefresh {
		return ErrSessionChanged
	}
	return s.setPairLocked(pair)
}

func (s *Store) setPairLocked(pair models.TokenPair) error {
	next := s.state
	next.AccessToken = pair.AccessToken
	next.RefreshToken = pair.RefreshToken
	next.TokenType = pair.TokenType
	next.ExpiresIn = pair.ExpiresIn
	next.IssuedAt = s.now().UTC().Truncate(time.Second)

	if err := s.backend.Save(next); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	s.state = next
	return nil
}

// SetUser caches the profile of the signed-in user
func (s *Store) SetUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.AccessToken == "" {
		return errors.New("cannot cache a profile without credentials")
	}

	next := s.state
	if user != nil {
		u := *user
		next.User = &u
	} else {
		next.User = nil
	}

	if err := s.backend.Save(next); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	s.state = next
	return nil
}

// Clear drops the tokens and the cached profile. Calling it on an empty
// store is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
	return s.backend.Remove()
}

// IsAuthenticated reports whether a non-expired access token is stored
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.AccessToken == "" {
		return false
	}
	exp, ok := expiry(s.state)
	return !ok || s.now().Before(exp)
}

// ExpiresAt returns when the access token expires, if that is known
func (s *Store) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.AccessToken == "" {
		return time.Time{}, false
	}
	return expiry(s.state)
}

// expiry prefers the token's own exp claim over the issued_at + expires_in estimate.
// The signature cannot be checked client side, so the token is parsed unverified.
func expiry(state State) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(state.AccessToken, claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time, true
	}

	if state.ExpiresIn > 0 && !state.IssuedAt.IsZero() {
		return state.IssuedAt.Add(time.Duration(state.ExpiresIn) * time.Second), true
	}
	return time.Time{}, false
}
