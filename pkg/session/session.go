// Package session owns the authentication token: read from durable storage on
// start, replaced on sign-in and removed on sign-out.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mikeboe/lab-dashboard/pkg/storage"
)

// TokenKey is the storage key of the bearer token.
const TokenKey = "token"

// Claims is what the dashboard reads from the backend's token. The signature
// is not checked here; the backend verifies it on every request.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

type Session struct {
	store  storage.Store
	logger *slog.Logger

	mu    sync.RWMutex
	token string
}

func New(store storage.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{store: store, logger: logger}
}

// Init loads the persisted token. A missing token is a signed-out session.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.store.Get(ctx, TokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		token = ""
	} else if err != nil {
		return fmt.Errorf("failed to load session token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Token returns the current bearer token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) SignedIn() bool {
	return s.Token() != ""
}

func (s *Session) SignIn(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("empty session token")
	}
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// SignOut forgets the token in memory first, so a storage failure still
// leaves this process signed out.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err := s.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to remove session token: %w", err)
	}
	return nil
}

// Claims decodes the token payload.
func (s *Session) Claims() (*Claims, error) {
	token := s.Token()
	if token == "" {
		return nil, errors.New("not signed in")
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to decode session token: %w", err)
	}

	c := &Claims{}
	if sub, err := parsed.Claims.GetSubject(); err == nil {
		c.Subject = sub
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Expired reports whether the token carries an expiry before now. Tokens that
// can't be decoded or have no expiry are left for the backend to judge.
func (s *Session) Expired(now time.Time) bool {
	c, err := s.Claims()
	if err != nil || c.ExpiresAt.IsZero() {
		return false
	}
	if now.After(c.ExpiresAt) {
		s.logger.Debug("Session token expired", "subject", c.Subject, "expires_at", c.ExpiresAt)
		return true
	}
	return false
}
