// Package session owns one chat's sign-in state: the bearer tokens, the signed-in user and
// the operations that change them.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/pickem/internal/models"
)

type TokenStore interface {
	SaveTokens(ctx context.Context, chatID int64, tokens models.Tokens) error
	GetTokens(ctx context.Context, chatID int64) (models.Tokens, bool, error)
	DeleteTokens(ctx context.Context, chatID int64) error
}

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*models.TokenResponse, error)
	Register(ctx context.Context, email, username, password string) (*models.TokenResponse, error)
	Me(ctx context.Context) (*models.User, error)
}

type Session struct {
	mu     sync.RWMutex
	chatID int64
	store  TokenStore
	clock  clockwork.Clock
	auth   AuthAPI
	tokens models.Tokens
	user   *models.User
}

func New(chatID int64, store TokenStore, clock clockwork.Clock) *Session {
	return &Session{chatID: chatID, store: store, clock: clock}
}

// SetAuth wires the backend used for sign-in. The API is usually built on top of the
// session itself, which is why it is not a constructor argument.
func (s *Session) SetAuth(auth AuthAPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
}

// Restore loads tokens saved by an earlier run.
func (s *Session) Restore(ctx context.Context) error {
	tokens, ok, err := s.store.GetTokens(ctx, s.chatID)
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
	return nil
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

func (s *Session) IsAuthenticated() bool {
	return s.AccessToken() != ""
}

func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.signIn(ctx, resp)
}

func (s *Session) Register(ctx context.Context, email, username, password string) error {
	resp, err := s.auth.Register(ctx, email, username, password)
	if err != nil {
		return err
	}
	return s.signIn(ctx, resp)
}

func (s *Session) signIn(ctx context.Context, resp *models.TokenResponse) error {
	tokens := models.Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	if err := s.store.SaveTokens(ctx, s.chatID, tokens); err != nil {
		return err
	}

	user := resp.User
	s.mu.Lock()
	s.tokens = tokens
	s.user = &user
	s.mu.Unlock()

	slog.Info("Signed in", "chat", s.chatID, "username", user.Username)
	return nil
}

func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = models.Tokens{}
	s.user = nil
	s.mu.Unlock()

	return s.store.DeleteTokens(ctx, s.chatID)
}

// CheckAuth confirms a stored token with the backend. An expired token, or one the
// backend rejects, signs the session out.
func (s *Session) CheckAuth(ctx context.Context) error {
	token := s.AccessToken()
	if token == "" {
		return nil
	}

	if s.expired(token) {
		slog.Info("Stored token expired", "chat", s.chatID)
		return s.Logout(ctx)
	}

	user, err := s.auth.Me(ctx)
	if err != nil {
		slog.Warn("Stored token rejected", "chat", s.chatID, "error", err)
		return s.Logout(ctx)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return nil
}

// expired reads the exp claim without verifying the signature; only the backend can do
// that. Tokens that do not parse are left for the backend to judge.
func (s *Session) expired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !s.clock.Now().Before(claims.ExpiresAt.Time)
}
