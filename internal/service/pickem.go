package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/pickem/internal/api/backend"
	"github.com/omarshaarawi/pickem/internal/cache"
	"github.com/omarshaarawi/pickem/internal/scheduler"
	"github.com/omarshaarawi/pickem/internal/session"
	"github.com/omarshaarawi/pickem/internal/workflow"
)

const signInPrompt = "🔐 Please /login or /register first."

// Watcher polls an open competition view in the background.
type Watcher interface {
	Watch(tag string, r scheduler.Refresher) error
	Unwatch(tag string)
}

type chat struct {
	mu           sync.Mutex
	session      *session.Session
	api          *backend.API
	cache        *cache.Cache
	view         *workflow.Controller
	competitions []uuid.UUID
}

// PickemService renders the pick'em workflow as chat messages, one signed-in session and
// at most one open competition per chat.
type PickemService struct {
	client  *backend.Client
	store   session.TokenStore
	watcher Watcher
	clock   clockwork.Clock
	loc     *time.Location

	mu    sync.Mutex
	chats map[int64]*chat
}

func NewPickemService(client *backend.Client, store session.TokenStore, watcher Watcher, clock clockwork.Clock, loc *time.Location) *PickemService {
	if loc == nil {
		loc = time.UTC
	}
	return &PickemService{
		client:  client,
		store:   store,
		watcher: watcher,
		clock:   clock,
		loc:     loc,
		chats:   make(map[int64]*chat),
	}
}

// chat returns the state for chatID, restoring and validating a saved session the first
// time the chat is seen.
func (s *PickemService) chat(ctx context.Context, chatID int64) *chat {
	s.mu.Lock()
	c, ok := s.chats[chatID]
	if !ok {
		sess := session.New(chatID, s.store, s.clock)
		api := backend.NewAPI(s.client, sess)
		sess.SetAuth(api)
		c = &chat{session: sess, api: api, cache: cache.New(s.clock)}
		s.chats[chatID] = c
	}
	s.mu.Unlock()

	if !ok {
		if err := c.session.Restore(ctx); err != nil {
			slog.Error("Failed to restore session", "chat", chatID, "error", err)
		} else if err := c.session.CheckAuth(ctx); err != nil {
			slog.Error("Failed to check session", "chat", chatID, "error", err)
		}
	}
	return c
}

func tag(chatID int64) string {
	return fmt.Sprintf("chat-%d", chatID)
}

func (s *PickemService) Login(ctx context.Context, chatID int64, email, password string) (string, error) {
	c := s.chat(ctx, chatID)
	if err := c.session.Login(ctx, email, password); err != nil {
		return "❌ " + backend.DetailOr(err, "Login failed. Please try again."), nil
	}
	c.cache.Purge()
	return fmt.Sprintf("👋 Welcome back, *%s*! Use /dashboard to see your competitions.", c.session.User().Username), nil
}

func (s *PickemService) Register(ctx context.Context, chatID int64, email, username, password string) (string, error) {
	c := s.chat(ctx, chatID)
	if err := c.session.Register(ctx, email, username, password); err != nil {
		return "❌ " + backend.DetailOr(err, "Registration failed. Please try again."), nil
	}
	c.cache.Purge()
	return fmt.Sprintf("🎉 Welcome, *%s*! Use /competitions to find one to join.", c.session.User().Username), nil
}

func (s *PickemService) Logout(ctx context.Context, chatID int64) (string, error) {
	c := s.chat(ctx, chatID)
	s.closeView(chatID, c)
	c.cache.Purge()
	if err := c.session.Logout(ctx); err != nil {
		return "", fmt.Errorf("error signing out: %w", err)
	}
	return "👋 Signed out.", nil
}

func (s *PickemService) Me(ctx context.Context, chatID int64) (string, error) {
	c := s.chat(ctx, chatID)
	if !c.session.IsAuthenticated() {
		return signInPrompt, nil
	}
	if err := c.session.CheckAuth(ctx); err != nil {
		return "", fmt.Errorf("error checking session: %w", err)
	}
	user := c.session.User()
	if user == nil {
		return signInPrompt, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 *%s*\n", user.Username))
	sb.WriteString(fmt.Sprintf("Email: %s\n", user.Email))
	if user.Role != "" {
		sb.WriteString(fmt.Sprintf("Role: %s\n", titleCase(user.Role)))
	}
	return sb.String(), nil
}

// Close closes the chat's open competition, stopping its background refresh.
func (s *PickemService) Close(ctx context.Context, chatID int64) (string, error) {
	c := s.chat(ctx, chatID)
	if !s.closeView(chatID, c) {
		return "No competition is open.", nil
	}
	return "Closed the competition view.", nil
}

func (s *PickemService) closeView(chatID int64, c *chat) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view == nil {
		return false
	}
	s.watcher.Unwatch(tag(chatID))
	c.view.Close()
	c.view = nil
	return true
}

// Shutdown closes every open view.
func (s *PickemService) Shutdown() {
	s.mu.Lock()
	chats := make(map[int64]*chat, len(s.chats))
	for id, c := range s.chats {
		chats[id] = c
	}
	s.mu.Unlock()

	for id, c := range chats {
		s.closeView(id, c)
	}
}
