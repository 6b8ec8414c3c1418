package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	calls []string
	err   error
}

func (f *fakeService) record(chatID int64, name string, args ...string) (string, error) {
	call := fmt.Sprintf("%d:%s", chatID, name)
	if len(args) > 0 {
		call += "(" + strings.Join(args, ",") + ")"
	}
	f.calls = append(f.calls, call)
	if f.err != nil {
		return "", f.err
	}
	return "ok " + name, nil
}

func (f *fakeService) Login(ctx context.Context, chatID int64, email, password string) (string, error) {
	return f.record(chatID, "login", email, password)
}

func (f *fakeService) Register(ctx context.Context, chatID int64, email, username, password string) (string, error) {
	return f.record(chatID, "register", email, username, password)
}

func (f *fakeService) Logout(ctx context.Context, chatID int64) (string, error) {
	return f.record(chatID, "logout")
}

func (f *fakeService) Me(ctx context.Context, chatID int64) (string, error) {
	return f.record(chatID, "me")
}

func (f *fakeService) Dashboard(ctx context.Context, chatID int64) (string, error) {
	return f.record(chatID, "dashboard")
}

func (f *fakeService) Competitions(ctx context.Context, chatID int64) (string, error) {
	return f.record(chatID, "competitions")
}

func (f *fakeService) Open(ctx context.Context, chatID int64, arg string) (string, error) {
	return f.record(chatID, "open", arg)
}

func (f *fakeService) Detail(ctx context.Context, chatID int64) (string, error) {
	return f.record(chatID, "detail")
}

func (f *fakeService) Join(ctx context.Context, chatID int64, arg string) (string, error) {
	return f.record(chatID, "join", arg)
}

func (f *fakeService) Leaderboard(ctx context.Context, chatID int64) (string, error) {
	return f.record(chatID, "leaderboard")
}

func (f *fakeService) SetDate(ctx context.Context, chatID int64, arg string) (string, error) {
	return f.record(chatID, "date", arg)
}

func (f *fakeService) Games(ctx context.Context, chatID int64) (string, error) {
	return f.record(chatID, "games")
}

func (f *fakeService) Pick(ctx context.Context, chatID int64, args string) (string, error) {
	return f.record(chatID, "pick", args)
}

func (f *fakeService) Unpick(ctx context.Context, chatID int64, args string) (string, error) {
	return f.record(chatID, "unpick", args)
}

func (f *fakeService) SubmitPicks(ctx context.Context, chatID int64) (string, error) {
	return f.record(chatID, "submitpicks")
}

func (f *fakeService) Candidates(ctx context.Context, chatID int64) (string, error) {
	return f.record(chatID, "candidates")
}

func (f *fakeService) Select(ctx context.Context, chatID int64, arg string) (string, error) {
	return f.record(chatID, "select", arg)
}

func (f *fakeService) SubmitSelections(ctx context.Context, chatID int64) (string, error) {
	return f.record(chatID, "submitselections")
}

func (f *fakeService) Close(ctx context.Context, chatID int64) (string, error) {
	return f.record(chatID, "close")
}

func command(text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: 42},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
		},
	}
}

func TestHandleCommandRouting(t *testing.T) {
	tests := []struct {
		text string
		call string
	}{
		{"/login omar@example.com hunter22", "42:login(omar@example.com,hunter22)"},
		{"/register omar@example.com omar hunter22", "42:register(omar@example.com,omar,hunter22)"},
		{"/logout", "42:logout"},
		{"/me", "42:me"},
		{"/dashboard", "42:dashboard"},
		{"/competitions", "42:competitions"},
		{"/open 2", "42:open(2)"},
		{"/open March Madness", "42:open(March Madness)"},
		{"/open", "42:detail"},
		{"/join", "42:join()"},
		{"/join 3", "42:join(3)"},
		{"/leaderboard", "42:leaderboard"},
		{"/date tomorrow", "42:date(tomorrow)"},
		{"/games", "42:games"},
		{"/pick 1 home", "42:pick(1 home)"},
		{"/unpick 1", "42:unpick(1)"},
		{"/submitpicks", "42:submitpicks"},
		{"/candidates", "42:candidates"},
		{"/select Lakers", "42:select(Lakers)"},
		{"/submitselections", "42:submitselections"},
		{"/close", "42:close"},
		{"/GAMES", "42:games"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			svc := &fakeService{}
			msg := NewHandler(svc).HandleCommand(context.Background(), command(tt.text))

			require.Equal(t, []string{tt.call}, svc.calls)
			assert.Equal(t, int64(42), msg.ChatID)
			assert.Equal(t, "Markdown", msg.ParseMode)
			assert.True(t, strings.HasPrefix(msg.Text, "ok "), msg.Text)
		})
	}
}

func TestHandleCommandUsage(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc)

	msg := h.HandleCommand(context.Background(), command("/login omar@example.com"))
	assert.Contains(t, msg.Text, "Usage: /login <email> <password>")

	msg = h.HandleCommand(context.Background(), command("/register a b"))
	assert.Contains(t, msg.Text, "Usage: /register")

	msg = h.HandleCommand(context.Background(), command("/help"))
	assert.Contains(t, msg.Text, "/submitpicks - Save your picks")

	msg = h.HandleCommand(context.Background(), command("/whohas"))
	assert.Equal(t, "Unknown command. Use /help to see available commands.", msg.Text)

	assert.Empty(t, svc.calls)
}

func TestHandleCommandError(t *testing.T) {
	svc := &fakeService{err: errors.New("fetching games: connection refused")}

	msg := NewHandler(svc).HandleCommand(context.Background(), command("/games"))
	assert.Equal(t, "Error fetching games: fetching games: connection refused", msg.Text)
	assert.Empty(t, msg.ParseMode)
}

func TestCarriesSecret(t *testing.T) {
	assert.True(t, carriesSecret("login"))
	assert.True(t, carriesSecret("Register"))
	assert.False(t, carriesSecret("games"))
}
