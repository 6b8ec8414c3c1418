package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `Available commands:
/login <email> <password> - Sign in
/register <email> <username> <password> - Create an account
/logout - Sign out
/me - Show your account
/dashboard - Your active and upcoming competitions
/competitions - Browse all competitions
/open <number|name> - View a competition
/join [number|name] - Join the open or named competition
/leaderboard - Standings for the open competition
/games - Today's games and your picks
/date <today|tomorrow|yesterday|next|prev|YYYY-MM-DD> - Change the day
/pick <game> <home|away|team> - Pick a winner
/unpick <game> - Remove a pick
/submitpicks - Save your picks
/candidates - Teams or golfers for a fixed roster
/select <number|name> - Add or remove a roster entry
/submitselections - Save your roster
/close - Close the open competition`

// PickemService is the chat-facing workflow behind the bot commands.
type PickemService interface {
	Login(ctx context.Context, chatID int64, email, password string) (string, error)
	Register(ctx context.Context, chatID int64, email, username, password string) (string, error)
	Logout(ctx context.Context, chatID int64) (string, error)
	Me(ctx context.Context, chatID int64) (string, error)
	Dashboard(ctx context.Context, chatID int64) (string, error)
	Competitions(ctx context.Context, chatID int64) (string, error)
	Open(ctx context.Context, chatID int64, arg string) (string, error)
	Detail(ctx context.Context, chatID int64) (string, error)
	Join(ctx context.Context, chatID int64, arg string) (string, error)
	Leaderboard(ctx context.Context, chatID int64) (string, error)
	SetDate(ctx context.Context, chatID int64, arg string) (string, error)
	Games(ctx context.Context, chatID int64) (string, error)
	Pick(ctx context.Context, chatID int64, args string) (string, error)
	Unpick(ctx context.Context, chatID int64, args string) (string, error)
	SubmitPicks(ctx context.Context, chatID int64) (string, error)
	Candidates(ctx context.Context, chatID int64) (string, error)
	Select(ctx context.Context, chatID int64, arg string) (string, error)
	SubmitSelections(ctx context.Context, chatID int64) (string, error)
	Close(ctx context.Context, chatID int64) (string, error)
}

type Handler struct {
	pickemService PickemService
}

func NewHandler(pickemService PickemService) *Handler {
	return &Handler{pickemService: pickemService}
}

func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	chatID := update.Message.Chat.ID
	msg := tgbotapi.NewMessage(chatID, "")
	command := strings.ToLower(update.Message.Command())
	args := strings.TrimSpace(update.Message.CommandArguments())
	msg.ParseMode = "Markdown"

	s := h.pickemService
	switch command {
	case "start":
		msg.Text = "Welcome to Pick'em! Use /login or /register to get started, then /help to see available commands."
	case "help":
		msg.Text = helpText
	case "login":
		h.handleLogin(ctx, &msg, chatID, args)
	case "register":
		h.handleRegister(ctx, &msg, chatID, args)
	case "logout":
		reply(&msg, "signing out", func() (string, error) { return s.Logout(ctx, chatID) })
	case "me":
		reply(&msg, "fetching account", func() (string, error) { return s.Me(ctx, chatID) })
	case "dashboard":
		reply(&msg, "fetching dashboard", func() (string, error) { return s.Dashboard(ctx, chatID) })
	case "competitions":
		reply(&msg, "fetching competitions", func() (string, error) { return s.Competitions(ctx, chatID) })
	case "open":
		if args == "" {
			reply(&msg, "fetching competition", func() (string, error) { return s.Detail(ctx, chatID) })
		} else {
			reply(&msg, "opening competition", func() (string, error) { return s.Open(ctx, chatID, args) })
		}
	case "join":
		reply(&msg, "joining competition", func() (string, error) { return s.Join(ctx, chatID, args) })
	case "leaderboard":
		reply(&msg, "fetching leaderboard", func() (string, error) { return s.Leaderboard(ctx, chatID) })
	case "date":
		reply(&msg, "changing date", func() (string, error) { return s.SetDate(ctx, chatID, args) })
	case "games":
		reply(&msg, "fetching games", func() (string, error) { return s.Games(ctx, chatID) })
	case "pick":
		reply(&msg, "making pick", func() (string, error) { return s.Pick(ctx, chatID, args) })
	case "unpick":
		reply(&msg, "removing pick", func() (string, error) { return s.Unpick(ctx, chatID, args) })
	case "submitpicks":
		reply(&msg, "submitting picks", func() (string, error) { return s.SubmitPicks(ctx, chatID) })
	case "candidates":
		reply(&msg, "fetching selections", func() (string, error) { return s.Candidates(ctx, chatID) })
	case "select":
		reply(&msg, "updating selections", func() (string, error) { return s.Select(ctx, chatID, args) })
	case "submitselections":
		reply(&msg, "submitting selections", func() (string, error) { return s.SubmitSelections(ctx, chatID) })
	case "close":
		reply(&msg, "closing competition", func() (string, error) { return s.Close(ctx, chatID) })
	default:
		msg.Text = "Unknown command. Use /help to see available commands."
	}

	return msg
}

func reply(msg *tgbotapi.MessageConfig, action string, render func() (string, error)) {
	text, err := render()
	if err != nil {
		msg.Text = fmt.Sprintf("Error %s: %v", action, err)
		msg.ParseMode = ""
		return
	}
	msg.Text = text
}

func (h *Handler) handleLogin(ctx context.Context, msg *tgbotapi.MessageConfig, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		msg.Text = "Please provide your email and password. Usage: /login <email> <password>"
		return
	}
	reply(msg, "signing in", func() (string, error) {
		return h.pickemService.Login(ctx, chatID, fields[0], fields[1])
	})
}

func (h *Handler) handleRegister(ctx context.Context, msg *tgbotapi.MessageConfig, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		msg.Text = "Please provide an email, username and password. Usage: /register <email> <username> <password>"
		return
	}
	reply(msg, "registering", func() (string, error) {
		return h.pickemService.Register(ctx, chatID, fields[0], fields[1], fields[2])
	})
}

// carriesSecret reports whether the command text includes a password.
func carriesSecret(command string) bool {
	switch strings.ToLower(command) {
	case "login", "register":
		return true
	}
	return false
}
