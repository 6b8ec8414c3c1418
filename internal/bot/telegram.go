package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	handler *Handler
}

func NewTelegramBot(token string, pickemService PickemService) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &TelegramBot{
		bot:     bot,
		handler: NewHandler(pickemService),
	}, nil
}

func (t *TelegramBot) Start(ctx context.Context) error {
	slog.Info("Authorized on account", "username", t.bot.Self.UserName)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			msg := t.handler.HandleCommand(ctx, update)
			t.send(msg)

			if carriesSecret(update.Message.Command()) {
				del := tgbotapi.NewDeleteMessage(update.Message.Chat.ID, update.Message.MessageID)
				if _, err := t.bot.Request(del); err != nil {
					slog.Warn("Error deleting credentials message", "chat", msg.ChatID, "error", err)
				}
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// send retries without Markdown when Telegram rejects the entities, which happens when
// names contain unpaired markers.
func (t *TelegramBot) send(msg tgbotapi.MessageConfig) {
	_, err := t.bot.Send(msg)
	if err == nil {
		return
	}
	if msg.ParseMode != "" {
		msg.ParseMode = ""
		if _, err = t.bot.Send(msg); err == nil {
			return
		}
	}
	slog.Error("Error sending message", "chat", msg.ChatID, "error", err)
}
