package bot

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RunTelegram connects to the Bot API with the given token and feeds
// incoming messages to the handler until the updates channel closes.
// A single goroutine consumes the channel, so catalog operations stay
// serialized.
func RunTelegram(token string, h *Handler, logger *slog.Logger) error {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("connect to bot api: %w", err)
	}
	logger.Info("bot authorized", "username", api.Self.UserName)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30

	for update := range api.GetUpdatesChan(cfg) {
		msg := update.Message
		if msg == nil || msg.From == nil {
			continue
		}

		var reply string
		if msg.IsCommand() {
			reply = h.HandleCommand(msg.From.ID, msg.Command())
		} else {
			reply = h.HandleMessage(msg.From.ID, msg.Text)
		}

		if _, err := api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
			logger.Error("send reply", "chat", msg.Chat.ID, "err", err)
		}
	}
	return nil
}
