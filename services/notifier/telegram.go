package notifier

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"knaito/fleapriceworker/logger"
)

// TelegramNotifier sends batch summaries to a Telegram chat
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *logger.Logger
}

// NewTelegramNotifier creates a notifier for the given bot token and chat
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		log:    logger.ForNotifier(),
	}, nil
}

// NotifyBatch sends a batch summary message
func (t *TelegramNotifier) NotifyBatch(message string) error {
	msg := tgbotapi.NewMessage(t.chatID, message)
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Error().Err(err).Msg("Failed to send telegram notification")
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}
