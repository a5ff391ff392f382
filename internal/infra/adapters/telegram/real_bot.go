package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"paypal-relay/internal/config"
	"paypal-relay/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*BotNotifier)(nil)

// sender is the part of *tgbotapi.BotAPI used here.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotNotifier posts operator messages to a single Telegram chat.
type BotNotifier struct {
	bot    sender
	chatID int64
}

// NewBotNotifier authenticates the bot token against Telegram.
func NewBotNotifier(cfg config.TelegramConfig) (*BotNotifier, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return &BotNotifier{bot: bot, chatID: cfg.ChatID}, nil
}

func (n *BotNotifier) Notify(ctx context.Context, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true
	_, err := n.bot.Send(msg)
	return err
}
