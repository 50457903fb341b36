// Package telegram delivers notifications over the Telegram Bot API.
// Account ids double as chat ids: the provisioning bot's users are Telegram
// users.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notifier struct {
	bot *tgbotapi.BotAPI
}

func New(token string) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	return &Notifier{bot: bot}, nil
}

func (n *Notifier) Notify(ctx context.Context, accountID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(accountID, text)

	_, err := n.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("send telegram message to %d: %w", accountID, err)
	}

	return nil
}
