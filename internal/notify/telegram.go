package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram sends messages and receives commands through the Bot API.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	logger *zap.Logger
}

// NewTelegram authenticates the bot token.
func NewTelegram(token string, logger *zap.Logger) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Telegram{bot: bot, logger: logger}, nil
}

// Username returns the bot's username.
func (t *Telegram) Username() string {
	return t.bot.Self.UserName
}

// Send posts text with HTML parse mode. Link previews are disabled.
func (t *Telegram) Send(ctx context.Context, chatID string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Commands long-polls updates and forwards text messages until ctx is done.
func (t *Telegram) Commands(ctx context.Context) (<-chan Command, error) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.bot.GetUpdatesChan(cfg)

	out := make(chan Command)
	go func() {
		defer close(out)
		defer t.bot.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message == nil {
					continue
				}
				cmd := Command{
					OriginID: strconv.FormatInt(update.Message.Chat.ID, 10),
					Text:     update.Message.Text,
				}
				select {
				case out <- cmd:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	t.logger.Info("telegram listening for commands", zap.String("bot", t.Username()))
	return out, nil
}
