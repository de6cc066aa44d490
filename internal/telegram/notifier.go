// Package telegram posts operator notifications to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"time"

	"civiceye/backend/internal/localization"
	"civiceye/backend/internal/models"

	"github.com/avast/retry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	sendAttempts = 3
	sendDelay    = 500 * time.Millisecond
)

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type BotNotifier struct {
	sender    Sender
	chatID    int64
	lang      string
	localizer *localization.Localizer
	logger    *zap.Logger
	delay     time.Duration
}

// NewBotNotifier authorizes the bot token and posts to chatID.
func NewBotNotifier(token string, chatID int64, lang string, l *localization.Localizer, logger *zap.Logger) (*BotNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	bot.Debug = false
	logger.Info("Telegram bot authorized", zap.String("account", bot.Self.UserName))
	return NewNotifier(bot, chatID, lang, l, logger), nil
}

func NewNotifier(sender Sender, chatID int64, lang string, l *localization.Localizer, logger *zap.Logger) *BotNotifier {
	return &BotNotifier{
		sender:    sender,
		chatID:    chatID,
		lang:      lang,
		localizer: l,
		logger:    logger,
		delay:     sendDelay,
	}
}

func (n *BotNotifier) ComplaintSubmitted(ctx context.Context, c *models.Complaint) error {
	text := n.localizer.Format(n.lang, "complaint_submitted",
		n.localizer.GetString(n.lang, "type."+string(c.Type)),
		c.TrackingID,
		c.Category,
		n.localizer.GetString(n.lang, "priority."+string(c.Priority)),
		c.CredibilityScore,
		c.LocationAddress,
		c.Title,
	)
	return n.send(ctx, text)
}

func (n *BotNotifier) StatusChanged(ctx context.Context, c *models.Complaint, from models.Status) error {
	text := n.localizer.Format(n.lang, "status_changed",
		c.TrackingID,
		n.localizer.GetString(n.lang, "status."+string(from)),
		n.localizer.GetString(n.lang, "status."+string(c.Status)),
	)
	if c.Status == models.StatusResolved && c.Resolution != nil {
		text += "\n" + n.localizer.Format(n.lang, "status_resolution", *c.Resolution)
	}
	return n.send(ctx, text)
}

func (n *BotNotifier) send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true

	return retry.Do(
		func() error {
			_, err := n.sender.Send(msg)
			return err
		},
		retry.Attempts(sendAttempts),
		retry.Delay(n.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(error) bool { return ctx.Err() == nil }),
		retry.OnRetry(func(attempt uint, err error) {
			n.logger.Warn("Telegram send failed, retrying", zap.Uint("attempt", attempt+1), zap.Error(err))
		}),
	)
}

// Nop is used when no bot token is configured.
type Nop struct{}

func (Nop) ComplaintSubmitted(context.Context, *models.Complaint) error { return nil }

func (Nop) StatusChanged(context.Context, *models.Complaint, models.Status) error { return nil }
