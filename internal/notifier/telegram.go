package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"OISentinel/internal/model"
)

// messageSender is the part of tgbotapi.BotAPI the notifier needs.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers alerts to a group chat or a private chat and
// echoes each message to Echo before delivery.
type TelegramNotifier struct {
	GroupChatID   int64
	PrivateChatID int64
	MaxRetries    int
	Echo          io.Writer

	bot    messageSender
	newBO  func() backoff.BackOff
	logger zerolog.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken string, groupChatID, privateChatID int64, proxyURL string, maxRetries int) (*TelegramNotifier, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return newTelegramNotifier(bot, groupChatID, privateChatID, maxRetries), nil
}

func newTelegramNotifier(bot messageSender, groupChatID, privateChatID int64, maxRetries int) *TelegramNotifier {
	return &TelegramNotifier{
		GroupChatID:   groupChatID,
		PrivateChatID: privateChatID,
		MaxRetries:    maxRetries,
		Echo:          os.Stdout,
		bot:           bot,
		newBO: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
		logger: log.With().Str("component", "telegram").Logger(),
	}
}

func (t *TelegramNotifier) chatID(audience model.Audience) (int64, error) {
	switch audience {
	case model.AudienceBroadcast:
		return t.GroupChatID, nil
	case model.AudiencePrivate:
		return t.PrivateChatID, nil
	default:
		return 0, fmt.Errorf("unknown audience %q", audience)
	}
}

// Send delivers text once without retry.
func (t *TelegramNotifier) Send(audience model.Audience, text string) error {
	chatID, err := t.chatID(audience)
	if err != nil {
		return err
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Notify echoes text and delivers it with exponential backoff. Telegram
// client errors (4xx) are not retried.
func (t *TelegramNotifier) Notify(ctx context.Context, audience model.Audience, text string) error {
	if t.Echo != nil {
		fmt.Fprintln(t.Echo, text)
	}

	attempt := 0
	op := func() error {
		attempt++
		err := t.Send(audience, text)
		if err == nil {
			return nil
		}
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		t.logger.Warn().Err(err).Int("attempt", attempt).Str("audience", string(audience)).Msg("telegram send failed")
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(t.newBO(), uint64(max(t.MaxRetries, 0))), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return fmt.Errorf("deliver to %s after %d attempt(s): %w", audience, attempt, err)
	}
	return nil
}
