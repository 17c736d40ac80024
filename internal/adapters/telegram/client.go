package telegram

import (
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"wsbsentiment/pkg/errors"
	"wsbsentiment/pkg/logger"
)

// Bot is a send-only Telegram client used for run digests
type Bot struct {
	api         *tgbotapi.BotAPI
	log         *logger.Logger
	rateLimiter *rate.Limiter
	maxRetries  int
}

// Config contains Telegram bot configuration
type Config struct {
	Token          string
	Debug          bool
	HTTPTimeout    time.Duration
	RateLimitBurst int // default 30
	RateLimitRate  int // messages per second, default 20
	MaxRetries     int // default 3
}

// NewBot authorizes against the Bot API
func NewBot(cfg Config, log *logger.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "telegram bot token is required")
	}

	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 30
	}
	if cfg.RateLimitRate == 0 {
		cfg.RateLimitRate = 20
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}
	api.Debug = cfg.Debug

	log.Infow("Telegram bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:         api,
		log:         log.Component("telegram_bot"),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRate), cfg.RateLimitBurst),
		maxRetries:  cfg.MaxRetries,
	}, nil
}

// SendMessage sends a Markdown message, retrying with linear backoff
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	var lastErr error

	for attempt := 0; attempt < b.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		lastErr = b.send(ctx, chatID, text)
		if lastErr == nil {
			return nil
		}

		b.log.Warnw("Failed to send message, retrying",
			"attempt", attempt+1,
			"max_retries", b.maxRetries,
			"error", lastErr,
		)
	}

	return errors.Wrapf(lastErr, "failed to send message after %d attempts", b.maxRetries)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) error {
	if err := b.rateLimiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter wait failed")
	}

	start := time.Now()

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		return errors.Wrap(err, "send")
	}

	b.log.Debugw("Message sent",
		"chat_id", chatID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
