// Package bot runs the Telegram transport: it builds the telebot instance,
// registers middleware and update routes, and forwards every update to the
// dispatch engine.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "abitbot/core/config"
	"abitbot/core/logger"
	"abitbot/core/telegram"
	tghelpers "abitbot/core/telegram/helpers"
	"abitbot/core/telegram/middleware"
	"abitbot/internal/fsm"
	"log/slog"
)

// Engine consumes inbound updates and replies on its own.
type Engine interface {
	Process(ctx context.Context, upd tele.Update) []fsm.SendResult
}

// Options controls Run.
type Options struct {
	Config *coreconfig.Config

	// NewEngine builds the dispatch engine once the bot exists, so the
	// engine's messenger can be backed by the same bot instance.
	NewEngine func(b *tele.Bot) Engine

	DisableWebhookCleanup bool
}

// mediaEndpoints are the non-text update kinds the bot still accepts. They
// all resolve to the main menu downstream, so the user is never left
// without a reply.
var mediaEndpoints = []string{
	tele.OnPhoto,
	tele.OnDocument,
	tele.OnSticker,
	tele.OnVoice,
	tele.OnVideo,
	tele.OnVideoNote,
	tele.OnAudio,
	tele.OnContact,
	tele.OnLocation,
}

// Run composes and runs the bot until the provided context is done.
func Run(ctx context.Context, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("bot: nil config provided")
	}
	if opts.NewEngine == nil {
		return fmt.Errorf("bot: nil engine constructor provided")
	}
	cfg := opts.Config

	poller := telegram.BuildPoller(telegram.PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: telegram.WebhookOptions{
			Listen:      cfg.Webhook.Listen,
			Port:        cfg.Webhook.Port,
			URL:         cfg.Webhook.URL,
			SecretToken: cfg.Webhook.SecretToken,
		},
	})

	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: telegram.BuildHTTPClient(),
	}

	buildStart := time.Now()
	b, err := tele.NewBot(settings)
	if err != nil {
		return fmt.Errorf("bot: initialization failed: %w", err)
	}
	buildTook := time.Since(buildStart)

	switch p := poller.(type) {
	case *tele.Webhook:
		logger.TG.LogAttrs(ctx, slog.LevelInfo, "webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", logger.RoundMS(buildTook)),
		)
	default:
		timeoutSec := 10
		if cfg.Telegram.LongPollTimeoutSeconds > 0 {
			timeoutSec = cfg.Telegram.LongPollTimeoutSeconds
		}
		logger.TG.Info("polling mode",
			slog.String("event", "mode"),
			slog.String("mode", "polling"),
			slog.Int("timeout_seconds", timeoutSec),
			slog.Duration("duration", logger.RoundMS(buildTook)),
		)

		if !opts.DisableWebhookCleanup && cfg.Telegram.RunMode == coreconfig.RunModeLongpoll {
			if err := deleteWebhook(cfg.Telegram.Token); err != nil {
				logger.TG.Warn("failed to delete webhook",
					slog.String("event", "delete_webhook"),
					slog.String("err", err.Error()),
				)
			} else {
				logger.TG.Info("webhook deleted",
					slog.String("event", "delete_webhook"),
				)
			}
		}
	}

	engine := opts.NewEngine(b)

	b.Use(middleware.Recover)
	b.Use(middleware.Logging)

	dispatch := func(c tele.Context) error {
		engine.Process(tghelpers.BuildContext(c), c.Update())
		return nil
	}

	b.Handle(tele.OnText, dispatch)
	for _, endpoint := range mediaEndpoints {
		b.Handle(endpoint, dispatch)
	}

	runDone := make(chan struct{})
	go func() {
		b.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		b.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

// deleteWebhook clears a leftover webhook registration which would otherwise
// make getUpdates return 409.
func deleteWebhook(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("drop_pending_updates=false"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
