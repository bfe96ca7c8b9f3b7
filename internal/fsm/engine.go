package fsm

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	"abitbot/core/logger"
	"abitbot/internal/session"
	"log/slog"
)

// Process handles one inbound update and returns the send results of
// whichever handler ultimately ran. It never returns an error: any failure
// is recovered by the return-to-main-menu handler, and if that recovery
// itself fails the user simply receives no reply this time.
func (e *Engine) Process(ctx context.Context, upd tele.Update) []SendResult {
	results, err := e.dispatch(ctx, upd)
	if err != nil {
		logger.Error(ctx, "fsm", "dispatch.failed",
			slog.Int("update_id", upd.ID),
			slog.String("err", err.Error()),
		)
		results, err = e.runHandler(ctx, upd, route{name: "return_to_main_menu", handler: e.handleReturnToMainMenu})
		if err != nil {
			logger.Error(ctx, "fsm", "dispatch.recovery_failed",
				slog.Int("update_id", upd.ID),
				slog.String("err", err.Error()),
			)
			return []SendResult{}
		}
	}
	return results
}

func (e *Engine) dispatch(ctx context.Context, upd tele.Update) ([]SendResult, error) {
	if err := classify(upd); err != nil {
		return nil, err
	}

	r, err := e.resolve(ctx, upd)
	if err != nil {
		return nil, err
	}
	return e.runHandler(ctx, upd, r)
}

// resolve picks the handler for a text update. Literal text triggers win
// over the current state; anything unmatched goes to the main menu.
func (e *Engine) resolve(ctx context.Context, upd tele.Update) (route, error) {
	menu := route{name: "return_to_main_menu", handler: e.handleReturnToMainMenu}

	userID, err := senderID(upd)
	if err != nil {
		return route{}, err
	}

	info, err := e.stateInfo(ctx, userID)
	if err != nil {
		return route{}, err
	}

	if r, ok := e.textRoutes[upd.Message.Text]; ok {
		if r.validator(info) {
			return r, nil
		}
		return menu, nil
	}

	if info != nil {
		if r, ok := e.stateRoutes[info.State]; ok && r.validator(info) {
			return r, nil
		}
	}
	return menu, nil
}

// stateInfo resolves the user's current state. A record that fails to parse
// is logged and treated as no state at all, so a malformed session never
// blocks the user from continuing to interact.
func (e *Engine) stateInfo(ctx context.Context, userID int64) (*session.Information, error) {
	fields, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	info, err := session.Parse(fields)
	if err != nil {
		logger.Error(ctx, "fsm", "session.parse_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return nil, nil
	}
	return info, nil
}

func (e *Engine) runHandler(ctx context.Context, upd tele.Update, r route) ([]SendResult, error) {
	start := time.Now()
	ctx = logger.WithHandler(ctx, r.name)
	results, err := r.handler(ctx, upd)

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("handler", r.name),
		slog.Int("messages", len(results)),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.LogEvent(ctx, logger.FSM, slog.LevelInfo, "handler.handled", attrs...)

	return results, err
}
