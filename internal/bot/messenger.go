package bot

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"abitbot/internal/fsm"
)

// TelebotMessenger sends messages through a live telebot instance.
type TelebotMessenger struct {
	bot *tele.Bot
}

// NewMessenger wraps a bot for use by the dispatch engine.
func NewMessenger(b *tele.Bot) *TelebotMessenger {
	return &TelebotMessenger{bot: b}
}

// Send delivers one text message. Send options and reply markup pass through
// to telebot unchanged.
func (m *TelebotMessenger) Send(ctx context.Context, chatID int64, text string, opts ...interface{}) (fsm.SendResult, error) {
	if err := ctx.Err(); err != nil {
		return fsm.SendResult{ChatID: chatID}, err
	}

	msg, err := m.bot.Send(tele.ChatID(chatID), text, opts...)
	if err != nil {
		return fsm.SendResult{ChatID: chatID}, err
	}
	return fsm.SendResult{OK: true, ChatID: chatID, MessageID: msg.ID}, nil
}
