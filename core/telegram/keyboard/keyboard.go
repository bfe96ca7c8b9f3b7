// Package keyboard builds reply and inline keyboards used by conversation
// handlers.
package keyboard

import tele "gopkg.in/telebot.v4"

// LinkBtn describes an inline button that opens an external URL.
type LinkBtn struct {
	Text string
	URL  string
}

// RemoveKeyboard returns a markup that hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a persistent reply keyboard from rows of text.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, IsPersistent: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// LinkButtons builds an inline keyboard where each URL button is placed on
// its own row.
func LinkButtons(buttons []LinkBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(buttons))
	for _, b := range buttons {
		btn := markup.URL(b.Text, b.URL)
		inline = append(inline, []tele.InlineButton{*btn.Inline()})
	}
	markup.InlineKeyboard = inline
	return markup
}
