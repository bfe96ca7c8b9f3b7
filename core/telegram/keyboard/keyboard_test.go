package keyboard

import "testing"

func TestReplyButtons(t *testing.T) {
	markup := ReplyButtons(
		[]string{"❓ Задать вопрос о программе"},
		[]string{"❗️ Получить рекоммендацию"},
	)
	if !markup.ResizeKeyboard || !markup.IsPersistent {
		t.Fatal("reply keyboard must be resized and persistent")
	}
	if len(markup.ReplyKeyboard) != 2 {
		t.Fatalf("rows = %d", len(markup.ReplyKeyboard))
	}
	if markup.ReplyKeyboard[0][0].Text != "❓ Задать вопрос о программе" {
		t.Fatalf("unexpected first button: %q", markup.ReplyKeyboard[0][0].Text)
	}
}

func TestLinkButtonsOnePerRow(t *testing.T) {
	markup := LinkButtons([]LinkBtn{
		{Text: "AI", URL: "https://abit.itmo.ru/program/master/ai"},
		{Text: "AI Product", URL: "https://abit.itmo.ru/program/master/ai_product"},
	})
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d", len(markup.InlineKeyboard))
	}
	for i, row := range markup.InlineKeyboard {
		if len(row) != 1 {
			t.Fatalf("row %d has %d buttons", i, len(row))
		}
		if row[0].URL == "" {
			t.Fatalf("row %d button missing URL", i)
		}
	}
}
