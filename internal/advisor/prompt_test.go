package advisor

import (
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestQuestionMessages(t *testing.T) {
	msgs := questionMessages(
		[]string{"https://abit.itmo.ru/program/master/ai"},
		"Сколько длится обучение?",
	)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d", len(msgs))
	}
	if msgs[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("first role = %s", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, "https://abit.itmo.ru/program/master/ai") {
		t.Fatal("system prompt must list the websites")
	}
	if !strings.Contains(msgs[0].Content, "Я не знаю") {
		t.Fatal("system prompt must pin the unknown-answer phrase")
	}
	if !strings.Contains(msgs[1].Content, "Сколько длится обучение?") {
		t.Fatal("user message must carry the question")
	}
}

func TestRecommendationMessages(t *testing.T) {
	msgs := recommendationMessages(
		[]string{"https://a.example", "https://b.example"},
		[]string{"люблю математику", "хочу работать с данными"},
		[]string{"Искусственный интеллект", "Управление ИИ-продуктами"},
	)
	if len(msgs) != 1 {
		t.Fatalf("messages = %d", len(msgs))
	}
	sys := msgs[0].Content
	for _, want := range []string{
		"https://a.example, https://b.example",
		"люблю математику; хочу работать с данными",
		"Искусственный интеллект, Управление ИИ-продуктами",
		"recommended_program",
	} {
		if !strings.Contains(sys, want) {
			t.Fatalf("system prompt missing %q", want)
		}
	}
}
