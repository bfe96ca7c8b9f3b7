package advisor

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

func questionMessages(websites []string, question string) []openai.ChatCompletionMessage {
	system := fmt.Sprintf(
		"You are a helpful assistant that answers questions "+
			"based on the content of the provided websites: %s. "+
			"Only answer based on the content of these websites, "+
			"do not make up information. If the answer is not found, "+
			"say 'Я не знаю'. Use russian language for your response. "+
			"Do not use formatting, but if you do - use HTML only, no markdown. "+
			`Reply with a JSON object of the form {"answer": "..."}.`,
		strings.Join(websites, ", "),
	)
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("I have a question: %s", question)},
	}
}

func recommendationMessages(websites, userSpecifics, programs []string) []openai.ChatCompletionMessage {
	system := fmt.Sprintf(
		"You are a helpful assistant that provides recommendations "+
			"based on the content of the provided websites: %s "+
			"and user specifics: %s. "+
			"Only answer based on the content of these websites and specifics, "+
			"do not make up information. If the answer is not found, "+
			"say 'Я не знаю'. Use russian language for your response. "+
			"Do not use formatting, but if you do - use HTML only, no markdown. "+
			"Also, provide recommended program from the list of supported programs: %s. "+
			"Besides recommendation, specify courses that can be taken in "+
			"the recommended program. "+
			`Reply with a JSON object of the form `+
			`{"recommendation": "...", "recommended_program": "..."}.`,
		strings.Join(websites, ", "),
		strings.Join(userSpecifics, "; "),
		strings.Join(programs, ", "),
	)
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
	}
}
