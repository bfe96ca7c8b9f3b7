// Package advisor answers applicant questions and recommends a program
// using OpenAI chat completions constrained to JSON replies.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"abitbot/core/logger"
	"log/slog"
)

// Recommendation is the structured reply of the recommendation prompt.
type Recommendation struct {
	Recommendation     string `json:"recommendation"`
	RecommendedProgram string `json:"recommended_program"`
}

type questionReply struct {
	Answer string `json:"answer"`
}

// Service talks to the OpenAI API on behalf of the bot.
type Service struct {
	client *openai.Client
	model  string
}

// New constructs an advisor service. baseURL may be empty to use the
// default OpenAI endpoint.
func New(apiKey, baseURL, model string) *Service {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Service{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// AnswerQuestion answers a free-form question using only the content of the
// given program websites.
func (s *Service) AnswerQuestion(ctx context.Context, websites []string, question string) (string, error) {
	start := time.Now()
	resp, err := s.complete(ctx, questionMessages(websites, question))
	if err != nil {
		logger.ADV.Error("question failed",
			slog.String("event", "advisor.question"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return "", fmt.Errorf("answer question: %w", err)
	}

	var reply questionReply
	if err := json.Unmarshal([]byte(resp), &reply); err != nil {
		return "", fmt.Errorf("decode question reply: %w", err)
	}
	logger.ADV.Info("question answered",
		slog.String("event", "advisor.question"),
		slog.Duration("duration", logger.Took(start)),
	)
	return reply.Answer, nil
}

// Recommend produces a program recommendation from the accumulated user
// specifics and the supported program list.
func (s *Service) Recommend(ctx context.Context, websites, userSpecifics, programs []string) (Recommendation, error) {
	start := time.Now()
	resp, err := s.complete(ctx, recommendationMessages(websites, userSpecifics, programs))
	if err != nil {
		logger.ADV.Error("recommendation failed",
			slog.String("event", "advisor.recommend"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return Recommendation{}, fmt.Errorf("recommend: %w", err)
	}

	var reply Recommendation
	if err := json.Unmarshal([]byte(resp), &reply); err != nil {
		return Recommendation{}, fmt.Errorf("decode recommendation reply: %w", err)
	}
	logger.ADV.Info("recommendation ready",
		slog.String("event", "advisor.recommend"),
		slog.String("program", logger.SanitizeLimit(reply.RecommendedProgram, 128)),
		slog.Duration("duration", logger.Took(start)),
	)
	return reply, nil
}

func (s *Service) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
