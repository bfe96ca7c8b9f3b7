// Package fsm is the conversation dispatch engine. It classifies an inbound
// update, resolves a handler through text-match or state-match routing,
// executes it, and always produces a result list for the transport layer.
package fsm

import (
	"context"
	"errors"

	tele "gopkg.in/telebot.v4"

	"abitbot/internal/advisor"
	"abitbot/internal/catalog"
	"abitbot/internal/session"
	"abitbot/internal/specifics"
)

// SendResult records one outbound message that was actually sent.
type SendResult struct {
	OK        bool
	ChatID    int64
	MessageID int
}

// Messenger delivers outbound messages to a chat. opts are passed through
// to the underlying Telegram client (send options, reply markup).
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, opts ...interface{}) (SendResult, error)
}

// Catalog lists the supported programs.
type Catalog interface {
	All(ctx context.Context) ([]catalog.Program, error)
}

// Specifics stores and lists user notes.
type Specifics interface {
	Create(ctx context.Context, userID int64, text string) (specifics.Specific, error)
	ListByUser(ctx context.Context, userID int64) ([]specifics.Specific, error)
}

// Advisor answers questions and recommends programs.
type Advisor interface {
	AnswerQuestion(ctx context.Context, websites []string, question string) (string, error)
	Recommend(ctx context.Context, websites, userSpecifics, programs []string) (advisor.Recommendation, error)
}

// Handler processes one update and returns the messages it sent.
type Handler func(ctx context.Context, upd tele.Update) ([]SendResult, error)

// Validator gates whether a matched handler may run for the current state.
// Every registered validator currently passes; the slot is an extension
// point for state-dependent gating.
type Validator func(info *session.Information) bool

type route struct {
	name      string
	handler   Handler
	validator Validator
}

var (
	errUnsupportedUpdate = errors.New("unsupported update type")
	errNoSender          = errors.New("update has no sender or chat")
)

// Engine routes inbound updates to conversation handlers.
type Engine struct {
	store   session.Store
	catalog Catalog
	notes   Specifics
	advisor Advisor
	msg     Messenger

	textRoutes  map[string]route
	stateRoutes map[session.State]route
}

// NewEngine wires the dispatch engine with its five collaborators.
func NewEngine(store session.Store, cat Catalog, notes Specifics, adv Advisor, msg Messenger) *Engine {
	e := &Engine{
		store:   store,
		catalog: cat,
		notes:   notes,
		advisor: adv,
		msg:     msg,
	}

	pass := func(*session.Information) bool { return true }

	e.textRoutes = map[string]route{
		cmdStart:             {name: "start", handler: e.handleStart, validator: pass},
		btnAskQuestion:       {name: "question_about_program", handler: e.handleQuestionAboutProgram, validator: pass},
		btnGetRecommendation: {name: "get_recommendation", handler: e.handleGetRecommendation, validator: pass},
		btnMainMenu:          {name: "return_to_main_menu", handler: e.handleReturnToMainMenu, validator: pass},
	}
	e.stateRoutes = map[session.State]route{
		session.StateQuestions:      {name: "question", handler: e.handleQuestion, validator: pass},
		session.StateRecommendation: {name: "recommendation", handler: e.handleRecommendation, validator: pass},
	}
	return e
}

func classify(upd tele.Update) error {
	if upd.Message != nil && upd.Message.Text != "" {
		return nil
	}
	return errUnsupportedUpdate
}

func senderID(upd tele.Update) (int64, error) {
	if upd.Message == nil {
		return 0, errNoSender
	}
	if upd.Message.Sender != nil {
		return upd.Message.Sender.ID, nil
	}
	if upd.Message.Chat != nil {
		return upd.Message.Chat.ID, nil
	}
	return 0, errNoSender
}
