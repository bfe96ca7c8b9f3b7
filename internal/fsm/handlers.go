package fsm

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"abitbot/core/logger"
	"abitbot/core/telegram/keyboard"
	"abitbot/internal/catalog"
	"abitbot/internal/session"
	"abitbot/internal/specifics"
	"log/slog"
)

const (
	cmdStart             = "/start"
	btnAskQuestion       = "❓ Задать вопрос о программе"
	btnGetRecommendation = "❗️ Получить рекоммендацию"
	btnMainMenu          = "Вернуться в главное меню"
)

const (
	msgGreeting = "Привет!\nЯ помогу тебе с выбором программы для поступления в магистратуру ИТМО"
	msgMainMenu = "С чем я могу помочь?"

	msgAskQuestion     = "Задай свой вопрос о программе, и я постараюсь на него ответить!"
	msgSearchingAnswer = "Пожалуйста, подожди, я ищу ответ на твой вопрос..."

	msgDescribeYourself   = "Расскажи мне про себя и я постараюсь подобрать тебе программу, которая тебе подойдет!"
	msgSearchingProgram   = "Пожалуйста, подожди, я ищу подходящую для тебя программу..."
	msgRecommendedProgram = "Рекомендованная программа: %s"
)

func mainMenuKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnAskQuestion},
		[]string{btnGetRecommendation},
	)
}

func backToMenuKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{btnMainMenu})
}

func markdown() *tele.SendOptions {
	return &tele.SendOptions{ParseMode: tele.ModeMarkdown}
}

// setState writes the next state before any reply is sent, so a crash
// between the write and the send leaves the user in a consistent state.
func (e *Engine) setState(ctx context.Context, userID int64, st session.State) error {
	return e.store.Set(ctx, userID, session.Information{State: st}.Fields())
}

// handleStart resets the conversation, greets the user with one link button
// per supported program, and chains into the main menu.
func (e *Engine) handleStart(ctx context.Context, upd tele.Update) ([]SendResult, error) {
	userID, err := senderID(upd)
	if err != nil {
		return nil, err
	}

	// Hard reset: drop the whole record first so stale fields cannot leak
	// into the fresh session.
	if err := e.store.Delete(ctx, userID); err != nil {
		return nil, err
	}
	if err := e.setState(ctx, userID, session.StateMainMenu); err != nil {
		return nil, err
	}

	programs, err := e.catalog.All(ctx)
	if err != nil {
		return nil, err
	}
	links := make([]keyboard.LinkBtn, 0, len(programs))
	for _, p := range programs {
		links = append(links, keyboard.LinkBtn{Text: p.Name, URL: p.WebsiteURL})
	}

	greeting, err := e.msg.Send(ctx, userID, msgGreeting, keyboard.LinkButtons(links))
	if err != nil {
		return nil, err
	}

	menu, err := e.handleReturnToMainMenu(ctx, upd)
	if err != nil {
		return nil, err
	}
	return append([]SendResult{greeting}, menu...), nil
}

// handleReturnToMainMenu is the default and recovery handler. It depends
// only on the session store and the messenger.
func (e *Engine) handleReturnToMainMenu(ctx context.Context, upd tele.Update) ([]SendResult, error) {
	userID, err := senderID(upd)
	if err != nil {
		return nil, err
	}
	if err := e.setState(ctx, userID, session.StateMainMenu); err != nil {
		return nil, err
	}

	res, err := e.msg.Send(ctx, userID, msgMainMenu, mainMenuKeyboard())
	if err != nil {
		return nil, err
	}
	return []SendResult{res}, nil
}

func (e *Engine) handleQuestionAboutProgram(ctx context.Context, upd tele.Update) ([]SendResult, error) {
	userID, err := senderID(upd)
	if err != nil {
		return nil, err
	}
	if err := e.setState(ctx, userID, session.StateQuestions); err != nil {
		return nil, err
	}

	res, err := e.msg.Send(ctx, userID, msgAskQuestion, backToMenuKeyboard())
	if err != nil {
		return nil, err
	}
	return []SendResult{res}, nil
}

// handleQuestion answers one question while the user stays in the
// questions state, so follow-ups keep working without re-entering the menu.
func (e *Engine) handleQuestion(ctx context.Context, upd tele.Update) ([]SendResult, error) {
	userID, err := senderID(upd)
	if err != nil {
		return nil, err
	}
	question := upd.Message.Text
	logger.Info(ctx, "fsm", "question.received",
		slog.Int64("user_id", userID),
		slog.String("payload", logger.SanitizeLimit(question, 256)),
	)

	// Interim notice; not part of the handler result.
	if _, err := e.msg.Send(ctx, userID, msgSearchingAnswer, backToMenuKeyboard()); err != nil {
		return nil, err
	}

	programs, err := e.catalog.All(ctx)
	if err != nil {
		return nil, err
	}
	answer, err := e.advisor.AnswerQuestion(ctx, catalog.URLs(programs), question)
	if err != nil {
		return nil, err
	}

	res, err := e.msg.Send(ctx, userID, answer, markdown())
	if err != nil {
		return nil, err
	}
	return []SendResult{res}, nil
}

func (e *Engine) handleGetRecommendation(ctx context.Context, upd tele.Update) ([]SendResult, error) {
	userID, err := senderID(upd)
	if err != nil {
		return nil, err
	}
	if err := e.setState(ctx, userID, session.StateRecommendation); err != nil {
		return nil, err
	}

	res, err := e.msg.Send(ctx, userID, msgDescribeYourself, backToMenuKeyboard())
	if err != nil {
		return nil, err
	}
	return []SendResult{res}, nil
}

// handleRecommendation appends the message as a new note and re-evaluates
// the recommendation over everything the user has told so far. The state
// stays at recommendation so further messages refine the result.
func (e *Engine) handleRecommendation(ctx context.Context, upd tele.Update) ([]SendResult, error) {
	userID, err := senderID(upd)
	if err != nil {
		return nil, err
	}

	if _, err := e.notes.Create(ctx, userID, upd.Message.Text); err != nil {
		return nil, err
	}
	items, err := e.notes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	programs, err := e.catalog.All(ctx)
	if err != nil {
		return nil, err
	}

	// Interim notice; not part of the handler result.
	if _, err := e.msg.Send(ctx, userID, msgSearchingProgram, backToMenuKeyboard()); err != nil {
		return nil, err
	}

	rec, err := e.advisor.Recommend(ctx, catalog.URLs(programs), specifics.Texts(items), catalog.Names(programs))
	if err != nil {
		return nil, err
	}

	first, err := e.msg.Send(ctx, userID, rec.Recommendation, markdown())
	if err != nil {
		return nil, err
	}
	second, err := e.msg.Send(ctx, userID, fmt.Sprintf(msgRecommendedProgram, rec.RecommendedProgram), markdown())
	if err != nil {
		return nil, err
	}
	return []SendResult{first, second}, nil
}
