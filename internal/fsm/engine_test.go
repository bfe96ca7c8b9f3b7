package fsm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"abitbot/internal/advisor"
	"abitbot/internal/catalog"
	"abitbot/internal/session"
	"abitbot/internal/specifics"
)

type sentMessage struct {
	chatID int64
	text   string
	opts   []interface{}
}

type fakeMessenger struct {
	trace   *[]string
	sent    []sentMessage
	failAll bool
	nextID  int
}

func (m *fakeMessenger) Send(_ context.Context, chatID int64, text string, opts ...interface{}) (SendResult, error) {
	if m.trace != nil {
		*m.trace = append(*m.trace, "send:"+text)
	}
	if m.failAll {
		return SendResult{}, errors.New("telegram api down")
	}
	m.nextID++
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: text, opts: opts})
	return SendResult{OK: true, ChatID: chatID, MessageID: m.nextID}, nil
}

type fakeCatalog struct {
	programs []catalog.Program
	err      error
}

func (c *fakeCatalog) All(context.Context) ([]catalog.Program, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.programs, nil
}

type fakeNotes struct {
	created   []specifics.Specific
	createErr error
}

func (n *fakeNotes) Create(_ context.Context, userID int64, text string) (specifics.Specific, error) {
	if n.createErr != nil {
		return specifics.Specific{}, n.createErr
	}
	s := specifics.Specific{UserID: userID, Specific: text}
	n.created = append(n.created, s)
	return s, nil
}

func (n *fakeNotes) ListByUser(_ context.Context, userID int64) ([]specifics.Specific, error) {
	out := []specifics.Specific{}
	for _, s := range n.created {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeAdvisor struct {
	trace          *[]string
	answer         string
	answerErr      error
	answerCalls    int
	rec            advisor.Recommendation
	recErr         error
	recommendCalls int
}

func (a *fakeAdvisor) AnswerQuestion(_ context.Context, _ []string, _ string) (string, error) {
	if a.trace != nil {
		*a.trace = append(*a.trace, "advisor:answer")
	}
	a.answerCalls++
	if a.answerErr != nil {
		return "", a.answerErr
	}
	return a.answer, nil
}

func (a *fakeAdvisor) Recommend(_ context.Context, _, _, _ []string) (advisor.Recommendation, error) {
	if a.trace != nil {
		*a.trace = append(*a.trace, "advisor:recommend")
	}
	a.recommendCalls++
	if a.recErr != nil {
		return advisor.Recommendation{}, a.recErr
	}
	return a.rec, nil
}

type failingStore struct {
	*session.MemoryStore
	setErr error
}

func (s *failingStore) Set(ctx context.Context, userID int64, fields map[string]string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, userID, fields)
}

type fixture struct {
	engine *Engine
	store  *session.MemoryStore
	msg    *fakeMessenger
	cat    *fakeCatalog
	notes  *fakeNotes
	adv    *fakeAdvisor
	trace  []string
}

func newFixture() *fixture {
	f := &fixture{
		store: session.NewMemoryStore(),
		cat: &fakeCatalog{programs: []catalog.Program{
			{ID: "1", Name: "Искусственный интеллект", WebsiteURL: "https://abit.itmo.ru/program/master/ai"},
			{ID: "2", Name: "Управление ИИ-продуктами", WebsiteURL: "https://abit.itmo.ru/program/master/ai_product"},
		}},
		notes: &fakeNotes{},
	}
	f.msg = &fakeMessenger{trace: &f.trace}
	f.adv = &fakeAdvisor{
		trace:  &f.trace,
		answer: "Обучение длится два года.",
		rec: advisor.Recommendation{
			Recommendation:     "Тебе подойдет программа по ИИ.",
			RecommendedProgram: "Искусственный интеллект",
		},
	}
	f.engine = NewEngine(f.store, f.cat, f.notes, f.adv, f.msg)
	return f
}

func textUpdate(id int, userID int64, text string) tele.Update {
	return tele.Update{
		ID: id,
		Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID},
			Text:   text,
		},
	}
}

func (f *fixture) stateOf(t *testing.T, userID int64) session.State {
	t.Helper()
	fields, err := f.store.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	info, err := session.Parse(fields)
	if err != nil {
		t.Fatalf("parse state: %v", err)
	}
	if info == nil {
		t.Fatal("no state stored")
	}
	return info.State
}

func (f *fixture) setState(t *testing.T, userID int64, st session.State) {
	t.Helper()
	if err := f.store.Set(context.Background(), userID, session.Information{State: st}.Fields()); err != nil {
		t.Fatalf("seed state: %v", err)
	}
}

func TestStartCreatesStateAndSendsProgramLinks(t *testing.T) {
	f := newFixture()
	results := f.engine.Process(context.Background(), textUpdate(1, 7, "/start"))

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (greeting + menu)", len(results))
	}
	if got := f.stateOf(t, 7); got != session.StateMainMenu {
		t.Fatalf("state = %s", got)
	}
	if len(f.msg.sent) != 2 {
		t.Fatalf("sent = %d", len(f.msg.sent))
	}

	greeting := f.msg.sent[0]
	if !strings.Contains(greeting.text, "магистратуру ИТМО") {
		t.Fatalf("greeting text = %q", greeting.text)
	}
	markup, ok := greeting.opts[0].(*tele.ReplyMarkup)
	if !ok || len(markup.InlineKeyboard) != 2 {
		t.Fatalf("greeting must carry one link row per program, got %#v", greeting.opts)
	}
	if markup.InlineKeyboard[0][0].URL != "https://abit.itmo.ru/program/master/ai" {
		t.Fatalf("first link = %q", markup.InlineKeyboard[0][0].URL)
	}

	if f.msg.sent[1].text != msgMainMenu {
		t.Fatalf("second message = %q", f.msg.sent[1].text)
	}
}

func TestQuestionStateAnswersOnce(t *testing.T) {
	f := newFixture()
	f.setState(t, 7, session.StateQuestions)

	results := f.engine.Process(context.Background(), textUpdate(2, 7, "Сколько длится обучение?"))

	if f.adv.answerCalls != 1 {
		t.Fatalf("answer calls = %d", f.adv.answerCalls)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if got := f.stateOf(t, 7); got != session.StateQuestions {
		t.Fatalf("state = %s, must stay questions", got)
	}
	// Interim notice goes out first but is not part of the result.
	if len(f.msg.sent) != 2 || f.msg.sent[0].text != msgSearchingAnswer {
		t.Fatalf("sent = %+v", f.msg.sent)
	}
	if f.msg.sent[1].text != "Обучение длится два года." {
		t.Fatalf("answer text = %q", f.msg.sent[1].text)
	}
}

func TestRecommendationStateCreatesNoteAndSendsTwoMessages(t *testing.T) {
	f := newFixture()
	f.setState(t, 9, session.StateRecommendation)

	results := f.engine.Process(context.Background(), textUpdate(3, 9, "люблю математику"))

	if len(f.notes.created) != 1 || f.notes.created[0].Specific != "люблю математику" {
		t.Fatalf("notes = %+v", f.notes.created)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if got := f.stateOf(t, 9); got != session.StateRecommendation {
		t.Fatalf("state = %s, must stay recommendation", got)
	}

	last := f.msg.sent[len(f.msg.sent)-1]
	if last.text != fmt.Sprintf(msgRecommendedProgram, "Искусственный интеллект") {
		t.Fatalf("final message = %q", last.text)
	}

	// The interim notice must precede the slow recommendation call.
	waitIdx, recIdx := -1, -1
	for i, ev := range f.trace {
		switch ev {
		case "send:" + msgSearchingProgram:
			waitIdx = i
		case "advisor:recommend":
			recIdx = i
		}
	}
	if waitIdx == -1 || recIdx == -1 || waitIdx > recIdx {
		t.Fatalf("wait notice must be sent before the recommendation call, trace: %v", f.trace)
	}
}

func TestHandlerFailureFallsBackToMainMenu(t *testing.T) {
	f := newFixture()
	f.setState(t, 7, session.StateQuestions)
	f.adv.answerErr = errors.New("completion backend unavailable")

	results := f.engine.Process(context.Background(), textUpdate(4, 7, "есть ли стипендия?"))

	if len(results) != 1 {
		t.Fatalf("results = %d, want the menu reply", len(results))
	}
	last := f.msg.sent[len(f.msg.sent)-1]
	if last.text != msgMainMenu {
		t.Fatalf("fallback message = %q", last.text)
	}
	if got := f.stateOf(t, 7); got != session.StateMainMenu {
		t.Fatalf("state = %s, recovery must reset to main menu", got)
	}
}

func TestDoubleFailureReturnsEmptyResult(t *testing.T) {
	f := newFixture()
	f.setState(t, 7, session.StateQuestions)
	f.msg.failAll = true

	results := f.engine.Process(context.Background(), textUpdate(5, 7, "вопрос"))

	if results == nil {
		t.Fatal("Process must return an empty slice, not nil")
	}
	if len(results) != 0 {
		t.Fatalf("results = %d, want 0", len(results))
	}
}

func TestRecoveryHandlerStoreFailure(t *testing.T) {
	trace := []string{}
	store := &failingStore{MemoryStore: session.NewMemoryStore(), setErr: errors.New("redis down")}
	msg := &fakeMessenger{trace: &trace}
	adv := &fakeAdvisor{trace: &trace}
	engine := NewEngine(store, &fakeCatalog{}, &fakeNotes{}, adv, msg)

	results := engine.Process(context.Background(), textUpdate(6, 7, "/start"))
	if len(results) != 0 {
		t.Fatalf("results = %d, want 0 when even recovery cannot write state", len(results))
	}
}

func TestReturnToMainMenuIsIdempotent(t *testing.T) {
	f := newFixture()
	f.setState(t, 11, session.StateRecommendation)

	for i := 0; i < 2; i++ {
		results := f.engine.Process(context.Background(), textUpdate(10+i, 11, btnMainMenu))
		if len(results) != 1 {
			t.Fatalf("pass %d: results = %d", i, len(results))
		}
		if got := f.stateOf(t, 11); got != session.StateMainMenu {
			t.Fatalf("pass %d: state = %s", i, got)
		}
	}
}

func TestTextTriggerWinsOverState(t *testing.T) {
	f := newFixture()
	f.setState(t, 7, session.StateQuestions)

	f.engine.Process(context.Background(), textUpdate(7, 7, btnGetRecommendation))

	if f.adv.answerCalls != 0 {
		t.Fatal("text trigger must shadow the state handler")
	}
	if got := f.stateOf(t, 7); got != session.StateRecommendation {
		t.Fatalf("state = %s", got)
	}
	if f.msg.sent[0].text != msgDescribeYourself {
		t.Fatalf("prompt = %q", f.msg.sent[0].text)
	}
}

func TestUnknownTextWithoutStateGoesToMenu(t *testing.T) {
	f := newFixture()

	results := f.engine.Process(context.Background(), textUpdate(8, 13, "привет"))

	if len(results) != 1 || f.msg.sent[0].text != msgMainMenu {
		t.Fatalf("expected menu reply, got %+v", f.msg.sent)
	}
	if got := f.stateOf(t, 13); got != session.StateMainMenu {
		t.Fatalf("state = %s", got)
	}
}

func TestCorruptStateFailsOpen(t *testing.T) {
	f := newFixture()
	if err := f.store.Set(context.Background(), 7, map[string]string{"state": "limbo"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	results := f.engine.Process(context.Background(), textUpdate(9, 7, "что-нибудь"))

	if len(results) != 1 || f.msg.sent[0].text != msgMainMenu {
		t.Fatalf("corrupt state must route to menu, got %+v", f.msg.sent)
	}
	if got := f.stateOf(t, 7); got != session.StateMainMenu {
		t.Fatalf("state = %s", got)
	}
}

func TestTextlessMessageFallsBackToMenu(t *testing.T) {
	f := newFixture()
	upd := tele.Update{
		ID: 10,
		Message: &tele.Message{
			Sender: &tele.User{ID: 7},
			Chat:   &tele.Chat{ID: 7},
			Photo:  &tele.Photo{},
		},
	}

	results := f.engine.Process(context.Background(), upd)

	if len(results) != 1 || f.msg.sent[0].text != msgMainMenu {
		t.Fatalf("photo update must resolve to the menu, got %+v", f.msg.sent)
	}
}

func TestMessagelessUpdateNeverPanics(t *testing.T) {
	f := newFixture()

	results := f.engine.Process(context.Background(), tele.Update{ID: 11})

	if results == nil || len(results) != 0 {
		t.Fatalf("results = %v, want empty", results)
	}
	if len(f.msg.sent) != 0 {
		t.Fatalf("nothing should be sent without a recipient, got %+v", f.msg.sent)
	}
}
