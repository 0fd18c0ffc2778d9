// Package engine drives candidates through a vacancy's questionnaire: start
// and resume, answer capture and validation, the review/edit loop,
// submission and cancellation. It is the single writer for its interactions;
// every mutating action is flushed to the store before the in-memory session
// advances, so a crash never loses acknowledged progress.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/chat"
	"github.com/ovoronin/hireloop/internal/screening"
)

var (
	// ErrCandidateNotFound means the chat identity is not linked to a candidate.
	ErrCandidateNotFound = errors.New("candidate not found for chat identity")
	// ErrNoActiveApplication means the candidate has nothing to answer for.
	ErrNoActiveApplication = errors.New("candidate has no active application")
	// ErrNoQuestions means the vacancy's question bank is empty.
	ErrNoQuestions = errors.New("no questions configured for vacancy")
	// ErrNoSession means input arrived outside a started questionnaire.
	ErrNoSession = errors.New("no active questionnaire session")
)

// Store is the persistence contract the engine consumes.
type Store interface {
	CandidateByChatID(ctx context.Context, chatID int64) (*screening.Candidate, error)
	ClaimToken(ctx context.Context, token string, chatID int64) (*screening.Candidate, error)
	ActiveApplicationByCandidate(ctx context.Context, candidateID string) (*screening.Application, error)
	VacancyByID(ctx context.Context, id string) (*screening.Vacancy, error)
	QuestionsByVacancy(ctx context.Context, vacancyID string) ([]screening.Question, error)
	InteractionByApplication(ctx context.Context, applicationID string) (*screening.Interaction, error)
	CreateInteraction(ctx context.Context, i *screening.Interaction) error
	UpdateInteraction(ctx context.Context, id string, upd screening.InteractionUpdate) error
	DeleteInteraction(ctx context.Context, id string) error
	CompleteSubmission(ctx context.Context, applicationID, interactionID string, now time.Time) error
}

// Dispatcher receives the asynchronous scoring hand-off after submission.
type Dispatcher interface {
	Dispatch(applicationID string)
}

// Reminders schedules a re-engagement notification for a paused candidate.
type Reminders interface {
	Schedule(chatID int64, applicationID string)
}

type Config struct {
	// ReviewPageSize is the number of questions per review screen page.
	ReviewPageSize int
	// Retention bounds how long a paused interaction stays resumable.
	Retention time.Duration
	// CaseInsensitiveChoices relaxes choice label matching to case folding.
	CaseInsensitiveChoices bool
}

const (
	defaultReviewPageSize = 5
	defaultRetention      = 24 * time.Hour
)

type Engine struct {
	store     Store
	sender    chat.Sender
	scoring   Dispatcher
	reminders Reminders
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time

	// mu guards the maps only. Transitions hold the per-chat lock instead,
	// so one candidate's slow store call never stalls another's conversation.
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
}

func New(store Store, sender chat.Sender, scoring Dispatcher, reminders Reminders, cfg Config, logger *zap.Logger) *Engine {
	if cfg.ReviewPageSize <= 0 {
		cfg.ReviewPageSize = defaultReviewPageSize
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:     store,
		sender:    sender,
		scoring:   scoring,
		reminders: reminders,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[int64]*Session),
		locks:     make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) chatLock(chatID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[chatID] = lock
	}
	return lock
}

func (e *Engine) session(chatID int64) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[chatID]
}

func (e *Engine) setSession(sess *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[sess.ChatID] = sess
}

func (e *Engine) dropSession(chatID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, chatID)
}

// Handle implements chat.Handler: it maps the transport event, runs the
// transition and delivers the resulting prompts.
func (e *Engine) Handle(ctx context.Context, in chat.Incoming) {
	ev, ok := MapEvent(in)
	if !ok {
		return
	}

	outs, err := e.Transition(ctx, in.ChatID, ev)
	if err != nil {
		e.logger.Warn("transition failed",
			zap.Int64("chat_id", in.ChatID),
			zap.String("event", fmt.Sprintf("%T", ev)),
			zap.Error(err),
		)
		outs = append(outs, chat.Outgoing{Text: errorText(err)})
	}

	for _, out := range outs {
		if err := e.sender.Send(ctx, in.ChatID, out); err != nil {
			e.logger.Error("send prompt", zap.Int64("chat_id", in.ChatID), zap.Error(err))
		}
	}
}

// Transition is the single dispatch point of the state machine: it applies
// one event to the candidate's conversation and returns the prompts to send.
// Events are serialized per chat; different candidates proceed independently.
func (e *Engine) Transition(ctx context.Context, chatID int64, ev Event) ([]chat.Outgoing, error) {
	lock := e.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	if start, ok := ev.(StartEvent); ok {
		return e.start(ctx, chatID, strings.TrimSpace(start.Token))
	}

	sess := e.session(chatID)
	if sess == nil {
		if _, ok := ev.(CancelEvent); ok {
			return []chat.Outgoing{{Text: msgNothingToCancel}}, nil
		}
		return nil, ErrNoSession
	}

	if _, ok := ev.(CancelEvent); ok {
		return e.cancel(ctx, sess)
	}

	switch sess.State {
	case StateConsent:
		if consent, ok := ev.(ConsentEvent); ok {
			return e.consent(ctx, sess, consent.Granted)
		}
		return []chat.Outgoing{e.consentPrompt()}, nil

	case StateAnswering, StateEditing:
		switch ev := ev.(type) {
		case AnswerEvent:
			return e.answer(ctx, sess, ev.Value, ev.FileRef)
		case ChoiceEvent:
			return e.choice(ctx, sess, ev.Label)
		case NextEvent:
			if sess.State == StateEditing {
				sess.State = StateReview
				return []chat.Outgoing{e.renderReview(sess)}, nil
			}
			return e.next(ctx, sess)
		default:
			return []chat.Outgoing{e.promptQuestion(sess)}, nil
		}

	case StateReview:
		switch ev := ev.(type) {
		case EditEvent:
			return e.edit(sess, ev.QuestionID)
		case ReviewPageEvent:
			sess.ReviewPage = ev.Page
			return []chat.Outgoing{e.renderReview(sess)}, nil
		case SubmitEvent:
			return e.submit(ctx, sess)
		default:
			return []chat.Outgoing{{Text: msgUseReviewButtons}, e.renderReview(sess)}, nil
		}
	}

	return nil, fmt.Errorf("unhandled state %s", sess.State)
}

func (e *Engine) start(ctx context.Context, chatID int64, token string) ([]chat.Outgoing, error) {
	cand, err := e.store.CandidateByChatID(ctx, chatID)
	if errors.Is(err, screening.ErrNotFound) {
		if token == "" {
			return nil, ErrCandidateNotFound
		}
		cand, err = e.store.ClaimToken(ctx, token, chatID)
		if errors.Is(err, screening.ErrNotFound) {
			return nil, ErrCandidateNotFound
		}
	}
	if err != nil {
		return nil, err
	}

	app, err := e.store.ActiveApplicationByCandidate(ctx, cand.ID)
	if errors.Is(err, screening.ErrNotFound) {
		return nil, ErrNoActiveApplication
	}
	if err != nil {
		return nil, err
	}

	questions, err := e.store.QuestionsByVacancy(ctx, app.VacancyID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	now := e.now()
	fresh := false
	inter, err := e.store.InteractionByApplication(ctx, app.ID)
	switch {
	case errors.Is(err, screening.ErrNotFound):
		fresh = true
	case err != nil:
		return nil, err
	case inter.Terminal() || now.Sub(inter.LastActive) > e.cfg.Retention:
		// A terminal or stale record is discarded; the candidate starts over.
		if err := e.store.DeleteInteraction(ctx, inter.ID); err != nil {
			return nil, err
		}
		fresh = true
	}

	if fresh {
		inter = &screening.Interaction{
			CandidateID:       cand.ID,
			ApplicationID:     app.ID,
			VacancyID:         app.VacancyID,
			CurrentQuestionID: questions[0].ID,
			Step:              0,
			Answers:           map[string]string{},
			State:             screening.InteractionStarted,
			StartedAt:         now,
			LastActive:        now,
		}
		if err := e.store.CreateInteraction(ctx, inter); err != nil {
			return nil, err
		}
	} else {
		// A record parked past the last question resumes on review even when
		// it was paused there.
		state := screening.InteractionStarted
		if inter.State == screening.InteractionReview || inter.Step >= len(questions) {
			state = screening.InteractionReview
		}
		upd := screening.InteractionUpdate{State: &state, LastActive: &now}
		if err := e.store.UpdateInteraction(ctx, inter.ID, upd); err != nil {
			return nil, err
		}
	}

	sess := &Session{
		ChatID:        chatID,
		CandidateID:   cand.ID,
		ApplicationID: app.ID,
		VacancyID:     app.VacancyID,
		InteractionID: inter.ID,
		Questions:     questions,
		Answers:       cloneAnswers(inter.Answers),
		Current:       inter.Step,
	}
	if sess.Current > len(questions)-1 {
		sess.Current = len(questions) - 1
	}
	if sess.Current < 0 {
		sess.Current = 0
	}
	e.setSession(sess)

	var outs []chat.Outgoing
	if fresh {
		outs = append(outs, e.greeting(ctx, cand, app, len(questions)))
	} else {
		outs = append(outs, chat.Outgoing{Text: msgResuming})
	}

	switch {
	case inter.Consent != screening.ConsentGranted:
		sess.State = StateConsent
		outs = append(outs, e.consentPrompt())
	case inter.Step >= len(questions):
		sess.State = StateReview
		outs = append(outs, e.renderReview(sess))
	default:
		sess.State = StateAnswering
		outs = append(outs, e.promptQuestion(sess))
	}

	e.logger.Info("questionnaire session started",
		zap.Int64("chat_id", chatID),
		zap.String("application_id", app.ID),
		zap.Bool("fresh", fresh),
		zap.String("state", sess.State.String()),
	)

	return outs, nil
}

func (e *Engine) greeting(ctx context.Context, cand *screening.Candidate, app *screening.Application, questionCount int) chat.Outgoing {
	title := "the vacancy"
	if vacancy, err := e.store.VacancyByID(ctx, app.VacancyID); err == nil {
		title = fmt.Sprintf("'%s'", vacancy.Title)
	}
	return chat.Outgoing{Text: fmt.Sprintf(
		"Welcome, %s! To proceed with your application for %s you need to complete a questionnaire of %d questions.",
		cand.FullName, title, questionCount,
	)}
}

func (e *Engine) consentPrompt() chat.Outgoing {
	return chat.Outgoing{
		Text: "Before we begin: do you consent to the processing of your personal data for this application?",
		Buttons: [][]chat.Button{{
			{Label: labelYes, Data: callbackConsentYes},
			{Label: labelNo, Data: callbackConsentNo},
		}},
	}
}

func (e *Engine) consent(ctx context.Context, sess *Session, granted bool) ([]chat.Outgoing, error) {
	now := e.now()
	if !granted {
		state := screening.InteractionNoConsent
		consent := screening.ConsentDeclined
		upd := screening.InteractionUpdate{State: &state, Consent: &consent, LastActive: &now}
		if err := e.store.UpdateInteraction(ctx, sess.InteractionID, upd); err != nil {
			return nil, err
		}
		e.dropSession(sess.ChatID)
		return []chat.Outgoing{{Text: msgConsentDeclined}}, nil
	}

	consent := screening.ConsentGranted
	upd := screening.InteractionUpdate{Consent: &consent, LastActive: &now}
	if err := e.store.UpdateInteraction(ctx, sess.InteractionID, upd); err != nil {
		return nil, err
	}
	sess.State = StateAnswering
	return []chat.Outgoing{e.promptQuestion(sess)}, nil
}

// answer validates free-text or file input against the current question and
// records it. Validation failures re-prompt without advancing the pointer.
func (e *Engine) answer(ctx context.Context, sess *Session, value, fileRef string) ([]chat.Outgoing, error) {
	q := sess.question()
	if q == nil {
		return nil, screening.ErrNotFound
	}

	var stored string
	switch q.Format {
	case screening.FormatText:
		value = strings.TrimSpace(value)
		if value == "" {
			return []chat.Outgoing{{Text: msgTextExpected}, e.promptQuestion(sess)}, nil
		}
		stored = value
	case screening.FormatFile:
		if fileRef == "" {
			return []chat.Outgoing{{Text: msgFileExpected}, e.promptQuestion(sess)}, nil
		}
		stored = screening.FileAnswerPrefix + fileRef
	case screening.FormatChoice:
		label, ok := e.matchChoice(q, strings.TrimSpace(value))
		if !ok {
			return []chat.Outgoing{{Text: msgChoiceExpected}, e.promptQuestion(sess)}, nil
		}
		stored = label
	default:
		return nil, fmt.Errorf("unknown answer format %q", q.Format)
	}

	return e.saveAnswer(ctx, sess, q, stored)
}

func (e *Engine) choice(ctx context.Context, sess *Session, label string) ([]chat.Outgoing, error) {
	q := sess.question()
	if q == nil {
		return nil, screening.ErrNotFound
	}
	if q.Format != screening.FormatChoice {
		return []chat.Outgoing{e.promptQuestion(sess)}, nil
	}
	matched, ok := e.matchChoice(q, label)
	if !ok {
		return []chat.Outgoing{{Text: msgChoiceExpected}, e.promptQuestion(sess)}, nil
	}
	return e.saveAnswer(ctx, sess, q, matched)
}

// matchChoice returns the canonical configured label for the input, so the
// stored answer always uses the configured spelling.
func (e *Engine) matchChoice(q *screening.Question, input string) (string, bool) {
	for _, label := range q.Choices {
		if label == input {
			return label, true
		}
		if e.cfg.CaseInsensitiveChoices && strings.EqualFold(label, input) {
			return label, true
		}
	}
	return "", false
}

// saveAnswer persists the answer and advances the flow. The session is only
// mutated after the store write succeeds, so a persistence failure leaves
// the conversation exactly where it was and a retry is a clean upsert.
func (e *Engine) saveAnswer(ctx context.Context, sess *Session, q *screening.Question, value string) ([]chat.Outgoing, error) {
	answers := cloneAnswers(sess.Answers)
	answers[q.ID] = value
	now := e.now()

	if sess.State == StateEditing {
		state := screening.InteractionReview
		upd := screening.InteractionUpdate{Answers: answers, State: &state, LastActive: &now}
		if err := e.store.UpdateInteraction(ctx, sess.InteractionID, upd); err != nil {
			return nil, err
		}
		sess.Answers = answers
		sess.State = StateReview
		return []chat.Outgoing{e.renderReview(sess)}, nil
	}

	if sess.Current+1 < len(sess.Questions) {
		// Writing started revives a record the idle sweep force-paused, so
		// the pending reminder stays quiet while the candidate is active.
		next := sess.Questions[sess.Current+1]
		step := sess.Current + 1
		state := screening.InteractionStarted
		upd := screening.InteractionUpdate{
			CurrentQuestionID: &next.ID,
			Step:              &step,
			Answers:           answers,
			State:             &state,
			LastActive:        &now,
		}
		if err := e.store.UpdateInteraction(ctx, sess.InteractionID, upd); err != nil {
			return nil, err
		}
		sess.Answers = answers
		sess.Current++
		return []chat.Outgoing{e.promptQuestion(sess)}, nil
	}

	// Last question answered: enter review. Step is parked one past the end
	// so a resume lands back on the review screen.
	step := len(sess.Questions)
	state := screening.InteractionReview
	upd := screening.InteractionUpdate{
		Step:       &step,
		Answers:    answers,
		State:      &state,
		LastActive: &now,
	}
	if err := e.store.UpdateInteraction(ctx, sess.InteractionID, upd); err != nil {
		return nil, err
	}
	sess.Answers = answers
	sess.State = StateReview
	sess.ReviewPage = 0
	return []chat.Outgoing{e.renderReview(sess)}, nil
}

// next advances past the current question without recording an answer, for
// purely informational steps.
func (e *Engine) next(ctx context.Context, sess *Session) ([]chat.Outgoing, error) {
	now := e.now()

	if sess.Current+1 < len(sess.Questions) {
		next := sess.Questions[sess.Current+1]
		step := sess.Current + 1
		state := screening.InteractionStarted
		upd := screening.InteractionUpdate{CurrentQuestionID: &next.ID, Step: &step, State: &state, LastActive: &now}
		if err := e.store.UpdateInteraction(ctx, sess.InteractionID, upd); err != nil {
			return nil, err
		}
		sess.Current++
		return []chat.Outgoing{e.promptQuestion(sess)}, nil
	}

	step := len(sess.Questions)
	state := screening.InteractionReview
	upd := screening.InteractionUpdate{Step: &step, State: &state, LastActive: &now}
	if err := e.store.UpdateInteraction(ctx, sess.InteractionID, upd); err != nil {
		return nil, err
	}
	sess.State = StateReview
	sess.ReviewPage = 0
	return []chat.Outgoing{e.renderReview(sess)}, nil
}

func (e *Engine) edit(sess *Session, questionID string) ([]chat.Outgoing, error) {
	idx := sess.indexOf(questionID)
	if idx < 0 {
		return []chat.Outgoing{e.renderReview(sess)}, nil
	}
	sess.State = StateEditing
	sess.Current = idx
	return []chat.Outgoing{e.promptQuestion(sess)}, nil
}

func (e *Engine) cancel(ctx context.Context, sess *Session) ([]chat.Outgoing, error) {
	now := e.now()
	state := screening.InteractionPaused
	upd := screening.InteractionUpdate{State: &state, LastActive: &now}
	if err := e.store.UpdateInteraction(ctx, sess.InteractionID, upd); err != nil {
		return nil, err
	}

	if e.reminders != nil {
		e.reminders.Schedule(sess.ChatID, sess.ApplicationID)
	}
	e.dropSession(sess.ChatID)

	e.logger.Info("questionnaire paused",
		zap.Int64("chat_id", sess.ChatID),
		zap.String("application_id", sess.ApplicationID),
	)

	return []chat.Outgoing{{Text: msgCancelled}}, nil
}

func (e *Engine) submit(ctx context.Context, sess *Session) ([]chat.Outgoing, error) {
	err := e.store.CompleteSubmission(ctx, sess.ApplicationID, sess.InteractionID, e.now())
	if errors.Is(err, screening.ErrAlreadySubmitted) {
		e.dropSession(sess.ChatID)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if e.scoring != nil {
		e.scoring.Dispatch(sess.ApplicationID)
	}
	e.dropSession(sess.ChatID)

	e.logger.Info("questionnaire submitted",
		zap.Int64("chat_id", sess.ChatID),
		zap.String("application_id", sess.ApplicationID),
		zap.Int("answers", len(sess.Answers)),
	)

	return []chat.Outgoing{{Text: msgSubmitted}}, nil
}

// errorText maps engine errors to candidate-facing messages. Unrecognized
// errors are treated as transient: the state was not advanced, a retry is
// safe.
func errorText(err error) string {
	switch {
	case errors.Is(err, ErrCandidateNotFound):
		return msgNotRegistered
	case errors.Is(err, ErrNoActiveApplication):
		return msgNoActiveApplication
	case errors.Is(err, ErrNoQuestions):
		return msgNoQuestions
	case errors.Is(err, ErrNoSession):
		return msgNoSession
	case errors.Is(err, screening.ErrAlreadySubmitted):
		return msgAlreadySubmitted
	case errors.Is(err, screening.ErrNotFound), errors.Is(err, screening.ErrFrozen):
		return msgConversationLost
	default:
		return msgTryLater
	}
}
