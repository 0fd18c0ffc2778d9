// Package scoring turns a submitted questionnaire into a persisted analysis
// result and an HR notification. Scoring is best-effort: a missing or failing
// scorer degrades to a zero score, never to a lost submission.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/chat"
	"github.com/ovoronin/hireloop/internal/screening"
)

// Assessment is the scorer's verdict on one questionnaire.
type Assessment struct {
	Score   float64
	Summary string
	Raw     string
}

// Scorer evaluates a questionnaire document.
type Scorer interface {
	Score(ctx context.Context, document string) (*Assessment, error)
}

type Store interface {
	ApplicationByID(ctx context.Context, id string) (*screening.Application, error)
	CandidateByID(ctx context.Context, id string) (*screening.Candidate, error)
	VacancyByID(ctx context.Context, id string) (*screening.Vacancy, error)
	QuestionsByVacancy(ctx context.Context, vacancyID string) ([]screening.Question, error)
	InteractionByApplication(ctx context.Context, applicationID string) (*screening.Interaction, error)
	CreateResult(ctx context.Context, r *screening.AnalysisResult) error
	CreateNotification(ctx context.Context, n *screening.HRNotification) error
}

type Config struct {
	// HRChatID is the chat that receives result notifications. Zero disables
	// direct delivery; results are still persisted.
	HRChatID int64
	// Timeout bounds one background scoring run.
	Timeout time.Duration
}

const defaultTimeout = 2 * time.Minute

type Dispatcher struct {
	store  Store
	scorer Scorer
	sender chat.Sender
	cfg    Config
	logger *zap.Logger

	wg sync.WaitGroup
}

func NewDispatcher(store Store, scorer Scorer, sender chat.Sender, cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		store:  store,
		scorer: scorer,
		sender: sender,
		cfg:    cfg,
		logger: logger,
	}
}

// Dispatch schedules a scoring run in the background. Failures are logged,
// not surfaced: the submission has already been accepted.
func (d *Dispatcher) Dispatch(applicationID string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
		defer cancel()
		if err := d.Process(ctx, applicationID); err != nil {
			d.logger.Error("scoring run failed",
				zap.String("application_id", applicationID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until in-flight scoring runs finish. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Process scores one submitted application synchronously.
func (d *Dispatcher) Process(ctx context.Context, applicationID string) error {
	app, err := d.store.ApplicationByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("load application: %w", err)
	}
	candidate, err := d.store.CandidateByID(ctx, app.CandidateID)
	if err != nil {
		return fmt.Errorf("load candidate: %w", err)
	}
	vacancy, err := d.store.VacancyByID(ctx, app.VacancyID)
	if err != nil {
		return fmt.Errorf("load vacancy: %w", err)
	}
	questions, err := d.store.QuestionsByVacancy(ctx, app.VacancyID)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	interaction, err := d.store.InteractionByApplication(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("load interaction: %w", err)
	}

	document := BuildDocument(vacancy, questions, interaction.Answers)

	result := &screening.AnalysisResult{
		CandidateID:   app.CandidateID,
		ApplicationID: app.ID,
		Source:        screening.ResultSourceQuestionnaire,
		Decision:      screening.DecisionPending,
	}

	if d.scorer != nil {
		assessment, err := d.scorer.Score(ctx, document)
		if err != nil {
			d.logger.Warn("scorer unavailable, recording zero score",
				zap.String("application_id", app.ID),
				zap.Error(err),
			)
		} else {
			result.Score = assessment.Score
			result.Summary = assessment.Summary
		}
	}

	if err := d.store.CreateResult(ctx, result); err != nil {
		return err
	}

	d.logger.Info("questionnaire scored",
		zap.String("application_id", app.ID),
		zap.String("candidate_id", app.CandidateID),
		zap.Float64("score", result.Score),
	)

	return d.notify(ctx, candidate, vacancy, result)
}

func (d *Dispatcher) notify(ctx context.Context, candidate *screening.Candidate, vacancy *screening.Vacancy, result *screening.AnalysisResult) error {
	payload, err := json.Marshal(map[string]any{
		"candidate_id":   candidate.ID,
		"candidate_name": candidate.FullName,
		"vacancy":        vacancy.Title,
		"application_id": result.ApplicationID,
		"score":          result.Score,
		"summary":        result.Summary,
	})
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	notification := &screening.HRNotification{
		CandidateID: candidate.ID,
		Payload:     string(payload),
	}
	if err := d.store.CreateNotification(ctx, notification); err != nil {
		return err
	}

	if d.cfg.HRChatID == 0 || d.sender == nil {
		return nil
	}

	text := fmt.Sprintf("New screening result\nCandidate: %s\nVacancy: %s\nScore: %.1f",
		candidate.FullName, vacancy.Title, result.Score)
	if result.Summary != "" {
		text += "\n\n" + result.Summary
	}
	if err := d.sender.Send(ctx, d.cfg.HRChatID, chat.Outgoing{Text: text}); err != nil {
		d.logger.Error("notify hr chat", zap.Error(err))
	}
	return nil
}

// BuildDocument renders the questionnaire into the plain-text document the
// scorer evaluates. Skipped questions keep their slot with a stand-in answer
// so the model sees the full questionnaire shape.
func BuildDocument(vacancy *screening.Vacancy, questions []screening.Question, answers map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vacancy: %s\n", vacancy.Title)
	if vacancy.Description != "" {
		fmt.Fprintf(&b, "%s\n", vacancy.Description)
	}
	b.WriteString("\nQuestionnaire:\n")

	for _, q := range questions {
		answer := answers[q.ID]
		switch {
		case answer == "":
			answer = screening.NoAnswer
		case strings.HasPrefix(answer, screening.FileAnswerPrefix):
			answer = "(file attached: " + strings.TrimPrefix(answer, screening.FileAnswerPrefix) + ")"
		}
		fmt.Fprintf(&b, "%d. %s\nAnswer: %s\n", q.Order, q.Text, answer)
		if q.ForScreening && q.ScreeningPrompt != "" {
			fmt.Fprintf(&b, "Evaluation hint: %s\n", q.ScreeningPrompt)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
