package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ovoronin/hireloop/internal/screening"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func seedApplication(t *testing.T, s *Store) (*screening.Candidate, *screening.Vacancy, *screening.Application) {
	t.Helper()
	ctx := context.Background()

	cand := &screening.Candidate{FullName: "Alice Petrova", ChatID: 100}
	if err := s.CreateCandidate(ctx, cand); err != nil {
		t.Fatalf("create candidate: %v", err)
	}

	vacancy := &screening.Vacancy{Title: "Go Developer"}
	if err := s.CreateVacancy(ctx, vacancy); err != nil {
		t.Fatalf("create vacancy: %v", err)
	}

	app := &screening.Application{CandidateID: cand.ID, VacancyID: vacancy.ID}
	if err := s.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}

	return cand, vacancy, app
}

func TestCandidateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	birth := time.Date(1991, time.March, 12, 0, 0, 0, 0, time.UTC)
	relocate := false
	cand := &screening.Candidate{
		FullName:        "Alice Petrova",
		ChatID:          100,
		City:            "Moscow",
		BirthDate:       &birth,
		RelocationReady: &relocate,
	}
	if err := s.CreateCandidate(ctx, cand); err != nil {
		t.Fatalf("create candidate: %v", err)
	}

	got, err := s.CandidateByChatID(ctx, 100)
	if err != nil {
		t.Fatalf("candidate by chat id: %v", err)
	}
	if got.ID != cand.ID || got.FullName != "Alice Petrova" || got.City != "Moscow" {
		t.Fatalf("unexpected candidate: %+v", got)
	}
	if got.BirthDate == nil || !got.BirthDate.Equal(birth) {
		t.Fatalf("unexpected birth date: %v", got.BirthDate)
	}
	if got.RelocationReady == nil || *got.RelocationReady {
		t.Fatalf("unexpected relocation flag: %v", got.RelocationReady)
	}

	if _, err := s.CandidateByChatID(ctx, 999); !errors.Is(err, screening.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenClaim(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cand, _, _ := seedApplication(t, s)

	token, err := s.CreateToken(ctx, cand.ID)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	claimed, err := s.ClaimToken(ctx, token, 777)
	if err != nil {
		t.Fatalf("claim token: %v", err)
	}
	if claimed.ID != cand.ID || claimed.ChatID != 777 {
		t.Fatalf("unexpected claimed candidate: %+v", claimed)
	}

	// One-time: a second claim fails.
	if _, err := s.ClaimToken(ctx, token, 778); !errors.Is(err, screening.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on reuse, got %v", err)
	}
}

func TestQuestionsOrderedByPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, vacancy, _ := seedApplication(t, s)

	for _, q := range []*screening.Question{
		{VacancyID: vacancy.ID, Order: 2, Text: "second", Format: screening.FormatText},
		{VacancyID: vacancy.ID, Order: 1, Text: "first", Format: screening.FormatChoice, Choices: []string{"Yes", "No"}},
		{VacancyID: vacancy.ID, Order: 3, Text: "third", Format: screening.FormatFile},
	} {
		if err := s.CreateQuestion(ctx, q); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}

	questions, err := s.QuestionsByVacancy(ctx, vacancy.ID)
	if err != nil {
		t.Fatalf("questions by vacancy: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	for i, text := range []string{"first", "second", "third"} {
		if questions[i].Text != text {
			t.Fatalf("expected %q at position %d, got %q", text, i, questions[i].Text)
		}
	}
	if len(questions[0].Choices) != 2 || questions[0].Choices[0] != "Yes" {
		t.Fatalf("unexpected choices: %v", questions[0].Choices)
	}
}

func TestInteractionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cand, vacancy, app := seedApplication(t, s)

	inter := &screening.Interaction{
		CandidateID:   cand.ID,
		ApplicationID: app.ID,
		VacancyID:     vacancy.ID,
		Answers:       map[string]string{"q1": "hello"},
	}
	if err := s.CreateInteraction(ctx, inter); err != nil {
		t.Fatalf("create interaction: %v", err)
	}

	got, err := s.InteractionByApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("interaction by application: %v", err)
	}
	if got.State != screening.InteractionStarted || got.Version != 1 {
		t.Fatalf("unexpected interaction: %+v", got)
	}
	if got.Answers["q1"] != "hello" {
		t.Fatalf("unexpected answers: %v", got.Answers)
	}

	step := 2
	state := screening.InteractionReview
	if err := s.UpdateInteraction(ctx, got.ID, screening.InteractionUpdate{
		Step:    &step,
		State:   &state,
		Answers: map[string]string{"q1": "hello", "q2": "world"},
	}); err != nil {
		t.Fatalf("update interaction: %v", err)
	}

	got, err = s.InteractionByApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("reload interaction: %v", err)
	}
	if got.Step != 2 || got.State != screening.InteractionReview || got.Version != 2 {
		t.Fatalf("unexpected updated interaction: %+v", got)
	}
	if got.Answers["q2"] != "world" {
		t.Fatalf("unexpected answers after update: %v", got.Answers)
	}
}

func TestUpdateCompletedInteractionIsFrozen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cand, vacancy, app := seedApplication(t, s)

	inter := &screening.Interaction{CandidateID: cand.ID, ApplicationID: app.ID, VacancyID: vacancy.ID}
	if err := s.CreateInteraction(ctx, inter); err != nil {
		t.Fatalf("create interaction: %v", err)
	}
	if err := s.CompleteSubmission(ctx, app.ID, inter.ID, time.Now().UTC()); err != nil {
		t.Fatalf("complete submission: %v", err)
	}

	step := 1
	err := s.UpdateInteraction(ctx, inter.ID, screening.InteractionUpdate{Step: &step})
	if !errors.Is(err, screening.ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
}

func TestCompleteSubmissionIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cand, vacancy, app := seedApplication(t, s)

	inter := &screening.Interaction{CandidateID: cand.ID, ApplicationID: app.ID, VacancyID: vacancy.ID}
	if err := s.CreateInteraction(ctx, inter); err != nil {
		t.Fatalf("create interaction: %v", err)
	}

	now := time.Now().UTC()
	if err := s.CompleteSubmission(ctx, app.ID, inter.ID, now); err != nil {
		t.Fatalf("first submission: %v", err)
	}

	got, err := s.ApplicationByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("application by id: %v", err)
	}
	if got.Status != screening.ApplicationReview {
		t.Fatalf("expected review status, got %s", got.Status)
	}

	reloaded, err := s.InteractionByApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("reload interaction: %v", err)
	}
	if reloaded.State != screening.InteractionCompleted || reloaded.CompletedAt == nil {
		t.Fatalf("expected completed interaction, got %+v", reloaded)
	}

	if err := s.CompleteSubmission(ctx, app.ID, inter.ID, now); !errors.Is(err, screening.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}

	// The submitted application is no longer active.
	if _, err := s.ActiveApplicationByCandidate(ctx, cand.ID); !errors.Is(err, screening.ErrNotFound) {
		t.Fatalf("expected no active application, got %v", err)
	}
}

func TestUpdateBumpsVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cand, vacancy, app := seedApplication(t, s)

	inter := &screening.Interaction{CandidateID: cand.ID, ApplicationID: app.ID, VacancyID: vacancy.ID}
	if err := s.CreateInteraction(ctx, inter); err != nil {
		t.Fatalf("create interaction: %v", err)
	}

	for want := int64(2); want <= 3; want++ {
		step := int(want)
		if err := s.UpdateInteraction(ctx, inter.ID, screening.InteractionUpdate{Step: &step}); err != nil {
			t.Fatalf("update interaction: %v", err)
		}
		loaded, err := s.InteractionByID(ctx, inter.ID)
		if err != nil {
			t.Fatalf("load interaction: %v", err)
		}
		if loaded.Version != want {
			t.Fatalf("expected version %d, got %d", want, loaded.Version)
		}
	}
}

func TestRemindersUpsertAndPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	due := time.Now().UTC().Add(time.Minute)
	if err := s.UpsertReminder(ctx, 100, "app-1", due); err != nil {
		t.Fatalf("upsert reminder: %v", err)
	}
	// Scheduling again replaces the pending reminder.
	later := due.Add(time.Hour)
	if err := s.UpsertReminder(ctx, 100, "app-2", later); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	pending, err := s.PendingReminders(ctx)
	if err != nil {
		t.Fatalf("pending reminders: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending reminder, got %d", len(pending))
	}
	if pending[0].ApplicationID != "app-2" || !pending[0].DueAt.Equal(later) {
		t.Fatalf("unexpected reminder: %+v", pending[0])
	}

	if err := s.DeleteReminder(ctx, 100); err != nil {
		t.Fatalf("delete reminder: %v", err)
	}
	pending, err = s.PendingReminders(ctx)
	if err != nil {
		t.Fatalf("pending after delete: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no reminders, got %d", len(pending))
	}
}

func TestResultsAndNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cand, _, app := seedApplication(t, s)

	result := &screening.AnalysisResult{
		CandidateID:   cand.ID,
		ApplicationID: app.ID,
		Source:        screening.ResultSourceQuestionnaire,
		Score:         7.5,
		Summary:       "Solid",
	}
	if err := s.CreateResult(ctx, result); err != nil {
		t.Fatalf("create result: %v", err)
	}

	results, err := s.ResultsByApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("results by application: %v", err)
	}
	if len(results) != 1 || results[0].Score != 7.5 || results[0].Decision != screening.DecisionPending {
		t.Fatalf("unexpected results: %+v", results)
	}

	notification := &screening.HRNotification{CandidateID: cand.ID, Payload: `{"score":7.5}`}
	if err := s.CreateNotification(ctx, notification); err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if notification.Channel != "telegram" || notification.Status != "sent" {
		t.Fatalf("expected defaults applied, got %+v", notification)
	}
}

func TestSaveResumeProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cand, _, _ := seedApplication(t, s)

	name := "Alice Petrova"
	data := &screening.ResumeData{Name: &name, Skills: []string{"Go"}}
	if err := s.SaveResumeProfile(ctx, cand.ID, data); err != nil {
		t.Fatalf("save resume profile: %v", err)
	}

	var resumeText string
	if err := s.db.QueryRowContext(ctx, `SELECT resume_text FROM candidates WHERE id = $1`, cand.ID).Scan(&resumeText); err != nil {
		t.Fatalf("read resume text: %v", err)
	}
	if resumeText != data.Summary() {
		t.Fatalf("unexpected resume text: %q", resumeText)
	}
}
