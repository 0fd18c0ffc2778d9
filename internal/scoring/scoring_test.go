package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/chat"
	"github.com/ovoronin/hireloop/internal/screening"
)

type fakeStore struct {
	application  *screening.Application
	candidate    *screening.Candidate
	vacancy      *screening.Vacancy
	questions    []screening.Question
	interaction  *screening.Interaction
	result       *screening.AnalysisResult
	notification *screening.HRNotification
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		application: &screening.Application{ID: "app-1", CandidateID: "cand-1", VacancyID: "vac-1", Status: screening.ApplicationReview},
		candidate:   &screening.Candidate{ID: "cand-1", FullName: "Alice Petrova"},
		vacancy:     &screening.Vacancy{ID: "vac-1", Title: "Go Developer", Description: "Backend role"},
		questions: []screening.Question{
			{ID: "q1", Order: 1, Text: "Tell us about yourself", Format: screening.FormatText},
			{ID: "q2", Order: 2, Text: "Years of Go?", Format: screening.FormatText, ForScreening: true, ScreeningPrompt: "3+ years is strong"},
			{ID: "q3", Order: 3, Text: "Attach your CV", Format: screening.FormatFile},
		},
		interaction: &screening.Interaction{
			ID:            "inter-1",
			ApplicationID: "app-1",
			Answers: map[string]string{
				"q1": "I build services",
				"q3": screening.FileAnswerPrefix + "file-123",
			},
			State: screening.InteractionCompleted,
		},
	}
}

func (f *fakeStore) ApplicationByID(context.Context, string) (*screening.Application, error) {
	return f.application, nil
}

func (f *fakeStore) CandidateByID(context.Context, string) (*screening.Candidate, error) {
	return f.candidate, nil
}

func (f *fakeStore) VacancyByID(context.Context, string) (*screening.Vacancy, error) {
	return f.vacancy, nil
}

func (f *fakeStore) QuestionsByVacancy(context.Context, string) ([]screening.Question, error) {
	return f.questions, nil
}

func (f *fakeStore) InteractionByApplication(context.Context, string) (*screening.Interaction, error) {
	return f.interaction, nil
}

func (f *fakeStore) CreateResult(_ context.Context, r *screening.AnalysisResult) error {
	f.result = r
	return nil
}

func (f *fakeStore) CreateNotification(_ context.Context, n *screening.HRNotification) error {
	f.notification = n
	return nil
}

type stubScorer struct {
	assessment *Assessment
	err        error
	document   string
}

func (s *stubScorer) Score(_ context.Context, document string) (*Assessment, error) {
	s.document = document
	if s.err != nil {
		return nil, s.err
	}
	return s.assessment, nil
}

type recordingSender struct {
	chatID int64
	text   string
}

func (r *recordingSender) Send(_ context.Context, chatID int64, out chat.Outgoing) error {
	r.chatID = chatID
	r.text = out.Text
	return nil
}

func TestProcessPersistsResultAndNotifies(t *testing.T) {
	store := newFakeStore()
	scorer := &stubScorer{assessment: &Assessment{Score: 7.5, Summary: "Solid Go background"}}
	sender := &recordingSender{}
	d := NewDispatcher(store, scorer, sender, Config{HRChatID: 42}, zap.NewNop())

	if err := d.Process(context.Background(), "app-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.result == nil {
		t.Fatalf("expected a persisted result")
	}
	if store.result.Score != 7.5 {
		t.Fatalf("expected score 7.5, got %v", store.result.Score)
	}
	if store.result.Source != screening.ResultSourceQuestionnaire {
		t.Fatalf("unexpected source: %s", store.result.Source)
	}
	if store.result.Decision != screening.DecisionPending {
		t.Fatalf("unexpected decision: %s", store.result.Decision)
	}

	if store.notification == nil {
		t.Fatalf("expected a persisted notification")
	}
	if !strings.Contains(store.notification.Payload, "Solid Go background") {
		t.Fatalf("expected summary in payload, got: %s", store.notification.Payload)
	}

	if sender.chatID != 42 {
		t.Fatalf("expected delivery to hr chat, got %d", sender.chatID)
	}
	if !strings.Contains(sender.text, "Alice Petrova") || !strings.Contains(sender.text, "7.5") {
		t.Fatalf("unexpected notification text: %s", sender.text)
	}
}

func TestProcessScorerFailureRecordsZero(t *testing.T) {
	store := newFakeStore()
	scorer := &stubScorer{err: errors.New("model unavailable")}
	d := NewDispatcher(store, scorer, nil, Config{}, zap.NewNop())

	if err := d.Process(context.Background(), "app-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.result == nil || store.result.Score != 0 {
		t.Fatalf("expected zero score on scorer failure, got %+v", store.result)
	}
}

func TestProcessWithoutScorer(t *testing.T) {
	store := newFakeStore()
	d := NewDispatcher(store, nil, nil, Config{}, zap.NewNop())

	if err := d.Process(context.Background(), "app-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.result == nil || store.result.Score != 0 {
		t.Fatalf("expected zero score without scorer, got %+v", store.result)
	}
}

func TestBuildDocument(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	doc := BuildDocument(store.vacancy, store.questions, store.interaction.Answers)

	if !strings.Contains(doc, "Vacancy: Go Developer") {
		t.Fatalf("expected vacancy title, got: %s", doc)
	}
	if !strings.Contains(doc, "1. Tell us about yourself\nAnswer: I build services") {
		t.Fatalf("expected first answer, got: %s", doc)
	}
	// The skipped question keeps its slot.
	if !strings.Contains(doc, "2. Years of Go?\nAnswer: "+screening.NoAnswer) {
		t.Fatalf("expected no-answer substitution, got: %s", doc)
	}
	if !strings.Contains(doc, "Evaluation hint: 3+ years is strong") {
		t.Fatalf("expected screening hint, got: %s", doc)
	}
	if !strings.Contains(doc, "(file attached: file-123)") {
		t.Fatalf("expected file marker, got: %s", doc)
	}
}
