package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestScorerScore(t *testing.T) {
	stub := &stubGenerator{response: `{"score": 8.5, "summary": "Strong candidate"}`}
	scorer := NewScorer(stub, zap.NewNop(), 0)

	assessment, err := scorer.Score(context.Background(), "Vacancy: Go Developer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if assessment.Score != 8.5 {
		t.Fatalf("expected score 8.5, got %v", assessment.Score)
	}
	if assessment.Summary != "Strong candidate" {
		t.Fatalf("unexpected summary: %s", assessment.Summary)
	}
	if assessment.Raw == "" {
		t.Fatalf("expected raw response to be kept")
	}
	if !strings.Contains(stub.lastPrompt, "Vacancy: Go Developer") {
		t.Fatalf("expected document in prompt, got: %s", stub.lastPrompt)
	}
}

func TestScorerGeneratorError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("quota exceeded")}
	scorer := NewScorer(stub, zap.NewNop(), 0)

	if _, err := scorer.Score(context.Background(), "doc"); err == nil {
		t.Fatalf("expected generator error to surface")
	}
}

func TestParseAssessment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		score   float64
		summary string
	}{
		{
			name:    "plain json",
			raw:     `{"score": 7, "summary": "ok"}`,
			score:   7,
			summary: "ok",
		},
		{
			name:  "json in code fence",
			raw:   "```json\n{\"score\": 4.5}\n```",
			score: 4.5,
		},
		{
			name:  "score as string",
			raw:   `{"score": "6.5"}`,
			score: 6.5,
		},
		{
			name:  "non-numeric score coerced to zero",
			raw:   `{"score": "not-a-number", "summary": "confused model"}`,
			score: 0, summary: "confused model",
		},
		{
			name:  "bare number",
			raw:   "8",
			score: 8,
		},
		{
			name:  "garbage",
			raw:   "I cannot rate this candidate.",
			score: 0,
		},
		{
			name:  "missing score",
			raw:   `{"summary": "no score field"}`,
			score: 0, summary: "no score field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseAssessment(tt.raw)
			if got.Score != tt.score {
				t.Fatalf("expected score %v, got %v", tt.score, got.Score)
			}
			if got.Summary != tt.summary {
				t.Fatalf("expected summary %q, got %q", tt.summary, got.Summary)
			}
		})
	}
}
