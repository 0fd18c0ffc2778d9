package gemini

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/logger"
	"github.com/ovoronin/hireloop/internal/scoring"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Scorer evaluates questionnaire documents with Gemini.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewScorer(generator contentGenerator, log *zap.Logger, maxLogLength int) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Scorer{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

func (s *Scorer) Score(ctx context.Context, document string) (*scoring.Assessment, error) {
	prompt := buildPrompt(document)

	s.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, s.maxLogLen)),
	)

	assessment := ParseAssessment(raw)
	assessment.Raw = raw
	return assessment, nil
}

func buildPrompt(document string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Evaluate the questionnaire below and answer with JSON {\"score\": <0-10>, \"summary\": \"...\"}.\n\n{{DOCUMENT}}"
	}
	return strings.ReplaceAll(template, "{{DOCUMENT}}", document)
}

// ParseAssessment extracts a score and summary from a model response. The
// model is untrusted: anything that does not yield a number becomes a zero
// score rather than an error.
func ParseAssessment(raw string) *scoring.Assessment {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err == nil {
		score := coerceFloat(data["score"])
		if math.IsNaN(score) {
			score = 0
		}
		return &scoring.Assessment{
			Score:   score,
			Summary: coerceString(data["summary"]),
		}
	}

	// Some models reply with a bare number.
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return &scoring.Assessment{Score: f}
	}

	return &scoring.Assessment{}
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(bytes)
	}
}
