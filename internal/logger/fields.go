package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider tags log entries with the scoring provider name.
	FieldProvider = "ai_provider"
	// FieldModel tags log entries with the model identifier.
	FieldModel = "ai_model"
)

// WithCommonFields returns a logger tagged with the scoring provider and
// model, so every entry of an assessment run is attributable. Blank values
// are skipped; a nil logger falls back to a no-op one.
func WithCommonFields(log *zap.Logger, provider, model string) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}

	fields := make([]zap.Field, 0, 2)
	if v := strings.TrimSpace(provider); v != "" {
		fields = append(fields, zap.String(FieldProvider, v))
	}
	if v := strings.TrimSpace(model); v != "" {
		fields = append(fields, zap.String(FieldModel, v))
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}
