package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the oracle provider name.
	FieldProvider = "oracle_provider"
	// FieldModel is the structured log field key for the oracle model identifier.
	FieldModel = "oracle_model"
	// FieldRunID identifies a single pipeline execution.
	FieldRunID = "run_id"
	// FieldSource is the adapter name a log entry belongs to.
	FieldSource = "source"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, falling back to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	logger = OrNop(logger)
	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// OracleFields describes the scoring oracle provider and model.
// Empty values are skipped.
func OracleFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithOracle attaches the oracle fields to logger.
func WithOracle(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, OracleFields(provider, model)...)
}

// WithRun attaches the run id to logger.
func WithRun(logger *zap.Logger, runID string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldRunID, Value: runID})...)
}

// WithSource returns a named child logger for a source adapter.
func WithSource(logger *zap.Logger, source string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldSource, Value: source})...)
}
