package logging

import (
	"context"
	"log/slog"

	"subseek/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemKey is the standardized structured logging key for catalog item keys.
	FieldItemKey = "item_key"
	// FieldItemTitle is the standardized structured logging key for item display titles.
	FieldItemTitle = "item_title"
	// FieldRunID is the standardized structured logging key for coordinator run identifiers.
	FieldRunID = "run_id"
	// FieldState is the standardized structured logging key for workflow state names.
	FieldState = "state"
	// FieldRole is the standardized structured logging key for logical element roles.
	FieldRole = "role"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if key, ok := services.ItemKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldItemKey, key))
	}
	if title, ok := services.ItemTitleFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldItemTitle, title))
	}
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
