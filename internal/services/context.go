package services

import "context"

type contextKey int

const (
	itemKeyContextKey contextKey = iota
	itemTitleContextKey
	runIDContextKey
)

// WithItemKey annotates the context with the catalog key of the item
// currently in flight.
func WithItemKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, itemKeyContextKey, key)
}

// ItemKeyFromContext returns the in-flight item key, when present.
func ItemKeyFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(itemKeyContextKey).(string)
	return value, ok && value != ""
}

// WithItemTitle annotates the context with the display title of the item
// currently in flight.
func WithItemTitle(ctx context.Context, title string) context.Context {
	return context.WithValue(ctx, itemTitleContextKey, title)
}

// ItemTitleFromContext returns the in-flight item title, when present.
func ItemTitleFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(itemTitleContextKey).(string)
	return value, ok && value != ""
}

// WithRunID annotates the context with the coordinator run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDContextKey, id)
}

// RunIDFromContext returns the run identifier, when present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(runIDContextKey).(string)
	return value, ok && value != ""
}
