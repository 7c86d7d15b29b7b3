// Package logging constructs the shared slog logger and standardizes the
// structured field names used across the automation pipeline.
package logging
