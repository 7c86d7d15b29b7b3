// Package services defines the shared error taxonomy for the automation
// pipeline. Sentinel markers distinguish fatal initialization failures,
// per-item recoverable failures, and transient conditions, and every error
// produced by a workflow edge is tagged with exactly one marker so the
// outcome log can record the failure kind verbatim.
package services
