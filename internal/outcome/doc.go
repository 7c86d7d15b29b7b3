// Package outcome records per-item results of a download run. Every
// processed item produces exactly one record, collected in an in-memory
// append-only log for the run report and persisted to SQLite so later
// runs can skip items that already succeeded.
package outcome
