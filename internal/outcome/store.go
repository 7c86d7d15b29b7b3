package outcome

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the schema changes. Old databases report a
// mismatch instead of being migrated silently.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible
// version of the tool.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store persists outcome records across runs, backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the outcome database under stateDir.
func Open(stateDir string) (*Store, error) {
	dbPath := filepath.Join(stateDir, "subseek.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// RecordOutcome persists one record under the given run ID.
func (s *Store) RecordOutcome(ctx context.Context, runID string, rec Record) error {
	var (
		language, uploader, releaseLabel string
		rating                           float64
		downloads                        int
	)
	if rec.Selected != nil {
		language = rec.Selected.Language
		rating = rec.Selected.Rating
		uploader = rec.Selected.Uploader
		downloads = rec.Selected.DownloadCount
		releaseLabel = rec.Selected.ReleaseLabel
	}
	succeeded := 0
	if rec.Succeeded {
		succeeded = 1
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return s.execWithRetry(ctx, `
		INSERT INTO outcomes
			(run_id, item_key, title, media_type, detail_url, succeeded,
			 error_kind, language, rating, uploader, downloads, release_label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Item.Key, rec.Item.Title, string(rec.Item.MediaType), rec.Item.DetailURL,
		succeeded, rec.ErrorKind, language, rating, uploader, downloads, releaseLabel,
		ts.UTC().Format(time.RFC3339Nano))
}

// SucceededKeys returns the item keys that have at least one successful
// outcome on record. Runs consult this to skip already-handled items.
func (s *Store) SucceededKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT item_key FROM outcomes WHERE succeeded = 1")
	if err != nil {
		return nil, fmt.Errorf("query succeeded keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan item key: %w", err)
		}
		keys[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate succeeded keys: %w", err)
	}
	return keys, nil
}

// HistoryEntry is one persisted outcome row.
type HistoryEntry struct {
	RunID     string
	Title     string
	MediaType string
	Succeeded bool
	ErrorKind string
	Language  string
	Rating    float64
	CreatedAt time.Time
}

// History returns the most recent outcomes, newest first. A limit of
// zero or less returns everything.
func (s *Store) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	query := `
		SELECT run_id, title, media_type, succeeded, error_kind, language, rating, created_at
		FROM outcomes ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry     HistoryEntry
			succeeded int
			createdAt string
		)
		if err := rows.Scan(&entry.RunID, &entry.Title, &entry.MediaType,
			&succeeded, &entry.ErrorKind, &entry.Language, &entry.Rating, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entry.Succeeded = succeeded == 1
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			entry.CreatedAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
