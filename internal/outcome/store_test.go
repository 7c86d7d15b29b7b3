package outcome

import (
	"context"
	"errors"
	"testing"
	"time"

	"subseek/internal/catalog"
	"subseek/internal/selector"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func movieItem(key, title string) catalog.Item {
	return catalog.Item{
		Key:       key,
		Title:     title,
		MediaType: catalog.MediaTypeMovie,
		DetailURL: "http://plex.local:32400/web/index.html#!/server/abc/details?key=/library/metadata/" + key,
	}
}

func TestStoreRecordAndHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	success := Record{
		Item:      movieItem("101", "Heat"),
		Succeeded: true,
		Selected: &selector.Candidate{
			Language:      "en",
			Rating:        4.5,
			Uploader:      "subs4u",
			DownloadCount: 900,
		},
		Timestamp: time.Now(),
	}
	failure := Record{
		Item:      movieItem("102", "Ronin"),
		ErrorKind: "ElementNotFound",
		Timestamp: time.Now(),
	}
	if err := store.RecordOutcome(ctx, "run-1", success); err != nil {
		t.Fatalf("RecordOutcome success: %v", err)
	}
	if err := store.RecordOutcome(ctx, "run-1", failure); err != nil {
		t.Fatalf("RecordOutcome failure: %v", err)
	}

	entries, err := store.History(ctx, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d history entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Title != "Ronin" || entries[0].Succeeded {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[0].ErrorKind != "ElementNotFound" {
		t.Fatalf("error kind not persisted: %+v", entries[0])
	}
	if entries[1].Title != "Heat" || !entries[1].Succeeded {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
	if entries[1].Language != "en" || entries[1].Rating != 4.5 {
		t.Fatalf("candidate fields not persisted: %+v", entries[1])
	}
	if entries[1].CreatedAt.IsZero() {
		t.Fatal("timestamp not persisted")
	}
}

func TestStoreHistoryLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		rec := Record{Item: movieItem("k", "Title"), Succeeded: true}
		if err := store.RecordOutcome(ctx, "run-1", rec); err != nil {
			t.Fatalf("RecordOutcome: %v", err)
		}
	}
	entries, err := store.History(ctx, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestStoreSucceededKeys(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordOutcome(ctx, "run-1", Record{Item: movieItem("101", "Heat"), Succeeded: true}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.RecordOutcome(ctx, "run-1", Record{Item: movieItem("102", "Ronin"), ErrorKind: "DownloadTimeout"}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	// A later failed attempt must not erase an earlier success.
	if err := store.RecordOutcome(ctx, "run-2", Record{Item: movieItem("101", "Heat"), ErrorKind: "NavigationError"}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	keys, err := store.SucceededKeys(ctx)
	if err != nil {
		t.Fatalf("SucceededKeys: %v", err)
	}
	if _, ok := keys["101"]; !ok {
		t.Fatal("expected key 101 to be recorded as succeeded")
	}
	if _, ok := keys["102"]; ok {
		t.Fatal("failed item must not appear in succeeded keys")
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.RecordOutcome(ctx, "run-1", Record{Item: movieItem("7", "Alien"), Succeeded: true}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	keys, err := reopened.SucceededKeys(ctx)
	if err != nil {
		t.Fatalf("SucceededKeys: %v", err)
	}
	if _, ok := keys["7"]; !ok {
		t.Fatal("data lost across reopen")
	}
}

func TestRunLockExcludesSecondHolder(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireRunLock(dir)
	if err != nil {
		t.Fatalf("AcquireRunLock: %v", err)
	}
	defer func() { _ = lock.Release() }()

	if _, err := AcquireRunLock(dir); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := AcquireRunLock(dir)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	_ = second.Release()
}

func TestLogViews(t *testing.T) {
	log := NewLog()
	log.Append(Record{Item: movieItem("1", "A"), Succeeded: true})
	log.Append(Record{Item: movieItem("2", "B"), ErrorKind: "NoResultsFound"})
	log.Append(Record{Item: movieItem("3", "C"), Succeeded: true})

	if log.Len() != 3 {
		t.Fatalf("Len = %d, want 3", log.Len())
	}
	if got := len(log.Successes()); got != 2 {
		t.Fatalf("Successes = %d, want 2", got)
	}
	if got := len(log.Failures()); got != 1 {
		t.Fatalf("Failures = %d, want 1", got)
	}
	records := log.Records()
	records[0].Item.Title = "mutated"
	if log.Records()[0].Item.Title != "A" {
		t.Fatal("Records must return a copy")
	}
}
