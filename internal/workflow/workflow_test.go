package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"subseek/internal/browser/browsertest"
	"subseek/internal/catalog"
	"subseek/internal/resolver"
	"subseek/internal/services"
)

func testRoles(t *testing.T) *resolver.Resolver {
	t.Helper()
	r, err := resolver.New([]resolver.Role{
		{Name: resolver.RoleSubtitleControl, Strategies: []resolver.Locator{resolver.ByQuery("subtitle-btn")}},
		{Name: resolver.RoleSearchTrigger, Strategies: []resolver.Locator{resolver.ByQuery("search-btn")}},
		{Name: resolver.RoleResultRow, Strategies: []resolver.Locator{resolver.ByQuery("result-row")}},
		{Name: resolver.RoleDownloadControl, Strategies: []resolver.Locator{resolver.ByQuery("download-btn")}},
		{Name: resolver.RoleDownloadConfirmation, Strategies: []resolver.Locator{resolver.ByQuery("toast")}},
	}, resolver.Options{
		PerAttemptWait: 20 * time.Millisecond,
		PollInterval:   2 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("resolver.New: %v", err)
	}
	return r
}

func newWorkflow(t *testing.T, sess *browsertest.Session) *ItemWorkflow {
	t.Helper()
	return NewItemWorkflow(ItemConfig{
		Session:         sess,
		Resolver:        testRoles(t),
		Languages:       []string{"en"},
		Retry:           RetryPolicy{MaxAttempts: 2, PerAttemptTimeout: 200 * time.Millisecond},
		ElementTimeout:  30 * time.Millisecond,
		DownloadTimeout: 30 * time.Millisecond,
	})
}

func starElement(id string, filled bool) *browsertest.Element {
	class := "star-outline"
	if filled {
		class = "star-filled"
	}
	return &browsertest.Element{ID: id, Attrs: map[string]string{"class": class}}
}

func resultRow(id, lang, downloads string, filledStars int, withControl bool) *browsertest.Element {
	stars := make([]*browsertest.Element, 0, 5)
	for i := 0; i < 5; i++ {
		stars = append(stars, starElement(id+"-star", i < filledStars))
	}
	row := &browsertest.Element{
		ID:    id,
		Attrs: map[string]string{"data-language": lang, "data-downloads": downloads},
		Children: map[string][]*browsertest.Element{
			starQuery: stars,
		},
	}
	if withControl {
		row.Children["download-btn"] = []*browsertest.Element{{ID: id + "-dl"}}
	}
	return row
}

// happySession scripts a page where every edge succeeds. The
// confirmation toast appears only after the download control is clicked.
func happySession(rows ...*browsertest.Element) *browsertest.Session {
	sess := browsertest.New()
	sess.Elements["subtitle-btn"] = []*browsertest.Element{{ID: "sub"}}
	sess.Elements["search-btn"] = []*browsertest.Element{{ID: "search"}}
	sess.Elements["result-row"] = rows
	sess.ClickHook = func(e *browsertest.Element) {
		if len(e.ID) > 3 && e.ID[len(e.ID)-3:] == "-dl" {
			sess.Elements["toast"] = []*browsertest.Element{{ID: "toast"}}
		}
	}
	return sess
}

func testItem(key, title string) catalog.Item {
	return catalog.Item{
		Key:              key,
		Title:            title,
		MediaType:        catalog.MediaTypeMovie,
		DetailURL:        "http://plex.local/web/index.html#!/server/x/details?key=/library/metadata/" + key,
		MissingLanguages: []string{"en"},
	}
}

func TestProcessHappyPath(t *testing.T) {
	sess := happySession(
		resultRow("row1", "en", "100", 3, true),
		resultRow("row2", "en", "10", 5, true),
		resultRow("row3", "es", "1000", 5, true),
	)
	wf := newWorkflow(t, sess)
	item := testItem("101", "Heat")

	rec, err := wf.Process(context.Background(), &item)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !rec.Succeeded {
		t.Fatalf("expected success, got kind %q", rec.ErrorKind)
	}
	if item.Status != catalog.StatusSucceeded {
		t.Fatalf("item status = %q", item.Status)
	}
	if rec.Selected == nil || rec.Selected.Language != "en" || rec.Selected.Rating != 5 {
		t.Fatalf("wrong candidate selected: %+v", rec.Selected)
	}
	// Highest-rated English row wins over the higher-download Spanish one.
	if got := sess.Clicks; len(got) != 3 || got[0] != "sub" || got[1] != "search" || got[2] != "row2-dl" {
		t.Fatalf("unexpected click sequence %v", got)
	}
	if len(sess.Navigations) != 1 || sess.Navigations[0] != item.DetailURL {
		t.Fatalf("unexpected navigations %v", sess.Navigations)
	}
	if rec.Timestamp.IsZero() {
		t.Fatal("record must carry a timestamp")
	}
}

func TestProcessClicksRowWithoutDownloadControl(t *testing.T) {
	row := resultRow("row1", "en", "50", 4, false)
	sess := happySession(row)
	sess.ClickHook = func(e *browsertest.Element) {
		if e.ID == "row1" {
			sess.Elements["toast"] = []*browsertest.Element{{ID: "toast"}}
		}
	}
	wf := newWorkflow(t, sess)
	item := testItem("102", "Ronin")

	rec, err := wf.Process(context.Background(), &item)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !rec.Succeeded {
		t.Fatalf("expected success, got %q", rec.ErrorKind)
	}
	if got := sess.Clicks[len(sess.Clicks)-1]; got != "row1" {
		t.Fatalf("expected row click fallback, last click %q", got)
	}
}

func TestProcessNavigationFailureRetriesThenFails(t *testing.T) {
	sess := browsertest.New()
	item := testItem("103", "Alien")
	sess.NavigateErr[item.DetailURL] = errors.New("net::ERR_CONNECTION_REFUSED")
	wf := newWorkflow(t, sess)

	rec, err := wf.Process(context.Background(), &item)
	if err != nil {
		t.Fatalf("navigation failure must stay per-item, got %v", err)
	}
	if rec.Succeeded || rec.ErrorKind != "NavigationError" {
		t.Fatalf("got %+v, want NavigationError failure", rec)
	}
	if item.Status != catalog.StatusFailed {
		t.Fatalf("item status = %q", item.Status)
	}
	if len(sess.Navigations) != 2 {
		t.Fatalf("expected one retry, saw %d navigation attempts", len(sess.Navigations))
	}
}

func TestProcessMissingSubtitleControl(t *testing.T) {
	sess := browsertest.New()
	wf := newWorkflow(t, sess)
	item := testItem("104", "Brazil")

	rec, err := wf.Process(context.Background(), &item)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if rec.ErrorKind != "ElementNotFound" {
		t.Fatalf("kind = %q, want ElementNotFound", rec.ErrorKind)
	}
}

func TestProcessNoSearchResults(t *testing.T) {
	sess := happySession()
	wf := newWorkflow(t, sess)
	item := testItem("105", "Stalker")

	rec, err := wf.Process(context.Background(), &item)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if rec.ErrorKind != "NoResultsFound" {
		t.Fatalf("kind = %q, want NoResultsFound", rec.ErrorKind)
	}
}

func TestProcessNoCandidateInRequestedLanguage(t *testing.T) {
	sess := happySession(
		resultRow("row1", "es", "1000", 5, true),
		resultRow("row2", "fr", "500", 4, true),
	)
	wf := newWorkflow(t, sess)
	item := testItem("106", "Ran")

	rec, err := wf.Process(context.Background(), &item)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if rec.ErrorKind != "NoResultsFound" {
		t.Fatalf("kind = %q, want NoResultsFound", rec.ErrorKind)
	}
}

func TestProcessDownloadConfirmationTimeout(t *testing.T) {
	sess := happySession(resultRow("row1", "en", "100", 4, true))
	sess.ClickHook = nil // toast never appears
	wf := newWorkflow(t, sess)
	item := testItem("107", "Solaris")

	rec, err := wf.Process(context.Background(), &item)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if rec.ErrorKind != "DownloadTimeout" {
		t.Fatalf("kind = %q, want DownloadTimeout", rec.ErrorKind)
	}
}

func TestProcessFatalErrorSurfaced(t *testing.T) {
	sess := browsertest.New()
	item := testItem("108", "Heat")
	sess.NavigateErr[item.DetailURL] = services.Wrap(services.ErrAuthentication, "browser", "session", "token expired", nil)
	wf := newWorkflow(t, sess)

	rec, err := wf.Process(context.Background(), &item)
	if err == nil || !services.IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if rec.ErrorKind != "AuthenticationError" {
		t.Fatalf("kind = %q, want AuthenticationError", rec.ErrorKind)
	}
}

func TestParseCandidateReadsRowMetadata(t *testing.T) {
	row := resultRow("row", "spa", "250", 2, true)
	row.Attrs["data-uploader"] = "subs4u"
	row.Attrs["data-release"] = "1080p.BluRay"
	sess := browsertest.New()

	cand := parseCandidate(context.Background(), sess, row, "en")
	if cand.Language != "es" {
		t.Fatalf("language = %q, want normalized es", cand.Language)
	}
	if cand.Rating != 2 {
		t.Fatalf("rating = %v, want filled star count 2", cand.Rating)
	}
	if cand.DownloadCount != 250 || cand.Uploader != "subs4u" || cand.ReleaseLabel != "1080p.BluRay" {
		t.Fatalf("metadata not parsed: %+v", cand)
	}
}

func TestParseCandidateFallsBackToDefaultLanguage(t *testing.T) {
	row := &browsertest.Element{ID: "bare"}
	sess := browsertest.New()

	cand := parseCandidate(context.Background(), sess, row, "en")
	if cand.Language != "en" {
		t.Fatalf("language = %q, want fallback en", cand.Language)
	}
	if cand.Rating != 0 {
		t.Fatalf("rating = %v, want 0 for unrated row", cand.Rating)
	}
}
