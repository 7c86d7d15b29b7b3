package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"subseek/internal/browser/browsertest"
	"subseek/internal/resolver"
	"subseek/internal/services"
)

func newResolver(t *testing.T, roles []resolver.Role) *resolver.Resolver {
	t.Helper()
	r, err := resolver.New(roles, resolver.Options{
		PerAttemptWait: 50 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestResolveTriesStrategiesInOrder(t *testing.T) {
	sess := browsertest.New()
	sess.Elements["second"] = []*browsertest.Element{{ID: "hit"}}
	sess.Elements["third"] = []*browsertest.Element{{ID: "never"}}

	r := newResolver(t, []resolver.Role{{
		Name: "target",
		Strategies: []resolver.Locator{
			resolver.ByQuery("first"),
			resolver.ByQuery("second"),
			resolver.ByQuery("third"),
		},
	}})

	h, err := r.Resolve(context.Background(), sess, "target", time.Second)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.Describe() != "hit" {
		t.Fatalf("resolved %q, want element from second strategy", h.Describe())
	}
	if sess.FindCount("first") == 0 {
		t.Fatal("first strategy was never tried")
	}
	if sess.FindCount("third") != 0 {
		t.Fatal("later strategy polled after an earlier one succeeded")
	}
}

func TestResolveWaitsForLateElement(t *testing.T) {
	sess := browsertest.New()
	sess.Elements["slow"] = []*browsertest.Element{{ID: "late"}}
	sess.AppearAfter["slow"] = 3

	r := newResolver(t, []resolver.Role{{
		Name:       "target",
		Strategies: []resolver.Locator{resolver.ByQuery("slow")},
	}})

	h, err := r.Resolve(context.Background(), sess, "target", time.Second)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.Describe() != "late" {
		t.Fatalf("resolved %q", h.Describe())
	}
	if sess.FindCount("slow") < 4 {
		t.Fatalf("expected repeated polls, got %d", sess.FindCount("slow"))
	}
}

func TestResolveExhaustsStrategiesWithElementNotFound(t *testing.T) {
	sess := browsertest.New()

	r := newResolver(t, []resolver.Role{{
		Name: "target",
		Strategies: []resolver.Locator{
			resolver.ByQuery("a"),
			resolver.ByQuery("b"),
		},
	}})

	_, err := r.Resolve(context.Background(), sess, "target", 300*time.Millisecond)
	if !errors.Is(err, services.ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatal("element resolution failure must stay per-item")
	}
	if sess.FindCount("a") == 0 || sess.FindCount("b") == 0 {
		t.Fatal("every strategy must be tried before giving up")
	}
}

func TestResolveHonorsBudget(t *testing.T) {
	sess := browsertest.New()

	r, err := resolver.New([]resolver.Role{{
		Name: "target",
		Strategies: []resolver.Locator{
			resolver.ByQuery("a"),
			resolver.ByQuery("b"),
			resolver.ByQuery("c"),
		},
	}}, resolver.Options{
		PerAttemptWait: 40 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	start := time.Now()
	_, err = r.Resolve(context.Background(), sess, "target", 60*time.Millisecond)
	elapsed := time.Since(start)
	if !errors.Is(err, services.ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound, got %v", err)
	}
	// Budget caps the walk: 60ms buys the 40ms first attempt plus a
	// truncated second one, never the full 120ms of three attempts.
	if elapsed > 110*time.Millisecond {
		t.Fatalf("resolution overran its budget, took %s", elapsed)
	}
	if sess.FindCount("c") != 0 {
		t.Fatal("third strategy should never start once the budget is spent")
	}
}

func TestResolveAllReturnsEveryMatch(t *testing.T) {
	sess := browsertest.New()
	sess.Elements["rows"] = []*browsertest.Element{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}}

	r := newResolver(t, []resolver.Role{{
		Name:       "rows",
		Strategies: []resolver.Locator{resolver.ByQuery("rows")},
	}})

	handles, err := r.ResolveAll(context.Background(), sess, "rows", time.Second)
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(handles) != 3 {
		t.Fatalf("got %d handles, want 3", len(handles))
	}
	if handles[0].Describe() != "r1" || handles[2].Describe() != "r3" {
		t.Fatal("handles out of document order")
	}
}

func TestResolveWithinScopesToParent(t *testing.T) {
	row := &browsertest.Element{
		ID: "row",
		Children: map[string][]*browsertest.Element{
			`button[class*="download"]`: {{ID: "dl"}},
		},
	}
	sess := browsertest.New()

	r := newResolver(t, []resolver.Role{{
		Name: resolver.RoleDownloadControl,
		Strategies: []resolver.Locator{
			resolver.ByQuery(`button[aria-label*="Download"]`),
			resolver.ByQuery(`button[class*="download"]`),
		},
	}})

	h, err := r.ResolveWithin(context.Background(), sess, row, resolver.RoleDownloadControl)
	if err != nil {
		t.Fatalf("ResolveWithin: %v", err)
	}
	if h.Describe() != "dl" {
		t.Fatalf("resolved %q", h.Describe())
	}

	empty := &browsertest.Element{ID: "bare"}
	if _, err := r.ResolveWithin(context.Background(), sess, empty, resolver.RoleDownloadControl); !errors.Is(err, services.ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound for bare row, got %v", err)
	}
}

func TestNewRejectsEmptyStrategyList(t *testing.T) {
	_, err := resolver.New([]resolver.Role{{Name: "broken"}}, resolver.Options{})
	if err == nil {
		t.Fatal("expected error for role without strategies")
	}
}

func TestResolveCancelledContext(t *testing.T) {
	sess := browsertest.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newResolver(t, []resolver.Role{{
		Name:       "target",
		Strategies: []resolver.Locator{resolver.ByQuery("a")},
	}})

	_, err := r.Resolve(ctx, sess, "target", time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDefaultRolesAreWellFormed(t *testing.T) {
	if _, err := resolver.New(resolver.DefaultRoles(), resolver.Options{}); err != nil {
		t.Fatalf("DefaultRoles must build a resolver: %v", err)
	}
}
