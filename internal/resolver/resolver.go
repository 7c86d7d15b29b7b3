package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subseek/internal/browser"
	"subseek/internal/logging"
	"subseek/internal/services"
)

// Role names a logical element the workflow needs to find, together with
// its ordered locator strategies. Strategies are tried strictly in order.
type Role struct {
	Name       string
	Strategies []Locator
}

// Options tunes resolution behavior.
type Options struct {
	// PerAttemptWait bounds how long a single strategy is polled before
	// falling through to the next one. Defaults to 5s.
	PerAttemptWait time.Duration
	// PollInterval is the delay between repeated lookups of the same
	// strategy. Defaults to 250ms.
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Resolver resolves roles against a live session. It never mutates the
// page; callers click or read through the session using the returned
// handles.
type Resolver struct {
	roles          map[string]Role
	perAttemptWait time.Duration
	pollInterval   time.Duration
	logger         *slog.Logger
}

// New builds a resolver over the given roles. Every role must carry at
// least one strategy.
func New(roles []Role, opts Options) (*Resolver, error) {
	if opts.PerAttemptWait <= 0 {
		opts.PerAttemptWait = 5 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	byName := make(map[string]Role, len(roles))
	for _, role := range roles {
		if role.Name == "" {
			return nil, fmt.Errorf("resolver: role with empty name")
		}
		if len(role.Strategies) == 0 {
			return nil, fmt.Errorf("resolver: role %q has no locator strategies", role.Name)
		}
		if _, exists := byName[role.Name]; exists {
			return nil, fmt.Errorf("resolver: duplicate role %q", role.Name)
		}
		byName[role.Name] = role
	}
	return &Resolver{
		roles:          byName,
		perAttemptWait: opts.PerAttemptWait,
		pollInterval:   opts.PollInterval,
		logger:         logging.NewComponentLogger(opts.Logger, "resolver"),
	}, nil
}

// Resolve finds the first element matching the role within budget. It
// walks the role's strategies in registration order, polling each for a
// bounded window, and returns the first handle any strategy produces.
func (r *Resolver) Resolve(ctx context.Context, sess browser.Session, roleName string, budget time.Duration) (browser.Handle, error) {
	handles, err := r.resolve(ctx, sess, roleName, budget, false)
	if err != nil {
		return nil, err
	}
	return handles[0], nil
}

// ResolveAll finds every element the role's first succeeding strategy
// matches, in document order. Result rows use this to collect the full
// candidate list in one pass.
func (r *Resolver) ResolveAll(ctx context.Context, sess browser.Session, roleName string, budget time.Duration) ([]browser.Handle, error) {
	return r.resolve(ctx, sess, roleName, budget, true)
}

func (r *Resolver) resolve(ctx context.Context, sess browser.Session, roleName string, budget time.Duration, all bool) ([]browser.Handle, error) {
	role, ok := r.roles[roleName]
	if !ok {
		return nil, fmt.Errorf("resolver: unknown role %q", roleName)
	}
	deadline := time.Now().Add(budget)

	for i, strategy := range role.Strategies {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			r.logger.Debug("resolution budget exhausted",
				logging.String(logging.FieldRole, roleName),
				logging.Int("strategies_tried", i))
			break
		}
		wait := r.perAttemptWait
		if wait > remaining {
			wait = remaining
		}
		handles, err := r.poll(ctx, sess, strategy, wait)
		if err != nil {
			return nil, err
		}
		if len(handles) > 0 {
			if i > 0 {
				r.logger.Info("resolved via fallback strategy",
					logging.String(logging.FieldRole, roleName),
					logging.Int("strategy_index", i),
					logging.String("strategy", strategy.String()))
			}
			if all {
				return handles, nil
			}
			return handles[:1], nil
		}
		r.logger.Debug("strategy matched nothing",
			logging.String(logging.FieldRole, roleName),
			logging.String("strategy", strategy.String()))
	}
	return nil, services.Wrap(services.ErrElementNotFound, "resolver", "resolve "+roleName,
		fmt.Sprintf("no strategy matched within %s", budget), nil)
}

// ResolveWithin finds the first element matching the role inside the
// given parent's subtree. Scoped lookup works against already-rendered
// nodes, so strategies are evaluated once each without polling. Only CSS
// strategies participate; XPath strategies cannot be scoped and are
// skipped.
func (r *Resolver) ResolveWithin(ctx context.Context, sess browser.Session, parent browser.Handle, roleName string) (browser.Handle, error) {
	role, ok := r.roles[roleName]
	if !ok {
		return nil, fmt.Errorf("resolver: unknown role %q", roleName)
	}
	for _, strategy := range role.Strategies {
		sel := strategy.Selector()
		if sel.XPath {
			continue
		}
		handles, err := sess.FindAllWithin(ctx, parent, sel)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if len(handles) > 0 {
			return handles[0], nil
		}
	}
	return nil, services.Wrap(services.ErrElementNotFound, "resolver", "resolve "+roleName,
		"no scoped strategy matched", nil)
}

// poll repeatedly evaluates one strategy until it matches, the wait
// window closes, or the context ends. Context cancellation is the only
// error surfaced; lookup failures fall through to the next strategy.
func (r *Resolver) poll(ctx context.Context, sess browser.Session, strategy Locator, wait time.Duration) ([]browser.Handle, error) {
	sel := strategy.Selector()
	attemptDeadline := time.Now().Add(wait)
	for {
		handles, err := sess.FindAll(ctx, sel)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			handles = nil
		}
		if len(handles) > 0 {
			return handles, nil
		}
		if time.Until(attemptDeadline) < r.pollInterval {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.pollInterval):
		}
	}
}
