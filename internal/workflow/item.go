package workflow

import (
	"context"
	"log/slog"
	"time"

	"subseek/internal/browser"
	"subseek/internal/catalog"
	"subseek/internal/logging"
	"subseek/internal/outcome"
	"subseek/internal/resolver"
	"subseek/internal/selector"
	"subseek/internal/services"
)

// ItemConfig wires one item workflow to a live session.
type ItemConfig struct {
	Session  browser.Session
	Resolver *resolver.Resolver
	Logger   *slog.Logger
	// Languages is the ordered subtitle language priority for candidate
	// selection. Must not be empty.
	Languages []string
	Retry     RetryPolicy
	// ElementTimeout budgets each element-resolving edge.
	ElementTimeout time.Duration
	// DownloadTimeout bounds the wait for the download confirmation.
	DownloadTimeout time.Duration
}

// ItemWorkflow processes one item at a time against a single session.
// It is not safe for concurrent use; scale-out runs one workflow per
// session.
type ItemWorkflow struct {
	sess            browser.Session
	resolver        *resolver.Resolver
	logger          *slog.Logger
	languages       []string
	retry           RetryPolicy
	elementTimeout  time.Duration
	downloadTimeout time.Duration
}

// NewItemWorkflow builds a workflow from config, applying defaults.
func NewItemWorkflow(cfg ItemConfig) *ItemWorkflow {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.ElementTimeout <= 0 {
		cfg.ElementTimeout = 5 * time.Second
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 15 * time.Second
	}
	return &ItemWorkflow{
		sess:            cfg.Session,
		resolver:        cfg.Resolver,
		logger:          logging.NewComponentLogger(cfg.Logger, "workflow"),
		languages:       cfg.Languages,
		retry:           cfg.Retry.normalized(),
		elementTimeout:  cfg.ElementTimeout,
		downloadTimeout: cfg.DownloadTimeout,
	}
}

// Process drives the item from Pending to a terminal state and returns
// its outcome record. The returned error is non-nil only for fatal
// conditions that must abort the whole run; per-item failures are folded
// into the record. Exactly one record is produced per call.
func (w *ItemWorkflow) Process(ctx context.Context, item *catalog.Item) (outcome.Record, error) {
	ctx = services.WithItemKey(ctx, item.Key)
	ctx = services.WithItemTitle(ctx, item.Title)
	logger := logging.WithContext(ctx, w.logger)

	state := StatePending
	advance := func(next State) {
		state = next
		logger.Debug("state transition", logging.String(logging.FieldState, string(state)))
	}

	fail := func(err error) (outcome.Record, error) {
		advance(StateFailed)
		item.Status = catalog.StatusFailed
		kind := services.ErrorKind(err)
		logger.Warn("item failed",
			logging.String("error_kind", kind),
			logging.Error(err))
		rec := outcome.Record{
			Item:      *item,
			ErrorKind: kind,
			Timestamp: time.Now(),
		}
		if services.IsFatal(err) {
			return rec, err
		}
		return rec, nil
	}

	// Pending -> Navigated
	if err := w.retry.run(ctx, func(edgeCtx context.Context) error {
		return w.sess.Navigate(edgeCtx, item.DetailURL)
	}); err != nil {
		return fail(services.Wrap(services.ErrNavigation, "workflow", "open detail page", item.DetailURL, err))
	}
	advance(StateNavigated)

	// Navigated -> MenuOpened
	if err := w.clickRole(ctx, resolver.RoleSubtitleControl); err != nil {
		return fail(asElementFailure(err, "open subtitle menu"))
	}
	advance(StateMenuOpened)

	// MenuOpened -> SearchTriggered
	if err := w.clickRole(ctx, resolver.RoleSearchTrigger); err != nil {
		return fail(asElementFailure(err, "trigger search"))
	}
	advance(StateSearchTriggered)

	// SearchTriggered -> ResultsCollected
	rows, candidates, err := w.collectResults(ctx, item)
	if err != nil {
		return fail(err)
	}
	advance(StateResultsCollected)
	logger.Info("collected subtitle results", logging.Int("count", len(candidates)))

	// ResultsCollected -> CandidateChosen
	chosen, err := selector.Select(candidates, w.languages)
	if err != nil {
		return fail(services.Wrap(services.ErrNoResults, "workflow", "select candidate",
			"no candidate in requested languages", err))
	}
	advance(StateCandidateChosen)
	logger.Info("candidate chosen",
		logging.String("language", chosen.Language),
		logging.Float64("rating", chosen.Rating),
		logging.Int("downloads", chosen.DownloadCount))

	// CandidateChosen -> DownloadRequested
	if err := w.requestDownload(ctx, rows, candidates, chosen); err != nil {
		return fail(asElementFailure(err, "activate download control"))
	}
	advance(StateDownloadRequested)

	// DownloadRequested -> Succeeded
	if err := w.awaitConfirmation(ctx); err != nil {
		// Reclassified edge: the resolver error text is carried but not
		// wrapped, so the outcome reports DownloadTimeout, not the
		// underlying lookup failure.
		return fail(services.Wrap(services.ErrDownloadTimeout, "workflow", "await confirmation",
			err.Error(), nil))
	}
	advance(StateSucceeded)
	item.Status = catalog.StatusSucceeded
	logger.Info("subtitle downloaded", logging.String("language", chosen.Language))

	return outcome.Record{
		Item:      *item,
		Succeeded: true,
		Selected:  &chosen,
		Timestamp: time.Now(),
	}, nil
}

// clickRole resolves a role and activates it, retrying the whole
// resolve-and-click under the edge's retry policy.
func (w *ItemWorkflow) clickRole(ctx context.Context, role string) error {
	return w.retry.run(ctx, func(edgeCtx context.Context) error {
		h, err := w.resolver.Resolve(edgeCtx, w.sess, role, w.elementTimeout)
		if err != nil {
			return err
		}
		return w.sess.Click(edgeCtx, h)
	})
}

func (w *ItemWorkflow) collectResults(ctx context.Context, item *catalog.Item) ([]browser.Handle, []selector.Candidate, error) {
	fallback := "en"
	if len(item.MissingLanguages) > 0 {
		fallback = item.MissingLanguages[0]
	} else if len(w.languages) > 0 {
		fallback = w.languages[0]
	}

	var rows []browser.Handle
	err := w.retry.run(ctx, func(edgeCtx context.Context) error {
		var resolveErr error
		rows, resolveErr = w.resolver.ResolveAll(edgeCtx, w.sess, resolver.RoleResultRow, w.elementTimeout)
		return resolveErr
	})
	if err != nil || len(rows) == 0 {
		message := "search returned no rows"
		if err != nil {
			// Flattened so the reclassified kind wins over the
			// resolver's own tag.
			message = err.Error()
		}
		return nil, nil, services.Wrap(services.ErrNoResults, "workflow", "collect results", message, nil)
	}

	candidates := make([]selector.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, parseCandidate(ctx, w.sess, row, fallback))
	}
	return rows, candidates, nil
}

// requestDownload clicks the chosen row's download control, or the row
// itself when the markup exposes no dedicated control.
func (w *ItemWorkflow) requestDownload(ctx context.Context, rows []browser.Handle, candidates []selector.Candidate, chosen selector.Candidate) error {
	row := rows[0]
	for i, cand := range candidates {
		if cand == chosen {
			row = rows[i]
			break
		}
	}
	return w.retry.run(ctx, func(edgeCtx context.Context) error {
		if control, err := w.resolver.ResolveWithin(edgeCtx, w.sess, row, resolver.RoleDownloadControl); err == nil {
			return w.sess.Click(edgeCtx, control)
		}
		return w.sess.Click(edgeCtx, row)
	})
}

func (w *ItemWorkflow) awaitConfirmation(ctx context.Context) error {
	_, err := w.resolver.Resolve(ctx, w.sess, resolver.RoleDownloadConfirmation, w.downloadTimeout)
	return err
}

// asElementFailure keeps an existing ElementNotFound tag and wraps
// anything else so the edge reports the right kind.
func asElementFailure(err error, op string) error {
	if services.IsFatal(err) {
		return err
	}
	return services.Wrap(services.ErrElementNotFound, "workflow", op, "", err)
}
