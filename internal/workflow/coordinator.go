package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"subseek/internal/catalog"
	"subseek/internal/logging"
	"subseek/internal/outcome"
	"subseek/internal/services"
)

// OutcomeStore is the subset of the persistent store the coordinator
// needs. Nil-able for runs without persistence.
type OutcomeStore interface {
	RecordOutcome(ctx context.Context, runID string, rec outcome.Record) error
	SucceededKeys(ctx context.Context) (map[string]struct{}, error)
}

// CoordinatorOptions configures a run.
type CoordinatorOptions struct {
	Store  OutcomeStore
	Logger *slog.Logger
	// MaxDownloads stops pulling new items once this many successes have
	// been recorded. Zero or less drains the whole sequence.
	MaxDownloads int
	// ItemDelay is a politeness pause between items on each workflow.
	ItemDelay time.Duration
}

// Coordinator runs items to terminal states across one or more
// workflows. Each coordinator carries a fresh run ID.
type Coordinator struct {
	store        OutcomeStore
	logger       *slog.Logger
	runID        string
	maxDownloads int
	itemDelay    time.Duration
}

// NewCoordinator builds a coordinator with a generated run ID.
func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	runID := uuid.NewString()
	return &Coordinator{
		store:        opts.Store,
		logger:       logging.NewComponentLogger(logger, "coordinator").With(logging.String(logging.FieldRunID, runID)),
		runID:        runID,
		maxDownloads: opts.MaxDownloads,
		itemDelay:    opts.ItemDelay,
	}
}

// RunID returns this run's identifier.
func (c *Coordinator) RunID() string {
	return c.runID
}

// Run drives every item to a terminal state and returns the outcome log.
// Items that already succeeded in a prior run are skipped before
// processing starts. With multiple workflows the items are split into
// disjoint partitions, one per workflow, and processed concurrently.
// A fatal error aborts the run after the in-flight items reach their
// terminal states; the partial log is still returned alongside it.
func (c *Coordinator) Run(ctx context.Context, workflows []*ItemWorkflow, items []catalog.Item) (*outcome.Log, error) {
	log := outcome.NewLog()
	if len(workflows) == 0 || len(items) == 0 {
		return log, nil
	}

	pending, err := c.filterSucceeded(ctx, items)
	if err != nil {
		return log, err
	}
	if skipped := len(items) - len(pending); skipped > 0 {
		c.logger.Info("skipping already-downloaded items", logging.Int("skipped", skipped))
	}
	if len(pending) == 0 {
		return log, nil
	}

	runCtx, cancel := context.WithCancel(services.WithRunID(ctx, c.runID))
	defer cancel()

	var (
		mu        sync.Mutex
		successes int
		fatalErr  error
	)
	capReached := func() bool {
		if c.maxDownloads <= 0 {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		return successes >= c.maxDownloads
	}

	partitions := partition(pending, len(workflows))

	var wg sync.WaitGroup
	for i, wf := range workflows {
		if i >= len(partitions) || len(partitions[i]) == 0 {
			continue
		}
		wg.Add(1)
		go func(wf *ItemWorkflow, part []catalog.Item) {
			defer wg.Done()
			for idx := range part {
				if runCtx.Err() != nil || capReached() {
					return
				}
				if idx > 0 && c.itemDelay > 0 {
					select {
					case <-time.After(c.itemDelay):
					case <-runCtx.Done():
						return
					}
				}
				item := &part[idx]
				// The item always reaches a terminal state; only the
				// decision to start the next one checks for cancellation.
				rec, procErr := wf.Process(runCtx, item)
				log.Append(rec)
				c.persist(rec)
				mu.Lock()
				if rec.Succeeded {
					successes++
				}
				if procErr != nil && fatalErr == nil {
					fatalErr = procErr
				}
				mu.Unlock()
				if procErr != nil {
					c.logger.Error("fatal error, aborting run", logging.Error(procErr))
					cancel()
					return
				}
			}
		}(wf, partitions[i])
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	c.logger.Info("run complete",
		logging.Int("attempted", log.Len()),
		logging.Int("succeeded", successes))
	return log, fatalErr
}

func (c *Coordinator) filterSucceeded(ctx context.Context, items []catalog.Item) ([]catalog.Item, error) {
	if c.store == nil {
		out := make([]catalog.Item, len(items))
		copy(out, items)
		return out, nil
	}
	done, err := c.store.SucceededKeys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Item, 0, len(items))
	for _, item := range items {
		if _, ok := done[item.Key]; ok {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Coordinator) persist(rec outcome.Record) {
	if c.store == nil {
		return
	}
	// Persistence failures never fail the run; the in-memory log is the
	// source of truth for the report.
	if err := c.store.RecordOutcome(context.Background(), c.runID, rec); err != nil {
		c.logger.Warn("failed to persist outcome",
			logging.String(logging.FieldItemKey, rec.Item.Key),
			logging.Error(err))
	}
}

// partition splits items into n contiguous chunks of near-equal size.
func partition(items []catalog.Item, n int) [][]catalog.Item {
	if n <= 1 || len(items) <= 1 {
		return [][]catalog.Item{items}
	}
	if n > len(items) {
		n = len(items)
	}
	chunks := make([][]catalog.Item, 0, n)
	size := (len(items) + n - 1) / n
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		part := make([]catalog.Item, end-start)
		copy(part, items[start:end])
		chunks = append(chunks, part)
	}
	return chunks
}
