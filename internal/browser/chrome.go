package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"subseek/internal/services"
)

// Options describes browser construction parameters.
type Options struct {
	Headless          bool
	WindowWidth       int
	WindowHeight      int
	NavigationTimeout time.Duration
	OperationTimeout  time.Duration
}

func (o *Options) applyDefaults() {
	if o.WindowWidth <= 0 {
		o.WindowWidth = 1920
	}
	if o.WindowHeight <= 0 {
		o.WindowHeight = 1080
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 30 * time.Second
	}
	if o.OperationTimeout <= 0 {
		o.OperationTimeout = 10 * time.Second
	}
}

// ChromeSession drives one Chrome instance over the DevTools protocol.
type ChromeSession struct {
	opts        Options
	browserCtx  context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

type chromeHandle struct {
	node *cdp.Node
}

func (h chromeHandle) Describe() string {
	if h.node == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s#%d", h.node.LocalName, h.node.NodeID)
}

// Open launches a Chrome instance and waits for it to become responsive.
// Failure to start the browser is a fatal driver init error.
func Open(ctx context.Context, opts Options) (*ChromeSession, error) {
	opts.applyDefaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
		chromedp.NoSandbox,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	startCtx, cancelStart := context.WithTimeout(browserCtx, opts.NavigationTimeout)
	defer cancelStart()
	if err := chromedp.Run(startCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, services.Wrap(services.ErrDriverInit, "browser", "launch chrome",
			"is Chrome or Chromium installed and runnable?", err)
	}

	return &ChromeSession{
		opts:        opts,
		browserCtx:  browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}, nil
}

// Close releases the browser and allocator contexts. Safe to call on every
// exit path, including after a failed Open.
func (s *ChromeSession) Close() error {
	if s == nil {
		return nil
	}
	if s.cancelCtx != nil {
		s.cancelCtx()
		s.cancelCtx = nil
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
		s.cancelAlloc = nil
	}
	return nil
}

func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, s.opts.NavigationTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *ChromeSession) Evaluate(ctx context.Context, expression string) error {
	return s.run(ctx, s.opts.OperationTimeout, chromedp.Evaluate(expression, nil))
}

func (s *ChromeSession) Reload(ctx context.Context) error {
	return s.run(ctx, s.opts.NavigationTimeout,
		chromedp.Reload(),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *ChromeSession) FindAll(ctx context.Context, sel Selector) ([]Handle, error) {
	var nodes []*cdp.Node
	query := chromedp.ByQueryAll
	if sel.XPath {
		query = chromedp.BySearch
	}
	err := s.run(ctx, s.opts.OperationTimeout,
		chromedp.Nodes(sel.Query, &nodes, query, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, err
	}
	return wrapNodes(nodes), nil
}

func (s *ChromeSession) FindAllWithin(ctx context.Context, parent Handle, sel Selector) ([]Handle, error) {
	node, err := nodeOf(parent)
	if err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	err = s.run(ctx, s.opts.OperationTimeout,
		chromedp.Nodes(sel.Query, &nodes, chromedp.ByQueryAll, chromedp.FromNode(node), chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, err
	}
	return wrapNodes(nodes), nil
}

func (s *ChromeSession) Click(ctx context.Context, h Handle) error {
	node, err := nodeOf(h)
	if err != nil {
		return err
	}
	return s.run(ctx, s.opts.OperationTimeout,
		chromedp.MouseClickNode(node),
	)
}

func (s *ChromeSession) Text(ctx context.Context, h Handle) (string, error) {
	node, err := nodeOf(h)
	if err != nil {
		return "", err
	}
	var text string
	err = s.run(ctx, s.opts.OperationTimeout,
		chromedp.Text([]cdp.NodeID{node.NodeID}, &text, chromedp.ByNodeID),
	)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *ChromeSession) Attribute(h Handle, name string) (string, bool) {
	node, err := nodeOf(h)
	if err != nil {
		return "", false
	}
	// Attributes are cached on the node from when it was fetched; the
	// workflow reads them immediately after collection, before the page
	// can change underneath.
	attrs := node.Attributes
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == name {
			return attrs[i+1], true
		}
	}
	return "", false
}

func wrapNodes(nodes []*cdp.Node) []Handle {
	handles := make([]Handle, 0, len(nodes))
	for _, node := range nodes {
		handles = append(handles, chromeHandle{node: node})
	}
	return handles
}

func nodeOf(h Handle) (*cdp.Node, error) {
	ch, ok := h.(chromeHandle)
	if !ok || ch.node == nil {
		return nil, fmt.Errorf("handle %q does not belong to this session", h.Describe())
	}
	return ch.node, nil
}
