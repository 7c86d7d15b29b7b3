// Package browsertest provides an in-memory Session implementation for
// exercising the resolver and workflow without a real browser.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"subseek/internal/browser"
)

// Element is a scripted page element.
type Element struct {
	ID       string
	TextVal  string
	Attrs    map[string]string
	Children map[string][]*Element // selector query -> child elements
	ClickErr error
}

func (e *Element) Describe() string { return e.ID }

// Session is a scripted browser.Session. Selector queries are matched
// literally against the Elements map; queries absent from the map resolve
// to no elements, mirroring a selector that matches nothing.
type Session struct {
	mu sync.Mutex

	// Elements maps a selector query to the elements it finds.
	Elements map[string][]*Element
	// AppearAfter delays a query's elements until it has been polled
	// the given number of times.
	AppearAfter map[string]int
	// NavigateErr fails navigation to specific URLs.
	NavigateErr map[string]error
	// ClickHook, when set, runs after every successful click.
	ClickHook func(*Element)

	Navigations []string
	Evaluations []string
	Reloads     int
	Clicks      []string
	FindCalls   []string
	findCounts  map[string]int
	Closed      bool
}

// New returns an empty scripted session.
func New() *Session {
	return &Session{
		Elements:    make(map[string][]*Element),
		AppearAfter: make(map[string]int),
		NavigateErr: make(map[string]error),
		findCounts:  make(map[string]int),
	}
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Navigations = append(s.Navigations, url)
	if err, ok := s.NavigateErr[url]; ok {
		return err
	}
	return nil
}

func (s *Session) Evaluate(ctx context.Context, expression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Evaluations = append(s.Evaluations, expression)
	return nil
}

func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reloads++
	return nil
}

func (s *Session) FindAll(ctx context.Context, sel browser.Selector) ([]browser.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FindCalls = append(s.FindCalls, sel.Query)
	s.findCounts[sel.Query]++
	if after, ok := s.AppearAfter[sel.Query]; ok && s.findCounts[sel.Query] <= after {
		return nil, nil
	}
	return wrap(s.Elements[sel.Query]), nil
}

func (s *Session) FindAllWithin(ctx context.Context, parent browser.Handle, sel browser.Selector) ([]browser.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	element, err := elementOf(parent)
	if err != nil {
		return nil, err
	}
	return wrap(element.Children[sel.Query]), nil
}

func (s *Session) Click(ctx context.Context, h browser.Handle) error {
	element, err := elementOf(h)
	if err != nil {
		return err
	}
	if element.ClickErr != nil {
		return element.ClickErr
	}
	s.mu.Lock()
	s.Clicks = append(s.Clicks, element.ID)
	hook := s.ClickHook
	s.mu.Unlock()
	if hook != nil {
		hook(element)
	}
	return nil
}

func (s *Session) Text(ctx context.Context, h browser.Handle) (string, error) {
	element, err := elementOf(h)
	if err != nil {
		return "", err
	}
	return element.TextVal, nil
}

func (s *Session) Attribute(h browser.Handle, name string) (string, bool) {
	element, err := elementOf(h)
	if err != nil {
		return "", false
	}
	value, ok := element.Attrs[name]
	return value, ok
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// FindCount reports how many times a query has been polled.
func (s *Session) FindCount(query string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCounts[query]
}

// Handle re-exports browser.Handle so scripted tests read naturally.
type Handle = browser.Handle

func wrap(elements []*Element) []browser.Handle {
	handles := make([]browser.Handle, 0, len(elements))
	for _, element := range elements {
		handles = append(handles, element)
	}
	return handles
}

func elementOf(h browser.Handle) (*Element, error) {
	element, ok := h.(*Element)
	if !ok {
		return nil, fmt.Errorf("handle %q does not belong to this session", h.Describe())
	}
	return element, nil
}
