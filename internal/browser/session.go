package browser

import "context"

// Selector is one concrete way of locating elements in the page.
type Selector struct {
	Query string
	XPath bool
}

// CSS builds a CSS selector.
func CSS(query string) Selector { return Selector{Query: query} }

// XPath builds an XPath selector.
func XPath(query string) Selector { return Selector{Query: query, XPath: true} }

// Handle is an opaque reference to a live element in the page.
type Handle interface {
	Describe() string
}

// Session is the browser surface the workflow drives. Implementations own
// exactly one browser context; the session is not safe for concurrent use.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Evaluate(ctx context.Context, expression string) error
	Reload(ctx context.Context) error
	// FindAll returns every element matching the selector. A selector
	// matching nothing returns an empty slice, not an error; errors are
	// reserved for transport failures.
	FindAll(ctx context.Context, sel Selector) ([]Handle, error)
	// FindAllWithin scopes a CSS selector to the subtree of parent.
	FindAllWithin(ctx context.Context, parent Handle, sel Selector) ([]Handle, error)
	Click(ctx context.Context, h Handle) error
	Text(ctx context.Context, h Handle) (string, error)
	// Attribute returns the named attribute and whether it is present.
	Attribute(h Handle, name string) (string, bool)
	Close() error
}
