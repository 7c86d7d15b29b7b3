package resolver

import (
	"fmt"

	"subseek/internal/browser"
)

// Kind tags the locator variants.
type Kind int

const (
	// KindText locates elements by visible text content.
	KindText Kind = iota
	// KindAttribute locates elements by an attribute substring match.
	KindAttribute
	// KindStructural locates elements by a CSS or XPath expression.
	KindStructural
)

// Locator is one concrete method of finding an element for a role.
type Locator struct {
	Kind  Kind
	Text  string // KindText
	Attr  string // KindAttribute
	Value string // KindAttribute
	Query string // KindStructural
	XPath bool   // KindStructural
}

// ByText locates elements whose visible text contains the given string.
func ByText(text string) Locator {
	return Locator{Kind: KindText, Text: text}
}

// ByAttribute locates elements whose named attribute contains the given value.
func ByAttribute(attr, value string) Locator {
	return Locator{Kind: KindAttribute, Attr: attr, Value: value}
}

// ByQuery locates elements with a raw CSS selector.
func ByQuery(css string) Locator {
	return Locator{Kind: KindStructural, Query: css}
}

// ByXPath locates elements with a raw XPath expression.
func ByXPath(xpath string) Locator {
	return Locator{Kind: KindStructural, Query: xpath, XPath: true}
}

// Selector compiles the locator into the browser-level selector evaluated
// against the page.
func (l Locator) Selector() browser.Selector {
	switch l.Kind {
	case KindText:
		return browser.XPath(fmt.Sprintf(`//*[contains(normalize-space(text()), %q)]`, l.Text))
	case KindAttribute:
		return browser.XPath(fmt.Sprintf(`//*[contains(@%s, %q)]`, l.Attr, l.Value))
	default:
		if l.XPath {
			return browser.XPath(l.Query)
		}
		return browser.CSS(l.Query)
	}
}

func (l Locator) String() string {
	switch l.Kind {
	case KindText:
		return fmt.Sprintf("text(%q)", l.Text)
	case KindAttribute:
		return fmt.Sprintf("attr(%s~=%q)", l.Attr, l.Value)
	default:
		if l.XPath {
			return fmt.Sprintf("xpath(%q)", l.Query)
		}
		return fmt.Sprintf("css(%q)", l.Query)
	}
}
