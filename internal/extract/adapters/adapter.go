package adapters

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/donotmiss/internal/extract"
)

// ErrNoContent is returned when an adapter does not find the content region
// it looks for on a page
var ErrNoContent = errors.New("no content found")

// Page is the text an adapter pulled out of a captured page
type Page struct {
	Platform string
	Subject  string
	Sender   string
	Body     string
	Text     string // what the detector sees
}

// Adapter defines the interface for platform-specific page readers
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given URL/content
	CanHandle(url string, contentType string) bool

	// Extract reads the message content out of the HTML document
	Extract(doc *html.Node, url string) (*Page, error)
}

// Registry manages platform adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a new adapter registry
func NewRegistry() *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
	}

	// Register built-in adapters
	registry.Register(NewGmailAdapter())
	registry.Register(NewOutlookAdapter())
	registry.Register(NewSlackAdapter())

	// Set generic adapter as fallback
	registry.generic = NewGenericAdapter()

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the best adapter for the given URL and content type
func (r *Registry) FindAdapter(url string, contentType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(url, contentType) {
			return adapter
		}
	}
	return r.generic
}

// Read runs the matching adapter and falls back to the generic reader when
// the platform markup is not where the adapter expects it
func (r *Registry) Read(doc *html.Node, url, contentType string) (*Page, error) {
	adapter := r.FindAdapter(url, contentType)

	page, err := adapter.Extract(doc, url)
	if err == nil || adapter == r.generic {
		return page, err
	}
	if !errors.Is(err, ErrNoContent) {
		return nil, fmt.Errorf("%s adapter: %w", adapter.Name(), err)
	}
	return r.generic.Extract(doc, url)
}

// BaseAdapter provides common functionality for adapters
type BaseAdapter struct{}

// Text returns the visible text under n
func (b *BaseAdapter) Text(n *html.Node) string {
	return extract.VisibleTextNode(n)
}

// HasClass checks if a node has a specific CSS class
func (b *BaseAdapter) HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}

	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, class := range strings.Fields(attr.Val) {
				if class == className {
					return true
				}
			}
		}
	}
	return false
}

// HasClasses checks if a node carries every one of classNames
func (b *BaseAdapter) HasClasses(n *html.Node, classNames ...string) bool {
	for _, c := range classNames {
		if !b.HasClass(n, c) {
			return false
		}
	}
	return len(classNames) > 0
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// HasAttribute checks if an element node carries attrKey at all
func (b *BaseAdapter) HasAttribute(n *html.Node, attrKey string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return true
		}
	}
	return false
}

// FindAll finds all nodes matching a predicate
func (b *BaseAdapter) FindAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if predicate(node) {
			results = append(results, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}

// FindFirst finds the first node matching a predicate
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// mailText lays a message out as "Subject: <s>\n\n<body>"
func mailText(subject, body string) string {
	return fmt.Sprintf("Subject: %s\n\n%s", subject, body)
}

func hostContains(rawURL string, fragments ...string) bool {
	lower := strings.ToLower(rawURL)
	for _, f := range fragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
