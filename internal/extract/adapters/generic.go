package adapters

import (
	"golang.org/x/net/html"
)

// GenericAdapter is the fallback adapter for any other page
type GenericAdapter struct {
	BaseAdapter
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(url string, contentType string) bool {
	return true
}

// Extract reads the <main> or <article> element when the page has one,
// the whole document otherwise
func (a *GenericAdapter) Extract(doc *html.Node, url string) (*Page, error) {
	root := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && (n.Data == "main" || n.Data == "article")
	})
	if root == nil {
		root = doc
	}

	text := a.Text(root)
	return &Page{
		Platform: a.Name(),
		Body:     text,
		Text:     text,
	}, nil
}
