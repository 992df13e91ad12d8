package adapters

import (
	"strings"

	"golang.org/x/net/html"
)

// OutlookAdapter reads the reading pane of Outlook on the web
type OutlookAdapter struct {
	BaseAdapter
}

// NewOutlookAdapter creates a new Outlook adapter
func NewOutlookAdapter() *OutlookAdapter {
	return &OutlookAdapter{}
}

// Name returns the adapter name
func (a *OutlookAdapter) Name() string {
	return "outlook"
}

// CanHandle checks if this is an Outlook URL
func (a *OutlookAdapter) CanHandle(rawURL string, contentType string) bool {
	return hostContains(rawURL, "outlook.")
}

// Extract reads the body from [role=document] (else .ReadingPaneContents)
// and the subject from the element labelled "Subject". Outlook does not
// expose the sender in the pane markup.
func (a *OutlookAdapter) Extract(doc *html.Node, url string) (*Page, error) {
	body := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && a.GetAttribute(n, "role") == "document"
	})
	if body == nil {
		body = a.FindFirst(doc, func(n *html.Node) bool {
			return a.HasClass(n, "ReadingPaneContents")
		})
	}
	if body == nil {
		return nil, ErrNoContent
	}

	var subject string
	if n := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && strings.Contains(a.GetAttribute(n, "aria-label"), "Subject")
	}); n != nil {
		subject = strings.TrimSpace(a.Text(n))
	}

	text := a.Text(body)
	return &Page{
		Platform: a.Name(),
		Subject:  subject,
		Body:     text,
		Text:     mailText(subject, text),
	}, nil
}
