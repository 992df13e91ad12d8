package adapters

import (
	"strings"

	"golang.org/x/net/html"
)

// GmailAdapter reads the open message of a Gmail conversation view
type GmailAdapter struct {
	BaseAdapter
}

// NewGmailAdapter creates a new Gmail adapter
func NewGmailAdapter() *GmailAdapter {
	return &GmailAdapter{}
}

// Name returns the adapter name
func (a *GmailAdapter) Name() string {
	return "gmail"
}

// CanHandle checks if this is a Gmail URL
func (a *GmailAdapter) CanHandle(rawURL string, contentType string) bool {
	return hostContains(rawURL, "mail.google.com")
}

// Extract reads subject (h2.hP), sender (.gD email attribute) and the
// message body (div.a3s.aiL, else the first [data-message-id] element)
func (a *GmailAdapter) Extract(doc *html.Node, url string) (*Page, error) {
	body := a.FindFirst(doc, func(n *html.Node) bool {
		return a.HasClasses(n, "a3s", "aiL")
	})
	if body == nil {
		body = a.FindFirst(doc, func(n *html.Node) bool {
			return a.HasAttribute(n, "data-message-id")
		})
	}
	if body == nil {
		return nil, ErrNoContent
	}

	var subject, sender string
	if n := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "h2" && a.HasClass(n, "hP")
	}); n != nil {
		subject = strings.TrimSpace(a.Text(n))
	}
	if n := a.FindFirst(doc, func(n *html.Node) bool {
		return a.HasClass(n, "gD")
	}); n != nil {
		sender = a.GetAttribute(n, "email")
	}

	text := a.Text(body)
	return &Page{
		Platform: a.Name(),
		Subject:  subject,
		Sender:   sender,
		Body:     text,
		Text:     mailText(subject, text),
	}, nil
}
