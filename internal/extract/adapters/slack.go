package adapters

import (
	"strings"

	"golang.org/x/net/html"
)

// slackRecentMessages is how many of the latest messages are read
const slackRecentMessages = 5

// SlackAdapter reads the most recent messages of a Slack channel or thread
type SlackAdapter struct {
	BaseAdapter
}

// NewSlackAdapter creates a new Slack adapter
func NewSlackAdapter() *SlackAdapter {
	return &SlackAdapter{}
}

// Name returns the adapter name
func (a *SlackAdapter) Name() string {
	return "slack"
}

// CanHandle checks if this is a Slack URL
func (a *SlackAdapter) CanHandle(rawURL string, contentType string) bool {
	return hostContains(rawURL, "slack.com")
}

// Extract joins the rich-text sections of the last few
// [data-qa=message_container] elements with blank lines
func (a *SlackAdapter) Extract(doc *html.Node, url string) (*Page, error) {
	messages := a.FindAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && a.GetAttribute(n, "data-qa") == "message_container"
	})
	if len(messages) == 0 {
		return nil, ErrNoContent
	}
	if len(messages) > slackRecentMessages {
		messages = messages[len(messages)-slackRecentMessages:]
	}

	texts := make([]string, 0, len(messages))
	for _, msg := range messages {
		section := a.FindFirst(msg, func(n *html.Node) bool {
			return a.HasClass(n, "p-rich_text_section")
		})
		if section == nil {
			continue
		}
		if text := strings.TrimSpace(a.Text(section)); text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return nil, ErrNoContent
	}

	text := strings.Join(texts, "\n\n")
	return &Page{
		Platform: a.Name(),
		Subject:  "Slack Conversation",
		Body:     text,
		Text:     text,
	}, nil
}
