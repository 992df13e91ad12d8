package model

import "strings"

// Source tags assigned when the caller does not provide one
const (
	SourceWeb   = "web"
	SourceEmail = "email"
	SourceChat  = "chat"
	SourceJira  = "jira"
)

// SourceFromURL classifies where a piece of text came from by its page URL
func SourceFromURL(rawURL string) string {
	if rawURL == "" {
		return SourceWeb
	}

	lower := strings.ToLower(rawURL)

	switch {
	case strings.Contains(lower, "mail.google.com"),
		strings.Contains(lower, "outlook."),
		strings.Contains(lower, "/mail"):
		return SourceEmail
	case strings.Contains(lower, "slack.com"),
		strings.Contains(lower, "teams.microsoft.com"),
		strings.Contains(lower, "discord.com"):
		return SourceChat
	case strings.Contains(lower, "atlassian.net"),
		strings.Contains(lower, "jira"):
		return SourceJira
	default:
		return SourceWeb
	}
}
