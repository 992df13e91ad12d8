package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/ppiankov/donotmiss/internal/model"
)

// Email is the text content of an RFC 5322 message
type Email struct {
	Subject  string
	Sender   string
	TextBody string
	HTMLBody string
}

// ParseEmail reads a raw message and collects its subject, sender and inline bodies.
// Attachments are skipped.
func ParseEmail(raw []byte) (*Email, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	email := &Email{}

	if subject, err := mr.Header.Subject(); err == nil {
		email.Subject = strings.TrimSpace(subject)
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		email.Sender = from[0].Address
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && email.TextBody == "":
			email.TextBody = string(body)
		case strings.HasPrefix(contentType, "text/html") && email.HTMLBody == "":
			email.HTMLBody = string(body)
		}
	}

	return email, nil
}

// Body returns the plain-text body, falling back to the visible text of the HTML body
func (e *Email) Body() string {
	if strings.TrimSpace(e.TextBody) != "" {
		return strings.TrimSpace(e.TextBody)
	}
	if e.HTMLBody != "" {
		if text, err := VisibleText(e.HTMLBody); err == nil {
			return text
		}
	}
	return ""
}

// ExtractionContext lays the message out the way mail clients are scanned:
// subject line, blank line, body. Subject and sender go into metadata.
func (e *Email) ExtractionContext() model.ExtractionContext {
	return model.ExtractionContext{
		Text:   fmt.Sprintf("Subject: %s\n\n%s", e.Subject, e.Body()),
		Source: model.SourceEmail,
		Metadata: map[string]any{
			"subject": e.Subject,
			"sender":  e.Sender,
		},
	}
}
