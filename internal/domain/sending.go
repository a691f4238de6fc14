package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Recipient is one destination of a bulk job. Email is the only required
// field; PersonalizationData feeds {{token}} substitution in the rendered
// content.
type Recipient struct {
	Email               string         `json:"email"`
	DisplayName         string         `json:"display_name,omitempty"`
	PersonalizationData map[string]any `json:"personalization_data,omitempty"`
}

// NormalizedEmail returns the email lowercased and trimmed, the form used
// for bounce-store lookups.
func (r Recipient) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(r.Email))
}

// Validate checks that the recipient carries a parseable address.
func (r Recipient) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("recipient email is empty")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("recipient email %q is malformed: %w", r.Email, err)
	}
	return nil
}

// RenderedContent is the output of the template renderer: one subject plus
// HTML and text bodies. The bulk pipeline treats it as immutable; the
// personalizer derives per-recipient copies and never mutates the base.
type RenderedContent struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// IsEmpty reports whether the content has neither an HTML nor a text body.
func (c RenderedContent) IsEmpty() bool {
	return c.HTML == "" && c.Text == ""
}

// SendResult records the outcome of one recipient's send attempt. Exactly one
// is produced per recipient on the immediate path (including synthetic
// suppression failures); none are produced for recipients still waiting in
// the queue.
type SendResult struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"message_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	Recipient string    `json:"recipient"`
	Timestamp time.Time `json:"timestamp"`
}
