// Package app forwards contact submissions to the venue inbox by email.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/message"

	"github.com/pepedome/site/internal/platform/email"
	"github.com/pepedome/site/internal/platform/i18n"
	_ "github.com/pepedome/site/internal/platform/i18n/catalog"
	"github.com/pepedome/site/internal/services/contact/domain"
)

// MailForwarder sends submissions to Inbox with the visitor as reply-to.
type MailForwarder struct {
	Sender email.Sender
	Inbox  string
	// Language selects the copy of the forwarded email; empty means German.
	Language string
}

// Forward emails one submission.
func (f MailForwarder) Forward(ctx context.Context, submission domain.Submission) error {
	if f.Sender == nil || strings.TrimSpace(f.Inbox) == "" {
		return errors.New("contact forwarder is not configured")
	}
	lang := f.Language
	if lang == "" {
		lang = "de"
	}
	tag, ok := i18n.ParseTag(lang)
	if !ok {
		tag = i18n.DefaultTag()
	}
	p := message.NewPrinter(tag)

	topic := p.Sprintf("contact.topic." + string(submission.Topic))
	var body strings.Builder
	body.WriteString(p.Sprintf("email.contact.from", submission.Name, submission.Email))
	body.WriteString("\n")
	if submission.Language != "" {
		body.WriteString(p.Sprintf("newsletter.field.language") + ": " + submission.Language + "\n")
	}
	body.WriteString("\n")
	body.WriteString(submission.Message)
	body.WriteString("\n")

	if _, err := f.Sender.Send(ctx, email.Message{
		To:      f.Inbox,
		ReplyTo: submission.Email,
		Subject: p.Sprintf("email.contact.subject", topic, submission.Name),
		Text:    body.String(),
		Headers: map[string]string{"X-Pepedome-Submission": submission.ID},
	}); err != nil {
		return fmt.Errorf("forward contact submission: %w", err)
	}
	return nil
}

var _ domain.Forwarder = MailForwarder{}
