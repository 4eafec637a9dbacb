// Package app wires the newsletter domain to the program catalog and the
// email sender.
package app

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/pepedome/site/internal/platform/email"
	"github.com/pepedome/site/internal/services/content"
	"github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/newsletter/render"
)

// ContentResolver resolves section titles from the program catalog.
type ContentResolver struct {
	Source content.Source
}

// ResolveContent returns the localized title of a published program item of
// the matching kind.
func (r ContentResolver) ResolveContent(kind domain.SectionKind, contentID string) (domain.Text, error) {
	if r.Source == nil {
		return nil, domain.ErrContentNotFound
	}
	item, err := r.Source.Catalog().Item(contentID)
	if errors.Is(err, content.ErrNotFound) {
		return nil, domain.ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	if string(item.Kind) != string(kind) {
		return nil, domain.ErrContentNotFound
	}
	return domain.Text(maps.Clone(item.Title)), nil
}

// ConfirmationMailer renders and sends double opt-in emails.
type ConfirmationMailer struct {
	Renderer *render.Renderer
	Sender   email.Sender
}

// SendConfirmation sends the opt-in link to subscriber.
func (m ConfirmationMailer) SendConfirmation(ctx context.Context, subscriber domain.Subscriber) error {
	if m.Renderer == nil || m.Sender == nil {
		return errors.New("confirmation mailer is not configured")
	}
	rendered, err := m.Renderer.RenderConfirmation(ctx, subscriber)
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	if _, err := m.Sender.Send(ctx, email.Message{
		To:      subscriber.Email,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	}); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

var (
	_ domain.ContentResolver    = ContentResolver{}
	_ domain.ConfirmationSender = ConfirmationMailer{}
)
