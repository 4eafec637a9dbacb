package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/pepedome/site/internal/platform/email"
	"github.com/pepedome/site/internal/services/content"
	"github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/newsletter/render"
	"github.com/pepedome/site/internal/services/newsletter/storage/sqlite"
)

// RuntimeConfig selects the newsletter database and its collaborators.
type RuntimeConfig struct {
	DBPath string
	// BaseURL is the public site origin used in email links.
	BaseURL string
	Content content.Source
	Sender  email.Sender
}

// Runtime bundles the newsletter store with the services built on it. Both
// the web process and the send worker open one.
type Runtime struct {
	Store    *sqlite.Store
	Service  *domain.Service
	Renderer *render.Renderer
}

// Open opens the store and wires the service, renderer, and confirmation
// mailer.
func Open(ctx context.Context, cfg RuntimeConfig) (*Runtime, error) {
	if cfg.Content == nil {
		return nil, errors.New("newsletter runtime requires a content source")
	}
	if cfg.Sender == nil {
		return nil, errors.New("newsletter runtime requires an email sender")
	}
	renderer, err := render.NewRenderer(cfg.BaseURL, cfg.Content)
	if err != nil {
		return nil, fmt.Errorf("build newsletter renderer: %w", err)
	}
	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	service := domain.NewService(domain.ServiceConfig{
		Store:         store,
		Confirmations: ConfirmationMailer{Renderer: renderer, Sender: cfg.Sender},
		Content:       ContentResolver{Source: cfg.Content},
	})
	return &Runtime{Store: store, Service: service, Renderer: renderer}, nil
}

// Close releases the store.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	return r.Store.Close()
}
