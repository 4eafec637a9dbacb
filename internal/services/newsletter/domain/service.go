package domain

import (
	"context"
	"time"

	"github.com/pepedome/site/internal/platform/id"
)

// ConfirmationSender delivers the double opt-in email for a pending subscriber.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, subscriber Subscriber) error
}

// ContentResolver looks up the title of a program item referenced by a
// section. Unknown items return ErrContentNotFound.
type ContentResolver interface {
	ResolveContent(kind SectionKind, contentID string) (Text, error)
}

// ServiceConfig wires Service collaborators. Only Store is required.
type ServiceConfig struct {
	Store         Store
	Confirmations ConfirmationSender
	Content       ContentResolver
	Clock         func() time.Time
	NewID         func() (string, error)
	NewToken      func() (string, error)
}

// Service orchestrates subscriber opt-in and newsletter authoring.
type Service struct {
	store         Store
	confirmations ConfirmationSender
	content       ContentResolver
	clock         func() time.Time
	newID         func() (string, error)
	newToken      func() (string, error)
}

// NewService constructs newsletter domain use-cases.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = id.NewID
	}
	if cfg.NewToken == nil {
		cfg.NewToken = id.NewToken
	}
	return &Service{
		store:         cfg.Store,
		confirmations: cfg.Confirmations,
		content:       cfg.Content,
		clock:         cfg.Clock,
		newID:         cfg.NewID,
		newToken:      cfg.NewToken,
	}
}

func (s *Service) ready() error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	return nil
}

func (s *Service) nowUTC() time.Time {
	return s.clock().UTC()
}
