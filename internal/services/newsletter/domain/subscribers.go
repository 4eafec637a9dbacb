package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pepedome/site/internal/platform/email"
	"github.com/pepedome/site/internal/platform/i18n"
)

// NormalizeEmail trims and lowercases an address and reports whether it is
// a valid bare address.
func NormalizeEmail(value string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if !email.ValidAddress(value) {
		return "", false
	}
	return value, true
}

// Subscribe starts or restarts double opt-in for address.
//
// A new or previously unsubscribed address becomes pending with a fresh
// confirmation token. An address keeps its unsubscribe token for life, so
// links in earlier newsletters stay valid. A pending address keeps its tokens and gets the confirmation again. A
// confirmed address is left untouched. When the confirmation email fails the
// subscriber stays stored as pending and the error wraps
// ErrConfirmationNotSent.
func (s *Service) Subscribe(ctx context.Context, address string, lang string) (Subscriber, error) {
	if err := s.ready(); err != nil {
		return Subscriber{}, err
	}
	normalized, ok := NormalizeEmail(address)
	if !ok {
		return Subscriber{}, ErrInvalidEmail
	}
	lang = i18n.NormalizeCode(lang)
	now := s.nowUTC()

	subscriber, err := s.store.GetSubscriberByEmail(ctx, normalized)
	switch {
	case errors.Is(err, ErrNotFound):
		subscriberID, err := s.newID()
		if err != nil {
			return Subscriber{}, err
		}
		subscriber = Subscriber{
			ID:        subscriberID,
			Email:     normalized,
			CreatedAt: now,
		}
		if err := s.resetPending(&subscriber); err != nil {
			return Subscriber{}, err
		}
	case err != nil:
		return Subscriber{}, err
	case subscriber.Status == SubscriberConfirmed:
		return subscriber, nil
	case subscriber.Status == SubscriberUnsubscribed:
		if err := s.resetPending(&subscriber); err != nil {
			return Subscriber{}, err
		}
	}
	subscriber.Language = lang
	subscriber.UpdatedAt = now
	if err := s.store.PutSubscriber(ctx, subscriber); err != nil {
		return Subscriber{}, err
	}

	if s.confirmations != nil {
		if err := s.confirmations.SendConfirmation(ctx, subscriber); err != nil {
			return subscriber, fmt.Errorf("%w: %v", ErrConfirmationNotSent, err)
		}
	}
	return subscriber, nil
}

func (s *Service) resetPending(subscriber *Subscriber) error {
	confirmToken, err := s.newToken()
	if err != nil {
		return err
	}
	if subscriber.UnsubscribeToken == "" {
		unsubscribeToken, err := s.newToken()
		if err != nil {
			return err
		}
		subscriber.UnsubscribeToken = unsubscribeToken
	}
	subscriber.Status = SubscriberPending
	subscriber.ConfirmToken = confirmToken
	subscriber.ConfirmedAt = nil
	subscriber.UnsubscribedAt = nil
	return nil
}

// Confirm completes double opt-in. Confirming twice succeeds; a token of an
// address that unsubscribed since returns ErrInvalidTransition.
func (s *Service) Confirm(ctx context.Context, token string) (Subscriber, error) {
	if err := s.ready(); err != nil {
		return Subscriber{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Subscriber{}, ErrNotFound
	}
	subscriber, err := s.store.GetSubscriberByConfirmToken(ctx, token)
	if err != nil {
		return Subscriber{}, err
	}
	switch subscriber.Status {
	case SubscriberConfirmed:
		return subscriber, nil
	case SubscriberUnsubscribed:
		return Subscriber{}, ErrInvalidTransition
	}
	now := s.nowUTC()
	subscriber.Status = SubscriberConfirmed
	subscriber.ConfirmedAt = &now
	subscriber.UpdatedAt = now
	if err := s.store.PutSubscriber(ctx, subscriber); err != nil {
		return Subscriber{}, err
	}
	return subscriber, nil
}

// Unsubscribe opts the token's address out. It is idempotent.
func (s *Service) Unsubscribe(ctx context.Context, token string) (Subscriber, error) {
	if err := s.ready(); err != nil {
		return Subscriber{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Subscriber{}, ErrNotFound
	}
	subscriber, err := s.store.GetSubscriberByUnsubscribeToken(ctx, token)
	if err != nil {
		return Subscriber{}, err
	}
	if subscriber.Status == SubscriberUnsubscribed {
		return subscriber, nil
	}
	now := s.nowUTC()
	subscriber.Status = SubscriberUnsubscribed
	subscriber.UnsubscribedAt = &now
	subscriber.UpdatedAt = now
	if err := s.store.PutSubscriber(ctx, subscriber); err != nil {
		return Subscriber{}, err
	}
	return subscriber, nil
}

// SubscriberOverview summarizes the list for the admin screen.
type SubscriberOverview struct {
	Subscribers []Subscriber
	Counts      map[SubscriberStatus]int
}

// ListSubscribers returns subscribers filtered by status plus per-status counts.
func (s *Service) ListSubscribers(ctx context.Context, status SubscriberStatus) (SubscriberOverview, error) {
	if err := s.ready(); err != nil {
		return SubscriberOverview{}, err
	}
	subscribers, err := s.store.ListSubscribers(ctx, status)
	if err != nil {
		return SubscriberOverview{}, err
	}
	counts, err := s.store.CountSubscribers(ctx)
	if err != nil {
		return SubscriberOverview{}, err
	}
	return SubscriberOverview{Subscribers: subscribers, Counts: counts}, nil
}
