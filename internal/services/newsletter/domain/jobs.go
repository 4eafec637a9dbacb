package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DueNewsletters lists scheduled newsletters whose send time has passed.
func (s *Service) DueNewsletters(ctx context.Context, limit int) ([]Newsletter, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListDueNewsletters(ctx, s.nowUTC(), limit)
}

// InterruptedNewsletters lists newsletters left in sending, typically by a
// worker that stopped mid-job.
func (s *Service) InterruptedNewsletters(ctx context.Context) ([]Newsletter, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListNewslettersByStatus(ctx, StatusSending)
}

// AcquireLease gives owner exclusive send rights on a newsletter for ttl.
// Calling it again before expiry extends the lease. It reports false while
// another owner holds an unexpired lease.
func (s *Service) AcquireLease(ctx context.Context, newsletterID string, owner string, ttl time.Duration) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if strings.TrimSpace(owner) == "" || ttl <= 0 {
		return false, errors.New("lease owner and ttl are required")
	}
	now := s.nowUTC()
	return s.store.AcquireSendLease(ctx, newsletterID, owner, now, now.Add(ttl))
}

// ReleaseLease gives up owner's lease so another worker can pick the
// newsletter up without waiting for expiry.
func (s *Service) ReleaseLease(ctx context.Context, newsletterID string, owner string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.store.ReleaseSendLease(ctx, newsletterID, owner)
}

// StartJob snapshots the confirmed subscribers of a sending newsletter into a
// new running job. Later subscribers are not added to the job.
func (s *Service) StartJob(ctx context.Context, newsletterID string) (SendJob, []Recipient, error) {
	newsletter, err := s.loadNewsletter(ctx, newsletterID)
	if err != nil {
		return SendJob{}, nil, err
	}
	if newsletter.Status != StatusSending {
		return SendJob{}, nil, ErrInvalidTransition
	}
	subscribers, err := s.store.ListSubscribers(ctx, SubscriberConfirmed)
	if err != nil {
		return SendJob{}, nil, fmt.Errorf("list confirmed subscribers: %w", err)
	}
	recipients := make([]Recipient, 0, len(subscribers))
	for _, subscriber := range subscribers {
		recipients = append(recipients, Recipient{
			SubscriberID:     subscriber.ID,
			Email:            subscriber.Email,
			Language:         subscriber.Language,
			UnsubscribeToken: subscriber.UnsubscribeToken,
		})
	}
	jobID, err := s.newID()
	if err != nil {
		return SendJob{}, nil, fmt.Errorf("generate job id: %w", err)
	}
	job := SendJob{
		ID:           jobID,
		NewsletterID: newsletter.ID,
		Status:       JobRunning,
		Total:        len(recipients),
		StartedAt:    s.nowUTC(),
	}
	if err := s.store.CreateJob(ctx, job, recipients); err != nil {
		return SendJob{}, nil, err
	}
	return job, recipients, nil
}

// ResumeJob returns the latest job of a sending newsletter together with the
// snapshot recipients that have no delivery yet. A completed job comes back
// with no recipients; a newsletter without any job starts one.
func (s *Service) ResumeJob(ctx context.Context, newsletterID string) (SendJob, []Recipient, error) {
	if err := s.ready(); err != nil {
		return SendJob{}, nil, err
	}
	job, err := s.store.LatestJob(ctx, newsletterID)
	if errors.Is(err, ErrNotFound) {
		return s.StartJob(ctx, newsletterID)
	}
	if err != nil {
		return SendJob{}, nil, err
	}
	if job.Status == JobCompleted {
		return job, nil, nil
	}
	pending, err := s.store.PendingRecipients(ctx, job.ID)
	if err != nil {
		return SendJob{}, nil, fmt.Errorf("list pending recipients: %w", err)
	}
	return job, pending, nil
}
