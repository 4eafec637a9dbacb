package domain

import (
	"context"
	"time"
)

// SubscriberStore persists subscribers.
type SubscriberStore interface {
	GetSubscriberByEmail(ctx context.Context, email string) (Subscriber, error)
	GetSubscriberByConfirmToken(ctx context.Context, token string) (Subscriber, error)
	GetSubscriberByUnsubscribeToken(ctx context.Context, token string) (Subscriber, error)
	PutSubscriber(ctx context.Context, subscriber Subscriber) error
	// ListSubscribers lists subscribers with status, or all when status is empty.
	ListSubscribers(ctx context.Context, status SubscriberStatus) ([]Subscriber, error)
	CountSubscribers(ctx context.Context) (map[SubscriberStatus]int, error)
}

// NewsletterStore persists newsletters and their sections.
type NewsletterStore interface {
	// GetNewsletter returns the newsletter with sections ordered by position.
	GetNewsletter(ctx context.Context, id string) (Newsletter, error)
	// ListNewsletters returns newsletters newest first, without sections.
	ListNewsletters(ctx context.Context) ([]Newsletter, error)
	ListNewslettersByStatus(ctx context.Context, status Status) ([]Newsletter, error)
	// ListDueNewsletters returns scheduled newsletters due at or before now.
	ListDueNewsletters(ctx context.Context, now time.Time, limit int) ([]Newsletter, error)
	CreateNewsletter(ctx context.Context, newsletter Newsletter) error
	// UpdateNewsletter writes the newsletter header only if its stored status
	// still equals expected; otherwise it returns ErrConflict.
	UpdateNewsletter(ctx context.Context, newsletter Newsletter, expected Status) error
	PutSection(ctx context.Context, section Section) error
	DeleteSection(ctx context.Context, newsletterID string, sectionID string) error
	// SetSectionOrder rewrites positions densely from zero in the given order.
	SetSectionOrder(ctx context.Context, newsletterID string, orderedIDs []string) error
}

// JobStore persists send jobs, recipient snapshots, and deliveries.
type JobStore interface {
	CreateJob(ctx context.Context, job SendJob, recipients []Recipient) error
	GetJob(ctx context.Context, id string) (SendJob, error)
	// LatestJob returns the most recently started job for a newsletter.
	LatestJob(ctx context.Context, newsletterID string) (SendJob, error)
	// ListJobs returns a newsletter's jobs newest first.
	ListJobs(ctx context.Context, newsletterID string) ([]SendJob, error)
	// PendingRecipients lists snapshot recipients that have no delivery yet.
	PendingRecipients(ctx context.Context, jobID string) ([]Recipient, error)
	// RecordDelivery stores one outcome; a second outcome for the same
	// recipient returns ErrConflict.
	RecordDelivery(ctx context.Context, delivery Delivery) error
	ListDeliveries(ctx context.Context, jobID string) ([]Delivery, error)
	// CompleteJob derives totals from recorded deliveries and marks the job
	// completed.
	CompleteJob(ctx context.Context, jobID string, completedAt time.Time) (SendJob, error)
}

// LeaseStore records which worker currently owns a newsletter's send.
type LeaseStore interface {
	// AcquireSendLease grants owner the lease until expiresAt when no lease
	// exists, the current one expired at or before now, or owner already
	// holds it. It reports whether owner holds the lease afterwards.
	AcquireSendLease(ctx context.Context, newsletterID string, owner string, now time.Time, expiresAt time.Time) (bool, error)
	// ReleaseSendLease drops the lease only while owner holds it.
	ReleaseSendLease(ctx context.Context, newsletterID string, owner string) error
}

// Store is the full newsletter persistence boundary.
type Store interface {
	SubscriberStore
	NewsletterStore
	JobStore
	LeaseStore
}
