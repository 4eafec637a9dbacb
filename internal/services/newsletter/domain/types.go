// Package domain holds the newsletter model: subscribers with double opt-in,
// newsletters with ordered sections and a status lifecycle, and the send jobs
// that record one delivery per recipient.
package domain

import (
	"strings"
	"time"

	"github.com/pepedome/site/internal/platform/i18n"
)

// Text holds one value per language code.
type Text map[string]string

// In returns the value for lang with an English fallback, then any other
// non-empty value in stable order.
func (t Text) In(lang string) string {
	return i18n.Pick(t, lang)
}

// Empty reports whether no language has a non-blank value.
func (t Text) Empty() bool {
	for _, value := range t {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// Clean trims values and drops blank languages.
func (t Text) Clean() Text {
	out := Text{}
	for lang, value := range t {
		lang = strings.ToLower(strings.TrimSpace(lang))
		value = strings.TrimSpace(value)
		if lang == "" || value == "" {
			continue
		}
		out[lang] = value
	}
	return out
}

// SubscriberStatus is the opt-in state of one address.
type SubscriberStatus string

const (
	SubscriberPending      SubscriberStatus = "pending"
	SubscriberConfirmed    SubscriberStatus = "confirmed"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
)

// Subscriber is one newsletter address.
type Subscriber struct {
	ID               string
	Email            string
	Language         string
	Status           SubscriberStatus
	ConfirmToken     string
	UnsubscribeToken string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ConfirmedAt      *time.Time
	UnsubscribedAt   *time.Time
}

// Status is the newsletter lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusCancelled Status = "cancelled"
)

// Editable reports whether content changes are allowed in s.
func (s Status) Editable() bool {
	return s == StatusDraft
}

// SectionKind identifies what a section renders.
type SectionKind string

const (
	SectionEvent    SectionKind = "event"
	SectionTraining SectionKind = "training"
	SectionText     SectionKind = "text"
)

// Valid reports whether k is a known section kind.
func (k SectionKind) Valid() bool {
	switch k {
	case SectionEvent, SectionTraining, SectionText:
		return true
	default:
		return false
	}
}

// Section is one ordered block of a newsletter.
type Section struct {
	ID           string
	NewsletterID string
	Position     int
	Kind         SectionKind
	// ContentID references a program item for event and training sections.
	ContentID string
	// Heading is the section title. Content sections store the program title
	// at selection time so the section still renders if the item is removed.
	Heading Text
	Body    Text
}

// Newsletter is one authored issue.
type Newsletter struct {
	ID          string
	Subject     Text
	Intro       Text
	Status      Status
	ScheduledAt *time.Time
	SentAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Sections    []Section
}

// JobStatus is the state of one send run.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
)

// SendJob tracks one dispatch of a newsletter to its recipient snapshot.
type SendJob struct {
	ID           string
	NewsletterID string
	Status       JobStatus
	Total        int
	Succeeded    int
	Failed       int
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// Recipient is one entry of a job's recipient snapshot.
type Recipient struct {
	SubscriberID     string
	Email            string
	Language         string
	UnsubscribeToken string
}

// DeliveryStatus is the outcome of one send attempt.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// Delivery records the single attempt made for one recipient of a job.
type Delivery struct {
	JobID             string
	SubscriberID      string
	Email             string
	Status            DeliveryStatus
	ProviderMessageID string
	Error             string
	// Permanent marks failures the provider rejected outright.
	Permanent   bool
	AttemptedAt time.Time
}
