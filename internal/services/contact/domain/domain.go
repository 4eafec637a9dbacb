// Package domain validates contact form submissions, stores them, and
// forwards them to the venue inbox.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pepedome/site/internal/platform/id"
)

const (
	// MaxMessageLength bounds the message body in characters.
	MaxMessageLength = 5000
	maxNameLength    = 200
)

var (
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("contact store is not configured")
	// ErrNotFound indicates an unknown submission id.
	ErrNotFound = errors.New("contact submission not found")
)

// Topic routes a submission inside the venue team.
type Topic string

const (
	TopicGeneral  Topic = "general"
	TopicBooking  Topic = "booking"
	TopicTraining Topic = "training"
	TopicPress    Topic = "press"
)

// Topics lists the selectable topics in form order.
func Topics() []Topic {
	return []Topic{TopicGeneral, TopicBooking, TopicTraining, TopicPress}
}

// Valid reports whether t is a known topic.
func (t Topic) Valid() bool {
	for _, topic := range Topics() {
		if t == topic {
			return true
		}
	}
	return false
}

// ForwardStatus tracks delivery to the venue inbox.
type ForwardStatus string

const (
	ForwardPending   ForwardStatus = "pending"
	ForwardDelivered ForwardStatus = "forwarded"
	ForwardFailed    ForwardStatus = "failed"
)

// Submission is one stored contact request.
type Submission struct {
	ID            string
	Name          string
	Email         string
	Topic         Topic
	Message       string
	Language      string
	ForwardStatus ForwardStatus
	ForwardError  string
	CreatedAt     time.Time
	ForwardedAt   *time.Time
}

// Input is the raw form payload.
type Input struct {
	Name     string
	Email    string
	Topic    string
	Message  string
	Language string
	// Website is a honeypot field hidden from people.
	Website string
}

// ValidationError maps form fields to localization keys.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	return fmt.Sprintf("invalid contact submission: %s", strings.Join(fields, ", "))
}

// Store persists submissions.
type Store interface {
	PutSubmission(ctx context.Context, submission Submission) error
	UpdateForwardStatus(ctx context.Context, id string, status ForwardStatus, forwardError string, at time.Time) error
	GetSubmission(ctx context.Context, id string) (Submission, error)
}

// Forwarder delivers a submission to the venue inbox.
type Forwarder interface {
	Forward(ctx context.Context, submission Submission) error
}

// Service handles contact submissions.
type Service struct {
	store     Store
	forwarder Forwarder
	clock     func() time.Time
	newID     func() (string, error)
	logf      func(string, ...any)
}

// NewService builds a contact service. A nil forwarder stores submissions
// without forwarding them.
func NewService(store Store, forwarder Forwarder) *Service {
	return &Service{
		store:     store,
		forwarder: forwarder,
		clock:     time.Now,
		newID:     id.NewID,
		logf:      log.Printf,
	}
}

// Validate normalizes input and reports field errors.
func Validate(input Input) (Input, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Topic = strings.ToLower(strings.TrimSpace(input.Topic))
	input.Message = strings.TrimSpace(strings.ReplaceAll(input.Message, "\r\n", "\n"))
	if input.Topic == "" {
		input.Topic = string(TopicGeneral)
	}

	fields := map[string]string{}
	if input.Name == "" || utf8.RuneCountInString(input.Name) > maxNameLength {
		fields["name"] = "contact.error.name_required"
	}
	if address, err := mail.ParseAddress(input.Email); err != nil || address.Address != input.Email {
		fields["email"] = "contact.error.email_invalid"
	}
	if !Topic(input.Topic).Valid() {
		fields["topic"] = "contact.error.topic_invalid"
	}
	switch {
	case input.Message == "":
		fields["message"] = "contact.error.message_required"
	case utf8.RuneCountInString(input.Message) > MaxMessageLength:
		fields["message"] = "contact.error.message_too_long"
	}
	if len(fields) > 0 {
		return input, &ValidationError{Fields: fields}
	}
	return input, nil
}

// Submit validates, stores, and forwards a submission. A filled honeypot is
// accepted without storing anything. A forward failure is logged and kept on
// the stored submission; it is not returned as an error.
func (s *Service) Submit(ctx context.Context, input Input) (Submission, error) {
	if s == nil || s.store == nil {
		return Submission{}, ErrStoreNotConfigured
	}
	if strings.TrimSpace(input.Website) != "" {
		s.logf("contact honeypot triggered email=%s", strings.TrimSpace(input.Email))
		return Submission{}, nil
	}
	normalized, err := Validate(input)
	if err != nil {
		return Submission{}, err
	}

	submissionID, err := s.newID()
	if err != nil {
		return Submission{}, fmt.Errorf("generate submission id: %w", err)
	}
	submission := Submission{
		ID:            submissionID,
		Name:          normalized.Name,
		Email:         normalized.Email,
		Topic:         Topic(normalized.Topic),
		Message:       normalized.Message,
		Language:      strings.TrimSpace(normalized.Language),
		ForwardStatus: ForwardPending,
		CreatedAt:     s.clock().UTC(),
	}
	if err := s.store.PutSubmission(ctx, submission); err != nil {
		return Submission{}, fmt.Errorf("store submission: %w", err)
	}
	if s.forwarder == nil {
		return submission, nil
	}

	status, forwardError := ForwardDelivered, ""
	if err := s.forwarder.Forward(ctx, submission); err != nil {
		status, forwardError = ForwardFailed, err.Error()
		s.logf("contact forward failed id=%s err=%v", submission.ID, err)
	}
	at := s.clock().UTC()
	if err := s.store.UpdateForwardStatus(context.WithoutCancel(ctx), submission.ID, status, forwardError, at); err != nil {
		return Submission{}, fmt.Errorf("update forward status: %w", err)
	}
	submission.ForwardStatus = status
	submission.ForwardError = forwardError
	if status == ForwardDelivered {
		submission.ForwardedAt = &at
	}
	return submission, nil
}
