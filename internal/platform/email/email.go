// Package email sends transactional mail through a provider API.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// Message is one outbound email.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
	Headers map[string]string
}

// Sender delivers one message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) (string, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Message) (string, error) {
	return f(ctx, msg)
}

type permanentError struct {
	cause error
}

func (e permanentError) Error() string {
	if e.cause == nil {
		return "permanent error"
	}
	return e.cause.Error()
}

func (e permanentError) Unwrap() error {
	return e.cause
}

// Permanent marks an error as one that resending the same message cannot fix.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{cause: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var target permanentError
	return errors.As(err, &target)
}

// Validate checks the fields every provider requires.
func (m Message) Validate() error {
	if strings.TrimSpace(m.From) == "" {
		return Permanent(errors.New("from address is required"))
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return Permanent(fmt.Errorf("invalid recipient %q: %w", m.To, err))
	}
	if strings.TrimSpace(m.Subject) == "" {
		return Permanent(errors.New("subject is required"))
	}
	if strings.TrimSpace(m.HTML) == "" && strings.TrimSpace(m.Text) == "" {
		return Permanent(errors.New("message body is required"))
	}
	return nil
}

// ValidAddress reports whether value is a single bare email address.
func ValidAddress(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	return addr.Address == value && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".")
}
