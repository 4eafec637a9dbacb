package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pepedome/site/internal/platform/timeouts"
	"github.com/resend/resend-go/v2"
)

// ResendConfig configures the Resend-backed sender.
type ResendConfig struct {
	APIKey string
	From   string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender validates cfg and builds a sender.
func NewResendSender(cfg ResendConfig) (*ResendSender, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("resend api key is required")
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		return nil, errors.New("from address is required")
	}
	httpClient := &http.Client{
		Timeout:   timeouts.EmailRequest,
		Transport: statusRecorder{next: http.DefaultTransport},
	}
	client := resend.NewCustomClient(httpClient, apiKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		parsed, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse resend base url: %w", err)
		}
		client.BaseURL = parsed
	}
	return &ResendSender{client: client, from: from}, nil
}

// Send delivers msg. Messages without a From use the configured sender
// address.
func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	if strings.TrimSpace(msg.From) == "" {
		msg.From = s.from
	}
	if err := msg.Validate(); err != nil {
		return "", err
	}
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
		Headers: msg.Headers,
	}
	status := &responseStatus{}
	sent, err := s.client.Emails.SendWithContext(context.WithValue(ctx, responseStatusKey{}, status), req)
	if err != nil {
		if status.code == 0 {
			return "", fmt.Errorf("resend send: %w", err)
		}
		err = fmt.Errorf("resend send: status %d: %w", status.code, err)
		if rejectsMessage(status.code) {
			return "", Permanent(err)
		}
		return "", err
	}
	if sent == nil || strings.TrimSpace(sent.Id) == "" {
		return "", errors.New("resend send: empty message id")
	}
	return sent.Id, nil
}

// rejectsMessage reports statuses where Resend refused this particular
// message. Rate limits and server errors clear up on their own.
func rejectsMessage(code int) bool {
	return code == http.StatusBadRequest || code == http.StatusUnprocessableEntity
}

type responseStatusKey struct{}

// responseStatus carries the HTTP status of one API call back to Send, since
// the client library reduces error responses to their message text.
type responseStatus struct {
	code int
}

type statusRecorder struct {
	next http.RoundTripper
}

func (t statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if status, ok := req.Context().Value(responseStatusKey{}).(*responseStatus); ok && resp != nil {
		status.code = resp.StatusCode
	}
	return resp, err
}
