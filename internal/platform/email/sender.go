package email

import (
	"log"
	"strings"
)

// SenderConfig selects the outbound mail provider.
type SenderConfig struct {
	ResendAPIKey  string
	ResendBaseURL string
	From          string
	// Logger receives dry-run output when no API key is configured.
	Logger *log.Logger
}

// NewSender returns a Resend sender when an API key is configured and a
// dry-run LogSender otherwise.
func NewSender(cfg SenderConfig) (Sender, error) {
	if strings.TrimSpace(cfg.ResendAPIKey) == "" {
		logger := cfg.Logger
		if logger == nil {
			logger = log.Default()
		}
		logger.Printf("email provider not configured, using dry-run sender from=%q", cfg.From)
		return &LogSender{Logger: logger, From: strings.TrimSpace(cfg.From)}, nil
	}
	return NewResendSender(ResendConfig{
		APIKey:  cfg.ResendAPIKey,
		From:    cfg.From,
		BaseURL: cfg.ResendBaseURL,
	})
}
