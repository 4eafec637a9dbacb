package email

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// LogSender logs messages instead of sending them. It stands in for the
// provider when no API key is configured.
type LogSender struct {
	Logger *log.Logger
	// From fills messages that carry no sender address.
	From string
	seq  atomic.Uint64
}

// Send logs msg and returns a synthetic id.
func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(msg.From) == "" {
		msg.From = s.From
	}
	if err := msg.Validate(); err != nil {
		return "", err
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	id := fmt.Sprintf("dryrun-%d", s.seq.Add(1))
	logger.Printf("email dry-run id=%s to=%s subject=%q html_bytes=%d text_bytes=%d", id, msg.To, msg.Subject, len(msg.HTML), len(msg.Text))
	return id, nil
}
