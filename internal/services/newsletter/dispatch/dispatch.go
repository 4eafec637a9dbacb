// Package dispatch sends one newsletter job to its recipients sequentially,
// pacing calls to stay under the email provider's rate limit.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pepedome/site/internal/platform/email"
	"github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/newsletter/render"
)

const (
	// DefaultDelay is the pause between consecutive provider calls.
	DefaultDelay = 600 * time.Millisecond
	// DefaultBatchSize is the number of calls after which BatchPause applies.
	DefaultBatchSize = 10
	// DefaultBatchPause is the extra pause after every batch.
	DefaultBatchPause = 2 * time.Second
)

const tracerName = "github.com/pepedome/site/internal/services/newsletter/dispatch"

// RenderFunc renders the email for one recipient.
type RenderFunc func(ctx context.Context, recipient domain.Recipient) (render.Email, error)

// Recorder persists delivery outcomes and job completion.
type Recorder interface {
	RecordDelivery(ctx context.Context, delivery domain.Delivery) error
	CompleteJob(ctx context.Context, jobID string, completedAt time.Time) (domain.SendJob, error)
}

// Config controls pacing.
type Config struct {
	Delay      time.Duration
	BatchSize  int
	BatchPause time.Duration
}

func (c Config) normalized() Config {
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchPause < 0 {
		c.BatchPause = 0
	}
	return c
}

// DefaultConfig returns the pacing used against the production provider.
func DefaultConfig() Config {
	return Config{Delay: DefaultDelay, BatchSize: DefaultBatchSize, BatchPause: DefaultBatchPause}
}

// Dispatcher sends jobs through one email sender.
type Dispatcher struct {
	sender   email.Sender
	recorder Recorder
	config   Config
	clock    func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	tracer   trace.Tracer
	logf     func(string, ...any)
}

// New builds a dispatcher.
func New(sender email.Sender, recorder Recorder, config Config) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		recorder: recorder,
		config:   config.normalized(),
		clock:    time.Now,
		sleep:    sleepContext,
		tracer:   otel.Tracer(tracerName),
		logf:     log.Printf,
	}
}

// Result summarizes one Run.
type Result struct {
	Attempted int
	Succeeded int
	Failed    int
	// Job is the completed job; it is zero when Run stopped early.
	Job domain.SendJob
}

// Run renders and sends once per recipient in order. Every outcome is
// recorded and failures never stop the loop. When all recipients have been
// attempted the job is completed. Cancellation stops between recipients and
// leaves the job running so a later Run can resume with the remainder.
func (d *Dispatcher) Run(ctx context.Context, job domain.SendJob, recipients []domain.Recipient, renderFn RenderFunc) (Result, error) {
	if d == nil || d.sender == nil || d.recorder == nil {
		return Result{}, errors.New("dispatcher is not configured")
	}
	if renderFn == nil {
		return Result{}, errors.New("render function is required")
	}
	if strings.TrimSpace(job.ID) == "" {
		return Result{}, errors.New("job id is required")
	}

	ctx, span := d.tracer.Start(ctx, "newsletter.dispatch", trace.WithAttributes(
		attribute.String("newsletter.id", job.NewsletterID),
		attribute.String("job.id", job.ID),
		attribute.Int("job.recipients", len(recipients)),
	))
	defer span.End()

	var result Result
	for idx, recipient := range recipients {
		if err := ctx.Err(); err != nil {
			return d.stopped(span, result, err)
		}

		delivery := d.deliver(ctx, job, recipient, renderFn)
		result.Attempted++
		if delivery.Status == domain.DeliverySent {
			result.Succeeded++
		} else {
			result.Failed++
			d.logf("newsletter delivery failed job=%s subscriber=%s permanent=%t err=%s", job.ID, recipient.SubscriberID, delivery.Permanent, delivery.Error)
		}
		if err := d.recorder.RecordDelivery(context.WithoutCancel(ctx), delivery); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "record delivery")
			return result, fmt.Errorf("record delivery for %s: %w", recipient.SubscriberID, err)
		}

		if idx == len(recipients)-1 {
			break
		}
		if err := d.sleep(ctx, d.pauseAfter(result.Attempted)); err != nil {
			return d.stopped(span, result, err)
		}
	}

	completed, err := d.recorder.CompleteJob(context.WithoutCancel(ctx), job.ID, d.clock().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete job")
		return result, fmt.Errorf("complete job %s: %w", job.ID, err)
	}
	result.Job = completed
	span.SetAttributes(
		attribute.Int("job.succeeded", completed.Succeeded),
		attribute.Int("job.failed", completed.Failed),
	)
	d.logf("newsletter job completed job=%s newsletter=%s total=%d succeeded=%d failed=%d", completed.ID, completed.NewsletterID, completed.Total, completed.Succeeded, completed.Failed)
	return result, nil
}

// pauseAfter returns the wait following the calls-th provider call.
func (d *Dispatcher) pauseAfter(calls int) time.Duration {
	pause := d.config.Delay
	if calls%d.config.BatchSize == 0 {
		pause += d.config.BatchPause
	}
	return pause
}

func (d *Dispatcher) stopped(span trace.Span, result Result, err error) (Result, error) {
	span.SetStatus(codes.Error, "dispatch interrupted")
	span.SetAttributes(attribute.Int("job.attempted", result.Attempted))
	return result, fmt.Errorf("dispatch interrupted after %d recipients: %w", result.Attempted, err)
}

// deliver makes the single attempt for recipient.
func (d *Dispatcher) deliver(ctx context.Context, job domain.SendJob, recipient domain.Recipient, renderFn RenderFunc) domain.Delivery {
	ctx, span := d.tracer.Start(ctx, "newsletter.send", trace.WithAttributes(
		attribute.String("subscriber.id", recipient.SubscriberID),
	))
	defer span.End()

	delivery := domain.Delivery{
		JobID:        job.ID,
		SubscriberID: recipient.SubscriberID,
		Email:        recipient.Email,
	}
	fail := func(err error) domain.Delivery {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		delivery.Status = domain.DeliveryFailed
		delivery.Error = err.Error()
		delivery.Permanent = email.IsPermanent(err)
		delivery.AttemptedAt = d.clock().UTC()
		return delivery
	}

	rendered, err := renderFn(ctx, recipient)
	if err != nil {
		return fail(email.Permanent(fmt.Errorf("render: %w", err)))
	}
	providerID, err := d.sender.Send(ctx, email.Message{
		To:      recipient.Email,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
		Headers: rendered.Headers,
	})
	if err != nil {
		return fail(err)
	}
	delivery.Status = domain.DeliverySent
	delivery.ProviderMessageID = providerID
	delivery.AttemptedAt = d.clock().UTC()
	return delivery
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
