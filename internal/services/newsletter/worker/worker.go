// Package worker polls for due newsletters and hands each one to the
// dispatcher.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pepedome/site/internal/services/newsletter/dispatch"
	"github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/newsletter/render"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultBatchLimit   = 10
	defaultLeaseTTL     = 2 * time.Minute
)

var errLeaseLost = errors.New("send lease lost")

// Renderer renders a newsletter for one recipient.
type Renderer interface {
	Render(ctx context.Context, newsletter domain.Newsletter, recipient domain.Recipient) (render.Email, error)
}

// Newsletters is the subset of the newsletter service the loop drives.
type Newsletters interface {
	DueNewsletters(ctx context.Context, limit int) ([]domain.Newsletter, error)
	InterruptedNewsletters(ctx context.Context) ([]domain.Newsletter, error)
	GetNewsletter(ctx context.Context, newsletterID string) (domain.Newsletter, error)
	AcquireLease(ctx context.Context, newsletterID string, owner string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, newsletterID string, owner string) error
	Claim(ctx context.Context, newsletterID string) (domain.Newsletter, bool, error)
	StartJob(ctx context.Context, newsletterID string) (domain.SendJob, []domain.Recipient, error)
	ResumeJob(ctx context.Context, newsletterID string) (domain.SendJob, []domain.Recipient, error)
	MarkSent(ctx context.Context, newsletterID string) (domain.Newsletter, error)
}

// Config controls polling.
type Config struct {
	PollInterval time.Duration
	// BatchLimit caps how many due newsletters one poll claims.
	BatchLimit int
	// LeaseTTL bounds how long a stopped worker keeps other workers away
	// from its newsletter. Live workers renew at a third of it.
	LeaseTTL time.Duration
	// Owner identifies this worker in send leases. Empty picks a random id.
	Owner string
}

func (c Config) normalized() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = defaultBatchLimit
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = defaultLeaseTTL
	}
	return c
}

// Worker claims due newsletters and sends them.
type Worker struct {
	newsletters Newsletters
	dispatcher  *dispatch.Dispatcher
	renderer    Renderer
	config      Config
	logf        func(string, ...any)
}

// New builds a worker loop.
func New(newsletters Newsletters, dispatcher *dispatch.Dispatcher, renderer Renderer, config Config) *Worker {
	config = config.normalized()
	if strings.TrimSpace(config.Owner) == "" {
		config.Owner = uuid.NewString()
	}
	return &Worker{
		newsletters: newsletters,
		dispatcher:  dispatcher,
		renderer:    renderer,
		config:      config,
		logf:        log.Printf,
	}
}

// Run polls until ctx ends. Every poll first resumes interrupted sends.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.newsletters == nil || w.dispatcher == nil || w.renderer == nil {
		return errors.New("newsletter worker is not configured")
	}
	w.logf("newsletter worker started owner=%s poll=%s lease=%s", w.config.Owner, w.config.PollInterval, w.config.LeaseTTL)
	if err := w.Tick(ctx); err != nil && ctx.Err() == nil {
		w.logf("newsletter poll failed: %v", err)
	}

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil && ctx.Err() == nil {
				w.logf("newsletter poll failed: %v", err)
			}
		}
	}
}

// Tick resumes interrupted sends, then claims and sends every newsletter due
// now. A newsletter leased or claimed by someone else is skipped. A failed
// newsletter is logged and left for a later tick.
func (w *Worker) Tick(ctx context.Context) error {
	if err := w.ResumeInterrupted(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logf("newsletter resume failed: %v", err)
	}
	due, err := w.newsletters.DueNewsletters(ctx, w.config.BatchLimit)
	if err != nil {
		return fmt.Errorf("list due newsletters: %w", err)
	}
	for _, candidate := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.withLease(ctx, candidate.ID, w.sendDue); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logf("newsletter send failed id=%s: %v", candidate.ID, err)
		}
	}
	return nil
}

// ResumeInterrupted finishes newsletters left in sending whose lease is free
// or expired, attempting only recipients without a recorded delivery.
func (w *Worker) ResumeInterrupted(ctx context.Context) error {
	interrupted, err := w.newsletters.InterruptedNewsletters(ctx)
	if err != nil {
		return fmt.Errorf("list interrupted newsletters: %w", err)
	}
	for _, candidate := range interrupted {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.withLease(ctx, candidate.ID, w.resume); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logf("newsletter resume failed id=%s: %v", candidate.ID, err)
		}
	}
	return nil
}

func (w *Worker) sendDue(ctx context.Context, newsletterID string) error {
	newsletter, ok, err := w.newsletters.Claim(ctx, newsletterID)
	if err != nil {
		return fmt.Errorf("claim: %w", err)
	}
	if !ok {
		w.logf("newsletter already claimed id=%s", newsletterID)
		return nil
	}
	job, recipients, err := w.newsletters.StartJob(ctx, newsletter.ID)
	if err != nil {
		return fmt.Errorf("start job: %w", err)
	}
	w.logf("newsletter send started id=%s job=%s recipients=%d", newsletter.ID, job.ID, len(recipients))
	return w.send(ctx, newsletter, job, recipients)
}

func (w *Worker) resume(ctx context.Context, newsletterID string) error {
	newsletter, err := w.newsletters.GetNewsletter(ctx, newsletterID)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	// Finished or cancelled between listing and leasing.
	if newsletter.Status != domain.StatusSending {
		return nil
	}
	job, pending, err := w.newsletters.ResumeJob(ctx, newsletter.ID)
	if err != nil {
		return fmt.Errorf("resume job: %w", err)
	}
	if job.Status == domain.JobCompleted {
		if _, err := w.newsletters.MarkSent(ctx, newsletter.ID); err != nil {
			return fmt.Errorf("mark sent: %w", err)
		}
		return nil
	}
	w.logf("newsletter send resumed id=%s job=%s pending=%d", newsletter.ID, job.ID, len(pending))
	return w.send(ctx, newsletter, job, pending)
}

// withLease runs fn while this worker holds the newsletter's send lease and
// renews it in the background. Losing the lease cancels fn's context.
func (w *Worker) withLease(ctx context.Context, newsletterID string, fn func(context.Context, string) error) error {
	ok, err := w.newsletters.AcquireLease(ctx, newsletterID, w.config.Owner, w.config.LeaseTTL)
	if err != nil {
		return fmt.Errorf("acquire lease: %w", err)
	}
	if !ok {
		w.logf("newsletter leased by another worker id=%s", newsletterID)
		return nil
	}
	defer func() {
		if err := w.newsletters.ReleaseLease(context.WithoutCancel(ctx), newsletterID, w.config.Owner); err != nil {
			w.logf("newsletter lease release failed id=%s: %v", newsletterID, err)
		}
	}()

	leaseCtx, cancel := context.WithCancelCause(ctx)
	var wg sync.WaitGroup
	wg.Go(func() {
		w.renew(leaseCtx, newsletterID, cancel)
	})
	err = fn(leaseCtx, newsletterID)
	cancel(nil)
	wg.Wait()
	if err != nil && errors.Is(context.Cause(leaseCtx), errLeaseLost) {
		return fmt.Errorf("%w: %w", errLeaseLost, err)
	}
	return err
}

func (w *Worker) renew(ctx context.Context, newsletterID string, cancel context.CancelCauseFunc) {
	ticker := time.NewTicker(w.config.LeaseTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := w.newsletters.AcquireLease(ctx, newsletterID, w.config.Owner, w.config.LeaseTTL)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				w.logf("newsletter lease renewal failed id=%s: %v", newsletterID, err)
				continue
			}
			if !ok {
				cancel(errLeaseLost)
				return
			}
		}
	}
}

func (w *Worker) send(ctx context.Context, newsletter domain.Newsletter, job domain.SendJob, recipients []domain.Recipient) error {
	renderFn := func(ctx context.Context, recipient domain.Recipient) (render.Email, error) {
		return w.renderer.Render(ctx, newsletter, recipient)
	}
	if _, err := w.dispatcher.Run(ctx, job, recipients, renderFn); err != nil {
		return fmt.Errorf("dispatch job %s: %w", job.ID, err)
	}
	if _, err := w.newsletters.MarkSent(context.WithoutCancel(ctx), newsletter.ID); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	w.logf("newsletter sent id=%s job=%s", newsletter.ID, job.ID)
	return nil
}
