package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/pepedome/site/internal/platform/email"
	"github.com/pepedome/site/internal/services/newsletter/dispatch"
	"github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/newsletter/render"
	newslettersqlite "github.com/pepedome/site/internal/services/newsletter/storage/sqlite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSender struct {
	mu     sync.Mutex
	to     []string
	fail   map[string]bool
	onCall func(ctx context.Context, to string) error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{fail: map[string]bool{}}
}

func (s *recordingSender) Send(ctx context.Context, msg email.Message) (string, error) {
	s.mu.Lock()
	s.to = append(s.to, msg.To)
	n := len(s.to)
	onCall := s.onCall
	fail := s.fail[msg.To]
	s.mu.Unlock()
	if onCall != nil {
		if err := onCall(ctx, msg.To); err != nil {
			return "", err
		}
	}
	if fail {
		return "", errors.New("mailbox unavailable")
	}
	return fmt.Sprintf("provider-%d", n), nil
}

func (s *recordingSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.to...)
}

type harness struct {
	store  *newslettersqlite.Store
	svc    *domain.Service
	sender *recordingSender
	worker *Worker
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store, err := newslettersqlite.Open(ctx, filepath.Join(t.TempDir(), "newsletter.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})

	h := &harness{
		store:  store,
		sender: newRecordingSender(),
		now:    time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC),
	}
	h.svc = domain.NewService(domain.ServiceConfig{
		Store: store,
		Clock: func() time.Time { return h.now },
	})
	h.worker = h.newWorker(t, h.sender, store, Config{})

	for i, address := range []string{"ada@example.com", "bob@example.com", "cy@example.com"} {
		if err := store.PutSubscriber(ctx, domain.Subscriber{
			ID:               fmt.Sprintf("sub-%d", i+1),
			Email:            address,
			Language:         "en",
			Status:           domain.SubscriberConfirmed,
			ConfirmToken:     fmt.Sprintf("confirm-%d", i+1),
			UnsubscribeToken: fmt.Sprintf("unsub-%d", i+1),
			CreatedAt:        h.now,
			UpdatedAt:        h.now,
		}); err != nil {
			t.Fatalf("PutSubscriber: %v", err)
		}
	}
	if err := store.PutSubscriber(ctx, domain.Subscriber{
		ID:               "sub-pending",
		Email:            "pending@example.com",
		Language:         "de",
		Status:           domain.SubscriberPending,
		ConfirmToken:     "confirm-pending",
		UnsubscribeToken: "unsub-pending",
		CreatedAt:        h.now,
		UpdatedAt:        h.now,
	}); err != nil {
		t.Fatalf("PutSubscriber pending: %v", err)
	}
	return h
}

// newWorker builds another worker against the harness store, as a second
// process would.
func (h *harness) newWorker(t *testing.T, sender *recordingSender, recorder dispatch.Recorder, config Config) *Worker {
	t.Helper()
	renderer, err := render.NewRenderer("https://pepedome.example", nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	dispatcher := dispatch.New(email.SenderFunc(func(ctx context.Context, msg email.Message) (string, error) {
		msg.From = "newsletter@pepedome.example"
		return sender.Send(ctx, msg)
	}), recorder, dispatch.Config{})
	if config.PollInterval == 0 {
		config.PollInterval = time.Hour
	}
	worker := New(h.svc, dispatcher, renderer, config)
	worker.logf = func(string, ...any) {}
	return worker
}

func (h *harness) queuedNewsletter(t *testing.T) domain.Newsletter {
	t.Helper()
	ctx := context.Background()
	newsletter, err := h.svc.CreateDraft(ctx, domain.DraftInput{Subject: domain.Text{"en": "November"}})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := h.svc.AddTextSection(ctx, newsletter.ID, domain.Text{"en": "Hello"}, domain.Text{"en": "See you soon."}); err != nil {
		t.Fatalf("AddTextSection: %v", err)
	}
	queued, err := h.svc.SendNow(ctx, newsletter.ID)
	if err != nil {
		t.Fatalf("SendNow: %v", err)
	}
	return queued
}

func TestTickSendsDueNewsletterOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	newsletter := h.queuedNewsletter(t)
	h.sender.fail["bob@example.com"] = true

	if err := h.worker.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	want := []string{"ada@example.com", "bob@example.com", "cy@example.com"}
	if diff := cmp.Diff(want, h.sender.recipients()); diff != "" {
		t.Fatalf("recipients mismatch (-want +got):\n%s", diff)
	}

	report, err := h.svc.GetReport(ctx, newsletter.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if report.Newsletter.Status != domain.StatusSent || report.Newsletter.SentAt == nil {
		t.Fatalf("newsletter = %+v", report.Newsletter)
	}
	if len(report.Jobs) != 1 {
		t.Fatalf("jobs = %+v", report.Jobs)
	}
	job := report.Jobs[0]
	if job.Status != domain.JobCompleted || job.Total != 3 || job.Succeeded != 2 || job.Failed != 1 {
		t.Fatalf("job = %+v", job)
	}
	if len(report.Deliveries) != 3 || report.Deliveries[1].Status != domain.DeliveryFailed || report.Deliveries[1].Error != "mailbox unavailable" {
		t.Fatalf("deliveries = %+v", report.Deliveries)
	}

	if err := h.worker.Tick(ctx); err != nil {
		t.Fatalf("second Tick: %v", err)
	}
	if got := len(h.sender.recipients()); got != 3 {
		t.Fatalf("send calls after second tick = %d, want 3", got)
	}
}

func TestTickIgnoresFutureNewsletters(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	newsletter, _ := h.svc.CreateDraft(ctx, domain.DraftInput{Subject: domain.Text{"en": "Later"}})
	if _, err := h.svc.AddTextSection(ctx, newsletter.ID, nil, domain.Text{"en": "x"}); err != nil {
		t.Fatalf("AddTextSection: %v", err)
	}
	if _, err := h.svc.Schedule(ctx, newsletter.ID, h.now.Add(time.Hour)); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := h.worker.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := h.sender.recipients(); len(got) != 0 {
		t.Fatalf("sent = %v, want none", got)
	}
	loaded, _ := h.svc.GetNewsletter(ctx, newsletter.ID)
	if loaded.Status != domain.StatusScheduled {
		t.Fatalf("status = %s, want scheduled", loaded.Status)
	}
}

func TestResumeInterruptedSendsOnlyPendingRecipients(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	newsletter := h.queuedNewsletter(t)

	if _, ok, err := h.svc.Claim(ctx, newsletter.ID); err != nil || !ok {
		t.Fatalf("Claim = %v, %v", ok, err)
	}
	job, recipients, err := h.svc.StartJob(ctx, newsletter.ID)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	if err := h.store.RecordDelivery(ctx, domain.Delivery{
		JobID:             job.ID,
		SubscriberID:      recipients[0].SubscriberID,
		Email:             recipients[0].Email,
		Status:            domain.DeliverySent,
		ProviderMessageID: "before-crash",
		AttemptedAt:       h.now,
	}); err != nil {
		t.Fatalf("RecordDelivery: %v", err)
	}

	if err := h.worker.ResumeInterrupted(ctx); err != nil {
		t.Fatalf("ResumeInterrupted: %v", err)
	}
	if diff := cmp.Diff([]string{"bob@example.com", "cy@example.com"}, h.sender.recipients()); diff != "" {
		t.Fatalf("resumed recipients mismatch (-want +got):\n%s", diff)
	}
	report, err := h.svc.GetReport(ctx, newsletter.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if report.Newsletter.Status != domain.StatusSent {
		t.Fatalf("status = %s, want sent", report.Newsletter.Status)
	}
	if got := report.Jobs[0]; got.ID != job.ID || got.Succeeded != 3 || got.Failed != 0 {
		t.Fatalf("job = %+v", got)
	}
}

func TestResumeInterruptedMarksCompletedJobSent(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	newsletter := h.queuedNewsletter(t)

	if _, ok, err := h.svc.Claim(ctx, newsletter.ID); err != nil || !ok {
		t.Fatalf("Claim = %v, %v", ok, err)
	}
	job, _, err := h.svc.StartJob(ctx, newsletter.ID)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	if _, err := h.store.CompleteJob(ctx, job.ID, h.now); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	if err := h.worker.ResumeInterrupted(ctx); err != nil {
		t.Fatalf("ResumeInterrupted: %v", err)
	}
	if got := h.sender.recipients(); len(got) != 0 {
		t.Fatalf("sent = %v, want none", got)
	}
	loaded, _ := h.svc.GetNewsletter(ctx, newsletter.ID)
	if loaded.Status != domain.StatusSent {
		t.Fatalf("status = %s, want sent", loaded.Status)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.queuedNewsletter(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sent := make(chan struct{})
	var once sync.Once
	h.sender.onCall = func(context.Context, string) error {
		once.Do(func() { close(sent) })
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- h.worker.Run(ctx)
	}()

	select {
	case <-sent:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not send")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunRequiresDependencies(t *testing.T) {
	t.Parallel()

	if err := New(nil, nil, nil, Config{}).Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestConfigNormalized(t *testing.T) {
	t.Parallel()

	got := Config{}.normalized()
	if got.PollInterval != defaultPollInterval || got.BatchLimit != defaultBatchLimit || got.LeaseTTL != defaultLeaseTTL {
		t.Fatalf("normalized = %+v", got)
	}
	if New(nil, nil, nil, Config{}).config.Owner == "" {
		t.Fatal("expected generated lease owner")
	}
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func waitErr(t *testing.T, ch <-chan error, what string) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return nil
	}
}

// blockOn makes the sender hold the first message to address until release
// is closed, closing started once that message is in flight.
func blockOn(sender *recordingSender, address string, started chan<- struct{}, release <-chan struct{}) {
	var once sync.Once
	sender.onCall = func(_ context.Context, to string) error {
		if to == address {
			once.Do(func() {
				close(started)
				<-release
			})
		}
		return nil
	}
}

func TestResumeSkipsNewsletterBeingSentByAnotherWorker(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	newsletter := h.queuedNewsletter(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }
	t.Cleanup(unblock)
	blockOn(h.sender, "ada@example.com", started, release)

	otherSender := newRecordingSender()
	other := h.newWorker(t, otherSender, h.store, Config{Owner: "worker-b"})

	done := make(chan error, 1)
	go func() {
		done <- h.worker.Tick(ctx)
	}()
	waitFor(t, started, "first send")

	if err := other.ResumeInterrupted(ctx); err != nil {
		t.Fatalf("ResumeInterrupted: %v", err)
	}
	if err := other.Tick(ctx); err != nil {
		t.Fatalf("other Tick: %v", err)
	}
	if got := otherSender.recipients(); len(got) != 0 {
		t.Fatalf("second worker sent to %v while the first was sending", got)
	}

	unblock()
	if err := waitErr(t, done, "first worker tick"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if diff := cmp.Diff([]string{"ada@example.com", "bob@example.com", "cy@example.com"}, h.sender.recipients()); diff != "" {
		t.Fatalf("recipients mismatch (-want +got):\n%s", diff)
	}
	report, err := h.svc.GetReport(ctx, newsletter.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if report.Newsletter.Status != domain.StatusSent || len(report.Jobs) != 1 || len(report.Deliveries) != 3 {
		t.Fatalf("report = %+v", report)
	}
}

func TestConcurrentTicksSendEachRecipientOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	first := h.queuedNewsletter(t)
	second := h.queuedNewsletter(t)

	senders := []*recordingSender{h.sender, newRecordingSender()}
	workers := []*Worker{h.worker, h.newWorker(t, senders[1], h.store, Config{Owner: "worker-b"})}

	start := make(chan struct{})
	errs := make(chan error, len(workers))
	var wg sync.WaitGroup
	for _, worker := range workers {
		wg.Go(func() {
			<-start
			errs <- worker.Tick(ctx)
		})
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}

	counts := map[string]int{}
	for _, sender := range senders {
		for _, to := range sender.recipients() {
			counts[to]++
		}
	}
	want := map[string]int{"ada@example.com": 2, "bob@example.com": 2, "cy@example.com": 2}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Fatalf("sends per address mismatch (-want +got):\n%s", diff)
	}
	for _, newsletter := range []domain.Newsletter{first, second} {
		report, err := h.svc.GetReport(ctx, newsletter.ID)
		if err != nil {
			t.Fatalf("GetReport: %v", err)
		}
		if report.Newsletter.Status != domain.StatusSent || len(report.Jobs) != 1 || len(report.Deliveries) != 3 {
			t.Fatalf("report %s = %+v", newsletter.ID, report)
		}
	}
}

type flakyRecorder struct {
	dispatch.Recorder

	mu       sync.Mutex
	failures int
}

func (r *flakyRecorder) RecordDelivery(ctx context.Context, delivery domain.Delivery) error {
	r.mu.Lock()
	fail := r.failures > 0
	if fail {
		r.failures--
	}
	r.mu.Unlock()
	if fail {
		return errors.New("database is locked")
	}
	return r.Recorder.RecordDelivery(ctx, delivery)
}

func TestTickContinuesPastFailedNewsletterAndRetriesIt(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	first := h.queuedNewsletter(t)
	second := h.queuedNewsletter(t)
	worker := h.newWorker(t, h.sender, &flakyRecorder{Recorder: h.store, failures: 1}, Config{})

	statuses := func() map[domain.Status]int {
		t.Helper()
		out := map[domain.Status]int{}
		for _, newsletter := range []domain.Newsletter{first, second} {
			loaded, err := h.svc.GetNewsletter(ctx, newsletter.ID)
			if err != nil {
				t.Fatalf("GetNewsletter: %v", err)
			}
			out[loaded.Status]++
		}
		return out
	}

	if err := worker.Tick(ctx); err != nil {
		t.Fatalf("first Tick: %v", err)
	}
	if diff := cmp.Diff(map[domain.Status]int{domain.StatusSending: 1, domain.StatusSent: 1}, statuses()); diff != "" {
		t.Fatalf("statuses after first tick (-want +got):\n%s", diff)
	}

	if err := worker.Tick(ctx); err != nil {
		t.Fatalf("second Tick: %v", err)
	}
	if diff := cmp.Diff(map[domain.Status]int{domain.StatusSent: 2}, statuses()); diff != "" {
		t.Fatalf("statuses after second tick (-want +got):\n%s", diff)
	}
	// The address whose outcome was lost is attempted again.
	if got := len(h.sender.recipients()); got != 7 {
		t.Fatalf("send calls = %d, want 7", got)
	}
	for _, newsletter := range []domain.Newsletter{first, second} {
		report, err := h.svc.GetReport(ctx, newsletter.ID)
		if err != nil {
			t.Fatalf("GetReport: %v", err)
		}
		if len(report.Jobs) != 1 || report.Jobs[0].Succeeded != 3 {
			t.Fatalf("jobs for %s = %+v", newsletter.ID, report.Jobs)
		}
	}
}

func TestResumeTakesOverExpiredLease(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	newsletter := h.queuedNewsletter(t)

	if ok, err := h.svc.AcquireLease(ctx, newsletter.ID, "stopped-worker", time.Minute); err != nil || !ok {
		t.Fatalf("AcquireLease = %v, %v", ok, err)
	}
	if _, ok, err := h.svc.Claim(ctx, newsletter.ID); err != nil || !ok {
		t.Fatalf("Claim = %v, %v", ok, err)
	}
	if _, _, err := h.svc.StartJob(ctx, newsletter.ID); err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	if err := h.worker.ResumeInterrupted(ctx); err != nil {
		t.Fatalf("ResumeInterrupted: %v", err)
	}
	if got := h.sender.recipients(); len(got) != 0 {
		t.Fatalf("sent = %v before the lease expired", got)
	}

	h.now = h.now.Add(time.Minute)
	if err := h.worker.ResumeInterrupted(ctx); err != nil {
		t.Fatalf("ResumeInterrupted after expiry: %v", err)
	}
	if got := len(h.sender.recipients()); got != 3 {
		t.Fatalf("send calls = %d, want 3", got)
	}
	loaded, _ := h.svc.GetNewsletter(ctx, newsletter.ID)
	if loaded.Status != domain.StatusSent {
		t.Fatalf("status = %s, want sent", loaded.Status)
	}
}

func TestSendStopsWhenLeaseIsTakenOver(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	newsletter := h.queuedNewsletter(t)
	worker := h.newWorker(t, h.sender, h.store, Config{Owner: "worker-a", LeaseTTL: 30 * time.Millisecond})

	started := make(chan struct{})
	var once sync.Once
	h.sender.onCall = func(ctx context.Context, to string) error {
		if to != "ada@example.com" {
			return nil
		}
		once.Do(func() { close(started) })
		<-ctx.Done()
		return ctx.Err()
	}

	done := make(chan error, 1)
	go func() {
		done <- worker.Tick(ctx)
	}()
	waitFor(t, started, "first send")

	later := h.now.Add(time.Hour)
	if ok, err := h.store.AcquireSendLease(ctx, newsletter.ID, "worker-b", later, later.Add(time.Hour)); err != nil || !ok {
		t.Fatalf("take over lease = %v, %v", ok, err)
	}
	if err := waitErr(t, done, "tick after losing the lease"); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if diff := cmp.Diff([]string{"ada@example.com"}, h.sender.recipients()); diff != "" {
		t.Fatalf("recipients mismatch (-want +got):\n%s", diff)
	}
	loaded, _ := h.svc.GetNewsletter(ctx, newsletter.ID)
	if loaded.Status != domain.StatusSending {
		t.Fatalf("status = %s, want sending", loaded.Status)
	}
	if ok, err := h.svc.AcquireLease(ctx, newsletter.ID, "worker-c", time.Minute); err != nil || ok {
		t.Fatalf("lease after takeover = %v, %v, want still held by worker-b", ok, err)
	}
}
