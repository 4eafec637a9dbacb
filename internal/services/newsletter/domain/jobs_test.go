package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func claimedNewsletter(t *testing.T, f *fixture) Newsletter {
	t.Helper()
	ctx := context.Background()
	newsletter, _ := createDraftWithSections(t, f)
	if _, err := f.svc.SendNow(ctx, newsletter.ID); err != nil {
		t.Fatalf("SendNow: %v", err)
	}
	claimed, ok, err := f.svc.Claim(ctx, newsletter.ID)
	if err != nil || !ok {
		t.Fatalf("Claim = %v, %v", ok, err)
	}
	return claimed
}

func addSubscriber(t *testing.T, f *fixture, id string, email string, status SubscriberStatus) {
	t.Helper()
	if err := f.store.PutSubscriber(context.Background(), Subscriber{
		ID:               id,
		Email:            email,
		Language:         "de",
		Status:           status,
		UnsubscribeToken: "unsub-" + id,
	}); err != nil {
		t.Fatalf("PutSubscriber: %v", err)
	}
}

func TestDueNewsletters(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	newsletter, _ := createDraftWithSections(t, f)
	if _, err := f.svc.SendNow(ctx, newsletter.ID); err != nil {
		t.Fatalf("SendNow: %v", err)
	}
	later, _ := f.svc.CreateDraft(ctx, DraftInput{Subject: Text{"en": "Later"}})
	if _, err := f.svc.AddTextSection(ctx, later.ID, nil, Text{"en": "x"}); err != nil {
		t.Fatalf("AddTextSection: %v", err)
	}
	if _, err := f.svc.Schedule(ctx, later.ID, f.now.Add(time.Hour)); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	due, err := f.svc.DueNewsletters(ctx, 10)
	if err != nil {
		t.Fatalf("DueNewsletters: %v", err)
	}
	if len(due) != 1 || due[0].ID != newsletter.ID {
		t.Fatalf("due = %+v, want only %s", due, newsletter.ID)
	}
}

func TestStartJobSnapshotsConfirmedSubscribers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	addSubscriber(t, f, "s1", "a@example.com", SubscriberConfirmed)
	addSubscriber(t, f, "s2", "b@example.com", SubscriberPending)
	addSubscriber(t, f, "s3", "c@example.com", SubscriberConfirmed)
	addSubscriber(t, f, "s4", "d@example.com", SubscriberUnsubscribed)

	newsletter := claimedNewsletter(t, f)
	job, recipients, err := f.svc.StartJob(ctx, newsletter.ID)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	want := []Recipient{
		{SubscriberID: "s1", Email: "a@example.com", Language: "de", UnsubscribeToken: "unsub-s1"},
		{SubscriberID: "s3", Email: "c@example.com", Language: "de", UnsubscribeToken: "unsub-s3"},
	}
	if diff := cmp.Diff(want, recipients); diff != "" {
		t.Fatalf("recipients mismatch (-want +got):\n%s", diff)
	}
	if job.Status != JobRunning || job.Total != 2 || job.NewsletterID != newsletter.ID || !job.StartedAt.Equal(f.now) {
		t.Fatalf("job = %+v", job)
	}

	addSubscriber(t, f, "s5", "e@example.com", SubscriberConfirmed)
	pending, err := f.store.PendingRecipients(ctx, job.ID)
	if err != nil {
		t.Fatalf("PendingRecipients: %v", err)
	}
	if diff := cmp.Diff(want, pending); diff != "" {
		t.Fatalf("snapshot changed (-want +got):\n%s", diff)
	}
}

func TestStartJobRequiresSendingNewsletter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	newsletter, _ := createDraftWithSections(t, f)
	if _, _, err := f.svc.StartJob(context.Background(), newsletter.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestResumeJob(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	addSubscriber(t, f, "s1", "a@example.com", SubscriberConfirmed)
	addSubscriber(t, f, "s2", "b@example.com", SubscriberConfirmed)
	newsletter := claimedNewsletter(t, f)

	started, _, err := f.svc.ResumeJob(ctx, newsletter.ID)
	if err != nil {
		t.Fatalf("ResumeJob without job: %v", err)
	}
	if started.Status != JobRunning {
		t.Fatalf("started = %+v", started)
	}

	if err := f.store.RecordDelivery(ctx, Delivery{JobID: started.ID, SubscriberID: "s1", Status: DeliveryFailed}); err != nil {
		t.Fatalf("RecordDelivery: %v", err)
	}
	resumed, pending, err := f.svc.ResumeJob(ctx, newsletter.ID)
	if err != nil {
		t.Fatalf("ResumeJob: %v", err)
	}
	if resumed.ID != started.ID || len(pending) != 1 || pending[0].SubscriberID != "s2" {
		t.Fatalf("resumed = %+v pending = %+v", resumed, pending)
	}

	if _, err := f.store.CompleteJob(ctx, started.ID, f.now); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	completed, pending, err := f.svc.ResumeJob(ctx, newsletter.ID)
	if err != nil {
		t.Fatalf("ResumeJob completed: %v", err)
	}
	if completed.Status != JobCompleted || len(pending) != 0 {
		t.Fatalf("completed = %+v pending = %+v", completed, pending)
	}

	interrupted, err := f.svc.InterruptedNewsletters(ctx)
	if err != nil {
		t.Fatalf("InterruptedNewsletters: %v", err)
	}
	if len(interrupted) != 1 || interrupted[0].ID != newsletter.ID {
		t.Fatalf("interrupted = %+v", interrupted)
	}
}

func TestAcquireLease(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	newsletter := claimedNewsletter(t, f)

	if ok, err := f.svc.AcquireLease(ctx, newsletter.ID, "worker-a", time.Minute); err != nil || !ok {
		t.Fatalf("AcquireLease(worker-a) = %v, %v", ok, err)
	}
	if ok, err := f.svc.AcquireLease(ctx, newsletter.ID, "worker-b", time.Minute); err != nil || ok {
		t.Fatalf("AcquireLease(worker-b) = %v, %v, want refused", ok, err)
	}

	f.now = f.now.Add(time.Minute)
	if ok, err := f.svc.AcquireLease(ctx, newsletter.ID, "worker-b", time.Minute); err != nil || !ok {
		t.Fatalf("AcquireLease(worker-b) after expiry = %v, %v", ok, err)
	}
	if err := f.svc.ReleaseLease(ctx, newsletter.ID, "worker-b"); err != nil {
		t.Fatalf("ReleaseLease: %v", err)
	}
	if ok, err := f.svc.AcquireLease(ctx, newsletter.ID, "worker-a", time.Minute); err != nil || !ok {
		t.Fatalf("AcquireLease(worker-a) after release = %v, %v", ok, err)
	}

	if _, err := f.svc.AcquireLease(ctx, newsletter.ID, "", time.Minute); err == nil {
		t.Fatal("expected error for empty owner")
	}
	if _, err := f.svc.AcquireLease(ctx, "missing", "worker-a", time.Minute); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing newsletter err = %v, want ErrNotFound", err)
	}
}
