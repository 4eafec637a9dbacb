package domain

import (
	"context"
	"sort"
	"sync"
	"time"
)

type fakeStore struct {
	mu          sync.Mutex
	subscribers map[string]Subscriber
	newsletters map[string]Newsletter
	sections    map[string]Section
	jobs        map[string]SendJob
	recipients  map[string][]Recipient
	deliveries  map[string][]Delivery
	leases      map[string]fakeLease

	putSubscriberErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		subscribers: map[string]Subscriber{},
		newsletters: map[string]Newsletter{},
		sections:    map[string]Section{},
		jobs:        map[string]SendJob{},
		recipients:  map[string][]Recipient{},
		deliveries:  map[string][]Delivery{},
		leases:      map[string]fakeLease{},
	}
}

func (s *fakeStore) findSubscriber(match func(Subscriber) bool) (Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, subscriber := range s.subscribers {
		if match(subscriber) {
			return subscriber, nil
		}
	}
	return Subscriber{}, ErrNotFound
}

func (s *fakeStore) GetSubscriberByEmail(_ context.Context, email string) (Subscriber, error) {
	return s.findSubscriber(func(sub Subscriber) bool { return sub.Email == email })
}

func (s *fakeStore) GetSubscriberByConfirmToken(_ context.Context, token string) (Subscriber, error) {
	return s.findSubscriber(func(sub Subscriber) bool { return sub.ConfirmToken == token })
}

func (s *fakeStore) GetSubscriberByUnsubscribeToken(_ context.Context, token string) (Subscriber, error) {
	return s.findSubscriber(func(sub Subscriber) bool { return sub.UnsubscribeToken == token })
}

func (s *fakeStore) PutSubscriber(_ context.Context, subscriber Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putSubscriberErr != nil {
		return s.putSubscriberErr
	}
	s.subscribers[subscriber.ID] = subscriber
	return nil
}

func (s *fakeStore) ListSubscribers(_ context.Context, status SubscriberStatus) ([]Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Subscriber
	for _, subscriber := range s.subscribers {
		if status == "" || subscriber.Status == status {
			out = append(out, subscriber)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *fakeStore) CountSubscribers(context.Context) (map[SubscriberStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[SubscriberStatus]int{}
	for _, subscriber := range s.subscribers {
		counts[subscriber.Status]++
	}
	return counts, nil
}

func (s *fakeStore) GetNewsletter(_ context.Context, id string) (Newsletter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	newsletter, ok := s.newsletters[id]
	if !ok {
		return Newsletter{}, ErrNotFound
	}
	newsletter.Sections = nil
	for _, section := range s.sections {
		if section.NewsletterID == id {
			newsletter.Sections = append(newsletter.Sections, section)
		}
	}
	sort.Slice(newsletter.Sections, func(i, j int) bool {
		return newsletter.Sections[i].Position < newsletter.Sections[j].Position
	})
	return newsletter, nil
}

func (s *fakeStore) ListNewsletters(context.Context) ([]Newsletter, error) {
	return s.ListNewslettersByStatus(context.Background(), "")
}

func (s *fakeStore) ListNewslettersByStatus(_ context.Context, status Status) ([]Newsletter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Newsletter
	for _, newsletter := range s.newsletters {
		if status == "" || newsletter.Status == status {
			out = append(out, newsletter)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) ListDueNewsletters(_ context.Context, now time.Time, limit int) ([]Newsletter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Newsletter
	for _, newsletter := range s.newsletters {
		if newsletter.Status == StatusScheduled && newsletter.ScheduledAt != nil && !newsletter.ScheduledAt.After(now) {
			out = append(out, newsletter)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) CreateNewsletter(_ context.Context, newsletter Newsletter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.newsletters[newsletter.ID]; exists {
		return ErrConflict
	}
	newsletter.Sections = nil
	s.newsletters[newsletter.ID] = newsletter
	return nil
}

func (s *fakeStore) UpdateNewsletter(_ context.Context, newsletter Newsletter, expected Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.newsletters[newsletter.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Status != expected {
		return ErrConflict
	}
	newsletter.Sections = nil
	s.newsletters[newsletter.ID] = newsletter
	return nil
}

func (s *fakeStore) PutSection(_ context.Context, section Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[section.ID] = section
	return nil
}

func (s *fakeStore) DeleteSection(_ context.Context, newsletterID string, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	section, ok := s.sections[sectionID]
	if !ok || section.NewsletterID != newsletterID {
		return ErrNotFound
	}
	delete(s.sections, sectionID)
	return nil
}

func (s *fakeStore) SetSectionOrder(_ context.Context, _ string, orderedIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx, sectionID := range orderedIDs {
		section := s.sections[sectionID]
		section.Position = idx
		s.sections[sectionID] = section
	}
	return nil
}

func (s *fakeStore) CreateJob(_ context.Context, job SendJob, recipients []Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	s.recipients[job.ID] = append([]Recipient(nil), recipients...)
	return nil
}

func (s *fakeStore) GetJob(_ context.Context, id string) (SendJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return SendJob{}, ErrNotFound
	}
	return job, nil
}

func (s *fakeStore) LatestJob(ctx context.Context, newsletterID string) (SendJob, error) {
	jobs, _ := s.ListJobs(ctx, newsletterID)
	if len(jobs) == 0 {
		return SendJob{}, ErrNotFound
	}
	return jobs[0], nil
}

func (s *fakeStore) ListJobs(_ context.Context, newsletterID string) ([]SendJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []SendJob
	for _, job := range s.jobs {
		if job.NewsletterID == newsletterID {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (s *fakeStore) PendingRecipients(_ context.Context, jobID string) ([]Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	done := map[string]bool{}
	for _, delivery := range s.deliveries[jobID] {
		done[delivery.SubscriberID] = true
	}
	var out []Recipient
	for _, recipient := range s.recipients[jobID] {
		if !done[recipient.SubscriberID] {
			out = append(out, recipient)
		}
	}
	return out, nil
}

func (s *fakeStore) RecordDelivery(_ context.Context, delivery Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.deliveries[delivery.JobID] {
		if existing.SubscriberID == delivery.SubscriberID {
			return ErrConflict
		}
	}
	s.deliveries[delivery.JobID] = append(s.deliveries[delivery.JobID], delivery)
	return nil
}

func (s *fakeStore) ListDeliveries(_ context.Context, jobID string) ([]Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Delivery(nil), s.deliveries[jobID]...), nil
}

func (s *fakeStore) CompleteJob(_ context.Context, jobID string, completedAt time.Time) (SendJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return SendJob{}, ErrNotFound
	}
	job.Succeeded, job.Failed = 0, 0
	for _, delivery := range s.deliveries[jobID] {
		if delivery.Status == DeliverySent {
			job.Succeeded++
		} else {
			job.Failed++
		}
	}
	job.Status = JobCompleted
	job.CompletedAt = &completedAt
	s.jobs[jobID] = job
	return job, nil
}

type fakeLease struct {
	owner     string
	expiresAt time.Time
}

func (s *fakeStore) AcquireSendLease(_ context.Context, newsletterID string, owner string, now time.Time, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.newsletters[newsletterID]; !ok {
		return false, ErrNotFound
	}
	current, held := s.leases[newsletterID]
	if held && current.owner != owner && current.expiresAt.After(now) {
		return false, nil
	}
	s.leases[newsletterID] = fakeLease{owner: owner, expiresAt: expiresAt}
	return true, nil
}

func (s *fakeStore) ReleaseSendLease(_ context.Context, newsletterID string, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.leases[newsletterID]; ok && current.owner == owner {
		delete(s.leases, newsletterID)
	}
	return nil
}

var _ Store = (*fakeStore)(nil)
