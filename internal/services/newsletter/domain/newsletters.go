package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DraftInput carries the editable newsletter header.
type DraftInput struct {
	Subject Text
	Intro   Text
}

// CreateDraft stores a new draft. The subject must be set in at least one
// language.
func (s *Service) CreateDraft(ctx context.Context, input DraftInput) (Newsletter, error) {
	if err := s.ready(); err != nil {
		return Newsletter{}, err
	}
	subject := input.Subject.Clean()
	if subject.Empty() {
		return Newsletter{}, ErrSubjectRequired
	}
	newsletterID, err := s.newID()
	if err != nil {
		return Newsletter{}, err
	}
	now := s.nowUTC()
	newsletter := Newsletter{
		ID:        newsletterID,
		Subject:   subject,
		Intro:     input.Intro.Clean(),
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateNewsletter(ctx, newsletter); err != nil {
		return Newsletter{}, err
	}
	return newsletter, nil
}

// GetNewsletter returns one newsletter with ordered sections.
func (s *Service) GetNewsletter(ctx context.Context, newsletterID string) (Newsletter, error) {
	if err := s.ready(); err != nil {
		return Newsletter{}, err
	}
	newsletterID = strings.TrimSpace(newsletterID)
	if newsletterID == "" {
		return Newsletter{}, ErrNotFound
	}
	return s.store.GetNewsletter(ctx, newsletterID)
}

// ListNewsletters returns newsletters newest first.
func (s *Service) ListNewsletters(ctx context.Context) ([]Newsletter, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListNewsletters(ctx)
}

// UpdateDraft replaces subject and intro of a draft. Scheduled newsletters
// must be unscheduled first.
func (s *Service) UpdateDraft(ctx context.Context, newsletterID string, input DraftInput) (Newsletter, error) {
	newsletter, err := s.editableNewsletter(ctx, newsletterID)
	if err != nil {
		return Newsletter{}, err
	}
	subject := input.Subject.Clean()
	if subject.Empty() {
		return Newsletter{}, ErrSubjectRequired
	}
	newsletter.Subject = subject
	newsletter.Intro = input.Intro.Clean()
	if err := s.touch(ctx, &newsletter); err != nil {
		return Newsletter{}, err
	}
	return newsletter, nil
}

// AddContentSection appends a section featuring a program event or training.
// Selecting the same item twice returns ErrConflict.
func (s *Service) AddContentSection(ctx context.Context, newsletterID string, kind SectionKind, contentID string) (Section, error) {
	if kind != SectionEvent && kind != SectionTraining {
		return Section{}, ErrInvalidSection
	}
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return Section{}, ErrInvalidSection
	}
	newsletter, err := s.editableNewsletter(ctx, newsletterID)
	if err != nil {
		return Section{}, err
	}
	for _, existing := range newsletter.Sections {
		if existing.Kind == kind && existing.ContentID == contentID {
			return Section{}, ErrConflict
		}
	}
	if s.content == nil {
		return Section{}, ErrContentNotFound
	}
	title, err := s.content.ResolveContent(kind, contentID)
	if err != nil {
		return Section{}, err
	}
	return s.appendSection(ctx, &newsletter, Section{
		Kind:      kind,
		ContentID: contentID,
		Heading:   title.Clean(),
	})
}

// AddTextSection appends a free-text section. The body is required.
func (s *Service) AddTextSection(ctx context.Context, newsletterID string, heading Text, body Text) (Section, error) {
	body = body.Clean()
	if body.Empty() {
		return Section{}, ErrInvalidSection
	}
	newsletter, err := s.editableNewsletter(ctx, newsletterID)
	if err != nil {
		return Section{}, err
	}
	return s.appendSection(ctx, &newsletter, Section{
		Kind:    SectionText,
		Heading: heading.Clean(),
		Body:    body,
	})
}

// UpdateTextSection replaces heading and body of a text section.
func (s *Service) UpdateTextSection(ctx context.Context, newsletterID string, sectionID string, heading Text, body Text) (Section, error) {
	body = body.Clean()
	if body.Empty() {
		return Section{}, ErrInvalidSection
	}
	newsletter, err := s.editableNewsletter(ctx, newsletterID)
	if err != nil {
		return Section{}, err
	}
	section, ok := findSection(newsletter.Sections, sectionID)
	if !ok {
		return Section{}, ErrNotFound
	}
	if section.Kind != SectionText {
		return Section{}, ErrInvalidSection
	}
	section.Heading = heading.Clean()
	section.Body = body
	if err := s.touch(ctx, &newsletter); err != nil {
		return Section{}, err
	}
	if err := s.store.PutSection(ctx, section); err != nil {
		return Section{}, err
	}
	return section, nil
}

func (s *Service) appendSection(ctx context.Context, newsletter *Newsletter, section Section) (Section, error) {
	sectionID, err := s.newID()
	if err != nil {
		return Section{}, err
	}
	section.ID = sectionID
	section.NewsletterID = newsletter.ID
	section.Position = len(newsletter.Sections)
	if err := s.touch(ctx, newsletter); err != nil {
		return Section{}, err
	}
	if err := s.store.PutSection(ctx, section); err != nil {
		return Section{}, err
	}
	newsletter.Sections = append(newsletter.Sections, section)
	return section, nil
}

// RemoveSection deletes a section and closes the gap in positions.
func (s *Service) RemoveSection(ctx context.Context, newsletterID string, sectionID string) error {
	newsletter, err := s.editableNewsletter(ctx, newsletterID)
	if err != nil {
		return err
	}
	if _, ok := findSection(newsletter.Sections, sectionID); !ok {
		return ErrNotFound
	}
	if err := s.touch(ctx, &newsletter); err != nil {
		return err
	}
	if err := s.store.DeleteSection(ctx, newsletter.ID, strings.TrimSpace(sectionID)); err != nil {
		return err
	}
	remaining := make([]string, 0, len(newsletter.Sections)-1)
	for _, section := range newsletter.Sections {
		if section.ID != strings.TrimSpace(sectionID) {
			remaining = append(remaining, section.ID)
		}
	}
	return s.store.SetSectionOrder(ctx, newsletter.ID, remaining)
}

// ReorderSections applies a new order. orderedIDs must name every current
// section exactly once; positions are rewritten densely from zero.
func (s *Service) ReorderSections(ctx context.Context, newsletterID string, orderedIDs []string) ([]Section, error) {
	newsletter, err := s.editableNewsletter(ctx, newsletterID)
	if err != nil {
		return nil, err
	}
	if len(orderedIDs) != len(newsletter.Sections) {
		return nil, ErrInvalidOrder
	}
	byID := make(map[string]Section, len(newsletter.Sections))
	for _, section := range newsletter.Sections {
		byID[section.ID] = section
	}
	ordered := make([]Section, 0, len(orderedIDs))
	seen := make(map[string]struct{}, len(orderedIDs))
	normalized := make([]string, 0, len(orderedIDs))
	for idx, raw := range orderedIDs {
		sectionID := strings.TrimSpace(raw)
		section, ok := byID[sectionID]
		if !ok {
			return nil, ErrInvalidOrder
		}
		if _, dup := seen[sectionID]; dup {
			return nil, ErrInvalidOrder
		}
		seen[sectionID] = struct{}{}
		section.Position = idx
		ordered = append(ordered, section)
		normalized = append(normalized, sectionID)
	}
	if err := s.touch(ctx, &newsletter); err != nil {
		return nil, err
	}
	if err := s.store.SetSectionOrder(ctx, newsletter.ID, normalized); err != nil {
		return nil, err
	}
	return ordered, nil
}

// Schedule queues a draft for sending at at. The draft needs at least one
// section and at must not be in the past.
func (s *Service) Schedule(ctx context.Context, newsletterID string, at time.Time) (Newsletter, error) {
	newsletter, err := s.loadNewsletter(ctx, newsletterID)
	if err != nil {
		return Newsletter{}, err
	}
	if newsletter.Status != StatusDraft {
		return Newsletter{}, ErrInvalidTransition
	}
	now := s.nowUTC()
	// Schedules are picked at minute resolution; the current minute is not past.
	if at.Before(now.Truncate(time.Minute)) {
		return Newsletter{}, ErrScheduleInPast
	}
	return s.scheduleAt(ctx, newsletter, at.UTC(), now)
}

// SendNow schedules a draft or scheduled newsletter for immediate pickup by
// the worker.
func (s *Service) SendNow(ctx context.Context, newsletterID string) (Newsletter, error) {
	newsletter, err := s.loadNewsletter(ctx, newsletterID)
	if err != nil {
		return Newsletter{}, err
	}
	if newsletter.Status != StatusDraft && newsletter.Status != StatusScheduled {
		return Newsletter{}, ErrInvalidTransition
	}
	now := s.nowUTC()
	return s.scheduleAt(ctx, newsletter, now, now)
}

func (s *Service) scheduleAt(ctx context.Context, newsletter Newsletter, at time.Time, now time.Time) (Newsletter, error) {
	if len(newsletter.Sections) == 0 {
		return Newsletter{}, ErrSectionsRequired
	}
	expected := newsletter.Status
	newsletter.Status = StatusScheduled
	newsletter.ScheduledAt = &at
	newsletter.UpdatedAt = now
	if err := s.store.UpdateNewsletter(ctx, newsletter, expected); err != nil {
		return Newsletter{}, err
	}
	return newsletter, nil
}

// Unschedule returns a scheduled newsletter to draft.
func (s *Service) Unschedule(ctx context.Context, newsletterID string) (Newsletter, error) {
	return s.transition(ctx, newsletterID, []Status{StatusScheduled}, StatusDraft, func(n *Newsletter, _ time.Time) {
		n.ScheduledAt = nil
	})
}

// Cancel abandons a draft or scheduled newsletter for good.
func (s *Service) Cancel(ctx context.Context, newsletterID string) (Newsletter, error) {
	return s.transition(ctx, newsletterID, []Status{StatusDraft, StatusScheduled}, StatusCancelled, func(n *Newsletter, _ time.Time) {
		n.ScheduledAt = nil
	})
}

// Claim moves a due newsletter from scheduled to sending. It reports false
// when another worker or an admin action changed the status first.
func (s *Service) Claim(ctx context.Context, newsletterID string) (Newsletter, bool, error) {
	newsletter, err := s.transition(ctx, newsletterID, []Status{StatusScheduled}, StatusSending, nil)
	if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrConflict) {
		return Newsletter{}, false, nil
	}
	if err != nil {
		return Newsletter{}, false, err
	}
	return newsletter, true, nil
}

// MarkSent records that every recipient of a sending newsletter was attempted.
func (s *Service) MarkSent(ctx context.Context, newsletterID string) (Newsletter, error) {
	return s.transition(ctx, newsletterID, []Status{StatusSending}, StatusSent, func(n *Newsletter, now time.Time) {
		n.SentAt = &now
	})
}

func (s *Service) transition(ctx context.Context, newsletterID string, from []Status, to Status, mutate func(*Newsletter, time.Time)) (Newsletter, error) {
	newsletter, err := s.loadNewsletter(ctx, newsletterID)
	if err != nil {
		return Newsletter{}, err
	}
	allowed := false
	for _, status := range from {
		if newsletter.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return Newsletter{}, ErrInvalidTransition
	}
	now := s.nowUTC()
	expected := newsletter.Status
	newsletter.Status = to
	newsletter.UpdatedAt = now
	if mutate != nil {
		mutate(&newsletter, now)
	}
	if err := s.store.UpdateNewsletter(ctx, newsletter, expected); err != nil {
		return Newsletter{}, err
	}
	return newsletter, nil
}

func (s *Service) loadNewsletter(ctx context.Context, newsletterID string) (Newsletter, error) {
	if err := s.ready(); err != nil {
		return Newsletter{}, err
	}
	newsletterID = strings.TrimSpace(newsletterID)
	if newsletterID == "" {
		return Newsletter{}, ErrNotFound
	}
	return s.store.GetNewsletter(ctx, newsletterID)
}

func (s *Service) editableNewsletter(ctx context.Context, newsletterID string) (Newsletter, error) {
	newsletter, err := s.loadNewsletter(ctx, newsletterID)
	if err != nil {
		return Newsletter{}, err
	}
	if !newsletter.Status.Editable() {
		return Newsletter{}, ErrInvalidTransition
	}
	return newsletter, nil
}

// touch bumps UpdatedAt while asserting the newsletter is still a draft.
func (s *Service) touch(ctx context.Context, newsletter *Newsletter) error {
	newsletter.UpdatedAt = s.nowUTC()
	return s.store.UpdateNewsletter(ctx, *newsletter, StatusDraft)
}

func findSection(sections []Section, sectionID string) (Section, bool) {
	sectionID = strings.TrimSpace(sectionID)
	for _, section := range sections {
		if section.ID == sectionID {
			return section, true
		}
	}
	return Section{}, false
}

// Report is the send history of one newsletter.
type Report struct {
	Newsletter Newsletter
	Jobs       []SendJob
	// Deliveries belong to the most recent job.
	Deliveries []Delivery
}

// GetReport returns jobs and the latest job's deliveries for a newsletter.
func (s *Service) GetReport(ctx context.Context, newsletterID string) (Report, error) {
	newsletter, err := s.loadNewsletter(ctx, newsletterID)
	if err != nil {
		return Report{}, err
	}
	jobs, err := s.store.ListJobs(ctx, newsletter.ID)
	if err != nil {
		return Report{}, err
	}
	report := Report{Newsletter: newsletter, Jobs: jobs}
	if len(jobs) == 0 {
		return report, nil
	}
	deliveries, err := s.store.ListDeliveries(ctx, jobs[0].ID)
	if err != nil {
		return Report{}, err
	}
	report.Deliveries = deliveries
	return report, nil
}
