package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pepedome/site/internal/platform/storage/sqlitedb"
	"github.com/pepedome/site/internal/services/newsletter/domain"
)

const newsletterColumns = `id, subject_json, intro_json, status, scheduled_at, sent_at, created_at, updated_at`

func scanNewsletter(row rowScanner) (domain.Newsletter, error) {
	var (
		newsletter  domain.Newsletter
		subjectJSON string
		introJSON   string
		status      string
		scheduledAt sql.NullInt64
		sentAt      sql.NullInt64
		createdAt   int64
		updatedAt   int64
	)
	if err := row.Scan(
		&newsletter.ID,
		&subjectJSON,
		&introJSON,
		&status,
		&scheduledAt,
		&sentAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Newsletter{}, err
	}
	subject, err := decodeText(subjectJSON)
	if err != nil {
		return domain.Newsletter{}, err
	}
	intro, err := decodeText(introJSON)
	if err != nil {
		return domain.Newsletter{}, err
	}
	newsletter.Subject = subject
	newsletter.Intro = intro
	newsletter.Status = domain.Status(status)
	newsletter.ScheduledAt = sqlitedb.TimeFromNull(scheduledAt)
	newsletter.SentAt = sqlitedb.TimeFromNull(sentAt)
	newsletter.CreatedAt = time.UnixMilli(createdAt).UTC()
	newsletter.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return newsletter, nil
}

// GetNewsletter loads a newsletter with its sections ordered by position.
func (s *Store) GetNewsletter(ctx context.Context, id string) (domain.Newsletter, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Newsletter{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+newsletterColumns+` FROM newsletters WHERE id = ?`, id)
	newsletter, err := scanNewsletter(row)
	if err != nil {
		return domain.Newsletter{}, notFound(err)
	}
	sections, err := s.listSections(ctx, id)
	if err != nil {
		return domain.Newsletter{}, err
	}
	newsletter.Sections = sections
	return newsletter, nil
}

func (s *Store) listSections(ctx context.Context, newsletterID string) ([]domain.Section, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, newsletter_id, position, kind, content_id, heading_json, body_json
FROM newsletter_sections
WHERE newsletter_id = ?
ORDER BY position, id
`, newsletterID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var sections []domain.Section
	for rows.Next() {
		var (
			section     domain.Section
			kind        string
			headingJSON string
			bodyJSON    string
		)
		if err := rows.Scan(&section.ID, &section.NewsletterID, &section.Position, &kind, &section.ContentID, &headingJSON, &bodyJSON); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		section.Kind = domain.SectionKind(kind)
		if section.Heading, err = decodeText(headingJSON); err != nil {
			return nil, err
		}
		if section.Body, err = decodeText(bodyJSON); err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return sections, nil
}

func (s *Store) queryNewsletters(ctx context.Context, query string, args ...any) ([]domain.Newsletter, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list newsletters: %w", err)
	}
	defer rows.Close()

	var newsletters []domain.Newsletter
	for rows.Next() {
		newsletter, err := scanNewsletter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan newsletter: %w", err)
		}
		newsletters = append(newsletters, newsletter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate newsletters: %w", err)
	}
	return newsletters, nil
}

// ListNewsletters returns newsletters newest first, without sections.
func (s *Store) ListNewsletters(ctx context.Context) ([]domain.Newsletter, error) {
	return s.queryNewsletters(ctx, `SELECT `+newsletterColumns+` FROM newsletters ORDER BY created_at DESC, id DESC`)
}

// ListNewslettersByStatus returns newsletters in status, oldest update first.
func (s *Store) ListNewslettersByStatus(ctx context.Context, status domain.Status) ([]domain.Newsletter, error) {
	return s.queryNewsletters(ctx, `SELECT `+newsletterColumns+` FROM newsletters WHERE status = ? ORDER BY updated_at, id`, string(status))
}

// ListDueNewsletters returns scheduled newsletters due at or before now,
// earliest schedule first.
func (s *Store) ListDueNewsletters(ctx context.Context, now time.Time, limit int) ([]domain.Newsletter, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryNewsletters(ctx, `
SELECT `+newsletterColumns+`
FROM newsletters
WHERE status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?
ORDER BY scheduled_at, id
LIMIT ?
`, string(domain.StatusScheduled), now.UTC().UnixMilli(), limit)
}

// CreateNewsletter inserts a new newsletter header.
func (s *Store) CreateNewsletter(ctx context.Context, newsletter domain.Newsletter) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	subjectJSON, err := encodeText(newsletter.Subject)
	if err != nil {
		return err
	}
	introJSON, err := encodeText(newsletter.Intro)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO newsletters (`+newsletterColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		newsletter.ID,
		subjectJSON,
		introJSON,
		string(newsletter.Status),
		sqlitedb.MillisOrNil(newsletter.ScheduledAt),
		sqlitedb.MillisOrNil(newsletter.SentAt),
		newsletter.CreatedAt.UTC().UnixMilli(),
		newsletter.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if sqlitedb.IsConstraintError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create newsletter: %w", err)
	}
	return nil
}

// UpdateNewsletter rewrites the header if the stored status equals expected.
func (s *Store) UpdateNewsletter(ctx context.Context, newsletter domain.Newsletter, expected domain.Status) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	subjectJSON, err := encodeText(newsletter.Subject)
	if err != nil {
		return err
	}
	introJSON, err := encodeText(newsletter.Intro)
	if err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE newsletters SET
	subject_json = ?,
	intro_json = ?,
	status = ?,
	scheduled_at = ?,
	sent_at = ?,
	updated_at = ?
WHERE id = ? AND status = ?
`,
		subjectJSON,
		introJSON,
		string(newsletter.Status),
		sqlitedb.MillisOrNil(newsletter.ScheduledAt),
		sqlitedb.MillisOrNil(newsletter.SentAt),
		newsletter.UpdatedAt.UTC().UnixMilli(),
		newsletter.ID,
		string(expected),
	)
	if err != nil {
		return fmt.Errorf("update newsletter: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update newsletter rows: %w", err)
	}
	if affected == 0 {
		if _, err := s.statusOf(ctx, newsletter.ID); err != nil {
			return err
		}
		return domain.ErrConflict
	}
	return nil
}

func (s *Store) statusOf(ctx context.Context, id string) (domain.Status, error) {
	var status string
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT status FROM newsletters WHERE id = ?`, id).Scan(&status); err != nil {
		return "", notFound(err)
	}
	return domain.Status(status), nil
}

// PutSection inserts or replaces a section.
func (s *Store) PutSection(ctx context.Context, section domain.Section) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	headingJSON, err := encodeText(section.Heading)
	if err != nil {
		return err
	}
	bodyJSON, err := encodeText(section.Body)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO newsletter_sections (id, newsletter_id, position, kind, content_id, heading_json, body_json)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	position = excluded.position,
	kind = excluded.kind,
	content_id = excluded.content_id,
	heading_json = excluded.heading_json,
	body_json = excluded.body_json
`,
		section.ID,
		section.NewsletterID,
		section.Position,
		string(section.Kind),
		section.ContentID,
		headingJSON,
		bodyJSON,
	)
	if err != nil {
		return fmt.Errorf("put section: %w", err)
	}
	return nil
}

// DeleteSection removes one section of a newsletter.
func (s *Store) DeleteSection(ctx context.Context, newsletterID string, sectionID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM newsletter_sections WHERE id = ? AND newsletter_id = ?`, sectionID, newsletterID)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete section rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetSectionOrder rewrites positions 0..n-1 in the given order within one
// transaction.
func (s *Store) SetSectionOrder(ctx context.Context, newsletterID string, orderedIDs []string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE newsletter_sections SET position = ? WHERE id = ? AND newsletter_id = ?`)
		if err != nil {
			return fmt.Errorf("prepare section order: %w", err)
		}
		defer stmt.Close()
		for position, sectionID := range orderedIDs {
			result, err := stmt.ExecContext(ctx, position, sectionID, newsletterID)
			if err != nil {
				return fmt.Errorf("set section position: %w", err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("set section position rows: %w", err)
			}
			if affected == 0 {
				return domain.ErrNotFound
			}
		}
		return nil
	})
}
