// Package sqlite persists contact submissions in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pepedome/site/internal/platform/storage/sqlitedb"
	"github.com/pepedome/site/internal/services/contact/domain"
	"github.com/pepedome/site/internal/services/contact/storage/sqlite/migrations"
)

// Store provides SQLite-backed contact persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a contact SQLite store and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sqlitedb.Open(ctx, path, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("open contact store: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return domain.ErrStoreNotConfigured
	}
	return nil
}

// PutSubmission inserts a new submission.
func (s *Store) PutSubmission(ctx context.Context, submission domain.Submission) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO contact_submissions (id, name, email, topic, message, language, forward_status, forward_error, created_at, forwarded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		submission.ID,
		submission.Name,
		submission.Email,
		string(submission.Topic),
		submission.Message,
		submission.Language,
		string(submission.ForwardStatus),
		submission.ForwardError,
		submission.CreatedAt.UTC().UnixMilli(),
		sqlitedb.MillisOrNil(submission.ForwardedAt),
	)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return nil
}

// UpdateForwardStatus records the outcome of forwarding a submission.
func (s *Store) UpdateForwardStatus(ctx context.Context, id string, status domain.ForwardStatus, forwardError string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	var forwardedAt *time.Time
	if status == domain.ForwardDelivered {
		forwardedAt = &at
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE contact_submissions SET forward_status = ?, forward_error = ?, forwarded_at = ?
WHERE id = ?
`, string(status), forwardError, sqlitedb.MillisOrNil(forwardedAt), id)
	if err != nil {
		return fmt.Errorf("update forward status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update forward status rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetSubmission loads one submission.
func (s *Store) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Submission{}, err
	}
	var (
		submission  domain.Submission
		topic       string
		status      string
		createdAt   int64
		forwardedAt sql.NullInt64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, email, topic, message, language, forward_status, forward_error, created_at, forwarded_at
FROM contact_submissions WHERE id = ?
`, id).Scan(
		&submission.ID,
		&submission.Name,
		&submission.Email,
		&topic,
		&submission.Message,
		&submission.Language,
		&status,
		&submission.ForwardError,
		&createdAt,
		&forwardedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Submission{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("get contact submission: %w", err)
	}
	submission.Topic = domain.Topic(topic)
	submission.ForwardStatus = domain.ForwardStatus(status)
	submission.CreatedAt = time.UnixMilli(createdAt).UTC()
	submission.ForwardedAt = sqlitedb.TimeFromNull(forwardedAt)
	return submission, nil
}

var _ domain.Store = (*Store)(nil)
