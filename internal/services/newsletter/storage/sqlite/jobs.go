package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pepedome/site/internal/platform/storage/sqlitedb"
	"github.com/pepedome/site/internal/services/newsletter/domain"
)

const jobColumns = `id, newsletter_id, status, total, succeeded, failed, started_at, completed_at`

func scanJob(row rowScanner) (domain.SendJob, error) {
	var (
		job         domain.SendJob
		status      string
		startedAt   int64
		completedAt sql.NullInt64
	)
	if err := row.Scan(&job.ID, &job.NewsletterID, &status, &job.Total, &job.Succeeded, &job.Failed, &startedAt, &completedAt); err != nil {
		return domain.SendJob{}, err
	}
	job.Status = domain.JobStatus(status)
	job.StartedAt = time.UnixMilli(startedAt).UTC()
	job.CompletedAt = sqlitedb.TimeFromNull(completedAt)
	return job, nil
}

// CreateJob stores a job together with its recipient snapshot.
func (s *Store) CreateJob(ctx context.Context, job domain.SendJob, recipients []domain.Recipient) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO send_jobs (`+jobColumns+`)
VALUES (?, ?, ?, ?, 0, 0, ?, NULL)
`, job.ID, job.NewsletterID, string(job.Status), len(recipients), job.StartedAt.UTC().UnixMilli()); err != nil {
			if sqlitedb.IsConstraintError(err) {
				return domain.ErrConflict
			}
			return fmt.Errorf("create job: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO send_job_recipients (job_id, position, subscriber_id, email, language, unsubscribe_token)
VALUES (?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			return fmt.Errorf("prepare job recipients: %w", err)
		}
		defer stmt.Close()
		for position, recipient := range recipients {
			if _, err := stmt.ExecContext(ctx, job.ID, position, recipient.SubscriberID, recipient.Email, recipient.Language, recipient.UnsubscribeToken); err != nil {
				return fmt.Errorf("insert job recipient: %w", err)
			}
		}
		return nil
	})
}

// GetJob loads one job.
func (s *Store) GetJob(ctx context.Context, id string) (domain.SendJob, error) {
	if err := s.ready(ctx); err != nil {
		return domain.SendJob{}, err
	}
	job, err := scanJob(s.sqlDB.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM send_jobs WHERE id = ?`, id))
	if err != nil {
		return domain.SendJob{}, notFound(err)
	}
	return job, nil
}

// LatestJob loads the most recently started job of a newsletter.
func (s *Store) LatestJob(ctx context.Context, newsletterID string) (domain.SendJob, error) {
	if err := s.ready(ctx); err != nil {
		return domain.SendJob{}, err
	}
	job, err := scanJob(s.sqlDB.QueryRowContext(ctx, `
SELECT `+jobColumns+` FROM send_jobs
WHERE newsletter_id = ?
ORDER BY started_at DESC, id DESC
LIMIT 1
`, newsletterID))
	if err != nil {
		return domain.SendJob{}, notFound(err)
	}
	return job, nil
}

// ListJobs lists a newsletter's jobs newest first.
func (s *Store) ListJobs(ctx context.Context, newsletterID string) ([]domain.SendJob, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+jobColumns+` FROM send_jobs
WHERE newsletter_id = ?
ORDER BY started_at DESC, id DESC
`, newsletterID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.SendJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// PendingRecipients lists snapshot recipients without a delivery, in
// snapshot order.
func (s *Store) PendingRecipients(ctx context.Context, jobID string) ([]domain.Recipient, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT r.subscriber_id, r.email, r.language, r.unsubscribe_token
FROM send_job_recipients r
LEFT JOIN deliveries d ON d.job_id = r.job_id AND d.subscriber_id = r.subscriber_id
WHERE r.job_id = ? AND d.subscriber_id IS NULL
ORDER BY r.position
`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list pending recipients: %w", err)
	}
	defer rows.Close()

	var recipients []domain.Recipient
	for rows.Next() {
		var recipient domain.Recipient
		if err := rows.Scan(&recipient.SubscriberID, &recipient.Email, &recipient.Language, &recipient.UnsubscribeToken); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		recipients = append(recipients, recipient)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipients: %w", err)
	}
	return recipients, nil
}

// RecordDelivery stores the single outcome for one recipient of a job.
func (s *Store) RecordDelivery(ctx context.Context, delivery domain.Delivery) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	permanent := 0
	if delivery.Permanent {
		permanent = 1
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO deliveries (job_id, subscriber_id, email, status, provider_message_id, error, permanent, attempted_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		delivery.JobID,
		delivery.SubscriberID,
		delivery.Email,
		string(delivery.Status),
		delivery.ProviderMessageID,
		delivery.Error,
		permanent,
		delivery.AttemptedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if sqlitedb.IsConstraintError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// ListDeliveries lists a job's deliveries in attempt order.
func (s *Store) ListDeliveries(ctx context.Context, jobID string) ([]domain.Delivery, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT job_id, subscriber_id, email, status, provider_message_id, error, permanent, attempted_at
FROM deliveries
WHERE job_id = ?
ORDER BY attempted_at, rowid
`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []domain.Delivery
	for rows.Next() {
		var (
			delivery    domain.Delivery
			status      string
			permanent   int
			attemptedAt int64
		)
		if err := rows.Scan(&delivery.JobID, &delivery.SubscriberID, &delivery.Email, &status, &delivery.ProviderMessageID, &delivery.Error, &permanent, &attemptedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		delivery.Status = domain.DeliveryStatus(status)
		delivery.Permanent = permanent != 0
		delivery.AttemptedAt = time.UnixMilli(attemptedAt).UTC()
		deliveries = append(deliveries, delivery)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return deliveries, nil
}

// CompleteJob counts recorded deliveries into the job totals and marks it
// completed.
func (s *Store) CompleteJob(ctx context.Context, jobID string, completedAt time.Time) (domain.SendJob, error) {
	if err := s.ready(ctx); err != nil {
		return domain.SendJob{}, err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE send_jobs SET
	status = ?,
	succeeded = (SELECT COUNT(*) FROM deliveries WHERE job_id = send_jobs.id AND status = ?),
	failed = (SELECT COUNT(*) FROM deliveries WHERE job_id = send_jobs.id AND status <> ?),
	completed_at = ?
WHERE id = ?
`,
		string(domain.JobCompleted),
		string(domain.DeliverySent),
		string(domain.DeliverySent),
		completedAt.UTC().UnixMilli(),
		jobID,
	)
	if err != nil {
		return domain.SendJob{}, fmt.Errorf("complete job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.SendJob{}, fmt.Errorf("complete job rows: %w", err)
	}
	if affected == 0 {
		return domain.SendJob{}, domain.ErrNotFound
	}
	return s.GetJob(ctx, jobID)
}
