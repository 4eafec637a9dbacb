package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pepedome/site/internal/platform/storage/sqlitedb"
	"github.com/pepedome/site/internal/services/newsletter/domain"
)

const subscriberColumns = `id, email, language, status, confirm_token, unsubscribe_token, created_at, updated_at, confirmed_at, unsubscribed_at`

func scanSubscriber(row rowScanner) (domain.Subscriber, error) {
	var (
		subscriber     domain.Subscriber
		status         string
		createdAt      int64
		updatedAt      int64
		confirmedAt    sql.NullInt64
		unsubscribedAt sql.NullInt64
	)
	if err := row.Scan(
		&subscriber.ID,
		&subscriber.Email,
		&subscriber.Language,
		&status,
		&subscriber.ConfirmToken,
		&subscriber.UnsubscribeToken,
		&createdAt,
		&updatedAt,
		&confirmedAt,
		&unsubscribedAt,
	); err != nil {
		return domain.Subscriber{}, err
	}
	subscriber.Status = domain.SubscriberStatus(status)
	subscriber.CreatedAt = time.UnixMilli(createdAt).UTC()
	subscriber.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	subscriber.ConfirmedAt = sqlitedb.TimeFromNull(confirmedAt)
	subscriber.UnsubscribedAt = sqlitedb.TimeFromNull(unsubscribedAt)
	return subscriber, nil
}

func (s *Store) getSubscriberWhere(ctx context.Context, column string, value string) (domain.Subscriber, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Subscriber{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE `+column+` = ?`, value)
	subscriber, err := scanSubscriber(row)
	if err != nil {
		return domain.Subscriber{}, notFound(err)
	}
	return subscriber, nil
}

// GetSubscriberByEmail loads a subscriber by normalized address.
func (s *Store) GetSubscriberByEmail(ctx context.Context, email string) (domain.Subscriber, error) {
	return s.getSubscriberWhere(ctx, "email", email)
}

// GetSubscriberByConfirmToken loads a subscriber by confirmation token.
func (s *Store) GetSubscriberByConfirmToken(ctx context.Context, token string) (domain.Subscriber, error) {
	return s.getSubscriberWhere(ctx, "confirm_token", token)
}

// GetSubscriberByUnsubscribeToken loads a subscriber by unsubscribe token.
func (s *Store) GetSubscriberByUnsubscribeToken(ctx context.Context, token string) (domain.Subscriber, error) {
	return s.getSubscriberWhere(ctx, "unsubscribe_token", token)
}

// PutSubscriber inserts or replaces a subscriber by id.
func (s *Store) PutSubscriber(ctx context.Context, subscriber domain.Subscriber) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO subscribers (`+subscriberColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	email = excluded.email,
	language = excluded.language,
	status = excluded.status,
	confirm_token = excluded.confirm_token,
	unsubscribe_token = excluded.unsubscribe_token,
	updated_at = excluded.updated_at,
	confirmed_at = excluded.confirmed_at,
	unsubscribed_at = excluded.unsubscribed_at
`,
		subscriber.ID,
		subscriber.Email,
		subscriber.Language,
		string(subscriber.Status),
		subscriber.ConfirmToken,
		subscriber.UnsubscribeToken,
		subscriber.CreatedAt.UTC().UnixMilli(),
		subscriber.UpdatedAt.UTC().UnixMilli(),
		sqlitedb.MillisOrNil(subscriber.ConfirmedAt),
		sqlitedb.MillisOrNil(subscriber.UnsubscribedAt),
	)
	if err != nil {
		if sqlitedb.IsConstraintError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("put subscriber: %w", err)
	}
	return nil
}

// ListSubscribers lists subscribers by email, optionally filtered by status.
func (s *Store) ListSubscribers(ctx context.Context, status domain.SubscriberStatus) ([]domain.Subscriber, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	query := `SELECT ` + subscriberColumns + ` FROM subscribers`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY email`
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []domain.Subscriber
	for rows.Next() {
		subscriber, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subscribers = append(subscribers, subscriber)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return subscribers, nil
}

// CountSubscribers returns the number of subscribers per status.
func (s *Store) CountSubscribers(ctx context.Context) (map[domain.SubscriberStatus]int, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT status, COUNT(*) FROM subscribers GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count subscribers: %w", err)
	}
	defer rows.Close()

	counts := map[domain.SubscriberStatus]int{}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan subscriber count: %w", err)
		}
		counts[domain.SubscriberStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriber counts: %w", err)
	}
	return counts, nil
}
