package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AcquireSendLease inserts or takes over the newsletter's lease when it is
// free, expired at now, or already held by owner.
func (s *Store) AcquireSendLease(ctx context.Context, newsletterID string, owner string, now time.Time, expiresAt time.Time) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	if strings.TrimSpace(owner) == "" {
		return false, errors.New("lease owner is required")
	}
	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO send_leases (newsletter_id, owner, expires_at)
VALUES (?, ?, ?)
ON CONFLICT (newsletter_id) DO UPDATE SET
	owner = excluded.owner,
	expires_at = excluded.expires_at
WHERE send_leases.owner = excluded.owner OR send_leases.expires_at <= ?
`,
		newsletterID,
		owner,
		expiresAt.UTC().UnixMilli(),
		now.UTC().UnixMilli(),
	)
	if err != nil {
		if _, statusErr := s.statusOf(ctx, newsletterID); statusErr != nil {
			return false, statusErr
		}
		return false, fmt.Errorf("acquire send lease: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire send lease rows: %w", err)
	}
	return affected > 0, nil
}

// ReleaseSendLease drops the lease if owner still holds it.
func (s *Store) ReleaseSendLease(ctx context.Context, newsletterID string, owner string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM send_leases WHERE newsletter_id = ? AND owner = ?`, newsletterID, owner); err != nil {
		return fmt.Errorf("release send lease: %w", err)
	}
	return nil
}
