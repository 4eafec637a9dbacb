// Package sqlite persists newsletter subscribers, issues, and send jobs in
// SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pepedome/site/internal/platform/storage/sqlitedb"
	"github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/newsletter/storage/sqlite/migrations"
)

// Store provides SQLite-backed newsletter persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a newsletter SQLite store and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sqlitedb.Open(ctx, path, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("open newsletter store: %w", err)
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

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func encodeText(text domain.Text) (string, error) {
	if text == nil {
		text = domain.Text{}
	}
	data, err := json.Marshal(text)
	if err != nil {
		return "", fmt.Errorf("encode text: %w", err)
	}
	return string(data), nil
}

func decodeText(raw string) (domain.Text, error) {
	text := domain.Text{}
	if raw == "" {
		return text, nil
	}
	if err := json.Unmarshal([]byte(raw), &text); err != nil {
		return nil, fmt.Errorf("decode text: %w", err)
	}
	return text, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

var _ domain.Store = (*Store)(nil)
