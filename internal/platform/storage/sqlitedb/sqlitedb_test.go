package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"
)

func TestOpenCreatesDirectoryAndAppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "site.db")
	migrations := fstest.MapFS{
		"001_init.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE things(id TEXT PRIMARY KEY);")},
	}

	db, err := Open(context.Background(), path, migrations)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec("INSERT INTO things (id) VALUES ('a')"); err != nil {
		t.Fatalf("insert into migrated table: %v", err)
	}
	_, err = db.Exec("INSERT INTO things (id) VALUES ('a')")
	if !IsConstraintError(err) {
		t.Fatalf("duplicate insert err = %v, want constraint error", err)
	}
	if IsConstraintError(errors.New("other")) {
		t.Fatal("plain error reported as constraint error")
	}
}

func TestNullableMillisRoundTrip(t *testing.T) {
	if MillisOrNil(nil) != nil {
		t.Fatal("nil time should map to NULL")
	}
	at := time.Date(2026, 11, 14, 19, 0, 0, 0, time.UTC)
	millis := MillisOrNil(&at).(int64)
	got := TimeFromNull(sql.NullInt64{Int64: millis, Valid: true})
	if got == nil || !got.Equal(at) {
		t.Fatalf("TimeFromNull = %v, want %v", got, at)
	}
	if TimeFromNull(sql.NullInt64{}) != nil {
		t.Fatal("invalid null should map to nil")
	}
}

func TestOpenRejectsBlankPath(t *testing.T) {
	if _, err := Open(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected blank path error")
	}
}
