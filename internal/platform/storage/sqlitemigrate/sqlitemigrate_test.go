package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"
)

func migrationFile(sql string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte("-- +migrate Up\n" + sql + "\n-- +migrate Down\nSELECT 1;")}
}

func TestApplyMigrationsRunsFilesInOrderOnce(t *testing.T) {
	t.Parallel()

	db := openMemory(t)
	migrations := fstest.MapFS{
		"002_jobs.sql":        migrationFile("CREATE TABLE jobs(id TEXT PRIMARY KEY, subscriber_id TEXT REFERENCES subscribers(id));"),
		"001_subscribers.sql": migrationFile("CREATE TABLE subscribers(id TEXT PRIMARY KEY);"),
		"README.md":           &fstest.MapFile{Data: []byte("not a migration")},
	}
	for range 2 {
		if err := ApplyMigrations(context.Background(), db, migrations, ""); err != nil {
			t.Fatalf("ApplyMigrations() error = %v", err)
		}
	}

	want := []string{"001_subscribers.sql", "002_jobs.sql"}
	if diff := cmp.Diff(want, appliedNames(t, db)); diff != "" {
		t.Fatalf("applied migrations mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyMigrationsLeavesFailedFileUnrecorded(t *testing.T) {
	t.Parallel()

	db := openMemory(t)
	broken := fstest.MapFS{"001_newsletters.sql": migrationFile("CREAT TABLE newsletters(id TEXT);")}
	if err := ApplyMigrations(context.Background(), db, broken, ""); err == nil {
		t.Fatal("expected syntax error")
	}
	if got := appliedNames(t, db); len(got) != 0 {
		t.Fatalf("applied = %v, want none", got)
	}

	fixed := fstest.MapFS{"001_newsletters.sql": migrationFile("CREATE TABLE newsletters(id TEXT PRIMARY KEY);")}
	if err := ApplyMigrations(context.Background(), db, fixed, ""); err != nil {
		t.Fatalf("ApplyMigrations() after fix error = %v", err)
	}
	if diff := cmp.Diff([]string{"001_newsletters.sql"}, appliedNames(t, db)); diff != "" {
		t.Fatalf("applied mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyMigrationsKeysByRoot(t *testing.T) {
	t.Parallel()

	db := openMemory(t)
	migrations := fstest.MapFS{"contact/001_submissions.sql": migrationFile("CREATE TABLE submissions(id TEXT PRIMARY KEY);")}
	if err := ApplyMigrations(context.Background(), db, migrations, "contact"); err != nil {
		t.Fatalf("ApplyMigrations() error = %v", err)
	}
	if diff := cmp.Diff([]string{"contact/001_submissions.sql"}, appliedNames(t, db)); diff != "" {
		t.Fatalf("applied mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyMigrationsRequiresDB(t *testing.T) {
	t.Parallel()

	if err := ApplyMigrations(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestExtractUpMigration(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"-- +migrate Up\nCREATE TABLE a(id INT);\n-- +migrate Down\nDROP TABLE a;": "\nCREATE TABLE a(id INT);\n",
		"-- +migrate Up\nCREATE TABLE b(id INT);":                                  "\nCREATE TABLE b(id INT);",
		"CREATE TABLE c(id INT);":                                                  "CREATE TABLE c(id INT);",
	}
	for input, want := range tests {
		if got := ExtractUpMigration(input); got != want {
			t.Fatalf("ExtractUpMigration(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	t.Parallel()

	if IsAlreadyExistsError(nil) {
		t.Fatal("nil is not an already-exists error")
	}
	if !IsAlreadyExistsError(errors.New("table subscribers already exists")) {
		t.Fatal("expected already exists match")
	}
	if !IsAlreadyExistsError(errors.New("duplicate column name: language")) {
		t.Fatal("expected duplicate column match")
	}
}

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func appliedNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM " + migrationTable + " ORDER BY name")
	if err != nil {
		t.Fatalf("query applied: %v", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan applied: %v", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate applied: %v", err)
	}
	return names
}
