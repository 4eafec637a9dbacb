package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const sampleProgram = `timezone: Europe/Berlin
items:
  - id: late-show
    kind: event
    category: concert
    starts_at: "2026-11-20T21:00"
    title: {en: "Late Show", de: "Spätvorstellung"}
  - id: early-show
    kind: event
    category: comedy
    starts_at: "2026-11-14T19:30"
    ends_at: "2026-11-14T22:00"
    price: "25 EUR"
    title: {en: "Early Show"}
    summary: {de: "Nur auf Deutsch"}
  - id: trapeze-basics
    kind: training
    category: aerial
    starts_at: "2026-12-02T18:00"
    title: {en: "Trapeze Basics", de: "Trapez Grundlagen"}
  - id: secret
    kind: event
    category: concert
    starts_at: "2026-11-01T20:00"
    title: {en: "Secret"}
    published: false
  - id: past-show
    kind: event
    category: concert
    starts_at: "2026-10-01T20:00"
    title: {en: "Past"}
`

func mustParse(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := Parse([]byte(sampleProgram))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return catalog
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestListOrdersAndFilters(t *testing.T) {
	t.Parallel()

	catalog := mustParse(t)
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all published", filter: Filter{}, want: []string{"past-show", "early-show", "late-show", "trapeze-basics"}},
		{name: "events upcoming", filter: Filter{Kind: KindEvent, UpcomingAfter: now}, want: []string{"early-show", "late-show"}},
		{name: "category", filter: Filter{Category: "Concert"}, want: []string{"past-show", "late-show"}},
		{name: "month", filter: Filter{Month: "2026-11"}, want: []string{"early-show", "late-show"}},
		{name: "limit", filter: Filter{Limit: 1}, want: []string{"past-show"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tc.want, ids(catalog.List(tc.filter))); diff != "" {
				t.Fatalf("List() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if diff := cmp.Diff([]string{"trapeze-basics"}, ids(catalog.Trainings(Filter{Kind: KindEvent}))); diff != "" {
		t.Fatalf("Trainings() mismatch (-want +got):\n%s", diff)
	}
}

func TestItemHidesUnpublished(t *testing.T) {
	t.Parallel()

	catalog := mustParse(t)
	if _, err := catalog.Item("secret"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Item(secret) err = %v, want ErrNotFound", err)
	}
	item, err := catalog.Item("early-show")
	if err != nil {
		t.Fatalf("Item(early-show): %v", err)
	}
	if item.Price != "25 EUR" {
		t.Fatalf("price = %q, want 25 EUR", item.Price)
	}
	if got := item.StartsAt.UTC().Format(time.RFC3339); got != "2026-11-14T18:30:00Z" {
		t.Fatalf("starts_at = %s, want venue-local 19:30 CET", got)
	}
}

func TestLocalizedFallback(t *testing.T) {
	t.Parallel()

	catalog := mustParse(t)
	item, _ := catalog.Item("early-show")
	if got := item.Title.In("de"); got != "Early Show" {
		t.Fatalf("de title = %q, want english fallback", got)
	}
	if got := item.Summary.In("en"); got != "Nur auf Deutsch" {
		t.Fatalf("en summary = %q, want any-language fallback", got)
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()

	catalog := mustParse(t)
	if diff := cmp.Diff([]string{"comedy", "concert"}, catalog.Categories(KindEvent)); diff != "" {
		t.Fatalf("Categories() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsInvalidItems(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing id":   "items:\n  - kind: event\n    starts_at: \"2026-01-01T10:00\"\n    title: {en: x}\n",
		"bad kind":     "items:\n  - id: a\n    kind: party\n    starts_at: \"2026-01-01T10:00\"\n    title: {en: x}\n",
		"bad time":     "items:\n  - id: a\n    kind: event\n    starts_at: tomorrow\n    title: {en: x}\n",
		"no title":     "items:\n  - id: a\n    kind: event\n    starts_at: \"2026-01-01T10:00\"\n",
		"duplicate id": "items:\n  - {id: a, kind: event, starts_at: \"2026-01-01T10:00\", title: {en: x}}\n  - {id: a, kind: event, starts_at: \"2026-01-02T10:00\", title: {en: y}}\n",
		"end before":   "items:\n  - {id: a, kind: event, starts_at: \"2026-01-02T10:00\", ends_at: \"2026-01-01T10:00\", title: {en: x}}\n",
	}
	for name, body := range tests {
		name, body := name, body
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(body)); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestLoadReadsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "program.yaml")
	if err := os.WriteFile(path, []byte(sampleProgram), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	catalog, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(catalog.List(Filter{})); got != 4 {
		t.Fatalf("items = %d, want 4", got)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
