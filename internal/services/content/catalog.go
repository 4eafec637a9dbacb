// Package content loads the venue program (events and trainings) from a YAML
// file and answers listing queries for the public site and the newsletter
// editor.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/pepedome/site/internal/platform/i18n"
)

// ErrNotFound indicates a program item does not exist or is unpublished.
var ErrNotFound = errors.New("content item not found")

// Kind separates venue events from trainings.
type Kind string

const (
	KindEvent    Kind = "event"
	KindTraining Kind = "training"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindEvent || k == KindTraining
}

const (
	baseLanguage    = "en"
	defaultTimezone = "Europe/Berlin"
	localTimeLayout = "2006-01-02T15:04"
	monthLayout     = "2006-01"
)

// Localized holds one text per language code.
type Localized map[string]string

// In returns the text for lang, falling back to English and then to any
// non-empty value in a stable order.
func (l Localized) In(lang string) string {
	return i18n.Pick(l, lang)
}

// Item is one event or training on the program.
type Item struct {
	ID        string
	Kind      Kind
	Category  string
	StartsAt  time.Time
	EndsAt    time.Time
	Price     string
	TicketURL string
	ImageURL  string
	Title     Localized
	Summary   Localized
	Body      Localized
	Published bool
}

// Month returns the YYYY-MM bucket of the start time in the venue timezone.
func (i Item) Month() string {
	return i.StartsAt.Format(monthLayout)
}

type fileItem struct {
	ID        string    `yaml:"id"`
	Kind      string    `yaml:"kind"`
	Category  string    `yaml:"category"`
	StartsAt  string    `yaml:"starts_at"`
	EndsAt    string    `yaml:"ends_at"`
	Price     string    `yaml:"price"`
	TicketURL string    `yaml:"ticket_url"`
	ImageURL  string    `yaml:"image_url"`
	Title     Localized `yaml:"title"`
	Summary   Localized `yaml:"summary"`
	Body      Localized `yaml:"body"`
	Published *bool     `yaml:"published"`
}

type programFile struct {
	Timezone string     `yaml:"timezone"`
	Items    []fileItem `yaml:"items"`
}

// Catalog is an immutable snapshot of the program.
type Catalog struct {
	location *time.Location
	items    []Item
	byID     map[string]Item
}

// Filter narrows catalog listings.
type Filter struct {
	Kind     Kind
	Category string
	// Month restricts results to one YYYY-MM bucket.
	Month string
	// UpcomingAfter hides items that ended before this instant when set.
	UpcomingAfter time.Time
	Limit         int
}

// Load reads and parses the program file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program %s: %w", path, err)
	}
	catalog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse program %s: %w", path, err)
	}
	return catalog, nil
}

// Parse builds a catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("program is empty")
	}
	var file programFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	tz := strings.TrimSpace(file.Timezone)
	if tz == "" {
		tz = defaultTimezone
	}
	location, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}

	catalog := &Catalog{location: location, byID: make(map[string]Item, len(file.Items))}
	for idx, raw := range file.Items {
		item, err := raw.toItem(location)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", idx, err)
		}
		if _, exists := catalog.byID[item.ID]; exists {
			return nil, fmt.Errorf("item %d: duplicate id %q", idx, item.ID)
		}
		catalog.byID[item.ID] = item
		catalog.items = append(catalog.items, item)
	}
	sort.SliceStable(catalog.items, func(i, j int) bool {
		left, right := catalog.items[i], catalog.items[j]
		if !left.StartsAt.Equal(right.StartsAt) {
			return left.StartsAt.Before(right.StartsAt)
		}
		return left.ID < right.ID
	})
	return catalog, nil
}

func (f fileItem) toItem(location *time.Location) (Item, error) {
	item := Item{
		ID:        strings.TrimSpace(f.ID),
		Kind:      Kind(strings.ToLower(strings.TrimSpace(f.Kind))),
		Category:  strings.ToLower(strings.TrimSpace(f.Category)),
		Price:     strings.TrimSpace(f.Price),
		TicketURL: strings.TrimSpace(f.TicketURL),
		ImageURL:  strings.TrimSpace(f.ImageURL),
		Title:     f.Title,
		Summary:   f.Summary,
		Body:      f.Body,
		Published: f.Published == nil || *f.Published,
	}
	if item.ID == "" {
		return Item{}, errors.New("id is required")
	}
	if !item.Kind.Valid() {
		return Item{}, fmt.Errorf("%s: unknown kind %q", item.ID, f.Kind)
	}
	if item.Title.In(baseLanguage) == "" {
		return Item{}, fmt.Errorf("%s: title is required", item.ID)
	}
	startsAt, err := parseTime(f.StartsAt, location)
	if err != nil {
		return Item{}, fmt.Errorf("%s: starts_at: %w", item.ID, err)
	}
	item.StartsAt = startsAt
	if strings.TrimSpace(f.EndsAt) != "" {
		endsAt, err := parseTime(f.EndsAt, location)
		if err != nil {
			return Item{}, fmt.Errorf("%s: ends_at: %w", item.ID, err)
		}
		if endsAt.Before(startsAt) {
			return Item{}, fmt.Errorf("%s: ends_at before starts_at", item.ID)
		}
		item.EndsAt = endsAt
	}
	return item, nil
}

func parseTime(value string, location *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("value is required")
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.In(location), nil
	}
	return time.ParseInLocation(localTimeLayout, value, location)
}

// Location returns the venue timezone.
func (c *Catalog) Location() *time.Location {
	if c == nil || c.location == nil {
		return time.UTC
	}
	return c.location
}

// List returns published items matching filter ordered by start time then id.
func (c *Catalog) List(filter Filter) []Item {
	if c == nil {
		return nil
	}
	category := strings.ToLower(strings.TrimSpace(filter.Category))
	month := strings.TrimSpace(filter.Month)
	out := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		if !item.Published {
			continue
		}
		if filter.Kind != "" && item.Kind != filter.Kind {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		if month != "" && item.Month() != month {
			continue
		}
		if !filter.UpcomingAfter.IsZero() && item.finishesBefore(filter.UpcomingAfter) {
			continue
		}
		out = append(out, item)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

func (i Item) finishesBefore(at time.Time) bool {
	end := i.EndsAt
	if end.IsZero() {
		end = i.StartsAt
	}
	return end.Before(at)
}

// Events lists events; the Kind field of filter is ignored.
func (c *Catalog) Events(filter Filter) []Item {
	filter.Kind = KindEvent
	return c.List(filter)
}

// Trainings lists trainings; the Kind field of filter is ignored.
func (c *Catalog) Trainings(filter Filter) []Item {
	filter.Kind = KindTraining
	return c.List(filter)
}

// Item returns one published item by id.
func (c *Catalog) Item(id string) (Item, error) {
	if c == nil {
		return Item{}, ErrNotFound
	}
	item, ok := c.byID[strings.TrimSpace(id)]
	if !ok || !item.Published {
		return Item{}, ErrNotFound
	}
	return item, nil
}

// Categories returns the sorted distinct categories of published items of
// kind. An empty kind covers every item.
func (c *Catalog) Categories(kind Kind) []string {
	if c == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, item := range c.items {
		if !item.Published || item.Category == "" {
			continue
		}
		if kind != "" && item.Kind != kind {
			continue
		}
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		out = append(out, item.Category)
	}
	sort.Strings(out)
	return out
}

// ValidMonth reports whether value is a YYYY-MM month.
func ValidMonth(value string) bool {
	_, err := time.Parse(monthLayout, strings.TrimSpace(value))
	return err == nil
}

// Source yields the current catalog snapshot.
type Source interface {
	Catalog() *Catalog
}

// Catalog lets a fixed *Catalog serve as a Source.
func (c *Catalog) Catalog() *Catalog {
	return c
}
