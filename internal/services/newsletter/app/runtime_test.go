package app

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pepedome/site/internal/platform/email"
	"github.com/pepedome/site/internal/services/newsletter/domain"
)

type capturedMail struct {
	mu       sync.Mutex
	messages []email.Message
}

func (c *capturedMail) Send(_ context.Context, msg email.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return "msg-1", nil
}

func TestOpenValidatesCollaborators(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "newsletter.db")
	if _, err := Open(context.Background(), RuntimeConfig{DBPath: dbPath, BaseURL: "https://pepedome.example", Sender: &capturedMail{}}); err == nil {
		t.Fatal("expected error for missing content source")
	}
	if _, err := Open(context.Background(), RuntimeConfig{DBPath: dbPath, BaseURL: "https://pepedome.example", Content: mustCatalog(t)}); err == nil {
		t.Fatal("expected error for missing sender")
	}
	if _, err := Open(context.Background(), RuntimeConfig{DBPath: dbPath, BaseURL: "/relative", Content: mustCatalog(t), Sender: &capturedMail{}}); err == nil {
		t.Fatal("expected error for relative base url")
	}
}

func TestRuntimeSubscribesAndAuthors(t *testing.T) {
	t.Parallel()

	mail := &capturedMail{}
	rt, err := Open(context.Background(), RuntimeConfig{
		DBPath:  filepath.Join(t.TempDir(), "newsletter.db"),
		BaseURL: "https://pepedome.example",
		Content: mustCatalog(t),
		Sender:  mail,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	subscriber, err := rt.Service.Subscribe(context.Background(), " Ada@Example.com ", "de")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if subscriber.Email != "ada@example.com" || subscriber.Status != domain.SubscriberPending {
		t.Fatalf("subscriber = %+v", subscriber)
	}
	if len(mail.messages) != 1 {
		t.Fatalf("messages = %d, want 1 confirmation", len(mail.messages))
	}
	if !strings.Contains(mail.messages[0].HTML, "https://pepedome.example/newsletter/confirm?token=") {
		t.Fatalf("confirmation html missing absolute confirm link:\n%s", mail.messages[0].HTML)
	}

	draft, err := rt.Service.CreateDraft(context.Background(), domain.DraftInput{Subject: domain.Text{"en": "November"}})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	section, err := rt.Service.AddContentSection(context.Background(), draft.ID, domain.SectionEvent, "opening")
	if err != nil {
		t.Fatalf("AddContentSection: %v", err)
	}
	if section.Heading.In("de") != "Eröffnungsabend" {
		t.Fatalf("heading = %+v", section.Heading)
	}
}
