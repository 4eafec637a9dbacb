package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pepedome/site/internal/platform/email"
	"github.com/pepedome/site/internal/services/content"
	"github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/newsletter/render"
)

const program = `items:
  - id: opening
    kind: event
    starts_at: "2026-11-14T20:00"
    title: {en: "Opening Night", de: "Eröffnungsabend"}
  - id: silks
    kind: training
    starts_at: "2026-11-18T18:00"
    title: {en: "Aerial Silks"}
`

func mustCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	catalog, err := content.Parse([]byte(program))
	if err != nil {
		t.Fatalf("parse program: %v", err)
	}
	return catalog
}

func TestContentResolver(t *testing.T) {
	t.Parallel()

	resolver := ContentResolver{Source: mustCatalog(t)}
	title, err := resolver.ResolveContent(domain.SectionEvent, "opening")
	if err != nil {
		t.Fatalf("ResolveContent: %v", err)
	}
	if title["de"] != "Eröffnungsabend" || title["en"] != "Opening Night" {
		t.Fatalf("title = %v", title)
	}
	if _, err := resolver.ResolveContent(domain.SectionEvent, "silks"); !errors.Is(err, domain.ErrContentNotFound) {
		t.Fatalf("kind mismatch err = %v, want ErrContentNotFound", err)
	}
	if _, err := resolver.ResolveContent(domain.SectionTraining, "missing"); !errors.Is(err, domain.ErrContentNotFound) {
		t.Fatalf("missing err = %v, want ErrContentNotFound", err)
	}
	if _, err := (ContentResolver{}).ResolveContent(domain.SectionEvent, "opening"); !errors.Is(err, domain.ErrContentNotFound) {
		t.Fatalf("nil source err = %v, want ErrContentNotFound", err)
	}
}

func TestConfirmationMailer(t *testing.T) {
	t.Parallel()

	renderer, err := render.NewRenderer("https://pepedome.example", nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	var sent []email.Message
	mailer := ConfirmationMailer{
		Renderer: renderer,
		Sender: email.SenderFunc(func(_ context.Context, msg email.Message) (string, error) {
			sent = append(sent, msg)
			return "id-1", nil
		}),
	}
	if err := mailer.SendConfirmation(context.Background(), domain.Subscriber{Email: "ada@example.com", Language: "en", ConfirmToken: "tok"}); err != nil {
		t.Fatalf("SendConfirmation: %v", err)
	}
	if len(sent) != 1 || sent[0].To != "ada@example.com" {
		t.Fatalf("sent = %+v", sent)
	}
	if !strings.Contains(sent[0].HTML, "/newsletter/confirm?token=tok") {
		t.Fatalf("html missing confirm link: %s", sent[0].HTML)
	}

	failing := ConfirmationMailer{
		Renderer: renderer,
		Sender: email.SenderFunc(func(context.Context, email.Message) (string, error) {
			return "", errors.New("provider down")
		}),
	}
	if err := failing.SendConfirmation(context.Background(), domain.Subscriber{Email: "ada@example.com"}); err == nil || !strings.Contains(err.Error(), "provider down") {
		t.Fatalf("err = %v, want provider error", err)
	}
	if err := (ConfirmationMailer{}).SendConfirmation(context.Background(), domain.Subscriber{}); err == nil {
		t.Fatal("expected error for unconfigured mailer")
	}
}
