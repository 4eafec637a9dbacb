// Package admin serves the password-protected newsletter authoring area.
package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pepedome/site/internal/platform/timeouts"
	"github.com/pepedome/site/internal/services/content"
	newsletterdomain "github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/newsletter/render"
	module "github.com/pepedome/site/internal/services/web/module"
	"github.com/pepedome/site/internal/services/web/platform/httpx"
	"github.com/pepedome/site/internal/services/web/platform/requestmeta"
	"github.com/pepedome/site/internal/services/web/routepath"
)

const (
	// maxFormBytes bounds editor form bodies.
	maxFormBytes = 256 << 10
	// minSecretBytes is the shortest accepted session signing secret.
	minSecretBytes = 32
)

// Newsletters is the authoring and lifecycle surface of the newsletter service.
type Newsletters interface {
	ListNewsletters(ctx context.Context) ([]newsletterdomain.Newsletter, error)
	GetNewsletter(ctx context.Context, newsletterID string) (newsletterdomain.Newsletter, error)
	CreateDraft(ctx context.Context, input newsletterdomain.DraftInput) (newsletterdomain.Newsletter, error)
	UpdateDraft(ctx context.Context, newsletterID string, input newsletterdomain.DraftInput) (newsletterdomain.Newsletter, error)
	AddContentSection(ctx context.Context, newsletterID string, kind newsletterdomain.SectionKind, contentID string) (newsletterdomain.Section, error)
	AddTextSection(ctx context.Context, newsletterID string, heading newsletterdomain.Text, body newsletterdomain.Text) (newsletterdomain.Section, error)
	UpdateTextSection(ctx context.Context, newsletterID string, sectionID string, heading newsletterdomain.Text, body newsletterdomain.Text) (newsletterdomain.Section, error)
	RemoveSection(ctx context.Context, newsletterID string, sectionID string) error
	ReorderSections(ctx context.Context, newsletterID string, orderedIDs []string) ([]newsletterdomain.Section, error)
	Schedule(ctx context.Context, newsletterID string, at time.Time) (newsletterdomain.Newsletter, error)
	SendNow(ctx context.Context, newsletterID string) (newsletterdomain.Newsletter, error)
	Unschedule(ctx context.Context, newsletterID string) (newsletterdomain.Newsletter, error)
	Cancel(ctx context.Context, newsletterID string) (newsletterdomain.Newsletter, error)
	GetReport(ctx context.Context, newsletterID string) (newsletterdomain.Report, error)
}

// Subscribers lists newsletter subscribers.
type Subscribers interface {
	ListSubscribers(ctx context.Context, status newsletterdomain.SubscriberStatus) (newsletterdomain.SubscriberOverview, error)
}

// Previewer renders a newsletter email for one recipient.
type Previewer interface {
	Render(ctx context.Context, newsletter newsletterdomain.Newsletter, recipient newsletterdomain.Recipient) (render.Email, error)
}

// Config holds the operator credentials and session settings.
type Config struct {
	Username string
	// PasswordHash is a bcrypt hash of the operator password.
	PasswordHash string
	// SessionSecret signs session tokens; at least 32 bytes.
	SessionSecret string
	// Location interprets schedule times entered in the editor. Nil uses the
	// program's time zone.
	Location            *time.Location
	TrustForwardedProto bool
}

// Dependencies carries the services the admin pages call.
type Dependencies struct {
	Newsletters Newsletters
	Subscribers Subscribers
	Previewer   Previewer
	Content     content.Source
}

// Module provides the admin routes.
type Module struct {
	cfg   Config
	deps  Dependencies
	clock func() time.Time
}

// New returns the admin module.
func New(cfg Config, deps Dependencies) Module {
	return Module{cfg: cfg, deps: deps, clock: time.Now}
}

// ID returns a stable identifier for diagnostics and startup logs.
func (Module) ID() string {
	return "admin"
}

// Mount wires the admin routes. Everything except the login form requires a
// session, and every POST requires a same-origin Origin or Referer.
func (m Module) Mount() (module.Mount, error) {
	if err := m.validate(); err != nil {
		return module.Mount{}, err
	}
	clock := m.clock
	if clock == nil {
		clock = time.Now
	}
	policy := requestmeta.SchemePolicy{TrustForwardedProto: m.cfg.TrustForwardedProto}
	h := handlers{
		cfg:      m.cfg,
		deps:     m.deps,
		clock:    clock,
		location: m.cfg.Location,
		policy:   policy,
		sessions: sessions{
			secret:   []byte(m.cfg.SessionSecret),
			username: strings.TrimSpace(m.cfg.Username),
			ttl:      timeouts.AdminSession,
			now:      clock,
		},
	}

	protected := http.NewServeMux()
	protected.HandleFunc("GET "+routepath.Admin, h.handleIndex)
	protected.HandleFunc("GET "+routepath.AdminPrefix+"{$}", h.handleIndex)
	protected.HandleFunc("POST "+routepath.AdminLogout, h.handleLogout)
	protected.HandleFunc("GET "+routepath.AdminNewsletters, h.handleNewsletterList)
	protected.HandleFunc("GET "+routepath.AdminNewslettersNew, h.handleNewsletterNew)
	protected.HandleFunc("POST "+routepath.AdminNewslettersNew, h.handleNewsletterCreate)
	protected.HandleFunc("GET "+routepath.AdminNewsletterPattern, h.handleEditor)
	protected.HandleFunc("POST "+routepath.AdminNewsletterPattern, h.handleDraftUpdate)
	protected.HandleFunc("POST "+routepath.AdminNewsletterContentPattern, h.handleAddContent)
	protected.HandleFunc("POST "+routepath.AdminNewsletterTextPattern, h.handleAddText)
	protected.HandleFunc("POST "+routepath.AdminNewsletterOrderPattern, h.handleReorder)
	protected.HandleFunc("POST "+routepath.AdminNewsletterSectionPattern, h.handleUpdateText)
	protected.HandleFunc("POST "+routepath.AdminNewsletterRemovePattern, h.handleRemoveSection)
	protected.HandleFunc("POST "+routepath.AdminNewsletterSchedulePattern, h.handleSchedule)
	protected.HandleFunc("POST "+routepath.AdminNewsletterUnschedulePattern, h.handleUnschedule)
	protected.HandleFunc("POST "+routepath.AdminNewsletterCancelPattern, h.handleCancel)
	protected.HandleFunc("POST "+routepath.AdminNewsletterSendPattern, h.handleSendNow)
	protected.HandleFunc("GET "+routepath.AdminNewsletterPreviewPattern, h.handlePreview)
	protected.HandleFunc("GET "+routepath.AdminNewsletterReportPattern, h.handleReport)
	protected.HandleFunc("GET "+routepath.AdminSubscribers, h.handleSubscribers)
	protected.HandleFunc(routepath.AdminPrefix, h.handleNotFound)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+routepath.AdminLogin, h.handleLoginForm)
	mux.HandleFunc("POST "+routepath.AdminLogin, h.handleLogin)
	mux.Handle(routepath.AdminPrefix, h.requireSession(protected))
	mux.Handle(routepath.Admin, h.requireSession(protected))

	handler := httpx.Chain(mux, h.requireSameOrigin)
	return module.Mount{Prefix: routepath.AdminPrefix, Handler: handler}, nil
}

func (m Module) validate() error {
	switch {
	case m.deps.Newsletters == nil:
		return errors.New("admin module requires a newsletter service")
	case m.deps.Subscribers == nil:
		return errors.New("admin module requires a subscriber service")
	case m.deps.Previewer == nil:
		return errors.New("admin module requires a previewer")
	case m.deps.Content == nil:
		return errors.New("admin module requires a content source")
	case strings.TrimSpace(m.cfg.Username) == "":
		return errors.New("admin username is required")
	case strings.TrimSpace(m.cfg.PasswordHash) == "":
		return errors.New("admin password hash is required")
	case len(m.cfg.SessionSecret) < minSecretBytes:
		return errors.New("admin session secret must be at least 32 bytes")
	}
	return nil
}
