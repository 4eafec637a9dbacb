// Package web hosts the browser-facing site and admin service.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pepedome/site/internal/platform/ratelimit"
	"github.com/pepedome/site/internal/platform/timeouts"
	webapp "github.com/pepedome/site/internal/services/web/app"
	"github.com/pepedome/site/internal/services/web/modules"
	apperrors "github.com/pepedome/site/internal/services/web/platform/errors"
	"github.com/pepedome/site/internal/services/web/platform/httpx"
	"github.com/pepedome/site/internal/services/web/platform/observability"
	"github.com/pepedome/site/internal/services/web/platform/pagerender"
	"github.com/pepedome/site/internal/services/web/platform/weberror"
	"github.com/pepedome/site/internal/services/web/routepath"
	webstatic "github.com/pepedome/site/internal/services/web/static"
)

const (
	defaultFormsPerMinute = 10
	defaultFormBurst      = 5
)

// Config defines startup inputs for the web service.
type Config struct {
	HTTPAddr string
	Modules  modules.Dependencies
	Limits   RateLimitConfig
}

// RateLimitConfig bounds public form submissions per client address.
type RateLimitConfig struct {
	PerMinute float64
	Burst     int
	// TrustForwardedFor keys clients by the first X-Forwarded-For entry.
	// Enable only behind a proxy that overwrites the header.
	TrustForwardedFor bool
	// Stats optionally records limiter decisions.
	Stats ratelimit.StatsRecorder
}

// Server hosts the web HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	limiter    *ratelimit.Store
}

// NewHandler builds the root handler from the default module registry.
func NewHandler(cfg Config) (http.Handler, error) {
	h, _, err := newHandler(cfg)
	return h, err
}

func newHandler(cfg Config) (http.Handler, *ratelimit.Store, error) {
	h, err := webapp.Compose(modules.DefaultModules(cfg.Modules))
	if err != nil {
		return nil, nil, err
	}
	limits := cfg.Limits
	if limits.PerMinute <= 0 {
		limits.PerMinute = defaultFormsPerMinute
	}
	if limits.Burst <= 0 {
		limits.Burst = defaultFormBurst
	}
	store := ratelimit.NewStore(limits.PerMinute, limits.Burst)

	rootMux := http.NewServeMux()
	rootMux.Handle(routepath.StaticPrefix, http.StripPrefix(routepath.StaticPrefix, http.FileServer(http.FS(webstatic.FS))))
	rootMux.HandleFunc("GET "+routepath.Health, handleHealth)
	rootMux.Handle(routepath.Root, h)
	return httpx.Chain(rootMux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		httpx.SecurityHeaders(),
		observability.Trace,
		observability.RequestLogger(log.Default()),
		limitPublicForms(ratelimit.Options{
			Store: store,
			Stats: limits.Stats,
			KeyFn: ratelimit.ClientIPKey(limits.TrustForwardedFor),
			Reject: func(w http.ResponseWriter, r *http.Request) {
				pc := pagerender.Context(w, r)
				weberror.WriteError(w, r, pc, pagerender.ShellSite, apperrors.E(apperrors.KindRateLimited, "form rate limit exceeded"))
			},
		}),
	), store, nil
}

// limitPublicForms applies the limiter to the anonymous form endpoints only.
// Signed-in admin actions are not limited.
func limitPublicForms(opts ratelimit.Options) httpx.Middleware {
	limit := ratelimit.Middleware(opts)
	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicForm(r.URL.Path) {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPublicForm(path string) bool {
	switch strings.TrimSuffix(path, "/") {
	case routepath.Contact, routepath.Newsletter, routepath.NewsletterUnsubscribe, routepath.AdminLogin:
		return true
	default:
		return false
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewServer validates config and constructs a web server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, limiter, err := newHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose web handler: %w", err)
	}
	return &Server{
		httpAddr: httpAddr,
		limiter:  limiter,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	s.limiter.StartJanitor(ctx)
	log.Printf("web listening addr=%s", s.httpAddr)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown web http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve web http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}
