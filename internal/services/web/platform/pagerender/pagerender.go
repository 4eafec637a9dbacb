// Package pagerender centralizes page rendering for full-page and HTMX
// requests.
package pagerender

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	flashnotice "github.com/pepedome/site/internal/services/web/platform/flash"
	"github.com/pepedome/site/internal/services/web/platform/httpx"
	webi18n "github.com/pepedome/site/internal/services/web/platform/i18n"
	webtemplates "github.com/pepedome/site/internal/services/web/templates"
)

// Shell selects the layout that wraps a full-page response.
type Shell int

const (
	ShellSite Shell = iota
	ShellAdmin
)

// Page describes one page response.
type Page struct {
	Title      string
	StatusCode int
	Shell      Shell
	Fragment   templ.Component
}

type emptyComponent struct{}

func (emptyComponent) Render(context.Context, io.Writer) error {
	return nil
}

// WritePage renders page. HTMX requests receive only the fragment so the
// client can swap it into the current document or a modal; other requests
// get the full layout with any pending flash notice.
func WritePage(w http.ResponseWriter, r *http.Request, pc webtemplates.PageContext, page Page) {
	statusCode := page.StatusCode
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	fragment := page.Fragment
	if fragment == nil {
		fragment = emptyComponent{}
	}
	ctx := r.Context()

	var buf bytes.Buffer
	var component templ.Component
	if httpx.IsHTMXRequest(r) {
		component = fragment
	} else {
		pc.Toast = resolveFlashToast(w, r, pc.Loc)
		ctx = templ.WithChildren(ctx, fragment)
		switch page.Shell {
		case ShellAdmin:
			component = webtemplates.AdminLayout(pc, page.Title)
		default:
			component = webtemplates.SiteLayout(pc, page.Title)
		}
	}
	if err := component.Render(ctx, &buf); err != nil {
		log.Printf("page render failed path=%s err=%v", pc.CurrentPath, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Vary", "HX-Request")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

func resolveFlashToast(w http.ResponseWriter, r *http.Request, loc webtemplates.Localizer) *webtemplates.Toast {
	notice, ok := flashnotice.ReadAndClear(w, r)
	if !ok {
		return nil
	}
	message := strings.TrimSpace(webtemplates.T(loc, notice.Key))
	if message == "" {
		return nil
	}
	return &webtemplates.Toast{Kind: string(notice.Kind), Message: message}
}

// Context resolves the request language, persisting an explicit choice, and
// returns the page context handlers render with.
func Context(w http.ResponseWriter, r *http.Request) webtemplates.PageContext {
	lang, loc := webi18n.Resolve(w, r)
	return webtemplates.NewPageContext(r, lang, loc)
}
