// Package templates holds the shared page shells and components of the site
// and the admin area. Components are templ components built in Go through
// platform/view.
package templates

import (
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/pepedome/site/internal/platform/view"
	webi18n "github.com/pepedome/site/internal/services/web/platform/i18n"
	"github.com/pepedome/site/internal/services/web/routepath"
)

// Toast is a one-time notice rendered at the top of the page.
type Toast struct {
	Kind    string
	Message string
}

// PageContext carries request-scoped values shared by layouts.
type PageContext struct {
	Lang         string
	Loc          Localizer
	CurrentPath  string
	CurrentQuery string
	Toast        *Toast
	// AdminUser is set on admin pages for a signed-in operator.
	AdminUser string
}

// NewPageContext builds a page context for r.
func NewPageContext(r *http.Request, lang string, loc Localizer) PageContext {
	page := PageContext{Lang: lang, Loc: loc}
	if r != nil && r.URL != nil {
		page.CurrentPath = r.URL.Path
		page.CurrentQuery = r.URL.RawQuery
	}
	return page
}

// T translates key in the page language.
func (p PageContext) T(key string, args ...any) string {
	return T(p.Loc, key, args...)
}

// LanguageOptions returns the language switcher entries for this page.
func (p PageContext) LanguageOptions() []webi18n.LanguageOption {
	return webi18n.LanguageOptions(p.Loc, p.Lang, p.CurrentPath, p.CurrentQuery)
}

// SiteLayout wraps children in the public site shell.
func SiteLayout(page PageContext, title string) templ.Component {
	return view.Component(func(ctx context.Context, w *view.Writer) {
		documentHead(w, page, title, "/static/site.js")
		w.Raw(`<body class="site"><header class="site-header"><a class="brand"`)
		w.URLAttr("href", routepath.Root)
		w.Raw(`>`)
		w.Text(page.T("core.site_name"))
		w.Raw(`</a><span class="tagline">`)
		w.Text(page.T("core.tagline"))
		w.Raw(`</span><nav class="site-nav">`)
		for _, link := range []struct{ path, key string }{
			{routepath.Root, "core.nav.home"},
			{routepath.Events, "core.nav.events"},
			{routepath.Trainings, "core.nav.trainings"},
			{routepath.Contact, "core.nav.contact"},
			{routepath.Newsletter, "core.nav.newsletter"},
		} {
			navLink(w, page.CurrentPath, link.path, page.T(link.key))
		}
		w.Raw(`</nav>`)
		languageSwitch(w, page)
		w.Raw(`</header>`)
		toast(w, page.Toast)
		w.Raw(`<main id="main" class="site-main">`)
		w.Children(ctx)
		w.Raw(`</main><footer class="site-footer"><p>`)
		w.Text(page.T("core.footer.address"))
		w.Raw(`</p><p>`)
		w.Text(page.T("core.footer.rights"))
		w.Raw(`</p></footer><dialog id="modal" class="modal"><div class="modal-body"></div><form method="dialog"><button class="modal-close">`)
		w.Text(page.T("core.action.close"))
		w.Raw(`</button></form></dialog></body></html>`)
	})
}

// Fragment wraps children for HTMX responses that replace the main region.
func Fragment() templ.Component {
	return view.Component(func(ctx context.Context, w *view.Writer) {
		w.Children(ctx)
	})
}

func documentHead(w *view.Writer, page PageContext, title string, script string) {
	w.Raw(`<!DOCTYPE html><html`)
	w.Attr("lang", page.Lang)
	w.Raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
	if strings.TrimSpace(title) != "" {
		w.Text(title + " | ")
	}
	w.Text(page.T("core.site_name"))
	w.Raw(`</title><link rel="stylesheet" href="/static/site.css"><script defer`)
	w.Attr("src", script)
	w.Raw(`></script></head>`)
}

func navLink(w *view.Writer, currentPath string, path string, label string) {
	w.Raw(`<a`)
	w.URLAttr("href", path)
	if isCurrent(currentPath, path) {
		w.Raw(` aria-current="page"`)
	}
	w.Raw(`>`)
	w.Text(label)
	w.Raw(`</a>`)
}

func isCurrent(currentPath string, path string) bool {
	if path == routepath.Root || path == routepath.Admin {
		return currentPath == path
	}
	return currentPath == path || strings.HasPrefix(currentPath, path+"/")
}

func languageSwitch(w *view.Writer, page PageContext) {
	w.Raw(`<nav class="lang-switch"`)
	w.Attr("aria-label", page.T("core.lang.switch"))
	w.Raw(`>`)
	for _, option := range page.LanguageOptions() {
		w.Raw(`<a`)
		w.URLAttr("href", option.URL)
		w.Attr("hreflang", option.Code)
		if option.Active {
			w.Raw(` aria-current="true"`)
		}
		w.Raw(`>`)
		w.Text(option.Label)
		w.Raw(`</a>`)
	}
	w.Raw(`</nav>`)
}

func toast(w *view.Writer, t *Toast) {
	if t == nil || strings.TrimSpace(t.Message) == "" {
		return
	}
	w.Raw(`<div role="status"`)
	w.Attr("class", "toast toast-"+t.Kind)
	w.Raw(`>`)
	w.Text(t.Message)
	w.Raw(`</div>`)
}
