package templates

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/pepedome/site/internal/platform/view"
	"github.com/pepedome/site/internal/services/web/routepath"
)

const (
	errorTitleNotFoundKey  = "error.not_found.title"
	errorBodyNotFoundKey   = "error.not_found.body"
	errorTitleServerKey    = "error.server.title"
	errorBodyServerKey     = "error.server.body"
	errorBackHomeActionKey = "error.back_home"
)

// ErrorPageTitle returns the page title for an error status.
func ErrorPageTitle(statusCode int, loc Localizer) string {
	if statusCode == http.StatusNotFound {
		return T(loc, errorTitleNotFoundKey)
	}
	return T(loc, errorTitleServerKey)
}

// ErrorState renders the body of the 404 and 500 pages.
func ErrorState(statusCode int, loc Localizer) templ.Component {
	bodyKey := errorBodyServerKey
	if statusCode == http.StatusNotFound {
		bodyKey = errorBodyNotFoundKey
	}
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<section class="error-state"><h1>`)
		w.Text(ErrorPageTitle(statusCode, loc))
		w.Raw(`</h1><p>`)
		w.Text(T(loc, bodyKey))
		w.Raw(`</p><p><a`)
		w.URLAttr("href", routepath.Root)
		w.Raw(`>`)
		w.Text(T(loc, errorBackHomeActionKey))
		w.Raw(`</a></p></section>`)
	})
}
