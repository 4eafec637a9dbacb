// Package weberror renders localized error responses for web modules.
package weberror

import (
	"log"
	"net/http"
	"strings"

	apperrors "github.com/pepedome/site/internal/services/web/platform/errors"
	"github.com/pepedome/site/internal/services/web/platform/pagerender"
	webtemplates "github.com/pepedome/site/internal/services/web/templates"
)

var kindKeys = map[apperrors.Kind]string{
	apperrors.KindInvalidInput: "error.invalid_input",
	apperrors.KindUnauthorized: "error.unauthorized",
	apperrors.KindForbidden:    "error.forbidden",
	apperrors.KindRateLimited:  "error.rate_limited",
	apperrors.KindUnavailable:  "error.unavailable",
}

// ShouldRenderPage reports whether status gets a full error page.
func ShouldRenderPage(statusCode int) bool {
	return statusCode == http.StatusNotFound || statusCode >= http.StatusInternalServerError
}

// PublicMessage resolves a user-safe localized message for err.
func PublicMessage(loc webtemplates.Localizer, err error) string {
	if err == nil {
		return ""
	}
	key := apperrors.LocalizationKey(err)
	if key == "" {
		key = kindKeys[apperrors.KindOf(err)]
	}
	if key != "" {
		if localized := strings.TrimSpace(webtemplates.T(loc, key)); localized != "" {
			return localized
		}
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusInternalServerError
	}
	return http.StatusText(statusCode)
}

// WritePage writes the localized 404 or 500 page.
func WritePage(w http.ResponseWriter, r *http.Request, pc webtemplates.PageContext, shell pagerender.Shell, statusCode int) {
	if !ShouldRenderPage(statusCode) {
		statusCode = http.StatusInternalServerError
	}
	pagerender.WritePage(w, r, pc, pagerender.Page{
		Title:      webtemplates.ErrorPageTitle(statusCode, pc.Loc),
		StatusCode: statusCode,
		Shell:      shell,
		Fragment:   webtemplates.ErrorState(statusCode, pc.Loc),
	})
}

// WriteError maps err to a status and writes either an error page or a short
// localized message. Server errors are logged with the request path.
func WriteError(w http.ResponseWriter, r *http.Request, pc webtemplates.PageContext, shell pagerender.Shell, err error) {
	statusCode := apperrors.HTTPStatus(err)
	if statusCode >= http.StatusInternalServerError {
		log.Printf("web request failed method=%s path=%s status=%d err=%v", r.Method, r.URL.Path, statusCode, err)
	}
	if ShouldRenderPage(statusCode) {
		WritePage(w, r, pc, shell, statusCode)
		return
	}
	http.Error(w, PublicMessage(pc.Loc, err), statusCode)
}
