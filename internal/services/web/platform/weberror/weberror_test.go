package weberror

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/pepedome/site/internal/services/web/platform/errors"
	webi18n "github.com/pepedome/site/internal/services/web/platform/i18n"
	"github.com/pepedome/site/internal/services/web/platform/pagerender"
	webtemplates "github.com/pepedome/site/internal/services/web/templates"
	"golang.org/x/text/language"
)

func germanPage(r *http.Request) webtemplates.PageContext {
	return webtemplates.NewPageContext(r, "de", webi18n.Printer(language.German))
}

func TestWriteErrorRendersLocalizedNotFoundPage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/events/missing", nil)
	rr := httptest.NewRecorder()
	WriteError(rr, req, germanPage(req), pagerender.ShellSite, apperrors.E(apperrors.KindNotFound, "missing"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `class="error-state"`) || !strings.Contains(body, "Seite nicht gefunden") {
		t.Fatalf("body missing localized error state: %q", body)
	}
}

func TestWriteErrorRendersServerErrorPageForUntypedErrors(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	WriteError(rr, req, germanPage(req), pagerender.ShellSite, errors.New("database locked"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rr.Body.String(), "database locked") {
		t.Fatal("server error page leaks internal error text")
	}
}

func TestWriteErrorWritesLocalizedTextForClientErrors(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	rr := httptest.NewRecorder()
	WriteError(rr, req, germanPage(req), pagerender.ShellSite, apperrors.E(apperrors.KindRateLimited, "too many posts from 10.0.0.1"))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	body := rr.Body.String()
	if strings.Contains(body, "10.0.0.1") {
		t.Fatalf("body leaks internal message: %q", body)
	}
	if !strings.Contains(body, "Zu viele Anfragen") {
		t.Fatalf("body = %q, want localized rate limit message", body)
	}
}

func TestPublicMessagePrefersExplicitKey(t *testing.T) {
	t.Parallel()

	loc := webi18n.Printer(language.English)
	err := apperrors.EK(apperrors.KindInvalidInput, "admin.error.subject_required", "subject missing")
	if got := PublicMessage(loc, err); got == "admin.error.subject_required" || got == "" {
		t.Fatalf("PublicMessage = %q, want catalog text", got)
	}
	if got := PublicMessage(loc, apperrors.E(apperrors.KindConflict, "x")); got != http.StatusText(http.StatusConflict) {
		t.Fatalf("PublicMessage(conflict) = %q", got)
	}
}
