package pagerender

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/pepedome/site/internal/platform/view"
	flashnotice "github.com/pepedome/site/internal/services/web/platform/flash"
	webi18n "github.com/pepedome/site/internal/services/web/platform/i18n"
	webtemplates "github.com/pepedome/site/internal/services/web/templates"
	"golang.org/x/text/language"
)

func testPage(r *http.Request) webtemplates.PageContext {
	return webtemplates.NewPageContext(r, "en", webi18n.Printer(language.English))
}

func detailFragment() templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) { w.Raw(`<article id="detail">Jazz</article>`) })
}

func TestWritePageFullLayout(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/events/jazz", nil)
	rr := httptest.NewRecorder()
	WritePage(rr, req, testPage(req), Page{Title: "Jazz", Fragment: detailFragment()})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	html := rr.Body.String()
	if !strings.Contains(html, "<!DOCTYPE html>") || !strings.Contains(html, `<article id="detail">Jazz</article>`) {
		t.Fatalf("full page missing layout or fragment:\n%s", html)
	}
	if got := rr.Header().Get("Vary"); got != "HX-Request" {
		t.Fatalf("Vary = %q", got)
	}
}

func TestWritePageHTMXReturnsFragmentOnly(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/events/jazz", nil)
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	WritePage(rr, req, testPage(req), Page{Title: "Jazz", StatusCode: http.StatusNotFound, Fragment: detailFragment()})

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	if got := rr.Body.String(); got != `<article id="detail">Jazz</article>` {
		t.Fatalf("fragment = %q", got)
	}
}

func TestWritePageConsumesFlashNotice(t *testing.T) {
	t.Parallel()

	seed := httptest.NewRecorder()
	flashnotice.Write(seed, httptest.NewRequest(http.MethodPost, "/admin/newsletters", nil), flashnotice.Success("admin.notice.saved"))
	cookie, err := http.ParseSetCookie(seed.Header().Get("Set-Cookie"))
	if err != nil {
		t.Fatalf("ParseSetCookie: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/newsletters", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	WritePage(rr, req, testPage(req), Page{Shell: ShellAdmin, Fragment: detailFragment()})

	html := rr.Body.String()
	if !strings.Contains(html, `class="toast toast-success"`) || !strings.Contains(html, "Saved.") {
		t.Fatalf("admin page missing flash toast:\n%s", html)
	}
	if !strings.Contains(rr.Header().Get("Set-Cookie"), flashnotice.CookieName) {
		t.Fatal("flash cookie was not cleared")
	}
}

func TestWritePageRenderFailureIsInternalError(t *testing.T) {
	t.Parallel()

	failing := templ.ComponentFunc(func(context.Context, io.Writer) error {
		return errors.New("boom")
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	WritePage(rr, req, testPage(req), Page{Fragment: failing})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
