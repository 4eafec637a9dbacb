package admin

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pepedome/site/internal/services/web/platform/httpx"
	"github.com/pepedome/site/internal/services/web/platform/pagerender"
	"github.com/pepedome/site/internal/services/web/platform/requestmeta"
	"github.com/pepedome/site/internal/services/web/routepath"
	webtemplates "github.com/pepedome/site/internal/services/web/templates"
	"golang.org/x/crypto/bcrypt"
)

type handlers struct {
	cfg      Config
	deps     Dependencies
	clock    func() time.Time
	location *time.Location
	policy   requestmeta.SchemePolicy
	sessions sessions
}

// pageContext returns the admin page context with the signed-in operator.
func (h handlers) pageContext(w http.ResponseWriter, r *http.Request) webtemplates.PageContext {
	pc := pagerender.Context(w, r)
	pc.AdminUser = operatorFrom(r.Context())
	return pc
}

func (h handlers) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if _, err := h.sessions.verify(cookie.Value); err == nil {
			httpx.WriteRedirect(w, r, routepath.AdminNewsletters)
			return
		}
	}
	h.writeLogin(w, r, pc, "", "", http.StatusOK)
}

func (h handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.writeLogin(w, r, pc, "", "admin.login.invalid", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if !h.checkCredentials(username, password) {
		log.Printf("admin login failed username=%q", username)
		h.writeLogin(w, r, pc, username, "admin.login.invalid", http.StatusUnauthorized)
		return
	}
	token, expiresAt, err := h.sessions.issue(h.sessions.username)
	if err != nil {
		log.Printf("admin session issue failed err=%v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     routepath.Admin,
		Expires:  expiresAt,
		MaxAge:   int(h.sessions.ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.policy.IsHTTPS(r),
		SameSite: http.SameSiteStrictMode,
	})
	log.Printf("admin login username=%q", username)
	httpx.WriteRedirect(w, r, routepath.AdminNewsletters)
}

// checkCredentials compares both the name and the bcrypt hash so a wrong
// name costs the same as a wrong password.
func (h handlers) checkCredentials(username string, password string) bool {
	nameOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.sessions.username)) == 1
	passwordOK := bcrypt.CompareHashAndPassword([]byte(h.cfg.PasswordHash), []byte(password)) == nil
	return nameOK && passwordOK
}

func (h handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     routepath.Admin,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.policy.IsHTTPS(r),
		SameSite: http.SameSiteStrictMode,
	})
	httpx.WriteRedirect(w, r, routepath.AdminLogin)
}

// requireSession admits requests with a valid session cookie. Page loads
// are sent to the login form; other requests get 401.
func (h handlers) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		var username string
		if err == nil {
			username, err = h.sessions.verify(cookie.Value)
		}
		if err != nil {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				httpx.WriteRedirect(w, r, routepath.AdminLogin)
				return
			}
			pc := pagerender.Context(w, r)
			http.Error(w, pc.T("error.unauthorized"), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withOperator(r.Context(), username)))
	})
}

// requireSameOrigin rejects state-changing requests that do not prove they
// came from an admin page of this host.
func (h handlers) requireSameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			if !h.policy.HasSameOriginProof(r) {
				log.Printf("admin request rejected cross-origin method=%s path=%s", r.Method, r.URL.Path)
				pc := pagerender.Context(w, r)
				http.Error(w, pc.T("error.forbidden"), http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	httpx.WriteRedirect(w, r, routepath.AdminNewsletters)
}

func (h handlers) writeLogin(w http.ResponseWriter, r *http.Request, pc webtemplates.PageContext, username string, errorKey string, statusCode int) {
	pagerender.WritePage(w, r, pc, pagerender.Page{
		Title:      pc.T("admin.login.title"),
		StatusCode: statusCode,
		Shell:      pagerender.ShellAdmin,
		Fragment:   loginView(pc, username, errorKey),
	})
}
