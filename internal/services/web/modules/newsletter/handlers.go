package newsletter

import (
	"errors"
	"log"
	"net/http"
	"strings"

	platformi18n "github.com/pepedome/site/internal/platform/i18n"
	newsletterdomain "github.com/pepedome/site/internal/services/newsletter/domain"
	flashnotice "github.com/pepedome/site/internal/services/web/platform/flash"
	"github.com/pepedome/site/internal/services/web/platform/httpx"
	"github.com/pepedome/site/internal/services/web/platform/pagerender"
	"github.com/pepedome/site/internal/services/web/platform/weberror"
	"github.com/pepedome/site/internal/services/web/routepath"
	webtemplates "github.com/pepedome/site/internal/services/web/templates"
)

// oneClickValue is the body value mail clients post for RFC 8058 one-click
// unsubscribe.
const oneClickValue = "One-Click"

type handlers struct {
	subscriptions Subscriptions
}

func (h handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	pc := pagerender.Context(w, r)
	h.writeForm(w, r, pc, subscribeState{Language: pc.Lang}, http.StatusOK)
}

func (h handlers) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	pc := pagerender.Context(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.writeForm(w, r, pc, subscribeState{Language: pc.Lang}, http.StatusBadRequest)
		return
	}
	state := subscribeState{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Language: r.PostForm.Get("language"),
	}
	if strings.TrimSpace(state.Language) == "" {
		state.Language = pc.Lang
	}
	state.Language = platformi18n.NormalizeCode(state.Language)

	subscriber, err := h.subscriptions.Subscribe(r.Context(), state.Email, state.Language)
	switch {
	case errors.Is(err, newsletterdomain.ErrInvalidEmail):
		state.EmailError = "newsletter.error.email_invalid"
		h.writeForm(w, r, pc, state, http.StatusBadRequest)
		return
	case errors.Is(err, newsletterdomain.ErrConfirmationNotSent):
		log.Printf("newsletter confirmation not sent subscriber_id=%s err=%v", subscriber.ID, err)
		flashnotice.Write(w, r, flashnotice.Error("newsletter.confirmation_failed"))
	case err != nil:
		weberror.WriteError(w, r, pc, pagerender.ShellSite, err)
		return
	case subscriber.Status == newsletterdomain.SubscriberConfirmed:
		flashnotice.Write(w, r, flashnotice.Notice{Kind: flashnotice.KindInfo, Key: "newsletter.already_confirmed"})
	default:
		flashnotice.Write(w, r, flashnotice.Success("newsletter.subscribed"))
	}
	httpx.WriteRedirect(w, r, routepath.Newsletter)
}

func (h handlers) handleConfirm(w http.ResponseWriter, r *http.Request) {
	pc := pagerender.Context(w, r)
	_, err := h.subscriptions.Confirm(r.Context(), r.URL.Query().Get(routepath.TokenQueryKey))
	if err != nil {
		h.writeTokenError(w, r, pc, err)
		return
	}
	h.writeMessage(w, r, pc, http.StatusOK, "newsletter.confirmed.title", "newsletter.confirmed.body")
}

func (h handlers) handleUnsubscribeForm(w http.ResponseWriter, r *http.Request) {
	pc := pagerender.Context(w, r)
	token := strings.TrimSpace(r.URL.Query().Get(routepath.TokenQueryKey))
	if token == "" {
		h.writeTokenError(w, r, pc, newsletterdomain.ErrNotFound)
		return
	}
	pagerender.WritePage(w, r, pc, pagerender.Page{
		Title:    pc.T("newsletter.unsubscribe.title"),
		Fragment: unsubscribeView(pc, token),
	})
}

// handleUnsubscribe accepts both the confirmation form and one-click posts
// from mail clients, which carry the token in the query string.
func (h handlers) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	pc := pagerender.Context(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.writeTokenError(w, r, pc, newsletterdomain.ErrNotFound)
		return
	}
	token := strings.TrimSpace(r.PostForm.Get(routepath.TokenQueryKey))
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get(routepath.TokenQueryKey))
	}
	subscriber, err := h.subscriptions.Unsubscribe(r.Context(), token)
	if err != nil {
		h.writeTokenError(w, r, pc, err)
		return
	}
	if r.PostForm.Get("List-Unsubscribe") == oneClickValue {
		log.Printf("newsletter one-click unsubscribe subscriber_id=%s", subscriber.ID)
	}
	h.writeMessage(w, r, pc, http.StatusOK, "newsletter.unsubscribed.title", "newsletter.unsubscribed.body")
}

func (h handlers) writeTokenError(w http.ResponseWriter, r *http.Request, pc webtemplates.PageContext, err error) {
	switch {
	case errors.Is(err, newsletterdomain.ErrNotFound):
		h.writeMessage(w, r, pc, http.StatusNotFound, "newsletter.title", "newsletter.invalid_token")
	case errors.Is(err, newsletterdomain.ErrInvalidTransition):
		h.writeMessage(w, r, pc, http.StatusConflict, "newsletter.title", "newsletter.invalid_token")
	default:
		weberror.WriteError(w, r, pc, pagerender.ShellSite, err)
	}
}

func (h handlers) writeForm(w http.ResponseWriter, r *http.Request, pc webtemplates.PageContext, state subscribeState, statusCode int) {
	pagerender.WritePage(w, r, pc, pagerender.Page{
		Title:      pc.T("newsletter.title"),
		StatusCode: statusCode,
		Fragment:   subscribeView(pc, state),
	})
}

func (h handlers) writeMessage(w http.ResponseWriter, r *http.Request, pc webtemplates.PageContext, statusCode int, titleKey string, bodyKey string) {
	pagerender.WritePage(w, r, pc, pagerender.Page{
		Title:      pc.T(titleKey),
		StatusCode: statusCode,
		Fragment:   messageView(pc, titleKey, bodyKey),
	})
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WritePage(w, r, pagerender.Context(w, r), pagerender.ShellSite, http.StatusNotFound)
}
