package admin

import (
	"net/http"
	"strings"

	newsletterdomain "github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/web/platform/pagerender"
	"github.com/pepedome/site/internal/services/web/platform/weberror"
)

// subscriberStatuses lists the filter tabs in display order.
var subscriberStatuses = []newsletterdomain.SubscriberStatus{
	newsletterdomain.SubscriberConfirmed,
	newsletterdomain.SubscriberPending,
	newsletterdomain.SubscriberUnsubscribed,
}

func (h handlers) handleSubscribers(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	status := newsletterdomain.SubscriberStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if !knownSubscriberStatus(status) {
		status = ""
	}
	overview, err := h.deps.Subscribers.ListSubscribers(r.Context(), status)
	if err != nil {
		weberror.WriteError(w, r, pc, pagerender.ShellAdmin, classify(err))
		return
	}
	h.writeAdminPage(w, r, pc, pc.T("admin.subscribers.title"), http.StatusOK, subscribersView(pc, status, overview, h.zone()))
}

func knownSubscriberStatus(status newsletterdomain.SubscriberStatus) bool {
	for _, known := range subscriberStatuses {
		if status == known {
			return true
		}
	}
	return false
}
