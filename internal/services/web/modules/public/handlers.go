package public

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/pepedome/site/internal/services/content"
	"github.com/pepedome/site/internal/services/web/platform/pagerender"
	"github.com/pepedome/site/internal/services/web/platform/weberror"
	"github.com/pepedome/site/internal/services/web/routepath"
)

type handlers struct {
	source content.Source
	clock  func() time.Time
}

func (h handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	pc := pagerender.Context(w, r)
	catalog := h.source.Catalog()
	now := h.clock()
	events := catalog.Events(content.Filter{UpcomingAfter: now, Limit: homeTeaserLimit})
	trainings := catalog.Trainings(content.Filter{UpcomingAfter: now, Limit: homeTeaserLimit})
	pagerender.WritePage(w, r, pc, pagerender.Page{
		Title:    pc.T("site.home.title"),
		Fragment: homeView(pc, events, trainings),
	})
}

func (h handlers) handleEvents(w http.ResponseWriter, r *http.Request) {
	pc := pagerender.Context(w, r)
	catalog := h.source.Catalog()
	now := h.clock()

	upcoming := catalog.Events(content.Filter{UpcomingAfter: now})
	filter := eventFilter{
		Categories: catalog.Categories(content.KindEvent),
		Months:     monthsOf(upcoming),
	}
	query := r.URL.Query()
	// Unknown filter values are ignored rather than rejected so stale links
	// still show the full program.
	if category := strings.ToLower(strings.TrimSpace(query.Get(routepath.CategoryQueryKey))); slices.Contains(filter.Categories, category) {
		filter.Category = category
	}
	if month := strings.TrimSpace(query.Get(routepath.MonthQueryKey)); content.ValidMonth(month) {
		filter.Month = month
	}

	items := catalog.Events(content.Filter{
		Category:      filter.Category,
		Month:         filter.Month,
		UpcomingAfter: now,
	})
	pagerender.WritePage(w, r, pc, pagerender.Page{
		Title:    pc.T("events.title"),
		Fragment: eventsView(pc, filter, items),
	})
}

func (h handlers) handleTrainings(w http.ResponseWriter, r *http.Request) {
	pc := pagerender.Context(w, r)
	items := h.source.Catalog().Trainings(content.Filter{UpcomingAfter: h.clock()})
	pagerender.WritePage(w, r, pc, pagerender.Page{
		Title:    pc.T("events.trainings.title"),
		Fragment: trainingsView(pc, items),
	})
}

func (h handlers) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	h.writeDetail(w, r, content.KindEvent)
}

func (h handlers) handleTrainingDetail(w http.ResponseWriter, r *http.Request) {
	h.writeDetail(w, r, content.KindTraining)
}

func (h handlers) writeDetail(w http.ResponseWriter, r *http.Request, kind content.Kind) {
	pc := pagerender.Context(w, r)
	item, err := h.source.Catalog().Item(r.PathValue("itemID"))
	if err != nil || item.Kind != kind {
		weberror.WritePage(w, r, pc, pagerender.ShellSite, http.StatusNotFound)
		return
	}
	pagerender.WritePage(w, r, pc, pagerender.Page{
		Title:    item.Title.In(pc.Lang),
		Fragment: detailView(pc, item),
	})
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WritePage(w, r, pagerender.Context(w, r), pagerender.ShellSite, http.StatusNotFound)
}

// monthsOf returns the distinct YYYY-MM buckets of items in order.
func monthsOf(items []content.Item) []string {
	var months []string
	for _, item := range items {
		month := item.Month()
		if len(months) == 0 || months[len(months)-1] != month {
			months = append(months, month)
		}
	}
	return months
}
