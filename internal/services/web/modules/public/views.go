package public

import (
	"context"
	"strings"
	"time"

	"github.com/a-h/templ"
	platformi18n "github.com/pepedome/site/internal/platform/i18n"
	"github.com/pepedome/site/internal/platform/view"
	"github.com/pepedome/site/internal/services/content"
	"github.com/pepedome/site/internal/services/web/routepath"
	webtemplates "github.com/pepedome/site/internal/services/web/templates"
	"golang.org/x/text/cases"
)

// eventFilter is the state of the events filter form.
type eventFilter struct {
	Categories []string
	Months     []string
	Category   string
	Month      string
}

func homeView(pc webtemplates.PageContext, events []content.Item, trainings []content.Item) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<section class="hero"><h1>`)
		w.Text(pc.T("site.home.title"))
		w.Raw(`</h1><p class="lead">`)
		w.Text(pc.T("site.home.lead"))
		w.Raw(`</p></section>`)

		w.Raw(`<section class="teaser"><h2>`)
		w.Text(pc.T("site.home.next_events"))
		w.Raw(`</h2>`)
		writeCards(w, pc, events, pc.T("events.empty"))
		moreLink(w, routepath.Events, pc.T("site.home.all_events"))
		w.Raw(`</section>`)

		w.Raw(`<section class="teaser"><h2>`)
		w.Text(pc.T("site.home.next_trainings"))
		w.Raw(`</h2>`)
		writeCards(w, pc, trainings, pc.T("events.trainings.empty"))
		moreLink(w, routepath.Trainings, pc.T("site.home.all_trainings"))
		w.Raw(`</section>`)

		w.Raw(`<aside class="newsletter-teaser"><p>`)
		w.Text(pc.T("site.home.newsletter_teaser"))
		w.Raw(`</p>`)
		moreLink(w, routepath.Newsletter, pc.T("site.home.newsletter_cta"))
		w.Raw(`</aside>`)
	})
}

func eventsView(pc webtemplates.PageContext, filter eventFilter, items []content.Item) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<h1>`)
		w.Text(pc.T("events.title"))
		w.Raw(`</h1><p class="lead">`)
		w.Text(pc.T("events.lead"))
		w.Raw(`</p><form method="get" class="filters"`)
		w.URLAttr("action", routepath.Events)
		w.Raw(`>`)

		categories := []webtemplates.Option{{Value: "", Label: pc.T("events.filter.all_categories"), Selected: filter.Category == ""}}
		for _, category := range filter.Categories {
			categories = append(categories, webtemplates.Option{
				Value:    category,
				Label:    categoryLabel(pc.Lang, category),
				Selected: category == filter.Category,
			})
		}
		webtemplates.WriteSelect(w, routepath.CategoryQueryKey, pc.T("events.filter.category"), categories)

		months := []webtemplates.Option{{Value: "", Label: pc.T("events.filter.all_months"), Selected: filter.Month == ""}}
		for _, month := range filter.Months {
			months = append(months, webtemplates.Option{
				Value:    month,
				Label:    monthLabel(pc.Lang, month),
				Selected: month == filter.Month,
			})
		}
		webtemplates.WriteSelect(w, routepath.MonthQueryKey, pc.T("events.filter.month"), months)
		webtemplates.WriteSubmit(w, pc.T("events.filter.apply"))
		w.Raw(`</form>`)
		writeCards(w, pc, items, pc.T("events.empty"))
	})
}

func trainingsView(pc webtemplates.PageContext, items []content.Item) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<h1>`)
		w.Text(pc.T("events.trainings.title"))
		w.Raw(`</h1><p class="lead">`)
		w.Text(pc.T("events.trainings.lead"))
		w.Raw(`</p>`)
		writeCards(w, pc, items, pc.T("events.trainings.empty"))
	})
}

func detailView(pc webtemplates.PageContext, item content.Item) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<article class="detail"`)
		w.Attr("data-item", item.ID)
		w.Raw(`>`)
		if item.ImageURL != "" {
			w.Raw(`<img alt=""`)
			w.URLAttr("src", item.ImageURL)
			w.Raw(`>`)
		}
		w.Raw(`<h1>`)
		w.Text(item.Title.In(pc.Lang))
		w.Raw(`</h1>`)
		writeWhen(w, pc, item)
		if item.Category != "" {
			w.Raw(`<p class="category">`)
			w.Text(categoryLabel(pc.Lang, item.Category))
			w.Raw(`</p>`)
		}
		if summary := item.Summary.In(pc.Lang); summary != "" {
			w.Raw(`<p class="lead">`)
			w.Text(summary)
			w.Raw(`</p>`)
		}
		for _, paragraph := range strings.Split(item.Body.In(pc.Lang), "\n\n") {
			if paragraph = strings.TrimSpace(paragraph); paragraph != "" {
				w.Raw(`<p>`)
				w.Text(paragraph)
				w.Raw(`</p>`)
			}
		}
		writePriceAndTickets(w, pc, item)
		w.Raw(`<p class="back"><a`)
		w.URLAttr("href", listPath(item.Kind))
		w.Raw(`>`)
		w.Text(pc.T("core.action.back"))
		w.Raw(`</a></p></article>`)
	})
}

func writeCards(w *view.Writer, pc webtemplates.PageContext, items []content.Item, empty string) {
	if len(items) == 0 {
		w.Raw(`<p class="empty">`)
		w.Text(empty)
		w.Raw(`</p>`)
		return
	}
	w.Raw(`<ul class="cards">`)
	for _, item := range items {
		w.Raw(`<li><article class="card"><a class="card-link" data-modal`)
		w.URLAttr("href", detailPath(item))
		w.Raw(`>`)
		if item.ImageURL != "" {
			w.Raw(`<img alt="" loading="lazy"`)
			w.URLAttr("src", item.ImageURL)
			w.Raw(`>`)
		}
		w.Raw(`<h3>`)
		w.Text(item.Title.In(pc.Lang))
		w.Raw(`</h3></a>`)
		writeWhen(w, pc, item)
		if summary := item.Summary.In(pc.Lang); summary != "" {
			w.Raw(`<p>`)
			w.Text(summary)
			w.Raw(`</p>`)
		}
		writePriceAndTickets(w, pc, item)
		w.Raw(`</article></li>`)
	}
	w.Raw(`</ul>`)
}

func writeWhen(w *view.Writer, pc webtemplates.PageContext, item content.Item) {
	w.Raw(`<p class="when"><time`)
	w.Attr("datetime", item.StartsAt.Format(time.RFC3339))
	w.Raw(`>`)
	w.Text(platformi18n.FormatDateTime(pc.Lang, item.StartsAt))
	w.Raw(`</time></p>`)
}

func writePriceAndTickets(w *view.Writer, pc webtemplates.PageContext, item content.Item) {
	if item.Price != "" {
		w.Raw(`<p class="price">`)
		w.Text(pc.T("events.price", item.Price))
		w.Raw(`</p>`)
	}
	if item.TicketURL != "" {
		w.Raw(`<p><a class="tickets" rel="noopener" target="_blank"`)
		w.URLAttr("href", item.TicketURL)
		w.Raw(`>`)
		w.Text(pc.T("core.action.tickets"))
		w.Raw(`</a></p>`)
	}
}

func moreLink(w *view.Writer, path string, label string) {
	w.Raw(`<p class="more"><a`)
	w.URLAttr("href", path)
	w.Raw(`>`)
	w.Text(label)
	w.Raw(`</a></p>`)
}

func detailPath(item content.Item) string {
	if item.Kind == content.KindTraining {
		return routepath.Training(item.ID)
	}
	return routepath.Event(item.ID)
}

func listPath(kind content.Kind) string {
	if kind == content.KindTraining {
		return routepath.Trainings
	}
	return routepath.Events
}

func categoryLabel(lang string, category string) string {
	tag, _ := platformi18n.ParseTag(lang)
	return cases.Title(tag).String(strings.ReplaceAll(category, "-", " "))
}

func monthLabel(lang string, month string) string {
	parsed, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return platformi18n.MonthName(lang, parsed)
}
