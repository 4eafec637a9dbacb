package admin

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	platformi18n "github.com/pepedome/site/internal/platform/i18n"
	"github.com/pepedome/site/internal/platform/view"
	"github.com/pepedome/site/internal/services/content"
	newsletterdomain "github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/newsletter/render"
	"github.com/pepedome/site/internal/services/web/routepath"
	webtemplates "github.com/pepedome/site/internal/services/web/templates"
)

// editorState is everything the newsletter editor renders.
type editorState struct {
	Newsletter newsletterdomain.Newsletter
	Events     []content.Item
	Trainings  []content.Item
	// Missing marks content sections whose program item no longer exists.
	Missing    map[string]bool
	Location   *time.Location
	ScheduleAt string
}

func loginView(pc webtemplates.PageContext, username string, errorKey string) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<section class="login"><h1>`)
		w.Text(pc.T("admin.login.title"))
		w.Raw(`</h1>`)
		if errorKey != "" {
			webtemplates.WriteFormError(w, pc.T(errorKey))
		}
		w.Raw(`<form method="post"`)
		w.URLAttr("action", routepath.AdminLogin)
		w.Raw(`>`)
		webtemplates.WriteField(w, webtemplates.Field{
			Name: "username", Label: pc.T("admin.login.username"), Value: username,
			Required: true, Autocomplete: "username",
		})
		webtemplates.WriteField(w, webtemplates.Field{
			Name: "password", Label: pc.T("admin.login.password"), Type: "password",
			Required: true, Autocomplete: "current-password",
		})
		webtemplates.WriteSubmit(w, pc.T("admin.login.submit"))
		w.Raw(`</form></section>`)
	})
}

func listView(pc webtemplates.PageContext, newsletters []newsletterdomain.Newsletter, loc *time.Location) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<div class="page-header"><h1>`)
		w.Text(pc.T("admin.newsletters.title"))
		w.Raw(`</h1><a class="button"`)
		w.URLAttr("href", routepath.AdminNewslettersNew)
		w.Raw(`>`)
		w.Text(pc.T("admin.newsletters.new"))
		w.Raw(`</a></div>`)
		if len(newsletters) == 0 {
			w.Raw(`<p class="empty">`)
			w.Text(pc.T("admin.newsletters.empty"))
			w.Raw(`</p>`)
			return
		}
		w.Raw(`<table class="newsletters"><thead><tr>`)
		for _, key := range []string{"admin.newsletters.col.subject", "admin.newsletters.col.status", "admin.newsletters.col.scheduled", "admin.newsletters.col.updated"} {
			w.Raw(`<th>`)
			w.Text(pc.T(key))
			w.Raw(`</th>`)
		}
		w.Raw(`</tr></thead><tbody>`)
		for _, newsletter := range newsletters {
			w.Raw(`<tr><td><a`)
			w.URLAttr("href", routepath.AdminNewsletter(newsletter.ID))
			w.Raw(`>`)
			w.Text(newsletter.Subject.In(pc.Lang))
			w.Raw(`</a></td><td>`)
			writeStatus(w, pc, newsletter.Status)
			w.Raw(`</td><td>`)
			w.Text(formatOptional(pc.Lang, newsletter.ScheduledAt, loc))
			w.Raw(`</td><td>`)
			w.Text(formatTime(pc.Lang, newsletter.UpdatedAt, loc))
			w.Raw(`</td></tr>`)
		}
		w.Raw(`</tbody></table>`)
	})
}

func newDraftView(pc webtemplates.PageContext, input newsletterdomain.DraftInput, errorKey string) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<h1>`)
		w.Text(pc.T("admin.newsletters.new"))
		w.Raw(`</h1>`)
		if errorKey != "" {
			webtemplates.WriteFormError(w, pc.T(errorKey))
		}
		w.Raw(`<form method="post" class="draft-form"`)
		w.URLAttr("action", routepath.AdminNewslettersNew)
		w.Raw(`>`)
		writeDraftFields(w, pc, input)
		webtemplates.WriteSubmit(w, pc.T("admin.editor.save"))
		w.Raw(`</form>`)
	})
}

func editorView(pc webtemplates.PageContext, state editorState) templ.Component {
	newsletter := state.Newsletter
	editable := newsletter.Status.Editable()
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<div class="page-header"><h1>`)
		w.Text(newsletter.Subject.In(pc.Lang))
		w.Raw(`</h1>`)
		writeStatus(w, pc, newsletter.Status)
		w.Raw(`</div><nav class="editor-links">`)
		for _, tag := range platformi18n.SupportedTags() {
			w.Raw(`<a target="_blank"`)
			w.URLAttr("href", routepath.AdminNewsletterPreview(newsletter.ID, platformi18n.Code(tag)))
			w.Raw(`>`)
			w.Text(pc.T("admin.editor.preview") + " (" + pc.T(platformi18n.LabelKey(tag)) + ")")
			w.Raw(`</a>`)
		}
		w.Raw(`<a`)
		w.URLAttr("href", routepath.AdminNewsletterReport(newsletter.ID))
		w.Raw(`>`)
		w.Text(pc.T("admin.editor.report"))
		w.Raw(`</a></nav>`)
		if newsletter.ScheduledAt != nil {
			w.Raw(`<p class="scheduled">`)
			w.Text(pc.T("admin.newsletters.col.scheduled") + ": " + formatOptional(pc.Lang, newsletter.ScheduledAt, state.Location))
			w.Raw(`</p>`)
		}

		if editable {
			w.Raw(`<form method="post" class="draft-form"`)
			w.URLAttr("action", routepath.AdminNewsletter(newsletter.ID))
			w.Raw(`>`)
			writeDraftFields(w, pc, newsletterdomain.DraftInput{Subject: newsletter.Subject, Intro: newsletter.Intro})
			webtemplates.WriteSubmit(w, pc.T("admin.editor.save"))
			w.Raw(`</form>`)
		} else {
			w.Raw(`<p class="locked">`)
			w.Text(pc.T("admin.editor.locked"))
			w.Raw(`</p>`)
		}

		writeSections(w, pc, state, editable)
		if editable {
			writeContentPicker(w, pc, newsletter.ID, newsletterdomain.SectionEvent, state.Events, "admin.editor.add_event")
			writeContentPicker(w, pc, newsletter.ID, newsletterdomain.SectionTraining, state.Trainings, "admin.editor.add_training")
			writeTextSectionForm(w, pc, routepath.AdminNewsletterText(newsletter.ID), "new", newsletterdomain.Section{}, "admin.editor.add_text")
		}
		writeLifecycleActions(w, pc, state)
	})
}

func writeSections(w *view.Writer, pc webtemplates.PageContext, state editorState, editable bool) {
	newsletter := state.Newsletter
	w.Raw(`<section class="sections-panel"><h2>`)
	w.Text(pc.T("admin.editor.sections"))
	w.Raw(`</h2>`)
	if len(newsletter.Sections) == 0 {
		w.Raw(`<p class="empty">`)
		w.Text(pc.T("admin.editor.sections_empty"))
		w.Raw(`</p></section>`)
		return
	}
	if editable {
		w.Raw(`<p class="hint">`)
		w.Text(pc.T("admin.editor.drag_hint"))
		w.Raw(`</p><ol class="sections"`)
		w.Attr("data-reorder-url", routepath.AdminNewsletterOrder(newsletter.ID))
		w.Raw(`>`)
	} else {
		w.Raw(`<ol class="sections">`)
	}
	for _, section := range newsletter.Sections {
		w.Raw(`<li class="section"`)
		w.Attr("data-section-id", section.ID)
		if editable {
			w.Raw(` draggable="true"><span class="drag-handle" aria-hidden="true">&#x2630;</span>`)
		} else {
			w.Raw(`>`)
		}
		w.Raw(`<span class="kind">`)
		w.Text(pc.T("admin.kind." + string(section.Kind)))
		w.Raw(`</span> <strong>`)
		w.Text(section.Heading.In(pc.Lang))
		w.Raw(`</strong>`)
		if state.Missing[section.ID] {
			w.Raw(`<p class="warning">`)
			w.Text(pc.T("admin.editor.missing_content"))
			w.Raw(`</p>`)
		}
		if section.Kind == newsletterdomain.SectionText {
			if editable {
				writeTextSectionForm(w, pc, routepath.AdminNewsletterSection(newsletter.ID, section.ID), section.ID, section, "admin.editor.save")
			} else if body := section.Body.In(pc.Lang); body != "" {
				w.Raw(`<p>`)
				w.Text(body)
				w.Raw(`</p>`)
			}
		}
		if editable {
			w.Raw(`<form method="post" class="remove"`)
			w.URLAttr("action", routepath.AdminNewsletterRemove(newsletter.ID, section.ID))
			w.Raw(`><button type="submit" class="secondary">`)
			w.Text(pc.T("admin.editor.remove"))
			w.Raw(`</button></form>`)
		}
		w.Raw(`</li>`)
	}
	w.Raw(`</ol></section>`)
}

func writeContentPicker(w *view.Writer, pc webtemplates.PageContext, newsletterID string, kind newsletterdomain.SectionKind, items []content.Item, labelKey string) {
	if len(items) == 0 {
		return
	}
	w.Raw(`<form method="post" class="content-picker"`)
	w.URLAttr("action", routepath.AdminNewsletterContent(newsletterID))
	w.Raw(`><input type="hidden" name="kind"`)
	w.Attr("value", string(kind))
	w.Raw(`><div class="field"><label`)
	w.Attr("for", "picker-"+string(kind))
	w.Raw(`>`)
	w.Text(pc.T(labelKey))
	w.Raw(`</label><select name="content_id"`)
	w.Attr("id", "picker-"+string(kind))
	w.Raw(`>`)
	for _, item := range items {
		w.Raw(`<option`)
		w.Attr("value", item.ID)
		w.Raw(`>`)
		w.Text(item.Title.In(pc.Lang) + " (" + platformi18n.FormatDateTime(pc.Lang, item.StartsAt) + ")")
		w.Raw(`</option>`)
	}
	w.Raw(`</select></div>`)
	webtemplates.WriteSubmit(w, pc.T("admin.editor.add_content"))
	w.Raw(`</form>`)
}

func writeTextSectionForm(w *view.Writer, pc webtemplates.PageContext, action string, idPrefix string, section newsletterdomain.Section, submitKey string) {
	w.Raw(`<form method="post" class="text-section"`)
	w.URLAttr("action", action)
	w.Raw(`>`)
	for _, tag := range platformi18n.SupportedTags() {
		code := platformi18n.Code(tag)
		language := pc.T(platformi18n.LabelKey(tag))
		webtemplates.WriteField(w, webtemplates.Field{
			ID: "section-" + idPrefix + "-heading-" + code, Name: "heading_" + code,
			Label: pc.T("admin.editor.heading", language), Value: section.Heading[code],
		})
		webtemplates.WriteField(w, webtemplates.Field{
			ID: "section-" + idPrefix + "-body-" + code, Name: "body_" + code,
			Label: pc.T("admin.editor.body", language), Value: section.Body[code], Multiline: true,
		})
	}
	webtemplates.WriteSubmit(w, pc.T(submitKey))
	w.Raw(`</form>`)
}

func writeLifecycleActions(w *view.Writer, pc webtemplates.PageContext, state editorState) {
	newsletter := state.Newsletter
	switch newsletter.Status {
	case newsletterdomain.StatusDraft:
		w.Raw(`<section class="actions"><form method="post" class="schedule"`)
		w.URLAttr("action", routepath.AdminNewsletterSchedule(newsletter.ID))
		w.Raw(`>`)
		webtemplates.WriteField(w, webtemplates.Field{
			Name: "scheduled_at", Label: pc.T("admin.editor.schedule_at"), Type: "datetime-local",
			Value: state.ScheduleAt, Required: true,
		})
		webtemplates.WriteSubmit(w, pc.T("admin.editor.schedule"))
		w.Raw(`</form>`)
		writeActionButton(w, routepath.AdminNewsletterSend(newsletter.ID), pc.T("admin.editor.send_now"), "primary")
		writeActionButton(w, routepath.AdminNewsletterCancel(newsletter.ID), pc.T("admin.editor.cancel"), "danger")
		w.Raw(`</section>`)
	case newsletterdomain.StatusScheduled:
		w.Raw(`<section class="actions">`)
		writeActionButton(w, routepath.AdminNewsletterUnschedule(newsletter.ID), pc.T("admin.editor.unschedule"), "secondary")
		writeActionButton(w, routepath.AdminNewsletterCancel(newsletter.ID), pc.T("admin.editor.cancel"), "danger")
		w.Raw(`</section>`)
	}
}

func writeActionButton(w *view.Writer, action string, label string, class string) {
	w.Raw(`<form method="post" class="action"`)
	w.URLAttr("action", action)
	w.Raw(`><button type="submit"`)
	w.Attr("class", class)
	w.Raw(`>`)
	w.Text(label)
	w.Raw(`</button></form>`)
}

func writeDraftFields(w *view.Writer, pc webtemplates.PageContext, input newsletterdomain.DraftInput) {
	for _, tag := range platformi18n.SupportedTags() {
		code := platformi18n.Code(tag)
		language := pc.T(platformi18n.LabelKey(tag))
		webtemplates.WriteField(w, webtemplates.Field{
			Name: "subject_" + code, Label: pc.T("admin.editor.subject", language), Value: input.Subject[code],
		})
		webtemplates.WriteField(w, webtemplates.Field{
			Name: "intro_" + code, Label: pc.T("admin.editor.intro", language), Value: input.Intro[code], Multiline: true,
		})
	}
}

func previewView(pc webtemplates.PageContext, newsletter newsletterdomain.Newsletter, lang string, email render.Email) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<div class="page-header"><h1>`)
		w.Text(pc.T("admin.preview.title"))
		w.Raw(`</h1><a`)
		w.URLAttr("href", routepath.AdminNewsletter(newsletter.ID))
		w.Raw(`>`)
		w.Text(pc.T("core.action.back"))
		w.Raw(`</a></div><nav class="preview-languages"`)
		w.Attr("aria-label", pc.T("admin.preview.language"))
		w.Raw(`>`)
		for _, tag := range platformi18n.SupportedTags() {
			code := platformi18n.Code(tag)
			w.Raw(`<a`)
			w.URLAttr("href", routepath.AdminNewsletterPreview(newsletter.ID, code))
			if code == lang {
				w.Raw(` aria-current="true"`)
			}
			w.Raw(`>`)
			w.Text(pc.T(platformi18n.LabelKey(tag)))
			w.Raw(`</a>`)
		}
		w.Raw(`</nav><p class="preview-subject"><strong>`)
		w.Text(email.Subject)
		w.Raw(`</strong></p><iframe class="email-preview" sandbox=""`)
		w.Attr("title", email.Subject)
		w.Attr("srcdoc", email.HTML)
		w.Raw(`></iframe><details><summary>`)
		w.Text(pc.T("admin.kind.text"))
		w.Raw(`</summary><pre class="email-text">`)
		w.Text(email.Text)
		w.Raw(`</pre></details>`)
	})
}

func reportView(pc webtemplates.PageContext, report newsletterdomain.Report, loc *time.Location) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<div class="page-header"><h1>`)
		w.Text(pc.T("admin.report.title") + ": " + report.Newsletter.Subject.In(pc.Lang))
		w.Raw(`</h1>`)
		writeStatus(w, pc, report.Newsletter.Status)
		w.Raw(`<a`)
		w.URLAttr("href", routepath.AdminNewsletter(report.Newsletter.ID))
		w.Raw(`>`)
		w.Text(pc.T("core.action.back"))
		w.Raw(`</a></div>`)
		if len(report.Jobs) == 0 {
			w.Raw(`<p class="empty">`)
			w.Text(pc.T("admin.report.empty"))
			w.Raw(`</p>`)
			return
		}
		for _, job := range report.Jobs {
			w.Raw(`<section class="job"`)
			w.Attr("data-job", job.ID)
			w.Raw(`><h2>`)
			w.Text(pc.T("admin.report.job", shortID(job.ID)))
			w.Raw(`</h2><dl class="totals">`)
			writeTerm(w, pc.T("admin.report.total"), strconv.Itoa(job.Total))
			writeTerm(w, pc.T("admin.report.succeeded"), strconv.Itoa(job.Succeeded))
			writeTerm(w, pc.T("admin.report.failed"), strconv.Itoa(job.Failed))
			writeTerm(w, pc.T("admin.report.started"), formatTime(pc.Lang, job.StartedAt, loc))
			if job.CompletedAt != nil {
				writeTerm(w, pc.T("admin.report.completed"), formatOptional(pc.Lang, job.CompletedAt, loc))
			} else {
				writeTerm(w, pc.T("admin.report.completed"), pc.T("admin.report.running"))
			}
			w.Raw(`</dl></section>`)
		}
		if len(report.Deliveries) == 0 {
			return
		}
		w.Raw(`<table class="deliveries"><thead><tr>`)
		for _, key := range []string{"admin.report.col.email", "admin.report.col.status", "admin.report.col.provider_id", "admin.report.col.error", "admin.report.col.attempted"} {
			w.Raw(`<th>`)
			w.Text(pc.T(key))
			w.Raw(`</th>`)
		}
		w.Raw(`</tr></thead><tbody>`)
		for _, delivery := range report.Deliveries {
			status := deliveryLabelKey(delivery)
			w.Raw(`<tr><td>`)
			w.Text(delivery.Email)
			w.Raw(`</td><td><span`)
			w.Attr("class", "delivery "+strings.TrimPrefix(status, "admin.delivery."))
			w.Raw(`>`)
			w.Text(pc.T(status))
			w.Raw(`</span></td><td>`)
			w.Text(delivery.ProviderMessageID)
			w.Raw(`</td><td>`)
			w.Text(delivery.Error)
			w.Raw(`</td><td>`)
			w.Text(formatTime(pc.Lang, delivery.AttemptedAt, loc))
			w.Raw(`</td></tr>`)
		}
		w.Raw(`</tbody></table>`)
	})
}

func subscribersView(pc webtemplates.PageContext, active newsletterdomain.SubscriberStatus, overview newsletterdomain.SubscriberOverview, loc *time.Location) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<h1>`)
		w.Text(pc.T("admin.subscribers.title"))
		w.Raw(`</h1><nav class="filters">`)
		total := 0
		for _, count := range overview.Counts {
			total += count
		}
		writeFilterLink(w, routepath.AdminSubscribersByStatus(""), pc.T("admin.subscribers.all"), total, active == "")
		for _, status := range subscriberStatuses {
			writeFilterLink(w, routepath.AdminSubscribersByStatus(string(status)), pc.T("admin.subscriber_status."+string(status)), overview.Counts[status], active == status)
		}
		w.Raw(`</nav>`)
		if len(overview.Subscribers) == 0 {
			w.Raw(`<p class="empty">`)
			w.Text(pc.T("admin.subscribers.empty"))
			w.Raw(`</p>`)
			return
		}
		w.Raw(`<table class="subscribers"><thead><tr>`)
		for _, key := range []string{"admin.subscribers.col.email", "admin.subscribers.col.language", "admin.subscribers.col.status", "admin.subscribers.col.created"} {
			w.Raw(`<th>`)
			w.Text(pc.T(key))
			w.Raw(`</th>`)
		}
		w.Raw(`</tr></thead><tbody>`)
		for _, subscriber := range overview.Subscribers {
			w.Raw(`<tr><td>`)
			w.Text(subscriber.Email)
			w.Raw(`</td><td>`)
			w.Text(subscriber.Language)
			w.Raw(`</td><td>`)
			w.Text(pc.T("admin.subscriber_status." + string(subscriber.Status)))
			w.Raw(`</td><td>`)
			w.Text(formatTime(pc.Lang, subscriber.CreatedAt, loc))
			w.Raw(`</td></tr>`)
		}
		w.Raw(`</tbody></table>`)
	})
}

func writeFilterLink(w *view.Writer, href string, label string, count int, active bool) {
	w.Raw(`<a`)
	w.URLAttr("href", href)
	if active {
		w.Raw(` aria-current="page"`)
	}
	w.Raw(`>`)
	w.Text(label + " (" + strconv.Itoa(count) + ")")
	w.Raw(`</a>`)
}

func writeStatus(w *view.Writer, pc webtemplates.PageContext, status newsletterdomain.Status) {
	w.Raw(`<span`)
	w.Attr("class", "status status-"+string(status))
	w.Raw(`>`)
	w.Text(pc.T("admin.status." + string(status)))
	w.Raw(`</span>`)
}

func writeTerm(w *view.Writer, term string, value string) {
	w.Raw(`<dt>`)
	w.Text(term)
	w.Raw(`</dt><dd>`)
	w.Text(value)
	w.Raw(`</dd>`)
}

// deliveryLabelKey names the report label of a delivery. Failures the
// provider rejected outright show as rejected.
func deliveryLabelKey(delivery newsletterdomain.Delivery) string {
	switch {
	case delivery.Status == newsletterdomain.DeliverySent:
		return "admin.delivery.sent"
	case delivery.Permanent:
		return "admin.delivery.rejected"
	default:
		return "admin.delivery.failed"
	}
}

func formatTime(lang string, t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return platformi18n.FormatDateTime(lang, t.In(loc))
}

func formatOptional(lang string, t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return formatTime(lang, *t, loc)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
