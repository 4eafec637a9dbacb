package admin

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	platformi18n "github.com/pepedome/site/internal/platform/i18n"
	"github.com/pepedome/site/internal/services/content"
	newsletterdomain "github.com/pepedome/site/internal/services/newsletter/domain"
	apperrors "github.com/pepedome/site/internal/services/web/platform/errors"
	flashnotice "github.com/pepedome/site/internal/services/web/platform/flash"
	"github.com/pepedome/site/internal/services/web/platform/httpx"
	"github.com/pepedome/site/internal/services/web/platform/pagerender"
	"github.com/pepedome/site/internal/services/web/platform/weberror"
	"github.com/pepedome/site/internal/services/web/routepath"
	webtemplates "github.com/pepedome/site/internal/services/web/templates"
)

// scheduleLayout is the value format of a datetime-local input.
const scheduleLayout = "2006-01-02T15:04"

// previewRecipient stands in for a subscriber when rendering previews.
var previewRecipient = newsletterdomain.Recipient{
	SubscriberID:     "preview",
	Email:            "preview@pepedome.invalid",
	UnsubscribeToken: "preview",
}

// reorderRequest is the body posted by the drag-and-drop script.
type reorderRequest struct {
	SectionIDs []string `json:"section_ids"`
}

func (h handlers) handleNewsletterList(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	newsletters, err := h.deps.Newsletters.ListNewsletters(r.Context())
	if err != nil {
		weberror.WriteError(w, r, pc, pagerender.ShellAdmin, classify(err))
		return
	}
	h.writeAdminPage(w, r, pc, pc.T("admin.newsletters.title"), http.StatusOK, listView(pc, newsletters, h.zone()))
}

func (h handlers) handleNewsletterNew(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	h.writeAdminPage(w, r, pc, pc.T("admin.newsletters.new"), http.StatusOK, newDraftView(pc, newsletterdomain.DraftInput{}, ""))
}

func (h handlers) handleNewsletterCreate(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	if !h.parseForm(w, r, pc) {
		return
	}
	input := draftInputFromForm(r)
	newsletter, err := h.deps.Newsletters.CreateDraft(r.Context(), input)
	if err != nil {
		err = classify(err)
		if apperrors.KindOf(err) == apperrors.KindInvalidInput {
			h.writeAdminPage(w, r, pc, pc.T("admin.newsletters.new"), http.StatusBadRequest, newDraftView(pc, input, apperrors.LocalizationKey(err)))
			return
		}
		weberror.WriteError(w, r, pc, pagerender.ShellAdmin, err)
		return
	}
	flashnotice.Write(w, r, flashnotice.Success("admin.notice.created"))
	httpx.WriteRedirect(w, r, routepath.AdminNewsletter(newsletter.ID))
}

func (h handlers) handleEditor(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	newsletter, err := h.deps.Newsletters.GetNewsletter(r.Context(), r.PathValue("newsletterID"))
	if err != nil {
		weberror.WriteError(w, r, pc, pagerender.ShellAdmin, classify(err))
		return
	}
	catalog := h.deps.Content.Catalog()
	now := h.clock()
	state := editorState{
		Newsletter: newsletter,
		Events:     catalog.Events(content.Filter{UpcomingAfter: now}),
		Trainings:  catalog.Trainings(content.Filter{UpcomingAfter: now}),
		Missing:    missingContent(catalog, newsletter.Sections),
		Location:   h.zone(),
		ScheduleAt: now.In(h.zone()).Add(time.Hour).Truncate(time.Hour).Format(scheduleLayout),
	}
	h.writeAdminPage(w, r, pc, newsletter.Subject.In(pc.Lang), http.StatusOK, editorView(pc, state))
}

func (h handlers) handleDraftUpdate(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	if !h.parseForm(w, r, pc) {
		return
	}
	newsletterID := r.PathValue("newsletterID")
	_, err := h.deps.Newsletters.UpdateDraft(r.Context(), newsletterID, draftInputFromForm(r))
	h.finishAction(w, r, pc, newsletterID, err, "admin.notice.saved")
}

func (h handlers) handleAddContent(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	if !h.parseForm(w, r, pc) {
		return
	}
	newsletterID := r.PathValue("newsletterID")
	kind := newsletterdomain.SectionKind(strings.TrimSpace(r.PostForm.Get("kind")))
	_, err := h.deps.Newsletters.AddContentSection(r.Context(), newsletterID, kind, r.PostForm.Get("content_id"))
	h.finishAction(w, r, pc, newsletterID, err, "admin.notice.section_added")
}

func (h handlers) handleAddText(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	if !h.parseForm(w, r, pc) {
		return
	}
	newsletterID := r.PathValue("newsletterID")
	_, err := h.deps.Newsletters.AddTextSection(r.Context(), newsletterID, textFromForm(r, "heading"), textFromForm(r, "body"))
	h.finishAction(w, r, pc, newsletterID, err, "admin.notice.section_added")
}

func (h handlers) handleUpdateText(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	if !h.parseForm(w, r, pc) {
		return
	}
	newsletterID := r.PathValue("newsletterID")
	_, err := h.deps.Newsletters.UpdateTextSection(r.Context(), newsletterID, r.PathValue("sectionID"), textFromForm(r, "heading"), textFromForm(r, "body"))
	h.finishAction(w, r, pc, newsletterID, err, "admin.notice.saved")
}

func (h handlers) handleRemoveSection(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	newsletterID := r.PathValue("newsletterID")
	err := h.deps.Newsletters.RemoveSection(r.Context(), newsletterID, r.PathValue("sectionID"))
	h.finishAction(w, r, pc, newsletterID, err, "admin.notice.section_removed")
}

// handleReorder applies a drag-and-drop order. The body must list every
// section id exactly once; the response echoes the stored order.
func (h handlers) handleReorder(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalid := apperrors.Wrap(apperrors.KindInvalidInput, "error.invalid_input", err)
		_ = httpx.WriteJSONError(w, invalid, weberror.PublicMessage(pc.Loc, invalid))
		return
	}
	sections, err := h.deps.Newsletters.ReorderSections(r.Context(), r.PathValue("newsletterID"), req.SectionIDs)
	if err != nil {
		err = classify(err)
		if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
			logActionError(r, err)
		}
		_ = httpx.WriteJSONError(w, err, weberror.PublicMessage(pc.Loc, err))
		return
	}
	ids := make([]string, 0, len(sections))
	for _, section := range sections {
		ids = append(ids, section.ID)
	}
	_ = httpx.WriteJSON(w, http.StatusOK, reorderRequest{SectionIDs: ids})
}

func (h handlers) handleSchedule(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	if !h.parseForm(w, r, pc) {
		return
	}
	newsletterID := r.PathValue("newsletterID")
	at, err := time.ParseInLocation(scheduleLayout, strings.TrimSpace(r.PostForm.Get("scheduled_at")), h.zone())
	if err != nil {
		h.finishAction(w, r, pc, newsletterID, errInvalidTime, "")
		return
	}
	_, err = h.deps.Newsletters.Schedule(r.Context(), newsletterID, at)
	h.finishAction(w, r, pc, newsletterID, err, "admin.notice.scheduled")
}

func (h handlers) handleUnschedule(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	newsletterID := r.PathValue("newsletterID")
	_, err := h.deps.Newsletters.Unschedule(r.Context(), newsletterID)
	h.finishAction(w, r, pc, newsletterID, err, "admin.notice.unscheduled")
}

func (h handlers) handleCancel(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	newsletterID := r.PathValue("newsletterID")
	_, err := h.deps.Newsletters.Cancel(r.Context(), newsletterID)
	h.finishAction(w, r, pc, newsletterID, err, "admin.notice.cancelled")
}

func (h handlers) handleSendNow(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	newsletterID := r.PathValue("newsletterID")
	_, err := h.deps.Newsletters.SendNow(r.Context(), newsletterID)
	h.finishAction(w, r, pc, newsletterID, err, "admin.notice.send_now")
}

func (h handlers) handlePreview(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	newsletterID := r.PathValue("newsletterID")
	newsletter, err := h.deps.Newsletters.GetNewsletter(r.Context(), newsletterID)
	if err != nil {
		weberror.WriteError(w, r, pc, pagerender.ShellAdmin, classify(err))
		return
	}
	lang := pc.Lang
	if requested := strings.TrimSpace(r.URL.Query().Get(routepath.EmailLanguageQueryKey)); requested != "" {
		lang = platformi18n.NormalizeCode(requested)
	}
	recipient := previewRecipient
	recipient.Language = lang
	email, err := h.deps.Previewer.Render(r.Context(), newsletter, recipient)
	if err != nil {
		h.finishAction(w, r, pc, newsletterID, err, "")
		return
	}
	h.writeAdminPage(w, r, pc, pc.T("admin.preview.title"), http.StatusOK, previewView(pc, newsletter, lang, email))
}

func (h handlers) handleReport(w http.ResponseWriter, r *http.Request) {
	pc := h.pageContext(w, r)
	report, err := h.deps.Newsletters.GetReport(r.Context(), r.PathValue("newsletterID"))
	if err != nil {
		weberror.WriteError(w, r, pc, pagerender.ShellAdmin, classify(err))
		return
	}
	h.writeAdminPage(w, r, pc, pc.T("admin.report.title"), http.StatusOK, reportView(pc, report, h.zone()))
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WritePage(w, r, h.pageContext(w, r), pagerender.ShellAdmin, http.StatusNotFound)
}

// finishAction completes an editor form post. Input and state errors return
// to the editor with a notice; anything else renders an error page.
func (h handlers) finishAction(w http.ResponseWriter, r *http.Request, pc webtemplates.PageContext, newsletterID string, err error, successKey string) {
	if err = classify(err); err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindInvalidInput, apperrors.KindConflict:
			flashnotice.Write(w, r, flashnotice.Error(apperrors.LocalizationKey(err)))
			httpx.WriteRedirect(w, r, routepath.AdminNewsletter(newsletterID))
		default:
			weberror.WriteError(w, r, pc, pagerender.ShellAdmin, err)
		}
		return
	}
	flashnotice.Write(w, r, flashnotice.Success(successKey))
	httpx.WriteRedirect(w, r, routepath.AdminNewsletter(newsletterID))
}

func logActionError(r *http.Request, err error) {
	log.Printf("admin action failed method=%s path=%s err=%v", r.Method, r.URL.Path, err)
}

// parseForm reads a bounded form body and reports whether the handler
// should continue.
func (h handlers) parseForm(w http.ResponseWriter, r *http.Request, pc webtemplates.PageContext) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		invalid := apperrors.Wrap(apperrors.KindInvalidInput, "error.invalid_input", err)
		weberror.WriteError(w, r, pc, pagerender.ShellAdmin, invalid)
		return false
	}
	return true
}

func (h handlers) writeAdminPage(w http.ResponseWriter, r *http.Request, pc webtemplates.PageContext, title string, statusCode int, fragment templ.Component) {
	pagerender.WritePage(w, r, pc, pagerender.Page{
		Title:      title,
		StatusCode: statusCode,
		Shell:      pagerender.ShellAdmin,
		Fragment:   fragment,
	})
}

// zone returns the time zone schedule inputs are read and shown in.
func (h handlers) zone() *time.Location {
	if h.location != nil {
		return h.location
	}
	return h.deps.Content.Catalog().Location()
}

func draftInputFromForm(r *http.Request) newsletterdomain.DraftInput {
	return newsletterdomain.DraftInput{
		Subject: textFromForm(r, "subject"),
		Intro:   textFromForm(r, "intro"),
	}
}

// textFromForm collects one localized value per supported language from
// fields named prefix_<code>.
func textFromForm(r *http.Request, prefix string) newsletterdomain.Text {
	text := newsletterdomain.Text{}
	for _, tag := range platformi18n.SupportedTags() {
		code := platformi18n.Code(tag)
		text[code] = r.PostForm.Get(prefix + "_" + code)
	}
	return text.Clean()
}

// missingContent reports content sections whose program item is gone.
func missingContent(catalog *content.Catalog, sections []newsletterdomain.Section) map[string]bool {
	missing := map[string]bool{}
	for _, section := range sections {
		if section.Kind == newsletterdomain.SectionText {
			continue
		}
		if _, err := catalog.Item(section.ContentID); errors.Is(err, content.ErrNotFound) {
			missing[section.ID] = true
		}
	}
	return missing
}
