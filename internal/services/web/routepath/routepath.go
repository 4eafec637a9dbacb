// Package routepath stores canonical HTTP paths for the site and admin
// modules.
package routepath

import (
	"net/url"
	"strings"

	"github.com/pepedome/site/internal/services/sitepath"
)

const (
	Root         = "/"
	Health       = "/healthz"
	StaticPrefix = "/static/"
)

const (
	Events          = "/events"
	EventsPrefix    = sitepath.EventsPrefix
	EventPattern    = EventsPrefix + "{itemID}"
	Trainings       = "/trainings"
	TrainingsPrefix = sitepath.TrainingsPrefix
	TrainingPattern = TrainingsPrefix + "{itemID}"
)

const (
	Contact               = "/contact"
	ContactPrefix         = "/contact/"
	Newsletter            = "/newsletter"
	NewsletterPrefix      = "/newsletter/"
	NewsletterConfirm     = sitepath.NewsletterConfirm
	NewsletterUnsubscribe = sitepath.NewsletterUnsubscribe
)

const (
	LanguageQueryKey = "lang"
	TokenQueryKey    = sitepath.TokenQueryKey
	CategoryQueryKey = "category"
	MonthQueryKey    = "month"

	// EmailLanguageQueryKey picks the email language of an admin preview
	// without switching the admin interface language.
	EmailLanguageQueryKey = "email_lang"
)

const (
	Admin                            = "/admin"
	AdminPrefix                      = "/admin/"
	AdminLogin                       = "/admin/login"
	AdminLogout                      = "/admin/logout"
	AdminSubscribers                 = "/admin/subscribers"
	AdminNewsletters                 = "/admin/newsletters"
	AdminNewslettersNew              = "/admin/newsletters/new"
	AdminNewslettersPrefix           = "/admin/newsletters/"
	AdminNewsletterPattern           = AdminNewslettersPrefix + "{newsletterID}"
	AdminNewsletterContentPattern    = AdminNewslettersPrefix + "{newsletterID}/sections/content"
	AdminNewsletterTextPattern       = AdminNewslettersPrefix + "{newsletterID}/sections/text"
	AdminNewsletterOrderPattern      = AdminNewslettersPrefix + "{newsletterID}/sections/order"
	AdminNewsletterSectionPattern    = AdminNewslettersPrefix + "{newsletterID}/sections/{sectionID}"
	AdminNewsletterRemovePattern     = AdminNewslettersPrefix + "{newsletterID}/sections/{sectionID}/remove"
	AdminNewsletterSchedulePattern   = AdminNewslettersPrefix + "{newsletterID}/schedule"
	AdminNewsletterUnschedulePattern = AdminNewslettersPrefix + "{newsletterID}/unschedule"
	AdminNewsletterCancelPattern     = AdminNewslettersPrefix + "{newsletterID}/cancel"
	AdminNewsletterSendPattern       = AdminNewslettersPrefix + "{newsletterID}/send"
	AdminNewsletterPreviewPattern    = AdminNewslettersPrefix + "{newsletterID}/preview"
	AdminNewsletterReportPattern     = AdminNewslettersPrefix + "{newsletterID}/report"
)

// Event returns the event detail route.
func Event(itemID string) string {
	return sitepath.Event(itemID)
}

// Training returns the training detail route.
func Training(itemID string) string {
	return sitepath.Training(itemID)
}

// EventsFiltered returns the events list route with optional filters.
func EventsFiltered(category string, month string) string {
	values := url.Values{}
	if category = strings.TrimSpace(category); category != "" {
		values.Set(CategoryQueryKey, category)
	}
	if month = strings.TrimSpace(month); month != "" {
		values.Set(MonthQueryKey, month)
	}
	return withQuery(Events, values)
}

// NewsletterConfirmToken returns the double opt-in confirmation route.
func NewsletterConfirmToken(token string) string {
	return sitepath.NewsletterConfirmToken(token)
}

// NewsletterUnsubscribeToken returns the unsubscribe route for one subscriber.
func NewsletterUnsubscribeToken(token string) string {
	return sitepath.NewsletterUnsubscribeToken(token)
}

// AdminNewsletter returns the newsletter editor route.
func AdminNewsletter(newsletterID string) string {
	return AdminNewslettersPrefix + escapeSegment(newsletterID)
}

// AdminNewsletterContent returns the add-content-section route.
func AdminNewsletterContent(newsletterID string) string {
	return AdminNewsletter(newsletterID) + "/sections/content"
}

// AdminNewsletterText returns the add-text-section route.
func AdminNewsletterText(newsletterID string) string {
	return AdminNewsletter(newsletterID) + "/sections/text"
}

// AdminNewsletterOrder returns the section reorder route.
func AdminNewsletterOrder(newsletterID string) string {
	return AdminNewsletter(newsletterID) + "/sections/order"
}

// AdminNewsletterSection returns the text section update route.
func AdminNewsletterSection(newsletterID string, sectionID string) string {
	return AdminNewsletter(newsletterID) + "/sections/" + escapeSegment(sectionID)
}

// AdminNewsletterRemove returns the section removal route.
func AdminNewsletterRemove(newsletterID string, sectionID string) string {
	return AdminNewsletterSection(newsletterID, sectionID) + "/remove"
}

// AdminNewsletterSchedule returns the schedule route.
func AdminNewsletterSchedule(newsletterID string) string {
	return AdminNewsletter(newsletterID) + "/schedule"
}

// AdminNewsletterUnschedule returns the unschedule route.
func AdminNewsletterUnschedule(newsletterID string) string {
	return AdminNewsletter(newsletterID) + "/unschedule"
}

// AdminNewsletterCancel returns the cancel route.
func AdminNewsletterCancel(newsletterID string) string {
	return AdminNewsletter(newsletterID) + "/cancel"
}

// AdminNewsletterSend returns the send-now route.
func AdminNewsletterSend(newsletterID string) string {
	return AdminNewsletter(newsletterID) + "/send"
}

// AdminNewsletterPreview returns the preview route for an email language.
func AdminNewsletterPreview(newsletterID string, lang string) string {
	values := url.Values{}
	if lang = strings.TrimSpace(lang); lang != "" {
		values.Set(EmailLanguageQueryKey, lang)
	}
	return withQuery(AdminNewsletter(newsletterID)+"/preview", values)
}

// AdminNewsletterReport returns the delivery report route.
func AdminNewsletterReport(newsletterID string) string {
	return AdminNewsletter(newsletterID) + "/report"
}

// AdminSubscribersByStatus returns the subscriber list filtered by status.
func AdminSubscribersByStatus(status string) string {
	values := url.Values{}
	if status = strings.TrimSpace(status); status != "" {
		values.Set("status", status)
	}
	return withQuery(AdminSubscribers, values)
}

func withQuery(path string, values url.Values) string {
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

func escapeSegment(raw string) string {
	return url.PathEscape(strings.TrimSpace(raw))
}
