// Package sitepath holds the public site paths that pages serve and emails
// link to.
package sitepath

import (
	"net/url"
	"strings"
)

const (
	EventsPrefix          = "/events/"
	TrainingsPrefix       = "/trainings/"
	NewsletterConfirm     = "/newsletter/confirm"
	NewsletterUnsubscribe = "/newsletter/unsubscribe"
	TokenQueryKey         = "token"
)

// Event returns the event detail path.
func Event(itemID string) string {
	return EventsPrefix + escapeSegment(itemID)
}

// Training returns the training detail path.
func Training(itemID string) string {
	return TrainingsPrefix + escapeSegment(itemID)
}

// NewsletterConfirmToken returns the double opt-in confirmation path.
func NewsletterConfirmToken(token string) string {
	return withToken(NewsletterConfirm, token)
}

// NewsletterUnsubscribeToken returns the unsubscribe path for one subscriber.
func NewsletterUnsubscribeToken(token string) string {
	return withToken(NewsletterUnsubscribe, token)
}

func withToken(path string, token string) string {
	return path + "?" + url.Values{TokenQueryKey: {strings.TrimSpace(token)}}.Encode()
}

func escapeSegment(raw string) string {
	return url.PathEscape(strings.TrimSpace(raw))
}
