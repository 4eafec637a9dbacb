// Package newsletter serves the public subscribe, confirm, and unsubscribe
// flow of the venue newsletter.
package newsletter

import (
	"context"
	"errors"
	"net/http"

	newsletterdomain "github.com/pepedome/site/internal/services/newsletter/domain"
	module "github.com/pepedome/site/internal/services/web/module"
	"github.com/pepedome/site/internal/services/web/routepath"
)

// maxFormBytes bounds the subscribe and unsubscribe form bodies.
const maxFormBytes = 16 << 10

// Subscriptions is the subscriber lifecycle used by the public pages.
type Subscriptions interface {
	Subscribe(ctx context.Context, address string, lang string) (newsletterdomain.Subscriber, error)
	Confirm(ctx context.Context, token string) (newsletterdomain.Subscriber, error)
	Unsubscribe(ctx context.Context, token string) (newsletterdomain.Subscriber, error)
}

// Module provides the public newsletter routes.
type Module struct {
	subscriptions Subscriptions
}

// New returns the newsletter module.
func New(subscriptions Subscriptions) Module {
	return Module{subscriptions: subscriptions}
}

// ID returns a stable identifier for diagnostics and startup logs.
func (Module) ID() string {
	return "newsletter"
}

// Mount wires the newsletter routes.
func (m Module) Mount() (module.Mount, error) {
	if m.subscriptions == nil {
		return module.Mount{}, errors.New("newsletter module requires a subscription service")
	}
	h := handlers{subscriptions: m.subscriptions}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+routepath.Newsletter, h.handleForm)
	mux.HandleFunc("POST "+routepath.Newsletter, h.handleSubscribe)
	mux.HandleFunc("GET "+routepath.NewsletterConfirm, h.handleConfirm)
	mux.HandleFunc("GET "+routepath.NewsletterUnsubscribe, h.handleUnsubscribeForm)
	mux.HandleFunc("POST "+routepath.NewsletterUnsubscribe, h.handleUnsubscribe)
	mux.HandleFunc(routepath.NewsletterPrefix, h.handleNotFound)
	return module.Mount{Prefix: routepath.NewsletterPrefix, Handler: mux}, nil
}
