// Package contact serves the public contact form.
package contact

import (
	"context"
	"errors"
	"net/http"

	contactdomain "github.com/pepedome/site/internal/services/contact/domain"
	module "github.com/pepedome/site/internal/services/web/module"
	"github.com/pepedome/site/internal/services/web/routepath"
)

// maxFormBytes bounds the contact form body.
const maxFormBytes = 64 << 10

// Submitter accepts contact submissions.
type Submitter interface {
	Submit(ctx context.Context, input contactdomain.Input) (contactdomain.Submission, error)
}

// Module provides the contact routes.
type Module struct {
	submitter Submitter
}

// New returns the contact module.
func New(submitter Submitter) Module {
	return Module{submitter: submitter}
}

// ID returns a stable identifier for diagnostics and startup logs.
func (Module) ID() string {
	return "contact"
}

// Mount wires the contact form routes.
func (m Module) Mount() (module.Mount, error) {
	if m.submitter == nil {
		return module.Mount{}, errors.New("contact module requires a submitter")
	}
	h := handlers{submitter: m.submitter}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+routepath.Contact, h.handleForm)
	mux.HandleFunc("POST "+routepath.Contact, h.handleSubmit)
	mux.HandleFunc(routepath.ContactPrefix, h.handleNotFound)
	return module.Mount{Prefix: routepath.ContactPrefix, Handler: mux}, nil
}
