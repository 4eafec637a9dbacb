// Package public serves the home page and the event and training program.
package public

import (
	"errors"
	"net/http"
	"time"

	"github.com/pepedome/site/internal/services/content"
	module "github.com/pepedome/site/internal/services/web/module"
	"github.com/pepedome/site/internal/services/web/routepath"
)

// homeTeaserLimit caps each list on the home page.
const homeTeaserLimit = 3

// Module provides the public program routes.
type Module struct {
	source content.Source
	clock  func() time.Time
}

// New returns the public module reading the program from source.
func New(source content.Source) Module {
	return Module{source: source, clock: time.Now}
}

// ID returns a stable identifier for diagnostics and startup logs.
func (Module) ID() string {
	return "public"
}

// Mount wires public routes under the site root.
func (m Module) Mount() (module.Mount, error) {
	if m.source == nil {
		return module.Mount{}, errors.New("public module requires a content source")
	}
	clock := m.clock
	if clock == nil {
		clock = time.Now
	}
	h := handlers{source: m.source, clock: clock}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+routepath.Root+"{$}", h.handleHome)
	mux.HandleFunc("GET "+routepath.Events, h.handleEvents)
	mux.HandleFunc("GET "+routepath.EventPattern, h.handleEventDetail)
	mux.HandleFunc("GET "+routepath.Trainings, h.handleTrainings)
	mux.HandleFunc("GET "+routepath.TrainingPattern, h.handleTrainingDetail)
	mux.HandleFunc(routepath.Root, h.handleNotFound)
	return module.Mount{Prefix: routepath.Root, Handler: mux}, nil
}
