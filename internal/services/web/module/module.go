// Package module defines the feature contract used by web composition.
package module

import "net/http"

// Mount describes a module route mount. Handler serves every request whose
// path falls under Prefix.
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// Module declares the minimum contract required by web composition.
type Module interface {
	ID() string
	Mount() (Mount, error)
}
