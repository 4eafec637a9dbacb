// Package modules defines the web module registry.
package modules

import (
	"github.com/pepedome/site/internal/services/content"
	module "github.com/pepedome/site/internal/services/web/module"
	"github.com/pepedome/site/internal/services/web/modules/admin"
	"github.com/pepedome/site/internal/services/web/modules/contact"
	"github.com/pepedome/site/internal/services/web/modules/newsletter"
)

// Mount aliases the module mount contract.
type Mount = module.Mount

// Module aliases the module interface contract.
type Module = module.Module

// Dependencies carries the services required to compose the web module
// registry. Each field is typed as the narrow interface defined by the
// consuming module.
type Dependencies struct {
	Content       content.Source
	Contact       contact.Submitter
	Subscriptions newsletter.Subscriptions

	// Admin enables the authoring area. Nil leaves /admin unmounted.
	Admin *AdminDependencies
}

// AdminDependencies carries the admin module's credentials and services.
type AdminDependencies struct {
	Config   admin.Config
	Services admin.Dependencies
}
