package modules

import (
	"github.com/pepedome/site/internal/services/web/modules/admin"
	"github.com/pepedome/site/internal/services/web/modules/contact"
	"github.com/pepedome/site/internal/services/web/modules/newsletter"
	"github.com/pepedome/site/internal/services/web/modules/public"
)

// DefaultModules returns the site modules in mount order.
func DefaultModules(deps Dependencies) []Module {
	registered := []Module{
		public.New(deps.Content),
		contact.New(deps.Contact),
		newsletter.New(deps.Subscriptions),
	}
	if deps.Admin != nil {
		registered = append(registered, admin.New(deps.Admin.Config, deps.Admin.Services))
	}
	return registered
}
