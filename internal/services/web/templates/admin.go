package templates

import (
	"context"

	"github.com/a-h/templ"
	"github.com/pepedome/site/internal/platform/view"
	"github.com/pepedome/site/internal/services/web/routepath"
)

// AdminLayout wraps children in the admin shell. The navigation and logout
// form appear only for a signed-in operator.
func AdminLayout(page PageContext, title string) templ.Component {
	return view.Component(func(ctx context.Context, w *view.Writer) {
		documentHead(w, page, title, "/static/admin.js")
		w.Raw(`<body class="admin"><header class="admin-header"><a class="brand"`)
		w.URLAttr("href", routepath.AdminNewsletters)
		w.Raw(`>`)
		w.Text(page.T("admin.title"))
		w.Raw(`</a>`)
		if page.AdminUser != "" {
			w.Raw(`<nav class="admin-nav">`)
			navLink(w, page.CurrentPath, routepath.AdminNewsletters, page.T("admin.nav.newsletters"))
			navLink(w, page.CurrentPath, routepath.AdminSubscribers, page.T("admin.nav.subscribers"))
			w.Raw(`</nav><form method="post" class="logout"`)
			w.URLAttr("action", routepath.AdminLogout)
			w.Raw(`><span class="operator">`)
			w.Text(page.AdminUser)
			w.Raw(`</span><button type="submit">`)
			w.Text(page.T("admin.logout"))
			w.Raw(`</button></form>`)
		}
		languageSwitch(w, page)
		w.Raw(`</header>`)
		toast(w, page.Toast)
		w.Raw(`<main id="main" class="admin-main">`)
		w.Children(ctx)
		w.Raw(`</main></body></html>`)
	})
}
