package newsletter

import (
	"context"

	"github.com/a-h/templ"
	platformi18n "github.com/pepedome/site/internal/platform/i18n"
	"github.com/pepedome/site/internal/platform/view"
	"github.com/pepedome/site/internal/services/web/routepath"
	webtemplates "github.com/pepedome/site/internal/services/web/templates"
)

// subscribeState is the subscribe form as last submitted.
type subscribeState struct {
	Email      string
	Language   string
	EmailError string
}

func subscribeView(pc webtemplates.PageContext, state subscribeState) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<h1>`)
		w.Text(pc.T("newsletter.title"))
		w.Raw(`</h1><p class="lead">`)
		w.Text(pc.T("newsletter.lead"))
		w.Raw(`</p><form method="post" class="newsletter-form" novalidate`)
		w.URLAttr("action", routepath.Newsletter)
		w.Raw(`>`)
		emailError := ""
		if state.EmailError != "" {
			emailError = pc.T(state.EmailError)
		}
		webtemplates.WriteField(w, webtemplates.Field{
			Name: "email", Label: pc.T("newsletter.field.email"), Value: state.Email, Type: "email",
			Required: true, Autocomplete: "email", Error: emailError,
		})
		var languages []webtemplates.Option
		for _, tag := range platformi18n.SupportedTags() {
			code := platformi18n.Code(tag)
			languages = append(languages, webtemplates.Option{
				Value:    code,
				Label:    pc.T(platformi18n.LabelKey(tag)),
				Selected: code == state.Language,
			})
		}
		webtemplates.WriteSelect(w, "language", pc.T("newsletter.field.language"), languages)
		webtemplates.WriteSubmit(w, pc.T("newsletter.submit"))
		w.Raw(`</form>`)
	})
}

func unsubscribeView(pc webtemplates.PageContext, token string) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<h1>`)
		w.Text(pc.T("newsletter.unsubscribe.title"))
		w.Raw(`</h1><p>`)
		w.Text(pc.T("newsletter.unsubscribe.body"))
		w.Raw(`</p><form method="post"`)
		w.URLAttr("action", routepath.NewsletterUnsubscribe)
		w.Raw(`><input type="hidden"`)
		w.Attr("name", routepath.TokenQueryKey)
		w.Attr("value", token)
		w.Raw(`>`)
		webtemplates.WriteSubmit(w, pc.T("newsletter.unsubscribe.submit"))
		w.Raw(`</form>`)
	})
}

func messageView(pc webtemplates.PageContext, titleKey string, bodyKey string) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<section class="notice-page"><h1>`)
		w.Text(pc.T(titleKey))
		w.Raw(`</h1><p>`)
		w.Text(pc.T(bodyKey))
		w.Raw(`</p><p class="back"><a`)
		w.URLAttr("href", routepath.Root)
		w.Raw(`>`)
		w.Text(pc.T("error.back_home"))
		w.Raw(`</a></p></section>`)
	})
}
