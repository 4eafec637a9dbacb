// Package render turns newsletters and opt-in requests into localized email
// messages.
package render

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/message"

	"github.com/pepedome/site/internal/platform/i18n"
	_ "github.com/pepedome/site/internal/platform/i18n/catalog"
	"github.com/pepedome/site/internal/platform/view"
	"github.com/pepedome/site/internal/services/content"
	"github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/sitepath"
)

// ErrEmptySubject is returned when a newsletter has no subject in any language.
var ErrEmptySubject = errors.New("newsletter subject is empty")

// Email is one rendered message ready for a sender.
type Email struct {
	Subject string
	HTML    string
	Text    string
	Headers map[string]string
}

// Renderer renders emails with absolute links under a public base URL.
type Renderer struct {
	baseURL string
	content content.Source
}

// NewRenderer builds a renderer. baseURL must be absolute; source may be nil,
// in which case content sections render their stored heading only.
func NewRenderer(baseURL string, source content.Source) (*Renderer, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("public base url %q must be absolute", baseURL)
	}
	return &Renderer{baseURL: baseURL, content: source}, nil
}

// Render builds the newsletter email for one recipient in the recipient's
// language.
func (r *Renderer) Render(ctx context.Context, newsletter domain.Newsletter, recipient domain.Recipient) (Email, error) {
	lang := i18n.NormalizeCode(recipient.Language)
	subject := newsletter.Subject.In(lang)
	if subject == "" {
		return Email{}, ErrEmptySubject
	}
	p := printer(lang)
	unsubscribeURL := r.absolute(sitepath.NewsletterUnsubscribeToken(recipient.UnsubscribeToken))

	blocks := make([]templ.Component, 0, len(newsletter.Sections))
	for _, section := range newsletter.Sections {
		blocks = append(blocks, r.section(p, lang, section))
	}
	body := layout(p, lang, subject, view.Component(func(ctx context.Context, w *view.Writer) {
		if intro := newsletter.Intro.In(lang); intro != "" {
			paragraphs(w, intro)
		}
		for _, block := range blocks {
			w.Component(ctx, block)
		}
	}), footerNotice(p, unsubscribeURL))

	email, err := finish(ctx, subject, body)
	if err != nil {
		return Email{}, err
	}
	email.Headers = map[string]string{
		"List-Unsubscribe":      "<" + unsubscribeURL + ">",
		"List-Unsubscribe-Post": "List-Unsubscribe=One-Click",
	}
	return email, nil
}

// RenderConfirmation builds the double opt-in email for subscriber.
func (r *Renderer) RenderConfirmation(ctx context.Context, subscriber domain.Subscriber) (Email, error) {
	lang := i18n.NormalizeCode(subscriber.Language)
	p := printer(lang)
	subject := p.Sprintf("email.confirm.subject")
	confirmURL := r.absolute(sitepath.NewsletterConfirmToken(subscriber.ConfirmToken))

	body := layout(p, lang, subject, view.Component(func(ctx context.Context, w *view.Writer) {
		paragraphs(w, p.Sprintf("email.confirm.greeting")+"\n"+p.Sprintf("email.confirm.body"))
		button(w, confirmURL, p.Sprintf("email.confirm.button"))
		w.Raw(`<p style="color:#6b6b6b;font-size:13px">`)
		w.Text(p.Sprintf("email.confirm.ignore"))
		w.Raw(`</p>`)
	}), nil)
	return finish(ctx, subject, body)
}

func (r *Renderer) section(p *message.Printer, lang string, section domain.Section) templ.Component {
	if section.Kind == domain.SectionText {
		return view.Component(func(_ context.Context, w *view.Writer) {
			w.Raw(`<tr><td style="padding:16px 0">`)
			if heading := section.Heading.In(lang); heading != "" {
				w.Raw(`<h2 style="margin:0 0 8px;font-size:20px">`)
				w.Text(heading)
				w.Raw(`</h2>`)
			}
			paragraphs(w, section.Body.In(lang))
			w.Raw(`</td></tr>`)
		})
	}

	item, found := r.lookup(section.ContentID)
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<tr><td style="padding:16px 0;border-top:1px solid #e4e4e4">`)
		if !found {
			w.Raw(`<h2 style="margin:0;font-size:20px">`)
			w.Text(section.Heading.In(lang))
			w.Raw(`</h2></td></tr>`)
			return
		}
		detailURL := r.absolute(detailPath(item))
		if imageURL := r.imageURL(item.ImageURL); imageURL != "" {
			w.Raw(`<img width="560" style="display:block;max-width:100%;height:auto;margin:0 0 12px"`)
			w.URLAttr("src", imageURL)
			w.Attr("alt", item.Title.In(lang))
			w.Raw(`>`)
		}
		w.Raw(`<p style="margin:0;color:#b5482d;font-size:13px;text-transform:uppercase">`)
		w.Text(i18n.FormatDateTime(lang, item.StartsAt))
		w.Raw(`</p><h2 style="margin:4px 0 8px;font-size:20px">`)
		w.Text(item.Title.In(lang))
		w.Raw(`</h2>`)
		if summary := item.Summary.In(lang); summary != "" {
			paragraphs(w, summary)
		}
		if item.Price != "" {
			w.Raw(`<p style="margin:0 0 8px">`)
			w.Text(p.Sprintf("email.newsletter.price", item.Price))
			w.Raw(`</p>`)
		}
		w.Raw(`<p style="margin:0"><a style="color:#b5482d"`)
		w.URLAttr("href", detailURL)
		w.Raw(`>`)
		w.Text(p.Sprintf("email.newsletter.details"))
		w.Raw(`</a>`)
		if item.TicketURL != "" {
			w.Raw(` &middot; <a style="color:#b5482d"`)
			w.URLAttr("href", item.TicketURL)
			w.Raw(`>`)
			w.Text(p.Sprintf("email.newsletter.tickets"))
			w.Raw(`</a>`)
		}
		w.Raw(`</p></td></tr>`)
	})
}

func (r *Renderer) lookup(contentID string) (content.Item, bool) {
	if r.content == nil {
		return content.Item{}, false
	}
	item, err := r.content.Catalog().Item(contentID)
	if err != nil {
		return content.Item{}, false
	}
	return item, true
}

func (r *Renderer) absolute(path string) string {
	return r.baseURL + path
}

// imageURL makes site-relative image paths absolute for mail clients.
func (r *Renderer) imageURL(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "//") {
		return r.absolute(value)
	}
	return value
}

func detailPath(item content.Item) string {
	if item.Kind == content.KindTraining {
		return sitepath.Training(item.ID)
	}
	return sitepath.Event(item.ID)
}

func printer(lang string) *message.Printer {
	tag, ok := i18n.ParseTag(lang)
	if !ok {
		tag = i18n.DefaultTag()
	}
	return message.NewPrinter(tag)
}

func finish(ctx context.Context, subject string, body templ.Component) (Email, error) {
	markup, err := view.Render(ctx, body)
	if err != nil {
		return Email{}, fmt.Errorf("render html: %w", err)
	}
	text, err := PlainText(markup)
	if err != nil {
		return Email{}, err
	}
	return Email{Subject: subject, HTML: markup, Text: text}, nil
}
