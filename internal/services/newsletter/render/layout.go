package render

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/message"

	"github.com/pepedome/site/internal/platform/view"
)

// layout wraps content rows in the table-based shell mail clients expect.
func layout(p *message.Printer, lang string, title string, rows templ.Component, footer templ.Component) templ.Component {
	return view.Component(func(ctx context.Context, w *view.Writer) {
		w.Raw(`<!DOCTYPE html><html`)
		w.Attr("lang", lang)
		w.Raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1"><title>`)
		w.Text(title)
		w.Raw(`</title></head>`)
		w.Raw(`<body style="margin:0;padding:0;background:#f4f1ec;font-family:Helvetica,Arial,sans-serif;color:#1d1d1b">`)
		w.Raw(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr><td align="center" style="padding:24px 12px">`)
		w.Raw(`<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="max-width:600px;background:#ffffff;padding:24px 20px">`)
		w.Raw(`<tr><td style="padding-bottom:16px"><h1 style="margin:0;font-size:26px;letter-spacing:1px">`)
		w.Text(p.Sprintf("core.site_name"))
		w.Raw(`</h1></td></tr><tr><td>`)
		w.Component(ctx, rows)
		w.Raw(`</td></tr>`)
		w.Raw(`<tr><td style="padding-top:24px;border-top:1px solid #e4e4e4;color:#6b6b6b;font-size:12px">`)
		w.Component(ctx, footer)
		w.Raw(`<p style="margin:8px 0 0">`)
		w.Text(p.Sprintf("core.footer.address"))
		w.Raw(`</p></td></tr></table></td></tr></table></body></html>`)
	})
}

func footerNotice(p *message.Printer, unsubscribeURL string) templ.Component {
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<p style="margin:0">`)
		w.Text(p.Sprintf("email.newsletter.reason"))
		w.Raw(` <a style="color:#6b6b6b"`)
		w.URLAttr("href", unsubscribeURL)
		w.Raw(`>`)
		w.Text(p.Sprintf("email.newsletter.unsubscribe"))
		w.Raw(`</a></p>`)
	})
}

func button(w *view.Writer, href string, label string) {
	w.Raw(`<p style="margin:24px 0"><a style="display:inline-block;padding:12px 20px;background:#b5482d;color:#ffffff;text-decoration:none;border-radius:4px"`)
	w.URLAttr("href", href)
	w.Raw(`>`)
	w.Text(label)
	w.Raw(`</a></p>`)
}

// paragraphs writes text split on blank lines; single newlines become <br>.
func paragraphs(w *view.Writer, text string) {
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		w.Raw(`<p style="margin:0 0 12px;line-height:1.5">`)
		for idx, line := range strings.Split(block, "\n") {
			if idx > 0 {
				w.Raw(`<br>`)
			}
			w.Text(strings.TrimSpace(line))
		}
		w.Raw(`</p>`)
	}
}
