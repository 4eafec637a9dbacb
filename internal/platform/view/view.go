// Package view holds small helpers for building templ components in Go.
package view

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Writer accumulates HTML output and remembers the first write error so
// component bodies can write without checking every call.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup.
func (w *Writer) Raw(markup string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, markup)
}

// Text writes escaped text.
func (w *Writer) Text(text string) {
	w.Raw(templ.EscapeString(text))
}

// Attr writes ` name="value"` with value escaped.
func (w *Writer) Attr(name string, value string) {
	w.Raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// URLAttr writes an attribute holding a sanitized URL.
func (w *Writer) URLAttr(name string, value string) {
	w.Attr(name, string(templ.URL(value)))
}

// Component renders c in place.
func (w *Writer) Component(ctx context.Context, c templ.Component) {
	if w.err != nil || c == nil {
		return
	}
	w.err = c.Render(ctx, w.w)
}

// Children renders the children passed through templ.WithChildren.
func (w *Writer) Children(ctx context.Context) {
	w.Component(ctx, templ.GetChildren(ctx))
}

// Err returns the first write error.
func (w *Writer) Err() error {
	return w.err
}

// Component builds a templ component from a body that writes through Writer.
func Component(body func(ctx context.Context, w *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		writer := NewWriter(out)
		body(ctx, writer)
		return writer.Err()
	})
}

// Render renders c into a string.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
