package view

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/a-h/templ"
)

func TestComponentEscapesTextAndAttributes(t *testing.T) {
	t.Parallel()

	c := Component(func(ctx context.Context, w *Writer) {
		w.Raw("<a")
		w.URLAttr("href", "javascript:alert(1)")
		w.Attr("title", `"quoted"`)
		w.Raw(">")
		w.Text("<b>&</b>")
		w.Raw("</a>")
	})
	got, err := Render(context.Background(), c)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `<a href="about:invalid#TemplFailedSanitizationURL" title="&#34;quoted&#34;">&lt;b&gt;&amp;&lt;/b&gt;</a>`
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestChildrenRenderInsideLayout(t *testing.T) {
	t.Parallel()

	layout := Component(func(ctx context.Context, w *Writer) {
		w.Raw("<main>")
		w.Children(ctx)
		w.Raw("</main>")
	})
	child := Component(func(_ context.Context, w *Writer) { w.Text("hi") })
	got, err := Render(templ.WithChildren(context.Background(), child), layout)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "<main>hi</main>" {
		t.Fatalf("Render() = %q", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriterKeepsFirstError(t *testing.T) {
	t.Parallel()

	var w io.Writer = failingWriter{}
	writer := NewWriter(w)
	writer.Raw("a")
	writer.Text("b")
	if writer.Err() == nil || writer.Err().Error() != "closed" {
		t.Fatalf("Err() = %v", writer.Err())
	}
}
