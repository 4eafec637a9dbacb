package render

import "testing"

func TestPlainText(t *testing.T) {
	t.Parallel()

	markup := `<html><head><style>p{color:red}</style><title>x</title></head><body>
<h1>Pepe   Dome</h1>
<p>Hello <b>friends</b>,<br>see you soon.</p>
<ul><li>One</li><li>Two</li></ul>
<p><a href="https://pepedome.example/events/a">Opening</a> and <a href="https://x.example">https://x.example</a></p>
</body></html>`
	got, err := PlainText(markup)
	if err != nil {
		t.Fatalf("PlainText: %v", err)
	}
	want := "Pepe Dome\n\nHello friends,\nsee you soon.\n\n- One\n\n- Two\n\nOpening (https://pepedome.example/events/a) and https://x.example\n"
	if got != want {
		t.Fatalf("PlainText() =\n%q\nwant\n%q", got, want)
	}
}
