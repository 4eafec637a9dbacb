package templates

import (
	"strconv"

	"github.com/pepedome/site/internal/platform/view"
)

// Field describes one labelled form input.
type Field struct {
	// ID overrides the element id derived from Name when one page repeats a
	// field name.
	ID           string
	Name         string
	Label        string
	Value        string
	Type         string
	Error        string
	Required     bool
	Multiline    bool
	MaxLength    int
	Autocomplete string
	// Hidden visually hides the field; used for the honeypot.
	Hidden bool
}

// Option is one choice of a select field.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// WriteField renders a labelled input or textarea with its error message.
func WriteField(w *view.Writer, field Field) {
	id := field.ID
	if id == "" {
		id = "field-" + field.Name
	}
	w.Raw(`<div`)
	if field.Hidden {
		w.Raw(` class="field field-hidden" aria-hidden="true"`)
	} else if field.Error != "" {
		w.Raw(` class="field field-invalid"`)
	} else {
		w.Raw(` class="field"`)
	}
	w.Raw(`><label`)
	w.Attr("for", id)
	w.Raw(`>`)
	w.Text(field.Label)
	w.Raw(`</label>`)
	if field.Multiline {
		w.Raw(`<textarea rows="6"`)
		fieldAttrs(w, id, field)
		w.Raw(`>`)
		w.Text(field.Value)
		w.Raw(`</textarea>`)
	} else {
		inputType := field.Type
		if inputType == "" {
			inputType = "text"
		}
		w.Raw(`<input`)
		w.Attr("type", inputType)
		fieldAttrs(w, id, field)
		w.Attr("value", field.Value)
		w.Raw(`>`)
	}
	if field.Error != "" {
		w.Raw(`<p class="field-error"`)
		w.Attr("id", id+"-error")
		w.Raw(`>`)
		w.Text(field.Error)
		w.Raw(`</p>`)
	}
	w.Raw(`</div>`)
}

func fieldAttrs(w *view.Writer, id string, field Field) {
	w.Attr("id", id)
	w.Attr("name", field.Name)
	if field.Required {
		w.Raw(` required`)
	}
	if field.MaxLength > 0 {
		w.Attr("maxlength", strconv.Itoa(field.MaxLength))
	}
	if field.Hidden {
		w.Raw(` tabindex="-1"`)
		w.Attr("autocomplete", "off")
	} else if field.Autocomplete != "" {
		w.Attr("autocomplete", field.Autocomplete)
	}
	if field.Error != "" {
		w.Raw(` aria-invalid="true"`)
		w.Attr("aria-describedby", id+"-error")
	}
}

// WriteSelect renders a labelled select.
func WriteSelect(w *view.Writer, name string, label string, options []Option) {
	id := "field-" + name
	w.Raw(`<div class="field"><label`)
	w.Attr("for", id)
	w.Raw(`>`)
	w.Text(label)
	w.Raw(`</label><select`)
	w.Attr("id", id)
	w.Attr("name", name)
	w.Raw(`>`)
	for _, option := range options {
		w.Raw(`<option`)
		w.Attr("value", option.Value)
		if option.Selected {
			w.Raw(` selected`)
		}
		w.Raw(`>`)
		w.Text(option.Label)
		w.Raw(`</option>`)
	}
	w.Raw(`</select></div>`)
}

// WriteFormError renders a form-level error message.
func WriteFormError(w *view.Writer, message string) {
	if message == "" {
		return
	}
	w.Raw(`<p class="form-error" role="alert">`)
	w.Text(message)
	w.Raw(`</p>`)
}

// WriteSubmit renders a submit button.
func WriteSubmit(w *view.Writer, label string) {
	w.Raw(`<button type="submit">`)
	w.Text(label)
	w.Raw(`</button>`)
}
