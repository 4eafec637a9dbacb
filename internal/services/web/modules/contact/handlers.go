package contact

import (
	"context"
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/pepedome/site/internal/platform/view"
	contactdomain "github.com/pepedome/site/internal/services/contact/domain"
	flashnotice "github.com/pepedome/site/internal/services/web/platform/flash"
	"github.com/pepedome/site/internal/services/web/platform/httpx"
	"github.com/pepedome/site/internal/services/web/platform/pagerender"
	"github.com/pepedome/site/internal/services/web/platform/weberror"
	"github.com/pepedome/site/internal/services/web/routepath"
	webtemplates "github.com/pepedome/site/internal/services/web/templates"
)

type handlers struct {
	submitter Submitter
}

// formState is the contact form as last submitted, with per-field catalog
// keys for validation errors.
type formState struct {
	Input  contactdomain.Input
	Errors map[string]string
}

func (h handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	pc := pagerender.Context(w, r)
	state := formState{Input: contactdomain.Input{Topic: r.URL.Query().Get("topic")}}
	h.writeForm(w, r, pc, state, http.StatusOK)
}

func (h handlers) handleSubmit(w http.ResponseWriter, r *http.Request) {
	pc := pagerender.Context(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.writeForm(w, r, pc, formState{}, http.StatusBadRequest)
		return
	}
	input := contactdomain.Input{
		Name:     r.PostForm.Get("name"),
		Email:    r.PostForm.Get("email"),
		Topic:    r.PostForm.Get("topic"),
		Message:  r.PostForm.Get("message"),
		Language: pc.Lang,
		Website:  r.PostForm.Get("website"),
	}
	_, err := h.submitter.Submit(r.Context(), input)
	var validation *contactdomain.ValidationError
	switch {
	case errors.As(err, &validation):
		h.writeForm(w, r, pc, formState{Input: input, Errors: validation.Fields}, http.StatusBadRequest)
		return
	case err != nil:
		weberror.WriteError(w, r, pc, pagerender.ShellSite, err)
		return
	}
	flashnotice.Write(w, r, flashnotice.Success("contact.success"))
	httpx.WriteRedirect(w, r, routepath.Contact)
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WritePage(w, r, pagerender.Context(w, r), pagerender.ShellSite, http.StatusNotFound)
}

func (h handlers) writeForm(w http.ResponseWriter, r *http.Request, pc webtemplates.PageContext, state formState, statusCode int) {
	pagerender.WritePage(w, r, pc, pagerender.Page{
		Title:      pc.T("contact.title"),
		StatusCode: statusCode,
		Fragment:   formView(pc, state),
	})
}

func formView(pc webtemplates.PageContext, state formState) templ.Component {
	fieldError := func(name string) string {
		if key, ok := state.Errors[name]; ok {
			return pc.T(key)
		}
		return ""
	}
	return view.Component(func(_ context.Context, w *view.Writer) {
		w.Raw(`<h1>`)
		w.Text(pc.T("contact.title"))
		w.Raw(`</h1><p class="lead">`)
		w.Text(pc.T("contact.lead"))
		w.Raw(`</p>`)
		if len(state.Errors) > 0 {
			webtemplates.WriteFormError(w, pc.T("error.invalid_input"))
		}
		w.Raw(`<form method="post" class="contact-form" novalidate`)
		w.URLAttr("action", routepath.Contact)
		w.Raw(`>`)
		webtemplates.WriteField(w, webtemplates.Field{
			Name: "name", Label: pc.T("contact.field.name"), Value: state.Input.Name,
			Required: true, Autocomplete: "name", Error: fieldError("name"),
		})
		webtemplates.WriteField(w, webtemplates.Field{
			Name: "email", Label: pc.T("contact.field.email"), Value: state.Input.Email, Type: "email",
			Required: true, Autocomplete: "email", Error: fieldError("email"),
		})
		topics := make([]webtemplates.Option, 0, len(contactdomain.Topics()))
		for _, topic := range contactdomain.Topics() {
			topics = append(topics, webtemplates.Option{
				Value:    string(topic),
				Label:    pc.T("contact.topic." + string(topic)),
				Selected: string(topic) == state.Input.Topic,
			})
		}
		webtemplates.WriteSelect(w, "topic", pc.T("contact.field.topic"), topics)
		webtemplates.WriteField(w, webtemplates.Field{
			Name: "message", Label: pc.T("contact.field.message"), Value: state.Input.Message, Multiline: true,
			Required: true, MaxLength: contactdomain.MaxMessageLength, Error: fieldError("message"),
		})
		webtemplates.WriteField(w, webtemplates.Field{
			Name: "website", Label: pc.T("contact.field.website"), Hidden: true,
		})
		webtemplates.WriteSubmit(w, pc.T("contact.submit"))
		w.Raw(`</form>`)
	})
}
