package httpapp

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formwizard/internal/session"
	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Form actions posted alongside the step fields.
const (
	actionBack    = "back"
	actionRefresh = "refresh"
)

// MsgConfirmFailed is shown when the confirmed record could not be handed
// off.
const MsgConfirmFailed = "Your information could not be submitted. Please try again."

func (h *Handler) registerPages(r chi.Router) {
	dir := steps.Default()
	for _, step := range dir.Steps() {
		r.Get(step.Route, h.showStep(step.ID))
		if step.IsForm() {
			r.Post(step.Route, h.submitStep(step.ID))
		}
	}
	r.Post("/summary/edit/{section}", h.openEdit)
	r.Post("/summary/close", h.closeEdit)
	r.Post("/summary/sections/{section}", h.saveSection)
	r.Post("/summary/confirm", h.confirm)
}

func (h *Handler) showStep(id steps.ID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, sess, ok := h.session(w, r)
		if !ok {
			return
		}
		if sess.State() != id {
			h.redirectToState(w, r, sess)
			return
		}
		h.renderPage(w, r, sess, nil, http.StatusOK, nil)
	}
}

func (h *Handler) submitStep(id steps.ID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, sess, ok := h.session(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			h.writeError(w, r, http.StatusBadRequest, "malformed form")
			return
		}

		if r.PostForm.Get("action") == actionBack {
			if _, err := sess.Back(); err != nil {
				h.transitionError(w, r, sess, err)
				return
			}
			h.redirectToState(w, r, sess)
			return
		}

		step := sess.Directory().MustGet(id)
		h.handleSubmission(w, r, sess, step)
	}
}

func (h *Handler) saveSection(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	step, ok := h.sectionStep(w, r, sess)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "malformed form")
		return
	}
	h.handleSubmission(w, r, sess, step)
}

// handleSubmission validates one step's form. Rejections render in place with
// 422, a location refresh renders in place with the new country's cities and
// an accepted step redirects to the next state.
func (h *Handler) handleSubmission(w http.ResponseWriter, r *http.Request, sess *wizard.Session, step steps.Step) {
	ctx := r.Context()
	values := formValues(r, step)

	if step.ID == steps.Location && r.PostForm.Get("action") == actionRefresh {
		view, err := sess.SelectCountry(ctx, values[model.FieldCountry])
		if err != nil {
			h.transitionError(w, r, sess, err)
			return
		}
		values[model.FieldCountry] = view.Country
		values[model.FieldCity] = view.City
		h.renderPage(w, r, sess, &wizard.Outcome{Step: step.ID, Values: values}, http.StatusOK, nil)
		return
	}

	out, err := sess.Submit(ctx, step.ID, values)
	if err != nil {
		h.transitionError(w, r, sess, err)
		return
	}
	switch {
	case !out.Accepted:
		h.renderPage(w, r, sess, &out, http.StatusUnprocessableEntity, nil)
	case out.PersistErr != nil:
		// The warning would be lost across a redirect.
		h.renderPage(w, r, sess, &out, http.StatusOK, nil)
	default:
		h.redirectToState(w, r, sess)
	}
}

func (h *Handler) openEdit(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	step, ok := h.sectionStep(w, r, sess)
	if !ok {
		return
	}
	if err := sess.Edit(step.Section); err != nil {
		h.transitionError(w, r, sess, err)
		return
	}
	h.redirectToState(w, r, sess)
}

func (h *Handler) closeEdit(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.CloseEdit(); err != nil {
		h.transitionError(w, r, sess, err)
		return
	}
	h.redirectToState(w, r, sess)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.Confirm(r.Context()); err != nil {
		if errors.Is(err, wizard.ErrInvalidTransition) {
			h.transitionError(w, r, sess, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "confirmation failed", "session", id, "error", err)
		h.renderPage(w, r, sess, nil, http.StatusBadGateway, func(p *render.Page) {
			p.Warning = MsgConfirmFailed
		})
		return
	}
	h.redirectToState(w, r, sess)
}

func (h *Handler) sectionStep(w http.ResponseWriter, r *http.Request, sess *wizard.Session) (steps.Step, bool) {
	section, ok := model.ParseSection(chi.URLParam(r, "section"))
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "unknown section")
		return steps.Step{}, false
	}
	step, ok := sess.Directory().ForSection(section)
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "unknown section")
		return steps.Step{}, false
	}
	return step, true
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *wizard.Session, bool) {
	id, sess, err := session.FromContext(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "request without session", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return "", nil, false
	}
	return id, sess, true
}

// transitionError answers operations the current state does not allow. Stale
// page forms are sent back to the current state; everything else is a 409.
func (h *Handler) transitionError(w http.ResponseWriter, r *http.Request, sess *wizard.Session, err error) {
	switch {
	case errors.Is(err, wizard.ErrStepMismatch):
		h.redirectToState(w, r, sess)
	case errors.Is(err, wizard.ErrInvalidTransition):
		h.writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, wizard.ErrUnknownStep):
		h.writeError(w, r, http.StatusNotFound, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "wizard operation failed", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func (h *Handler) redirectToState(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	route := sess.Directory().MustGet(sess.State()).Route
	http.Redirect(w, r, h.opts.BasePath+route, http.StatusSeeOther)
}

// renderPage builds the page for the session state and writes it with the
// negotiated renderer.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, sess *wizard.Session, outcome *wizard.Outcome, status int, adjust func(*render.Page)) {
	renderer, err := h.renderers.Negotiate(r.Header.Get("Accept"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "no renderer", "error", err)
		http.Error(w, http.StatusText(http.StatusNotAcceptable), http.StatusNotAcceptable)
		return
	}
	h.writePage(w, r, renderer, sess, outcome, status, adjust)
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, renderer render.Renderer, sess *wizard.Session, outcome *wizard.Outcome, status int, adjust func(*render.Page)) {
	ctx := r.Context()
	page, err := render.Build(ctx, sess, outcome)
	if err != nil {
		h.logger.ErrorContext(ctx, "page build failed", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	if adjust != nil {
		adjust(&page)
	}
	body, err := renderer.Render(ctx, page, h.opts)
	if err != nil {
		h.logger.ErrorContext(ctx, "page render failed", "renderer", renderer.Name(), "step", page.Step, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func formValues(r *http.Request, step steps.Step) validation.Values {
	values := validation.Values{}
	for _, field := range step.Fields {
		values[field.Name] = r.PostForm.Get(field.Name)
	}
	return values
}
