package httpapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

type outcomeResponse struct {
	wizard.Outcome
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) registerAPI(r chi.Router) {
	r.Get("/api/state", h.apiState)
	r.Post("/api/steps/{step}", h.apiSubmit)
	r.Post("/api/back", h.apiBack)
	r.Post("/api/edit/{section}", h.apiEdit)
	r.Post("/api/close", h.apiClose)
	r.Post("/api/confirm", h.apiConfirm)
}

func (h *Handler) apiState(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writePage(w, r, render.JSONRenderer{}, sess, nil, http.StatusOK, nil)
}

func (h *Handler) apiSubmit(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	step, ok := sess.Directory().Parse(chi.URLParam(r, "step"))
	if !ok || !step.IsForm() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown step"})
		return
	}

	var values validation.Values
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&values); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object of strings"})
		return
	}
	if values == nil {
		values = validation.Values{}
	}

	out, err := sess.Submit(r.Context(), step.ID, values)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	resp := outcomeResponse{Outcome: out}
	status := http.StatusOK
	if !out.Accepted {
		status = http.StatusUnprocessableEntity
	} else {
		// The notice is carried in the response instead of the next page.
		sess.TakeNotice()
	}
	if out.PersistErr != nil {
		resp.Warning = render.PersistWarning
	}
	writeJSON(w, status, resp)
}

func (h *Handler) apiBack(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.Back(); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.writePage(w, r, render.JSONRenderer{}, sess, nil, http.StatusOK, nil)
}

func (h *Handler) apiEdit(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	step, ok := h.sectionStep(w, r, sess)
	if !ok {
		return
	}
	if err := sess.Edit(step.Section); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.writePage(w, r, render.JSONRenderer{}, sess, nil, http.StatusOK, nil)
}

func (h *Handler) apiClose(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.CloseEdit(); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.writePage(w, r, render.JSONRenderer{}, sess, nil, http.StatusOK, nil)
}

func (h *Handler) apiConfirm(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	rec, err := sess.Confirm(r.Context())
	if err != nil {
		if errors.Is(err, wizard.ErrInvalidTransition) {
			h.apiError(w, r, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "confirmation failed", "session", id, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: MsgConfirmFailed})
		return
	}
	sess.TakeNotice()
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) apiError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, wizard.ErrStepMismatch), errors.Is(err, wizard.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, wizard.ErrUnknownStep):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		h.logger.ErrorContext(r.Context(), "wizard operation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}
}

// writeError answers with JSON when the client asked for it and plain text
// otherwise.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") || strings.HasPrefix(r.URL.Path, h.opts.BasePath+"/api/") {
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}
	http.Error(w, msg, status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
