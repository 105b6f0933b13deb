package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jotbox/internal/apperr"
	"github.com/starford/jotbox/internal/catalog"
)

const maxNoteBytes = 10 << 20

// Handler holds the catalogue route handlers.
type Handler struct {
	engine *catalog.Engine
}

// NewHandler creates a new Handler.
func NewHandler(engine *catalog.Engine) *Handler {
	return &Handler{engine: engine}
}

// urlName returns the decoded {name} path parameter. chi matches against
// RawPath when the request has one, leaving the parameter escaped; otherwise
// it is already decoded and must not be unescaped again.
func urlName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name
	}
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return name
	}
	return decoded
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNoteBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("body too large"))
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		}
		return nil, false
	}
	return body, true
}

// fail maps an engine error to a response. Conflicts name the file; anything
// unexpected is logged and answered with a bare 500.
func fail(w http.ResponseWriter, op, name, conflictMsg string, err error) {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		writeText(w, http.StatusConflict, fmt.Sprintf("%q %s", name, conflictMsg))
	case errors.Is(err, apperr.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note name"))
	case errors.Is(err, apperr.ErrNotReady):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("notes index not loaded"))
	default:
		slog.Error(op+" failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Catalogue handles GET /stuff.
func (h *Handler) Catalogue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Catalogue())
}

// Resync handles POST /stuff.
func (h *Handler) Resync(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Sync(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Catalogue())
}

// CreateNote handles POST /gd/notes/{name}.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	name := urlName(r)
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	cat, err := h.engine.Create(r.Context(), name, body)
	if err != nil {
		fail(w, "create note", name, "already exists", err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// UpdateNote handles PUT /gd/notes/{name}.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	name := urlName(r)
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	cat, err := h.engine.Update(r.Context(), name, body)
	if err != nil {
		fail(w, "update note", name, "does not exist", err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// DeleteNote handles DELETE /gd/notes/{name}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	name := urlName(r)
	cat, err := h.engine.Delete(r.Context(), name)
	if err != nil {
		fail(w, "delete note", name, "does not exist", err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// WriteIndex handles PUT /gd/index.gd.
func (h *Handler) WriteIndex(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	cat, err := h.engine.WriteIndex(r.Context(), body)
	if err != nil {
		fail(w, "write index", "index.gd", "", err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// Asset handles GET /assets/{name}.
func (h *Handler) Asset(w http.ResponseWriter, r *http.Request) {
	target, ok := h.engine.State().Asset(urlName(r))
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
