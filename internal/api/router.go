// Package api implements the jotbox HTTP surface using chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jotbox/internal/auth"
	"github.com/starford/jotbox/internal/catalog"
)

// Deps are the collaborators the router wires together.
type Deps struct {
	Engine      *catalog.Engine
	Credentials auth.Credentials
	// View renders GET /. When nil, / falls through to the public directory.
	View *View
	// DataDir is served read-only under /gd/.
	DataDir string
	// PublicDir is served at the root. Empty disables it.
	PublicDir string
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
}

// NewRouter creates a chi router with every route mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Engine)

	r := chi.NewRouter()

	r.Get("/stuff", h.Catalogue)
	r.Post("/stuff", h.Resync)
	r.Get("/assets/{name}", h.Asset)

	// Mutations.
	r.Group(func(r chi.Router) {
		r.Use(auth.Require(d.Credentials))
		r.Post("/gd/notes/{name}", h.CreateNote)
		r.Put("/gd/notes/{name}", h.UpdateNote)
		r.Delete("/gd/notes/{name}", h.DeleteNote)
		r.Put("/gd/index.gd", h.WriteIndex)
	})

	if d.DataDir != "" {
		gd := http.StripPrefix("/gd", http.FileServer(http.Dir(d.DataDir)))
		r.Get("/gd/notes/{name}", gd.ServeHTTP)
		r.Get("/gd/index.gd", gd.ServeHTTP)
		r.Get("/gd/*", gd.ServeHTTP)
	}

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	if d.View != nil {
		r.With(auth.Optional(d.Credentials)).Get("/", d.View.ServeHTTP)
	}
	if d.PublicDir != "" {
		r.Get("/*", http.FileServer(http.Dir(d.PublicDir)).ServeHTTP)
	}

	return r
}
