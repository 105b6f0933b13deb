package api

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/starford/jotbox/internal/auth"
)

// View renders the main page template. The template receives a map with
// "login" set to the authenticated name, or nil for anonymous visitors.
type View struct {
	tmpl *template.Template
}

// LoadView parses the template file at path.
func LoadView(path string) (*View, error) {
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("api: parse view %s: %w", path, err)
	}
	return &View{tmpl: tmpl}, nil
}

// ServeHTTP renders the view. Wrap it with auth.Optional to populate login.
func (v *View) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{"login": nil}
	if name, ok := auth.Identity(r.Context()); ok {
		params["login"] = name
	}

	var buf bytes.Buffer
	if err := v.tmpl.Execute(&buf, params); err != nil {
		slog.Error("render view failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
