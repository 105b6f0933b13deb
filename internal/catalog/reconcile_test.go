package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/jotbox/internal/models"
)

func strPtr(s string) *string { return &s }

func TestReconcile(t *testing.T) {
	persisted := []models.NoteMetadata{
		{File: "kept", Title: "Kept", Date: strPtr("2024-01-01")},
		{File: "gone", Title: "Gone"},
	}
	got := Reconcile([]string{"kept", "fresh"}, persisted)
	want := map[string]models.NoteMetadata{
		"kept":  {File: "kept", Title: "Kept", Date: strPtr("2024-01-01")},
		"fresh": {File: "fresh", Title: models.UnknownTitle},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reconcile (-want +got):\n%s", diff)
	}
}

func TestReconcile_Empty(t *testing.T) {
	got := Reconcile(nil, []models.NoteMetadata{{File: "x", Title: "X"}})
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestValidName(t *testing.T) {
	for name, want := range map[string]bool{
		"note":      true,
		"note.gd":   true,
		"":          false,
		".":         false,
		"..":        false,
		"a/b":       false,
		`a\b`:       false,
		"nul\x00":   false,
		"..hidden":  true,
		"with space": true,
	} {
		if got := ValidName(name); got != want {
			t.Errorf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}
}
