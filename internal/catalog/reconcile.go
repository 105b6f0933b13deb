package catalog

import "github.com/starford/jotbox/internal/models"

// Reconcile builds the notes index from a directory listing and the persisted
// metadata. The listing decides which files exist; persisted entries only
// describe them. Untracked files get a placeholder, stale entries are dropped.
func Reconcile(files []string, persisted []models.NoteMetadata) map[string]models.NoteMetadata {
	known := make(map[string]models.NoteMetadata, len(persisted))
	for _, m := range persisted {
		known[m.File] = m
	}

	out := make(map[string]models.NoteMetadata, len(files))
	for _, f := range files {
		if m, ok := known[f]; ok {
			m.File = f
			out[f] = m
			continue
		}
		out[f] = models.Placeholder(f)
	}
	return out
}
