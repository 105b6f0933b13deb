// Package catalog keeps the in-memory asset and note indexes in step with
// the asset log, the notes directory and the metadata document.
package catalog

import (
	"sort"
	"sync"

	"github.com/starford/jotbox/internal/metadata"
	"github.com/starford/jotbox/internal/models"
)

// State holds the process-wide assets and notes indexes.
//
// Replace swaps both maps inside one critical section, so readers never see
// assets from one sync paired with notes from another.
type State struct {
	mu     sync.RWMutex
	assets map[string]string
	notes  map[string]models.NoteMetadata
}

// NewState returns empty indexes.
func NewState() *State {
	return &State{
		assets: map[string]string{},
		notes:  map[string]models.NoteMetadata{},
	}
}

// Replace installs freshly loaded indexes. The maps are owned by State afterwards.
func (s *State) Replace(assets map[string]string, notes map[string]models.NoteMetadata) {
	if assets == nil {
		assets = map[string]string{}
	}
	if notes == nil {
		notes = map[string]models.NoteMetadata{}
	}
	s.mu.Lock()
	s.assets = assets
	s.notes = notes
	s.mu.Unlock()
}

// Catalogue returns asset names and note metadata, both sorted.
func (s *State) Catalogue() models.Catalogue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.assets))
	for n := range s.assets {
		names = append(names, n)
	}
	sort.Strings(names)
	return models.Catalogue{Assets: names, Notes: s.notesLocked()}
}

// Asset resolves an asset name to its URL.
func (s *State) Asset(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.assets[name]
	return u, ok
}

// Note returns the metadata stored for file.
func (s *State) Note(file string) (models.NoteMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.notes[file]
	return m, ok
}

// Notes returns every note entry sorted by file.
func (s *State) Notes() []models.NoteMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notesLocked()
}

func (s *State) notesLocked() []models.NoteMetadata {
	out := make([]models.NoteMetadata, 0, len(s.notes))
	for _, m := range s.notes {
		out = append(out, m)
	}
	return metadata.Sorted(out)
}

func (s *State) putNote(m models.NoteMetadata) {
	s.mu.Lock()
	s.notes[m.File] = m
	s.mu.Unlock()
}

func (s *State) deleteNote(file string) {
	s.mu.Lock()
	delete(s.notes, file)
	s.mu.Unlock()
}
