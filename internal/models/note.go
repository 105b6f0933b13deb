// Package models defines the domain types for jotbox.
package models

// UnknownTitle is the title given to a note file that has no metadata entry.
const UnknownTitle = "unknown"

// NoteMetadata describes one file in the notes directory.
type NoteMetadata struct {
	File  string  `json:"file"`
	Title string  `json:"title"`
	Date  *string `json:"date"`
}

// Placeholder returns the metadata synthesized for an untracked file.
func Placeholder(file string) NoteMetadata {
	return NoteMetadata{File: file, Title: UnknownTitle}
}

// SameContent reports whether m and o carry the same title and date.
func (m NoteMetadata) SameContent(o NoteMetadata) bool {
	if m.Title != o.Title {
		return false
	}
	switch {
	case m.Date == nil && o.Date == nil:
		return true
	case m.Date == nil || o.Date == nil:
		return false
	default:
		return *m.Date == *o.Date
	}
}

// Catalogue is the combined view of assets and notes returned to clients.
type Catalogue struct {
	Assets []string       `json:"assets"`
	Notes  []NoteMetadata `json:"notes"`
}
