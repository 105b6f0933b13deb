// Package metadata persists the notes index as a single document.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"

	"github.com/starford/jotbox/internal/models"
)

// Store loads and saves the full notes index.
type Store interface {
	Load(ctx context.Context) ([]models.NoteMetadata, error)
	Save(ctx context.Context, notes []models.NoteMetadata) error
}

// File is a Store backed by a JSON array on disk.
type File struct {
	path         string
	allowMissing bool
}

// FileOption configures a File.
type FileOption func(*File)

// AllowMissing makes Load treat an absent document as an empty index, for a
// first run before anything has been saved.
func AllowMissing() FileOption {
	return func(f *File) { f.allowMissing = true }
}

// NewFile returns a Store for the document at path.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{path: path}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the document location.
func (f *File) Path() string {
	return f.path
}

// Load reads the document. A missing document is an error unless the File
// was built with AllowMissing.
func (f *File) Load(_ context.Context) ([]models.NoteMetadata, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) && f.allowMissing {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("metadata: read %s: %w", f.path, err)
	}
	var out []models.NoteMetadata
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("metadata: parse %s: %w", f.path, err)
	}
	return out, nil
}

// Save writes every entry, sorted by file, replacing the document atomically.
func (f *File) Save(_ context.Context, notes []models.NoteMetadata) error {
	sorted := Sorted(notes)
	data, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("metadata: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("metadata: mkdir: %w", err)
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("metadata: write %s: %w", f.path, err)
	}
	return nil
}

// Sorted returns a copy of notes ordered by file name. It never returns nil.
func Sorted(notes []models.NoteMetadata) []models.NoteMetadata {
	out := make([]models.NoteMetadata, len(notes))
	copy(out, notes)
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}
