// Package testutil provides shared fakes and fixtures for tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/starford/jotbox/internal/models"
	"github.com/starford/jotbox/internal/storage"
)

// Logger returns a logger that drops everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// MetaStore is an in-memory metadata.Store that counts saves.
type MetaStore struct {
	mu      sync.Mutex
	notes   []models.NoteMetadata
	saves   int
	loadErr error
	saveErr error
}

// NewMetaStore returns a store preloaded with notes.
func NewMetaStore(notes ...models.NoteMetadata) *MetaStore {
	return &MetaStore{notes: notes}
}

// Load implements metadata.Store.
func (m *MetaStore) Load(context.Context) ([]models.NoteMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]models.NoteMetadata(nil), m.notes...), nil
}

// Save implements metadata.Store. A failing save is still counted.
func (m *MetaStore) Save(_ context.Context, notes []models.NoteMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.notes = append([]models.NoteMetadata(nil), notes...)
	return nil
}

// Saves returns the number of Save calls.
func (m *MetaStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Saved returns the last successfully saved notes.
func (m *MetaStore) Saved() []models.NoteMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.NoteMetadata(nil), m.notes...)
}

// FailLoad makes Load return err.
func (m *MetaStore) FailLoad(err error) {
	m.mu.Lock()
	m.loadErr = err
	m.mu.Unlock()
}

// FailSave makes Save return err.
func (m *MetaStore) FailSave(err error) {
	m.mu.Lock()
	m.saveErr = err
	m.mu.Unlock()
}

// AssetSource is an in-memory assetlog.Source.
type AssetSource struct {
	mu   sync.Mutex
	data string
	err  error
}

// NewAssetSource returns a source serving lines joined by newlines.
func NewAssetSource(lines ...string) *AssetSource {
	return &AssetSource{data: strings.Join(lines, "\n")}
}

// Open implements assetlog.Source.
func (a *AssetSource) Open(context.Context) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return io.NopCloser(strings.NewReader(a.data)), nil
}

// Set replaces the served lines.
func (a *AssetSource) Set(lines ...string) {
	a.mu.Lock()
	a.data = strings.Join(lines, "\n")
	a.mu.Unlock()
}

// Fail makes Open return err.
func (a *AssetSource) Fail(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// DataDir creates a temporary data directory with an empty notes/ folder.
func DataDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "notes"), 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}
