package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/jotbox/internal/apperr"
	"github.com/starford/jotbox/internal/models"
)

// ValidName reports whether name can be used as a note file name.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

func (e *Engine) notePath(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidName, name)
	}
	return path.Join(e.notesDir, name), nil
}

// mutablePath is notePath for operations that persist the notes index. They
// are refused until a sync has loaded the full index.
func (e *Engine) mutablePath(name string) (string, error) {
	p, err := e.notePath(name)
	if err != nil {
		return "", err
	}
	if !e.synced.Load() {
		return "", fmt.Errorf("%w: notes index not loaded", apperr.ErrNotReady)
	}
	return p, nil
}

// Create writes a new note. It fails with apperr.ErrConflict when the file is
// already present, including when another writer creates it between the
// existence check and the write.
func (e *Engine) Create(ctx context.Context, name string, content []byte) (models.Catalogue, error) {
	p, err := e.mutablePath(name)
	if err != nil {
		return models.Catalogue{}, err
	}
	exists, err := e.store.Exists(p)
	if err != nil {
		return models.Catalogue{}, fmt.Errorf("check %s: %w", name, err)
	}
	if exists {
		return models.Catalogue{}, fmt.Errorf("%w: %q already exists", apperr.ErrConflict, name)
	}
	if err := e.store.Create(p, content); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return models.Catalogue{}, fmt.Errorf("%w: %q already exists", apperr.ErrConflict, name)
		}
		return models.Catalogue{}, fmt.Errorf("%w: %w", apperr.ErrWrite, err)
	}
	e.recordNote(ctx, name, content)
	e.emit(EventCreated, name)
	return e.state.Catalogue(), nil
}

// Update overwrites an existing note. It fails with apperr.ErrConflict when the
// file is absent. The check and the write are separate steps; a concurrent
// delete in between is lost to the update (last writer wins).
func (e *Engine) Update(ctx context.Context, name string, content []byte) (models.Catalogue, error) {
	p, err := e.mutablePath(name)
	if err != nil {
		return models.Catalogue{}, err
	}
	exists, err := e.store.Exists(p)
	if err != nil {
		return models.Catalogue{}, fmt.Errorf("check %s: %w", name, err)
	}
	if !exists {
		return models.Catalogue{}, fmt.Errorf("%w: %q does not exist", apperr.ErrConflict, name)
	}
	if err := e.store.Write(p, content); err != nil {
		return models.Catalogue{}, fmt.Errorf("%w: %w", apperr.ErrWrite, err)
	}
	e.recordNote(ctx, name, content)
	e.emit(EventUpdated, name)
	return e.state.Catalogue(), nil
}

// Delete removes a note and its metadata entry.
func (e *Engine) Delete(ctx context.Context, name string) (models.Catalogue, error) {
	p, err := e.mutablePath(name)
	if err != nil {
		return models.Catalogue{}, err
	}
	exists, err := e.store.Exists(p)
	if err != nil {
		return models.Catalogue{}, fmt.Errorf("check %s: %w", name, err)
	}
	if !exists {
		return models.Catalogue{}, fmt.Errorf("%w: %q does not exist", apperr.ErrConflict, name)
	}
	if err := e.store.Delete(p); err != nil {
		return models.Catalogue{}, fmt.Errorf("%w: %w", apperr.ErrWrite, err)
	}

	e.mu.Lock()
	e.state.deleteNote(name)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.emit(EventDeleted, name)
	return e.state.Catalogue(), nil
}

// WriteIndex overwrites the top-level index file. There is no existence check.
func (e *Engine) WriteIndex(_ context.Context, content []byte) (models.Catalogue, error) {
	if err := e.store.Write(e.indexFile, content); err != nil {
		return models.Catalogue{}, fmt.Errorf("%w: %w", apperr.ErrWrite, err)
	}
	return e.state.Catalogue(), nil
}

// ReadNote returns the raw content of a note.
func (e *Engine) ReadNote(_ context.Context, name string) ([]byte, error) {
	p, err := e.notePath(name)
	if err != nil {
		return nil, err
	}
	data, err := e.store.Read(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", apperr.ErrNotFound, name)
		}
		return nil, err
	}
	return data, nil
}

// recordNote derives metadata from content and persists the index when the
// note is new or its title or date changed. It reports whether it persisted.
func (e *Engine) recordNote(ctx context.Context, name string, content []byte) bool {
	res := e.parse(content)
	info := models.NoteMetadata{File: name, Title: res.Title, Date: res.Date()}

	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.state.Note(name); ok && old.SameContent(info) {
		return false
	}
	e.state.putNote(info)
	e.persistLocked(ctx)
	return true
}

// persistLocked saves the full notes index. Failures are logged only; the
// file and the document stay out of step until the next sync.
func (e *Engine) persistLocked(ctx context.Context) {
	notes := e.state.Notes()
	if err := e.meta.Save(context.WithoutCancel(ctx), notes); err != nil {
		e.logger.Error("persist metadata failed",
			slog.Int("notes", len(notes)),
			slog.String("error", err.Error()))
	}
}
