package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/jotbox/internal/apperr"
	"github.com/starford/jotbox/internal/assetlog"
	"github.com/starford/jotbox/internal/metadata"
	"github.com/starford/jotbox/internal/models"
	"github.com/starford/jotbox/internal/parser"
	"github.com/starford/jotbox/internal/storage"
)

// Event kinds passed to an EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
	EventSynced  = "synced"
)

// EventCallback is called after a successful mutation or sync.
// file is empty for EventSynced.
type EventCallback func(kind, file string)

// ParseFunc derives a title and metadata block from note content.
type ParseFunc func([]byte) parser.Result

// Engine owns the catalogue State: it replaces it wholesale on Sync and
// patches single notes on Create, Update and Delete.
type Engine struct {
	store     storage.Provider
	meta      metadata.Store
	assets    assetlog.Source
	parse     ParseFunc
	state     *State
	logger    *slog.Logger
	notesDir  string
	indexFile string
	onEvent   EventCallback

	// mu serializes note metadata mutation and persistence.
	mu sync.Mutex
	// synced is set by the first successful Sync. Until then the notes index
	// does not describe the directory and must not be persisted.
	synced atomic.Bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithNotesDir sets the notes directory, relative to the storage root.
func WithNotesDir(dir string) EngineOption {
	return func(e *Engine) { e.notesDir = dir }
}

// WithIndexFile sets the well-known top-level file written by WriteIndex.
func WithIndexFile(name string) EngineOption {
	return func(e *Engine) { e.indexFile = name }
}

// WithParser replaces the note content parser.
func WithParser(p ParseFunc) EngineOption {
	return func(e *Engine) { e.parse = p }
}

// WithEventCallback registers cb for mutation and sync events.
func WithEventCallback(cb EventCallback) EngineOption {
	return func(e *Engine) { e.onEvent = cb }
}

// WithState shares an existing State instead of allocating one.
func WithState(s *State) EngineOption {
	return func(e *Engine) { e.state = s }
}

// NewEngine creates an Engine. Its State starts empty until the first Sync.
func NewEngine(store storage.Provider, meta metadata.Store, assets assetlog.Source, logger *slog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		store:     store,
		meta:      meta,
		assets:    assets,
		parse:     parser.Parse,
		logger:    logger,
		notesDir:  "notes",
		indexFile: "index.gd",
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.state == nil {
		e.state = NewState()
	}
	return e
}

// State returns the live indexes.
func (e *Engine) State() *State {
	return e.state
}

// Ready reports whether a sync has succeeded at least once.
func (e *Engine) Ready() bool {
	return e.synced.Load()
}

// Catalogue returns the current catalogue.
func (e *Engine) Catalogue() models.Catalogue {
	return e.state.Catalogue()
}

// Sync reloads the asset log and the notes directory concurrently and swaps
// both indexes only when every load succeeded. On failure the previous
// indexes stay in place and the returned error wraps apperr.ErrLoad.
func (e *Engine) Sync(ctx context.Context) error {
	start := time.Now()

	var (
		assets map[string]string
		notes  map[string]models.NoteMetadata
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := assetlog.Load(gCtx, e.assets, e.logger)
		if err != nil {
			return fmt.Errorf("assets: %w", err)
		}
		assets = a
		return nil
	})
	g.Go(func() error {
		n, err := e.loadNotes(gCtx)
		if err != nil {
			return fmt.Errorf("notes: %w", err)
		}
		notes = n
		return nil
	})
	if err := g.Wait(); err != nil {
		e.logger.Error("sync failed", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", apperr.ErrLoad, err)
	}

	e.state.Replace(assets, notes)
	e.synced.Store(true)
	e.logger.Info("sync complete",
		slog.Int("assets", len(assets)),
		slog.Int("notes", len(notes)),
		slog.Duration("took", time.Since(start)))
	e.emit(EventSynced, "")
	return nil
}

// loadNotes lists the notes directory and loads the metadata document in
// parallel, then reconciles them.
func (e *Engine) loadNotes(ctx context.Context) (map[string]models.NoteMetadata, error) {
	var (
		files     []string
		persisted []models.NoteMetadata
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := e.store.List(e.notesDir)
		if err != nil {
			return err
		}
		files = f
		return nil
	})
	g.Go(func() error {
		p, err := e.meta.Load(gCtx)
		if err != nil {
			return err
		}
		persisted = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Reconcile(files, persisted), nil
}

func (e *Engine) emit(kind, file string) {
	if e.onEvent != nil {
		e.onEvent(kind, file)
	}
}
