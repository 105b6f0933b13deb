// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/jotbox/internal/api"
	"github.com/starford/jotbox/internal/assetlog"
	"github.com/starford/jotbox/internal/auth"
	"github.com/starford/jotbox/internal/catalog"
	"github.com/starford/jotbox/internal/index"
	"github.com/starford/jotbox/internal/mcpserver"
	"github.com/starford/jotbox/internal/metadata"
	"github.com/starford/jotbox/internal/sse"
	"github.com/starford/jotbox/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg.App, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Storage.DataDir),
		slog.String("asset_log", cfg.Assets.LogPath),
		slog.String("metadata_backend", cfg.Metadata.Backend),
		slog.Bool("watch", cfg.Sync.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	creds := auth.Credentials{Name: cfg.Auth.Name, Password: cfg.Auth.Password}
	if !creds.Configured() {
		logger.Warn("credentials not configured, all mutating routes will reject requests")
	}

	// The broker reads the catalogue through engine, assigned just below and
	// before any change can be published.
	var engine *catalog.Engine
	broker := sse.NewBroker(2*time.Second, sse.WithSnapshot(func() any {
		return engine.Catalogue()
	}))
	defer broker.Close()

	engine, closeMeta, err := openEngine(cfg, logger, catalog.WithEventCallback(broker.PublishChange))
	if err != nil {
		return err
	}
	defer closeMeta()

	if err := engine.Sync(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	view, err := loadView(cfg.Storage.ViewFile, logger)
	if err != nil {
		return err
	}

	apiRouter := api.NewRouter(api.Deps{
		Engine:      engine,
		Credentials: creds,
		View:        view,
		DataDir:     cfg.Storage.DataDir,
		PublicDir:   cfg.Storage.PublicDir,
		Events:      broker,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, "ok")
	})
	// Ready once a sync has succeeded; until then writes are refused.
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !engine.Ready() {
			writeHealth(w, http.StatusServiceUnavailable, "syncing")
			return
		}
		writeHealth(w, http.StatusOK, "ok")
	})

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Sync.Watch {
		g.Go(func() error {
			if err := catalog.Watch(gCtx, engine, cfg.Storage.NotesPath(), cfg.Assets.LogPath, cfg.Sync.Debounce, logger); err != nil {
				// Serving continues without the watcher; POST /stuff still resyncs.
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP protocol on stdin/stdout. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg.App, os.Stderr)
	slog.SetDefault(logger)

	engine, closeMeta, err := openEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer closeMeta()

	if err := engine.Sync(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	logger.Info("MCP server starting on stdio", slog.String("version", app.version))
	return mcpserver.New(engine, app.version).ServeStdio()
}

// openEngine prepares the data directory and the metadata backend and builds
// the catalogue engine on top. The returned func releases the backend.
func openEngine(cfg *Config, logger *slog.Logger, opts ...catalog.EngineOption) (*catalog.Engine, func(), error) {
	if err := os.MkdirAll(cfg.Storage.NotesPath(), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create notes dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	meta, closeMeta, err := openMetadata(cfg.Metadata)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]catalog.EngineOption{
		catalog.WithNotesDir(cfg.Storage.NotesDir),
		catalog.WithIndexFile(cfg.Storage.IndexFile),
	}, opts...)
	engine := catalog.NewEngine(store, meta, assetlog.FileSource{Path: cfg.Assets.LogPath}, logger, opts...)
	return engine, closeMeta, nil
}

func openMetadata(cfg MetadataConfig) (metadata.Store, func(), error) {
	switch cfg.Backend {
	case MetadataBackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create metadata dir: %w", err)
		}
		db, err := index.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("init metadata: %w", err)
		}
		return db, func() { _ = db.Close() }, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create metadata dir: %w", err)
		}
		var opts []metadata.FileOption
		if cfg.AllowMissing {
			opts = append(opts, metadata.AllowMissing())
		}
		return metadata.NewFile(cfg.Path, opts...), func() {}, nil
	}
}

// loadView parses the main page template. A missing file disables GET / so
// that a public index.html can take over.
func loadView(path string, logger *slog.Logger) (*api.View, error) {
	if path == "" {
		return nil, nil
	}
	view, err := api.LoadView(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("view template not found, GET / served from public dir", slog.String("path", path))
		return nil, nil
	}
	return view, err
}

func writeHealth(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, msg)
}
