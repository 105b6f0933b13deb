package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch observes the notes directory and the asset log and runs Sync once
// changes settle for debounce. It blocks until ctx is cancelled.
//
// The asset log's directory is watched rather than the file itself so that
// the log being replaced (rename over) is still noticed.
func Watch(ctx context.Context, e *Engine, notesDir, assetLog string, debounce time.Duration, logger *slog.Logger) error {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	notesAbs, err := filepath.Abs(notesDir)
	if err != nil {
		return err
	}
	logAbs, err := filepath.Abs(assetLog)
	if err != nil {
		return err
	}
	if err := w.Add(notesAbs); err != nil {
		return err
	}
	logDir := filepath.Dir(logAbs)
	if logDir != notesAbs {
		if err := w.Add(logDir); err != nil {
			return err
		}
	}

	logger.Info("watcher: started",
		slog.String("notes_dir", notesAbs),
		slog.String("asset_log", logAbs))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			if err := e.Sync(ctx); err != nil {
				logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			dir := filepath.Dir(ev.Name)
			if dir != notesAbs && ev.Name != logAbs {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
