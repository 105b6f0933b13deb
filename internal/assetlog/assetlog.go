// Package assetlog folds the append-only asset event log into a name→URL map.
package assetlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/starford/jotbox/internal/models"
)

const maxLineBytes = 1 << 20

// Source opens the raw event stream.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads the log from a file on disk.
type FileSource struct {
	Path string
}

// Open opens the log file. A missing file is reported as an error.
func (s FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("assetlog: open %s: %w", s.Path, err)
	}
	return f, nil
}

// Load opens src and reduces it.
func Load(ctx context.Context, src Source, logger *slog.Logger) (map[string]string, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Reduce(rc, logger)
}

// Reduce folds the events in r, in order, and returns the live assets keyed by name.
// Lines that do not decode are logged and skipped; a read error aborts.
func Reduce(r io.Reader, logger *slog.Logger) (map[string]string, error) {
	entries, err := Fold(r, logger)
	if err != nil {
		return nil, err
	}
	return ByName(entries), nil
}

// Fold applies every event of r to a map keyed by asset id and returns the
// surviving entries ordered by the position of their most recent event.
func Fold(r io.Reader, logger *slog.Logger) ([]models.AssetEntry, error) {
	type slot struct {
		entry models.AssetEntry
		seq   int
	}
	live := make(map[string]slot)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev models.AssetEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			logger.Warn("assetlog: skipping malformed line",
				slog.Int("line", lineNo),
				slog.String("error", err.Error()))
			continue
		}
		if ev.UUID == "" {
			logger.Warn("assetlog: skipping line without uuid", slog.Int("line", lineNo))
			continue
		}
		if ev.Deleted {
			delete(live, ev.UUID)
			continue
		}
		live[ev.UUID] = slot{
			entry: models.AssetEntry{ID: ev.UUID, Name: ev.Name, URL: ev.URL},
			seq:   lineNo,
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("assetlog: read: %w", err)
	}

	slots := make([]slot, 0, len(live))
	for _, s := range live {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].seq < slots[j].seq })
	out := make([]models.AssetEntry, len(slots))
	for i, s := range slots {
		out[i] = s.entry
	}
	return out, nil
}

// ByName projects entries into a name→URL map. Later entries win a shared name.
func ByName(entries []models.AssetEntry) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Name] = e.URL
	}
	return out
}
