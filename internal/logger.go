package internal

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// newLogger builds the process logger. JSON goes to w as is; the text format
// is colorized only when f is a terminal.
func newLogger(cfg ApplicationConfig, f *os.File) *slog.Logger {
	if cfg.LogFormat == LogFormatText {
		return slog.New(tint.NewHandler(colorable.NewColorable(f), &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.TimeOnly,
			NoColor:    !isatty.IsTerminal(f.Fd()),
		}))
	}
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}
