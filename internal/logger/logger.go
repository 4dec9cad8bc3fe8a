// Package logger provides structured logging setup for sportz.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Strob0t/sportz/internal/config"
)

const (
	asyncBufferSize = 4096
	asyncWorkers    = 2
)

// New creates a *slog.Logger from the given Logging config. Output is JSON to
// stdout with a "service" attribute on every record. The returned Closer
// flushes the async handler, if any.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	return Build(cfg, os.Stdout, nil)
}

// Build is New with an explicit writer and level. A nil level is created from
// cfg.Level; passing one in lets config reloads change it later via SetLevel.
func Build(cfg config.Logging, w io.Writer, level *slog.LevelVar) (*slog.Logger, Closer) {
	if level == nil {
		level = new(slog.LevelVar)
		level.Set(parseLevel(cfg.Level))
	}

	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	handler = &requestIDHandler{inner: handler}

	var closer Closer = nopCloser{}
	if cfg.Async {
		ah := NewAsyncHandler(handler, asyncBufferSize, asyncWorkers)
		handler, closer = ah, ah
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

// SetLevel applies a textual level to lv. Unknown names select info.
func SetLevel(lv *slog.LevelVar, s string) {
	lv.Set(parseLevel(s))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
