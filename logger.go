package gfx

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gfx/handle"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for gfx, its sub-packages and every
// registered backend. By default gfx produces no log output.
//
// Log levels used by gfx:
//   - [slog.LevelDebug]: state-object cache misses, skipped groups
//   - [slog.LevelInfo]: backend opened, device recovered
//   - [slog.LevelWarn]: capability fallbacks, clamped viewports
//   - [slog.LevelError]: invalid handles, duplicate resource names
//
// Pass nil to restore the silent default. SetLogger is safe for concurrent use.
//
// Example:
//
//	gfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	handle.SetLogger(l)

	for _, name := range registry.Available() {
		propagateLogger(registry.Get(name), l)
	}
}

// Logger returns the current logger. Backend packages call this so they
// share one configuration without import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by backends whose native layer has its own
// logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(b Backend, l *slog.Logger) {
	if ls, ok := b.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
