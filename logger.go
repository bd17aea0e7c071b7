package pixeldata

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler drops every record. Buffers created before SetLogger is called
// hold a logger backed by it and never format lifecycle attributes.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// silent is the package logger until SetLogger installs another one.
var silent = slog.New(nopHandler{})

// pkgLogger is read by every New call and by the mapped and fastcache
// packages on each log statement.
var pkgLogger atomic.Pointer[slog.Logger]

func init() {
	pkgLogger.Store(silent)
}

// SetLogger replaces the package logger. Pass nil to go back to discarding
// output.
//
// A PixelBuffer picks its logger when it is created: WithLogger if given,
// otherwise the package logger at that moment. SetLogger therefore does not
// redirect buffers that already exist, while the mapped and fastcache
// packages switch over immediately.
//
// Levels:
//   - [slog.LevelDebug]: resolution decisions, fast-cache hits and misses,
//     regions opened and dropped
//   - [slog.LevelWarn]: disposal with outstanding locks, release failures
//   - [slog.LevelError]: unbalanced unlocks
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	pkgLogger.Store(l)
}

// Logger returns the package logger. It is safe for concurrent use.
func Logger() *slog.Logger {
	return pkgLogger.Load()
}
