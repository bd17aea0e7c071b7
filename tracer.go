package pixeldata

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Tracer times lifecycle operations. It replaces process-wide performance
// counters: each buffer carries its own Tracer, set with WithTracer.
type Tracer interface {
	Start(op string, attrs ...slog.Attr) Span
}

// Span is one traced operation. End is called exactly once.
type Span interface {
	End(err error)
}

// NopTracer discards all spans.
type NopTracer struct{}

// Start returns a span that does nothing.
func (NopTracer) Start(string, ...slog.Attr) Span { return nopSpan{} }

type nopSpan struct{}

func (nopSpan) End(error) {}

// LogTracer writes a debug record when a span starts and another when it
// ends. Both carry the same span ID, so interleaved operations on several
// buffers can be paired up in the log.
type LogTracer struct {
	logger *slog.Logger
}

// NewLogTracer creates a tracer that logs to l, or to Logger() when l is nil.
func NewLogTracer(l *slog.Logger) *LogTracer {
	return &LogTracer{logger: l}
}

// Start begins a span with a fresh random ID.
func (t *LogTracer) Start(op string, attrs ...slog.Attr) Span {
	l := t.logger
	if l == nil {
		l = Logger()
	}
	s := &logSpan{
		logger: l,
		op:     op,
		id:     uuid.New(),
		start:  time.Now(),
		attrs:  attrs,
	}
	ctx := context.Background()
	if l.Enabled(ctx, slog.LevelDebug) {
		l.LogAttrs(ctx, slog.LevelDebug, "pixeldata: "+op+" started",
			append([]slog.Attr{slog.String("span", s.id.String())}, attrs...)...)
	}
	return s
}

type logSpan struct {
	logger *slog.Logger
	op     string
	id     uuid.UUID
	start  time.Time
	attrs  []slog.Attr
}

func (s *logSpan) End(err error) {
	attrs := append([]slog.Attr{
		slog.String("span", s.id.String()),
		slog.Duration("elapsed", time.Since(s.start)),
	}, s.attrs...)
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "pixeldata: "+s.op, attrs...)
}
