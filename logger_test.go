package pixeldata

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestNopHandler(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("nopHandler.Enabled(%v) = true, want false", level)
		}
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("nopHandler.Handle() = %v, want nil", err)
	}
	if _, ok := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).(nopHandler); !ok {
		t.Error("WithAttrs did not return nopHandler")
	}
	if _, ok := h.WithGroup("g").(nopHandler); !ok {
		t.Error("WithGroup did not return nopHandler")
	}
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger should not be enabled for %v", level)
		}
	}
}

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)

	l := Logger()
	if l == nil {
		t.Fatal("SetLogger(nil) should set nop logger, not nil")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should produce a disabled logger")
	}
}

func TestUnbalancedUnlockLogged(t *testing.T) {
	buf := captureLogger(t)

	b := New(newGeometry(2, 2, 8, 1, "MONOCHROME2"))
	defer b.Close()
	_, _ = b.Unlock()

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "unlock without matching lock") {
		t.Errorf("unbalanced unlock not logged at error level, got: %s", out)
	}
}

func TestDisposeWhileLockedLogged(t *testing.T) {
	buf := captureLogger(t)

	op := &fakeOpener{data: make([]byte, 4)}
	b := New(newGeometry(2, 2, 8, 1, "MONOCHROME2"), WithOpener(op), WithReference(testRef))
	if _, err := b.Lock(); err != nil {
		t.Fatal(err)
	}
	_ = b.Close()

	if out := buf.String(); !strings.Contains(out, "disposed while locked") {
		t.Errorf("dispose while locked not logged, got: %s", out)
	}
}

func TestWithLoggerOverridesPackageLogger(t *testing.T) {
	pkg := captureLogger(t)

	var own bytes.Buffer
	l := slog.New(slog.NewTextHandler(&own, nil))
	b := New(nil, WithLogger(l))
	defer b.Close()
	_, _ = b.Unlock()

	if pkg.Len() != 0 {
		t.Errorf("package logger received output: %s", pkg.String())
	}
	if !strings.Contains(own.String(), "unlock without matching lock") {
		t.Errorf("buffer logger missed the record, got: %s", own.String())
	}
}

func TestBufferKeepsLoggerFromCreation(t *testing.T) {
	first := captureLogger(t)
	b := New(nil)
	defer b.Close()

	var later bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&later, nil)))
	_, _ = b.Unlock()

	if !strings.Contains(first.String(), "unlock without matching lock") {
		t.Errorf("buffer did not log to the logger set at creation, got: %q", first.String())
	}
	if later.Len() != 0 {
		t.Errorf("existing buffer switched to the new package logger: %s", later.String())
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var wg sync.WaitGroup
	const goroutines = 100

	for range goroutines {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l := Logger()
			if l == nil {
				t.Error("Logger() returned nil during concurrent access")
				return
			}
			l.Debug("concurrent read")
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}
	wg.Wait()
}

func BenchmarkLoggerDisabledLog(b *testing.B) {
	l := Logger()
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("message", "key", "value")
	}
}
