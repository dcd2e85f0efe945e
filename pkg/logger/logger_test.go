package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer, verbose bool) writerLogger {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return writerLogger{mu: &sync.Mutex{}, w: buf, verbose: verbose, now: func() time.Time { return fixed }}
}

func TestWriterLoggerFormatsObject(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, false)

	l.Warn("skipping record", map[string]any{"bytes": 3})

	want := "2024-05-01T12:00:00Z WARN  skipping record obj={\"bytes\":3}\n"
	if buf.String() != want {
		t.Fatalf("unexpected log line:\n got %q\nwant %q", buf.String(), want)
	}
}

func TestWriterLoggerWithoutObject(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, false)

	l.Error("request failed", nil)

	if !strings.HasSuffix(buf.String(), "ERROR request failed\n") {
		t.Fatalf("unexpected log line: %q", buf.String())
	}
}

func TestWriterLoggerDropsDebugUnlessVerbose(t *testing.T) {
	var quiet, loud bytes.Buffer
	newTestLogger(&quiet, false).Debug("turn start", nil)
	newTestLogger(&loud, true).Debug("turn start", nil)

	if quiet.Len() != 0 {
		t.Fatalf("expected no debug output, got %q", quiet.String())
	}
	if !strings.Contains(loud.String(), "DEBUG turn start") {
		t.Fatalf("expected debug output, got %q", loud.String())
	}
}

func TestWriterLoggerUnmarshalableObject(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, false)

	l.Info("odd", map[string]any{"fn": func() {}})

	if !strings.Contains(buf.String(), "obj=\"") {
		t.Fatalf("expected quoted fallback, got %q", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(NopLogger); !ok {
		t.Fatal("expected NopLogger for nil input")
	}
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, false)
	OrNop(l).Info("kept", nil)
	if buf.Len() == 0 {
		t.Fatal("expected wrapped logger to be used")
	}
}
