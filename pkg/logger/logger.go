package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Logger is the logging interface used across the client.
type Logger interface {
	Info(msg string, obj any)
	Warn(msg string, obj any)
	Debug(msg string, obj any)
	Error(msg string, obj any)
}

// NopLogger discards all log messages.
type NopLogger struct{}

func (NopLogger) Info(string, any)  {}
func (NopLogger) Warn(string, any)  {}
func (NopLogger) Debug(string, any) {}
func (NopLogger) Error(string, any) {}

type writerLogger struct {
	mu      *sync.Mutex
	w       io.Writer
	verbose bool
	now     func() time.Time
}

// NewWriterLogger builds a logger that writes to an io.Writer.
// Debug lines are dropped unless verbose is set.
func NewWriterLogger(w io.Writer, verbose bool) Logger {
	return writerLogger{mu: &sync.Mutex{}, w: w, verbose: verbose, now: time.Now}
}

func (l writerLogger) write(level, msg string, obj any) {
	if l.w == nil {
		return
	}

	line := fmt.Sprintf("%s %-5s %s", l.now().Format(time.RFC3339), level, msg)
	if obj != nil {
		b, err := json.Marshal(obj)
		if err != nil {
			line += fmt.Sprintf(" obj=%q", fmt.Sprintf("%+v", obj))
		} else {
			line += " obj=" + string(b)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.w, line)
}

func (l writerLogger) Info(msg string, obj any) { l.write("INFO", msg, obj) }
func (l writerLogger) Warn(msg string, obj any) { l.write("WARN", msg, obj) }
func (l writerLogger) Debug(msg string, obj any) {
	if !l.verbose {
		return
	}
	l.write("DEBUG", msg, obj)
}

func (l writerLogger) Error(msg string, obj any) { l.write("ERROR", msg, obj) }

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
