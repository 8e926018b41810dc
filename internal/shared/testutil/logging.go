package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// LogEntry is one captured log record.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is a slog.Handler that buffers records in memory so tests
// can assert on what a component logged. All methods are safe for
// concurrent use; handlers are shared across goroutines in server tests.
type LogRecorder struct {
	mu      sync.Mutex
	entries []LogEntry
	t       *testing.T
}

// NewTestLogger returns a logger backed by a LogRecorder. Records are
// echoed to t.Logf so failing tests show the log stream.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{t: t}
	return slog.New(rec), rec
}

// Handle implements slog.Handler.
func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]any)
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	r.mu.Lock()
	r.entries = append(r.entries, LogEntry{
		Time:    rec.Time,
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   attrs,
	})
	r.mu.Unlock()

	if r.t != nil {
		r.t.Logf("[%s] %s %v", rec.Level, rec.Message, attrs)
	}
	return nil
}

// Enabled implements slog.Handler. Tests capture every level.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// WithAttrs implements slog.Handler. The recorder is returned unchanged;
// per-logger attrs are not tracked, assertions run on record attrs only.
func (r *LogRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }

// WithGroup implements slog.Handler.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Entries returns a copy of all captured records.
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// EntriesAt returns the captured records at the given level.
func (r *LogRecorder) EntriesAt(level slog.Level) []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []LogEntry
	for _, e := range r.entries {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// HasMessage reports whether any record's message contains substr.
func (r *LogRecorder) HasMessage(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// HasAttr reports whether any record carries the given attribute value.
func (r *LogRecorder) HasAttr(key string, value any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if v, ok := e.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Len returns the number of captured records.
func (r *LogRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reset discards all captured records.
func (r *LogRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = r.entries[:0]
}
