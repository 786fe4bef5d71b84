// Package logging provides the bridge's structured logger: a log/slog
// front end backed by a bounded in-memory ring of entries, optionally
// mirrored as JSON to a file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultBufferSize is the number of entries kept in memory when no size is
// configured.
const DefaultBufferSize = 1000

// LogEntry represents a single log entry with metadata.
type LogEntry struct {
	Time    time.Time         `json:"time"`
	Level   slog.Level        `json:"level"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs"`
}

// Options configures a Logger.
type Options struct {
	// Level is the minimum level recorded. Defaults to info.
	Level slog.Level
	// BufferSize bounds the in-memory ring. Defaults to DefaultBufferSize.
	BufferSize int
	// File, when non-nil, also receives every record as a JSON line.
	File io.Writer
}

// Logger owns the ring buffer and the *slog.Logger writing into it.
type Logger struct {
	logger *slog.Logger
	ring   *ring
	level  *slog.LevelVar
}

// New creates a Logger.
func New(opts Options) *Logger {
	size := opts.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	level := new(slog.LevelVar)
	level.Set(opts.Level)

	r := &ring{entries: make([]LogEntry, 0, size), max: size}
	var h slog.Handler = &ringHandler{ring: r, level: level}
	if opts.File != nil {
		h = fanout{h, slog.NewJSONHandler(opts.File, &slog.HandlerOptions{Level: level})}
	}
	return &Logger{logger: slog.New(h), ring: r, level: level}
}

// Discard returns a logger that records nothing anywhere.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Slog returns the underlying *slog.Logger.
func (l *Logger) Slog() *slog.Logger { return l.logger }

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level slog.Level) { l.level.Set(level) }

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level { return l.level.Level() }

// GetLogs returns a copy of all buffered entries, oldest first.
func (l *Logger) GetLogs() []LogEntry {
	l.ring.mu.RLock()
	defer l.ring.mu.RUnlock()
	out := make([]LogEntry, len(l.ring.entries))
	copy(out, l.ring.entries)
	return out
}

// SearchLogs returns the entries whose message, attribute keys or attribute
// values contain query, case-insensitively.
func (l *Logger) SearchLogs(query string) []LogEntry {
	l.ring.mu.RLock()
	defer l.ring.mu.RUnlock()

	query = strings.ToLower(query)
	var matches []LogEntry
	for _, entry := range l.ring.entries {
		if strings.Contains(strings.ToLower(entry.Message), query) {
			matches = append(matches, entry)
			continue
		}
		for key, value := range entry.Attrs {
			if strings.Contains(strings.ToLower(key), query) ||
				strings.Contains(strings.ToLower(value), query) {
				matches = append(matches, entry)
				break
			}
		}
	}
	return matches
}

// ClearLogs removes all buffered entries.
func (l *Logger) ClearLogs() {
	l.ring.mu.Lock()
	defer l.ring.mu.Unlock()
	l.ring.entries = l.ring.entries[:0]
}

// ParseLevel maps debug, info, warn and error (case-insensitive, empty is
// info) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}

type ring struct {
	mu      sync.RWMutex
	entries []LogEntry
	max     int
}

func (r *ring) add(e LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == r.max {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:r.max-1]
	}
	r.entries = append(r.entries, e)
}

// ringHandler implements slog.Handler on top of ring. Attributes bound with
// WithAttrs are flattened into each entry; groups prefix keys with "group.".
type ringHandler struct {
	ring   *ring
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

func (h *ringHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ringHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]string, len(h.attrs)+record.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.String()
	}
	record.Attrs(func(a slog.Attr) bool {
		attrs[h.prefix+a.Key] = a.Value.String()
		return true
	})
	h.ring.add(LogEntry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *ringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &c
}

func (h *ringHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
