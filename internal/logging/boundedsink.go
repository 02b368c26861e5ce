package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultCapLines is the retained line cap applied when SinkConfig leaves
// CapLines unset.
const DefaultCapLines = 1000

// SinkConfig describes a bounded log sink.
type SinkConfig struct {
	FilePath string
	CapLines int
}

// Sink is an append-only log file capped at a maximum retained line count.
// After any completed write the file holds at most CapLines lines, trimmed to
// the most recent ones. Retention is a coarse read-whole-file/rewrite policy;
// write frequency is low and the file is small, so this stays simpler than a
// ring buffer while observably equivalent.
//
// Write failures are swallowed: logging must never escalate into a pipeline
// failure.
type Sink struct {
	mu   sync.Mutex
	path string
	cap  int
}

// NewSink constructs a bounded sink for the configured file.
func NewSink(cfg SinkConfig) *Sink {
	capLines := cfg.CapLines
	if capLines <= 0 {
		capLines = DefaultCapLines
	}
	return &Sink{path: cfg.FilePath, cap: capLines}
}

// Path returns the backing file path.
func (s *Sink) Path() string { return s.path }

// CapLines returns the configured line cap.
func (s *Sink) CapLines() int { return s.cap }

// Write appends a timestamped, leveled line, trimming the file first when it
// has reached the cap so the post-write count never exceeds it.
func (s *Sink) Write(level slog.Level, message string) {
	line := time.Now().UTC().Format(time.RFC3339) + " " + levelLabel(level) + " " + strings.TrimRight(message, "\n")
	s.writeLine(line)
}

func (s *Sink) writeLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		lines := splitLines(data)
		if len(lines) >= s.cap {
			lines = lines[len(lines)-(s.cap-1):]
			lines = append(lines, line)
			s.rewrite(lines)
			return
		}
	case !os.IsNotExist(err):
		// Unreadable file: drop the line rather than block the caller.
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line + "\n")
}

func (s *Sink) rewrite(lines []string) {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	_ = os.WriteFile(s.path, buf.Bytes(), 0o644)
}

func splitLines(data []byte) []string {
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// sinkHandler adapts a Sink into a slog.Handler so components log through the
// ordinary slog API while the audit trail stays bounded.
type sinkHandler struct {
	sink  *Sink
	level slog.Level
	attrs []slog.Attr
	group string
}

// NewSinkHandler wraps sink in a slog.Handler emitting records at or above
// the given level.
func NewSinkHandler(sink *Sink, level slog.Level) slog.Handler {
	return &sinkHandler{sink: sink, level: level}
}

func (h *sinkHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *sinkHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString(record.Message)
	for _, attr := range h.attrs {
		writeAttr(&b, h.group, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&b, h.group, attr)
		return true
	})
	h.sink.Write(record.Level, b.String())
	return nil
}

func (h *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *sinkHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if name != "" {
		if clone.group != "" {
			clone.group += "."
		}
		clone.group += name
	}
	return &clone
}

func writeAttr(b *strings.Builder, group string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		prefix := group
		if attr.Key != "" {
			if prefix != "" {
				prefix += "."
			}
			prefix += attr.Key
		}
		for _, nested := range attr.Value.Group() {
			writeAttr(b, prefix, nested)
		}
		return
	}
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(formatValue(attr.Value))
}
