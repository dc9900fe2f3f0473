// Package logger is the process-wide leveled log for chunkwise.
//
// Errors always print. Debug, Info and Warn need verbose mode (--verbose
// or log.verbose). Lines go to stderr as "[LEVEL] message" so they stay
// apart from command output and streamed answers.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	level slog.LevelVar

	mu     sync.RWMutex
	output io.Writer = os.Stderr

	root = slog.New(&handler{})
)

func init() {
	level.Set(slog.LevelError)
}

// SetVerbose switches between all levels and errors only.
func SetVerbose(v bool) {
	if v {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(slog.LevelError)
}

// IsVerbose reports whether debug lines are printed.
func IsVerbose() bool {
	return level.Level() <= slog.LevelDebug
}

// SetOutput redirects log lines. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Writer returns the current destination.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

// Slog returns the structured logger behind the package functions.
func Slog() *slog.Logger {
	return root
}

// Std adapts the logger for APIs that take a *log.Logger, such as
// http.Server.ErrorLog. Lines are logged at Warn.
func Std() *log.Logger {
	return slog.NewLogLogger(root.Handler(), slog.LevelWarn)
}

func logf(l slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !root.Enabled(ctx, l) {
		return
	}
	root.Log(ctx, l, fmt.Sprintf(format, args...))
}

// Debug logs pipeline detail.
func Debug(format string, args ...any) { logf(slog.LevelDebug, format, args...) }

// Info logs progress.
func Info(format string, args ...any) { logf(slog.LevelInfo, format, args...) }

// Warn logs recoverable failures: skipped chunks, degraded retrieval, failed batches.
func Warn(format string, args ...any) { logf(slog.LevelWarn, format, args...) }

// Error logs unrecoverable failures. It prints regardless of verbose mode.
func Error(format string, args ...any) { logf(slog.LevelError, format, args...) }

// Section prints a header between phases in verbose mode.
func Section(name string) {
	if !IsVerbose() {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, "\n=== %s ===\n", name)
}

// handler renders records as "[LEVEL] message key=value ...".
type handler struct {
	attrs []slog.Attr
	group string
}

func (h *handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= level.Level()
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(r.Level.String())
	b.WriteString("] ")
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})
	b.WriteString("\n")

	mu.RLock()
	defer mu.RUnlock()
	_, err := io.WriteString(output, b.String())
	return err
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &handler{group: h.group, attrs: make([]slog.Attr, 0, len(h.attrs)+len(attrs))}
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return next
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	g := name
	if h.group != "" {
		g = h.group + "." + name
	}
	return &handler{attrs: h.attrs, group: g}
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, sub := range a.Value.Group() {
			writeAttr(b, key, sub)
		}
		return
	}
	fmt.Fprintf(b, " %s=%v", key, a.Value.Any())
}
