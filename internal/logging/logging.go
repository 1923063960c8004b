// Package logging wraps log/slog the way the wider retrieved corpus does
// for emulator/assembler tooling: a single text handler that always
// writes to stderr, with a debug flag that raises the visible level.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler formats records as "time level message attr attr..." on one
// line, the same shape the corpus's emulator tooling favors over slog's
// default key=value text output for a human-watched console.
type Handler struct {
	out   io.Writer
	inner slog.Handler
	attrs []slog.Attr
	mu    *sync.Mutex
	debug bool
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &Handler{out: h.out, inner: h.inner.WithAttrs(attrs), attrs: merged, mu: h.mu, debug: h.debug}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithGroup(name), attrs: h.attrs, mu: h.mu, debug: h.debug}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("15:04:05"), r.Level.String() + ":", r.Message}
	for _, a := range h.attrs {
		parts = append(parts, a.Key+"="+a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})
	line := strings.Join(parts, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write([]byte(line))
	return err
}

// New builds a Handler writing to out. debug raises the minimum level to
// slog.LevelDebug; otherwise only Info and above are emitted.
func New(out io.Writer, debug bool) *Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return &Handler{
		out:   out,
		inner: slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level}),
		mu:    &sync.Mutex{},
		debug: debug,
	}
}

// Default builds a ready-to-use *slog.Logger writing to stderr.
func Default(debug bool) *slog.Logger {
	return slog.New(New(os.Stderr, debug))
}
