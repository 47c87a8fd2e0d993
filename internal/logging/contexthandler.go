package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// ContextProvider returns attributes describing the live mission (tick, state).
type ContextProvider func() []slog.Attr

// ContextSource holds the provider shared by a handler and all of its derived handlers.
// The provider can be swapped after loggers have been handed out.
type ContextSource struct {
	p atomic.Pointer[ContextProvider]
}

// Set installs p. A nil p disables injection.
func (s *ContextSource) Set(p ContextProvider) {
	if p == nil {
		s.p.Store(nil)
		return
	}
	s.p.Store(&p)
}

func (s *ContextSource) attrs() []slog.Attr {
	if s == nil {
		return nil
	}
	p := s.p.Load()
	if p == nil {
		return nil
	}
	return (*p)()
}

// ContextHandler wraps another handler and injects the current context attributes.
type ContextHandler struct {
	inner  slog.Handler
	source *ContextSource
}

// NewContextHandler creates a handler that adds dynamic context to each record.
func NewContextHandler(inner slog.Handler, source *ContextSource) *ContextHandler {
	return &ContextHandler{inner: inner, source: source}
}

// Enabled delegates to the inner handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds dynamic context attributes and delegates to the inner handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := h.source.attrs(); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler with the given attributes.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), source: h.source}
}

// WithGroup returns a new ContextHandler with the given group.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), source: h.source}
}
