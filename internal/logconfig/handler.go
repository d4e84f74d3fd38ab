package logconfig

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/cherubic/NLog/internal/lifecycle"
)

// Handler is a slog.Handler that routes records through whatever Document
// is installed in an instance.
type Handler struct {
	inst *lifecycle.Instance
	ops  []func(slog.Handler) slog.Handler

	// cache holds the derived handler for the most recently seen document.
	cache *atomic.Pointer[derived]
}

type derived struct {
	doc     *Document
	handler slog.Handler
}

// NewHandler returns a handler bound to inst.
func NewHandler(inst *lifecycle.Instance) *Handler {
	return &Handler{
		inst:  inst,
		cache: new(atomic.Pointer[derived]),
	}
}

// Enabled reports whether the instance is enabled and the active document
// accepts level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if !h.inst.IsLoggingEnabled() {
		return false
	}
	active := h.active()
	if active == nil {
		return false
	}
	return active.Enabled(ctx, level)
}

// Handle writes r through the active document's handler. Records are
// dropped while the instance is suspended or nothing is installed.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if !h.inst.IsLoggingEnabled() {
		return nil
	}
	active := h.active()
	if active == nil {
		return nil
	}
	return active.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.derive(func(next slog.Handler) slog.Handler {
		return next.WithAttrs(attrs)
	})
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(func(next slog.Handler) slog.Handler {
		return next.WithGroup(name)
	})
}

func (h *Handler) derive(op func(slog.Handler) slog.Handler) *Handler {
	ops := make([]func(slog.Handler) slog.Handler, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &Handler{
		inst:  h.inst,
		ops:   append(ops, op),
		cache: new(atomic.Pointer[derived]),
	}
}

// active returns the handler for the installed document, or nil.
func (h *Handler) active() slog.Handler {
	doc, ok := h.inst.GetConfiguration().(*Document)
	if !ok || doc == nil {
		return nil
	}

	if cached := h.cache.Load(); cached != nil && cached.doc == doc {
		return cached.handler
	}

	handler := doc.Handler()
	for _, op := range h.ops {
		handler = op(handler)
	}
	h.cache.Store(&derived{doc: doc, handler: handler})
	return handler
}
