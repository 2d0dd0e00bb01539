package logging

import (
	"context"
	"log/slog"
)

// AttrProvider supplies per-invocation attributes, typically the active
// session's command and recording name.
type AttrProvider func() []slog.Attr

// sessionHandler stamps the provider's current attributes on every record
// before handing it to the wrapped handler. The provider runs per record, so
// attributes set after setup (the recording is only known once a subcommand
// resolves its argument) still appear.
type sessionHandler struct {
	inner    slog.Handler
	provider AttrProvider
}

// WithSessionAttrs wraps a handler so every record carries the provider's
// attributes. A nil provider returns the handler unchanged.
func WithSessionAttrs(inner slog.Handler, provider AttrProvider) slog.Handler {
	if provider == nil {
		return inner
	}
	return &sessionHandler{inner: inner, provider: provider}
}

func (h *sessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *sessionHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := h.provider(); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *sessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sessionHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *sessionHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &sessionHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}
