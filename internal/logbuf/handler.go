package logbuf

import (
	"context"
	"log/slog"
	"maps"
)

// Handler is an slog.Handler that captures every record into a Buffer,
// whatever its level, and delegates to an inner handler that keeps its
// own level filter.
type Handler struct {
	inner  slog.Handler
	buf    *Buffer
	attrs  map[string]any // pre-bound attrs, already qualified
	prefix string         // open groups joined with "."
}

// NewHandler creates a handler that writes to both buf and inner.
func NewHandler(inner slog.Handler, buf *Buffer) *Handler {
	return &Handler{inner: inner, buf: buf}
}

func (h *Handler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	attrs := maps.Clone(h.attrs)
	if attrs == nil {
		attrs = make(map[string]any, r.NumAttrs())
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(attrs, h.prefix, a)
		return true
	})
	if len(attrs) == 0 {
		attrs = nil
	}

	h.buf.Write(Entry{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
		Attrs:   attrs,
	})

	if h.inner.Enabled(ctx, r.Level) {
		return h.inner.Handle(ctx, r)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := maps.Clone(h.attrs)
	if bound == nil {
		bound = make(map[string]any, len(attrs))
	}
	for _, a := range attrs {
		flatten(bound, h.prefix, a)
	}
	return &Handler{
		inner:  h.inner.WithAttrs(attrs),
		buf:    h.buf,
		attrs:  bound,
		prefix: h.prefix,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{
		inner:  h.inner.WithGroup(name),
		buf:    h.buf,
		attrs:  h.attrs,
		prefix: qualify(h.prefix, name),
	}
}

// flatten stores a into dst under its dotted key. Group values are
// expanded; errors are stored as their message so they survive JSON
// encoding.
func flatten(dst map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = qualify(prefix, a.Key)
		}
		for _, ga := range v.Group() {
			flatten(dst, p, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	raw := v.Any()
	if err, ok := raw.(error); ok {
		raw = err.Error()
	}
	dst[qualify(prefix, a.Key)] = raw
}

func qualify(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
