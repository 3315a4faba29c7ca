// Package logger provides slog handlers that enrich records from the request context.
package logger

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// RequestIDKey is the attribute key of the request id.
const RequestIDKey = "request_id"

// ContextHandler is a wrapper around slog.Handler that adds the trace id and
// request id found in the context passed to the *Context logging methods.
// The request id is skipped when the logger already carries one from With.
type ContextHandler struct {
	slog.Handler
	hasRequestID bool
}

// NewContextHandler creates a new ContextHandler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{
		Handler: handler,
	}
}

// Handle processes a log record and adds context information.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
			r.AddAttrs(
				slog.String("trace_id", span.SpanContext().TraceID().String()),
				slog.String("span_id", span.SpanContext().SpanID().String()),
			)
		}
		if reqID := middleware.GetReqID(ctx); reqID != "" && !h.hasRequestID {
			r.AddAttrs(slog.String(RequestIDKey, reqID))
		}
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler with the given attributes added.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hasRequestID := h.hasRequestID
	for _, a := range attrs {
		if a.Key == RequestIDKey {
			hasRequestID = true
			break
		}
	}
	return &ContextHandler{
		Handler:      h.Handler.WithAttrs(attrs),
		hasRequestID: hasRequestID,
	}
}

// WithGroup returns a new ContextHandler with the given group added.
func (h *ContextHandler) WithGroup(group string) slog.Handler {
	return &ContextHandler{
		Handler:      h.Handler.WithGroup(group),
		hasRequestID: h.hasRequestID,
	}
}
