package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorResponse is the body of every error answer
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func (h *Handler) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return h.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (h *Handler) endSpan(span trace.Span) {
	span.End()
}

func (h *Handler) setSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

func (h *Handler) addSpanEvent(span trace.Span, name string) {
	span.AddEvent(name)
}

func (h *Handler) setSpanStatus(span trace.Span, code codes.Code, description string) {
	span.SetStatus(code, description)
}

// handleError records err on the span. Only server-side failures mark the
// span as failed and are logged at error level.
func (h *Handler) handleError(ctx context.Context, span trace.Span, err error, status int, logMsg string) {
	span.RecordError(err)
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, logMsg)
		h.logger.Error(ctx).Err(err).Int("status", status).Msg(logMsg)
		return
	}
	h.logger.Debug(ctx).Err(err).Int("status", status).Msg(logMsg)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // Best effort response
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Status: status})
}
