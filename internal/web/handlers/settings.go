package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"user-management/internal/domain/settings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	msgUnauthorized    = "unauthorized"
	msgNotFound        = "settings not found"
	msgInvalidBody     = "invalid request body"
	msgInvalidSettings = "invalid settings"
)

// getSettingsHandler returns the caller's settings (GET /settings/)
func (h *Handler) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r.Context(), "GetSettingsHandler",
		attribute.String("handler", "get_settings"),
	)
	defer h.endSpan(span)

	result, err := h.container.SettingsService().FetchSettings(ctx)
	switch {
	case errors.Is(err, settings.ErrUnauthorized):
		h.handleError(ctx, span, err, http.StatusUnauthorized, "Settings read without identity")
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	case errors.Is(err, settings.ErrNotFound):
		h.handleError(ctx, span, err, http.StatusNotFound, "Settings not found")
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	case err != nil:
		h.handleError(ctx, span, err, http.StatusInternalServerError, "Failed to get settings")
		writeError(w, http.StatusInternalServerError, settings.ErrInternal.Error())
		return
	}

	h.setSpanAttributes(span, attribute.String("settings.document_id", result.ID))
	h.addSpanEvent(span, "settings_retrieved")
	h.setSpanStatus(span, codes.Ok, "")

	writeJSON(w, http.StatusOK, result)
}

// upsertSettingsHandler creates or replaces the caller's settings (POST /settings/)
func (h *Handler) upsertSettingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r.Context(), "UpsertSettingsHandler",
		attribute.String("handler", "upsert_settings"),
	)
	defer h.endSpan(span)

	// an unidentified caller gets 401 whatever the body holds
	if _, ok := h.container.Identity().Subject(ctx); !ok {
		h.handleError(ctx, span, settings.ErrUnauthorized, http.StatusUnauthorized, "Settings write without identity")
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req settings.UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty request body")
		}
		h.handleError(ctx, span, err, http.StatusBadRequest, "Failed to decode request body")
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	h.addSpanEvent(span, "request_decoded")

	result, err := h.container.SettingsService().UpsertSettings(ctx, &req)
	switch {
	case errors.Is(err, settings.ErrUnauthorized):
		h.handleError(ctx, span, err, http.StatusUnauthorized, "Settings write without identity")
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	case errors.Is(err, settings.ErrInvalidSettings):
		h.handleError(ctx, span, err, http.StatusBadRequest, "Invalid settings submitted")
		writeError(w, http.StatusBadRequest, msgInvalidSettings)
		return
	case err != nil:
		h.handleError(ctx, span, err, http.StatusInternalServerError, "Failed to upsert settings")
		writeError(w, http.StatusInternalServerError, settings.ErrInternal.Error())
		return
	}

	h.setSpanAttributes(span,
		attribute.String("settings.document_id", result.Settings.ID),
		attribute.Bool("settings.created", result.Created),
	)
	h.setSpanStatus(span, codes.Ok, "")

	if !result.Created {
		h.addSpanEvent(span, "settings_updated")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.addSpanEvent(span, "settings_created")
	w.Header().Set("Location", "/settings/"+url.PathEscape(result.Settings.UserID))
	writeJSON(w, http.StatusCreated, result.Settings)
}
