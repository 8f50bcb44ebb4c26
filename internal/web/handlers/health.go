package handlers

import (
	"context"
	"net/http"
	"time"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusOK        = "ok"
	healthStatusUnhealthy = "unhealthy"
	readinessTimeout      = 2 * time.Second
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Version string            `json:"version,omitempty"`
}

// healthzHandler handles liveness probes (/healthz)
func (h *Handler) healthzHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  healthStatusOK,
		Version: h.opts.Version,
	})
}

// readyzHandler handles readiness probes (/readyz).
// Ready when the store answers a ping and, if configured, the identity
// provider reports ready.
func (h *Handler) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.container.Store().Ping(ctx); err != nil {
		h.logger.Warn(ctx).Err(err).Msg("Readiness: settings store unreachable")
		checks["database"] = healthStatusUnhealthy
		allHealthy = false
	} else {
		checks["database"] = healthStatusHealthy
	}

	if idp := h.container.IdentityProvider(); idp != nil {
		status := idp.Check(ctx)
		if status.Healthy {
			checks["identity_provider"] = healthStatusHealthy
		} else {
			h.logger.Warn(ctx).Str("detail", status.Message).Msg("Readiness: identity provider not ready")
			checks["identity_provider"] = healthStatusUnhealthy
			allHealthy = false
		}
	}

	response := HealthResponse{
		Status:  healthStatusOK,
		Checks:  checks,
		Version: h.opts.Version,
	}
	code := http.StatusOK
	if !allHealthy {
		response.Status = healthStatusUnhealthy
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, response)
}
