package handlers

import (
	"net/http"

	"user-management/internal/observability"
	"user-management/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-pkgz/rest"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	appName   = "user-management-api"
	appAuthor = "finance"
)

// Options configures the HTTP surface
type Options struct {
	// Authenticate guards the settings routes
	Authenticate func(http.Handler) http.Handler
	// Metrics is optional; nil disables HTTP metrics
	Metrics     *observability.HTTPMetrics
	MaxBodySize int64
	Version     string
}

type Handler struct {
	container *services.Container
	logger    *observability.Logger
	tracer    trace.Tracer
	opts      Options
}

func New(container *services.Container, opts Options) *Handler {
	return &Handler{
		container: container,
		logger:    container.Logger(),
		tracer:    otel.Tracer("user-management/handlers"),
		opts:      opts,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware(observability.GetTracer()))
	if h.opts.Metrics != nil {
		r.Use(observability.MetricsMiddleware(h.opts.Metrics))
	}
	r.Use(observability.RequestLogging(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(rest.AppInfo(appName, appAuthor, h.opts.Version))

	// Probes
	r.Get("/healthz", h.healthzHandler)
	r.Get("/readyz", h.readyzHandler)

	r.Route("/settings", func(r chi.Router) {
		if h.opts.Authenticate != nil {
			r.Use(h.opts.Authenticate)
		}
		if h.opts.MaxBodySize > 0 {
			r.Use(rest.SizeLimit(h.opts.MaxBodySize))
		}
		r.Get("/", h.getSettingsHandler)
		r.Post("/", h.upsertSettingsHandler)
	})

	return r
}
