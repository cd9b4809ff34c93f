package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nucleo-health/appointments-service/internal/metrics"
	"github.com/nucleo-health/appointments-service/internal/scheduling"
)

type RouterConfig struct {
	Coordinator *scheduling.Coordinator
	Logger      zerolog.Logger
	Metrics     *metrics.Collector
	Registry    *prometheus.Registry
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(MetricsMiddleware(cfg.Metrics))

	if cfg.PgPool != nil && cfg.Redis != nil {
		health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
		r.Get("/health/live", health.Liveness)
		r.Get("/health/ready", health.Readiness)
	}
	if cfg.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/availabilities", func(r chi.Router) {
		r.Post("/", createAvailabilityHandler(cfg.Coordinator, cfg.Logger))
		r.Get("/", listAvailabilitiesHandler(cfg.Coordinator, cfg.Logger))
		r.Get("/{id}", getAvailabilityHandler(cfg.Coordinator, cfg.Logger))
		r.Put("/{id}", updateAvailabilityHandler(cfg.Coordinator, cfg.Logger))
		r.Delete("/{id}", cancelAvailabilityHandler(cfg.Coordinator, cfg.Logger))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Coordinator, cfg.Logger))
		r.Get("/", listAppointmentsHandler(cfg.Coordinator, cfg.Logger))
		r.Get("/{id}", getAppointmentHandler(cfg.Coordinator, cfg.Logger))
		r.Put("/{id}", updateAppointmentHandler(cfg.Coordinator, cfg.Logger))
		r.Delete("/{id}", cancelAppointmentHandler(cfg.Coordinator, cfg.Logger))
	})

	return r
}
