package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderforge/commerce/pkg/health"
	"github.com/orderforge/commerce/pkg/middleware"
	"github.com/orderforge/commerce/services/delivery/internal/service"
)

// RouterConfig carries the router-level knobs for the delivery service.
type RouterConfig struct {
	PprofAllowedCIDRs []string
	// EmulateRPS and EmulateBurst throttle the unauthenticated emulate
	// endpoints, which trigger outbound calls to the order coordinator.
	EmulateRPS   float64
	EmulateBurst int
}

// NewRouter creates a chi router with all delivery service routes registered.
func NewRouter(
	deliveryService *service.DeliveryService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("delivery"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("delivery"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	// Delivery API endpoints
	deliveryHandler := NewDeliveryHandler(deliveryService, logger)

	r.Route("/api/v1/delivery", func(r chi.Router) {
		r.Put("/", deliveryHandler.CreateDelivery)
		r.Post("/picked", deliveryHandler.PickUp)
		r.Post("/cost", deliveryHandler.Cost)

		// The emulate endpoints stand in for the courier and are not
		// authenticated, so they are rate limited.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.EmulateRPS, cfg.EmulateBurst, logger))
			r.Post("/picked/emulate", deliveryHandler.EmulatePickup)
			r.Post("/successful", deliveryHandler.Delivered)
			r.Post("/failed", deliveryHandler.Failed)
		})
	})

	return r
}
