package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderforge/commerce/pkg/health"
	"github.com/orderforge/commerce/pkg/middleware"
	"github.com/orderforge/commerce/services/payment/internal/service"
)

// RouterConfig carries the router-level knobs for the payment service.
type RouterConfig struct {
	PprofAllowedCIDRs []string
	// EmulateRPS and EmulateBurst throttle the unauthenticated emulate
	// endpoints, which trigger outbound calls to the order coordinator.
	EmulateRPS   float64
	EmulateBurst int
}

// NewRouter creates a chi router with all payment service routes registered.
func NewRouter(
	paymentService *service.PaymentService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("payment"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("payment"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	// Payment API endpoints
	paymentHandler := NewPaymentHandler(paymentService, logger)

	r.Route("/api/v1/payment", func(r chi.Router) {
		r.Post("/", paymentHandler.Initiate)
		r.Post("/productCost", paymentHandler.ProductCost)
		r.Post("/totalCost", paymentHandler.TotalCost)

		// The emulate endpoints stand in for the payment provider and are
		// not authenticated, so they are rate limited.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.EmulateRPS, cfg.EmulateBurst, logger))
			r.Post("/{paymentId}", paymentHandler.EmulateSuccess)
			r.Post("/{paymentId}/failed", paymentHandler.EmulateDecline)
		})
	})

	return r
}
