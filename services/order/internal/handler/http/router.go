package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderforge/commerce/pkg/health"
	"github.com/orderforge/commerce/pkg/middleware"
	"github.com/orderforge/commerce/services/order/internal/service"
)

// RouterConfig carries the router-level knobs for the order service.
type RouterConfig struct {
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all order service routes registered.
func NewRouter(
	orderService *service.OrderService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("order"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("order"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	// Order API endpoints
	orderHandler := NewOrderHandler(orderService, logger)

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", orderHandler.Create)
		r.Get("/", orderHandler.List)
		r.Get("/{orderId}", orderHandler.GetByID)

		r.Post("/{orderId}/assembly", orderHandler.Assemble)
		r.Post("/{orderId}/assembly/failed", orderHandler.AssemblyFailed)
		r.Post("/{orderId}/payment", orderHandler.Pay)
		r.Post("/{orderId}/payment/failed", orderHandler.PaymentFailed)
		r.Post("/{orderId}/delivery", orderHandler.Deliver)
		r.Post("/{orderId}/delivery/failed", orderHandler.DeliveryFailed)
		r.Post("/{orderId}/completed", orderHandler.Complete)

		r.Post("/{orderId}/calculate/total", orderHandler.CalculateTotal)
		r.Post("/{orderId}/calculate/delivery", orderHandler.CalculateDelivery)

		r.Post("/{orderId}/return", orderHandler.Return)
		r.Post("/{orderId}/cancel", orderHandler.Cancel)
	})

	return r
}
