package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderforge/commerce/pkg/health"
	"github.com/orderforge/commerce/pkg/middleware"
	"github.com/orderforge/commerce/services/warehouse/internal/service"
)

// NewRouter creates a chi router with all warehouse service routes registered.
func NewRouter(
	warehouseService *service.WarehouseService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("warehouse"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("warehouse"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	middleware.RegisterPprof(r, pprofCIDRs, logger)

	// Warehouse API endpoints
	warehouseHandler := NewWarehouseHandler(warehouseService, logger)

	r.Route("/api/v1/warehouse", func(r chi.Router) {
		r.Put("/", warehouseHandler.RegisterProduct)
		r.Post("/add", warehouseHandler.Restock)
		r.Post("/check", warehouseHandler.CheckBooking)
		r.Post("/assembly", warehouseHandler.Assemble)
		r.Post("/return", warehouseHandler.Return)
		r.Post("/shipped", warehouseHandler.Shipped)
		r.Get("/address", warehouseHandler.Address)
	})

	return r
}
