package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/orderforge/commerce/pkg/httputil"
	"github.com/orderforge/commerce/pkg/validator"
	"github.com/orderforge/commerce/services/warehouse/internal/domain"
	"github.com/orderforge/commerce/services/warehouse/internal/service"
)

// WarehouseHandler handles HTTP requests for warehouse endpoints.
type WarehouseHandler struct {
	service *service.WarehouseService
	logger  *slog.Logger
}

// NewWarehouseHandler creates a new warehouse HTTP handler.
func NewWarehouseHandler(svc *service.WarehouseService, logger *slog.Logger) *WarehouseHandler {
	return &WarehouseHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// RegisterProductRequest is the JSON request body for registering a product.
type RegisterProductRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Weight    decimal.Decimal `json:"weight" validate:"required"`
	Width     decimal.Decimal `json:"width" validate:"required"`
	Height    decimal.Decimal `json:"height" validate:"required"`
	Depth     decimal.Decimal `json:"depth" validate:"required"`
	Fragile   bool            `json:"fragile"`
}

// RestockRequest is the JSON request body for adding stock.
type RestockRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

// ProductsRequest is the JSON request body carrying a product-quantity map.
type ProductsRequest struct {
	Products map[string]int64 `json:"products"`
}

// AssemblyRequest is the JSON request body for assembling an order's booking.
type AssemblyRequest struct {
	OrderID  string           `json:"order_id" validate:"required,uuid"`
	Products map[string]int64 `json:"products" validate:"required,min=1,dive,gt=0"`
}

// ShippedRequest is the JSON request body for attaching a delivery to a booking.
type ShippedRequest struct {
	OrderID    string `json:"order_id" validate:"required,uuid"`
	DeliveryID string `json:"delivery_id" validate:"required,uuid"`
}

// --- Handlers ---

// RegisterProduct handles PUT /api/v1/warehouse
func (h *WarehouseHandler) RegisterProduct(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RegisterProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	stock := &domain.ProductStock{
		ProductID: req.ProductID,
		Weight:    req.Weight,
		Width:     req.Width,
		Height:    req.Height,
		Depth:     req.Depth,
		Fragile:   req.Fragile,
	}

	result, err := h.service.RegisterProduct(r.Context(), stock)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// Restock handles POST /api/v1/warehouse/add
func (h *WarehouseHandler) Restock(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RestockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	stock, err := h.service.Restock(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, stock)
}

// CheckBooking handles POST /api/v1/warehouse/check
func (h *WarehouseHandler) CheckBooking(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	summary, err := h.service.ProjectBooking(r.Context(), req.Products)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, summary)
}

// Assemble handles POST /api/v1/warehouse/assembly
func (h *WarehouseHandler) Assemble(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AssemblyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.Assemble(r.Context(), req.OrderID, req.Products); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]string{
		"order_id": req.OrderID,
		"status":   "assembled",
	})
}

// Return handles POST /api/v1/warehouse/return
func (h *WarehouseHandler) Return(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := h.service.ReturnToStock(r.Context(), req.Products); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]string{"status": "returned"})
}

// Shipped handles POST /api/v1/warehouse/shipped
func (h *WarehouseHandler) Shipped(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ShippedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.AttachDelivery(r.Context(), req.OrderID, req.DeliveryID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]string{
		"order_id":    req.OrderID,
		"delivery_id": req.DeliveryID,
		"status":      "shipped",
	})
}

// Address handles GET /api/v1/warehouse/address
func (h *WarehouseHandler) Address(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, h.service.Address())
}
