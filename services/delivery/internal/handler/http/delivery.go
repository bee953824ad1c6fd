package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/orderforge/commerce/pkg/httputil"
	"github.com/orderforge/commerce/pkg/validator"
	"github.com/orderforge/commerce/services/delivery/internal/domain"
	"github.com/orderforge/commerce/services/delivery/internal/service"
)

// DeliveryHandler handles HTTP requests for delivery endpoints.
type DeliveryHandler struct {
	service *service.DeliveryService
	logger  *slog.Logger
}

// NewDeliveryHandler creates a new delivery HTTP handler.
func NewDeliveryHandler(svc *service.DeliveryService, logger *slog.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddressRequest is the JSON shape of a postal address. Street is the only
// required component.
type AddressRequest struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Street  string `json:"street" validate:"required"`
	House   string `json:"house"`
	Flat    string `json:"flat"`
}

func (a AddressRequest) toDomain() domain.Address {
	return domain.Address{
		Country: a.Country,
		City:    a.City,
		Street:  a.Street,
		House:   a.House,
		Flat:    a.Flat,
	}
}

// CreateDeliveryRequest is the JSON request body for registering a shipment.
type CreateDeliveryRequest struct {
	OrderID     string         `json:"order_id" validate:"required,uuid"`
	FromAddress AddressRequest `json:"from_address" validate:"required"`
	ToAddress   AddressRequest `json:"to_address" validate:"required"`
}

// OrderRequest is the JSON request body for the order-keyed transitions.
type OrderRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
}

// CostRequest is the JSON request body carrying the order snapshot to price.
type CostRequest struct {
	ToAddress AddressRequest   `json:"to_address" validate:"required"`
	Fragile   bool             `json:"fragile"`
	Weight    *decimal.Decimal `json:"delivery_weight"`
	Volume    *decimal.Decimal `json:"delivery_volume"`
}

// --- Handlers ---

// CreateDelivery handles PUT /api/v1/delivery
func (h *DeliveryHandler) CreateDelivery(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateDeliveryRequest
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

	delivery, err := h.service.CreateDelivery(r.Context(), req.OrderID, req.FromAddress.toDomain(), req.ToAddress.toDomain())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: delivery})
}

// PickUp handles POST /api/v1/delivery/picked
func (h *DeliveryHandler) PickUp(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeOrderRequest(w, r)
	if !ok {
		return
	}

	delivery, err := h.service.PickUp(r.Context(), req.OrderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, delivery)
}

// EmulatePickup handles POST /api/v1/delivery/picked/emulate
func (h *DeliveryHandler) EmulatePickup(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeOrderRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.EmulatePickup(r.Context(), req.OrderID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]string{
		"order_id": req.OrderID,
		"status":   "pickup emulated",
	})
}

// Delivered handles POST /api/v1/delivery/successful
func (h *DeliveryHandler) Delivered(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeOrderRequest(w, r)
	if !ok {
		return
	}

	delivery, err := h.service.EmulateDelivered(r.Context(), req.OrderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, delivery)
}

// Failed handles POST /api/v1/delivery/failed
func (h *DeliveryHandler) Failed(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeOrderRequest(w, r)
	if !ok {
		return
	}

	delivery, err := h.service.EmulateFailed(r.Context(), req.OrderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, delivery)
}

// Cost handles POST /api/v1/delivery/cost
func (h *DeliveryHandler) Cost(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CostRequest
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

	cost, err := h.service.CalculateCost(r.Context(), service.CostRequest{
		DestinationStreet: req.ToAddress.Street,
		Fragile:           req.Fragile,
		Weight:            req.Weight,
		Volume:            req.Volume,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]decimal.Decimal{"delivery_cost": cost})
}

// decodeOrderRequest reads and validates the common order-keyed request body.
func (h *DeliveryHandler) decodeOrderRequest(w http.ResponseWriter, r *http.Request) (OrderRequest, bool) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return OrderRequest{}, false
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return OrderRequest{}, false
	}

	return req, true
}
