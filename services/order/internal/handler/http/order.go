package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orderforge/commerce/pkg/httputil"
	"github.com/orderforge/commerce/pkg/pagination"
	"github.com/orderforge/commerce/pkg/validator"
	"github.com/orderforge/commerce/services/order/internal/domain"
	"github.com/orderforge/commerce/services/order/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddressRequest is the JSON shape of a postal address.
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

// ShoppingCartRequest is the cart snapshot an order is created from.
type ShoppingCartRequest struct {
	CartID   string           `json:"cart_id" validate:"required,uuid"`
	Products map[string]int64 `json:"products" validate:"required,min=1,dive,gt=0"`
}

// CreateOrderRequest is the JSON request body for creating an order.
type CreateOrderRequest struct {
	ShoppingCart    ShoppingCartRequest `json:"shopping_cart" validate:"required"`
	DeliveryAddress AddressRequest      `json:"delivery_address" validate:"required"`
}

// ReturnRequest is the JSON request body for returning an order's products.
type ReturnRequest struct {
	Products map[string]int64 `json:"products" validate:"required,min=1,dive,gt=0"`
}

// --- Handlers ---

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateOrderRequest
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

	order, err := h.service.CreateOrder(r.Context(), service.CreateOrderInput{
		CartID:          req.ShoppingCart.CartID,
		Products:        req.ShoppingCart.Products,
		DeliveryAddress: req.DeliveryAddress.toDomain(),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// List handles GET /api/v1/orders?username=&page=&per_page=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	params := pagination.FromRequest(r)

	orders, total, err := h.service.ListByUsername(r.Context(), username, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, pagination.NewResult(orders, total, params))
}

// GetByID handles GET /api/v1/orders/{orderId}
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	order, err := h.service.GetByID(r.Context(), orderID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, order)
}

// Assemble handles POST /api/v1/orders/{orderId}/assembly
func (h *OrderHandler) Assemble(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.Assemble)
}

// AssemblyFailed handles POST /api/v1/orders/{orderId}/assembly/failed
func (h *OrderHandler) AssemblyFailed(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.MarkAssemblyFailed)
}

// Pay handles POST /api/v1/orders/{orderId}/payment
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.Pay)
}

// PaymentFailed handles POST /api/v1/orders/{orderId}/payment/failed
func (h *OrderHandler) PaymentFailed(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.MarkPaymentFailed)
}

// Deliver handles POST /api/v1/orders/{orderId}/delivery
func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.Deliver)
}

// DeliveryFailed handles POST /api/v1/orders/{orderId}/delivery/failed
func (h *OrderHandler) DeliveryFailed(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.MarkDeliveryFailed)
}

// Complete handles POST /api/v1/orders/{orderId}/completed
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.Complete)
}

// CalculateTotal handles POST /api/v1/orders/{orderId}/calculate/total
func (h *OrderHandler) CalculateTotal(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.CalculateTotal)
}

// CalculateDelivery handles POST /api/v1/orders/{orderId}/calculate/delivery
func (h *OrderHandler) CalculateDelivery(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.CalculateDeliveryCost)
}

// Cancel handles POST /api/v1/orders/{orderId}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.Cancel)
}

// Return handles POST /api/v1/orders/{orderId}/return
func (h *OrderHandler) Return(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ReturnRequest
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

	order, err := h.service.Return(r.Context(), orderID.String(), req.Products)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, order)
}

// runTransition parses the order id and invokes a body-less lifecycle step.
func (h *OrderHandler) runTransition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, orderID string) (*domain.Order, error),
) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	order, err := fn(r.Context(), orderID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, order)
}
