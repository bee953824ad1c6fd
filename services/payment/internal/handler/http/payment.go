package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/orderforge/commerce/pkg/httputil"
	"github.com/orderforge/commerce/pkg/validator"
	"github.com/orderforge/commerce/services/payment/internal/service"
)

// PaymentHandler handles HTTP requests for payment endpoints.
type PaymentHandler struct {
	service *service.PaymentService
	logger  *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler.
func NewPaymentHandler(svc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// InitiateRequest is the JSON request body for opening a payment. The amounts
// are the order's price snapshot at this instant; any of them may be absent.
type InitiateRequest struct {
	OrderID       string           `json:"order_id" validate:"required,uuid"`
	ProductPrice  *decimal.Decimal `json:"product_price"`
	TotalPayment  *decimal.Decimal `json:"total_payment"`
	DeliveryPrice *decimal.Decimal `json:"delivery_price"`
}

// ProductsRequest is the JSON request body carrying a product-quantity map.
type ProductsRequest struct {
	Products map[string]int64 `json:"products"`
}

// TotalCostRequest is the JSON request body for the grand total calculation.
type TotalCostRequest struct {
	Products      map[string]int64 `json:"products"`
	DeliveryPrice *decimal.Decimal `json:"delivery_price"`
}

// --- Handlers ---

// Initiate handles POST /api/v1/payment
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req InitiateRequest
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

	payment, err := h.service.Initiate(r.Context(), service.InitiateInput{
		OrderID:       req.OrderID,
		ProductPrice:  req.ProductPrice,
		TotalPayment:  req.TotalPayment,
		DeliveryPrice: req.DeliveryPrice,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: payment})
}

// ProductCost handles POST /api/v1/payment/productCost
func (h *PaymentHandler) ProductCost(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	total, err := h.service.ProductsTotal(r.Context(), req.Products)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]decimal.Decimal{"product_price": total})
}

// TotalCost handles POST /api/v1/payment/totalCost
func (h *PaymentHandler) TotalCost(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req TotalCostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	total, err := h.service.GrandTotal(r.Context(), req.Products, req.DeliveryPrice)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]decimal.Decimal{"total_price": total})
}

// EmulateSuccess handles POST /api/v1/payment/{paymentId}
func (h *PaymentHandler) EmulateSuccess(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := httputil.ParseUUID(w, chi.URLParam(r, "paymentId"))
	if !ok {
		return
	}

	payment, err := h.service.EmulateSuccess(r.Context(), paymentID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, payment)
}

// EmulateDecline handles POST /api/v1/payment/{paymentId}/failed
func (h *PaymentHandler) EmulateDecline(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := httputil.ParseUUID(w, chi.URLParam(r, "paymentId"))
	if !ok {
		return
	}

	payment, err := h.service.EmulateDecline(r.Context(), paymentID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, payment)
}
