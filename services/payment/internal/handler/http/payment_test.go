package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/orderforge/commerce/pkg/errors"
	"github.com/orderforge/commerce/pkg/httputil"
	pkgkafka "github.com/orderforge/commerce/pkg/kafka"
	"github.com/orderforge/commerce/services/payment/internal/domain"
	"github.com/orderforge/commerce/services/payment/internal/event"
	"github.com/orderforge/commerce/services/payment/internal/service"
)

// ============================================================================
// Mocks
// ============================================================================

type mockPaymentRepository struct {
	mock.Mock
}

func (m *mockPaymentRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockPaymentRepository) GetByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) UpdateState(ctx context.Context, paymentID string, state domain.PaymentState) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

type mockPriceSource struct {
	mock.Mock
}

func (m *mockPriceSource) GetPrices(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

type mockOrderClient struct {
	mock.Mock
}

func (m *mockOrderClient) NotifyPaid(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *mockOrderClient) NotifyPaymentFailed(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

// ============================================================================
// Test Helpers
// ============================================================================

const (
	orderUUID   = "550e8400-e29b-41d4-a716-446655440001"
	paymentUUID = "550e8400-e29b-41d4-a716-446655440003"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testHandler(repo *mockPaymentRepository, prices *mockPriceSource, order *mockOrderClient) *PaymentHandler {
	logger := testLogger()
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	producer := event.NewProducer(kafkaProducer, logger)
	svc := service.NewPaymentService(repo, prices, order, producer, logger)
	return NewPaymentHandler(svc, logger)
}

// setupRouter creates a chi router matching the production route layout.
func setupRouter(handler *PaymentHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/payment", func(r chi.Router) {
		r.Post("/", handler.Initiate)
		r.Post("/productCost", handler.ProductCost)
		r.Post("/totalCost", handler.TotalCost)
		r.Post("/{paymentId}", handler.EmulateSuccess)
		r.Post("/{paymentId}/failed", handler.EmulateDecline)
	})
	return r
}

func doRequest(t *testing.T, router *chi.Mux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func storedPayment(state domain.PaymentState) *domain.Payment {
	return &domain.Payment{
		PaymentID:     paymentUUID,
		OrderID:       orderUUID,
		State:         state,
		TotalPayment:  dec("130.00"),
		DeliveryTotal: dec("20.00"),
		FeeTotal:      dec("10.00"),
	}
}

// ============================================================================
// Tests
// ============================================================================

func TestInitiate_Created(t *testing.T) {
	repo := new(mockPaymentRepository)
	router := setupRouter(testHandler(repo, new(mockPriceSource), new(mockOrderClient)))

	repo.On("CreatePayment", mock.Anything, mock.Anything).Return(nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payment", map[string]any{
		"order_id":       orderUUID,
		"product_price":  "100",
		"total_payment":  "130",
		"delivery_price": "20",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, orderUUID, data["order_id"])
	assert.Equal(t, string(domain.StatePending), data["state"])
	assert.Equal(t, "10", data["fee_total"])
}

func TestInitiate_InvalidOrderID(t *testing.T) {
	router := setupRouter(testHandler(new(mockPaymentRepository), new(mockPriceSource), new(mockOrderClient)))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payment", map[string]any{
		"order_id": "not-a-uuid",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductCost_Success(t *testing.T) {
	prices := new(mockPriceSource)
	router := setupRouter(testHandler(new(mockPaymentRepository), prices, new(mockOrderClient)))

	prices.On("GetPrices", mock.Anything, mock.Anything).
		Return(map[string]decimal.Decimal{"prod-1": dec("10")}, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payment/productCost", map[string]any{
		"products": map[string]int64{"prod-1": 3},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "30", data["product_price"])
}

func TestProductCost_EmptyMapIsZero(t *testing.T) {
	router := setupRouter(testHandler(new(mockPaymentRepository), new(mockPriceSource), new(mockOrderClient)))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payment/productCost", map[string]any{})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "0", data["product_price"])
}

func TestProductCost_MissingPrice(t *testing.T) {
	prices := new(mockPriceSource)
	router := setupRouter(testHandler(new(mockPaymentRepository), prices, new(mockOrderClient)))

	prices.On("GetPrices", mock.Anything, mock.Anything).
		Return(map[string]decimal.Decimal{}, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payment/productCost", map[string]any{
		"products": map[string]int64{"prod-1": 1},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "insufficient pricing information")
}

func TestTotalCost_Success(t *testing.T) {
	prices := new(mockPriceSource)
	router := setupRouter(testHandler(new(mockPaymentRepository), prices, new(mockOrderClient)))

	prices.On("GetPrices", mock.Anything, mock.Anything).
		Return(map[string]decimal.Decimal{"prod-1": dec("100")}, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payment/totalCost", map[string]any{
		"products":       map[string]int64{"prod-1": 1},
		"delivery_price": "20",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "130", data["total_price"])
}

func TestEmulateSuccess_Settles(t *testing.T) {
	repo := new(mockPaymentRepository)
	order := new(mockOrderClient)
	router := setupRouter(testHandler(repo, new(mockPriceSource), order))

	repo.On("GetByID", mock.Anything, paymentUUID).Return(storedPayment(domain.StatePending), nil)
	order.On("NotifyPaid", mock.Anything, orderUUID).Return(nil)
	repo.On("UpdateState", mock.Anything, paymentUUID, domain.StateSuccess).
		Return(storedPayment(domain.StateSuccess), nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payment/"+paymentUUID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, string(domain.StateSuccess), data["state"])
}

func TestEmulateSuccess_CallbackFails(t *testing.T) {
	repo := new(mockPaymentRepository)
	order := new(mockOrderClient)
	router := setupRouter(testHandler(repo, new(mockPriceSource), order))

	repo.On("GetByID", mock.Anything, paymentUUID).Return(storedPayment(domain.StatePending), nil)
	order.On("NotifyPaid", mock.Anything, orderUUID).Return(errors.New("order is not on payment"))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payment/"+paymentUUID, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "UPSTREAM_FAILURE", resp.Error.Code)
	repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything)
}

func TestEmulateSuccess_InvalidPaymentID(t *testing.T) {
	router := setupRouter(testHandler(new(mockPaymentRepository), new(mockPriceSource), new(mockOrderClient)))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payment/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestEmulateDecline_AlreadySettledConflict(t *testing.T) {
	repo := new(mockPaymentRepository)
	router := setupRouter(testHandler(repo, new(mockPriceSource), new(mockOrderClient)))

	repo.On("GetByID", mock.Anything, paymentUUID).Return(storedPayment(domain.StateSuccess), nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payment/"+paymentUUID+"/failed", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "INVALID_STATE", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "invalid state for decline")
}

func TestEmulateDecline_UnknownPayment(t *testing.T) {
	repo := new(mockPaymentRepository)
	router := setupRouter(testHandler(repo, new(mockPriceSource), new(mockOrderClient)))

	repo.On("GetByID", mock.Anything, paymentUUID).
		Return(nil, apperrors.NotFound("payment", paymentUUID))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payment/"+paymentUUID+"/failed", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
