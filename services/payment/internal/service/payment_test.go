package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/orderforge/commerce/pkg/errors"
	pkgkafka "github.com/orderforge/commerce/pkg/kafka"
	"github.com/orderforge/commerce/services/payment/internal/domain"
	"github.com/orderforge/commerce/services/payment/internal/event"
)

// --- Mock PaymentRepository ---

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

// --- Mock collaborators ---

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

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(repo *mockPaymentRepository, prices *mockPriceSource, order *mockOrderClient) *PaymentService {
	logger := newTestLogger()
	// Kafka producer fails silently in tests (no real broker); publish errors are logged, not returned.
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	producer := event.NewProducer(kafkaProducer, logger)
	return NewPaymentService(repo, prices, order, producer, logger)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func samplePayment(state domain.PaymentState) *domain.Payment {
	return &domain.Payment{
		PaymentID:     "pay-1",
		OrderID:       "ord-1",
		State:         state,
		TotalPayment:  dec("130.00"),
		DeliveryTotal: dec("20.00"),
		FeeTotal:      dec("10.00"),
	}
}

// --- Initiate ---

func TestInitiate_Success(t *testing.T) {
	repo := new(mockPaymentRepository)
	svc := newTestService(repo, new(mockPriceSource), new(mockOrderClient))
	ctx := context.Background()

	repo.On("CreatePayment", ctx, mock.AnythingOfType("*domain.Payment")).Return(nil)

	payment, err := svc.Initiate(ctx, InitiateInput{
		OrderID:       "ord-1",
		ProductPrice:  decPtr("100"),
		TotalPayment:  decPtr("130"),
		DeliveryPrice: decPtr("20"),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, payment.PaymentID)
	assert.Equal(t, domain.StatePending, payment.State)
	assert.Equal(t, "10.00", payment.FeeTotal.StringFixed(2))
	assert.Equal(t, "130.00", payment.TotalPayment.StringFixed(2))
	assert.Equal(t, "20.00", payment.DeliveryTotal.StringFixed(2))
	repo.AssertExpectations(t)
}

func TestInitiate_AbsentAmountsCountAsZero(t *testing.T) {
	repo := new(mockPaymentRepository)
	svc := newTestService(repo, new(mockPriceSource), new(mockOrderClient))
	ctx := context.Background()

	repo.On("CreatePayment", ctx, mock.AnythingOfType("*domain.Payment")).Return(nil)

	payment, err := svc.Initiate(ctx, InitiateInput{OrderID: "ord-1"})

	require.NoError(t, err)
	assert.True(t, payment.FeeTotal.IsZero())
	assert.True(t, payment.TotalPayment.IsZero())
	assert.True(t, payment.DeliveryTotal.IsZero())
}

func TestInitiate_MissingOrderID(t *testing.T) {
	svc := newTestService(new(mockPaymentRepository), new(mockPriceSource), new(mockOrderClient))

	_, err := svc.Initiate(context.Background(), InitiateInput{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- ProductsTotal ---

func TestProductsTotal_Success(t *testing.T) {
	prices := new(mockPriceSource)
	svc := newTestService(new(mockPaymentRepository), prices, new(mockOrderClient))
	ctx := context.Background()

	prices.On("GetPrices", ctx, mock.MatchedBy(func(ids []string) bool { return len(ids) == 2 })).
		Return(map[string]decimal.Decimal{"prod-1": dec("10"), "prod-2": dec("5")}, nil)

	total, err := svc.ProductsTotal(ctx, map[string]int64{"prod-1": 2, "prod-2": 4})

	require.NoError(t, err)
	assert.Equal(t, "40.00", total.StringFixed(2))
}

func TestProductsTotal_EmptyMapSkipsCatalog(t *testing.T) {
	prices := new(mockPriceSource)
	svc := newTestService(new(mockPaymentRepository), prices, new(mockOrderClient))

	total, err := svc.ProductsTotal(context.Background(), nil)

	require.NoError(t, err)
	assert.True(t, total.IsZero())
	prices.AssertNotCalled(t, "GetPrices", mock.Anything, mock.Anything)
}

func TestProductsTotal_MissingPrice(t *testing.T) {
	prices := new(mockPriceSource)
	svc := newTestService(new(mockPaymentRepository), prices, new(mockOrderClient))
	ctx := context.Background()

	prices.On("GetPrices", ctx, mock.Anything).
		Return(map[string]decimal.Decimal{}, nil)

	_, err := svc.ProductsTotal(ctx, map[string]int64{"prod-1": 1})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "insufficient pricing information")
}

func TestProductsTotal_InvalidQuantity(t *testing.T) {
	svc := newTestService(new(mockPaymentRepository), new(mockPriceSource), new(mockOrderClient))

	_, err := svc.ProductsTotal(context.Background(), map[string]int64{"prod-1": 0})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestProductsTotal_CatalogFailure(t *testing.T) {
	prices := new(mockPriceSource)
	svc := newTestService(new(mockPaymentRepository), prices, new(mockOrderClient))
	ctx := context.Background()

	prices.On("GetPrices", ctx, mock.Anything).Return(nil, errors.New("catalog unavailable"))

	_, err := svc.ProductsTotal(ctx, map[string]int64{"prod-1": 1})
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

// --- GrandTotal ---

func TestGrandTotal_WithDelivery(t *testing.T) {
	prices := new(mockPriceSource)
	svc := newTestService(new(mockPaymentRepository), prices, new(mockOrderClient))
	ctx := context.Background()

	prices.On("GetPrices", ctx, mock.Anything).
		Return(map[string]decimal.Decimal{"prod-1": dec("100")}, nil)

	// 100 * 1.10 + 20 = 130
	total, err := svc.GrandTotal(ctx, map[string]int64{"prod-1": 1}, decPtr("20"))

	require.NoError(t, err)
	assert.Equal(t, "130.00", total.StringFixed(2))
}

func TestGrandTotal_NoDelivery(t *testing.T) {
	prices := new(mockPriceSource)
	svc := newTestService(new(mockPaymentRepository), prices, new(mockOrderClient))
	ctx := context.Background()

	prices.On("GetPrices", ctx, mock.Anything).
		Return(map[string]decimal.Decimal{"prod-1": dec("100")}, nil)

	total, err := svc.GrandTotal(ctx, map[string]int64{"prod-1": 1}, nil)

	require.NoError(t, err)
	assert.Equal(t, "110.00", total.StringFixed(2))
}

// --- EmulateSuccess ---

func TestEmulateSuccess_NotifiesOrderThenSettles(t *testing.T) {
	repo := new(mockPaymentRepository)
	order := new(mockOrderClient)
	svc := newTestService(repo, new(mockPriceSource), order)
	ctx := context.Background()

	repo.On("GetByID", ctx, "pay-1").Return(samplePayment(domain.StatePending), nil)
	order.On("NotifyPaid", ctx, "ord-1").Return(nil)
	repo.On("UpdateState", ctx, "pay-1", domain.StateSuccess).Return(samplePayment(domain.StateSuccess), nil)

	payment, err := svc.EmulateSuccess(ctx, "pay-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StateSuccess, payment.State)
	order.AssertExpectations(t)
}

func TestEmulateSuccess_CallbackFailureLeavesLedgerUntouched(t *testing.T) {
	repo := new(mockPaymentRepository)
	order := new(mockOrderClient)
	svc := newTestService(repo, new(mockPriceSource), order)
	ctx := context.Background()

	repo.On("GetByID", ctx, "pay-1").Return(samplePayment(domain.StatePending), nil)
	order.On("NotifyPaid", ctx, "ord-1").Return(errors.New("order is not on payment"))

	_, err := svc.EmulateSuccess(ctx, "pay-1")

	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything)
}

func TestEmulateSuccess_UnknownPayment(t *testing.T) {
	repo := new(mockPaymentRepository)
	svc := newTestService(repo, new(mockPriceSource), new(mockOrderClient))
	ctx := context.Background()

	repo.On("GetByID", ctx, "pay-x").Return(nil, apperrors.NotFound("payment", "pay-x"))

	_, err := svc.EmulateSuccess(ctx, "pay-x")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- EmulateDecline ---

func TestEmulateDecline_Success(t *testing.T) {
	repo := new(mockPaymentRepository)
	order := new(mockOrderClient)
	svc := newTestService(repo, new(mockPriceSource), order)
	ctx := context.Background()

	repo.On("GetByID", ctx, "pay-1").Return(samplePayment(domain.StatePending), nil)
	order.On("NotifyPaymentFailed", ctx, "ord-1").Return(nil)
	repo.On("UpdateState", ctx, "pay-1", domain.StateFailed).Return(samplePayment(domain.StateFailed), nil)

	payment, err := svc.EmulateDecline(ctx, "pay-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, payment.State)
}

func TestEmulateDecline_TerminalStatesRejected(t *testing.T) {
	for _, state := range []domain.PaymentState{domain.StateSuccess, domain.StateFailed} {
		t.Run(string(state), func(t *testing.T) {
			repo := new(mockPaymentRepository)
			order := new(mockOrderClient)
			svc := newTestService(repo, new(mockPriceSource), order)
			ctx := context.Background()

			repo.On("GetByID", ctx, "pay-1").Return(samplePayment(state), nil)

			_, err := svc.EmulateDecline(ctx, "pay-1")

			assert.ErrorIs(t, err, apperrors.ErrInvalidState)
			assert.Contains(t, err.Error(), "invalid state for decline")
			order.AssertNotCalled(t, "NotifyPaymentFailed", mock.Anything, mock.Anything)
		})
	}
}
