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
	"github.com/orderforge/commerce/services/order/internal/client"
	"github.com/orderforge/commerce/services/order/internal/domain"
	"github.com/orderforge/commerce/services/order/internal/event"
)

// --- Mock OrderRepository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) UpdateState(ctx context.Context, orderID string, state domain.OrderState) (*domain.Order, error) {
	args := m.Called(ctx, orderID, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) SetPaymentID(ctx context.Context, orderID, paymentID string) error {
	args := m.Called(ctx, orderID, paymentID)
	return args.Error(0)
}

func (m *mockOrderRepository) SetDeliveryID(ctx context.Context, orderID, deliveryID string) error {
	args := m.Called(ctx, orderID, deliveryID)
	return args.Error(0)
}

func (m *mockOrderRepository) SetOrderTotals(ctx context.Context, orderID string, productPrice, totalPrice decimal.Decimal) error {
	args := m.Called(ctx, orderID, productPrice, totalPrice)
	return args.Error(0)
}

func (m *mockOrderRepository) SetDeliveryPrice(ctx context.Context, orderID string, price decimal.Decimal) error {
	args := m.Called(ctx, orderID, price)
	return args.Error(0)
}

func (m *mockOrderRepository) ListByUsername(ctx context.Context, username string, page, perPage int) ([]domain.Order, int, error) {
	args := m.Called(ctx, username, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

// --- Mock collaborator clients ---

type mockCartClient struct {
	mock.Mock
}

func (m *mockCartClient) GetUsername(ctx context.Context, cartID string) (string, error) {
	args := m.Called(ctx, cartID)
	return args.String(0), args.Error(1)
}

type mockWarehouseClient struct {
	mock.Mock
}

func (m *mockWarehouseClient) Check(ctx context.Context, products map[string]int64) (client.BookingProjection, error) {
	args := m.Called(ctx, products)
	return args.Get(0).(client.BookingProjection), args.Error(1)
}

func (m *mockWarehouseClient) Assemble(ctx context.Context, orderID string, products map[string]int64) error {
	args := m.Called(ctx, orderID, products)
	return args.Error(0)
}

func (m *mockWarehouseClient) ReturnToStock(ctx context.Context, products map[string]int64) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

func (m *mockWarehouseClient) GetAddress(ctx context.Context) (domain.Address, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Address), args.Error(1)
}

type mockDeliveryClient struct {
	mock.Mock
}

func (m *mockDeliveryClient) CreateDelivery(ctx context.Context, orderID string, from, to domain.Address) (string, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.String(0), args.Error(1)
}

func (m *mockDeliveryClient) PickUp(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *mockDeliveryClient) Cost(ctx context.Context, snapshot client.CostSnapshot) (decimal.Decimal, error) {
	args := m.Called(ctx, snapshot)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockPaymentClient struct {
	mock.Mock
}

func (m *mockPaymentClient) Initiate(ctx context.Context, snapshot client.PaymentSnapshot) (string, error) {
	args := m.Called(ctx, snapshot)
	return args.String(0), args.Error(1)
}

func (m *mockPaymentClient) ProductCost(ctx context.Context, products map[string]int64) (decimal.Decimal, error) {
	args := m.Called(ctx, products)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockPaymentClient) TotalCost(ctx context.Context, products map[string]int64, deliveryPrice *decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, products, deliveryPrice)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Test Helpers ---

type testDeps struct {
	repo      *mockOrderRepository
	cart      *mockCartClient
	warehouse *mockWarehouseClient
	delivery  *mockDeliveryClient
	payment   *mockPaymentClient
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService() (*OrderService, *testDeps) {
	deps := &testDeps{
		repo:      new(mockOrderRepository),
		cart:      new(mockCartClient),
		warehouse: new(mockWarehouseClient),
		delivery:  new(mockDeliveryClient),
		payment:   new(mockPaymentClient),
	}
	logger := newTestLogger()
	// Kafka producer fails silently in tests (no real broker); publish errors are logged, not returned.
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	producer := event.NewProducer(kafkaProducer, logger)
	svc := NewOrderService(deps.repo, deps.cart, deps.warehouse, deps.delivery, deps.payment, producer, logger)
	return svc, deps
}

func sampleOrder(state domain.OrderState) *domain.Order {
	return &domain.Order{
		OrderID:  "ord-1",
		Username: "alice",
		Products: map[string]int64{"prod-1": 2, "prod-2": 1},
		DeliveryAddress: domain.Address{
			Country: "DE", City: "Berlin", Street: "CUSTOMER_STREET", House: "7",
		},
		State: state,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- CreateOrder ---

func TestCreateOrder_Success(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	projection := client.BookingProjection{
		Weight: dec("1.500"), Volume: dec("0.024"), Fragile: true,
	}
	from := domain.Address{Street: "ADDRESS_1"}

	deps.cart.On("GetUsername", ctx, "cart-1").Return("alice", nil)
	deps.warehouse.On("Check", ctx, mock.Anything).Return(projection, nil)
	deps.repo.On("CreateOrder", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	deps.warehouse.On("GetAddress", ctx).Return(from, nil)
	deps.delivery.On("CreateDelivery", ctx, mock.Anything, from, mock.Anything).Return("dlv-1", nil)
	deps.repo.On("SetDeliveryID", ctx, mock.Anything, "dlv-1").Return(nil)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CartID:          "cart-1",
		Products:        map[string]int64{"prod-1": 2},
		DeliveryAddress: domain.Address{Street: "CUSTOMER_STREET"},
	})

	require.NoError(t, err)
	assert.Equal(t, "alice", order.Username)
	assert.Equal(t, domain.StateNew, order.State)
	require.NotNil(t, order.DeliveryWeight)
	assert.Equal(t, "1.5", order.DeliveryWeight.String())
	require.NotNil(t, order.Fragile)
	assert.True(t, *order.Fragile)
	require.NotNil(t, order.DeliveryID)
	assert.Equal(t, "dlv-1", *order.DeliveryID)
}

func TestCreateOrder_EmptyProducts(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CartID:          "cart-1",
		DeliveryAddress: domain.Address{Street: "S"},
	})

	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestCreateOrder_MissingStreet(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CartID:   "cart-1",
		Products: map[string]int64{"prod-1": 1},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "street is required")
}

func TestCreateOrder_InsufficientStockAborts(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.cart.On("GetUsername", ctx, "cart-1").Return("alice", nil)
	deps.warehouse.On("Check", ctx, mock.Anything).
		Return(client.BookingProjection{}, errors.New("insufficient stock for product prod-1"))

	_, err := svc.CreateOrder(ctx, CreateOrderInput{
		CartID:          "cart-1",
		Products:        map[string]int64{"prod-1": 99},
		DeliveryAddress: domain.Address{Street: "S"},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	deps.repo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCreateOrder_DeliveryFailureLeavesOrderSaved(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.cart.On("GetUsername", ctx, "cart-1").Return("alice", nil)
	deps.warehouse.On("Check", ctx, mock.Anything).Return(client.BookingProjection{}, nil)
	deps.repo.On("CreateOrder", ctx, mock.Anything).Return(nil)
	deps.warehouse.On("GetAddress", ctx).Return(domain.Address{Street: "ADDRESS_1"}, nil)
	deps.delivery.On("CreateDelivery", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("delivery unavailable"))

	_, err := svc.CreateOrder(ctx, CreateOrderInput{
		CartID:          "cart-1",
		Products:        map[string]int64{"prod-1": 1},
		DeliveryAddress: domain.Address{Street: "S"},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	// The order row survives the failed delivery creation.
	deps.repo.AssertCalled(t, "CreateOrder", ctx, mock.Anything)
	deps.repo.AssertNotCalled(t, "SetDeliveryID", mock.Anything, mock.Anything, mock.Anything)
}

// --- Assemble ---

func TestAssemble_Success(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	order := sampleOrder(domain.StateNew)
	deps.repo.On("GetByID", ctx, "ord-1").Return(order, nil)
	deps.warehouse.On("Assemble", ctx, "ord-1", order.Products).Return(nil)
	deps.repo.On("UpdateState", ctx, "ord-1", domain.StateAssembled).
		Return(sampleOrder(domain.StateAssembled), nil)

	updated, err := svc.Assemble(ctx, "ord-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StateAssembled, updated.State)
}

func TestAssemble_RejectsNonNewOrder(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateAssembled), nil)

	_, err := svc.Assemble(ctx, "ord-1")

	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	deps.warehouse.AssertNotCalled(t, "Assemble", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssemble_WarehouseFailureLeavesState(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateNew), nil)
	deps.warehouse.On("Assemble", ctx, "ord-1", mock.Anything).
		Return(errors.New("product prod-9 not in warehouse"))

	_, err := svc.Assemble(ctx, "ord-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	deps.repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything)
}

// --- Pay ---

func TestPay_FromAssembled(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	order := sampleOrder(domain.StateAssembled)
	productPrice := dec("100.00")
	order.ProductPrice = &productPrice

	deps.repo.On("GetByID", ctx, "ord-1").Return(order, nil)
	deps.repo.On("UpdateState", ctx, "ord-1", domain.StateOnPayment).
		Return(sampleOrder(domain.StateOnPayment), nil)
	deps.payment.On("Initiate", ctx, mock.MatchedBy(func(s client.PaymentSnapshot) bool {
		return s.OrderID == "ord-1" && s.ProductPrice != nil && s.ProductPrice.Equal(productPrice)
	})).Return("pay-1", nil)
	deps.repo.On("SetPaymentID", ctx, "ord-1", "pay-1").Return(nil)

	updated, err := svc.Pay(ctx, "ord-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StateOnPayment, updated.State)
	require.NotNil(t, updated.PaymentID)
	assert.Equal(t, "pay-1", *updated.PaymentID)
}

func TestPay_AlreadyPaidRejected(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StatePaid), nil)

	_, err := svc.Pay(ctx, "ord-1")

	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	assert.Contains(t, err.Error(), "already paid")
}

func TestPay_OnPaymentShortcutSkipsRemoteCalls(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateOnPayment), nil)
	deps.repo.On("UpdateState", ctx, "ord-1", domain.StatePaid).
		Return(sampleOrder(domain.StatePaid), nil)

	updated, err := svc.Pay(ctx, "ord-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatePaid, updated.State)
	deps.payment.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything)
}

func TestPay_RejectsUnassembledOrder(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateNew), nil)

	_, err := svc.Pay(ctx, "ord-1")

	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
}

func TestPay_InitiateFailureLeavesOnPayment(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateAssembled), nil)
	deps.repo.On("UpdateState", ctx, "ord-1", domain.StateOnPayment).
		Return(sampleOrder(domain.StateOnPayment), nil)
	deps.payment.On("Initiate", ctx, mock.Anything).Return("", errors.New("payment unavailable"))

	_, err := svc.Pay(ctx, "ord-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	// The order stays durably parked in ON_PAYMENT.
	deps.repo.AssertCalled(t, "UpdateState", ctx, "ord-1", domain.StateOnPayment)
	deps.repo.AssertNotCalled(t, "SetPaymentID", mock.Anything, mock.Anything, mock.Anything)
}

// --- Deliver ---

func TestDeliver_FromPaid(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StatePaid), nil)
	deps.delivery.On("PickUp", ctx, "ord-1").Return(nil)
	deps.repo.On("UpdateState", ctx, "ord-1", domain.StateOnDelivery).
		Return(sampleOrder(domain.StateOnDelivery), nil)

	updated, err := svc.Deliver(ctx, "ord-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StateOnDelivery, updated.State)
}

func TestDeliver_OnDeliveryShortcutSkipsRemoteCalls(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateOnDelivery), nil)
	deps.repo.On("UpdateState", ctx, "ord-1", domain.StateDelivered).
		Return(sampleOrder(domain.StateDelivered), nil)

	updated, err := svc.Deliver(ctx, "ord-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StateDelivered, updated.State)
	deps.delivery.AssertNotCalled(t, "PickUp", mock.Anything, mock.Anything)
}

func TestDeliver_RejectsUnpaidOrder(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateAssembled), nil)

	_, err := svc.Deliver(ctx, "ord-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	assert.Contains(t, err.Error(), "not paid")
}

func TestDeliver_PickupFailureLeavesState(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StatePaid), nil)
	deps.delivery.On("PickUp", ctx, "ord-1").Return(errors.New("courier unavailable"))

	_, err := svc.Deliver(ctx, "ord-1")

	require.Error(t, err)
	deps.repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything)
}

// --- Unconditional failure transitions ---

func TestMarkAssemblyFailed_Unconditional(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("UpdateState", ctx, "ord-1", domain.StateAssemblyFailed).
		Return(sampleOrder(domain.StateAssemblyFailed), nil)

	updated, err := svc.MarkAssemblyFailed(ctx, "ord-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StateAssemblyFailed, updated.State)
	// No read, no guard: the transition applies from any state.
	deps.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestComplete_Unconditional(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("UpdateState", ctx, "ord-1", domain.StateCompleted).
		Return(sampleOrder(domain.StateCompleted), nil)

	updated, err := svc.Complete(ctx, "ord-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, updated.State)
}

// --- Cost calculations ---

func TestCalculateTotal_PersistsBothTotals(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	order := sampleOrder(domain.StateAssembled)
	deliveryPrice := dec("20.00")
	order.DeliveryPrice = &deliveryPrice

	deps.repo.On("GetByID", ctx, "ord-1").Return(order, nil)
	deps.payment.On("ProductCost", ctx, order.Products).Return(dec("100.00"), nil)
	deps.payment.On("TotalCost", ctx, order.Products, &deliveryPrice).Return(dec("130.00"), nil)
	deps.repo.On("SetOrderTotals", ctx, "ord-1", dec("100.00"), dec("130.00")).Return(nil)

	updated, err := svc.CalculateTotal(ctx, "ord-1")

	require.NoError(t, err)
	require.NotNil(t, updated.ProductPrice)
	assert.Equal(t, "100", updated.ProductPrice.String())
	require.NotNil(t, updated.TotalPrice)
	assert.Equal(t, "130", updated.TotalPrice.String())
}

func TestCalculateTotal_PaymentFailure(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateAssembled), nil)
	deps.payment.On("ProductCost", ctx, mock.Anything).
		Return(decimal.Zero, errors.New("insufficient pricing information for product prod-2"))

	_, err := svc.CalculateTotal(ctx, "ord-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	deps.repo.AssertNotCalled(t, "SetOrderTotals", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCalculateDeliveryCost_PersistsQuote(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	order := sampleOrder(domain.StateNew)
	weight := dec("1.500")
	fragile := true
	order.DeliveryWeight = &weight
	order.Fragile = &fragile

	deps.repo.On("GetByID", ctx, "ord-1").Return(order, nil)
	deps.delivery.On("Cost", ctx, mock.MatchedBy(func(s client.CostSnapshot) bool {
		return s.Fragile && s.ToAddress.Street == "CUSTOMER_STREET" && s.Weight != nil
	})).Return(dec("15.84"), nil)
	deps.repo.On("SetDeliveryPrice", ctx, "ord-1", dec("15.84")).Return(nil)

	updated, err := svc.CalculateDeliveryCost(ctx, "ord-1")

	require.NoError(t, err)
	require.NotNil(t, updated.DeliveryPrice)
	assert.Equal(t, "15.84", updated.DeliveryPrice.String())
}

// --- Return ---

func TestReturn_Success(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	order := sampleOrder(domain.StateDelivered)
	deps.repo.On("GetByID", ctx, "ord-1").Return(order, nil)
	deps.warehouse.On("ReturnToStock", ctx, order.Products).Return(nil)
	deps.repo.On("UpdateState", ctx, "ord-1", domain.StateProductReturned).
		Return(sampleOrder(domain.StateProductReturned), nil)

	updated, err := svc.Return(ctx, "ord-1", map[string]int64{"prod-1": 2, "prod-2": 1})

	require.NoError(t, err)
	assert.Equal(t, domain.StateProductReturned, updated.State)
}

func TestReturn_RejectsNewOrder(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateNew), nil)

	_, err := svc.Return(ctx, "ord-1", map[string]int64{"prod-1": 2, "prod-2": 1})

	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	deps.warehouse.AssertNotCalled(t, "ReturnToStock", mock.Anything, mock.Anything)
}

func TestReturn_MismatchedQuantitiesDiagnostic(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateDelivered), nil)

	_, err := svc.Return(ctx, "ord-1", map[string]int64{"prod-1": 1, "prod-3": 4})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "missing products: prod-2")
	assert.Contains(t, err.Error(), "unexpected products: prod-3")
	assert.Contains(t, err.Error(), "prod-1: want 2, got 1")
	deps.warehouse.AssertNotCalled(t, "ReturnToStock", mock.Anything, mock.Anything)
}

func TestReturn_WarehouseFailureLeavesState(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateDelivered), nil)
	deps.warehouse.On("ReturnToStock", ctx, mock.Anything).
		Return(errors.New("product prod-1 not in warehouse"))

	_, err := svc.Return(ctx, "ord-1", map[string]int64{"prod-1": 2, "prod-2": 1})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	deps.repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything)
}

// --- Cancel ---

func TestCancel_Success(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StatePaymentFailed), nil)
	deps.repo.On("UpdateState", ctx, "ord-1", domain.StateCanceled).
		Return(sampleOrder(domain.StateCanceled), nil)

	updated, err := svc.Cancel(ctx, "ord-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StateCanceled, updated.State)
}

func TestCancel_RejectsTerminalOrder(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("GetByID", ctx, "ord-1").Return(sampleOrder(domain.StateCompleted), nil)

	_, err := svc.Cancel(ctx, "ord-1")

	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	deps.repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything)
}

// --- ListByUsername ---

func TestListByUsername_BlankUsernameUnauthorized(t *testing.T) {
	svc, deps := newTestService()

	_, _, err := svc.ListByUsername(context.Background(), "", 1, 20)

	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	deps.repo.AssertNotCalled(t, "ListByUsername", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListByUsername_ReturnsPage(t *testing.T) {
	svc, deps := newTestService()
	ctx := context.Background()

	deps.repo.On("ListByUsername", ctx, "alice", 1, 20).
		Return([]domain.Order{*sampleOrder(domain.StateCompleted)}, 1, nil)

	orders, total, err := svc.ListByUsername(ctx, "alice", 1, 20)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, orders, 1)
}
