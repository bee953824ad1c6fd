package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/orderforge/commerce/pkg/errors"
	"github.com/orderforge/commerce/services/order/internal/client"
	"github.com/orderforge/commerce/services/order/internal/domain"
	"github.com/orderforge/commerce/services/order/internal/event"
	"github.com/orderforge/commerce/services/order/internal/repository"
)

// OrderService coordinates the order lifecycle across the inventory, payment
// and delivery ledgers. Remote calls are issued sequentially and the local
// state is committed only after the remote call returns; the one exception is
// payOrder, which durably parks the order in ON_PAYMENT before initiating the
// payment so a crashed initiation is visible rather than silently lost.
type OrderService struct {
	repo      repository.OrderRepository
	cart      client.CartClient
	warehouse client.WarehouseClient
	delivery  client.DeliveryClient
	payment   client.PaymentClient
	producer  *event.Producer
	logger    *slog.Logger
}

// NewOrderService creates a new order coordinator service.
func NewOrderService(
	repo repository.OrderRepository,
	cart client.CartClient,
	warehouse client.WarehouseClient,
	delivery client.DeliveryClient,
	payment client.PaymentClient,
	producer *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		repo:      repo,
		cart:      cart,
		warehouse: warehouse,
		delivery:  delivery,
		payment:   payment,
		producer:  producer,
		logger:    logger,
	}
}

// CreateOrderInput carries the cart snapshot and destination for a new order.
type CreateOrderInput struct {
	CartID          string
	Products        map[string]int64
	DeliveryAddress domain.Address
}

// CreateOrder resolves the cart owner, projects the booking footprint, saves
// the order in NEW, and opens the shipment record. The order row is written
// in one step including the projection; a delivery-creation failure after
// that leaves a durable delivery-less order behind, which is surfaced as an
// error but not rolled back.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if in.CartID == "" {
		return nil, apperrors.InvalidInput("cart_id is required")
	}
	if len(in.Products) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one product")
	}
	if err := validateQuantities(in.Products); err != nil {
		return nil, err
	}
	if in.DeliveryAddress.Street == "" {
		return nil, apperrors.InvalidInput("delivery address street is required")
	}

	username, err := s.cart.GetUsername(ctx, in.CartID)
	if err != nil {
		return nil, apperrors.Upstream("cart", err)
	}
	if username == "" {
		return nil, apperrors.Unauthorized("cart " + in.CartID + " has no owner")
	}

	projection, err := s.warehouse.Check(ctx, in.Products)
	if err != nil {
		return nil, apperrors.Upstream("warehouse", err)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		OrderID:         uuid.NewString(),
		Username:        username,
		Products:        in.Products,
		DeliveryAddress: in.DeliveryAddress,
		State:           domain.StateNew,
		DeliveryWeight:  &projection.Weight,
		DeliveryVolume:  &projection.Volume,
		Fragile:         &projection.Fragile,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.OrderID),
			slog.String("error", err.Error()),
		)
	}

	// The order is durable from here on. A failure opening the shipment
	// leaves a delivery-less order that the client can retry against.
	from, err := s.warehouse.GetAddress(ctx)
	if err != nil {
		return nil, apperrors.Upstream("warehouse", err)
	}

	deliveryID, err := s.delivery.CreateDelivery(ctx, order.OrderID, from, in.DeliveryAddress)
	if err != nil {
		return nil, apperrors.Upstream("delivery", err)
	}
	if err := s.repo.SetDeliveryID(ctx, order.OrderID, deliveryID); err != nil {
		return nil, fmt.Errorf("store delivery id: %w", err)
	}
	order.DeliveryID = &deliveryID

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.OrderID),
		slog.String("username", username),
		slog.String("delivery_id", deliveryID),
	)

	return order, nil
}

// GetByID fetches an order by its id.
func (s *OrderService) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, apperrors.InvalidInput("order_id is required")
	}
	return s.repo.GetByID(ctx, orderID)
}

// ListByUsername returns a page of the user's orders. The caller is
// identified only by username, so a blank one is rejected outright.
func (s *OrderService) ListByUsername(ctx context.Context, username string, page, perPage int) ([]domain.Order, int, error) {
	if username == "" {
		return nil, 0, apperrors.Unauthorized("username is required")
	}
	return s.repo.ListByUsername(ctx, username, page, perPage)
}

// Assemble reserves the order's products in the warehouse and moves the order
// to ASSEMBLED. Only a NEW order can be assembled; a remote failure leaves
// the state untouched.
func (s *OrderService) Assemble(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.State != domain.StateNew {
		return nil, apperrors.InvalidState(fmt.Sprintf(
			"order %s is %s and cannot be assembled", orderID, order.State))
	}

	if err := s.warehouse.Assemble(ctx, orderID, order.Products); err != nil {
		return nil, apperrors.Upstream("warehouse", err)
	}

	return s.transition(ctx, orderID, domain.StateAssembled)
}

// MarkAssemblyFailed records a failed assembly. The transition is
// unconditional so a failure can be recorded from any state.
func (s *OrderService) MarkAssemblyFailed(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.StateAssemblyFailed)
}

// Pay opens a payment for an assembled order. The order is parked in
// ON_PAYMENT before the ledger call so a failed initiation is durably
// visible; the returned payment id is stored afterwards. An order already in
// ON_PAYMENT completes to PAID without any remote call.
func (s *OrderService) Pay(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.State {
	case domain.StatePaid:
		return nil, apperrors.InvalidState("order " + orderID + " is already paid")
	case domain.StateOnPayment:
		return s.transition(ctx, orderID, domain.StatePaid)
	case domain.StateAssembled:
		// fall through to the initiation below
	default:
		return nil, apperrors.InvalidState(fmt.Sprintf(
			"order %s is %s and cannot be paid", orderID, order.State))
	}

	updated, err := s.transition(ctx, orderID, domain.StateOnPayment)
	if err != nil {
		return nil, err
	}

	paymentID, err := s.payment.Initiate(ctx, client.PaymentSnapshot{
		OrderID:       orderID,
		ProductPrice:  order.ProductPrice,
		TotalPayment:  order.TotalPrice,
		DeliveryPrice: order.DeliveryPrice,
	})
	if err != nil {
		return nil, apperrors.Upstream("payment", err)
	}

	if err := s.repo.SetPaymentID(ctx, orderID, paymentID); err != nil {
		return nil, fmt.Errorf("store payment id: %w", err)
	}
	updated.PaymentID = &paymentID

	s.logger.InfoContext(ctx, "payment initiated for order",
		slog.String("order_id", orderID),
		slog.String("payment_id", paymentID),
	)

	return updated, nil
}

// MarkPaymentFailed records a failed payment unconditionally.
func (s *OrderService) MarkPaymentFailed(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.StatePaymentFailed)
}

// Deliver hands the paid order to the courier and moves it to ON_DELIVERY.
// An order already in ON_DELIVERY completes to DELIVERED without any remote
// call.
func (s *OrderService) Deliver(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.State == domain.StateOnDelivery {
		return s.transition(ctx, orderID, domain.StateDelivered)
	}
	if order.State != domain.StatePaid {
		return nil, apperrors.InvalidState(fmt.Sprintf(
			"order %s is %s: not paid", orderID, order.State))
	}

	if err := s.delivery.PickUp(ctx, orderID); err != nil {
		return nil, apperrors.Upstream("delivery", err)
	}

	return s.transition(ctx, orderID, domain.StateOnDelivery)
}

// MarkDeliveryFailed records a failed delivery unconditionally.
func (s *OrderService) MarkDeliveryFailed(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.StateDeliveryFailed)
}

// Complete closes the order unconditionally.
func (s *OrderService) Complete(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.StateCompleted)
}

// CalculateTotal prices the order's products and the VAT-inclusive grand
// total through the payment ledger and persists both. The state is untouched.
func (s *OrderService) CalculateTotal(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	productPrice, err := s.payment.ProductCost(ctx, order.Products)
	if err != nil {
		return nil, apperrors.Upstream("payment", err)
	}
	totalPrice, err := s.payment.TotalCost(ctx, order.Products, order.DeliveryPrice)
	if err != nil {
		return nil, apperrors.Upstream("payment", err)
	}

	if err := s.repo.SetOrderTotals(ctx, orderID, productPrice, totalPrice); err != nil {
		return nil, fmt.Errorf("store order totals: %w", err)
	}
	order.ProductPrice = &productPrice
	order.TotalPrice = &totalPrice

	return order, nil
}

// CalculateDeliveryCost quotes the delivery price for the order's snapshot
// and persists it. The state is untouched.
func (s *OrderService) CalculateDeliveryCost(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	fragile := false
	if order.Fragile != nil {
		fragile = *order.Fragile
	}
	price, err := s.delivery.Cost(ctx, client.CostSnapshot{
		ToAddress: order.DeliveryAddress,
		Fragile:   fragile,
		Weight:    order.DeliveryWeight,
		Volume:    order.DeliveryVolume,
	})
	if err != nil {
		return nil, apperrors.Upstream("delivery", err)
	}

	if err := s.repo.SetDeliveryPrice(ctx, orderID, price); err != nil {
		return nil, fmt.Errorf("store delivery price: %w", err)
	}
	order.DeliveryPrice = &price

	return order, nil
}

// Return puts the order's products back into stock and closes the order as
// PRODUCT_RETURNED. The returned map must match the order's product map
// exactly; NEW and already-closed orders cannot be returned.
func (s *OrderService) Return(ctx context.Context, orderID string, returned map[string]int64) (*domain.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch order.State {
	case domain.StateNew, domain.StateCanceled, domain.StateProductReturned:
		return nil, apperrors.InvalidState(fmt.Sprintf(
			"order %s is %s and cannot be returned", orderID, order.State))
	}

	if err := domain.ValidateReturn(order.Products, returned); err != nil {
		return nil, err
	}

	if err := s.warehouse.ReturnToStock(ctx, returned); err != nil {
		return nil, apperrors.Upstream("warehouse", err)
	}

	return s.transition(ctx, orderID, domain.StateProductReturned)
}

// Cancel closes a non-terminal order as CANCELED.
func (s *OrderService) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.State.IsTerminal() {
		return nil, apperrors.InvalidState(fmt.Sprintf(
			"order %s is %s and cannot be canceled", orderID, order.State))
	}

	return s.transition(ctx, orderID, domain.StateCanceled)
}

// transition persists a state change and publishes the matching event.
func (s *OrderService) transition(ctx context.Context, orderID string, state domain.OrderState) (*domain.Order, error) {
	updated, err := s.repo.UpdateState(ctx, orderID, state)
	if err != nil {
		return nil, fmt.Errorf("move order to %s: %w", state, err)
	}

	if err := s.producer.PublishStateChanged(ctx, updated); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.state_changed event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order state changed",
		slog.String("order_id", orderID),
		slog.String("state", string(state)),
	)

	return updated, nil
}

// validateQuantities rejects non-positive quantities and blank product ids.
func validateQuantities(quantities map[string]int64) error {
	for productID, qty := range quantities {
		if productID == "" {
			return apperrors.InvalidInput("product id cannot be blank")
		}
		if qty <= 0 {
			return apperrors.InvalidInput(fmt.Sprintf("quantity for product %s must be positive, got %d", productID, qty))
		}
	}
	return nil
}
