package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/orderforge/commerce/services/order/internal/domain"
)

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// CreateOrder inserts a new order row.
	CreateOrder(ctx context.Context, order *domain.Order) error
	// GetByID retrieves an order by its id.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	// UpdateState moves the order to the given state and returns the updated row.
	UpdateState(ctx context.Context, orderID string, state domain.OrderState) (*domain.Order, error)
	// SetPaymentID records the payment opened for the order.
	SetPaymentID(ctx context.Context, orderID, paymentID string) error
	// SetDeliveryID records the shipment created for the order.
	SetDeliveryID(ctx context.Context, orderID, deliveryID string) error
	// SetOrderTotals persists the computed product and grand totals.
	SetOrderTotals(ctx context.Context, orderID string, productPrice, totalPrice decimal.Decimal) error
	// SetDeliveryPrice persists the quoted delivery cost.
	SetDeliveryPrice(ctx context.Context, orderID string, price decimal.Decimal) error
	// ListByUsername returns a page of the user's orders, newest first,
	// together with the total count.
	ListByUsername(ctx context.Context, username string, page, perPage int) ([]domain.Order, int, error)
}
