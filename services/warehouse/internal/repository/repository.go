package repository

import (
	"context"

	"github.com/orderforge/commerce/services/warehouse/internal/domain"
)

// StockRepository defines the interface for product stock persistence.
type StockRepository interface {
	// CreateStock inserts a new product stock line. A duplicate product id is a conflict.
	CreateStock(ctx context.Context, stock *domain.ProductStock) error

	// AddQuantity increments the stock quantity for an existing product.
	AddQuantity(ctx context.Context, productID string, delta int64) (*domain.ProductStock, error)

	// GetStocks fetches stock lines for the given product ids, keyed by product id.
	// Missing products are simply absent from the map.
	GetStocks(ctx context.Context, productIDs []string) (map[string]*domain.ProductStock, error)

	// ReturnToStock increments each product's quantity inside one transaction.
	// Any missing product aborts the whole batch.
	ReturnToStock(ctx context.Context, quantities map[string]int64) error
}

// BookingRepository defines the interface for booking persistence.
type BookingRepository interface {
	// AssembleBooking atomically validates and decrements stock for every
	// requested product and records the booking, all inside one transaction
	// with row locks. Insufficient stock or a missing product aborts the batch.
	AssembleBooking(ctx context.Context, orderID string, quantities map[string]int64) error

	// GetBooking retrieves the booking for an order.
	GetBooking(ctx context.Context, orderID string) (*domain.Booking, error)

	// AttachDelivery sets the delivery id on an existing booking.
	AttachDelivery(ctx context.Context, orderID, deliveryID string) error
}
