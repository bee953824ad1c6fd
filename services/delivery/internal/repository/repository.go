package repository

import (
	"context"

	"github.com/orderforge/commerce/services/delivery/internal/domain"
)

// DeliveryRepository defines the persistence operations for the delivery ledger.
// Shipments are keyed by delivery id but looked up by order id, since every
// collaborator call identifies the shipment through its order.
type DeliveryRepository interface {
	// CreateDelivery persists a new shipment in its initial state.
	CreateDelivery(ctx context.Context, delivery *domain.Delivery) error

	// GetByOrderID fetches the shipment linked to the given order.
	GetByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error)

	// UpdateState moves the shipment for the given order into the target state
	// and returns the updated row.
	UpdateState(ctx context.Context, orderID string, state domain.DeliveryState) (*domain.Delivery, error)
}
