package repository

import (
	"context"

	"github.com/orderforge/commerce/services/payment/internal/domain"
)

// PaymentRepository defines the persistence operations for the payment ledger.
type PaymentRepository interface {
	// CreatePayment persists a new payment in its initial state.
	CreatePayment(ctx context.Context, payment *domain.Payment) error

	// GetByID fetches a payment by its id.
	GetByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// UpdateState moves a payment into the target state and returns the
	// updated row.
	UpdateState(ctx context.Context, paymentID string, state domain.PaymentState) (*domain.Payment, error)
}
