package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentState represents the lifecycle state of a payment.
type PaymentState string

const (
	StatePending PaymentState = "PENDING"
	StateSuccess PaymentState = "SUCCESS"
	StateFailed  PaymentState = "FAILED"
)

// IsTerminal reports whether the payment has reached a final state.
// SUCCESS and FAILED admit no further transitions.
func (s PaymentState) IsTerminal() bool {
	return s == StateSuccess || s == StateFailed
}

// Payment is one payment record for an order, capturing the price snapshot
// that was current when the payment was initiated.
type Payment struct {
	PaymentID     string          `json:"payment_id"`
	OrderID       string          `json:"order_id"`
	State         PaymentState    `json:"state"`
	TotalPayment  decimal.Decimal `json:"total_payment"`
	DeliveryTotal decimal.Decimal `json:"delivery_total"`
	FeeTotal      decimal.Decimal `json:"fee_total"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
