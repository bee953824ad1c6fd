package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderState represents the lifecycle state of an order.
type OrderState string

const (
	StateNew             OrderState = "NEW"
	StateAssembled       OrderState = "ASSEMBLED"
	StateAssemblyFailed  OrderState = "ASSEMBLY_FAILED"
	StateOnPayment       OrderState = "ON_PAYMENT"
	StatePaid            OrderState = "PAID"
	StatePaymentFailed   OrderState = "PAYMENT_FAILED"
	StateOnDelivery      OrderState = "ON_DELIVERY"
	StateDelivered       OrderState = "DELIVERED"
	StateDeliveryFailed  OrderState = "DELIVERY_FAILED"
	StateCompleted       OrderState = "COMPLETED"
	StateCanceled        OrderState = "CANCELED"
	StateProductReturned OrderState = "PRODUCT_RETURNED"
)

// terminalStates admit no further transitions.
var terminalStates = map[OrderState]bool{
	StateCompleted:       true,
	StateCanceled:        true,
	StateProductReturned: true,
}

// IsTerminal reports whether the state admits no further transitions.
func (s OrderState) IsTerminal() bool {
	return terminalStates[s]
}

// Address is a postal address. Street is the only mandatory component.
type Address struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Street  string `json:"street"`
	House   string `json:"house"`
	Flat    string `json:"flat,omitempty"`
}

// Order is the coordinator's aggregate. The product map is frozen at creation
// and a return request must match it exactly. The pricing and shipment fields
// start nil and are filled in by the lifecycle steps that compute them.
type Order struct {
	OrderID         string           `json:"order_id"`
	Username        string           `json:"username"`
	Products        map[string]int64 `json:"products"`
	DeliveryAddress Address          `json:"delivery_address"`
	State           OrderState       `json:"state"`
	PaymentID       *string          `json:"payment_id,omitempty"`
	DeliveryID      *string          `json:"delivery_id,omitempty"`
	DeliveryWeight  *decimal.Decimal `json:"delivery_weight,omitempty"`
	DeliveryVolume  *decimal.Decimal `json:"delivery_volume,omitempty"`
	Fragile         *bool            `json:"fragile,omitempty"`
	ProductPrice    *decimal.Decimal `json:"product_price,omitempty"`
	DeliveryPrice   *decimal.Decimal `json:"delivery_price,omitempty"`
	TotalPrice      *decimal.Decimal `json:"total_price,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
