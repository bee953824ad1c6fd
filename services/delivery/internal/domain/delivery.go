package domain

import "time"

// DeliveryState represents the lifecycle state of a shipment.
type DeliveryState string

const (
	StateCreated    DeliveryState = "CREATED"
	StateInProgress DeliveryState = "IN_PROGRESS"
	StateDelivered  DeliveryState = "DELIVERED"
	StateFailed     DeliveryState = "FAILED"
)

// AllowedTransitions defines the valid state transitions for a delivery.
// DELIVERED and FAILED are terminal.
var AllowedTransitions = map[DeliveryState][]DeliveryState{
	StateCreated:    {StateInProgress, StateDelivered, StateFailed},
	StateInProgress: {StateDelivered, StateFailed},
	StateDelivered:  {},
	StateFailed:     {},
}

// CanTransitionTo checks whether a transition from the current state to the
// target state is allowed.
func (s DeliveryState) CanTransitionTo(target DeliveryState) bool {
	for _, allowed := range AllowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state admits no further transitions.
func (s DeliveryState) IsTerminal() bool {
	return len(AllowedTransitions[s]) == 0
}

// Address is the postal address a shipment moves between. Street is the only
// mandatory component; it also drives the pool surcharge in the cost formula.
type Address struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Street  string `json:"street"`
	House   string `json:"house"`
	Flat    string `json:"flat,omitempty"`
}

// Delivery is one shipment record, keyed by delivery id with a 1:1 link to
// the order it ships.
type Delivery struct {
	DeliveryID  string        `json:"delivery_id"`
	OrderID     string        `json:"order_id"`
	FromAddress Address       `json:"from_address"`
	ToAddress   Address       `json:"to_address"`
	State       DeliveryState `json:"state"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
