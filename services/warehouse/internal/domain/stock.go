package domain

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/orderforge/commerce/pkg/errors"
)

// ProductStock is a single warehouse catalog line: how many units are on the
// shelf and the physical attributes needed for delivery pricing.
type ProductStock struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	Weight    decimal.Decimal `json:"weight"`
	Width     decimal.Decimal `json:"width"`
	Height    decimal.Decimal `json:"height"`
	Depth     decimal.Decimal `json:"depth"`
	Fragile   bool            `json:"fragile"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Volume returns the volume of a single unit.
func (s *ProductStock) Volume() decimal.Decimal {
	return s.Width.Mul(s.Height).Mul(s.Depth)
}

// Booking records the products reserved and decremented for one order.
// There is at most one booking per order; the delivery id is attached later,
// when the shipment is handed over to the courier.
type Booking struct {
	OrderID    string           `json:"order_id"`
	DeliveryID *string          `json:"delivery_id,omitempty"`
	Products   map[string]int64 `json:"products"`
	CreatedAt  time.Time        `json:"created_at"`
}

// BookingSummary is the projected physical footprint of a set of products:
// total weight, total volume, and whether any item is fragile.
type BookingSummary struct {
	Weight  decimal.Decimal `json:"delivery_weight"`
	Volume  decimal.Decimal `json:"delivery_volume"`
	Fragile bool            `json:"fragile"`
}

// summaryScale is the rounding scale for projected weight and volume.
const summaryScale = 3

// ProjectBooking validates the requested quantities against the given stock
// lines and computes the booking summary. It does not mutate anything; the
// same validation and arithmetic back both the read-only projection and the
// assembly step.
//
// An empty quantity map yields a zero summary. A product absent from stocks
// is a not-found error; a quantity above the available stock is an
// insufficient-stock error naming the product and both amounts.
func ProjectBooking(stocks map[string]*ProductStock, quantities map[string]int64) (BookingSummary, error) {
	summary := BookingSummary{Weight: decimal.Zero, Volume: decimal.Zero}
	if len(quantities) == 0 {
		return summary, nil
	}

	for productID, qty := range quantities {
		stock, ok := stocks[productID]
		if !ok {
			return BookingSummary{}, apperrors.NotFoundMsg("product " + productID + " not in warehouse")
		}
		if qty > stock.Quantity {
			return BookingSummary{}, apperrors.InsufficientStock(productID, qty, stock.Quantity)
		}

		n := decimal.NewFromInt(qty)
		summary.Weight = summary.Weight.Add(stock.Weight.Mul(n))
		summary.Volume = summary.Volume.Add(stock.Volume().Mul(n))
		summary.Fragile = summary.Fragile || stock.Fragile
	}

	summary.Weight = summary.Weight.Round(summaryScale)
	summary.Volume = summary.Volume.Round(summaryScale)
	return summary, nil
}
