package domain

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/orderforge/commerce/pkg/errors"
)

// priceScale is the rounding scale for all monetary results.
const priceScale = 2

// VAT constants. The fee is the VAT share of the product price; the grand
// total is the VAT-inclusive product price plus delivery.
var (
	vatRate       = decimal.RequireFromString("0.10")
	vatMultiplier = decimal.RequireFromString("1.10")
)

// FeeTotal computes the VAT fee on a product price. An absent price yields a
// zero fee.
func FeeTotal(productPrice *decimal.Decimal) decimal.Decimal {
	if productPrice == nil {
		return decimal.Zero
	}
	return productPrice.Mul(vatRate).Round(priceScale)
}

// ProductsSubtotal sums catalog unit price times quantity over the order's
// product map. An empty map totals zero. Every product must have a resolvable
// price; any gap aborts the whole calculation.
func ProductsSubtotal(prices map[string]decimal.Decimal, quantities map[string]int64) (decimal.Decimal, error) {
	subtotal := decimal.Zero
	for productID, qty := range quantities {
		price, ok := prices[productID]
		if !ok {
			return decimal.Zero, apperrors.InvalidInput("insufficient pricing information for product " + productID)
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(qty)))
	}
	return subtotal.Round(priceScale), nil
}

// GrandTotal computes the VAT-inclusive total: subtotal times 1.10 plus the
// delivery price, which counts as zero when absent.
func GrandTotal(subtotal decimal.Decimal, deliveryPrice *decimal.Decimal) decimal.Decimal {
	total := subtotal.Mul(vatMultiplier)
	if deliveryPrice != nil {
		total = total.Add(*deliveryPrice)
	}
	return total.Round(priceScale)
}
