package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/orderforge/commerce/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestFeeTotal(t *testing.T) {
	assert.Equal(t, "10.00", FeeTotal(decPtr("100")).StringFixed(2))
	assert.Equal(t, "0.05", FeeTotal(decPtr("0.50")).StringFixed(2))
	assert.True(t, FeeTotal(nil).IsZero(), "absent product price yields zero fee")
}

func TestProductsSubtotal(t *testing.T) {
	prices := map[string]decimal.Decimal{
		"prod-1": dec("10.50"),
		"prod-2": dec("3.00"),
	}
	quantities := map[string]int64{
		"prod-1": 2,
		"prod-2": 3,
	}

	subtotal, err := ProductsSubtotal(prices, quantities)

	require.NoError(t, err)
	assert.Equal(t, "30.00", subtotal.StringFixed(2))
}

func TestProductsSubtotal_EmptyMap(t *testing.T) {
	subtotal, err := ProductsSubtotal(nil, nil)

	require.NoError(t, err)
	assert.True(t, subtotal.IsZero())
}

func TestProductsSubtotal_MissingPrice(t *testing.T) {
	prices := map[string]decimal.Decimal{"prod-1": dec("10")}
	quantities := map[string]int64{"prod-1": 1, "prod-2": 1}

	_, err := ProductsSubtotal(prices, quantities)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "insufficient pricing information")
	assert.Contains(t, err.Error(), "prod-2")
}

func TestGrandTotal(t *testing.T) {
	// 100 * 1.10 + 20 = 130
	total := GrandTotal(dec("100"), decPtr("20"))
	assert.Equal(t, "130.00", total.StringFixed(2))
}

func TestGrandTotal_NoDelivery(t *testing.T) {
	total := GrandTotal(dec("100"), nil)
	assert.Equal(t, "110.00", total.StringFixed(2))
}

func TestPaymentState_IsTerminal(t *testing.T) {
	assert.False(t, StatePending.IsTerminal())
	assert.True(t, StateSuccess.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
}
