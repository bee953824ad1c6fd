package domain

import "github.com/shopspring/decimal"

// costScale is the rounding scale for the final delivery price.
const costScale = 2

// Tariff carries the delivery pricing constants. All values are fixed
// configuration, never derived at runtime.
type Tariff struct {
	// Base is the flat rate every delivery starts from.
	Base decimal.Decimal
	// PoolAddressOne and PoolAddressTwo are the warehouse street pool. A
	// warehouse located on the first street pays base x1 extra, on the
	// second base x2 extra, elsewhere nothing.
	PoolAddressOne string
	PoolAddressTwo string
	// FragileRate is the fractional surcharge for fragile cargo.
	FragileRate decimal.Decimal
	// WeightRate is the per-unit-weight addition.
	WeightRate decimal.Decimal
	// VolumeRate is the per-unit-volume addition.
	VolumeRate decimal.Decimal
	// StreetRate is the fractional surcharge when the destination street
	// differs from the warehouse street.
	StreetRate decimal.Decimal
}

// DefaultTariff returns the standard pricing constants.
func DefaultTariff(poolOne, poolTwo string) Tariff {
	return Tariff{
		Base:           decimal.RequireFromString("5.00"),
		PoolAddressOne: poolOne,
		PoolAddressTwo: poolTwo,
		FragileRate:    decimal.RequireFromString("0.20"),
		WeightRate:     decimal.RequireFromString("0.30"),
		VolumeRate:     decimal.RequireFromString("0.20"),
		StreetRate:     decimal.RequireFromString("0.20"),
	}
}

// CostInput is the order snapshot the cost formula prices.
type CostInput struct {
	WarehouseStreet   string
	DestinationStreet string
	Fragile           bool
	Weight            *decimal.Decimal
	Volume            *decimal.Decimal
}

// CalculateCost prices a delivery:
//
//  1. start from the base rate plus the warehouse pool charge
//  2. fragile cargo adds a fraction of the running total
//  3. weight and volume add their per-unit rates
//  4. a destination street different from the warehouse street adds a
//     fraction of the total accumulated so far
//  5. the result is rounded half up to two decimals
func CalculateCost(t Tariff, in CostInput) decimal.Decimal {
	total := t.Base.Add(warehouseCharge(t, in.WarehouseStreet))

	if in.Fragile {
		total = total.Add(total.Mul(t.FragileRate))
	}
	if in.Weight != nil {
		total = total.Add(in.Weight.Mul(t.WeightRate))
	}
	if in.Volume != nil {
		total = total.Add(in.Volume.Mul(t.VolumeRate))
	}
	if in.DestinationStreet != "" && in.DestinationStreet != in.WarehouseStreet {
		total = total.Add(total.Mul(t.StreetRate))
	}

	return total.Round(costScale)
}

// warehouseCharge returns the pool surcharge for the warehouse street:
// base x1 for the first pool address, base x2 for the second, zero otherwise.
func warehouseCharge(t Tariff, street string) decimal.Decimal {
	switch street {
	case t.PoolAddressOne:
		return t.Base
	case t.PoolAddressTwo:
		return t.Base.Mul(decimal.NewFromInt(2))
	default:
		return decimal.Zero
	}
}
