package services

import (
	"github.com/shopspring/decimal"
)

// applyRateFloor returns floor(amount * rate)
func applyRateFloor(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Floor().IntPart()
}

// saleProceeds splits a sale price into seller proceeds, floor(price*(1-rate)),
// and the tax kept by the house
func saleProceeds(price int64, taxRate decimal.Decimal) (proceeds, tax int64) {
	proceeds = applyRateFloor(price, decimal.NewFromInt(1).Sub(taxRate))
	return proceeds, price - proceeds
}

// amountDue returns floor(principal * (1 + rate))
func amountDue(principal int64, rate decimal.Decimal) int64 {
	return applyRateFloor(principal, decimal.NewFromInt(1).Add(rate))
}

// isOverpriced reports price > base * multiplier. Unknown base prices never flag.
func isOverpriced(price, base int64, multiplier decimal.Decimal) bool {
	if base <= 0 {
		return false
	}
	return decimal.NewFromInt(price).GreaterThan(decimal.NewFromInt(base).Mul(multiplier))
}

// ceilDiv divides rounding up; d must be positive
func ceilDiv(n, d int64) int64 {
	return (n + d - 1) / d
}
