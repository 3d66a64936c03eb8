package services

import (
	"github.com/lindawangwe/mama-uncle-stores/models"

	"github.com/shopspring/decimal"
)

// ToMinorUnits converts a major-unit price to the currency's smallest unit,
// rounding half away from zero.
func ToMinorUnits(price float64) int64 {
	return decimal.NewFromFloat(price).Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts an amount in minor units back to major units.
func FromMinorUnits(amount int64) float64 {
	return decimal.New(amount, -2).InexactFloat64()
}

// SummarizeCart derives the cart totals from the listed lines.
func SummarizeCart(lines []models.CartLine) models.CartSummary {
	subtotal := decimal.Zero
	count := 0
	for _, line := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
		count += line.Quantity
	}
	subtotal = subtotal.Round(2)
	return models.CartSummary{
		ItemCount: count,
		Subtotal:  subtotal.InexactFloat64(),
		Total:     subtotal.InexactFloat64(),
	}
}
