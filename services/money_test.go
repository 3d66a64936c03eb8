package services_test

import (
	"testing"

	"github.com/lindawangwe/mama-uncle-stores/models"
	"github.com/lindawangwe/mama-uncle-stores/services"

	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	cases := map[float64]int64{
		10.00:  1000,
		5.50:   550,
		19.99:  1999,
		0.1:    10,
		1.005:  101,
		0.0049: 0,
		0:      0,
	}
	for price, want := range cases {
		assert.Equal(t, want, services.ToMinorUnits(price), "price %v", price)
	}
}

func TestFromMinorUnits(t *testing.T) {
	assert.Equal(t, 25.5, services.FromMinorUnits(2550))
	assert.Equal(t, 0.01, services.FromMinorUnits(1))
	assert.Equal(t, 0.0, services.FromMinorUnits(0))
}

func TestSummarizeCart(t *testing.T) {
	lines := []models.CartLine{
		{Price: 0.1, Quantity: 3},
		{Price: 19.99, Quantity: 2},
	}

	summary := services.SummarizeCart(lines)
	assert.Equal(t, 5, summary.ItemCount)
	assert.Equal(t, 40.28, summary.Subtotal)
	assert.Equal(t, summary.Subtotal, summary.Total)

	assert.Equal(t, models.CartSummary{}, services.SummarizeCart(nil))
}
