package tax

import (
	"math"

	"github.com/shopspring/decimal"
)

// Calculate returns the tax owed on revenue under schedule s.
//
// Brackets are walked in order. A bracket fully covered by the remaining
// income contributes Amount × Rate; the first bracket that is not fully
// covered taxes only what is left and exhausts the income. Income beyond
// every bracket is taxed at DefaultRate.
//
// Revenue <= 0 returns 0. NaN or infinite revenue returns NaN.
func Calculate(revenue float64, s Schedule) float64 {
	if math.IsNaN(revenue) || math.IsInf(revenue, 0) {
		return math.NaN()
	}
	if revenue <= 0 {
		return 0
	}

	total := decimal.Zero
	remaining := decimal.NewFromFloat(revenue)

	for _, b := range s.Instalments {
		amount := decimal.NewFromFloat(b.Amount)
		rate := decimal.NewFromFloat(b.Rate)

		if remaining.GreaterThanOrEqual(amount) {
			total = total.Add(amount.Mul(rate))
			remaining = remaining.Sub(amount)
		} else {
			total = total.Add(remaining.Mul(rate))
			remaining = decimal.Zero
		}
	}

	total = total.Add(remaining.Mul(decimal.NewFromFloat(s.DefaultRate)))
	return total.InexactFloat64()
}

// Breakdown itemises the tax owed per instalment. The final element is the
// default-rate slice and is always present, possibly with zero income.
func Breakdown(revenue float64, s Schedule) []Slice {
	slices := make([]Slice, 0, len(s.Instalments)+1)
	remaining := decimal.Zero
	if revenue > 0 && !math.IsInf(revenue, 0) {
		remaining = decimal.NewFromFloat(revenue)
	}

	for _, b := range s.Instalments {
		amount := decimal.NewFromFloat(b.Amount)
		taxed := amount
		if remaining.LessThan(amount) {
			taxed = remaining
		}
		remaining = remaining.Sub(taxed)
		slices = append(slices, Slice{
			Income: taxed.InexactFloat64(),
			Rate:   b.Rate,
			Tax:    taxed.Mul(decimal.NewFromFloat(b.Rate)).InexactFloat64(),
		})
	}

	slices = append(slices, Slice{
		Income:  remaining.InexactFloat64(),
		Rate:    s.DefaultRate,
		Tax:     remaining.Mul(decimal.NewFromFloat(s.DefaultRate)).InexactFloat64(),
		Default: true,
	})
	return slices
}

// Slice is the portion of income taxed by a single bracket.
type Slice struct {
	Income  float64 `json:"income"`
	Rate    float64 `json:"rate"`
	Tax     float64 `json:"tax"`
	Default bool    `json:"default,omitempty"`
}
