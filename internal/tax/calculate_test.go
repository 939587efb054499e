package tax

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func currentSchedule() Schedule {
	return Schedule{
		Name:        "current_system",
		DefaultRate: 0.50,
		Instalments: []Bracket{
			{Amount: 15820, Rate: 0.25},
			{Amount: 12100, Rate: 0.40},
			{Amount: 20400, Rate: 0.45},
		},
	}
}

func proposedSchedule() Schedule {
	return Schedule{
		Name:        "super-nota-bart-de-wever",
		DefaultRate: 0.45,
		Instalments: []Bracket{
			{Amount: 16000, Rate: 0.25},
			{Amount: 5000, Rate: 0.35},
			{Amount: 9000, Rate: 0.40},
		},
	}
}

func TestCalculate_WorkedExamples(t *testing.T) {
	s := currentSchedule()

	tests := []struct {
		name    string
		revenue float64
		want    float64
	}{
		{"exactly first bracket", 15820, 3955},
		{"first two brackets", 27920, 8795},
		{"all brackets plus default", 1000000, 493815},
		{"inside third bracket", 30000, 9731},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Calculate(tt.revenue, s))
		})
	}
}

func TestCalculate_ZeroRevenue(t *testing.T) {
	assert.Equal(t, 0.0, Calculate(0, currentSchedule()))
	assert.Equal(t, 0.0, Calculate(0, proposedSchedule()))
}

func TestCalculate_NegativeRevenue(t *testing.T) {
	assert.Equal(t, 0.0, Calculate(-5000, currentSchedule()))
}

func TestCalculate_NonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(Calculate(math.NaN(), currentSchedule())))
	assert.True(t, math.IsNaN(Calculate(math.Inf(1), currentSchedule())))
}

func TestCalculate_BelowFirstBracket(t *testing.T) {
	for _, s := range []Schedule{currentSchedule(), proposedSchedule()} {
		first := s.Instalments[0]
		for _, revenue := range []float64{1, 100, 5000, 10000, first.Amount - 1} {
			assert.Equal(t, revenue*first.Rate, Calculate(revenue, s), "%s at %v", s.Name, revenue)
		}
	}
}

func TestCalculate_NonNegativeAndMonotonic(t *testing.T) {
	for _, s := range []Schedule{currentSchedule(), proposedSchedule()} {
		prev := 0.0
		for revenue := 0.0; revenue <= 250000; revenue += 250 {
			got := Calculate(revenue, s)
			require.GreaterOrEqual(t, got, 0.0, "%s at %v", s.Name, revenue)
			require.GreaterOrEqual(t, got, prev, "%s not monotonic at %v", s.Name, revenue)
			prev = got
		}
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	s := proposedSchedule()
	first := Calculate(123456, s)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Calculate(123456, s))
	}
}

func TestCalculate_NoBrackets(t *testing.T) {
	s := Schedule{Name: "flat", DefaultRate: 0.3}
	assert.Equal(t, 3000.0, Calculate(10000, s))
}

func TestCalculate_MalformedScheduleDoesNotPanic(t *testing.T) {
	s := Schedule{
		Name:        "broken",
		DefaultRate: -0.1,
		Instalments: []Bracket{
			{Amount: -100, Rate: 2},
			{Amount: 50, Rate: -0.5},
		},
	}
	assert.NotPanics(t, func() {
		Calculate(1000, s)
	})
}

func TestBreakdown_SumsToCalculate(t *testing.T) {
	s := currentSchedule()
	for _, revenue := range []float64{0, 15820, 27920, 30000, 1000000} {
		slices := Breakdown(revenue, s)
		require.Len(t, slices, len(s.Instalments)+1)
		assert.True(t, slices[len(slices)-1].Default)

		var tax, income float64
		for _, sl := range slices {
			tax += sl.Tax
			income += sl.Income
		}
		assert.InDelta(t, Calculate(revenue, s), tax, 1e-9, "revenue %v", revenue)
		assert.InDelta(t, revenue, income, 1e-9, "revenue %v", revenue)
	}
}

func TestBreakdown_Slices(t *testing.T) {
	slices := Breakdown(30000, currentSchedule())

	assert.Equal(t, []Slice{
		{Income: 15820, Rate: 0.25, Tax: 3955},
		{Income: 12100, Rate: 0.40, Tax: 4840},
		{Income: 2080, Rate: 0.45, Tax: 936},
		{Income: 0, Rate: 0.50, Tax: 0, Default: true},
	}, slices)
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, 48320.0, currentSchedule().Threshold())
	assert.Equal(t, 30000.0, proposedSchedule().Threshold())
}

func TestMarginalRate(t *testing.T) {
	s := currentSchedule()
	assert.Equal(t, 0.25, s.MarginalRate(0))
	assert.Equal(t, 0.40, s.MarginalRate(15820))
	assert.Equal(t, 0.45, s.MarginalRate(30000))
	assert.Equal(t, 0.50, s.MarginalRate(48320))
	assert.Equal(t, 0.50, s.MarginalRate(1000000))
}
