package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange_Values(t *testing.T) {
	r := Range{Start: 5000, Stop: 5500, Step: 100}
	assert.Equal(t, []float64{5000, 5100, 5200, 5300, 5400}, r.Values())
	assert.Equal(t, 5, r.Len())
}

func TestRange_DefaultSize(t *testing.T) {
	r := Range{Start: 5000, Stop: 200000, Step: 100}
	values := r.Values()
	require.Len(t, values, 1950)
	assert.Equal(t, 5000.0, values[0])
	assert.Equal(t, 199900.0, values[len(values)-1])
}

func TestRange_StopNotOnStep(t *testing.T) {
	r := Range{Start: 0, Stop: 250, Step: 100}
	assert.Equal(t, []float64{0, 100, 200}, r.Values())
}

func TestRange_Empty(t *testing.T) {
	r := Range{Start: 100, Stop: 100, Step: 10}
	require.NoError(t, r.Validate())
	assert.Empty(t, r.Values())
}

func TestRange_Ascending(t *testing.T) {
	values := Range{Start: 0.5, Stop: 100, Step: 0.1}.Values()
	for i := 1; i < len(values); i++ {
		require.Greater(t, values[i], values[i-1])
	}
}

func TestRange_MaxRowsIsValid(t *testing.T) {
	r := Range{Start: 0, Stop: MaxRows, Step: 1}
	require.NoError(t, r.Validate())
	assert.Equal(t, MaxRows, r.Len())
}

func TestRange_Validate(t *testing.T) {
	tests := []struct {
		name string
		r    Range
	}{
		{"zero step", Range{Start: 0, Stop: 10, Step: 0}},
		{"negative step", Range{Start: 0, Stop: 10, Step: -1}},
		{"stop before start", Range{Start: 10, Stop: 0, Step: 1}},
		{"step underflows count", Range{Start: 5000, Stop: 200000, Step: 1e-300}},
		{"too many rows", Range{Start: 0, Stop: 1e18, Step: 1}},
		{"one row over the limit", Range{Start: 0, Stop: MaxRows + 1, Step: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRange))
			assert.Empty(t, tt.r.Values())
		})
	}
}
