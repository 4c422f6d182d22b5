package formulas

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name         string
		returns      []float64
		wantMax      float64
		wantDuration int
	}{
		{
			name:         "all positive has no drawdown",
			returns:      []float64{0.01, 0.02, 0.005, 0.03},
			wantMax:      0,
			wantDuration: 0,
		},
		{
			name:         "single loss then recovery",
			returns:      []float64{0.10, -0.20, 0.25},
			wantMax:      0.20,
			wantDuration: 1, // only the loss period ends below the prior peak
		},
		{
			name:         "monotonic decline stays in drawdown",
			returns:      []float64{-0.10, -0.10, -0.10},
			wantMax:      1 - 0.9*0.9*0.9,
			wantDuration: 3,
		},
		{
			name:         "empty series",
			returns:      nil,
			wantMax:      0,
			wantDuration: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.returns)
			assert.InDelta(t, tt.wantMax, got.MaxDrawdown, 1e-12)
			assert.Equal(t, tt.wantDuration, got.DurationPeriods)
		})
	}
}

// Drawdown must stay inside [0, 1] for any return series, including extreme
// losses that would take compounded wealth to or below zero.
func TestMaxDrawdownBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(300)
		returns := make([]float64, n)
		for i := range returns {
			// Range [-1.5, 1.5] deliberately includes wipe-out returns.
			returns[i] = (rng.Float64() - 0.5) * 3
		}

		got := MaxDrawdown(returns)
		assert.GreaterOrEqual(t, got.MaxDrawdown, 0.0)
		assert.LessOrEqual(t, got.MaxDrawdown, 1.0)
		assert.GreaterOrEqual(t, got.DurationPeriods, 0)
		assert.LessOrEqual(t, got.DurationPeriods, n)
	}
}
