package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTrend(t *testing.T) {
	increasing := make([]float64, 20)
	decreasing := make([]float64, 20)
	flat := make([]float64, 20)
	for i := range increasing {
		increasing[i] = float64(i + 1)
		decreasing[i] = float64(20 - i)
		flat[i] = 10
	}

	assert.Equal(t, TrendIncreasing, ClassifyTrend(increasing, 5, 0.05))
	assert.Equal(t, TrendDecreasing, ClassifyTrend(decreasing, 5, 0.05))
	assert.Equal(t, TrendStable, ClassifyTrend(flat, 5, 0.05))
}

func TestClassifyTrendShortSeries(t *testing.T) {
	assert.Equal(t, TrendStable, ClassifyTrend([]float64{1, 2, 3}, 5, 0.05))
	assert.Equal(t, TrendStable, ClassifyTrend(nil, 5, 0.05))
	assert.Equal(t, TrendStable, ClassifyTrend([]float64{1, 2, 3, 4}, 0, 0.05))
}

func TestRollingVolatility(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03, -0.01, 0.02}

	series := RollingVolatility(returns, 3)
	assert.Len(t, series, 3)
	for _, v := range series {
		assert.Greater(t, v, 0.0)
	}

	flat := RollingVolatility([]float64{0.01, 0.01, 0.01, 0.01}, 3)
	assert.Len(t, flat, 2)
	for _, v := range flat {
		assert.InDelta(t, 0, v, 1e-12)
	}

	assert.Nil(t, RollingVolatility(returns, 6), "window longer than series")
	assert.Nil(t, RollingVolatility(returns, 1), "window below minimum")
}
