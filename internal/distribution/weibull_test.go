package distribution

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialHazardIsConstant(t *testing.T) {
	w := New(1, 87600, 0)
	assert.True(t, w.IsExponential())
	assert.InDelta(t, 1.0/87600, w.Hazard(0), 1e-12)
	assert.InDelta(t, 1.0/87600, w.Hazard(50000), 1e-12)
}

func TestDrawMeanWithinTwoPercentForExponential(t *testing.T) {
	w := New(1, 87600, 0)
	rng := rand.New(rand.NewSource(42))
	const n = 100000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += w.Draw(rng)
	}
	mean := sum / n
	require.InEpsilon(t, w.Scale, mean, 0.02)
}

func TestDrawTruncatedRejectsBelowLower(t *testing.T) {
	w := New(1.2, 1000, 0)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v := w.DrawTruncated(rng, 500)
		assert.Greater(t, v, 500.0)
	}
}

func TestMaxHazardRateShapeOneIsConstant(t *testing.T) {
	w := New(1, 500, 0)
	assert.Equal(t, 1.0/500, w.MaxHazardRate(10000))
}

func TestMaxHazardRateIncreasingShape(t *testing.T) {
	w := New(2.5, 1000, 0)
	h := w.MaxHazardRate(5000)
	assert.Greater(t, h, 0.0)
	assert.False(t, math.IsNaN(h))
}

func TestPDFCDFZeroBelowLocation(t *testing.T) {
	w := New(1.5, 10, 5)
	assert.Equal(t, 0.0, w.PDF(3))
	assert.Equal(t, 0.0, w.CDF(3))
}

func TestDrawInverseTransformNonNegative(t *testing.T) {
	w := New(1.3, 200, 0)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		v := w.DrawInverseTransform(rng, 100)
		assert.GreaterOrEqual(t, v, 0.0)
	}
}
