package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogWeightIdentity(t *testing.T) {
	lw := NewLogWeight()
	assert.InDelta(t, 1.0, lw.Value(), 1e-9)
}

func TestLogWeightAccumulates(t *testing.T) {
	lw := NewLogWeight()
	lw.Add(0.3, 0.6) // ratio 0.5
	lw.Add(0.3, 0.6) // ratio 0.5 again -> product 0.25
	assert.InDelta(t, 0.25, lw.Value(), 1e-6)
}

func TestLogWeightManySmallStepsStaysFinite(t *testing.T) {
	lw := NewLogWeight()
	for i := 0; i < 100; i++ {
		lw.Add(0.001, 0.9)
	}
	v := lw.Value()
	assert.False(t, math.IsNaN(v))
	assert.Greater(t, v, 0.0)
}

func TestHazardAtScaleMatchesClosedFormForLargeScale(t *testing.T) {
	shape, scale := 1.12, 87600.0
	x := 50000.0
	want := (shape / scale) * math.Pow(x/scale, shape-1)
	got := HazardAtScale(shape, scale, 0, x)
	assert.InEpsilon(t, want, got, 1e-6)
}

func TestHazardAtScaleBelowLocationIsZero(t *testing.T) {
	assert.Equal(t, 0.0, HazardAtScale(2, 10, 5, 3))
}
