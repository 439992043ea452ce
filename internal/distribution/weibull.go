// Package distribution implements the lifetime/repair distributions used
// to drive component failure and repair events.
package distribution

import (
	"math"
	"math/rand"
)

// Weibull is a 3-parameter Weibull(shape, scale, location) distribution.
// When shape == 1 it reduces to an Exponential with constant hazard
// 1/scale.
type Weibull struct {
	Shape    float64
	Scale    float64
	Location float64
}

// New constructs a Weibull distribution. Callers that only care about
// shape/scale pass a location of 0.
func New(shape, scale, location float64) Weibull {
	return Weibull{Shape: shape, Scale: scale, Location: location}
}

// IsExponential reports whether this distribution is the shape=1
// Exponential special case.
func (w Weibull) IsExponential() bool {
	return w.Shape == 1
}

// PDF returns the probability density at x. Returns 0 for x below the
// location parameter.
func (w Weibull) PDF(x float64) float64 {
	if x < 0 || x < w.Location {
		return 0
	}
	a := w.Shape / w.Scale
	b := (x - w.Location) / w.Scale
	return a * math.Pow(b, w.Shape-1) * math.Exp(-math.Pow(b, w.Shape))
}

// CDF returns P(X <= x). Returns 0 for x below the location parameter.
func (w Weibull) CDF(x float64) float64 {
	if x < w.Location {
		return 0
	}
	return 1 - math.Exp(-math.Pow((x-w.Location)/w.Scale, w.Shape))
}

// Hazard returns the instantaneous failure rate at x: pdf(x)/(1-cdf(x)),
// or the constant 1/scale when shape == 1.
func (w Weibull) Hazard(x float64) float64 {
	if x < w.Location {
		return 0
	}
	if w.IsExponential() {
		return 1 / w.Scale
	}
	return math.Abs(w.PDF(x) / (1 - w.CDF(x)))
}

// Mean returns scale * Gamma(1 + 1/shape) + location. Nothing in the
// simulator calls it.
func (w Weibull) Mean() float64 {
	return w.Scale*math.Gamma(1+1/w.Shape) + w.Location
}

// Draw samples scale*(-ln U)^(1/shape) + location, U ~ Uniform(0,1).
func (w Weibull) Draw(rng *rand.Rand) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return w.Scale*math.Pow(-math.Log(u), 1/w.Shape) + w.Location
}

// DrawTruncated rejects draws at or below lower, returning the first
// draw strictly greater than it.
func (w Weibull) DrawTruncated(rng *rand.Rand, lower float64) float64 {
	v := w.Draw(rng)
	for v <= lower {
		v = w.Draw(rng)
	}
	return v
}

// DrawInverseTransform draws a conditional waiting time given the
// component has already aged currTime, using the memoryless form
// ((-scale^shape * ln U) + currTime^shape)^(1/shape) - currTime.
func (w Weibull) DrawInverseTransform(rng *rand.Rand, currTime float64) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	inner := -math.Pow(w.Scale, w.Shape)*math.Log(u) + math.Pow(currTime, w.Shape)
	draw := math.Pow(inner, 1/w.Shape) - currTime
	return math.Abs(draw)
}

// MaxHazardRate returns the supremum of the hazard rate over [0, T],
// evaluated at 10 equally spaced points. Shape == 1 short-circuits to
// the constant 1/scale.
func (w Weibull) MaxHazardRate(missionTime float64) float64 {
	if w.IsExponential() {
		return 1 / w.Scale
	}
	const points = 10
	max := 0.0
	step := missionTime / points
	for i := 0; i < points; i++ {
		h := w.Hazard(float64(i) * step)
		if math.IsNaN(h) || math.IsInf(h, 0) {
			continue
		}
		if h > max {
			max = h
		}
	}
	return max
}
