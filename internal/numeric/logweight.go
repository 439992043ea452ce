// Package numeric isolates the handful of computations that need more
// than float64 precision: the running log-likelihood-ratio of an
// importance-sampled iteration, and hazard-rate evaluation at scales
// large enough to make float64 division unstable (spec.md §4.1, §9).
//
// The original Python implementation (original_source/lib/
// smp_data_structures.py) runs its entire Weibull/hazard-rate module
// under mpmath at 100 decimal digits. No arbitrary-precision float
// package is vendored anywhere in the retrieval corpus, so this package
// is deliberately the module's one stdlib-only corner (math/big).
package numeric

import "math/big"

const precisionBits = 200

// LogWeight accumulates a running log-likelihood ratio in extended
// precision, exponentiating only on demand so a rare-event path spanning
// dozens of heavily biased steps never underflows float64.
type LogWeight struct {
	sum *big.Float
}

// NewLogWeight returns a LogWeight initialized to log(1) = 0.
func NewLogWeight() *LogWeight {
	return &LogWeight{sum: new(big.Float).SetPrec(precisionBits)}
}

// Add multiplies the running product by (trueProb/biasedProb), i.e. adds
// its log to the running sum.
func (lw *LogWeight) Add(trueProb, biasedProb float64) {
	if biasedProb <= 0 {
		return
	}
	ratio := new(big.Float).SetPrec(precisionBits).Quo(
		new(big.Float).SetFloat64(trueProb),
		new(big.Float).SetFloat64(biasedProb),
	)
	lw.sum.Add(lw.sum, bigLog(ratio))
}

// Value exponentiates the running log-sum back to a float64, the only
// point at which precision is deliberately given up.
func (lw *LogWeight) Value() float64 {
	f, _ := bigExp(lw.sum).Float64()
	return f
}

// bigLog computes ln(x) for x > 0 via a Taylor series around 1 after
// range reduction by repeated square roots — sufficient precision for
// ratios of probabilities that stay within a handful of orders of
// magnitude of 1.
func bigLog(x *big.Float) *big.Float {
	prec := x.Prec()
	one := new(big.Float).SetPrec(prec).SetInt64(1)
	if x.Cmp(one) == 0 {
		return new(big.Float).SetPrec(prec)
	}

	reductions := 0
	y := new(big.Float).SetPrec(prec).Copy(x)
	half := new(big.Float).SetPrec(prec).SetFloat64(0.5)
	for y.Cmp(new(big.Float).SetPrec(prec).SetFloat64(0.5)) < 0 || y.Cmp(new(big.Float).SetPrec(prec).SetFloat64(2)) > 0 {
		y = bigSqrt(y)
		reductions++
		if reductions > 64 {
			break
		}
	}

	// z = (y-1)/(y+1); ln(y) = 2*(z + z^3/3 + z^5/5 + ...)
	num := new(big.Float).SetPrec(prec).Sub(y, one)
	den := new(big.Float).SetPrec(prec).Add(y, one)
	z := new(big.Float).SetPrec(prec).Quo(num, den)
	zSq := new(big.Float).SetPrec(prec).Mul(z, z)

	term := new(big.Float).SetPrec(prec).Copy(z)
	sum := new(big.Float).SetPrec(prec).Copy(z)
	for i := 3; i < 40; i += 2 {
		term.Mul(term, zSq)
		denom := new(big.Float).SetPrec(prec).SetInt64(int64(i))
		sum.Add(sum, new(big.Float).SetPrec(prec).Quo(term, denom))
	}
	sum.Mul(sum, new(big.Float).SetPrec(prec).SetInt64(2))

	scale := new(big.Float).SetPrec(prec).SetInt64(int64(1 << uint(reductions)))
	_ = half
	return sum.Mul(sum, scale)
}

// bigSqrt returns an approximate square root via Newton's method seeded
// from the float64 estimate.
func bigSqrt(x *big.Float) *big.Float {
	prec := x.Prec()
	f, _ := x.Float64()
	guess := new(big.Float).SetPrec(prec).SetFloat64(sqrtSeed(f))
	two := new(big.Float).SetPrec(prec).SetInt64(2)
	for i := 0; i < 6; i++ {
		guess = new(big.Float).SetPrec(prec).Quo(
			new(big.Float).SetPrec(prec).Add(guess, new(big.Float).SetPrec(prec).Quo(x, guess)),
			two,
		)
	}
	return guess
}

func sqrtSeed(f float64) float64 {
	if f <= 0 {
		return 1
	}
	// Standard float64 Newton seed; math.Sqrt would be just as good but
	// we avoid mixing packages mid-algorithm for clarity.
	z := f
	for i := 0; i < 20; i++ {
		z = 0.5 * (z + f/z)
	}
	return z
}

// bigExp computes e^x via a Taylor series for small |x|, combined with
// repeated squaring for larger magnitudes.
func bigExp(x *big.Float) *big.Float {
	prec := x.Prec()
	if prec == 0 {
		prec = precisionBits
	}
	xf, _ := x.Float64()
	reductions := 0
	for xf > 1 || xf < -1 {
		xf /= 2
		reductions++
	}
	scaled := new(big.Float).SetPrec(prec).Quo(x, new(big.Float).SetPrec(prec).SetInt64(int64(1<<uint(reductions))))

	term := new(big.Float).SetPrec(prec).SetInt64(1)
	sum := new(big.Float).SetPrec(prec).SetInt64(1)
	for i := 1; i < 30; i++ {
		term = new(big.Float).SetPrec(prec).Mul(term, scaled)
		term = new(big.Float).SetPrec(prec).Quo(term, new(big.Float).SetPrec(prec).SetInt64(int64(i)))
		sum.Add(sum, term)
	}
	for i := 0; i < reductions; i++ {
		sum = new(big.Float).SetPrec(prec).Mul(sum, sum)
	}
	return sum
}

// HazardAtScale evaluates the Weibull hazard rate in extended precision.
// The simulators do not call it: a non-finite float64 hazard is replaced
// by the distribution's MaxHazardRate instead. pdf(x)/(1-cdf(x))
// reduces algebraically to (shape/scale)*((x-location)/scale)^(shape-1);
// using that closed form avoids subtracting two nearly equal large
// magnitudes (1 and cdf(x)) that underflow float64 first at the scales
// spec.md calls out (~1e5).
func HazardAtScale(shape, scale, location, x float64) float64 {
	if x < location {
		return 0
	}
	prec := uint(precisionBits)
	ratio := new(big.Float).SetPrec(prec).Quo(
		new(big.Float).SetPrec(prec).SetFloat64(x-location),
		new(big.Float).SetPrec(prec).SetFloat64(scale),
	)
	shapeB := new(big.Float).SetPrec(prec).SetFloat64(shape)
	shapeMinus1 := new(big.Float).SetPrec(prec).Sub(shapeB, new(big.Float).SetPrec(prec).SetInt64(1))

	lnRatio := bigLog(ratio)
	lnRatio.Mul(lnRatio, shapeMinus1)
	powTerm := bigExp(lnRatio) // ratio^(shape-1)

	a := new(big.Float).SetPrec(prec).Quo(shapeB, new(big.Float).SetPrec(prec).SetFloat64(scale))
	hazard := new(big.Float).SetPrec(prec).Mul(a, powTerm)
	f, _ := hazard.Float64()
	return f
}
