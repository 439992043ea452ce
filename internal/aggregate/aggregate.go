// Package aggregate turns a batch of per-iteration Observations into the
// summary statistics spec.md §4.7 describes: PDL, NOMDL, blocked ratio,
// single-chunk repair ratio, relative error, and a zero-sample count for
// diagnosing importance-sampling under-biasing.
package aggregate

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kmgreen/reliasim/internal/sim"
)

// confidenceLevel is the normal-approximation CI spec.md §4.7 calls for.
const confidenceLevel = 0.95

// Stats is a batch mean/variance summary with a half-width CI and
// relative error at confidenceLevel, computed under a normal
// approximation (original_source/simedc.py's get_output: calcMean,
// calcRE("0.95")).
type Stats struct {
	Mean          float64
	Variance      float64
	HalfWidth     float64
	RelativeError float64 // percent; +Inf when Mean == 0
	NumZeroes     int
}

// computeStats summarizes already-weighted per-iteration contributions
// (each one the full importance-sampling product x_i*weight_i, or just
// x_i when weight is always 1 under regular Monte Carlo) via an
// unweighted sample mean and variance: the IS correction lives in the
// per-sample product, not in a second round of weighting.
func computeStats(values []float64) Stats {
	n := len(values)
	if n == 0 {
		return Stats{RelativeError: math.Inf(1)}
	}

	mean, variance := stat.MeanVariance(values, nil)
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - (1-confidenceLevel)/2)
	halfWidth := z * math.Sqrt(variance/float64(n))

	re := math.Inf(1)
	if mean != 0 {
		re = 100 * halfWidth / mean
	}

	zeroes := 0
	for _, v := range values {
		if v == 0 {
			zeroes++
		}
	}

	return Stats{Mean: mean, Variance: variance, HalfWidth: halfWidth, RelativeError: re, NumZeroes: zeroes}
}

// Report is the literal output block spec.md §6 names: num_zeroes, PDL,
// RE%, NOMDL, BR, single-chunk repair ratio.
type Report struct {
	PDL                    Stats
	NOMDL                  float64
	BlockedRatio           float64
	SingleChunkRepairRatio float64
}

// BuildReport folds a batch of Observations (already concatenated in
// shard order by the orchestrator) into a Report. numStripes and codeN
// give the total chunk count (n · num_stripes) NOMDL normalizes against.
func BuildReport(observations []sim.Observation, numStripes, codeN int) Report {
	n := len(observations)
	if n == 0 {
		return Report{PDL: Stats{RelativeError: math.Inf(1)}}
	}

	lossWeighted := make([]float64, n)
	lostChunksWeighted := make([]float64, n)
	var sumBlockedRatio, sumSingleChunkRatio float64

	for i, o := range observations {
		indicator := 0.0
		if o.DataLoss {
			indicator = 1.0
		}
		lossWeighted[i] = indicator * o.Weight
		lostChunksWeighted[i] = float64(o.NumLostChunks) * o.Weight
		sumBlockedRatio += o.BlockedRatio
		sumSingleChunkRatio += o.SingleChunkRepairRatio
	}

	totalChunks := float64(numStripes * codeN)
	avgLostChunks := stat.Mean(lostChunksWeighted, nil)

	return Report{
		PDL:                    computeStats(lossWeighted),
		NOMDL:                  avgLostChunks / totalChunks,
		BlockedRatio:           sumBlockedRatio / float64(n),
		SingleChunkRepairRatio: sumSingleChunkRatio / float64(n),
	}
}
