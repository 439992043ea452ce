package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmgreen/reliasim/internal/sim"
)

func TestBuildReportAllLossesGivesPDLOfOne(t *testing.T) {
	obs := []sim.Observation{
		{DataLoss: true, NumLostChunks: 9, Weight: 1.0},
		{DataLoss: true, NumLostChunks: 9, Weight: 1.0},
	}
	r := BuildReport(obs, 10, 9)

	require.InDelta(t, 1.0, r.PDL.Mean, 1e-9)
	require.Equal(t, 0, r.PDL.NumZeroes)
}

func TestBuildReportNoLossesGivesZeroPDLAndInfiniteRE(t *testing.T) {
	obs := []sim.Observation{
		{DataLoss: false, Weight: 1.0},
		{DataLoss: false, Weight: 1.0},
		{DataLoss: false, Weight: 1.0},
	}
	r := BuildReport(obs, 10, 9)

	require.Equal(t, 0.0, r.PDL.Mean)
	require.True(t, math.IsInf(r.PDL.RelativeError, 1))
	require.Equal(t, 3, r.PDL.NumZeroes)
}

func TestBuildReportWeightsImportanceSampledLoss(t *testing.T) {
	obs := []sim.Observation{
		{DataLoss: true, NumLostChunks: 9, Weight: 0.4},
		{DataLoss: false, Weight: 1.1},
	}
	r := BuildReport(obs, 10, 9)

	require.InDelta(t, 0.2, r.PDL.Mean, 1e-9) // (1*0.4 + 0*1.1) / 2
	require.InDelta(t, (9*0.4+0*1.1)/2/(10.0*9), r.NOMDL, 1e-9)
}

func TestBuildReportAveragesBlockedRatioAndRepairRatioUnweighted(t *testing.T) {
	obs := []sim.Observation{
		{Weight: 1.0, BlockedRatio: 0.2, SingleChunkRepairRatio: 0.5},
		{Weight: 1.0, BlockedRatio: 0.4, SingleChunkRepairRatio: 1.0},
	}
	r := BuildReport(obs, 10, 9)

	require.InDelta(t, 0.3, r.BlockedRatio, 1e-9)
	require.InDelta(t, 0.75, r.SingleChunkRepairRatio, 1e-9)
}

func TestBuildReportEmptyBatchReturnsInfiniteRE(t *testing.T) {
	r := BuildReport(nil, 10, 9)
	require.True(t, math.IsInf(r.PDL.RelativeError, 1))
}

func TestComputeStatsHalfWidthShrinksWithMoreSamples(t *testing.T) {
	small := computeStats([]float64{1, 0, 1, 0})
	large := computeStats([]float64{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0})

	require.Greater(t, small.HalfWidth, large.HalfWidth)
}
