package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmgreen/reliasim/internal/config"
)

func unifbfbConfig() *config.Config {
	cfg := smallConfig()
	cfg.Run.SimType = config.SimUnifBFB
	cfg.IS.FailureBiasProb = 0.5
	cfg.IS.Beta = 0.61
	return cfg
}

func TestUnifBFBRunIterationProducesPositiveWeight(t *testing.T) {
	cfg := unifbfbConfig()
	w := newTestWorld(t, cfg)
	sim := NewUnifBFBSimulator(w, rand.New(rand.NewSource(5)))

	obs, err := sim.RunIteration()

	require.NoError(t, err)
	require.Greater(t, obs.Weight, 0.0)
	if obs.DataLoss {
		require.Greater(t, obs.NumFailedStripes, 0)
	}
}

func TestUnifBFBDeterministicGivenSameSeed(t *testing.T) {
	cfg := unifbfbConfig()

	w1 := newTestWorld(t, cfg)
	obs1, err := NewUnifBFBSimulator(w1, rand.New(rand.NewSource(13))).RunIteration()
	require.NoError(t, err)

	w2 := newTestWorld(t, cfg)
	obs2, err := NewUnifBFBSimulator(w2, rand.New(rand.NewSource(13))).RunIteration()
	require.NoError(t, err)

	require.Equal(t, obs1, obs2)
}

func TestUnifBFBBuildSetsOnFreshClusterHasFailuresButNoRepairs(t *testing.T) {
	cfg := unifbfbConfig()
	w := newTestWorld(t, cfg)
	sim := NewUnifBFBSimulator(w, rand.New(rand.NewSource(1)))
	w.cluster.InitAll(0)

	f, r := sim.buildSets()
	require.NotEmpty(t, f)
	require.Empty(t, r, "a freshly initialized cluster has nothing to repair yet")
}

func TestUnifBFBPowerOutageModeRuns(t *testing.T) {
	cfg := unifbfbConfig()
	cfg.PowerOutage.Enabled = true
	cfg.PowerOutage.Duration = 15
	w := newTestWorld(t, cfg)
	sim := NewUnifBFBSimulator(w, rand.New(rand.NewSource(21)))

	require.NotPanics(t, func() {
		_, err := sim.RunIteration()
		require.NoError(t, err)
	})
}

func TestSumRatesAddsEntryRates(t *testing.T) {
	entries := []rateEntry{{rate: 1.5}, {rate: 2.5}, {rate: 0}}
	require.Equal(t, 4.0, sumRates(entries))
}
