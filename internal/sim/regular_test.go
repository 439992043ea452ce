package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmgreen/reliasim/internal/config"
	"github.com/kmgreen/reliasim/internal/telemetry"
)

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Run.MissionTime = 2000
	cfg.Run.SimType = config.SimRegular
	cfg.Topology = config.TopologyConfig{
		NumRacks:        4,
		NodesPerRack:    2,
		DisksPerNode:    1,
		CapacityPerDisk: 1 << 20,
	}
	cfg.Code = config.CodeConfig{Type: config.CodeRS, N: 4, K: 2, Free: 0}
	cfg.Placement = config.PlacementConfig{NumStripes: 20, ChunkSize: 1, Type: config.PlaceFlat}
	cfg.Network.Enabled = false
	return cfg
}

func newTestWorld(t *testing.T, cfg *config.Config) *World {
	t.Helper()
	log := telemetry.New(telemetry.Config{})
	w, err := NewWorld(cfg, log, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return w
}

func TestRegularSimulatorRunIterationProducesValidObservation(t *testing.T) {
	cfg := smallConfig()
	w := newTestWorld(t, cfg)
	sim := NewRegularSimulator(w, rand.New(rand.NewSource(42)))

	obs, err := sim.RunIteration()

	require.NoError(t, err)
	require.Equal(t, 1.0, obs.Weight)
	require.GreaterOrEqual(t, obs.NumFailedStripes, 0)
	require.GreaterOrEqual(t, obs.NumLostChunks, 0)
	if obs.DataLoss {
		require.Greater(t, obs.NumFailedStripes, 0)
	}
}

func TestRegularSimulatorDeterministicGivenSameSeed(t *testing.T) {
	cfg := smallConfig()

	w1 := newTestWorld(t, cfg)
	obs1, err := NewRegularSimulator(w1, rand.New(rand.NewSource(7))).RunIteration()
	require.NoError(t, err)

	w2 := newTestWorld(t, cfg)
	obs2, err := NewRegularSimulator(w2, rand.New(rand.NewSource(7))).RunIteration()
	require.NoError(t, err)

	require.Equal(t, obs1, obs2)
}

func TestRegularSimulatorWithNetworkModelStaysWithinBounds(t *testing.T) {
	cfg := smallConfig()
	cfg.Network.Enabled = true
	cfg.Network.CrossRackBandwidth = 1
	cfg.Network.IntraRackBandwidth = 1
	w := newTestWorld(t, cfg)
	sim := NewRegularSimulator(w, rand.New(rand.NewSource(3)))

	obs, err := sim.RunIteration()
	require.NoError(t, err)

	require.GreaterOrEqual(t, obs.BlockedRatio, 0.0)
	require.LessOrEqual(t, obs.BlockedRatio, 1.0)
	require.GreaterOrEqual(t, obs.SingleChunkRepairRatio, 0.0)
	require.LessOrEqual(t, obs.SingleChunkRepairRatio, 1.0)
}

func TestRegularSimulatorPowerOutageModeRuns(t *testing.T) {
	cfg := smallConfig()
	cfg.PowerOutage.Enabled = true
	cfg.PowerOutage.Duration = 15
	w := newTestWorld(t, cfg)
	sim := NewRegularSimulator(w, rand.New(rand.NewSource(11)))

	require.NotPanics(t, func() {
		_, err := sim.RunIteration()
		require.NoError(t, err)
	})
}

func TestRegularSimulatorMultipleIterationsReuseWorld(t *testing.T) {
	cfg := smallConfig()
	w := newTestWorld(t, cfg)
	rng := rand.New(rand.NewSource(99))
	sim := NewRegularSimulator(w, rng)

	for i := 0; i < 5; i++ {
		obs, err := sim.RunIteration()
		require.NoError(t, err)
		require.Equal(t, 1.0, obs.Weight)
	}
}
