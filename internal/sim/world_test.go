package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmgreen/reliasim/internal/config"
)

func TestNewWorldRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Code.K = 0
	_, err := NewWorld(cfg, nil, rand.New(rand.NewSource(1)))
	require.Error(t, err)
}

func TestNewWorldMapsCodeAndPlaceTypes(t *testing.T) {
	cfg := smallConfig()
	cfg.Code.Type = config.CodeDRC
	cfg.Code.N = 9
	cfg.Code.K = 6
	cfg.Topology.NumRacks = 3
	cfg.Topology.NodesPerRack = 4
	cfg.Placement.NumStripes = 5
	cfg.Placement.Type = config.PlaceFlat // DRC forces HIERARCHICAL internally

	w := newTestWorld(t, cfg)
	require.Equal(t, config.CodeDRC, w.cfg.Code.Type)

	p, err := w.newPlacement(rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	require.Len(t, p.StripeLocation(0), cfg.Code.N)
}

func TestComputeHazardBoundHPositiveForDefaults(t *testing.T) {
	cfg := smallConfig()
	dists := buildDistributions(cfg)
	h := computeHazardBoundH(cfg, dists, cfg.Topology.NumRacks,
		cfg.Topology.NumRacks*cfg.Topology.NodesPerRack,
		cfg.Topology.NumRacks*cfg.Topology.NodesPerRack*cfg.Topology.DisksPerNode)
	require.Greater(t, h, 0.0)
}
