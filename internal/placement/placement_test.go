package placement

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rsConfig() Config {
	return Config{
		NumRacks: 32, NodesPerRack: 1, DisksPerNode: 1,
		CapacityPerDisk: 1 << 30, NumStripes: 100, ChunkSize: 1 << 20,
		CodeType: CodeRS, N: 9, K: 6, Free: 0,
		PlaceType: PlaceFlat,
	}
}

func TestFlatPlacementSpansDistinctRacksPerStripe(t *testing.T) {
	cfg := rsConfig()
	rng := rand.New(rand.NewSource(1))
	p, err := New(cfg, rng)
	require.NoError(t, err)

	for s := 0; s < cfg.NumStripes; s++ {
		disks := p.StripeLocation(s)
		require.Len(t, disks, cfg.N)
		seen := map[int]bool{}
		for _, d := range disks {
			assert.False(t, seen[d], "disk reused within one stripe")
			seen[d] = true
		}
	}
}

func TestRSDataLossRequiresMoreThanParityFailures(t *testing.T) {
	cfg := rsConfig()
	cfg.NumStripes = 1 // isolate the loss predicate from cross-stripe disk reuse
	rng := rand.New(rand.NewSource(2))
	p, err := New(cfg, rng)
	require.NoError(t, err)

	disks := p.StripeLocation(0)
	m := cfg.N - cfg.K // 3

	assert.False(t, p.CheckDataLoss(disks[:m]), "exactly m failures must still be recoverable")
	assert.True(t, p.CheckDataLoss(disks[:m+1]), "m+1 failures must be data loss")
}

func TestNumFailedStatusCountsLostChunks(t *testing.T) {
	cfg := rsConfig()
	cfg.NumStripes = 1
	rng := rand.New(rand.NewSource(3))
	p, err := New(cfg, rng)
	require.NoError(t, err)

	disks := p.StripeLocation(0)
	m := cfg.N - cfg.K
	failed := disks[:m+2]
	numStripes, numChunks := p.NumFailedStatus(failed)
	assert.Equal(t, 1, numStripes)
	assert.Equal(t, m+2, numChunks)
}

func TestDRCForcesChunkRackConfigAndHierarchical(t *testing.T) {
	cfg := Config{
		NumRacks: 3, NodesPerRack: 3, DisksPerNode: 1,
		CapacityPerDisk: 1 << 30, NumStripes: 10, ChunkSize: 1 << 20,
		CodeType: CodeDRC, N: 9, K: 6,
		PlaceType: PlaceFlat, // should be overridden to Hierarchical
	}
	rng := rand.New(rand.NewSource(4))
	p, err := New(cfg, rng)
	require.NoError(t, err)
	assert.Equal(t, PlaceHierarchical, p.cfg.PlaceType)
	assert.Equal(t, []int{3, 3, 3}, p.cfg.ChunkRackConfig)
}

func TestDRCRejectsUnsupportedNK(t *testing.T) {
	cfg := Config{
		NumRacks: 3, NodesPerRack: 3, DisksPerNode: 1,
		CapacityPerDisk: 1 << 30, NumStripes: 10, ChunkSize: 1 << 20,
		CodeType: CodeDRC, N: 10, K: 6,
		PlaceType: PlaceFlat,
	}
	rng := rand.New(rand.NewSource(5))
	_, err := New(cfg, rng)
	assert.Error(t, err)
}

func TestHierarchicalFewerThanThreeRacksFailsForDRCShape(t *testing.T) {
	cfg := Config{
		NumRacks: 2, NodesPerRack: 3, DisksPerNode: 1,
		CapacityPerDisk: 1 << 30, NumStripes: 10, ChunkSize: 1 << 20,
		CodeType: CodeDRC, N: 9, K: 6,
		PlaceType: PlaceFlat,
	}
	rng := rand.New(rand.NewSource(6))
	_, err := New(cfg, rng)
	assert.Error(t, err, "DRC needs 3 racks for its forced chunk_rack_config")
}

func TestLRCLossPredicateToleratesLocalRepair(t *testing.T) {
	cfg := Config{
		NumRacks: 16, NodesPerRack: 1, DisksPerNode: 1,
		CapacityPerDisk: 1 << 30, NumStripes: 1, ChunkSize: 1 << 20,
		CodeType: CodeLRC, N: 16, K: 10, L: 2, Free: 0,
		PlaceType: PlaceFlat,
		LRCLayout: DefaultLRCLayout(),
	}
	rng := rand.New(rand.NewSource(7))
	p, err := New(cfg, rng)
	require.NoError(t, err)

	disks := p.StripeLocation(0)
	// Fail one data chunk in group 0 (position 0) -- local parity at
	// position 6 survives and should repair it locally.
	failedOneInGroup := []int{disks[0]}
	assert.False(t, p.CheckDataLoss(failedOneInGroup))

	// Fail all 6 data chunks of group 0 plus both global parities:
	// local parity alone cannot repair more than 1 loss, so the group
	// contributes more failures than n-k-l tolerates.
	failedMany := append([]int{}, disks[0], disks[1], disks[2], disks[3], disks[4], disks[5], disks[7], disks[15])
	assert.True(t, p.CheckDataLoss(failedMany))
}

func TestNumFailedStatusEmptyFailedDisksIsZero(t *testing.T) {
	cfg := rsConfig()
	rng := rand.New(rand.NewSource(8))
	p, err := New(cfg, rng)
	require.NoError(t, err)
	ns, nc := p.NumFailedStatus(nil)
	assert.Equal(t, 0, ns)
	assert.Equal(t, 0, nc)
}

func TestSampleDistinctRejectsMoreValuesThanAvailable(t *testing.T) {
	p := &Placement{}
	rng := rand.New(rand.NewSource(9))
	_, err := p.sampleDistinct(rng, 2, 3)
	assert.Error(t, err)
}
