package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigMatchesOriginalDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 4, cfg.Run.TotalIterations)
	assert.Equal(t, 4, cfg.Run.NumProcesses)
	assert.Equal(t, 87600.0, cfg.Run.MissionTime)
	assert.Equal(t, int64(10), cfg.Run.RSeedPlus)
	assert.Equal(t, SimUnifBFB, cfg.Run.SimType)
	assert.Equal(t, 32, cfg.Topology.NumRacks)
	assert.Equal(t, 32, cfg.Topology.NodesPerRack)
	assert.Equal(t, 1, cfg.Topology.DisksPerNode)
	assert.Equal(t, CodeRS, cfg.Code.Type)
	assert.Equal(t, 9, cfg.Code.N)
	assert.Equal(t, 6, cfg.Code.K)
	assert.Equal(t, 349524, cfg.Placement.NumStripes)
	assert.Equal(t, PlaceFlat, cfg.Placement.Type)
	assert.True(t, cfg.Network.Enabled)
	assert.Equal(t, 0.5, cfg.IS.FailureBiasProb)
	assert.Equal(t, 0.61, cfg.IS.Beta)
}

func TestValidateRejectsKGreaterOrEqualN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Code.N = 6
	cfg.Code.K = 6
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsLRCWithoutLocalParity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Code.Type = CodeLRC
	cfg.Code.L = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDRCWithUnsupportedShape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Code.Type = CodeDRC
	cfg.Code.N = 9
	cfg.Code.K = 4
	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsDRCSupportedShape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Code.Type = CodeDRC
	cfg.Code.N = 9
	cfg.Code.K = 6
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsInsufficientCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Topology.NumRacks = 1
	cfg.Topology.NodesPerRack = 1
	cfg.Topology.DisksPerNode = 1
	cfg.Topology.CapacityPerDisk = 1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsCrossRackBandwidthExceedingIntraRack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network.CrossRackBandwidth = 200
	cfg.Network.IntraRackBandwidth = 100
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsChunkRackConfigNotSummingToN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Placement.ChunkRackConfig = []int{3, 3}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsIterationsNotMultipleOfProcesses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Run.TotalIterations = 5
	cfg.Run.NumProcesses = 4
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("RELIASIM_TEST_RACKS", "8")
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	content := "topology:\n  num_racks: ${RELIASIM_TEST_RACKS}\n  nodes_per_rack: 32\n  disks_per_node: 1\n  capacity_per_disk_mib: 1048576\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Topology.NumRacks)
	// sections absent from the file keep their DefaultConfig values, since
	// yaml.Unmarshal merges onto the pre-populated struct rather than
	// zeroing unset fields.
	assert.Equal(t, CodeRS, cfg.Code.Type)
}

func TestLoadMalformedYAMLReturnsConfigError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Topology.NumRacks = 16
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
