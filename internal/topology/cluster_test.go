package topology

import (
	"testing"

	"github.com/kmgreen/reliasim/internal/distribution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSmallCluster() *Cluster {
	fail := distribution.New(1, 1e6, 0)
	repair := distribution.New(1, 100, 0)

	racks := []*Rack{NewRack(0, fail, repair), NewRack(1, fail, repair)}
	nodes := []*Node{
		NewNode(0, fail, fail, repair),
		NewNode(1, fail, fail, repair),
	}
	disks := []*Disk{
		NewDisk(0, fail).WithRepairDistr(repair),
		NewDisk(1, fail).WithRepairDistr(repair),
	}
	return NewCluster(racks, nodes, disks, []int{0, 1}, []int{0, 1})
}

func TestDiskAccessibleInitiallyTrue(t *testing.T) {
	c := buildSmallCluster()
	c.InitAll(0)
	assert.True(t, c.DiskAccessible(0))
	assert.False(t, c.DiskLost(0))
}

func TestDiskCrashMakesInaccessibleAndLost(t *testing.T) {
	c := buildSmallCluster()
	c.InitAll(0)
	c.Disks[0].FailDisk(10)
	c.MarkDiskCrashed(0)
	assert.False(t, c.DiskAccessible(0))
	assert.True(t, c.DiskLost(0))
	require.Len(t, c.FailedDisks(), 1)
	assert.EqualValues(t, 0, c.FailedDisks()[0])
}

func TestDiskRepairedClearsFailedSet(t *testing.T) {
	c := buildSmallCluster()
	c.InitAll(0)
	c.Disks[0].FailDisk(10)
	c.MarkDiskCrashed(0)
	c.Disks[0].RepairDisk(20)
	c.MarkDiskRepaired(0)
	assert.True(t, c.DiskAccessible(0))
	assert.Empty(t, c.FailedDisks())
}

func TestCrashedNodeMakesDiskInaccessibleNotLost(t *testing.T) {
	c := buildSmallCluster()
	c.InitAll(0)
	c.Nodes[0].FailNode(5)
	assert.False(t, c.DiskAccessible(0))
	assert.False(t, c.DiskLost(0), "node crash does not crash the disk itself")
}

func TestUnavailableRackMakesDiskInaccessible(t *testing.T) {
	c := buildSmallCluster()
	c.InitAll(0)
	c.Racks[0].FailRack(3)
	assert.False(t, c.DiskAccessible(0))
	assert.True(t, c.DiskAccessible(1), "rack 1 unaffected")
}

func TestInaccessibleDisksIncludesCrashedAndAncestorDown(t *testing.T) {
	c := buildSmallCluster()
	c.InitAll(0)
	c.Disks[0].FailDisk(10)
	c.MarkDiskCrashed(0)
	c.Racks[1].FailRack(3)
	assert.ElementsMatch(t, []int{0, 1}, c.InaccessibleDisks())
}

func TestDiskRepairClockInvariant(t *testing.T) {
	d := NewDisk(0, distribution.New(1, 1000, 0)).WithRepairDistr(distribution.New(1, 50, 0))
	d.InitClock(0)
	assert.Equal(t, 0.0, d.RepairClock())
	d.FailDisk(10)
	d.UpdateClock(15)
	assert.Greater(t, d.RepairClock(), 0.0)
	d.RepairDisk(15)
	assert.Equal(t, 0.0, d.RepairClock())
}
