package topology

import "github.com/bits-and-blooms/bitset"

// Cluster bundles every Rack, Node, and Disk in the simulated topology
// along with the containment maps needed to answer accessibility
// queries in O(1): which rack a node lives in, which node a disk lives
// in, and which disks currently sit behind an unavailable/crashed
// ancestor. This aggregate is a supplement to the original data model:
// both the placement engine and the simulator need the same containment
// view, so it is centralized here instead of duplicated.
type Cluster struct {
	Racks []*Rack
	Nodes []*Node
	Disks []*Disk

	nodeRack []int // nodeRack[nodeID] = rackID
	diskNode []int // diskNode[diskID] = nodeID

	// failedDisks tracks disks whose own state is CRASHED (set bit),
	// independent of ancestor accessibility. Loss predicates are evaluated
	// against InaccessibleDisks instead; this bitmap backs FailedDisks.
	failedDisks *bitset.BitSet
}

// NewCluster builds a Cluster from per-entity slices and the
// nodeRack/diskNode containment arrays (nodeRack[i] is the rack index
// owning node i; diskNode[i] is the node index owning disk i).
func NewCluster(racks []*Rack, nodes []*Node, disks []*Disk, nodeRack, diskNode []int) *Cluster {
	return &Cluster{
		Racks:       racks,
		Nodes:       nodes,
		Disks:       disks,
		nodeRack:    nodeRack,
		diskNode:    diskNode,
		failedDisks: bitset.New(uint(len(disks))),
	}
}

// InitAll resets every rack, node, and disk to state NORMAL with clocks
// anchored at currTime, and clears the failed-disk bitmap. Called at the
// start of every simulation iteration (spec.md §4.4 step 1).
func (c *Cluster) InitAll(currTime float64) {
	for _, r := range c.Racks {
		r.InitState()
		r.InitClock(currTime)
	}
	for _, n := range c.Nodes {
		n.InitState()
		n.InitClock(currTime)
	}
	for _, d := range c.Disks {
		d.InitState()
		d.InitClock(currTime)
	}
	c.failedDisks.ClearAll()
}

// UpdateAllClocks advances every entity's clock to currTime. Called
// once per drawn event before the transition is applied.
func (c *Cluster) UpdateAllClocks(currTime float64) {
	for _, r := range c.Racks {
		r.UpdateClock(currTime)
	}
	for _, n := range c.Nodes {
		n.UpdateClock(currTime)
	}
	for _, d := range c.Disks {
		d.UpdateClock(currTime)
	}
}

// RackOf returns the rack containing nodeID.
func (c *Cluster) RackOf(nodeID int) *Rack { return c.Racks[c.nodeRack[nodeID]] }

// NodeOf returns the node containing diskID.
func (c *Cluster) NodeOf(diskID int) *Node { return c.Nodes[c.diskNode[diskID]] }

// MarkDiskCrashed flags diskID as crashed in the failed-disk bitmap. The
// caller is still responsible for calling Disk.FailDisk.
func (c *Cluster) MarkDiskCrashed(diskID int) { c.failedDisks.Set(uint(diskID)) }

// MarkDiskRepaired clears diskID from the failed-disk bitmap. The
// caller is still responsible for calling Disk.RepairDisk.
func (c *Cluster) MarkDiskRepaired(diskID int) { c.failedDisks.Clear(uint(diskID)) }

// FailedDisks returns the set of disk IDs currently flagged CRASHED.
func (c *Cluster) FailedDisks() []uint {
	ids := make([]uint, 0, c.failedDisks.Count())
	for i, e := c.failedDisks.NextSet(0); e; i, e = c.failedDisks.NextSet(i + 1) {
		ids = append(ids, i)
	}
	return ids
}

// DiskAccessible reports whether diskID's data can currently be read:
// the disk itself must not be CRASHED, its owning node must not be
// CRASHED, and neither the node nor its rack may be UNAVAILABLE
// (spec.md §3: "A CRASHED node implies its disks are inaccessible but
// not themselves CRASHED"; the same containment rule applies to racks).
func (c *Cluster) DiskAccessible(diskID int) bool {
	disk := c.Disks[diskID]
	if disk.State() == StateCrashed {
		return false
	}
	node := c.NodeOf(diskID)
	if node.State() != StateNormal {
		return false
	}
	rack := c.RackOf(node.ID)
	return rack.State() == StateNormal
}

// DiskLost reports whether diskID's data is permanently gone, i.e. the
// disk itself is CRASHED. Transient inaccessibility through an
// unavailable node/rack is not loss, only unreadability.
func (c *Cluster) DiskLost(diskID int) bool {
	return c.Disks[diskID].State() == StateCrashed
}

// InaccessibleDisks returns every disk ID currently unreadable, whether
// because the disk itself is CRASHED or because its containing node or
// rack is down (spec.md §4.5: "the disk counts as inaccessible for
// data-loss queries but does not itself transition"). Placement loss
// queries are evaluated against this set, not just the permanently
// crashed one, since an unreadable chunk is as good as lost for
// reconstruction purposes at the moment of the query.
func (c *Cluster) InaccessibleDisks() []int {
	out := make([]int, 0, len(c.Disks))
	for i := range c.Disks {
		if !c.DiskAccessible(i) {
			out = append(out, i)
		}
	}
	return out
}
