package topology

import "github.com/kmgreen/reliasim/internal/distribution"

// Node is the middle failure domain: a permanent-failure distribution plus
// an orthogonal transient fail/repair pair (spec.md §3 Node). A CRASHED node
// renders its disks inaccessible without crashing the disks themselves;
// Cluster.DiskAccessible folds that in.
type Node struct {
	ID int

	FailDistr            distribution.Weibull
	TransientFailDistr   distribution.Weibull
	TransientRepairDistr distribution.Weibull

	state State

	lastTimeUpdate float64
	beginTime      float64
	clock          float64
	repairClock    float64
	repairStart    float64

	transientClock float64
	transientStart float64
}

// NewNode constructs a Node in state NORMAL with all clocks zeroed.
func NewNode(id int, failDistr, transientFailDistr, transientRepairDistr distribution.Weibull) *Node {
	return &Node{
		ID:                   id,
		FailDistr:            failDistr,
		TransientFailDistr:   transientFailDistr,
		TransientRepairDistr: transientRepairDistr,
		state:                StateNormal,
	}
}

// InitClock anchors this node's clock family to currTime.
func (n *Node) InitClock(currTime float64) {
	n.lastTimeUpdate = currTime
	n.beginTime = currTime
	n.clock = 0
	n.repairClock = 0
	n.repairStart = 0
	n.transientClock = 0
	n.transientStart = 0
}

// InitState resets this node's lifecycle state to NORMAL.
func (n *Node) InitState() { n.state = StateNormal }

// State returns the node's current lifecycle state.
func (n *Node) State() State { return n.state }

// UpdateClock advances the wall clock and whichever of the repair/
// transient clocks is currently active, to currTime.
func (n *Node) UpdateClock(currTime float64) {
	n.clock += currTime - n.lastTimeUpdate
	if n.state == StateCrashed {
		n.repairClock = currTime - n.repairStart
	} else {
		n.repairClock = 0
	}
	if n.state == StateUnavailable {
		n.transientClock = currTime - n.transientStart
	} else {
		n.transientClock = 0
	}
	n.lastTimeUpdate = currTime
}

// Clock returns the node's local wall clock.
func (n *Node) Clock() float64 { return n.clock }

// RepairClock returns the node's local repair clock.
func (n *Node) RepairClock() float64 { return n.repairClock }

// FailNode transitions the node to CRASHED (permanent failure) at
// currTime.
func (n *Node) FailNode(currTime float64) {
	n.state = StateCrashed
	n.repairClock = 0
	n.repairStart = currTime
}

// RepairNode transitions the node back to NORMAL; it is considered
// brand-new after repair.
func (n *Node) RepairNode() {
	n.beginTime = n.lastTimeUpdate
	n.clock = 0
	n.repairClock = 0
	n.state = StateNormal
}

// OfflineNode transitions a NORMAL node to UNAVAILABLE (transient
// failure).
func (n *Node) OfflineNode(currTime float64) {
	if n.state == StateNormal {
		n.state = StateUnavailable
		n.transientStart = currTime
		n.transientClock = 0
	}
}

// OnlineNode transitions an UNAVAILABLE node back to NORMAL (transient
// repair).
func (n *Node) OnlineNode() {
	if n.state == StateUnavailable {
		n.state = StateNormal
		n.transientClock = 0
	}
}

// CurrFailRate returns the instantaneous whole-node permanent failure
// rate; zero once already CRASHED.
func (n *Node) CurrFailRate() float64 {
	if n.state == StateCrashed {
		return 0
	}
	return n.FailDistr.Hazard(n.clock)
}

// CurrTransientFailRate returns the instantaneous transient-failure
// rate; only meaningful while NORMAL.
func (n *Node) CurrTransientFailRate() float64 {
	if n.state != StateNormal {
		return 0
	}
	return n.TransientFailDistr.Hazard(n.clock)
}

// CurrTransientRepairRate returns the instantaneous transient-repair
// rate; only meaningful while UNAVAILABLE.
func (n *Node) CurrTransientRepairRate() float64 {
	if n.state != StateUnavailable {
		return 0
	}
	return n.TransientRepairDistr.Hazard(n.transientClock)
}
