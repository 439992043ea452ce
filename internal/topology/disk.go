// Package topology implements the Rack/Node/Disk state machines and the
// Cluster aggregate that ties them to physical indices. Each entity keeps
// its own local clock family (wall clock since last event, repair clock
// since repair start, unavailable clock accumulated) exactly as the
// teacher's underlying process model tracks per-resource clocks, adapted
// here to the three-level failure domain described in spec.md §3/§4.5.
package topology

import "github.com/kmgreen/reliasim/internal/distribution"

// State is the lifecycle state shared by Rack, Node, and Disk.
type State int

const (
	StateNormal State = iota
	StateUnavailable
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "NORMAL"
	case StateUnavailable:
		return "UNAVAILABLE"
	case StateCrashed:
		return "CRASHED"
	default:
		return "UNKNOWN"
	}
}

// Disk is the finest-grained failure domain: state, fail/repair
// distributions, and the clock family used both for hazard-rate lookups
// and for unavailability accounting (spec.md §3 Disk invariants).
type Disk struct {
	ID int

	// FailDistr is always present. RepairDistr may be the zero value when
	// repair duration is instead supplied by the network/bandwidth model
	// (spec.md §3 Disk).
	FailDistr   distribution.Weibull
	RepairDistr distribution.Weibull
	HasRepairDistr bool

	state State

	lastTimeUpdate float64
	beginTime      float64
	clock          float64
	repairClock    float64
	repairStart    float64

	unavailStart float64
	unavailClock float64
}

// NewDisk constructs a Disk in state NORMAL with all clocks zeroed.
func NewDisk(id int, failDistr distribution.Weibull) *Disk {
	return &Disk{ID: id, state: StateNormal, FailDistr: failDistr}
}

// WithRepairDistr attaches a repair distribution, used when repair
// duration is drawn rather than computed by the network model.
func (d *Disk) WithRepairDistr(repairDistr distribution.Weibull) *Disk {
	d.RepairDistr = repairDistr
	d.HasRepairDistr = true
	return d
}

// InitClock anchors this disk's clock family to currTime; must be called
// before the disk participates in a simulation iteration.
func (d *Disk) InitClock(currTime float64) {
	d.unavailStart = 0
	d.unavailClock = 0
	d.lastTimeUpdate = currTime
	d.beginTime = currTime
	d.clock = 0
	d.repairClock = 0
	d.repairStart = 0
}

// InitState resets this disk's lifecycle state to NORMAL.
func (d *Disk) InitState() { d.state = StateNormal }

// State returns the disk's current lifecycle state.
func (d *Disk) State() State { return d.state }

// UpdateClock advances the wall clock and, if currently CRASHED, the
// repair clock, to currTime.
func (d *Disk) UpdateClock(currTime float64) {
	d.clock += currTime - d.lastTimeUpdate
	if d.state == StateCrashed {
		d.repairClock = currTime - d.repairStart
	} else {
		d.repairClock = 0
	}
	d.lastTimeUpdate = currTime
}

// Clock returns the disk's local wall clock, used for fail-hazard lookups.
func (d *Disk) Clock() float64 { return d.clock }

// RepairClock returns the disk's local repair clock, used for
// repair-hazard lookups. Invariant: > 0 iff CRASHED (spec.md §3).
func (d *Disk) RepairClock() float64 { return d.repairClock }

// FailDisk transitions the disk to CRASHED at currTime.
func (d *Disk) FailDisk(currTime float64) {
	if d.state == StateNormal {
		d.unavailStart = currTime
	}
	d.state = StateCrashed
	d.repairClock = 0
	d.repairStart = currTime
}

// RepairDisk transitions the disk back to NORMAL, resetting its wall
// clock (the disk is considered brand-new after repair) and accumulating
// the elapsed unavailable interval.
func (d *Disk) RepairDisk(currTime float64) {
	d.state = StateNormal
	d.unavailClock += currTime - d.unavailStart
	d.beginTime = d.lastTimeUpdate
	d.clock = 0
	d.repairClock = 0
}

// OfflineDisk transitions a NORMAL disk to UNAVAILABLE (used when the
// containing node or rack goes transiently unavailable).
func (d *Disk) OfflineDisk(currTime float64) {
	if d.state == StateNormal {
		d.state = StateUnavailable
		d.unavailStart = currTime
	}
}

// OnlineDisk transitions an UNAVAILABLE disk back to NORMAL.
func (d *Disk) OnlineDisk(currTime float64) {
	if d.state == StateUnavailable {
		d.state = StateNormal
		d.unavailClock += currTime - d.unavailStart
	}
}

// UnavailTime returns total time spent UNAVAILABLE or CRASHED, including
// the still-open interval if the disk is not currently NORMAL.
func (d *Disk) UnavailTime(currTime float64) float64 {
	if d.state == StateNormal {
		return d.unavailClock
	}
	return d.unavailClock + (currTime - d.unavailStart)
}

// CurrFailRate returns the instantaneous whole-disk failure rate; zero
// once the disk is already CRASHED.
func (d *Disk) CurrFailRate() float64 {
	if d.state == StateCrashed {
		return 0
	}
	return d.FailDistr.Hazard(d.clock)
}

// CurrRepairRate returns the instantaneous whole-disk repair rate; zero
// unless the disk is CRASHED and a repair distribution is attached
// (bandwidth-driven repairs bypass this and complete via a scheduled
// event instead).
func (d *Disk) CurrRepairRate() float64 {
	if d.state != StateCrashed || !d.HasRepairDistr {
		return 0
	}
	return d.RepairDistr.Hazard(d.repairClock)
}

// InstRateSum returns the sum of the disk's instantaneous fail and
// repair rates, used by the uniformization bound.
func (d *Disk) InstRateSum() float64 {
	return d.CurrFailRate() + d.CurrRepairRate()
}
