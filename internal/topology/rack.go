package topology

import "github.com/kmgreen/reliasim/internal/distribution"

// Rack is the coarsest failure domain. Racks never CRASH permanently —
// they only transition NORMAL ↔ UNAVAILABLE, either through their own
// transient fail/repair distributions or through a single process-wide
// power-outage event shared by every rack (spec.md §3 Rack).
type Rack struct {
	ID int

	FailDistr   distribution.Weibull
	RepairDistr distribution.Weibull

	state State

	clock          float64
	transientStart float64
	transientClock float64
	lastTimeUpdate float64
}

// NewRack constructs a Rack in state NORMAL.
func NewRack(id int, failDistr, repairDistr distribution.Weibull) *Rack {
	return &Rack{ID: id, FailDistr: failDistr, RepairDistr: repairDistr, state: StateNormal}
}

// InitState resets this rack's lifecycle state to NORMAL.
func (r *Rack) InitState() { r.state = StateNormal }

// InitClock anchors this rack's clock to currTime.
func (r *Rack) InitClock(currTime float64) {
	r.lastTimeUpdate = currTime
	r.clock = 0
	r.transientStart = 0
	r.transientClock = 0
}

// State returns the rack's current lifecycle state.
func (r *Rack) State() State { return r.state }

// Clock returns the rack's local wall clock, used for fail-hazard
// lookups.
func (r *Rack) Clock() float64 { return r.clock }

// UpdateClock advances the wall clock and, while UNAVAILABLE, the
// transient clock.
func (r *Rack) UpdateClock(currTime float64) {
	r.clock += currTime - r.lastTimeUpdate
	if r.state == StateUnavailable {
		r.transientClock = currTime - r.transientStart
	} else {
		r.transientClock = 0
	}
	r.lastTimeUpdate = currTime
}

// FailRack transitions the rack to UNAVAILABLE at currTime (transient
// rack failure, or the start of a power outage).
func (r *Rack) FailRack(currTime float64) {
	r.state = StateUnavailable
	r.transientStart = currTime
	r.transientClock = 0
}

// RepairRack transitions the rack back to NORMAL.
func (r *Rack) RepairRack() {
	r.state = StateNormal
	r.transientClock = 0
}

// CurrFailRate returns the instantaneous transient-failure rate; only
// meaningful while NORMAL.
func (r *Rack) CurrFailRate() float64 {
	if r.state != StateNormal {
		return 0
	}
	return r.FailDistr.Hazard(r.clock)
}

// CurrRepairRate returns the instantaneous transient-repair rate; only
// meaningful while UNAVAILABLE.
func (r *Rack) CurrRepairRate() float64 {
	if r.state != StateUnavailable {
		return 0
	}
	return r.RepairDistr.Hazard(r.transientClock)
}
