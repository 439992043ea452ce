// Package network implements the repair-bandwidth contention model of
// spec.md §4.3: a single cross-rack link and a single intra-rack link,
// shared equally among whatever repairs are currently running, plus a
// FIFO wait queue for repairs that cannot yet be admitted. There is no
// Python network.py in original_source (its _INDEX.md lists only four
// files), so the model is built directly from the spec's formulas, and
// named after the teacher's bandwidth-throttle fault parameters
// (cross_rack/intra_rack style naming).
package network

import (
	"sort"

	"github.com/kmgreen/reliasim/internal/eventqueue"
)

// RepairTrafficFunc returns the (crossRackBytes, intraRackBytes) a
// single lost chunk costs to repair under a given code shape. RS and
// DRC parameterize this differently (spec.md §4.3), so it is injected
// rather than hardcoded.
type RepairTrafficFunc func(n, k int) (crossRackBytes, intraRackBytes float64)

// RSRepairTraffic is the Reed-Solomon/LRC repair-traffic model: a lost
// chunk is reconstructed by reading k-1 surviving chunks, conventionally
// assumed to sit across racks (cross-rack dominates; intra-rack cost is
// zero in the flat model).
func RSRepairTraffic(chunkSize float64) RepairTrafficFunc {
	return func(n, k int) (float64, float64) {
		return float64(k-1) * chunkSize, 0
	}
}

// DRCRepairTraffic models the double-regenerating-code repair: a single
// lost chunk is rebuilt from (n-k) cross-rack chunk-equivalents read
// from helper racks, with no intra-rack traffic (an Open Question
// resolved in DESIGN.md in favor of the built-in regenerating-code
// formula, since a DRC-specific bandwidth paper was not retrieved).
func DRCRepairTraffic(chunkSize float64) RepairTrafficFunc {
	return func(n, k int) (float64, float64) {
		return float64(n-k) * chunkSize, 0
	}
}

// repair tracks one in-flight or queued repair.
type repair struct {
	diskID         int
	crossRackBytes float64
	intraRackBytes float64
	crossRemaining float64
	intraRemaining float64
	startTime      float64
}

// Model is the bandwidth contention model for one simulation iteration.
// It is not safe for concurrent use by design: spec.md's concurrency
// model is inter-iteration only, so one Model belongs to one goroutine.
type Model struct {
	crossRackBW float64
	intraRackBW float64

	active map[int]*repair
	waitQ  *eventqueue.RepairQueue[*repair]

	// maxConcurrent bounds how many repairs may share the links at once;
	// 0 means unlimited. Equal-share-per-link contention alone never
	// drives a repair's rate to zero, so without an admission cap the
	// wait-repair queue described in spec.md §3/§4.3 would never hold an
	// entry and blocked_ratio would be vacuously zero. Concurrent-rebuild
	// throttling is standard practice in real erasure-coded stores (to
	// bound the I/O impact of recovery on serving traffic), so a cap here
	// both matches real systems and gives the wait queue a reason to
	// exist.
	maxConcurrent int

	lastRecompute float64
	blockedTime   float64
}

// NewModel constructs a Model with the given cross-rack and intra-rack
// bandwidth and a cap on concurrently admitted repairs. Bandwidth is data
// volume per unit of the caller's clock, in the same volume unit as the
// repair traffic passed to ScheduleRepair.
// maxConcurrent <= 0 means unlimited. Callers must have already
// validated crossRackBW <= intraRackBW (spec.md §6 validation gates).
func NewModel(crossRackBW, intraRackBW float64, maxConcurrent int) *Model {
	return &Model{
		crossRackBW:   crossRackBW,
		intraRackBW:   intraRackBW,
		maxConcurrent: maxConcurrent,
		active:        make(map[int]*repair),
		waitQ:         eventqueue.NewRepairQueue[*repair](),
	}
}

// admitAll moves queued repairs into the active set FIFO, up to
// maxConcurrent.
func (m *Model) admitAll() {
	for m.waitQ.Len() > 0 {
		if m.maxConcurrent > 0 && len(m.active) >= m.maxConcurrent {
			return
		}
		r := m.waitQ.PopFront()
		m.active[r.diskID] = r
	}
}

// ScheduleRepair enqueues a repair for diskID needing crossRackBytes and
// intraRackBytes of traffic, and returns the projected completion time
// given the current contention snapshot, plus whether the repair was
// admitted immediately (false means it sits in the wait-repair queue;
// the caller must re-query CompletionTime after a later Advance once
// admitAll frees a slot).
func (m *Model) ScheduleRepair(diskID int, crossRackBytes, intraRackBytes, currTime float64) (completion float64, admitted bool) {
	m.recomputeBlocked(currTime)
	r := &repair{
		diskID:         diskID,
		crossRackBytes: crossRackBytes,
		intraRackBytes: intraRackBytes,
		crossRemaining: crossRackBytes,
		intraRemaining: intraRackBytes,
		startTime:      currTime,
	}
	m.waitQ.PushBack(r)
	m.admitAll()
	return m.CompletionTime(diskID, currTime)
}

// CompletionTime computes the remaining-work/share-rate duration for
// diskID given the current set of active repairs, added to currTime.
// The second return value is false if diskID is not currently active
// (still queued).
func (m *Model) CompletionTime(diskID int, currTime float64) (float64, bool) {
	r, ok := m.active[diskID]
	if !ok {
		return 0, false
	}
	crossShare, intraShare := m.shares()
	var crossDur, intraDur float64
	if crossShare > 0 {
		crossDur = r.crossRemaining / crossShare
	}
	if intraShare > 0 {
		intraDur = r.intraRemaining / intraShare
	}
	return currTime + maxF(crossDur, intraDur), true
}

// shares returns the bandwidth each active repair is currently entitled
// to on the cross-rack and intra-rack links, splitting each link's
// capacity equally among its contenders (spec.md §4.3: "Multiple
// concurrent repairs share each link capacity equally among their
// contenders on that link").
func (m *Model) shares() (crossShare, intraShare float64) {
	crossContenders, intraContenders := 0, 0
	for _, r := range m.active {
		if r.crossRemaining > 0 {
			crossContenders++
		}
		if r.intraRemaining > 0 {
			intraContenders++
		}
	}
	if crossContenders > 0 {
		crossShare = m.crossRackBW / float64(crossContenders)
	}
	if intraContenders > 0 {
		intraShare = m.intraRackBW / float64(intraContenders)
	}
	return crossShare, intraShare
}

// Advance drains elapsed work from every active repair up to currTime
// under the equal-share rates in effect since the last Advance/
// ScheduleRepair call, and reports which disks completed, in ascending
// disk-ID order.
func (m *Model) Advance(currTime float64) []int {
	elapsed := currTime - m.lastRecompute
	m.recomputeBlocked(currTime)
	crossShare, intraShare := m.shares()

	var completed []int
	for diskID, r := range m.active {
		r.crossRemaining -= crossShare * elapsed
		r.intraRemaining -= intraShare * elapsed
		if r.crossRemaining <= 0 {
			r.crossRemaining = 0
		}
		if r.intraRemaining <= 0 {
			r.intraRemaining = 0
		}
		if r.crossRemaining == 0 && r.intraRemaining == 0 {
			completed = append(completed, diskID)
			delete(m.active, diskID)
		}
	}
	// Map iteration order is random; sort so callers see a reproducible
	// order.
	sort.Ints(completed)
	m.admitAll()
	return completed
}

// recomputeBlocked accumulates blocked wall-clock time: any interval
// since the last recompute during which the wait queue was non-empty
// counts toward blocked_time (spec.md §4.3/§4.4 blocked_ratio), then
// advances the recompute watermark so the interval is never counted
// twice.
func (m *Model) recomputeBlocked(currTime float64) {
	if m.waitQ.Len() > 0 {
		m.blockedTime += currTime - m.lastRecompute
	}
	m.lastRecompute = currTime
}

// BlockedTime returns the accumulated blocked wall-clock time so far.
func (m *Model) BlockedTime() float64 { return m.blockedTime }

// ActiveCount returns the number of repairs currently running.
func (m *Model) ActiveCount() int { return len(m.active) }

// ActiveDiskIDs returns the disk IDs with a repair currently admitted
// (not waiting). Callers use this to refresh their own projected
// completion-event schedule whenever contention changes, since a plain
// time-ordered heap has no decrease-key operation: a stale, superseded
// completion event is a harmless no-op once its disk has already been
// repaired (spec.md §4.3's "recomputed whenever a repair starts or
// completes").
func (m *Model) ActiveDiskIDs() []int {
	ids := make([]int, 0, len(m.active))
	for diskID := range m.active {
		ids = append(ids, diskID)
	}
	return ids
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
