package sim

import (
	"math/rand"

	"github.com/kmgreen/reliasim/internal/eventqueue"
)

// seedRackEvents pushes each rack's first transient-failure draw, unless
// a shared power-outage process drives every rack instead (spec.md §3
// Rack).
func seedRackEvents(q *eventqueue.Queue, w *World, rng *rand.Rand) {
	if w.cfg.PowerOutage.Enabled {
		return
	}
	for _, rack := range w.cluster.Racks {
		q.Push(rack.FailDistr.DrawInverseTransform(rng, rack.Clock()), eventqueue.RackFail, rack.ID)
	}
}

// seedNodeEvents pushes each node's first permanent- and
// transient-failure draws, or replays its recorded trace events verbatim
// when trace-driven mode is active (spec.md §4.4 step 2).
func seedNodeEvents(q *eventqueue.Queue, w *World, rng *rand.Rand) {
	for _, node := range w.cluster.Nodes {
		if w.trace != nil {
			events := w.trace.EventsForNode(node.ID)
			for _, t := range events.PermanentFailures {
				q.Push(t, eventqueue.NodeFail, node.ID)
			}
			for _, t := range events.TransientFailures {
				q.Push(t, eventqueue.NodeTransientFail, node.ID)
			}
			for _, t := range events.TransientRepairs {
				q.Push(t, eventqueue.NodeTransientRepair, node.ID)
			}
			continue
		}
		q.Push(node.FailDistr.DrawInverseTransform(rng, node.Clock()), eventqueue.NodeFail, node.ID)
		q.Push(node.TransientFailDistr.DrawInverseTransform(rng, node.Clock()), eventqueue.NodeTransientFail, node.ID)
	}
}

// seedDiskEvents pushes each disk's first permanent-failure draw.
func seedDiskEvents(q *eventqueue.Queue, w *World, rng *rand.Rand) {
	for _, disk := range w.cluster.Disks {
		q.Push(disk.FailDistr.DrawInverseTransform(rng, disk.Clock()), eventqueue.DiskFail, disk.ID)
	}
}

// seedPowerOutageEvents pushes the first shared outage-arrival draw when
// power-outage mode replaces per-rack failure/repair with a single
// process-wide event pair (original_source/simedc.py's do_it()).
func seedPowerOutageEvents(q *eventqueue.Queue, w *World, rng *rand.Rand) {
	if !w.cfg.PowerOutage.Enabled {
		return
	}
	q.Push(w.dists.powerOutage.DrawInverseTransform(rng, 0), eventqueue.PowerOutageStart, 0)
}
