package sim

import (
	"github.com/kmgreen/reliasim/internal/eventqueue"
	"github.com/kmgreen/reliasim/internal/network"
)

const secondsPerHour = 3600

// networkModel wraps the bandwidth-contention model for one iteration.
// model is nil when the network model is disabled, in which case repair
// durations come from each disk's own RepairDistr instead.
type networkModel struct {
	model *network.Model
}

func newNetworkModel(w *World) *networkModel {
	if !w.cfg.Network.Enabled {
		return &networkModel{}
	}
	// Bandwidths are configured per second while the simulation clock
	// runs in hours, so the model is given per-hour capacities.
	return &networkModel{
		model: network.NewModel(w.cfg.Network.CrossRackBandwidth*secondsPerHour, w.cfg.Network.IntraRackBandwidth*secondsPerHour, w.maxConcurrent),
	}
}

// scheduleRepair starts diskID's repair (drawn from its own RepairDistr,
// or admitted into the bandwidth model) and pushes the DiskRepair
// wake-up event. It reports whether this repair only needed to move a
// single chunk, for the single_chunk_repair_ratio metric.
func (nm *networkModel) scheduleRepair(s *RegularSimulator, diskID int, currTime float64) bool {
	w := s.world
	numChunks := s.placement.NumChunksPerDisk(diskID)
	single := numChunks == 1

	if !w.cfg.Network.Enabled {
		disk := w.cluster.Disks[diskID]
		s.q.Push(currTime+disk.RepairDistr.DrawInverseTransform(s.rng, 0), eventqueue.DiskRepair, diskID)
		return single
	}

	crossPerChunk, intraPerChunk := w.repairTraffic(w.cfg.Code.N, w.cfg.Code.K)
	totalCross := crossPerChunk * float64(numChunks)
	totalIntra := intraPerChunk * float64(numChunks)
	completion, _ := nm.model.ScheduleRepair(diskID, totalCross, totalIntra, currTime)
	s.q.Push(completion, eventqueue.DiskRepair, diskID)

	// Admitting this repair changed every other active repair's fair
	// share; refresh their projected completion events so a neighbor
	// that now finishes sooner isn't left behind a stale, slower one.
	for _, id := range nm.model.ActiveDiskIDs() {
		if id == diskID {
			continue
		}
		if t, ok := nm.model.CompletionTime(id, currTime); ok {
			s.q.Push(t, eventqueue.DiskRepair, id)
		}
	}
	return single
}
