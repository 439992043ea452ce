package sim

import (
	"math"
	"math/rand"

	"github.com/kmgreen/reliasim/internal/distribution"
	"github.com/kmgreen/reliasim/internal/eventqueue"
	"github.com/kmgreen/reliasim/internal/numeric"
	"github.com/kmgreen/reliasim/internal/topology"
)

// rateEntry is one candidate transition in the uniformized chain: an
// entity, the kind of transition it represents, and its instantaneous
// rate contribution.
type rateEntry struct {
	kind     eventqueue.Kind
	targetID int
	rate     float64
}

func sumRates(entries []rateEntry) float64 {
	sum := 0.0
	for _, e := range entries {
		sum += e.rate
	}
	return sum
}

// UnifBFBSimulator implements the uniformization + balanced
// failure-biasing importance sampler (spec.md §4.6). Unlike
// RegularSimulator it keeps no event queue: every step recomputes the
// set of currently enabled transitions and samples one directly.
type UnifBFBSimulator struct {
	world *World
	rng   *rand.Rand

	outageActive bool
}

// NewUnifBFBSimulator builds a UnifBFBSimulator sharing world and using
// rng for every draw in every iteration it runs.
func NewUnifBFBSimulator(world *World, rng *rand.Rand) *UnifBFBSimulator {
	return &UnifBFBSimulator{world: world, rng: rng}
}

// RunIteration regenerates the placement, resets the cluster, then
// repeatedly samples a transition from the balanced-failure-biased
// distribution until mission_time elapses, a stripe is lost, or no
// transition remains possible. The returned Observation's Weight is the
// iteration's likelihood ratio L; the caller multiplies it by 1{loss} to
// get this iteration's contribution to the PDL estimator (spec.md §4.6).
// Returns a PlacementError if the freshly-drawn placement is
// unsatisfiable for this topology.
func (s *UnifBFBSimulator) RunIteration() (Observation, error) {
	w := s.world
	missionTime := w.cfg.Run.MissionTime

	p, err := w.newPlacement(s.rng)
	if err != nil {
		return Observation{}, err
	}

	w.cluster.InitAll(0)
	s.outageActive = false

	lw := numeric.NewLogWeight()
	fbProb := w.cfg.IS.FailureBiasProb

	currTime := 0.0
	var (
		lost             bool
		numFailedStripes int
		numLostChunks    int
	)

	for currTime < missionTime {
		f, r := s.buildSets()
		if len(f) == 0 && len(r) == 0 {
			break
		}
		sumFR := sumRates(f) + sumRates(r)
		if sumFR <= 0 {
			break
		}

		biasRegime := len(f) > 0 && len(w.cluster.FailedDisks()) > 0

		chosen, trueProb, biasedProb := s.sampleTransition(f, r, sumFR, biasRegime, fbProb)
		lw.Add(trueProb, biasedProb)

		dt := s.rng.ExpFloat64() / w.hazardBoundH
		currTime += dt
		if currTime >= missionTime {
			break
		}
		w.cluster.UpdateAllClocks(currTime)

		if s.applyTransition(chosen, currTime) {
			if checkLoss(w, p, &numFailedStripes, &numLostChunks) {
				lost = true
				break
			}
		}
	}

	return Observation{
		DataLoss:         lost,
		NumFailedStripes: numFailedStripes,
		NumLostChunks:    numLostChunks,
		Weight:           lw.Value(),
	}, nil
}

// sampleTransition picks one entry from f (balanced-biased branch) or
// f∪r (rate-proportional branch) and returns it along with the true and
// biased probabilities of that specific choice, for the step's
// likelihood-ratio contribution (spec.md §4.6 steps 2-3).
func (s *UnifBFBSimulator) sampleTransition(f, r []rateEntry, sumFR float64, biasRegime bool, p float64) (rateEntry, float64, float64) {
	if biasRegime && s.rng.Float64() < p {
		idx := s.rng.Intn(len(f))
		chosen := f[idx]
		trueProb := chosen.rate / sumFR
		// An F entry can also be reached through the rate-proportional
		// branch, so its overall biased probability is the mixture.
		biasedProb := p/float64(len(f)) + (1-p)*trueProb
		return chosen, trueProb, biasedProb
	}

	combined := make([]rateEntry, 0, len(f)+len(r))
	combined = append(combined, f...)
	combined = append(combined, r...)

	target := s.rng.Float64() * sumFR
	acc := 0.0
	chosenIdx := len(combined) - 1
	for i, e := range combined {
		acc += e.rate
		if target <= acc {
			chosenIdx = i
			break
		}
	}
	chosen := combined[chosenIdx]

	trueProb := chosen.rate / sumFR
	biasedProb := trueProb
	if biasRegime {
		biasedProb = (1 - p) * trueProb
		if chosenIdx < len(f) {
			biasedProb += p / float64(len(f))
		}
	}
	return chosen, trueProb, biasedProb
}

// buildSets computes F (entities that could next fail) and R (entities
// currently eligible to repair), each paired with its instantaneous
// rate (spec.md §4.6 step 1). Disk repair propensity always uses beta
// rather than the disk's own repair hazard, since beta is specified as
// "a normalizing rate ... used to size repair propensity" independent of
// whether the bandwidth model or a repair distribution would otherwise
// govern completion. Trace-driven node events have no rate to
// contribute and are excluded: they do not participate in the
// uniformized chain.
func (s *UnifBFBSimulator) buildSets() (f, r []rateEntry) {
	w := s.world
	mt := w.cfg.Run.MissionTime

	if w.cfg.PowerOutage.Enabled {
		if !s.outageActive {
			f = append(f, rateEntry{eventqueue.PowerOutageStart, 0, guardRate(w, w.dists.powerOutage, w.dists.powerOutage.Hazard(0), mt)})
		} else {
			r = append(r, rateEntry{eventqueue.PowerOutageEnd, 0, 1 / w.dists.powerOutageDuration})
		}
	} else {
		for _, rack := range w.cluster.Racks {
			switch rack.State() {
			case topology.StateNormal:
				if rate := guardRate(w, rack.FailDistr, rack.CurrFailRate(), mt); rate > 0 {
					f = append(f, rateEntry{eventqueue.RackFail, rack.ID, rate})
				}
			case topology.StateUnavailable:
				if rate := guardRate(w, rack.RepairDistr, rack.CurrRepairRate(), mt); rate > 0 {
					r = append(r, rateEntry{eventqueue.RackRepair, rack.ID, rate})
				}
			}
		}
	}

	if w.dists.hasNodeDists {
		for _, node := range w.cluster.Nodes {
			switch node.State() {
			case topology.StateNormal:
				if rate := guardRate(w, node.FailDistr, node.CurrFailRate(), mt); rate > 0 {
					f = append(f, rateEntry{eventqueue.NodeFail, node.ID, rate})
				}
				if rate := guardRate(w, node.TransientFailDistr, node.CurrTransientFailRate(), mt); rate > 0 {
					f = append(f, rateEntry{eventqueue.NodeTransientFail, node.ID, rate})
				}
			case topology.StateUnavailable:
				if rate := guardRate(w, node.TransientRepairDistr, node.CurrTransientRepairRate(), mt); rate > 0 {
					r = append(r, rateEntry{eventqueue.NodeTransientRepair, node.ID, rate})
				}
			}
		}
	}

	for _, disk := range w.cluster.Disks {
		switch disk.State() {
		case topology.StateNormal:
			if rate := guardRate(w, disk.FailDistr, disk.CurrFailRate(), mt); rate > 0 {
				f = append(f, rateEntry{eventqueue.DiskFail, disk.ID, rate})
			}
		case topology.StateCrashed:
			r = append(r, rateEntry{eventqueue.DiskRepair, disk.ID, w.cfg.IS.Beta})
		}
	}

	return f, r
}

// applyTransition mutates cluster state for the chosen entry and
// reports whether a loss check is needed (true for every transition
// that can reduce accessibility; repairs never can).
func (s *UnifBFBSimulator) applyTransition(e rateEntry, currTime float64) bool {
	w := s.world
	switch e.kind {
	case eventqueue.RackFail:
		w.cluster.Racks[e.targetID].FailRack(currTime)
		return true
	case eventqueue.RackRepair:
		w.cluster.Racks[e.targetID].RepairRack()
		return false
	case eventqueue.NodeFail:
		w.cluster.Nodes[e.targetID].FailNode(currTime)
		return true
	case eventqueue.NodeTransientFail:
		w.cluster.Nodes[e.targetID].OfflineNode(currTime)
		return true
	case eventqueue.NodeTransientRepair:
		w.cluster.Nodes[e.targetID].OnlineNode()
		return false
	case eventqueue.DiskFail:
		w.cluster.Disks[e.targetID].FailDisk(currTime)
		w.cluster.MarkDiskCrashed(e.targetID)
		return true
	case eventqueue.DiskRepair:
		w.cluster.Disks[e.targetID].RepairDisk(currTime)
		w.cluster.MarkDiskRepaired(e.targetID)
		return false
	case eventqueue.PowerOutageStart:
		for _, rack := range w.cluster.Racks {
			rack.FailRack(currTime)
		}
		s.outageActive = true
		return true
	case eventqueue.PowerOutageEnd:
		for _, rack := range w.cluster.Racks {
			rack.RepairRack()
		}
		s.outageActive = false
		return false
	default:
		return false
	}
}

// guardRate recovers from a non-finite hazard evaluation (spec.md §7
// NumericError: "recovered locally by treating as max observed hazard;
// logged") by substituting the distribution's bounded max hazard rate
// instead of propagating a NaN/Inf into the sampler.
func guardRate(w *World, wb distribution.Weibull, rate, missionTime float64) float64 {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		w.log.Warn("non-finite hazard rate, clamping to distribution max",
			"shape", wb.Shape, "scale", wb.Scale, "location", wb.Location)
		return wb.MaxHazardRate(missionTime)
	}
	return rate
}
