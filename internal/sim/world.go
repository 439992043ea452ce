// Package sim implements the two Monte-Carlo iteration kernels of
// spec.md §4.4/§4.6: the regular event-driven simulator and the
// uniformization-with-balanced-failure-biasing importance-sampling
// simulator. Both share a World: the component distributions, cluster
// state, and repair-traffic model built once per simulation run and
// reset between iterations. The placement is the one exception —
// regenerated fresh every iteration rather than shared off the World.
package sim

import (
	"math/rand"

	"github.com/kmgreen/reliasim/internal/config"
	"github.com/kmgreen/reliasim/internal/distribution"
	"github.com/kmgreen/reliasim/internal/network"
	"github.com/kmgreen/reliasim/internal/placement"
	"github.com/kmgreen/reliasim/internal/telemetry"
	"github.com/kmgreen/reliasim/internal/topology"
	"github.com/kmgreen/reliasim/internal/trace"
)

// defaultMaxConcurrentRepairsDivisor sets how many disk repairs the
// network model admits at once (internal/network's admission-cap
// addition): num_racks divided by this value, at least 1. The cap is a
// fraction of num_racks so contention — and therefore the wait-repair
// queue and blocked_ratio — has genuine room to appear without starving
// every repair on a large cluster.
const defaultMaxConcurrentRepairsDivisor = 8

// componentDistributions bundles the Weibull distributions driving
// every entity class, constructed the way
// original_source/simedc.py's do_it() does: gated on use_network,
// use_power_outage, and use_trace.
type componentDistributions struct {
	diskFail      distribution.Weibull
	diskRepair    distribution.Weibull
	hasDiskRepair bool

	rackFail     distribution.Weibull
	rackRepair   distribution.Weibull
	hasRackDists bool

	powerOutage         distribution.Weibull
	powerOutageDuration float64

	nodeFail            distribution.Weibull
	nodeTransientFail   distribution.Weibull
	nodeTransientRepair distribution.Weibull
	hasNodeDists        bool
}

// buildDistributions reproduces do_it()'s literal distribution
// parameters (shape/scale/location), the one part of the original that
// is not exposed as a CLI flag.
func buildDistributions(cfg *config.Config) componentDistributions {
	d := componentDistributions{
		diskFail: distribution.New(1.12, 87600, 0),
	}

	if !cfg.Network.Enabled {
		d.diskRepair = distribution.New(3.0, 0.03, 0.01)
		d.hasDiskRepair = true
	}

	if cfg.PowerOutage.Enabled {
		duration := cfg.PowerOutage.Duration
		if duration == 0 {
			duration = 15
		}
		d.powerOutage = distribution.New(1.0, float64(365*24), 0)
		d.powerOutageDuration = duration
	} else {
		d.rackFail = distribution.New(1.0, 87600, 0)
		d.rackRepair = distribution.New(1.0, 24, 10)
		d.hasRackDists = true
	}

	if !cfg.Trace.Enabled {
		d.nodeFail = distribution.New(1.0, 91250, 0)
		d.nodeTransientFail = distribution.New(1.0, 2890.8, 0)
		d.nodeTransientRepair = distribution.New(1.0, 0.25, 0)
		d.hasNodeDists = true
	}
	return d
}

// World is the fixed (per-run) simulation context: cluster topology,
// placement config, distributions, and the repair-traffic model. A
// World is built once and reused, reinitialized, across every
// iteration of a run. The placement itself is NOT part of this shared
// state — spec.md §5 requires it regenerated fresh every iteration,
// since failure correlations depend on the randomized stripe-to-disk
// mapping — so World only keeps the Config used to rebuild one.
type World struct {
	cfg           *config.Config
	dists         componentDistributions
	cluster       *topology.Cluster
	placementCfg  placement.Config
	repairTraffic network.RepairTrafficFunc
	trace         *trace.Trace
	log           *telemetry.Logger
	maxConcurrent int

	// hazardBoundH is the uniformization rate H (spec.md §4.6): the sum
	// of max hazard rates over every component, plus a beta-sized repair
	// propensity per disk. Computed once per World since it only depends
	// on the fixed distributions, topology, and mission_time.
	hazardBoundH float64
}

// NewWorld validates cfg, builds the cluster topology and distributions,
// and performs one validation-only placement build to fail fast on a
// structurally unsatisfiable topology. Every iteration regenerates its
// own placement afterward via newPlacement.
func NewWorld(cfg *config.Config, log *telemetry.Logger, rng *rand.Rand) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dists := buildDistributions(cfg)

	numRacks := cfg.Topology.NumRacks
	numNodes := numRacks * cfg.Topology.NodesPerRack
	numDisks := numNodes * cfg.Topology.DisksPerNode

	racks := make([]*topology.Rack, numRacks)
	for i := range racks {
		racks[i] = topology.NewRack(i, dists.rackFail, dists.rackRepair)
	}

	var tr *trace.Trace
	if cfg.Trace.Enabled {
		var err error
		tr, err = trace.Load(cfg.Trace.Dir, cfg.Trace.ID)
		if err != nil {
			return nil, err
		}
	}

	nodeRack := make([]int, numNodes)
	nodes := make([]*topology.Node, numNodes)
	for i := range nodes {
		nodeRack[i] = i / cfg.Topology.NodesPerRack
		nodes[i] = topology.NewNode(i, dists.nodeFail, dists.nodeTransientFail, dists.nodeTransientRepair)
	}

	diskNode := make([]int, numDisks)
	disks := make([]*topology.Disk, numDisks)
	for i := range disks {
		diskNode[i] = i / cfg.Topology.DisksPerNode
		d := topology.NewDisk(i, dists.diskFail)
		if dists.hasDiskRepair {
			d = d.WithRepairDistr(dists.diskRepair)
		}
		disks[i] = d
	}

	cluster := topology.NewCluster(racks, nodes, disks, nodeRack, diskNode)

	placementCfg := placement.Config{
		NumRacks:        cfg.Topology.NumRacks,
		NodesPerRack:    cfg.Topology.NodesPerRack,
		DisksPerNode:    cfg.Topology.DisksPerNode,
		CapacityPerDisk: cfg.Topology.CapacityPerDisk,
		NumStripes:      cfg.Placement.NumStripes,
		ChunkSize:       cfg.Placement.ChunkSize,
		CodeType:        toPlacementCodeType(cfg.Code.Type),
		N:               cfg.Code.N,
		K:               cfg.Code.K,
		Free:            cfg.Code.Free,
		L:               cfg.Code.L,
		PlaceType:       toPlacementPlaceType(cfg.Placement.Type),
		ChunkRackConfig: cfg.Placement.ChunkRackConfig,
		LRCLayout:       placement.DefaultLRCLayout(),
	}
	// A validation-only build: catches a structurally-unsatisfiable
	// topology (ConfigError) or an unsatisfiable placement (PlacementError)
	// at startup rather than an iteration in. The result itself is
	// discarded — every iteration builds its own via newPlacement.
	if _, err := placement.New(placementCfg, rng); err != nil {
		return nil, err
	}

	var repairTraffic network.RepairTrafficFunc
	if cfg.Code.Type == config.CodeDRC {
		repairTraffic = network.DRCRepairTraffic(cfg.Placement.ChunkSize)
	} else {
		repairTraffic = network.RSRepairTraffic(cfg.Placement.ChunkSize)
	}

	maxConcurrent := numRacks / defaultMaxConcurrentRepairsDivisor
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	w := &World{
		cfg:           cfg,
		dists:         dists,
		cluster:       cluster,
		placementCfg:  placementCfg,
		repairTraffic: repairTraffic,
		trace:         tr,
		log:           log,
		maxConcurrent: maxConcurrent,
	}
	w.hazardBoundH = computeHazardBoundH(cfg, dists, numRacks, numNodes, numDisks)
	return w, nil
}

// newPlacement regenerates the stripe-to-disk mapping from scratch using
// rng, which must be the same per-iteration RNG stream event draws also
// come from (spec.md §5's determinism contract: placement and event
// draws are consumed in a fixed order from one stream per iteration).
func (w *World) newPlacement(rng *rand.Rand) (*placement.Placement, error) {
	return placement.New(w.placementCfg, rng)
}

// computeHazardBoundH sums the max hazard rate of every component's
// distribution over [0, mission_time], plus a flat beta-sized repair
// propensity per disk (spec.md §4.6: "H = sum of max hazard rates over
// all components"). disk repair uses beta rather than each disk's own
// RepairDistr.MaxHazardRate so the bound holds uniformly whether or not
// the bandwidth model governs actual repair completion.
func computeHazardBoundH(cfg *config.Config, dists componentDistributions, numRacks, numNodes, numDisks int) float64 {
	mt := cfg.Run.MissionTime
	h := 0.0

	if cfg.PowerOutage.Enabled {
		h += dists.powerOutage.Hazard(0)
		h += 1 / dists.powerOutageDuration
	} else {
		h += float64(numRacks) * (dists.rackFail.MaxHazardRate(mt) + dists.rackRepair.MaxHazardRate(mt))
	}

	if dists.hasNodeDists {
		h += float64(numNodes) * (dists.nodeFail.MaxHazardRate(mt) +
			dists.nodeTransientFail.MaxHazardRate(mt) +
			dists.nodeTransientRepair.MaxHazardRate(mt))
	}

	h += float64(numDisks) * dists.diskFail.MaxHazardRate(mt)
	h += float64(numDisks) * cfg.IS.Beta

	return h
}

func toPlacementCodeType(t config.CodeType) placement.CodeType {
	switch t {
	case config.CodeLRC:
		return placement.CodeLRC
	case config.CodeDRC:
		return placement.CodeDRC
	default:
		return placement.CodeRS
	}
}

func toPlacementPlaceType(t config.PlaceType) placement.PlaceType {
	if t == config.PlaceHierarchical {
		return placement.PlaceHierarchical
	}
	return placement.PlaceFlat
}
