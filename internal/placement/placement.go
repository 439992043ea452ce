// Package placement materializes the stripe-to-disk mapping for a
// cluster and answers data-loss queries for arbitrary failed-disk sets
// according to the active code's repairability rules (spec.md §4.2).
// It is grounded almost line-for-line on original_source/lib/placement.py,
// translated from Python's exact-without-replacement random.sample into
// Go's idiomatic retry-until-distinct sampling, bounded by
// maxPlacementAttempts so an unsatisfiable topology fails fast with a
// PlacementError instead of looping forever.
package placement

import (
	"math/rand"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/klauspost/reedsolomon"

	"github.com/kmgreen/reliasim/internal/errs"
)

// maxPlacementAttempts bounds the number of resampling attempts when
// building one stripe's disk list before giving up with a
// PlacementError (original_source retry loop, given an explicit cap per
// SPEC_FULL.md §6.2).
const maxPlacementAttempts = 1000

// Config describes the physical topology, code, and placement policy a
// Placement is built from.
type Config struct {
	NumRacks       int
	NodesPerRack   int
	DisksPerNode   int
	CapacityPerDisk float64 // MiB
	NumStripes     int
	ChunkSize      float64 // MiB

	CodeType CodeType
	N, K     int
	Free     int
	L        int // LRC local-group count

	PlaceType       PlaceType
	ChunkRackConfig []int // nil unless PlaceType == PlaceHierarchical or DRC forces one

	LRCLayout LRCLayout
}

// Placement is the materialized stripe-to-disk mapping plus its reverse
// index, ready to answer loss queries.
type Placement struct {
	cfg Config

	numDisks int

	// stripesLocation[s] is the ordered list of disk IDs holding stripe
	// s's n chunks, position 0..n-1 in code order.
	stripesLocation [][]int
	// stripesPerDisk[d] is the list of stripe IDs with a chunk on disk d.
	stripesPerDisk   [][]int
	numChunksPerDisk []int
}

// New builds a Placement for cfg using rng for all random disk/rack/node
// sampling. Returns a ConfigError for a structurally invalid (n,k,l,free)
// combination, or a PlacementError if generation could not satisfy the
// topology (e.g. fewer racks than required) after retrying.
func New(cfg Config, rng *rand.Rand) (*Placement, error) {
	if err := validateCode(cfg); err != nil {
		return nil, err
	}

	if cfg.CodeType == CodeDRC {
		if cfg.N != 9 || (cfg.K != 5 && cfg.K != 6) {
			return nil, errs.NewConfigError("DRC requires (n=9, k in {5,6})")
		}
		cfg.ChunkRackConfig = []int{3, 3, 3}
		cfg.PlaceType = PlaceHierarchical
	}

	numDisks := cfg.NumRacks * cfg.NodesPerRack * cfg.DisksPerNode
	p := &Placement{
		cfg:              cfg,
		numDisks:         numDisks,
		stripesLocation:  make([][]int, 0, cfg.NumStripes),
		stripesPerDisk:   make([][]int, numDisks),
		numChunksPerDisk: make([]int, numDisks),
	}

	if err := p.generate(rng); err != nil {
		return nil, err
	}
	p.indexChunksPerDisk()
	return p, nil
}

func validateCode(cfg Config) error {
	switch cfg.CodeType {
	case CodeRS, CodeLRC:
		if cfg.K < 1 || cfg.N <= cfg.K {
			return errs.NewConfigError("code_n must be greater than code_k >= 1")
		}
		if cfg.Free < 0 || cfg.N <= cfg.Free {
			return errs.NewConfigError("code_free must satisfy 0 <= free < n")
		}
		if cfg.CodeType == CodeLRC && cfg.L == 0 {
			return errs.NewConfigError("code_l must be > 0 for LRC")
		}
		if _, err := reedsolomon.New(cfg.K, cfg.N-cfg.K); err != nil {
			return errs.WrapConfigError("invalid Reed-Solomon shape (n,k)", err)
		}
		return nil
	case CodeDRC:
		return nil
	default:
		return errs.NewConfigError("unknown code type")
	}
}

func (p *Placement) generate(rng *rand.Rand) error {
	switch p.cfg.PlaceType {
	case PlaceFlat:
		return p.generateFlat(rng)
	case PlaceHierarchical:
		return p.generateHierarchical(rng)
	default:
		return errs.NewPlacementError("unknown place type")
	}
}

// generateFlat places each of a stripe's n chunks on a different rack,
// one randomly chosen disk per rack (original_source
// generate_placement_ec PLACE_TYPE_FLAT branch, chunk_rack_config=nil
// case — the only FLAT case the original supports).
func (p *Placement) generateFlat(rng *rand.Rand) error {
	disksPerRack := p.cfg.DisksPerNode * p.cfg.NodesPerRack
	if p.cfg.NumRacks < p.cfg.N || disksPerRack < 1 {
		return errs.NewPlacementError("not enough racks/disks for FLAT placement of this code")
	}

	for s := 0; s < p.cfg.NumStripes; s++ {
		racks, err := p.sampleDistinct(rng, p.cfg.NumRacks, p.cfg.N)
		if err != nil {
			return err
		}
		diskList := make([]int, 0, p.cfg.N)
		for _, rackID := range racks {
			diskList = append(diskList, p.pickDiskInRack(rng, rackID))
		}
		p.stripesLocation = append(p.stripesLocation, diskList)
	}
	return nil
}

// generateHierarchical distributes chunk_rack_config[i] chunks onto
// distinct nodes (and, if disks_per_node > 1, distinct disks) within the
// i-th chosen rack (original_source generate_placement_ec
// PLACE_TYPE_HIERARCHICAL branch).
func (p *Placement) generateHierarchical(rng *rand.Rand) error {
	cfg := p.cfg.ChunkRackConfig
	if cfg == nil {
		return errs.NewPlacementError("chunk_rack_config required for HIERARCHICAL placement")
	}
	maxPerRack := 0
	for _, c := range cfg {
		if c > maxPerRack {
			maxPerRack = c
		}
	}
	if p.cfg.NumRacks < len(cfg) || p.cfg.NodesPerRack < maxPerRack {
		return errs.NewPlacementError("topology too small for the requested chunk_rack_config")
	}

	for s := 0; s < p.cfg.NumStripes; s++ {
		racks, err := p.sampleDistinct(rng, p.cfg.NumRacks, len(cfg))
		if err != nil {
			return err
		}
		diskList := make([]int, 0, p.cfg.N)
		for i, rackID := range racks {
			disks, err := p.pickDistinctDisksInRack(rng, rackID, cfg[i])
			if err != nil {
				return err
			}
			diskList = append(diskList, disks...)
		}
		p.stripesLocation = append(p.stripesLocation, diskList)
	}
	return nil
}

// sampleDistinct draws k distinct values in [0,n) via retry-until-unseen
// sampling, the Go analogue of Python's random.sample.
func (p *Placement) sampleDistinct(rng *rand.Rand, n, k int) ([]int, error) {
	if n < k {
		return nil, errs.NewPlacementError("cannot sample more distinct values than available")
	}
	seen := make(map[int]bool, k)
	out := make([]int, 0, k)
	for attempt := 0; len(out) < k; attempt++ {
		if attempt >= maxPlacementAttempts {
			return nil, errs.NewPlacementError("exceeded max attempts sampling distinct values")
		}
		v := rng.Intn(n)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}

// pickDiskInRack picks a uniformly random disk within rackID's disk
// range (original_source get_disk_randomly).
func (p *Placement) pickDiskInRack(rng *rand.Rand, rackID int) int {
	perRack := p.cfg.NodesPerRack * p.cfg.DisksPerNode
	minDisk := rackID * perRack
	if perRack == 1 {
		return minDisk
	}
	return minDisk + rng.Intn(perRack)
}

// pickDistinctDisksInRack picks numDisks disks within rackID, each on a
// different node (original_source get_diff_disks/get_diff_nodes).
func (p *Placement) pickDistinctDisksInRack(rng *rand.Rand, rackID, numDisks int) ([]int, error) {
	if p.cfg.NodesPerRack < numDisks {
		return nil, errs.NewPlacementError("rack does not have enough nodes for this chunk_rack_config entry")
	}
	localNodes, err := p.sampleDistinct(rng, p.cfg.NodesPerRack, numDisks)
	if err != nil {
		return nil, err
	}
	disks := make([]int, 0, numDisks)
	for _, localNode := range localNodes {
		nodeID := rackID*p.cfg.NodesPerRack + localNode
		if p.cfg.DisksPerNode == 1 {
			disks = append(disks, nodeID)
			continue
		}
		disks = append(disks, nodeID*p.cfg.DisksPerNode+rng.Intn(p.cfg.DisksPerNode))
	}
	return disks, nil
}

// indexChunksPerDisk builds the reverse index (stripesPerDisk,
// numChunksPerDisk) from stripesLocation (original_source
// generate_num_chunks_per_disk).
func (p *Placement) indexChunksPerDisk() {
	for stripeID, disks := range p.stripesLocation {
		for _, diskID := range disks {
			p.numChunksPerDisk[diskID]++
			p.stripesPerDisk[diskID] = append(p.stripesPerDisk[diskID], stripeID)
		}
	}
}

// StripeLocation returns the ordered disk IDs holding stripe stripeID's
// chunks.
func (p *Placement) StripeLocation(stripeID int) []int {
	return p.stripesLocation[stripeID]
}

// StripesToRepair returns the stripe IDs with a chunk on diskID.
func (p *Placement) StripesToRepair(diskID int) []int {
	return p.stripesPerDisk[diskID]
}

// NumStripesToRepair returns len(StripesToRepair(diskID)).
func (p *Placement) NumStripesToRepair(diskID int) int {
	return len(p.stripesPerDisk[diskID])
}

// NumChunksPerDisk returns the number of chunks placed on diskID.
func (p *Placement) NumChunksPerDisk(diskID int) int {
	return p.numChunksPerDisk[diskID]
}

// affectedStripes returns the union of stripes touched by any disk in
// failedDisks (original_source's stripe_id_set construction, reused by
// both CheckDataLoss and NumFailedStatus).
func (p *Placement) affectedStripes(failedDisks []int) []int {
	set := mapset.NewThreadUnsafeSet[int]()
	for _, d := range failedDisks {
		for _, s := range p.stripesPerDisk[d] {
			set.Add(s)
		}
	}
	return set.ToSlice()
}

// CheckDataLoss reports whether the given failed-disk set causes
// unrecoverable data loss on any stripe under the active code's
// repairability rule (original_source check_data_loss).
func (p *Placement) CheckDataLoss(failedDisks []int) bool {
	failedSet := mapset.NewThreadUnsafeSet[int](failedDisks...)
	stripes := p.affectedStripes(failedDisks)

	for _, stripeID := range stripes {
		if p.stripeIsLost(stripeID, failedSet) {
			return true
		}
	}
	return false
}

// NumFailedStatus returns (num_failed_stripes, num_lost_chunks) for the
// given failed-disk set (original_source get_num_failed_status).
func (p *Placement) NumFailedStatus(failedDisks []int) (numFailedStripes, numLostChunks int) {
	if len(failedDisks) == 0 {
		return 0, 0
	}
	failedSet := mapset.NewThreadUnsafeSet[int](failedDisks...)
	stripes := p.affectedStripes(failedDisks)

	for _, stripeID := range stripes {
		lost, chunksLost := p.stripeLossDetail(stripeID, failedSet)
		if lost {
			numFailedStripes++
			numLostChunks += chunksLost
		}
	}
	return numFailedStripes, numLostChunks
}

func (p *Placement) stripeIsLost(stripeID int, failedSet mapset.Set[int]) bool {
	lost, _ := p.stripeLossDetail(stripeID, failedSet)
	return lost
}

// stripeLossDetail evaluates one stripe's loss predicate and, when the
// caller also wants it, the number of lost chunks on that stripe.
func (p *Placement) stripeLossDetail(stripeID int, failedSet mapset.Set[int]) (lost bool, lostChunks int) {
	disks := p.stripesLocation[stripeID]

	if p.cfg.CodeType == CodeLRC {
		return p.lrcLossDetail(disks, failedSet)
	}
	return p.rsLossDetail(disks, failedSet)
}

// rsLossDetail implements the RS/DRC predicate: loss iff more than m =
// n-k disks of the stripe are failed (original_source's RS/DRC branch).
func (p *Placement) rsLossDetail(disks []int, failedSet mapset.Set[int]) (bool, int) {
	failedCount := 0
	for _, d := range disks {
		if failedSet.Contains(d) {
			failedCount++
		}
	}
	m := p.cfg.N - p.cfg.K
	return failedCount > m, failedCount
}

// lrcLossDetail implements the LRC predicate: a local group's failed
// data chunks are first offset by its own surviving local parity, then
// summed with global-parity failures; loss iff that total exceeds
// n-k-l (original_source's LRC branch, walked position-by-position in
// stripe order exactly as the original does).
func (p *Placement) lrcLossDetail(disks []int, failedSet mapset.Set[int]) (bool, int) {
	layout := p.cfg.LRCLayout
	groupFailed := make([]int, p.cfg.L)
	globalFailed := 0
	lostChunks := 0

	for pos, diskID := range disks {
		failed := failedSet.Contains(diskID)
		if failed {
			lostChunks++
		}
		switch {
		case layout.isGlobalParity(pos):
			if failed {
				globalFailed++
			}
		case layout.localParityGroup(pos) >= 0:
			g := layout.localParityGroup(pos)
			if !failed && groupFailed[g] > 0 {
				// Surviving local parity repairs one lost data chunk in
				// its group (original_source decrements stripe_failed_disks_num[gid]).
				groupFailed[g]--
			}
		default:
			if g := layout.groupOf(pos); failed && g >= 0 {
				groupFailed[g]++
			}
		}
	}

	sum := globalFailed
	for _, c := range groupFailed {
		sum += c
	}
	return sum > (p.cfg.N - p.cfg.K - p.cfg.L), lostChunks
}
