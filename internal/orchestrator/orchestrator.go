// Package orchestrator shards a run's total_iterations across a bounded
// worker pool, one deterministically-seeded World per shard, and merges
// the per-iteration Observations back in shard order (spec.md §4.8).
package orchestrator

import (
	"math/rand"

	"github.com/JekaMas/workerpool"
	"github.com/google/uuid"

	"github.com/kmgreen/reliasim/internal/config"
	"github.com/kmgreen/reliasim/internal/sim"
	"github.com/kmgreen/reliasim/internal/telemetry"
)

// Result is the concatenated outcome of a run: every successful
// iteration's Observation, plus counts of how many iterations in total
// succeeded or failed. A failed iteration (PlacementError from a
// freshly-drawn placement) does not poison the batch — spec.md §7 —
// it is simply excluded from Observations and tallied in Failed.
type Result struct {
	RunID        string
	Observations []sim.Observation
	Succeeded    int
	Failed       int
}

// Run partitions cfg.Run.TotalIterations into cfg.Run.NumProcesses equal
// shards. Each shard gets its own *rand.Rand seeded with
// cfg.Run.RSeedPlus+shard_index (spec.md §4.8 and §5's determinism
// contract: identical config+base_seed+shard_index must reproduce
// bitwise-identical observations) and its own World, then runs its
// share of iterations sequentially. Shards themselves run concurrently
// through a worker pool bounded at NumProcesses. A shard-setup failure
// (sim.NewWorld's error: a ConfigError from validation, a TraceError
// from loading the trace, or an error from the validation-only placement
// build) aborts the whole run; a single iteration's PlacementError does
// not.
func Run(cfg *config.Config, log *telemetry.Logger) (Result, error) {
	runID := uuid.NewString()
	log = log.WithField("run_id", runID)

	numShards := cfg.Run.NumProcesses
	shardSize := cfg.Run.TotalIterations / numShards

	shardResults := make([]Result, numShards)
	setupErrs := make([]error, numShards)

	pool := workerpool.New(numShards)
	for shard := 0; shard < numShards; shard++ {
		shard := shard
		pool.Submit(func() {
			shardResults[shard] = runShard(cfg, log, shard, shardSize, &setupErrs[shard])
		})
	}
	pool.StopWait()

	for _, err := range setupErrs {
		if err != nil {
			return Result{}, err
		}
	}

	total := Result{RunID: runID, Observations: make([]sim.Observation, 0, cfg.Run.TotalIterations)}
	for _, r := range shardResults {
		total.Observations = append(total.Observations, r.Observations...)
		total.Succeeded += r.Succeeded
		total.Failed += r.Failed
	}
	return total, nil
}

// runShard seeds one shard's RNG, builds its World, and drives shardSize
// iterations through the configured simulator kind. A World-construction
// failure is written to setupErr and the shard contributes nothing.
func runShard(cfg *config.Config, log *telemetry.Logger, shard, shardSize int, setupErr *error) Result {
	seed := cfg.Run.RSeedPlus + int64(shard)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec

	w, err := sim.NewWorld(cfg, log, rng)
	if err != nil {
		*setupErr = err
		return Result{}
	}

	regular := sim.NewRegularSimulator(w, rng)
	unifbfb := sim.NewUnifBFBSimulator(w, rng)

	var res Result
	for i := 0; i < shardSize; i++ {
		var (
			obs     sim.Observation
			iterErr error
		)
		if cfg.Run.SimType == config.SimUnifBFB {
			obs, iterErr = unifbfb.RunIteration()
		} else {
			obs, iterErr = regular.RunIteration()
		}

		if iterErr != nil {
			log.Warn("iteration failed, excluded from batch",
				"shard", shard, "iteration", i, "error", iterErr)
			res.Failed++
			continue
		}
		res.Observations = append(res.Observations, obs)
		res.Succeeded++
	}
	return res
}
