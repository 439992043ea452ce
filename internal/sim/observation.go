package sim

// Observation is one Monte-Carlo iteration's result, reported by both
// simulators (spec.md §4.7 Sample Aggregator input). Weight is 1.0 for
// every regular-simulator iteration and the importance-sampling
// likelihood ratio for UnifBFB, so the aggregator can treat both
// uniformly as a weighted sample.
type Observation struct {
	DataLoss                bool
	NumFailedStripes        int
	NumLostChunks           int
	BlockedRatio            float64
	SingleChunkRepairRatio  float64
	Weight                  float64
}
