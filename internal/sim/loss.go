package sim

import "github.com/kmgreen/reliasim/internal/placement"

// checkLoss evaluates the data-loss predicate against the current
// inaccessible-disk set (own-crashed disks, node-crashed disks, and
// rack-unavailable disks all count, spec.md §4.5) and reports the
// failed-stripe/lost-chunk counts alongside whether any stripe is lost.
func checkLoss(w *World, p *placement.Placement, numFailedStripes, numLostChunks *int) bool {
	inaccessible := w.cluster.InaccessibleDisks()
	failed, lostChunks := p.NumFailedStatus(inaccessible)
	*numFailedStripes = failed
	*numLostChunks = lostChunks
	return failed > 0
}
