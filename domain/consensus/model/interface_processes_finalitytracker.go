package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// FinalityTracker advances the last finalized block once a child's
// fault-tolerance estimate clears the configured threshold.
type FinalityTracker interface {
	// AdvanceFinality walks the children of the last finalized block and
	// advances the marker, one child per step, as far as the threshold
	// allows. It returns the hashes finalized by this call, oldest first.
	AdvanceFinality() ([]*externalapi.DomainHash, error)

	// FaultTolerance returns the normalized fault-tolerance estimate of
	// the given block: the fraction of total stake, in [-1, 1], that would
	// need to be byzantine to un-finalize it.
	FaultTolerance(blockHash *externalapi.DomainHash) (float64, error)
}
