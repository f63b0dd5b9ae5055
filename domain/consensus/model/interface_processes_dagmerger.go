package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// DagMerger combines the post-states of an arbitrary set of parent blocks
// into a single pre-state, rejecting conflicting deploy chains
// deterministically along the way.
type DagMerger interface {
	// Merge computes the merged pre-state for a block with the given
	// parents on top of the given fringe. With no parents beyond the
	// fringe the fringe post-state is returned as-is; with exactly one
	// parent, that parent's post-state.
	Merge(fringe []*externalapi.DomainHash, fringePostStateHash *externalapi.DomainHash,
		parentHashes []*externalapi.DomainHash) (*MergeResult, error)

	// CheckParentsCompatible reports whether the given parents can all be
	// merged without rejecting any deploy chain.
	CheckParentsCompatible(fringe []*externalapi.DomainHash,
		parentHashes []*externalapi.DomainHash) (bool, error)

	// DeployChainsOf returns the block's deploy chains, computing and
	// caching them on first access.
	DeployChainsOf(blockHash *externalapi.DomainHash) ([]*externalapi.DeployChain, error)
}
