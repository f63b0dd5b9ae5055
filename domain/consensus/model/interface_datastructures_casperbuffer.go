package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// CasperBuffer indexes blocks that arrived before their ancestors. A block
// leaves the buffer exactly once: either towards a successful commit or by
// being marked invalid; it is never re-buffered after removal.
type CasperBuffer interface {
	// AddPending records a block waiting for the given missing
	// dependencies. Calling AddPending for an already-buffered block
	// replaces its missing-dependency set.
	AddPending(blockHash *externalapi.DomainHash, missingDependencies []*externalapi.DomainHash)

	// Contains returns whether the given block is buffered.
	Contains(blockHash *externalapi.DomainHash) bool

	// ContainsAnyOf returns whether any of the given hashes is buffered.
	ContainsAnyOf(blockHashes []*externalapi.DomainHash) bool

	// Resolve marks the given dependency as arrived and returns the
	// buffered blocks that now have no missing dependencies left. The
	// returned blocks stay buffered until Remove is called for them.
	Resolve(dependency *externalapi.DomainHash) []*externalapi.DomainHash

	// Remove takes the given block out of the buffer for good.
	Remove(blockHash *externalapi.DomainHash)

	// Len returns the amount of buffered blocks.
	Len() int
}
