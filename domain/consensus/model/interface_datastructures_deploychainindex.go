package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// DeployChainIndex is a write-once/read-many cache of the deploy chains
// computed for each block. A block's chains never change after computation,
// so entries are never evicted or overwritten; the index is bounded by DAG
// size.
type DeployChainIndex interface {
	// Has returns whether chains were already computed for the given block.
	Has(blockHash *externalapi.DomainHash) (bool, error)

	// Get returns the cached chains for the given block, or
	// database.ErrNotFound.
	Get(blockHash *externalapi.DomainHash) ([]*externalapi.DeployChain, error)

	// Insert caches the chains computed for the given block. Inserting a
	// hash that is already cached is an error.
	Insert(blockHash *externalapi.DomainHash, deployChains []*externalapi.DeployChain) error
}
