package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// BlockStore is a content-addressed store of full blocks. Malformed blocks
// are kept here for audit even though they are never admitted to the DAG.
type BlockStore interface {
	// Put stores the block under the given hash. Put is idempotent for the
	// same content.
	Put(blockHash *externalapi.DomainHash, block *externalapi.DomainBlock) error

	// Get returns the block stored under the given hash, or
	// database.ErrNotFound.
	Get(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error)

	// Has returns whether a block is stored under the given hash.
	Has(blockHash *externalapi.DomainHash) (bool, error)
}
