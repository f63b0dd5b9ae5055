package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// BlockMetadataStore is the node's logical view over the DAG: block
// metadata, children and height indexes, the latest message per validator
// and the forward-only finalized marker.
type BlockMetadataStore interface {
	// Insert admits the given metadata into the DAG. Inserting the same
	// hash twice is an error: a block hash, once inserted, is never
	// removed or reassigned.
	Insert(metadata *externalapi.BlockMetadata) error

	// Lookup returns the metadata for the given hash, or
	// database.ErrNotFound if the hash was never admitted.
	Lookup(blockHash *externalapi.DomainHash) (*externalapi.BlockMetadata, error)

	// Exists returns whether the given hash was admitted to the DAG.
	Exists(blockHash *externalapi.DomainHash) (bool, error)

	// Children returns the hashes of all admitted blocks that reference
	// the given hash as a parent.
	Children(blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error)

	// Tips returns all admitted, non-invalid blocks that have no children.
	Tips() ([]*externalapi.DomainHash, error)

	// LatestMessages returns the newest admitted block per validator.
	// On an equivocation the first block seen at a sequence number stays
	// the latest message; invalid blocks are excluded.
	LatestMessages() (map[externalapi.DomainValidator]*externalapi.DomainHash, error)

	// MaxSequenceNumbers returns the highest sequence number seen per
	// validator.
	MaxSequenceNumbers() (map[externalapi.DomainValidator]uint64, error)

	// IsInPast returns whether `ancestor` is reachable from `descendant`
	// by following parent references. A block is considered in its own
	// past.
	IsInPast(ancestor, descendant *externalapi.DomainHash) (bool, error)

	// IsFinalized returns whether the given hash is in the finalized set.
	IsFinalized(blockHash *externalapi.DomainHash) (bool, error)

	// MarkFinalized advances the finalized marker to the given hash. The
	// marker only ever advances to a descendant of the current marker.
	MarkFinalized(blockHash *externalapi.DomainHash) error

	// LastFinalizedBlock returns the current finalized marker.
	LastFinalizedBlock() (*externalapi.DomainHash, error)

	// LowestTrackedBlockNumber returns the lowest block number the store
	// still tracks. Blocks below it are of no interest.
	LowestTrackedBlockNumber() (uint64, error)

	// Count returns the amount of admitted blocks.
	Count() (uint64, error)
}
