package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// BlockProcessor is the per-block admission pipeline: interest check,
// format/signature check, dependency check with buffering, validation
// against computed state, DAG insertion and re-attempt of buffered
// dependents.
type BlockProcessor interface {
	// ValidateAndInsertBlock runs the block through the pipeline. A nil
	// return means the block was committed, buffered, or silently dropped
	// as uninteresting; rule errors report why a block was turned away.
	// Non-rule errors are internal failures and must be surfaced loudly.
	ValidateAndInsertBlock(block *externalapi.DomainBlock) error
}
