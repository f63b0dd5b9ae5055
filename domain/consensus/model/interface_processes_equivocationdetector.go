package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// EquivocationDetector flags and records validators that produced two
// distinct blocks at the same sequence number.
type EquivocationDetector interface {
	// CheckBlock inspects an about-to-be-admitted block against its
	// sender's history. It records any equivocation it detects. It returns
	// ruleerrors.ErrNeglectedEquivocation if the block introduces an
	// equivocation without citing both conflicting ancestors, and nil for
	// honest blocks and admissible equivocations.
	CheckBlock(blockHash *externalapi.DomainHash, header *externalapi.DomainBlockHeader) error

	// RecordEquivocation runs only the equivocation bookkeeping for a
	// block, without judging neglect. It is meant for blocks that enter
	// the DAG as invalid: their claims were refused but the fork they
	// open is still evidence.
	RecordEquivocation(blockHash *externalapi.DomainHash, header *externalapi.DomainBlockHeader) error
}
