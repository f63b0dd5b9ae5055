package blockprocessor

import (
	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/ruleerrors"
	"github.com/casperdag/casperd/domain/consensus/utils/consensushashing"
	"github.com/casperdag/casperd/domain/dagconfig"
)

// blockProcessor runs every incoming block through the admission pipeline:
// interest check, format and signature check, dependency check with
// buffering, validation against computed state, DAG insertion, and
// re-attempting of buffered dependents.
type blockProcessor struct {
	params *dagconfig.Params

	blockMetadataStore model.BlockMetadataStore
	blockStore         model.BlockStore
	casperBuffer       model.CasperBuffer

	dagMerger            model.DagMerger
	equivocationDetector model.EquivocationDetector
	finalityTracker      model.FinalityTracker
	executionEngine      model.ExecutionEngine
	network              model.Network
}

// New instantiates a new BlockProcessor
func New(params *dagconfig.Params, blockMetadataStore model.BlockMetadataStore,
	blockStore model.BlockStore, casperBuffer model.CasperBuffer, dagMerger model.DagMerger,
	equivocationDetector model.EquivocationDetector, finalityTracker model.FinalityTracker,
	executionEngine model.ExecutionEngine, network model.Network) model.BlockProcessor {

	return &blockProcessor{
		params:               params,
		blockMetadataStore:   blockMetadataStore,
		blockStore:           blockStore,
		casperBuffer:         casperBuffer,
		dagMerger:            dagMerger,
		equivocationDetector: equivocationDetector,
		finalityTracker:      finalityTracker,
		executionEngine:      executionEngine,
		network:              network,
	}
}

func (bp *blockProcessor) ValidateAndInsertBlock(block *externalapi.DomainBlock) error {
	if block == nil || block.Header == nil {
		return errors.Wrap(ruleerrors.ErrMissingHeader, "the block carries no header")
	}
	blockHash := consensushashing.BlockHash(block)

	inserted, err := bp.processBlock(blockHash, block, false)
	if err != nil && !ruleerrors.IsRuleError(err) {
		return err
	}
	if inserted {
		reattemptErr := bp.reattemptDependents(blockHash)
		if reattemptErr != nil {
			return reattemptErr
		}
	}
	return err
}

// processBlock runs a single block through the pipeline. The returned bool
// reports whether the block entered the DAG, as valid or as invalid; in
// either case blocks buffered on it become decidable. reattempt marks a
// block coming back out of the buffer rather than in over the network.
func (bp *blockProcessor) processBlock(blockHash *externalapi.DomainHash,
	block *externalapi.DomainBlock, reattempt bool) (bool, error) {

	err := bp.checkBlockInterest(blockHash, block.Header, reattempt)
	if err != nil {
		return false, err
	}

	err = bp.checkBlockFormat(blockHash, block)
	if err != nil {
		if ruleerrors.IsRuleError(err) {
			// Malformed blocks are kept for audit but never enter the DAG:
			// nothing about their header can be trusted.
			putErr := bp.blockStore.Put(blockHash, block)
			if putErr != nil {
				return false, putErr
			}
		}
		return false, err
	}

	buffered, err := bp.checkDependencies(blockHash, block)
	if err != nil {
		if errors.Is(err, ruleerrors.ErrInvalidParent) {
			return true, bp.markBlockInvalid(blockHash, block, err)
		}
		return false, err
	}
	if buffered {
		return false, nil
	}

	err = bp.validateAgainstState(blockHash, block)
	if err != nil {
		if ruleerrors.IsRuleError(err) {
			return true, bp.markBlockInvalid(blockHash, block, err)
		}
		return false, err
	}

	err = bp.commitBlock(blockHash, block)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (bp *blockProcessor) checkBlockInterest(blockHash *externalapi.DomainHash,
	header *externalapi.DomainBlockHeader, reattempt bool) error {

	exists, err := bp.blockMetadataStore.Exists(blockHash)
	if err != nil {
		return err
	}
	if exists {
		metadata, err := bp.blockMetadataStore.Lookup(blockHash)
		if err != nil {
			return err
		}
		if metadata.Invalid {
			return errors.Wrapf(ruleerrors.ErrKnownInvalid, "block %s is known to be invalid", blockHash)
		}
		return errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s already exists", blockHash)
	}
	if bp.casperBuffer.Contains(blockHash) {
		return errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s is already pending", blockHash)
	}
	if !reattempt {
		// A stored block with no metadata and no buffer entry was already
		// received and turned away as malformed.
		stored, err := bp.blockStore.Has(blockHash)
		if err != nil {
			return err
		}
		if stored {
			return errors.Wrapf(ruleerrors.ErrDuplicateBlock,
				"block %s was already received", blockHash)
		}
	}

	lowestTracked, err := bp.blockMetadataStore.LowestTrackedBlockNumber()
	if err != nil {
		return err
	}
	if header.BlockNumber < lowestTracked {
		return errors.Wrapf(ruleerrors.ErrBelowTrackedHeight,
			"block %s has number %d below the lowest tracked number %d",
			blockHash, header.BlockNumber, lowestTracked)
	}
	return nil
}

// checkDependencies buffers the block and requests its missing ancestors when
// it cannot be validated yet. It returns whether the block was buffered.
func (bp *blockProcessor) checkDependencies(blockHash *externalapi.DomainHash,
	block *externalapi.DomainBlock) (bool, error) {

	header := block.Header
	for _, parentHash := range header.ParentHashes {
		exists, err := bp.blockMetadataStore.Exists(parentHash)
		if err != nil {
			return false, err
		}
		if !exists {
			continue
		}
		parentMetadata, err := bp.blockMetadataStore.Lookup(parentHash)
		if err != nil {
			return false, err
		}
		if parentMetadata.Invalid {
			return false, errors.Wrapf(ruleerrors.ErrInvalidParent,
				"block %s builds on the invalid block %s", blockHash, parentHash)
		}
	}

	missing := make([]*externalapi.DomainHash, 0)
	seen := make(map[externalapi.DomainHash]struct{})
	for _, dependency := range dependenciesOf(header) {
		if _, ok := seen[*dependency]; ok {
			continue
		}
		seen[*dependency] = struct{}{}
		exists, err := bp.blockMetadataStore.Exists(dependency)
		if err != nil {
			return false, err
		}
		if !exists {
			missing = append(missing, dependency)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	// The body is stored up front so the block can be re-attempted without
	// a re-submission once its dependencies arrive.
	err := bp.blockStore.Put(blockHash, block)
	if err != nil {
		return false, err
	}
	bp.casperBuffer.AddPending(blockHash, missing)
	for _, missingHash := range missing {
		if bp.casperBuffer.Contains(missingHash) {
			// The dependency is itself pending; a fetch was already issued.
			continue
		}
		bp.network.RequestBlock(missingHash)
	}
	log.Debugf("Buffered block %s pending %d missing dependencies", blockHash, len(missing))
	return true, nil
}

func (bp *blockProcessor) markBlockInvalid(blockHash *externalapi.DomainHash,
	block *externalapi.DomainBlock, ruleErr error) error {

	// A rejected block can still be one side of a fork. The equivocation
	// bookkeeping runs before the block enters the DAG as invalid, so the
	// evidence is kept even though the block's claims were refused.
	err := bp.equivocationDetector.RecordEquivocation(blockHash, block.Header)
	if err != nil {
		return err
	}
	err = bp.blockStore.Put(blockHash, block)
	if err != nil {
		return err
	}
	err = bp.blockMetadataStore.Insert(externalapi.NewBlockMetadata(blockHash, block.Header, true))
	if err != nil {
		return err
	}
	log.Infof("Block %s was marked invalid: %s", blockHash, ruleErr)
	return ruleErr
}

func (bp *blockProcessor) commitBlock(blockHash *externalapi.DomainHash,
	block *externalapi.DomainBlock) error {

	err := bp.blockStore.Put(blockHash, block)
	if err != nil {
		return err
	}
	err = bp.blockMetadataStore.Insert(externalapi.NewBlockMetadata(blockHash, block.Header, false))
	if err != nil {
		return err
	}
	bp.network.BroadcastHash(blockHash)

	finalized, err := bp.finalityTracker.AdvanceFinality()
	if err != nil {
		return err
	}
	log.Debugf("Committed block %s at number %d; %d blocks newly finalized",
		blockHash, block.Header.BlockNumber, len(finalized))
	return nil
}

// reattemptDependents drains the buffer of every block whose dependencies
// were satisfied by the given insertion, transitively: a re-attempted block
// that enters the DAG may in turn satisfy further buffered blocks.
func (bp *blockProcessor) reattemptDependents(blockHash *externalapi.DomainHash) error {
	worklist := []*externalapi.DomainHash{blockHash}
	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]

		for _, readyHash := range bp.casperBuffer.Resolve(current) {
			bp.casperBuffer.Remove(readyHash)
			block, err := bp.blockStore.Get(readyHash)
			if err != nil {
				return err
			}
			inserted, err := bp.processBlock(readyHash, block, true)
			if err != nil && !ruleerrors.IsRuleError(err) {
				return err
			}
			if err != nil {
				log.Infof("Re-attempted block %s was turned away: %s", readyHash, err)
			}
			if inserted {
				worklist = append(worklist, readyHash)
			}
		}
	}
	return nil
}

func dependenciesOf(header *externalapi.DomainBlockHeader) []*externalapi.DomainHash {
	dependencies := make([]*externalapi.DomainHash, 0,
		len(header.ParentHashes)+len(header.Justifications))
	dependencies = append(dependencies, header.ParentHashes...)
	for _, justification := range header.Justifications {
		dependencies = append(dependencies, justification.BlockHash)
	}
	return dependencies
}
