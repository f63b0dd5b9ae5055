package blockprocessor

import (
	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/ruleerrors"
	"github.com/casperdag/casperd/domain/consensus/utils/consensushashing"
	"github.com/casperdag/casperd/domain/consensus/utils/signatures"
)

// checkBlockFormat rejects structurally malformed or badly signed blocks.
// This check is final: a block that fails it is never re-validated.
func (bp *blockProcessor) checkBlockFormat(blockHash *externalapi.DomainHash,
	block *externalapi.DomainBlock) error {

	header := block.Header
	if header.Version > bp.params.Version {
		return errors.Wrapf(ruleerrors.ErrVersionTooNew,
			"block %s has version %d, this node understands up to %d",
			blockHash, header.Version, bp.params.Version)
	}
	if header.ShardID != bp.params.ShardID {
		return errors.Wrapf(ruleerrors.ErrWrongShard,
			"block %s belongs to shard %q, this node validates shard %q",
			blockHash, header.ShardID, bp.params.ShardID)
	}
	if len(header.ParentHashes) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoParents, "block %s has no parents", blockHash)
	}

	err := checkCanonicalOrder(blockHash, block)
	if err != nil {
		return err
	}

	senderBonded := false
	for _, bond := range header.Bonds {
		if bond.Validator == header.Validator && bond.Stake > 0 {
			senderBonded = true
			break
		}
	}
	if !senderBonded {
		return errors.Wrapf(ruleerrors.ErrSenderNotBonded,
			"the sender of block %s has no stake in its bonds map", blockHash)
	}

	valid, err := signatures.VerifyBlockSignature(blockHash, block)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrInvalidSignature,
			"the signature of block %s cannot be parsed: %s", blockHash, err)
	}
	if !valid {
		return errors.Wrapf(ruleerrors.ErrInvalidSignature,
			"the signature of block %s does not verify", blockHash)
	}

	for _, processedDeploy := range block.Deploys {
		if processedDeploy.IsSystemDeploy {
			continue
		}
		actualID := consensushashing.DeployID(processedDeploy.Deploy)
		if !actualID.Equal(&processedDeploy.ID) {
			return errors.Wrapf(ruleerrors.ErrInvalidDeploySignature,
				"deploy id %s in block %s does not match its signature",
				processedDeploy.ID, blockHash)
		}
		valid, err := signatures.VerifyDeploySignature(processedDeploy.Deploy)
		if err != nil {
			return errors.Wrapf(ruleerrors.ErrInvalidDeploySignature,
				"the signature of deploy %s in block %s cannot be parsed: %s",
				processedDeploy.ID, blockHash, err)
		}
		if !valid {
			return errors.Wrapf(ruleerrors.ErrInvalidDeploySignature,
				"the signature of deploy %s in block %s does not verify",
				processedDeploy.ID, blockHash)
		}
	}
	return nil
}

func checkCanonicalOrder(blockHash *externalapi.DomainHash, block *externalapi.DomainBlock) error {
	header := block.Header
	for i := 1; i < len(header.ParentHashes); i++ {
		if !header.ParentHashes[i-1].Less(header.ParentHashes[i]) {
			return errors.Wrapf(ruleerrors.ErrUnsortedHeaderFields,
				"the parents of block %s are not in canonical order", blockHash)
		}
	}
	for i := 1; i < len(header.Justifications); i++ {
		if !header.Justifications[i-1].Validator.Less(header.Justifications[i].Validator) {
			return errors.Wrapf(ruleerrors.ErrUnsortedHeaderFields,
				"the justifications of block %s are not in canonical order", blockHash)
		}
	}
	for i := 1; i < len(header.Bonds); i++ {
		if !header.Bonds[i-1].Validator.Less(header.Bonds[i].Validator) {
			return errors.Wrapf(ruleerrors.ErrUnsortedHeaderFields,
				"the bonds of block %s are not in canonical order", blockHash)
		}
	}
	for i := 1; i < len(block.RejectedDeployIDs); i++ {
		if !block.RejectedDeployIDs[i-1].Less(block.RejectedDeployIDs[i]) {
			return errors.Wrapf(ruleerrors.ErrUnsortedHeaderFields,
				"the rejected deploy ids of block %s are not in canonical order", blockHash)
		}
	}
	return nil
}

// validateAgainstState recomputes the block's claims from the local DAG: its
// numbers, its merged pre-state, its rejected deploy set and its replayed
// post-state all have to match exactly.
func (bp *blockProcessor) validateAgainstState(blockHash *externalapi.DomainHash,
	block *externalapi.DomainBlock) error {

	header := block.Header

	expectedBlockNumber := uint64(0)
	for _, parentHash := range header.ParentHashes {
		parentMetadata, err := bp.blockMetadataStore.Lookup(parentHash)
		if err != nil {
			return err
		}
		if parentMetadata.BlockNumber+1 > expectedBlockNumber {
			expectedBlockNumber = parentMetadata.BlockNumber + 1
		}
	}
	if header.BlockNumber != expectedBlockNumber {
		return errors.Wrapf(ruleerrors.ErrBlockNumberMismatch,
			"block %s claims number %d but its parents imply %d",
			blockHash, header.BlockNumber, expectedBlockNumber)
	}

	expectedSequenceNumber := uint64(0)
	for _, justification := range header.Justifications {
		if justification.Validator != header.Validator {
			continue
		}
		previousMetadata, err := bp.blockMetadataStore.Lookup(justification.BlockHash)
		if err != nil {
			return err
		}
		expectedSequenceNumber = previousMetadata.SequenceNumber + 1
	}
	if header.SequenceNumber != expectedSequenceNumber {
		return errors.Wrapf(ruleerrors.ErrSequenceNumberMismatch,
			"block %s claims sequence number %d but its self-justification implies %d",
			blockHash, header.SequenceNumber, expectedSequenceNumber)
	}

	for _, processedDeploy := range block.Deploys {
		if processedDeploy.IsSystemDeploy {
			continue
		}
		if !processedDeploy.Deploy.IsWithinValidityWindow(header.BlockNumber) {
			return errors.Wrapf(ruleerrors.ErrDeployOutsideValidityWindow,
				"deploy %s in block %s is outside its validity window at number %d",
				processedDeploy.ID, blockHash, header.BlockNumber)
		}
	}

	lastFinalizedBlock, err := bp.blockMetadataStore.LastFinalizedBlock()
	if err != nil {
		return err
	}
	lastFinalizedMetadata, err := bp.blockMetadataStore.Lookup(lastFinalizedBlock)
	if err != nil {
		return err
	}
	// Bonded-stake transitions are not processed, so every block carries
	// the bonds map the last finalized block established.
	if !externalapi.BondsEqual(header.Bonds, lastFinalizedMetadata.Bonds) {
		return errors.Wrapf(ruleerrors.ErrBondsMismatch,
			"block %s carries a bonds map that differs from the finalized one", blockHash)
	}

	lastFinalizedBody, err := bp.blockStore.Get(lastFinalizedBlock)
	if err != nil {
		return err
	}
	fringe := []*externalapi.DomainHash{lastFinalizedBlock}
	fringePostStateHash := lastFinalizedBody.Header.PostStateHash

	mergeResult, err := bp.dagMerger.Merge(fringe, &fringePostStateHash, header.ParentHashes)
	if err != nil {
		return err
	}
	if !mergeResult.PreStateHash.Equal(&header.PreStateHash) {
		return errors.Wrapf(ruleerrors.ErrPreStateMismatch,
			"block %s claims pre-state %s but merging its parents yields %s",
			blockHash, &header.PreStateHash, mergeResult.PreStateHash)
	}
	if !externalapi.DeployIDsEqual(mergeResult.RejectedDeployIDs, block.RejectedDeployIDs) {
		return errors.Wrapf(ruleerrors.ErrRejectedDeploysMismatch,
			"block %s claims a rejected deploy set of size %d but merging yields one of size %d",
			blockHash, len(block.RejectedDeployIDs), len(mergeResult.RejectedDeployIDs))
	}

	err = bp.replayBlock(blockHash, block, mergeResult.PreStateHash)
	if err != nil {
		return err
	}

	return bp.equivocationDetector.CheckBlock(blockHash, header)
}

// replayBlock re-executes the block's deploys and compares the outcome to its
// claims. Transient mismatch categories are retried up to the configured
// bound; deterministic ones are not retried at all.
func (bp *blockProcessor) replayBlock(blockHash *externalapi.DomainHash,
	block *externalapi.DomainBlock, preStateHash *externalapi.DomainHash) error {

	header := block.Header
	context := &model.BlockContext{
		BlockNumber:        header.BlockNumber,
		TimeInMilliseconds: header.TimeInMilliseconds,
		Validator:          header.Validator,
		ShardID:            header.ShardID,
	}

	for attempt := 1; ; attempt++ {
		err := bp.executionEngine.Replay(preStateHash, block.Deploys, context, &header.PostStateHash)
		if err == nil {
			return nil
		}
		mismatch := &model.ReplayMismatchError{}
		if !errors.As(err, &mismatch) {
			// Not a mismatch but an engine failure; never fold it into the
			// block's validity verdict.
			return err
		}
		if mismatch.Category.IsTransient() && attempt < bp.params.ReplayRetryBound {
			log.Debugf("Replay of block %s produced a transient %s mismatch, retrying (%d/%d)",
				blockHash, mismatch.Category, attempt, bp.params.ReplayRetryBound)
			continue
		}
		switch mismatch.Category {
		case model.ReplayStateHashMismatch:
			return errors.Wrapf(ruleerrors.ErrPostStateMismatch, "block %s: %s", blockHash, mismatch)
		case model.ReplayCostMismatch:
			return errors.Wrapf(ruleerrors.ErrDeployCostMismatch, "block %s: %s", blockHash, mismatch)
		case model.ReplayStatusMismatch:
			return errors.Wrapf(ruleerrors.ErrDeployStatusMismatch, "block %s: %s", blockHash, mismatch)
		case model.ReplayUnusedEventsMismatch:
			return errors.Wrapf(ruleerrors.ErrUnusedEvents, "block %s: %s", blockHash, mismatch)
		default:
			return errors.Errorf("unknown replay mismatch category %d", mismatch.Category)
		}
	}
}
