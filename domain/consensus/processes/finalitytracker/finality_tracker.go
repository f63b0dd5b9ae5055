package finalitytracker

import (
	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/dagconfig"
)

// finalityTracker advances the forward-only finalized marker. A child of the
// last finalized block becomes finalized once the stake agreeing with it
// clears the configured fault-tolerance threshold; the marker never skips
// over a child.
type finalityTracker struct {
	params             *dagconfig.Params
	blockMetadataStore model.BlockMetadataStore
	blockStore         model.BlockStore
	deployPool         model.DeployPool
}

// New instantiates a new FinalityTracker
func New(params *dagconfig.Params, blockMetadataStore model.BlockMetadataStore,
	blockStore model.BlockStore, deployPool model.DeployPool) model.FinalityTracker {

	return &finalityTracker{
		params:             params,
		blockMetadataStore: blockMetadataStore,
		blockStore:         blockStore,
		deployPool:         deployPool,
	}
}

func (ft *finalityTracker) AdvanceFinality() ([]*externalapi.DomainHash, error) {
	finalized := make([]*externalapi.DomainHash, 0)
	for {
		lastFinalizedBlock, err := ft.blockMetadataStore.LastFinalizedBlock()
		if err != nil {
			return nil, err
		}
		next, found, err := ft.nextFinalizedChild(lastFinalizedBlock)
		if err != nil {
			return nil, err
		}
		if !found {
			return finalized, nil
		}

		err = ft.blockMetadataStore.MarkFinalized(next)
		if err != nil {
			return nil, err
		}
		err = ft.pruneFinalizedDeploys(next)
		if err != nil {
			return nil, err
		}
		log.Infof("Finalized block %s", next)
		finalized = append(finalized, next)
	}
}

func (ft *finalityTracker) FaultTolerance(blockHash *externalapi.DomainHash) (float64, error) {
	metadata, err := ft.blockMetadataStore.Lookup(blockHash)
	if err != nil {
		return 0, err
	}
	totalStake := metadata.TotalStake()
	if totalStake == 0 {
		return 0, errors.Errorf("block %s carries an empty bonds map", blockHash)
	}

	latestMessages, err := ft.blockMetadataStore.LatestMessages()
	if err != nil {
		return 0, err
	}
	agreeingStake := uint64(0)
	for _, bond := range metadata.Bonds {
		latestMessage, ok := latestMessages[bond.Validator]
		if !ok {
			continue
		}
		agrees, err := ft.blockMetadataStore.IsInPast(blockHash, latestMessage)
		if err != nil {
			return 0, err
		}
		if agrees {
			agreeingStake += bond.Stake
		}
	}

	// Normalized to [-1, 1]: at full agreement the whole stake would need
	// to be byzantine to revert the block, at half agreement none.
	return 2*float64(agreeingStake)/float64(totalStake) - 1, nil
}

// nextFinalizedChild picks the child of the given block that clears the
// fault-tolerance threshold. When several children clear it, the highest
// estimate wins, ties broken by hash.
func (ft *finalityTracker) nextFinalizedChild(blockHash *externalapi.DomainHash) (
	*externalapi.DomainHash, bool, error) {

	children, err := ft.blockMetadataStore.Children(blockHash)
	if err != nil {
		return nil, false, err
	}

	var best *externalapi.DomainHash
	bestEstimate := 0.0
	for _, child := range children {
		childMetadata, err := ft.blockMetadataStore.Lookup(child)
		if err != nil {
			return nil, false, err
		}
		if childMetadata.Invalid {
			continue
		}
		estimate, err := ft.FaultTolerance(child)
		if err != nil {
			return nil, false, err
		}
		if estimate <= ft.params.FaultToleranceThreshold {
			continue
		}
		if best == nil || estimate > bestEstimate ||
			(estimate == bestEstimate && child.Less(best)) {
			best = child
			bestEstimate = estimate
		}
	}
	if best == nil {
		return nil, false, nil
	}
	return best, true, nil
}

// pruneFinalizedDeploys drops the newly finalized block's deploys from the
// pool, along with every pooled deploy whose validity window already closed.
func (ft *finalityTracker) pruneFinalizedDeploys(blockHash *externalapi.DomainHash) error {
	block, err := ft.blockStore.Get(blockHash)
	if err != nil {
		return err
	}
	deployIDs := make([]*externalapi.DomainDeployID, 0, len(block.Deploys))
	for _, processedDeploy := range block.Deploys {
		deployID := processedDeploy.ID
		deployIDs = append(deployIDs, &deployID)
	}
	ft.deployPool.Remove(deployIDs)
	ft.deployPool.ExpireBelow(block.Header.BlockNumber)
	return nil
}
