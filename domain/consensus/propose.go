package consensus

import (
	"sort"
	"time"

	"github.com/kaspanet/go-secp256k1"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/consensushashing"
	"github.com/casperdag/casperd/domain/consensus/utils/signatures"
)

// ProposeFuture is the awaitable handle of an asynchronous block proposal.
type ProposeFuture struct {
	done  chan struct{}
	block *externalapi.DomainBlock
	err   error
}

func newProposeFuture() *ProposeFuture {
	return &ProposeFuture{done: make(chan struct{})}
}

func (pf *ProposeFuture) resolve(block *externalapi.DomainBlock, err error) {
	pf.block = block
	pf.err = err
	close(pf.done)
}

// Wait blocks until the proposal completes and returns the proposed,
// already-admitted block.
func (pf *ProposeFuture) Wait() (*externalapi.DomainBlock, error) {
	<-pf.done
	return pf.block, pf.err
}

func (c *consensus) ProposeBlock(keyPair *secp256k1.SchnorrKeyPair) (*ProposeFuture, error) {
	if !c.proposeInFlight.CompareAndSwap(false, true) {
		return nil, ErrProposeBusy
	}
	future := newProposeFuture()
	spawn("proposeBlock", func() {
		block, err := c.proposeBlock(keyPair)
		if err != nil {
			log.Warnf("Block proposal failed: %s", err)
		}
		// The flag clears before the future resolves, so a caller that
		// awaited Wait may immediately propose again.
		c.proposeInFlight.Store(false)
		future.resolve(block, err)
	})
	return future, nil
}

func (c *consensus) proposeBlock(keyPair *secp256k1.SchnorrKeyPair) (*externalapi.DomainBlock, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	validator, err := signatures.Validator(keyPair)
	if err != nil {
		return nil, err
	}
	snapshot, err := c.buildSnapshot()
	if err != nil {
		return nil, err
	}
	parentHashes, err := c.estimator.ChooseParents()
	if err != nil {
		return nil, err
	}
	sortHashes(parentHashes)

	mergeResult, err := c.dagMerger.Merge(snapshot.Fringe, snapshot.FringePostStateHash, parentHashes)
	if err != nil {
		return nil, err
	}

	blockNumber := uint64(0)
	for _, parentHash := range parentHashes {
		parentMetadata, err := c.blockMetadataStore.Lookup(parentHash)
		if err != nil {
			return nil, err
		}
		if parentMetadata.BlockNumber+1 > blockNumber {
			blockNumber = parentMetadata.BlockNumber + 1
		}
	}

	deploys, err := c.selectDeploys(snapshot, parentHashes, blockNumber)
	if err != nil {
		return nil, err
	}

	sequenceNumber := uint64(0)
	if maxSequenceNumber, ok := snapshot.MaxSequenceNumbers[validator]; ok {
		sequenceNumber = maxSequenceNumber + 1
	}

	context := &model.BlockContext{
		BlockNumber:        blockNumber,
		TimeInMilliseconds: time.Now().UnixMilli(),
		Validator:          validator,
		ShardID:            c.params.ShardID,
	}
	postStateHash, results, err := c.executionEngine.ApplyDeploys(
		mergeResult.PreStateHash, deploys, nil, context)
	if err != nil {
		return nil, err
	}
	processedDeploys := make([]*externalapi.ProcessedDeploy, len(deploys))
	for i, deploy := range deploys {
		processedDeploys[i] = &externalapi.ProcessedDeploy{
			Deploy:  deploy,
			ID:      results[i].ID,
			Cost:    results[i].Cost,
			Errored: results[i].Errored,
		}
	}

	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:            c.params.Version,
			ShardID:            c.params.ShardID,
			Validator:          validator,
			SequenceNumber:     sequenceNumber,
			BlockNumber:        blockNumber,
			ParentHashes:       parentHashes,
			Justifications:     justificationsFor(snapshot.LatestMessages),
			Bonds:              externalapi.CloneBonds(snapshot.Bonds),
			PreStateHash:       *mergeResult.PreStateHash,
			PostStateHash:      *postStateHash,
			TimeInMilliseconds: context.TimeInMilliseconds,
		},
		Deploys:           processedDeploys,
		RejectedDeployIDs: mergeResult.RejectedDeployIDs,
	}
	err = signatures.SignBlock(block, keyPair)
	if err != nil {
		return nil, err
	}

	err = c.blockProcessor.ValidateAndInsertBlock(block)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// selectDeploys picks the pooled deploys that are executable at the given
// block number and not already carried by a non-finalized ancestor.
func (c *consensus) selectDeploys(snapshot *model.CasperSnapshot,
	parentHashes []*externalapi.DomainHash, blockNumber uint64) ([]*externalapi.DomainDeploy, error) {

	carried, err := c.deploysBeyondFringe(snapshot.Fringe, parentHashes)
	if err != nil {
		return nil, err
	}

	deploys := make([]*externalapi.DomainDeploy, 0, len(snapshot.PooledDeploys))
	for _, deploy := range snapshot.PooledDeploys {
		if !deploy.IsWithinValidityWindow(blockNumber) {
			continue
		}
		deployID := consensushashing.DeployID(deploy)
		if _, ok := carried[*deployID]; ok {
			continue
		}
		deploys = append(deploys, deploy)
	}
	return deploys, nil
}

// deploysBeyondFringe collects the ids of every deploy carried by a block in
// the parents' past but not in the fringe's past.
func (c *consensus) deploysBeyondFringe(fringe []*externalapi.DomainHash,
	parentHashes []*externalapi.DomainHash) (map[externalapi.DomainDeployID]struct{}, error) {

	carried := make(map[externalapi.DomainDeployID]struct{})
	visited := make(map[externalapi.DomainHash]struct{})
	worklist := append([]*externalapi.DomainHash{}, parentHashes...)
	for _, parentHash := range parentHashes {
		visited[*parentHash] = struct{}{}
	}

	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]

		inFringePast := false
		for _, fringeHash := range fringe {
			isInPast, err := c.blockMetadataStore.IsInPast(current, fringeHash)
			if err != nil {
				return nil, err
			}
			if isInPast {
				inFringePast = true
				break
			}
		}
		if inFringePast {
			continue
		}

		block, err := c.blockStore.Get(current)
		if err != nil {
			return nil, err
		}
		for _, processedDeploy := range block.Deploys {
			carried[processedDeploy.ID] = struct{}{}
		}

		metadata, err := c.blockMetadataStore.Lookup(current)
		if err != nil {
			return nil, err
		}
		for _, parentHash := range metadata.ParentHashes {
			if _, ok := visited[*parentHash]; ok {
				continue
			}
			visited[*parentHash] = struct{}{}
			worklist = append(worklist, parentHash)
		}
	}
	return carried, nil
}

func justificationsFor(
	latestMessages map[externalapi.DomainValidator]*externalapi.DomainHash) []*externalapi.Justification {

	justifications := make([]*externalapi.Justification, 0, len(latestMessages))
	for validator, blockHash := range latestMessages {
		justifications = append(justifications, &externalapi.Justification{
			Validator: validator,
			BlockHash: blockHash,
		})
	}
	sort.Slice(justifications, func(i, j int) bool {
		return justifications[i].Validator.Less(justifications[j].Validator)
	})
	return justifications
}
