package dagmerger

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/conflictgraph"
)

// dagMerger combines the post-states of an arbitrary parent set into one
// pre-state. Parents beyond the fringe contribute their deploy chains; the
// chains are partitioned into conflict components and, per component, the
// cost-optimal rejection option is applied before the remaining chains are
// folded onto the fringe state.
type dagMerger struct {
	blockMetadataStore model.BlockMetadataStore
	blockStore         model.BlockStore
	deployChainIndex   model.DeployChainIndex
	executionEngine    model.ExecutionEngine
}

// New instantiates a new DagMerger
func New(blockMetadataStore model.BlockMetadataStore, blockStore model.BlockStore,
	deployChainIndex model.DeployChainIndex, executionEngine model.ExecutionEngine) model.DagMerger {

	return &dagMerger{
		blockMetadataStore: blockMetadataStore,
		blockStore:         blockStore,
		deployChainIndex:   deployChainIndex,
		executionEngine:    executionEngine,
	}
}

func (dm *dagMerger) Merge(fringe []*externalapi.DomainHash, fringePostStateHash *externalapi.DomainHash,
	parentHashes []*externalapi.DomainHash) (*model.MergeResult, error) {

	parentHashes = dedupeHashes(parentHashes)

	if len(parentHashes) == 0 {
		return &model.MergeResult{PreStateHash: fringePostStateHash}, nil
	}
	if len(parentHashes) == 1 {
		parentBlock, err := dm.blockStore.Get(parentHashes[0])
		if err != nil {
			return nil, err
		}
		postStateHash := parentBlock.Header.PostStateHash
		return &model.MergeResult{PreStateHash: &postStateHash}, nil
	}

	chains, err := dm.chainsBeyondFringe(fringe, parentHashes)
	if err != nil {
		return nil, err
	}
	if len(chains) == 0 {
		return &model.MergeResult{PreStateHash: fringePostStateHash}, nil
	}

	conflictMap := conflictgraph.BuildRelationMap(chains, dm.executionEngine.Conflicts)
	rejectedChains := make([]*externalapi.DeployChain, 0)
	for _, component := range conflictgraph.ConnectedComponents(conflictMap, chains) {
		if len(component) == 1 {
			continue
		}
		options := conflictgraph.RejectionOptions(conflictMap, component)
		if len(options) == 0 {
			continue
		}
		rejectedChains = append(rejectedChains, chooseRejectionOption(options)...)
	}

	rejectedSet := make(map[*externalapi.DeployChain]struct{}, len(rejectedChains))
	for _, chain := range rejectedChains {
		rejectedSet[chain] = struct{}{}
	}
	acceptedChains := make([]*externalapi.DeployChain, 0, len(chains)-len(rejectedChains))
	for _, chain := range chains {
		if _, ok := rejectedSet[chain]; !ok {
			acceptedChains = append(acceptedChains, chain)
		}
	}

	preStateHash, err := dm.executionEngine.ApplyDeployChains(fringePostStateHash, acceptedChains)
	if err != nil {
		// An accepted chain the engine cannot apply means the conflict
		// predicate let a hidden dependency through. That is a bug, not a
		// property of the block under validation.
		return nil, errors.Wrap(err, "failed applying an accepted deploy chain; "+
			"the conflict predicate is unsound")
	}

	return &model.MergeResult{
		PreStateHash:      preStateHash,
		RejectedDeployIDs: rejectedDeployIDs(rejectedChains),
	}, nil
}

func (dm *dagMerger) CheckParentsCompatible(fringe []*externalapi.DomainHash,
	parentHashes []*externalapi.DomainHash) (bool, error) {

	parentHashes = dedupeHashes(parentHashes)
	if len(parentHashes) <= 1 {
		return true, nil
	}
	chains, err := dm.chainsBeyondFringe(fringe, parentHashes)
	if err != nil {
		return false, err
	}
	for i := 0; i < len(chains); i++ {
		for j := i + 1; j < len(chains); j++ {
			if dm.executionEngine.Conflicts(chains[i], chains[j]) {
				return false, nil
			}
		}
	}
	return true, nil
}

func (dm *dagMerger) DeployChainsOf(blockHash *externalapi.DomainHash) ([]*externalapi.DeployChain, error) {
	has, err := dm.deployChainIndex.Has(blockHash)
	if err != nil {
		return nil, err
	}
	if has {
		return dm.deployChainIndex.Get(blockHash)
	}

	block, err := dm.blockStore.Get(blockHash)
	if err != nil {
		return nil, err
	}
	chains, err := dm.executionEngine.ComputeDeployChains(block)
	if err != nil {
		return nil, err
	}
	err = dm.deployChainIndex.Insert(blockHash, chains)
	if err != nil {
		return nil, err
	}
	return chains, nil
}

// chainsBeyondFringe collects the deploy chains of every block that is in the
// parents' past but not in the fringe's past. The result is ordered by block
// hash, then by chain id, so that independent runs agree on it.
func (dm *dagMerger) chainsBeyondFringe(fringe []*externalapi.DomainHash,
	parentHashes []*externalapi.DomainHash) ([]*externalapi.DeployChain, error) {

	blocksBeyond, err := dm.blocksBeyondFringe(fringe, parentHashes)
	if err != nil {
		return nil, err
	}
	chains := make([]*externalapi.DeployChain, 0)
	for _, blockHash := range blocksBeyond {
		blockChains, err := dm.DeployChainsOf(blockHash)
		if err != nil {
			return nil, err
		}
		chains = append(chains, blockChains...)
	}
	return chains, nil
}

func (dm *dagMerger) blocksBeyondFringe(fringe []*externalapi.DomainHash,
	parentHashes []*externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	beyond := make([]*externalapi.DomainHash, 0)
	visited := make(map[externalapi.DomainHash]struct{})
	worklist := make([]*externalapi.DomainHash, 0, len(parentHashes))
	for _, parentHash := range parentHashes {
		if _, ok := visited[*parentHash]; ok {
			continue
		}
		visited[*parentHash] = struct{}{}
		worklist = append(worklist, parentHash)
	}

	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]

		inFringePast, err := dm.isInFringePast(current, fringe)
		if err != nil {
			return nil, err
		}
		if inFringePast {
			continue
		}
		beyond = append(beyond, current)

		metadata, err := dm.blockMetadataStore.Lookup(current)
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

	sort.Slice(beyond, func(i, j int) bool {
		return beyond[i].Less(beyond[j])
	})
	return beyond, nil
}

func (dm *dagMerger) isInFringePast(blockHash *externalapi.DomainHash,
	fringe []*externalapi.DomainHash) (bool, error) {

	for _, fringeHash := range fringe {
		isInPast, err := dm.blockMetadataStore.IsInPast(blockHash, fringeHash)
		if err != nil {
			return false, err
		}
		if isInPast {
			return true, nil
		}
	}
	return false, nil
}

// chooseRejectionOption picks the option with the lowest total rejected cost.
// Cost ties break on the lexicographic order of the options' sorted chain
// ids, so every node resolves the same merge the same way.
func chooseRejectionOption(options [][]*externalapi.DeployChain) []*externalapi.DeployChain {
	best := options[0]
	bestCost := optionCost(best)
	bestIDs := optionIDs(best)
	for _, option := range options[1:] {
		cost := optionCost(option)
		ids := optionIDs(option)
		if cost < bestCost || (cost == bestCost && idsLess(ids, bestIDs)) {
			best, bestCost, bestIDs = option, cost, ids
		}
	}
	return best
}

func optionCost(option []*externalapi.DeployChain) uint64 {
	cost := uint64(0)
	for _, chain := range option {
		cost += chain.TotalCost
	}
	return cost
}

func optionIDs(option []*externalapi.DeployChain) []*externalapi.DomainDeployID {
	ids := make([]*externalapi.DomainDeployID, 0, len(option))
	for _, chain := range option {
		ids = append(ids, chain.ID())
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Less(ids[j])
	})
	return ids
}

func idsLess(a, b []*externalapi.DomainDeployID) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if !a[i].Equal(b[i]) {
			return a[i].Less(b[i])
		}
	}
	return len(a) < len(b)
}

func rejectedDeployIDs(rejectedChains []*externalapi.DeployChain) []*externalapi.DomainDeployID {
	seen := make(map[externalapi.DomainDeployID]struct{})
	ids := make([]*externalapi.DomainDeployID, 0)
	for _, chain := range rejectedChains {
		for _, deployID := range chain.DeployIDs {
			if _, ok := seen[*deployID]; ok {
				continue
			}
			seen[*deployID] = struct{}{}
			ids = append(ids, deployID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Less(ids[j])
	})
	return ids
}

func dedupeHashes(hashes []*externalapi.DomainHash) []*externalapi.DomainHash {
	seen := make(map[externalapi.DomainHash]struct{}, len(hashes))
	deduped := make([]*externalapi.DomainHash, 0, len(hashes))
	for _, hash := range hashes {
		if _, ok := seen[*hash]; ok {
			continue
		}
		seen[*hash] = struct{}{}
		deduped = append(deduped, hash)
	}
	return deduped
}
