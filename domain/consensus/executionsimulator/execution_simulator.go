package executionsimulator

import (
	"sort"
	"sync"

	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/conflictgraph"
	"github.com/casperdag/casperd/domain/consensus/utils/multiset"
)

// executionSimulator is a deterministic reference ExecutionEngine. State is a
// multiset of channel writes committed to by its muhash. The simulator keeps
// every state it has ever produced in memory, keyed by state hash, so that
// later calls can build on top of any previously reached state.
//
// Because execution here is sequential and deterministic, Replay never
// produces the transient mismatch categories; those exist for engines that
// execute deploys concurrently.
type executionSimulator struct {
	mutex  sync.Mutex
	states map[externalapi.DomainHash]*muhash.MuHash
}

// New instantiates a new execution simulator whose only initially known state
// is the empty state.
func New() model.ExecutionEngine {
	emptyState := multiset.New()
	simulator := &executionSimulator{
		states: make(map[externalapi.DomainHash]*muhash.MuHash),
	}
	simulator.states[*multiset.Hash(emptyState)] = emptyState
	return simulator
}

func (es *executionSimulator) ApplyDeploys(preStateHash *externalapi.DomainHash,
	deploys []*externalapi.DomainDeploy, systemDeploys []*externalapi.DomainDeploy,
	context *model.BlockContext) (*externalapi.DomainHash, []*model.DeployResult, error) {

	allDeploys := make([]*externalapi.DomainDeploy, 0, len(deploys)+len(systemDeploys))
	allDeploys = append(allDeploys, deploys...)
	allDeploys = append(allDeploys, systemDeploys...)

	allEffects := make([]*deployEffects, len(allDeploys))
	results := make([]*model.DeployResult, len(allDeploys))
	for i, deploy := range allDeploys {
		effects := deriveEffects(deploy)
		allEffects[i] = effects
		results[i] = &model.DeployResult{
			ID:      effects.id,
			Cost:    effects.cost,
			Errored: effects.errored,
		}
	}

	postStateHash, err := es.applyEffects(preStateHash, allEffects)
	if err != nil {
		return nil, nil, err
	}
	return postStateHash, results, nil
}

func (es *executionSimulator) Replay(preStateHash *externalapi.DomainHash,
	deploys []*externalapi.ProcessedDeploy, context *model.BlockContext,
	expectedPostStateHash *externalapi.DomainHash) error {

	allEffects := make([]*deployEffects, len(deploys))
	for i, processedDeploy := range deploys {
		effects := deriveEffects(processedDeploy.Deploy)
		allEffects[i] = effects

		if effects.errored != processedDeploy.Errored {
			return model.NewReplayMismatchError(model.ReplayStatusMismatch,
				"deploy %s replayed with errored=%t but the block claims errored=%t",
				processedDeploy.ID, effects.errored, processedDeploy.Errored)
		}
		if effects.cost != processedDeploy.Cost {
			return model.NewReplayMismatchError(model.ReplayCostMismatch,
				"deploy %s replayed with cost %d but the block claims cost %d",
				processedDeploy.ID, effects.cost, processedDeploy.Cost)
		}
	}

	postStateHash, err := es.applyEffects(preStateHash, allEffects)
	if err != nil {
		return err
	}
	if !postStateHash.Equal(expectedPostStateHash) {
		return model.NewReplayMismatchError(model.ReplayStateHashMismatch,
			"replayed post-state hash %s differs from the claimed %s",
			postStateHash, expectedPostStateHash)
	}
	return nil
}

func (es *executionSimulator) ComputeDeployChains(block *externalapi.DomainBlock) (
	[]*externalapi.DeployChain, error) {

	allEffects := make([]*deployEffects, len(block.Deploys))
	for i, processedDeploy := range block.Deploys {
		allEffects[i] = deriveEffects(processedDeploy.Deploy)
	}

	chains := make([]*externalapi.DeployChain, 0)
	for _, component := range groupByChannelOverlap(allEffects) {
		chain := &externalapi.DeployChain{}
		readChannels := make(map[externalapi.DomainHash]struct{})
		writeChannels := make(map[externalapi.DomainHash]struct{})
		for _, index := range component {
			processedDeploy := block.Deploys[index]
			deployID := processedDeploy.ID
			chain.DeployIDs = append(chain.DeployIDs, &deployID)
			chain.TotalCost += processedDeploy.Cost
			for _, channel := range allEffects[index].readChannels {
				readChannels[*channel] = struct{}{}
			}
			for _, channel := range allEffects[index].writeChannels {
				writeChannels[*channel] = struct{}{}
			}
		}
		sort.Slice(chain.DeployIDs, func(i, j int) bool {
			return chain.DeployIDs[i].Less(chain.DeployIDs[j])
		})
		chain.ReadChannels = sortedChannels(readChannels)
		chain.WriteChannels = sortedChannels(writeChannels)
		chains = append(chains, chain)
	}

	sort.Slice(chains, func(i, j int) bool {
		return chains[i].ID().Less(chains[j].ID())
	})
	return chains, nil
}

func (es *executionSimulator) Conflicts(chainA, chainB *externalapi.DeployChain) bool {
	writesA := make(map[externalapi.DomainHash]struct{}, len(chainA.WriteChannels))
	for _, channel := range chainA.WriteChannels {
		writesA[*channel] = struct{}{}
	}
	for _, channel := range chainB.WriteChannels {
		if _, ok := writesA[*channel]; ok {
			return true
		}
	}
	for _, channel := range chainB.ReadChannels {
		if _, ok := writesA[*channel]; ok {
			return true
		}
	}
	for _, channel := range chainA.ReadChannels {
		for _, other := range chainB.WriteChannels {
			if channel.Equal(other) {
				return true
			}
		}
	}
	return false
}

func (es *executionSimulator) ApplyDeployChains(baseStateHash *externalapi.DomainHash,
	chains []*externalapi.DeployChain) (*externalapi.DomainHash, error) {

	es.mutex.Lock()
	defer es.mutex.Unlock()

	state, err := es.stateFor(baseStateHash)
	if err != nil {
		return nil, err
	}
	for _, chain := range chains {
		for _, channel := range chain.WriteChannels {
			state.Add(channel.ByteSlice())
		}
	}
	return es.registerState(state), nil
}

// applyEffects advances the state by one block's worth of deploys. The channel
// writes of each overlap group are applied as a unit, which keeps the
// transition identical to applying the block's deploy chains one by one.
func (es *executionSimulator) applyEffects(preStateHash *externalapi.DomainHash,
	allEffects []*deployEffects) (*externalapi.DomainHash, error) {

	es.mutex.Lock()
	defer es.mutex.Unlock()

	state, err := es.stateFor(preStateHash)
	if err != nil {
		return nil, err
	}
	for _, component := range groupByChannelOverlap(allEffects) {
		writeChannels := make(map[externalapi.DomainHash]struct{})
		for _, index := range component {
			for _, channel := range allEffects[index].writeChannels {
				writeChannels[*channel] = struct{}{}
			}
		}
		for _, channel := range sortedChannels(writeChannels) {
			state.Add(channel.ByteSlice())
		}
	}
	return es.registerState(state), nil
}

// stateFor returns a private copy of the multiset behind the given state
// hash. Must be called with the mutex held.
func (es *executionSimulator) stateFor(stateHash *externalapi.DomainHash) (*muhash.MuHash, error) {
	state, ok := es.states[*stateHash]
	if !ok {
		return nil, errors.Errorf("state %s is not known to the execution simulator", stateHash)
	}
	return state.Clone(), nil
}

// registerState remembers the given state and returns its hash. Must be
// called with the mutex held.
func (es *executionSimulator) registerState(state *muhash.MuHash) *externalapi.DomainHash {
	stateHash := multiset.Hash(state)
	if _, ok := es.states[*stateHash]; !ok {
		es.states[*stateHash] = state
	}
	return stateHash
}

// groupByChannelOverlap partitions deploys into the components of the channel
// overlap relation: two deploys belong together when one's writes touch the
// other's reads or writes.
func groupByChannelOverlap(allEffects []*deployEffects) [][]int {
	indexes := make([]int, len(allEffects))
	for i := range allEffects {
		indexes[i] = i
	}
	overlapMap := conflictgraph.BuildRelationMap(indexes, func(a, b int) bool {
		return allEffects[a].overlaps(allEffects[b])
	})
	return conflictgraph.ConnectedComponents(overlapMap, indexes)
}

func sortedChannels(channels map[externalapi.DomainHash]struct{}) []*externalapi.DomainHash {
	sorted := make([]*externalapi.DomainHash, 0, len(channels))
	for channel := range channels {
		channel := channel
		sorted = append(sorted, &channel)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})
	return sorted
}
