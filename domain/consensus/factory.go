package consensus

import (
	"github.com/casperdag/casperd/domain/consensus/datastructures/blockmetadatastore"
	"github.com/casperdag/casperd/domain/consensus/datastructures/blockstore"
	"github.com/casperdag/casperd/domain/consensus/datastructures/casperbuffer"
	"github.com/casperdag/casperd/domain/consensus/datastructures/deploychainindex"
	"github.com/casperdag/casperd/domain/consensus/datastructures/deploypool"
	"github.com/casperdag/casperd/domain/consensus/datastructures/equivocationstore"
	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/processes/blockprocessor"
	"github.com/casperdag/casperd/domain/consensus/processes/dagmerger"
	"github.com/casperdag/casperd/domain/consensus/processes/equivocationdetector"
	"github.com/casperdag/casperd/domain/consensus/processes/estimator"
	"github.com/casperdag/casperd/domain/consensus/processes/finalitytracker"
	"github.com/casperdag/casperd/domain/dagconfig"
	"github.com/casperdag/casperd/infrastructure/db/database"
)

// Factory instantiates new Consensuses
type Factory interface {
	NewConsensus(params *dagconfig.Params, databaseContext database.Database,
		executionEngine model.ExecutionEngine, network model.Network) (Consensus, error)
}

type factory struct{}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{}
}

func (f *factory) NewConsensus(params *dagconfig.Params, databaseContext database.Database,
	executionEngine model.ExecutionEngine, network model.Network) (Consensus, error) {

	// Data structures
	blockMetadataStore := blockmetadatastore.New()
	blockStore := blockstore.New(databaseContext)
	casperBuffer := casperbuffer.New()
	deployChainIndex := deploychainindex.New()
	deployPool := deploypool.New()
	equivocationStore := equivocationstore.New()

	// Processes
	dagMerger := dagmerger.New(
		blockMetadataStore,
		blockStore,
		deployChainIndex,
		executionEngine)
	estimator := estimator.New(
		params,
		blockMetadataStore,
		dagMerger)
	equivocationDetector := equivocationdetector.New(
		blockMetadataStore,
		equivocationStore)
	finalityTracker := finalitytracker.New(
		params,
		blockMetadataStore,
		blockStore,
		deployPool)
	blockProcessor := blockprocessor.New(
		params,
		blockMetadataStore,
		blockStore,
		casperBuffer,
		dagMerger,
		equivocationDetector,
		finalityTracker,
		executionEngine,
		network)

	c := &consensus{
		params: params,

		blockMetadataStore: blockMetadataStore,
		blockStore:         blockStore,
		casperBuffer:       casperBuffer,
		deployPool:         deployPool,
		equivocationStore:  equivocationStore,

		estimator:       estimator,
		dagMerger:       dagMerger,
		blockProcessor:  blockProcessor,
		finalityTracker: finalityTracker,

		executionEngine: executionEngine,
	}

	err := c.admitGenesis()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// admitGenesis seeds the DAG with the network's genesis block. Genesis
// bypasses the pipeline: it is unsigned, parentless and finalized from the
// start.
func (c *consensus) admitGenesis() error {
	genesisBlock := c.params.GenesisBlock
	genesisHash := c.params.GenesisHash

	err := c.blockStore.Put(genesisHash, genesisBlock)
	if err != nil {
		return err
	}
	err = c.blockMetadataStore.Insert(
		externalapi.NewBlockMetadata(genesisHash, genesisBlock.Header, false))
	if err != nil {
		return err
	}
	return c.blockMetadataStore.MarkFinalized(genesisHash)
}
