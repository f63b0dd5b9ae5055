package finalitytracker

import (
	"math"
	"testing"

	"github.com/casperdag/casperd/domain/consensus/datastructures/blockmetadatastore"
	"github.com/casperdag/casperd/domain/consensus/datastructures/blockstore"
	"github.com/casperdag/casperd/domain/consensus/datastructures/deploypool"
	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/consensushashing"
	"github.com/casperdag/casperd/domain/dagconfig"
	"github.com/casperdag/casperd/infrastructure/db/database/ldb"
)

type trackerFixture struct {
	params        dagconfig.Params
	tracker       model.FinalityTracker
	metadataStore model.BlockMetadataStore
	blockStore    model.BlockStore
	deployPool    model.DeployPool

	bonds       []*externalapi.BondEntry
	genesisHash *externalapi.DomainHash
}

func setupTrackerFixture(t *testing.T) (fixture *trackerFixture, teardown func()) {
	databaseContext, err := ldb.NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("opening the test database unexpectedly failed: %+v", err)
	}
	teardown = func() {
		err := databaseContext.Close()
		if err != nil {
			t.Fatalf("closing the test database unexpectedly failed: %+v", err)
		}
	}

	fixture = &trackerFixture{
		params:        dagconfig.SimnetParams,
		metadataStore: blockmetadatastore.New(),
		blockStore:    blockstore.New(databaseContext),
		deployPool:    deploypool.New(),
		bonds: []*externalapi.BondEntry{
			{Validator: externalapi.DomainValidator{0x01}, Stake: 100},
			{Validator: externalapi.DomainValidator{0x02}, Stake: 100},
			{Validator: externalapi.DomainValidator{0x03}, Stake: 100},
		},
	}
	fixture.tracker = New(&fixture.params, fixture.metadataStore,
		fixture.blockStore, fixture.deployPool)

	genesisBlock := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version: 1,
			ShardID: "root",
			Bonds:   fixture.bonds,
		},
	}
	fixture.genesisHash = consensushashing.BlockHash(genesisBlock)
	fixture.insertBlock(t, fixture.genesisHash, genesisBlock)
	err = fixture.metadataStore.MarkFinalized(fixture.genesisHash)
	if err != nil {
		t.Fatalf("finalizing genesis unexpectedly failed: %+v", err)
	}
	return fixture, teardown
}

func (tf *trackerFixture) insertBlock(t *testing.T, blockHash *externalapi.DomainHash,
	block *externalapi.DomainBlock) {

	err := tf.blockStore.Put(blockHash, block)
	if err != nil {
		t.Fatalf("storing block %s unexpectedly failed: %+v", blockHash, err)
	}
	err = tf.metadataStore.Insert(externalapi.NewBlockMetadata(blockHash, block.Header, false))
	if err != nil {
		t.Fatalf("inserting metadata for block %s unexpectedly failed: %+v", blockHash, err)
	}
}

func (tf *trackerFixture) addBlock(t *testing.T, validatorByte byte, sequenceNumber,
	blockNumber uint64, parent *externalapi.DomainHash,
	deploys []*externalapi.ProcessedDeploy) *externalapi.DomainHash {

	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:        1,
			ShardID:        "root",
			Validator:      externalapi.DomainValidator{validatorByte},
			SequenceNumber: sequenceNumber,
			BlockNumber:    blockNumber,
			ParentHashes:   []*externalapi.DomainHash{parent},
			Bonds:          tf.bonds,
		},
		Deploys: deploys,
	}
	blockHash := consensushashing.BlockHash(block)
	tf.insertBlock(t, blockHash, block)
	return blockHash
}

func checkFloat(t *testing.T, testName string, got, expected float64) {
	if math.Abs(got-expected) > 1e-9 {
		t.Fatalf("%s: expected a fault tolerance of %f, got %f", testName, expected, got)
	}
}

func TestFaultTolerance(t *testing.T) {
	fixture, teardown := setupTrackerFixture(t)
	defer teardown()

	blockA := fixture.addBlock(t, 0x01, 0, 1, fixture.genesisHash, nil)

	// Only its own creator supports the block: 100 of 300 bonded stake.
	estimate, err := fixture.tracker.FaultTolerance(blockA)
	if err != nil {
		t.Fatalf("TestFaultTolerance: FaultTolerance unexpectedly failed: %+v", err)
	}
	checkFloat(t, "TestFaultTolerance", estimate, 2.0/3.0-1)

	// A second validator building on top lifts the agreement to 200 of 300.
	fixture.addBlock(t, 0x02, 0, 2, blockA, nil)
	estimate, err = fixture.tracker.FaultTolerance(blockA)
	if err != nil {
		t.Fatalf("TestFaultTolerance: FaultTolerance unexpectedly failed: %+v", err)
	}
	checkFloat(t, "TestFaultTolerance", estimate, 4.0/3.0-1)
}

func TestFaultToleranceWithoutBonds(t *testing.T) {
	fixture, teardown := setupTrackerFixture(t)
	defer teardown()

	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:      1,
			ShardID:      "root",
			Validator:    externalapi.DomainValidator{0x01},
			BlockNumber:  1,
			ParentHashes: []*externalapi.DomainHash{fixture.genesisHash},
		},
	}
	blockHash := consensushashing.BlockHash(block)
	fixture.insertBlock(t, blockHash, block)

	_, err := fixture.tracker.FaultTolerance(blockHash)
	if err == nil {
		t.Fatalf("TestFaultToleranceWithoutBonds: expected an empty bonds map to fail")
	}
}

func TestAdvanceFinality(t *testing.T) {
	fixture, teardown := setupTrackerFixture(t)
	defer teardown()

	carriedDeploy := &externalapi.DomainDeploy{
		Deployer:              []byte{0x01},
		Term:                  []byte("!account"),
		ValidAfterBlockNumber: 0,
		Lifespan:              50,
		Signature:             []byte{0x11},
	}
	expiringDeploy := &externalapi.DomainDeploy{
		Deployer:              []byte{0x01},
		Term:                  []byte("!other"),
		ValidAfterBlockNumber: 0,
		Lifespan:              1,
		Signature:             []byte{0x22},
	}
	pooledDeploy := &externalapi.DomainDeploy{
		Deployer:              []byte{0x01},
		Term:                  []byte("!third"),
		ValidAfterBlockNumber: 0,
		Lifespan:              50,
		Signature:             []byte{0x33},
	}
	for _, deploy := range []*externalapi.DomainDeploy{carriedDeploy, expiringDeploy, pooledDeploy} {
		err := fixture.deployPool.Insert(deploy)
		if err != nil {
			t.Fatalf("TestAdvanceFinality: Insert unexpectedly failed: %+v", err)
		}
	}

	blockA := fixture.addBlock(t, 0x01, 0, 1, fixture.genesisHash,
		[]*externalapi.ProcessedDeploy{{
			Deploy: carriedDeploy,
			ID:     *consensushashing.DeployID(carriedDeploy),
			Cost:   20,
		}})

	// With a lone supporter the estimate stays below the threshold.
	finalized, err := fixture.tracker.AdvanceFinality()
	if err != nil {
		t.Fatalf("TestAdvanceFinality: AdvanceFinality unexpectedly failed: %+v", err)
	}
	if len(finalized) != 0 {
		t.Fatalf("TestAdvanceFinality: an unsupported block was finalized: %v", finalized)
	}

	fixture.addBlock(t, 0x02, 0, 2, blockA, nil)
	finalized, err = fixture.tracker.AdvanceFinality()
	if err != nil {
		t.Fatalf("TestAdvanceFinality: AdvanceFinality unexpectedly failed: %+v", err)
	}
	if len(finalized) != 1 || !finalized[0].Equal(blockA) {
		t.Fatalf("TestAdvanceFinality: expected exactly %s to finalize, got %v",
			blockA, finalized)
	}

	lastFinalized, err := fixture.metadataStore.LastFinalizedBlock()
	if err != nil {
		t.Fatalf("TestAdvanceFinality: LastFinalizedBlock unexpectedly failed: %+v", err)
	}
	if !lastFinalized.Equal(blockA) {
		t.Fatalf("TestAdvanceFinality: the finalized marker did not advance to %s", blockA)
	}

	// Finalization prunes the block's own deploys and the expired ones; the
	// unrelated live deploy stays pooled.
	remaining := fixture.deployPool.PooledDeploys()
	if len(remaining) != 1 || !remaining[0].Equal(pooledDeploy) {
		t.Fatalf("TestAdvanceFinality: expected only the live pooled deploy to remain, "+
			"got %d deploys", len(remaining))
	}

	// The marker is monotone: re-running without new support changes nothing.
	finalized, err = fixture.tracker.AdvanceFinality()
	if err != nil {
		t.Fatalf("TestAdvanceFinality: AdvanceFinality unexpectedly failed: %+v", err)
	}
	if len(finalized) != 0 {
		t.Fatalf("TestAdvanceFinality: finality advanced without new support: %v", finalized)
	}
}

func TestAdvanceFinalitySkipsInvalidChildren(t *testing.T) {
	fixture, teardown := setupTrackerFixture(t)
	defer teardown()

	blockA := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:      1,
			ShardID:      "root",
			Validator:    externalapi.DomainValidator{0x01},
			BlockNumber:  1,
			ParentHashes: []*externalapi.DomainHash{fixture.genesisHash},
			Bonds:        fixture.bonds,
		},
	}
	hashA := consensushashing.BlockHash(blockA)
	err := fixture.blockStore.Put(hashA, blockA)
	if err != nil {
		t.Fatalf("TestAdvanceFinalitySkipsInvalidChildren: Put unexpectedly failed: %+v", err)
	}
	err = fixture.metadataStore.Insert(externalapi.NewBlockMetadata(hashA, blockA.Header, true))
	if err != nil {
		t.Fatalf("TestAdvanceFinalitySkipsInvalidChildren: Insert unexpectedly failed: %+v", err)
	}
	fixture.addBlock(t, 0x02, 0, 2, hashA, nil)

	finalized, err := fixture.tracker.AdvanceFinality()
	if err != nil {
		t.Fatalf("TestAdvanceFinalitySkipsInvalidChildren: AdvanceFinality unexpectedly "+
			"failed: %+v", err)
	}
	if len(finalized) != 0 {
		t.Fatalf("TestAdvanceFinalitySkipsInvalidChildren: an invalid block was "+
			"finalized: %v", finalized)
	}
}
