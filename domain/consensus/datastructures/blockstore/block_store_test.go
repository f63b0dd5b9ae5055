package blockstore

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/infrastructure/db/database"
	"github.com/casperdag/casperd/infrastructure/db/database/ldb"
)

func setupBlockStore(t *testing.T) (store *blockStore, teardown func()) {
	databaseContext, err := ldb.NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("opening the test database unexpectedly failed: %+v", err)
	}
	return New(databaseContext).(*blockStore), func() {
		err := databaseContext.Close()
		if err != nil {
			t.Fatalf("closing the test database unexpectedly failed: %+v", err)
		}
	}
}

func testBlock() *externalapi.DomainBlock {
	parentHash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0x01})
	justifiedHash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0x02})
	rejectedID := externalapi.NewDomainDeployIDFromHash(
		externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0x03}))
	deploy := &externalapi.DomainDeploy{
		Deployer:              []byte{0x04, 0x05},
		Term:                  []byte("!channel ?other"),
		ValidAfterBlockNumber: 7,
		Lifespan:              50,
		Signature:             []byte{0x06, 0x07, 0x08},
	}

	return &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:        1,
			ShardID:        "root",
			Validator:      externalapi.DomainValidator{0x09},
			SequenceNumber: 3,
			BlockNumber:    8,
			ParentHashes:   []*externalapi.DomainHash{parentHash},
			Justifications: []*externalapi.Justification{
				{Validator: externalapi.DomainValidator{0x0a}, BlockHash: justifiedHash},
			},
			Bonds: []*externalapi.BondEntry{
				{Validator: externalapi.DomainValidator{0x09}, Stake: 100},
				{Validator: externalapi.DomainValidator{0x0a}, Stake: 200},
			},
			PreStateHash:       *externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0x0b}),
			PostStateHash:      *externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0x0c}),
			TimeInMilliseconds: 1635120000000,
		},
		Deploys: []*externalapi.ProcessedDeploy{
			{
				Deploy:  deploy,
				ID:      *externalapi.NewDomainDeployIDFromHash(externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0x0d})),
				Cost:    30,
				Errored: true,
			},
			{
				Deploy:         deploy.Clone(),
				ID:             *externalapi.NewDomainDeployIDFromHash(externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0x0e})),
				Cost:           20,
				IsSystemDeploy: true,
			},
		},
		RejectedDeployIDs: []*externalapi.DomainDeployID{rejectedID},
		Signature:         []byte{0x0f, 0x10},
	}
}

func TestBlockStoreRoundTrip(t *testing.T) {
	store, teardown := setupBlockStore(t)
	defer teardown()

	block := testBlock()
	blockHash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0xaa})

	err := store.Put(blockHash, block)
	if err != nil {
		t.Fatalf("TestBlockStoreRoundTrip: Put unexpectedly failed: %+v", err)
	}

	got, err := store.Get(blockHash)
	if err != nil {
		t.Fatalf("TestBlockStoreRoundTrip: Get unexpectedly failed: %+v", err)
	}
	if !got.Equal(block) {
		t.Fatalf("TestBlockStoreRoundTrip: the retrieved block differs from the stored "+
			"one: %s", spew.Sdump(got))
	}

	// The store must serve the block from disk too, not only from the cache.
	store.cache = make(map[externalapi.DomainHash]*externalapi.DomainBlock)
	got, err = store.Get(blockHash)
	if err != nil {
		t.Fatalf("TestBlockStoreRoundTrip: Get after a cache flush failed: %+v", err)
	}
	if !got.Equal(block) {
		t.Fatalf("TestBlockStoreRoundTrip: the deserialized block differs from the stored "+
			"one: %s", spew.Sdump(got))
	}

	// Mutating what Get returned must not affect later reads.
	got.Header.BlockNumber = 999
	got.Signature[0] = 0xff
	again, err := store.Get(blockHash)
	if err != nil {
		t.Fatalf("TestBlockStoreRoundTrip: Get unexpectedly failed: %+v", err)
	}
	if !again.Equal(block) {
		t.Fatalf("TestBlockStoreRoundTrip: mutating a returned block leaked into the store")
	}
}

func TestBlockStoreHasAndMissing(t *testing.T) {
	store, teardown := setupBlockStore(t)
	defer teardown()

	blockHash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0xbb})
	has, err := store.Has(blockHash)
	if err != nil {
		t.Fatalf("TestBlockStoreHasAndMissing: Has unexpectedly failed: %+v", err)
	}
	if has {
		t.Fatalf("TestBlockStoreHasAndMissing: an empty store claims to have a block")
	}

	_, err = store.Get(blockHash)
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("TestBlockStoreHasAndMissing: expected ErrNotFound, got %+v", err)
	}

	err = store.Put(blockHash, testBlock())
	if err != nil {
		t.Fatalf("TestBlockStoreHasAndMissing: Put unexpectedly failed: %+v", err)
	}
	has, err = store.Has(blockHash)
	if err != nil {
		t.Fatalf("TestBlockStoreHasAndMissing: Has unexpectedly failed: %+v", err)
	}
	if !has {
		t.Fatalf("TestBlockStoreHasAndMissing: the store misses a block it was given")
	}
}
