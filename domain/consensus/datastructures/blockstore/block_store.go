package blockstore

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/infrastructure/db/database"
)

var bucket = database.MakeBucket([]byte("blocks"))

// blockStore is a content-addressed block store backed by a key/value
// database, with a small read-through cache for the hot path.
type blockStore struct {
	mutex sync.Mutex

	databaseContext database.Database
	cache           map[externalapi.DomainHash]*externalapi.DomainBlock
}

const cacheSize = 1000

// New instantiates a new BlockStore over the given database
func New(databaseContext database.Database) model.BlockStore {
	return &blockStore{
		databaseContext: databaseContext,
		cache:           make(map[externalapi.DomainHash]*externalapi.DomainBlock),
	}
}

func (bs *blockStore) Put(blockHash *externalapi.DomainHash, block *externalapi.DomainBlock) error {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	err := bs.databaseContext.Put(bucket.Key(blockHash.ByteSlice()), serializeBlock(block))
	if err != nil {
		return err
	}
	bs.cacheBlock(blockHash, block)
	return nil
}

func (bs *blockStore) Get(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	if block, ok := bs.cache[*blockHash]; ok {
		return block.Clone(), nil
	}

	data, err := bs.databaseContext.Get(bucket.Key(blockHash.ByteSlice()))
	if err != nil {
		return nil, err
	}
	block, err := deserializeBlock(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed deserializing block %s", blockHash)
	}
	bs.cacheBlock(blockHash, block)
	return block.Clone(), nil
}

func (bs *blockStore) Has(blockHash *externalapi.DomainHash) (bool, error) {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	if _, ok := bs.cache[*blockHash]; ok {
		return true, nil
	}
	return bs.databaseContext.Has(bucket.Key(blockHash.ByteSlice()))
}

func (bs *blockStore) cacheBlock(blockHash *externalapi.DomainHash, block *externalapi.DomainBlock) {
	// Blocks are immutable, so a crude clear-all eviction is safe.
	if len(bs.cache) >= cacheSize {
		bs.cache = make(map[externalapi.DomainHash]*externalapi.DomainBlock)
	}
	bs.cache[*blockHash] = block.Clone()
}
