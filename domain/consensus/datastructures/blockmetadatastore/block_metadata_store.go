package blockmetadatastore

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/infrastructure/db/database"
)

// blockMetadataStore is an in-memory implementation of the DAG view: block
// metadata plus the children, latest-message and finalized-set indexes.
type blockMetadataStore struct {
	mutex sync.RWMutex

	metadata       map[externalapi.DomainHash]*externalapi.BlockMetadata
	children       map[externalapi.DomainHash][]*externalapi.DomainHash
	latestMessages map[externalapi.DomainValidator]*externalapi.DomainHash
	maxSequenceNum map[externalapi.DomainValidator]uint64
	finalizedSet   map[externalapi.DomainHash]struct{}
	lastFinalized  *externalapi.DomainHash
	lowestTracked  uint64
}

// New instantiates a new BlockMetadataStore
func New() model.BlockMetadataStore {
	return &blockMetadataStore{
		metadata:       make(map[externalapi.DomainHash]*externalapi.BlockMetadata),
		children:       make(map[externalapi.DomainHash][]*externalapi.DomainHash),
		latestMessages: make(map[externalapi.DomainValidator]*externalapi.DomainHash),
		maxSequenceNum: make(map[externalapi.DomainValidator]uint64),
		finalizedSet:   make(map[externalapi.DomainHash]struct{}),
	}
}

func (bms *blockMetadataStore) Insert(metadata *externalapi.BlockMetadata) error {
	bms.mutex.Lock()
	defer bms.mutex.Unlock()

	blockHash := metadata.BlockHash
	if _, ok := bms.metadata[*blockHash]; ok {
		return errors.Errorf("block %s was already inserted and may not be reassigned", blockHash)
	}
	bms.metadata[*blockHash] = metadata.Clone()

	for _, parentHash := range metadata.ParentHashes {
		bms.children[*parentHash] = append(bms.children[*parentHash], blockHash)
	}

	// Invalid blocks and the unsigned genesis never contribute to the
	// validator bookkeeping.
	zeroValidator := externalapi.DomainValidator{}
	if metadata.Invalid || metadata.Validator == zeroValidator {
		return nil
	}

	if metadata.SequenceNumber > bms.maxSequenceNum[metadata.Validator] {
		bms.maxSequenceNum[metadata.Validator] = metadata.SequenceNumber
	}

	// The latest message only moves forward. On an equivocation (same
	// sequence number seen twice) the first message stays latest; the
	// equivocation itself is recorded by the detector, not here.
	currentLatest, ok := bms.latestMessages[metadata.Validator]
	if !ok {
		bms.latestMessages[metadata.Validator] = blockHash
		return nil
	}
	currentMetadata := bms.metadata[*currentLatest]
	if metadata.SequenceNumber > currentMetadata.SequenceNumber {
		bms.latestMessages[metadata.Validator] = blockHash
	}
	return nil
}

func (bms *blockMetadataStore) Lookup(blockHash *externalapi.DomainHash) (*externalapi.BlockMetadata, error) {
	bms.mutex.RLock()
	defer bms.mutex.RUnlock()

	metadata, ok := bms.metadata[*blockHash]
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "block metadata for %s not found", blockHash)
	}
	return metadata.Clone(), nil
}

func (bms *blockMetadataStore) Exists(blockHash *externalapi.DomainHash) (bool, error) {
	bms.mutex.RLock()
	defer bms.mutex.RUnlock()

	_, ok := bms.metadata[*blockHash]
	return ok, nil
}

func (bms *blockMetadataStore) Children(blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {
	bms.mutex.RLock()
	defer bms.mutex.RUnlock()

	if _, ok := bms.metadata[*blockHash]; !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "block metadata for %s not found", blockHash)
	}
	return externalapi.CloneHashes(bms.children[*blockHash]), nil
}

func (bms *blockMetadataStore) Tips() ([]*externalapi.DomainHash, error) {
	bms.mutex.RLock()
	defer bms.mutex.RUnlock()

	tips := make([]*externalapi.DomainHash, 0)
	for hash, metadata := range bms.metadata {
		hash := hash
		if metadata.Invalid {
			continue
		}
		if len(bms.children[hash]) == 0 {
			tips = append(tips, &hash)
		}
	}
	sortHashes(tips)
	return tips, nil
}

func (bms *blockMetadataStore) LatestMessages() (map[externalapi.DomainValidator]*externalapi.DomainHash, error) {
	bms.mutex.RLock()
	defer bms.mutex.RUnlock()

	latestMessages := make(map[externalapi.DomainValidator]*externalapi.DomainHash, len(bms.latestMessages))
	for validator, hash := range bms.latestMessages {
		latestMessages[validator] = hash
	}
	return latestMessages, nil
}

func (bms *blockMetadataStore) MaxSequenceNumbers() (map[externalapi.DomainValidator]uint64, error) {
	bms.mutex.RLock()
	defer bms.mutex.RUnlock()

	maxSequenceNumbers := make(map[externalapi.DomainValidator]uint64, len(bms.maxSequenceNum))
	for validator, sequenceNumber := range bms.maxSequenceNum {
		maxSequenceNumbers[validator] = sequenceNumber
	}
	return maxSequenceNumbers, nil
}

func (bms *blockMetadataStore) IsInPast(ancestor, descendant *externalapi.DomainHash) (bool, error) {
	bms.mutex.RLock()
	defer bms.mutex.RUnlock()

	ancestorMetadata, ok := bms.metadata[*ancestor]
	if !ok {
		return false, errors.Wrapf(database.ErrNotFound, "block metadata for %s not found", ancestor)
	}
	if _, ok := bms.metadata[*descendant]; !ok {
		return false, errors.Wrapf(database.ErrNotFound, "block metadata for %s not found", descendant)
	}

	// BFS over parent references, pruned by block number: an ancestor
	// always has a lower-or-equal block number than its descendants.
	visited := map[externalapi.DomainHash]struct{}{*descendant: {}}
	worklist := []*externalapi.DomainHash{descendant}
	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]
		if current.Equal(ancestor) {
			return true, nil
		}
		currentMetadata := bms.metadata[*current]
		if currentMetadata.BlockNumber <= ancestorMetadata.BlockNumber {
			continue
		}
		for _, parentHash := range currentMetadata.ParentHashes {
			if _, ok := visited[*parentHash]; ok {
				continue
			}
			if _, ok := bms.metadata[*parentHash]; !ok {
				continue
			}
			visited[*parentHash] = struct{}{}
			worklist = append(worklist, parentHash)
		}
	}
	return false, nil
}

func (bms *blockMetadataStore) IsFinalized(blockHash *externalapi.DomainHash) (bool, error) {
	bms.mutex.RLock()
	defer bms.mutex.RUnlock()

	_, ok := bms.finalizedSet[*blockHash]
	return ok, nil
}

func (bms *blockMetadataStore) MarkFinalized(blockHash *externalapi.DomainHash) error {
	bms.mutex.Lock()
	defer bms.mutex.Unlock()

	metadata, ok := bms.metadata[*blockHash]
	if !ok {
		return errors.Wrapf(database.ErrNotFound, "block metadata for %s not found", blockHash)
	}
	bms.finalizedSet[*blockHash] = struct{}{}
	bms.lastFinalized = blockHash
	if metadata.BlockNumber > bms.lowestTracked {
		bms.lowestTracked = metadata.BlockNumber
	}
	return nil
}

func (bms *blockMetadataStore) LastFinalizedBlock() (*externalapi.DomainHash, error) {
	bms.mutex.RLock()
	defer bms.mutex.RUnlock()

	if bms.lastFinalized == nil {
		return nil, errors.Wrap(database.ErrNotFound, "no block was finalized yet")
	}
	return bms.lastFinalized, nil
}

func (bms *blockMetadataStore) LowestTrackedBlockNumber() (uint64, error) {
	bms.mutex.RLock()
	defer bms.mutex.RUnlock()

	return bms.lowestTracked, nil
}

func (bms *blockMetadataStore) Count() (uint64, error) {
	bms.mutex.RLock()
	defer bms.mutex.RUnlock()

	return uint64(len(bms.metadata)), nil
}

func sortHashes(hashes []*externalapi.DomainHash) {
	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i].Less(hashes[j])
	})
}
