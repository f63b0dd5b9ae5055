package equivocationstore

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
)

type recordKey struct {
	equivocator        externalapi.DomainValidator
	baseSequenceNumber uint64
}

// equivocationStore keeps this session's equivocation records. Records are
// never deleted and their detection sets only grow.
type equivocationStore struct {
	mutex sync.RWMutex

	records map[recordKey]*externalapi.EquivocationRecord
}

// New instantiates a new EquivocationStore
func New() model.EquivocationStore {
	return &equivocationStore{
		records: make(map[recordKey]*externalapi.EquivocationRecord),
	}
}

func (es *equivocationStore) Record(equivocator externalapi.DomainValidator, baseSequenceNumber uint64) (
	*externalapi.EquivocationRecord, bool, error) {

	es.mutex.RLock()
	defer es.mutex.RUnlock()

	record, ok := es.records[recordKey{equivocator, baseSequenceNumber}]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (es *equivocationStore) Insert(record *externalapi.EquivocationRecord) error {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	key := recordKey{record.Equivocator, record.BaseSequenceNumber}
	if _, ok := es.records[key]; ok {
		return errors.Errorf("equivocation record for %s at sequence number %d already exists",
			record.Equivocator, record.BaseSequenceNumber)
	}
	es.records[key] = record.Clone()
	return nil
}

func (es *equivocationStore) AddDetection(equivocator externalapi.DomainValidator, baseSequenceNumber uint64,
	detectedBlockHash *externalapi.DomainHash) error {

	es.mutex.Lock()
	defer es.mutex.Unlock()

	record, ok := es.records[recordKey{equivocator, baseSequenceNumber}]
	if !ok {
		return errors.Errorf("no equivocation record for %s at sequence number %d",
			equivocator, baseSequenceNumber)
	}
	for _, existing := range record.DetectedBlockHashes {
		if existing.Equal(detectedBlockHash) {
			return nil
		}
	}
	record.DetectedBlockHashes = append(record.DetectedBlockHashes, detectedBlockHash)
	return nil
}

func (es *equivocationStore) Records() ([]*externalapi.EquivocationRecord, error) {
	es.mutex.RLock()
	defer es.mutex.RUnlock()

	records := make([]*externalapi.EquivocationRecord, 0, len(es.records))
	for _, record := range es.records {
		records = append(records, record.Clone())
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Equivocator != records[j].Equivocator {
			return records[i].Equivocator.Less(records[j].Equivocator)
		}
		return records[i].BaseSequenceNumber < records[j].BaseSequenceNumber
	})
	return records, nil
}

func (es *equivocationStore) IsKnownEquivocator(validator externalapi.DomainValidator) (bool, error) {
	es.mutex.RLock()
	defer es.mutex.RUnlock()

	for key := range es.records {
		if key.equivocator == validator {
			return true, nil
		}
	}
	return false, nil
}
