package equivocationdetector

import (
	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/ruleerrors"
)

// equivocationDetector guards the one-block-per-sequence-number rule. A
// second block by the same validator at an already-used sequence number is
// recorded as an equivocation; the block itself is still admitted so that the
// evidence stays in the DAG for later penalization. What is rejected outright
// is neglect: a block whose justifications prove its creator saw both sides
// of a fork, without carrying both sides in its own past.
type equivocationDetector struct {
	blockMetadataStore model.BlockMetadataStore
	equivocationStore  model.EquivocationStore
}

// New instantiates a new EquivocationDetector
func New(blockMetadataStore model.BlockMetadataStore,
	equivocationStore model.EquivocationStore) model.EquivocationDetector {

	return &equivocationDetector{
		blockMetadataStore: blockMetadataStore,
		equivocationStore:  equivocationStore,
	}
}

func (ed *equivocationDetector) CheckBlock(blockHash *externalapi.DomainHash,
	header *externalapi.DomainBlockHeader) error {

	err := ed.checkNeglect(blockHash, header)
	if err != nil {
		return err
	}
	return ed.detectEquivocation(blockHash, header)
}

func (ed *equivocationDetector) RecordEquivocation(blockHash *externalapi.DomainHash,
	header *externalapi.DomainBlockHeader) error {

	return ed.detectEquivocation(blockHash, header)
}

// detectEquivocation records blockHash as an equivocating fork if its creator
// already produced a different block at the same sequence number.
func (ed *equivocationDetector) detectEquivocation(blockHash *externalapi.DomainHash,
	header *externalapi.DomainBlockHeader) error {

	equivocator := header.Validator
	sequenceNumber := header.SequenceNumber

	_, exists, err := ed.equivocationStore.Record(equivocator, sequenceNumber)
	if err != nil {
		return err
	}
	if exists {
		log.Warnf("Validator %s equivocated again at sequence number %d with block %s",
			equivocator, sequenceNumber, blockHash)
		return ed.equivocationStore.AddDetection(equivocator, sequenceNumber, blockHash)
	}

	existingBlockHash, found, err := ed.blockAtSequence(equivocator, sequenceNumber)
	if err != nil {
		return err
	}
	if !found || existingBlockHash.Equal(blockHash) {
		return nil
	}

	log.Warnf("Validator %s equivocated at sequence number %d: %s conflicts with %s",
		equivocator, sequenceNumber, blockHash, existingBlockHash)
	return ed.equivocationStore.Insert(&externalapi.EquivocationRecord{
		Equivocator:         equivocator,
		BaseSequenceNumber:  sequenceNumber,
		DetectedBlockHashes: []*externalapi.DomainHash{existingBlockHash, blockHash},
	})
}

// blockAtSequence finds the validator's admitted block at the given sequence
// number by walking its self-justification chain down from its latest
// message.
func (ed *equivocationDetector) blockAtSequence(validator externalapi.DomainValidator,
	sequenceNumber uint64) (*externalapi.DomainHash, bool, error) {

	latestMessages, err := ed.blockMetadataStore.LatestMessages()
	if err != nil {
		return nil, false, err
	}
	current, ok := latestMessages[validator]
	if !ok {
		return nil, false, nil
	}

	for {
		metadata, err := ed.blockMetadataStore.Lookup(current)
		if err != nil {
			return nil, false, err
		}
		if metadata.SequenceNumber == sequenceNumber {
			return current, true, nil
		}
		if metadata.SequenceNumber < sequenceNumber {
			return nil, false, nil
		}
		current = metadata.JustificationFor(validator)
		if current == nil {
			return nil, false, nil
		}
	}
}

// checkNeglect rejects a block that can see two conflicting forks of a
// recorded equivocation through its justifications yet carries fewer than all
// the visible forks in its parents' past.
func (ed *equivocationDetector) checkNeglect(blockHash *externalapi.DomainHash,
	header *externalapi.DomainBlockHeader) error {

	records, err := ed.equivocationStore.Records()
	if err != nil {
		return err
	}

	for _, record := range records {
		// The fork block currently being admitted cannot cite itself.
		if record.Equivocator == header.Validator &&
			record.BaseSequenceNumber == header.SequenceNumber {
			continue
		}

		visibleForks := make([]*externalapi.DomainHash, 0, len(record.DetectedBlockHashes))
		for _, forkHash := range record.DetectedBlockHashes {
			visible, err := ed.isVisibleFrom(forkHash, viewRoots(header))
			if err != nil {
				return err
			}
			if visible {
				visibleForks = append(visibleForks, forkHash)
			}
		}
		if len(visibleForks) < 2 {
			continue
		}

		for _, forkHash := range visibleForks {
			included, err := ed.isVisibleFrom(forkHash, header.ParentHashes)
			if err != nil {
				return err
			}
			if !included {
				return errors.Wrapf(ruleerrors.ErrNeglectedEquivocation,
					"block %s sees the equivocation of %s at sequence number %d "+
						"but does not include fork %s in its parents' past",
					blockHash, record.Equivocator, record.BaseSequenceNumber, forkHash)
			}
		}
	}
	return nil
}

func (ed *equivocationDetector) isVisibleFrom(target *externalapi.DomainHash,
	roots []*externalapi.DomainHash) (bool, error) {

	for _, root := range roots {
		exists, err := ed.blockMetadataStore.Exists(root)
		if err != nil {
			return false, err
		}
		if !exists {
			continue
		}
		isInPast, err := ed.blockMetadataStore.IsInPast(target, root)
		if err != nil {
			return false, err
		}
		if isInPast {
			return true, nil
		}
	}
	return false, nil
}

// viewRoots is everything a block claims to have seen: its parents plus its
// justifications.
func viewRoots(header *externalapi.DomainBlockHeader) []*externalapi.DomainHash {
	roots := make([]*externalapi.DomainHash, 0, len(header.ParentHashes)+len(header.Justifications))
	roots = append(roots, header.ParentHashes...)
	for _, justification := range header.Justifications {
		roots = append(roots, justification.BlockHash)
	}
	return roots
}
