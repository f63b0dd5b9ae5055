package externalapi

// BlockMetadata is the DAG-resident digest of an admitted block. It is
// immutable after insertion, except for the Invalid flag which the DAG store
// allows to be set exactly once.
type BlockMetadata struct {
	BlockHash      *DomainHash
	Validator      DomainValidator
	SequenceNumber uint64
	BlockNumber    uint64
	ParentHashes   []*DomainHash
	Justifications []*Justification
	Bonds          []*BondEntry
	Invalid        bool
}

// NewBlockMetadata builds the metadata of a block that was admitted with the
// given hash.
func NewBlockMetadata(blockHash *DomainHash, header *DomainBlockHeader, invalid bool) *BlockMetadata {
	return &BlockMetadata{
		BlockHash:      blockHash,
		Validator:      header.Validator,
		SequenceNumber: header.SequenceNumber,
		BlockNumber:    header.BlockNumber,
		ParentHashes:   CloneHashes(header.ParentHashes),
		Justifications: CloneJustifications(header.Justifications),
		Bonds:          CloneBonds(header.Bonds),
		Invalid:        invalid,
	}
}

// Clone returns a clone of BlockMetadata
func (bm *BlockMetadata) Clone() *BlockMetadata {
	return &BlockMetadata{
		BlockHash:      bm.BlockHash,
		Validator:      bm.Validator,
		SequenceNumber: bm.SequenceNumber,
		BlockNumber:    bm.BlockNumber,
		ParentHashes:   CloneHashes(bm.ParentHashes),
		Justifications: CloneJustifications(bm.Justifications),
		Bonds:          CloneBonds(bm.Bonds),
		Invalid:        bm.Invalid,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = BlockMetadata{&DomainHash{}, DomainValidator{}, 0, 0, []*DomainHash{},
	[]*Justification{}, []*BondEntry{}, false}

// Equal returns whether bm equals to other
func (bm *BlockMetadata) Equal(other *BlockMetadata) bool {
	if bm == nil || other == nil {
		return bm == other
	}
	return bm.BlockHash.Equal(other.BlockHash) &&
		bm.Validator == other.Validator &&
		bm.SequenceNumber == other.SequenceNumber &&
		bm.BlockNumber == other.BlockNumber &&
		HashesEqual(bm.ParentHashes, other.ParentHashes) &&
		JustificationsEqual(bm.Justifications, other.Justifications) &&
		BondsEqual(bm.Bonds, other.Bonds) &&
		bm.Invalid == other.Invalid
}

// JustificationFor returns the hash this metadata cites for the given
// validator, or nil if it cites none.
func (bm *BlockMetadata) JustificationFor(validator DomainValidator) *DomainHash {
	for _, justification := range bm.Justifications {
		if justification.Validator == validator {
			return justification.BlockHash
		}
	}
	return nil
}

// StakeOf returns the stake this metadata's bonds map assigns to the given
// validator, or 0 if the validator is unbonded.
func (bm *BlockMetadata) StakeOf(validator DomainValidator) uint64 {
	for _, bond := range bm.Bonds {
		if bond.Validator == validator {
			return bond.Stake
		}
	}
	return 0
}

// TotalStake returns the sum of all bonded stakes in this metadata's bonds map.
func (bm *BlockMetadata) TotalStake() uint64 {
	total := uint64(0)
	for _, bond := range bm.Bonds {
		total += bond.Stake
	}
	return total
}
