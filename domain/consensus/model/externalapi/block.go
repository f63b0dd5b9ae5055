package externalapi

import "bytes"

// DomainBlock represents a block signed by a validator
type DomainBlock struct {
	Header            *DomainBlockHeader
	Deploys           []*ProcessedDeploy
	RejectedDeployIDs []*DomainDeployID
	Signature         []byte
}

// Clone returns a clone of DomainBlock
func (block *DomainBlock) Clone() *DomainBlock {
	signatureClone := make([]byte, len(block.Signature))
	copy(signatureClone, block.Signature)

	return &DomainBlock{
		Header:            block.Header.Clone(),
		Deploys:           CloneProcessedDeploys(block.Deploys),
		RejectedDeployIDs: CloneDeployIDs(block.RejectedDeployIDs),
		Signature:         signatureClone,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DomainBlock{&DomainBlockHeader{}, []*ProcessedDeploy{}, []*DomainDeployID{}, []byte{}}

// Equal returns whether block equals to other
func (block *DomainBlock) Equal(other *DomainBlock) bool {
	if block == nil || other == nil {
		return block == other
	}

	if len(block.Deploys) != len(other.Deploys) {
		return false
	}
	for i, deploy := range block.Deploys {
		if !deploy.Equal(other.Deploys[i]) {
			return false
		}
	}

	return block.Header.Equal(other.Header) &&
		DeployIDsEqual(block.RejectedDeployIDs, other.RejectedDeployIDs) &&
		bytes.Equal(block.Signature, other.Signature)
}

// DomainBlockHeader represents the header part of a block. The block hash
// covers the header and the block body, but not the signature.
type DomainBlockHeader struct {
	Version            uint16
	ShardID            string
	Validator          DomainValidator
	SequenceNumber     uint64
	BlockNumber        uint64
	ParentHashes       []*DomainHash
	Justifications     []*Justification
	Bonds              []*BondEntry
	PreStateHash       DomainHash
	PostStateHash      DomainHash
	TimeInMilliseconds int64
}

// Clone returns a clone of DomainBlockHeader
func (header *DomainBlockHeader) Clone() *DomainBlockHeader {
	return &DomainBlockHeader{
		Version:            header.Version,
		ShardID:            header.ShardID,
		Validator:          header.Validator,
		SequenceNumber:     header.SequenceNumber,
		BlockNumber:        header.BlockNumber,
		ParentHashes:       CloneHashes(header.ParentHashes),
		Justifications:     CloneJustifications(header.Justifications),
		Bonds:              CloneBonds(header.Bonds),
		PreStateHash:       header.PreStateHash,
		PostStateHash:      header.PostStateHash,
		TimeInMilliseconds: header.TimeInMilliseconds,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DomainBlockHeader{0, "", DomainValidator{}, 0, 0, []*DomainHash{},
	[]*Justification{}, []*BondEntry{}, DomainHash{}, DomainHash{}, 0}

// Equal returns whether header equals to other
func (header *DomainBlockHeader) Equal(other *DomainBlockHeader) bool {
	if header == nil || other == nil {
		return header == other
	}

	return header.Version == other.Version &&
		header.ShardID == other.ShardID &&
		header.Validator == other.Validator &&
		header.SequenceNumber == other.SequenceNumber &&
		header.BlockNumber == other.BlockNumber &&
		HashesEqual(header.ParentHashes, other.ParentHashes) &&
		JustificationsEqual(header.Justifications, other.Justifications) &&
		BondsEqual(header.Bonds, other.Bonds) &&
		header.PreStateHash.Equal(&other.PreStateHash) &&
		header.PostStateHash.Equal(&other.PostStateHash) &&
		header.TimeInMilliseconds == other.TimeInMilliseconds
}

// Justification cites the latest block of another validator that the block
// creator has seen. Justifications in a header are sorted by validator.
type Justification struct {
	Validator DomainValidator
	BlockHash *DomainHash
}

// Clone returns a clone of Justification
func (j *Justification) Clone() *Justification {
	return &Justification{
		Validator: j.Validator,
		BlockHash: j.BlockHash,
	}
}

// Equal returns whether j equals to other
func (j *Justification) Equal(other *Justification) bool {
	if j == nil || other == nil {
		return j == other
	}
	return j.Validator == other.Validator && j.BlockHash.Equal(other.BlockHash)
}

// CloneJustifications returns a clone of the given justifications slice
func CloneJustifications(justifications []*Justification) []*Justification {
	clone := make([]*Justification, len(justifications))
	for i, justification := range justifications {
		clone[i] = justification.Clone()
	}
	return clone
}

// JustificationsEqual returns whether the given justification slices are equal.
func JustificationsEqual(a, b []*Justification) bool {
	if len(a) != len(b) {
		return false
	}
	for i, justification := range a {
		if !justification.Equal(b[i]) {
			return false
		}
	}
	return true
}

// BondEntry binds a single validator to its stake. Bonds in a header are
// sorted by validator.
type BondEntry struct {
	Validator DomainValidator
	Stake     uint64
}

// Clone returns a clone of BondEntry
func (be *BondEntry) Clone() *BondEntry {
	return &BondEntry{
		Validator: be.Validator,
		Stake:     be.Stake,
	}
}

// Equal returns whether be equals to other
func (be *BondEntry) Equal(other *BondEntry) bool {
	if be == nil || other == nil {
		return be == other
	}
	return be.Validator == other.Validator && be.Stake == other.Stake
}

// CloneBonds returns a clone of the given bonds slice
func CloneBonds(bonds []*BondEntry) []*BondEntry {
	clone := make([]*BondEntry, len(bonds))
	for i, bond := range bonds {
		clone[i] = bond.Clone()
	}
	return clone
}

// BondsEqual returns whether the given bond slices are equal.
func BondsEqual(a, b []*BondEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i, bond := range a {
		if !bond.Equal(b[i]) {
			return false
		}
	}
	return true
}
