package externalapi

// EquivocationRecord records that a validator produced two or more distinct
// blocks at the same sequence number. DetectedBlockHashes holds the
// conflicting fork blocks themselves; the record is never deleted and the set
// only grows as more forks at the same sequence number are detected.
type EquivocationRecord struct {
	Equivocator         DomainValidator
	BaseSequenceNumber  uint64
	DetectedBlockHashes []*DomainHash
}

// Clone returns a clone of EquivocationRecord
func (er *EquivocationRecord) Clone() *EquivocationRecord {
	return &EquivocationRecord{
		Equivocator:         er.Equivocator,
		BaseSequenceNumber:  er.BaseSequenceNumber,
		DetectedBlockHashes: CloneHashes(er.DetectedBlockHashes),
	}
}

// Equal returns whether er equals to other
func (er *EquivocationRecord) Equal(other *EquivocationRecord) bool {
	if er == nil || other == nil {
		return er == other
	}
	return er.Equivocator == other.Equivocator &&
		er.BaseSequenceNumber == other.BaseSequenceNumber &&
		HashesEqual(er.DetectedBlockHashes, other.DetectedBlockHashes)
}
