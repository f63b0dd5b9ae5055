package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// EquivocationStore keeps all equivocation records of the current session.
// Records are never deleted and their detection sets only grow.
type EquivocationStore interface {
	// Record returns the record for the given validator and sequence
	// number, if one exists.
	Record(equivocator externalapi.DomainValidator, baseSequenceNumber uint64) (
		*externalapi.EquivocationRecord, bool, error)

	// Insert creates a new record. Inserting a record that already exists
	// is an error; use AddDetection to grow an existing record.
	Insert(record *externalapi.EquivocationRecord) error

	// AddDetection adds another detected fork block to an existing record.
	AddDetection(equivocator externalapi.DomainValidator, baseSequenceNumber uint64,
		detectedBlockHash *externalapi.DomainHash) error

	// Records returns all records, for slashing collaborators to consume.
	Records() ([]*externalapi.EquivocationRecord, error)

	// IsKnownEquivocator returns whether any record exists for the given
	// validator.
	IsKnownEquivocator(validator externalapi.DomainValidator) (bool, error)
}
