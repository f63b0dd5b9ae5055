package externalapi

import "encoding/hex"

// DomainValidatorSize is the size of a serialized validator public key.
const DomainValidatorSize = 32

// DomainValidator is the serialized public key a validator signs
// blocks with. It doubles as the validator's identity everywhere in
// the consensus domain.
type DomainValidator [DomainValidatorSize]byte

// String stringifies a validator.
func (v DomainValidator) String() string {
	return hex.EncodeToString(v[:])
}

// Less returns true if v is less than other in the canonical validator order.
func (v DomainValidator) Less(other DomainValidator) bool {
	for i := 0; i < DomainValidatorSize; i++ {
		if v[i] != other[i] {
			return v[i] < other[i]
		}
	}
	return false
}

// NewDomainValidatorFromByteSlice constructs a DomainValidator out of a byte
// slice. The slice must be exactly DomainValidatorSize bytes long.
func NewDomainValidatorFromByteSlice(validatorBytes []byte) (DomainValidator, bool) {
	var validator DomainValidator
	if len(validatorBytes) != DomainValidatorSize {
		return validator, false
	}
	copy(validator[:], validatorBytes)
	return validator, true
}
