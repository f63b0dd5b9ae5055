package multiset

import (
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
)

// Hash returns the DomainHash commitment of the given multiset.
func Hash(ms *muhash.MuHash) *externalapi.DomainHash {
	finalizedHash := ms.Finalize()
	return externalapi.NewDomainHashFromByteArray(finalizedHash.AsArray())
}

// New returns a new, empty multiset
func New() *muhash.MuHash {
	return muhash.NewMuHash()
}

// FromBytes deserializes the given bytes slice and returns the resulting multiset
func FromBytes(multisetBytes []byte) (*muhash.MuHash, error) {
	serialized := &muhash.SerializedMuHash{}
	if len(serialized) != len(multisetBytes) {
		return nil, errors.Errorf("multiset bytes expected to be in length of %d but got %d",
			len(serialized), len(multisetBytes))
	}
	copy(serialized[:], multisetBytes)
	return muhash.DeserializeMuHash(serialized)
}
