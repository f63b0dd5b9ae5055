package externalapi

// DeployChain is the minimal all-or-nothing unit the merger operates on: the
// set of deploys within one block whose pre/post-state channel fingerprints
// depend on each other. A chain is accepted or rejected as a whole.
//
// DeployIDs, ReadChannels and WriteChannels are kept sorted so that two
// chains computed from the same block compare equal byte-for-byte.
type DeployChain struct {
	DeployIDs     []*DomainDeployID
	ReadChannels  []*DomainHash
	WriteChannels []*DomainHash
	TotalCost     uint64
}

// ID returns the chain's stable identity: its lexicographically smallest
// deploy id. Chains are non-empty by construction.
func (dc *DeployChain) ID() *DomainDeployID {
	return dc.DeployIDs[0]
}

// Clone returns a clone of DeployChain
func (dc *DeployChain) Clone() *DeployChain {
	return &DeployChain{
		DeployIDs:     CloneDeployIDs(dc.DeployIDs),
		ReadChannels:  CloneHashes(dc.ReadChannels),
		WriteChannels: CloneHashes(dc.WriteChannels),
		TotalCost:     dc.TotalCost,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DeployChain{[]*DomainDeployID{}, []*DomainHash{}, []*DomainHash{}, 0}

// Equal returns whether dc equals to other
func (dc *DeployChain) Equal(other *DeployChain) bool {
	if dc == nil || other == nil {
		return dc == other
	}
	return DeployIDsEqual(dc.DeployIDs, other.DeployIDs) &&
		HashesEqual(dc.ReadChannels, other.ReadChannels) &&
		HashesEqual(dc.WriteChannels, other.WriteChannels) &&
		dc.TotalCost == other.TotalCost
}
