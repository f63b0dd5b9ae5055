package externalapi

import (
	"bytes"
	"encoding/hex"
)

// DomainDeployID is the unique, signature-derived id of a deploy
type DomainDeployID DomainHash

// String stringifies a deploy ID.
func (id DomainDeployID) String() string {
	return hex.EncodeToString(id.hashArray[:])
}

// Equal returns whether id equals to other
func (id *DomainDeployID) Equal(other *DomainDeployID) bool {
	return (*DomainHash)(id).Equal((*DomainHash)(other))
}

// Less returns true if id is less than other
func (id *DomainDeployID) Less(other *DomainDeployID) bool {
	return (*DomainHash)(id).Less((*DomainHash)(other))
}

// NewDomainDeployIDFromHash converts a DomainHash to a DomainDeployID
func NewDomainDeployIDFromHash(hash *DomainHash) *DomainDeployID {
	id := DomainDeployID(*hash)
	return &id
}

// CloneDeployIDs returns a clone of the given deploy id slice
func CloneDeployIDs(ids []*DomainDeployID) []*DomainDeployID {
	clone := make([]*DomainDeployID, len(ids))
	copy(clone, ids)
	return clone
}

// DeployIDsEqual returns whether the given deploy id slices are equal.
func DeployIDsEqual(a, b []*DomainDeployID) bool {
	if len(a) != len(b) {
		return false
	}
	for i, id := range a {
		if !id.Equal(b[i]) {
			return false
		}
	}
	return true
}

// DomainDeploy is a user-submitted state transition. A deploy is only
// executable while currentBlockNumber is inside the window
// [ValidAfterBlockNumber, ValidAfterBlockNumber+Lifespan).
type DomainDeploy struct {
	Deployer              []byte
	Term                  []byte
	ValidAfterBlockNumber uint64
	Lifespan              uint64
	Signature             []byte
}

// Clone returns a clone of DomainDeploy
func (dd *DomainDeploy) Clone() *DomainDeploy {
	deployerClone := make([]byte, len(dd.Deployer))
	copy(deployerClone, dd.Deployer)
	termClone := make([]byte, len(dd.Term))
	copy(termClone, dd.Term)
	signatureClone := make([]byte, len(dd.Signature))
	copy(signatureClone, dd.Signature)

	return &DomainDeploy{
		Deployer:              deployerClone,
		Term:                  termClone,
		ValidAfterBlockNumber: dd.ValidAfterBlockNumber,
		Lifespan:              dd.Lifespan,
		Signature:             signatureClone,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DomainDeploy{[]byte{}, []byte{}, 0, 0, []byte{}}

// Equal returns whether dd equals to other
func (dd *DomainDeploy) Equal(other *DomainDeploy) bool {
	if dd == nil || other == nil {
		return dd == other
	}
	return bytes.Equal(dd.Deployer, other.Deployer) &&
		bytes.Equal(dd.Term, other.Term) &&
		dd.ValidAfterBlockNumber == other.ValidAfterBlockNumber &&
		dd.Lifespan == other.Lifespan &&
		bytes.Equal(dd.Signature, other.Signature)
}

// IsWithinValidityWindow returns whether the deploy may be executed at the
// given block number.
func (dd *DomainDeploy) IsWithinValidityWindow(blockNumber uint64) bool {
	return blockNumber >= dd.ValidAfterBlockNumber &&
		blockNumber < dd.ValidAfterBlockNumber+dd.Lifespan
}

// ProcessedDeploy is a deploy together with its execution outcome inside a
// particular block.
type ProcessedDeploy struct {
	Deploy         *DomainDeploy
	ID             DomainDeployID
	Cost           uint64
	Errored        bool
	IsSystemDeploy bool
}

// Clone returns a clone of ProcessedDeploy
func (pd *ProcessedDeploy) Clone() *ProcessedDeploy {
	return &ProcessedDeploy{
		Deploy:         pd.Deploy.Clone(),
		ID:             pd.ID,
		Cost:           pd.Cost,
		Errored:        pd.Errored,
		IsSystemDeploy: pd.IsSystemDeploy,
	}
}

// Equal returns whether pd equals to other
func (pd *ProcessedDeploy) Equal(other *ProcessedDeploy) bool {
	if pd == nil || other == nil {
		return pd == other
	}
	return pd.Deploy.Equal(other.Deploy) &&
		pd.ID.Equal(&other.ID) &&
		pd.Cost == other.Cost &&
		pd.Errored == other.Errored &&
		pd.IsSystemDeploy == other.IsSystemDeploy
}

// CloneProcessedDeploys returns a clone of the given processed deploys slice
func CloneProcessedDeploys(deploys []*ProcessedDeploy) []*ProcessedDeploy {
	clone := make([]*ProcessedDeploy, len(deploys))
	for i, deploy := range deploys {
		clone[i] = deploy.Clone()
	}
	return clone
}
