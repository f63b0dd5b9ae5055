package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// MergeResult is the outcome of merging a set of parents into a single
// pre-state: the merged state hash and the deploys rejected due to
// conflicts, sorted by id.
type MergeResult struct {
	PreStateHash      *externalapi.DomainHash
	RejectedDeployIDs []*externalapi.DomainDeployID
}

// Clone returns a clone of MergeResult
func (mr *MergeResult) Clone() *MergeResult {
	return &MergeResult{
		PreStateHash:      mr.PreStateHash,
		RejectedDeployIDs: externalapi.CloneDeployIDs(mr.RejectedDeployIDs),
	}
}
