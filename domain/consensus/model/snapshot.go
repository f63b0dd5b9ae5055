package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// CasperSnapshot is a read-only, point-in-time bundle of everything block
// creation and validation need: the fringe the merge is based on, the ranked
// fork-choice tips, the bonds map, per-validator bookkeeping and the pooled
// deploys. A snapshot is recomputed per attempt and never mutated in place.
type CasperSnapshot struct {
	LastFinalizedBlock  *externalapi.DomainHash
	Fringe              []*externalapi.DomainHash
	FringePostStateHash *externalapi.DomainHash
	Tips                []*externalapi.DomainHash
	Bonds               []*externalapi.BondEntry
	LatestMessages      map[externalapi.DomainValidator]*externalapi.DomainHash
	MaxSequenceNumbers  map[externalapi.DomainValidator]uint64
	PooledDeploys       []*externalapi.DomainDeploy
}
