package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// TipScore is a tip together with its fork-choice score.
type TipScore struct {
	BlockHash *externalapi.DomainHash
	Score     uint64
}

// Estimator ranks the current DAG tips to choose merge parents for a new
// block (LMD-GHOST style).
type Estimator interface {
	// RankTips scores the current tips against the validators' latest
	// messages and returns them sorted by descending score, ties broken by
	// hash.
	RankTips() ([]*TipScore, error)

	// ChooseParents returns the maximal-score prefix of the ranked tips
	// whose members are pairwise non-conflicting. The result is never
	// empty: the last finalized block backstops an empty tip set.
	ChooseParents() ([]*externalapi.DomainHash, error)
}
