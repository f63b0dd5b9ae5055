package estimator

import (
	"sort"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/dagconfig"
)

// estimator implements the LMD-GHOST style fork choice: tips are scored by
// the latest messages that support them and the best pairwise-mergeable
// prefix becomes the next block's parent set.
type estimator struct {
	params             *dagconfig.Params
	blockMetadataStore model.BlockMetadataStore
	dagMerger          model.DagMerger
}

// New instantiates a new Estimator
func New(params *dagconfig.Params, blockMetadataStore model.BlockMetadataStore,
	dagMerger model.DagMerger) model.Estimator {

	return &estimator{
		params:             params,
		blockMetadataStore: blockMetadataStore,
		dagMerger:          dagMerger,
	}
}

func (e *estimator) RankTips() ([]*model.TipScore, error) {
	tips, err := e.blockMetadataStore.Tips()
	if err != nil {
		return nil, err
	}
	latestMessages, err := e.blockMetadataStore.LatestMessages()
	if err != nil {
		return nil, err
	}
	weights := latestMessageWeights(latestMessages)

	tipScores := make([]*model.TipScore, 0, len(tips))
	for _, tip := range tips {
		score := uint64(0)
		for validator, latestMessage := range latestMessages {
			supports, err := e.blockMetadataStore.IsInPast(tip, latestMessage)
			if err != nil {
				return nil, err
			}
			if supports {
				score += weights[validator]
			}
		}
		tipScores = append(tipScores, &model.TipScore{BlockHash: tip, Score: score})
	}

	sort.Slice(tipScores, func(i, j int) bool {
		if tipScores[i].Score != tipScores[j].Score {
			return tipScores[i].Score > tipScores[j].Score
		}
		return tipScores[i].BlockHash.Less(tipScores[j].BlockHash)
	})
	return tipScores, nil
}

func (e *estimator) ChooseParents() ([]*externalapi.DomainHash, error) {
	lastFinalizedBlock, err := e.blockMetadataStore.LastFinalizedBlock()
	if err != nil {
		return nil, err
	}
	tipScores, err := e.RankTips()
	if err != nil {
		return nil, err
	}
	fringe := []*externalapi.DomainHash{lastFinalizedBlock}

	parents := make([]*externalapi.DomainHash, 0, len(tipScores))
	for _, tipScore := range tipScores {
		if len(parents) >= e.params.MaxBlockParents {
			break
		}
		candidates := append(append([]*externalapi.DomainHash{}, parents...), tipScore.BlockHash)
		compatible, err := e.dagMerger.CheckParentsCompatible(fringe, candidates)
		if err != nil {
			return nil, err
		}
		// Parents are a prefix of the ranked tips: the first conflicting
		// tip ends the selection so that lower-scored tips can never
		// displace a higher-scored one.
		if !compatible {
			break
		}
		parents = candidates
	}

	if len(parents) == 0 {
		return []*externalapi.DomainHash{lastFinalizedBlock}, nil
	}
	return parents, nil
}

// latestMessageWeights assigns every voting validator a fixed-point weight of
// 2^-rank, where rank orders validators by id. The weights are scaled by 2^62
// so they stay exact in a uint64; ranks beyond 62 degrade to the minimal
// weight, which only matters for absurdly large validator sets.
func latestMessageWeights(
	latestMessages map[externalapi.DomainValidator]*externalapi.DomainHash) map[externalapi.DomainValidator]uint64 {

	validators := make([]externalapi.DomainValidator, 0, len(latestMessages))
	for validator := range latestMessages {
		validators = append(validators, validator)
	}
	sort.Slice(validators, func(i, j int) bool {
		return validators[i].Less(validators[j])
	})

	weights := make(map[externalapi.DomainValidator]uint64, len(validators))
	for rank, validator := range validators {
		shift := 62 - rank
		if shift < 0 {
			weights[validator] = 1
			continue
		}
		weights[validator] = uint64(1) << uint(shift)
	}
	return weights
}
