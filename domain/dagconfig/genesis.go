package dagconfig

import (
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/consensushashing"
	"github.com/casperdag/casperd/domain/consensus/utils/multiset"
)

func mustValidator(validatorHex string) externalapi.DomainValidator {
	hash, err := externalapi.NewDomainHashFromString(validatorHex)
	if err != nil {
		panic(err)
	}
	validator, ok := externalapi.NewDomainValidatorFromByteSlice(hash.ByteSlice())
	if !ok {
		panic("invalid genesis validator")
	}
	return validator
}

// genesisBonds is the stake distribution the network launches with.
var genesisBonds = []*externalapi.BondEntry{
	{Validator: mustValidator("1a4e2bbb1396a93b3fd86e9a2d7f0a2875c789ca4aac69466ee9ab52ac2dfc43"), Stake: 100},
	{Validator: mustValidator("57e7501710c336b4ca9a9fcc1e340f92f0e00b7c85c38f3f1db661cf05e7e0ca"), Stake: 100},
	{Validator: mustValidator("c386af24b1d843da4a2f2a7bd1b2f6fde93ab7b22a7761e5e8e232af2f2c9b2f"), Stake: 100},
}

// emptyStateHash commits to the state that contains no channel writes at all.
var emptyStateHash = *multiset.Hash(multiset.New())

// genesisBlock is the block the DAG starts from. It carries no deploys and
// is never signed; the factory admits it directly, bypassing the pipeline.
var genesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:            1,
		ShardID:            "root",
		Validator:          externalapi.DomainValidator{},
		SequenceNumber:     0,
		BlockNumber:        0,
		ParentHashes:       nil,
		Justifications:     nil,
		Bonds:              genesisBonds,
		PreStateHash:       emptyStateHash,
		PostStateHash:      emptyStateHash,
		TimeInMilliseconds: 0x17c30f71f00, // 2021-10-25 00:00:00 +0000 UTC
	},
	Deploys:           nil,
	RejectedDeployIDs: nil,
	Signature:         nil,
}

var genesisHash = consensushashing.BlockHash(&genesisBlock)

// BuildGenesisBlock builds a deterministic genesis block over the given
// stake distribution. Used by test networks that bond their own validators.
func BuildGenesisBlock(bonds []*externalapi.BondEntry) (*externalapi.DomainBlock, *externalapi.DomainHash) {
	block := genesisBlock
	header := *genesisBlock.Header
	header.Bonds = externalapi.CloneBonds(bonds)
	block.Header = &header
	return &block, consensushashing.BlockHash(&block)
}
