package dagconfig

import (
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
)

// Params defines a casperd network by its consensus parameters.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Version is the block version this network produces and accepts.
	Version uint16

	// ShardID names the shard this network validates.
	ShardID string

	// FaultToleranceThreshold is the normalized fault tolerance a block's
	// child must exceed for the finalized marker to advance to it.
	FaultToleranceThreshold float64

	// MaxBlockParents is the maximum amount of parents a proposed block
	// may merge.
	MaxBlockParents int

	// DeployLifespan is the default amount of blocks a deploy stays
	// executable after its validAfterBlockNumber.
	DeployLifespan uint64

	// ReplayRetryBound is the amount of times a transient replay mismatch
	// is retried before it is treated as a consistency failure.
	ReplayRetryBound int

	// GenesisBonds is the bonded validator set the network starts with.
	GenesisBonds []*externalapi.BondEntry

	// GenesisBlock is the deterministic first block of this network.
	GenesisBlock *externalapi.DomainBlock

	// GenesisHash is the hash of GenesisBlock.
	GenesisHash *externalapi.DomainHash
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:                    "casper-mainnet",
	Version:                 1,
	ShardID:                 "root",
	FaultToleranceThreshold: 0.1,
	MaxBlockParents:         10,
	DeployLifespan:          50,
	ReplayRetryBound:        3,

	GenesisBonds: genesisBonds,
	GenesisBlock: &genesisBlock,
	GenesisHash:  genesisHash,
}

// SimnetParams defines the network parameters for the simulation test
// network, which runs against the in-process execution simulator.
var SimnetParams = Params{
	Name:                    "casper-simnet",
	Version:                 1,
	ShardID:                 "root",
	FaultToleranceThreshold: 0.0,
	MaxBlockParents:         10,
	DeployLifespan:          50,
	ReplayRetryBound:        3,

	GenesisBonds: genesisBonds,
	GenesisBlock: &genesisBlock,
	GenesisHash:  genesisHash,
}
