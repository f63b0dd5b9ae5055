package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// BlockContext carries the block-level facts an execution engine needs to
// evaluate deploys.
type BlockContext struct {
	BlockNumber        uint64
	TimeInMilliseconds int64
	Validator          externalapi.DomainValidator
	ShardID            string
}

// DeployResult is the outcome of executing a single deploy.
type DeployResult struct {
	ID      externalapi.DomainDeployID
	Cost    uint64
	Errored bool
}

// ExecutionEngine is the collaborator that evaluates deploys. The consensus
// core never interprets deploy terms itself; it only compares the engine's
// outputs against blocks' claims.
type ExecutionEngine interface {
	// ApplyDeploys executes the given deploys on top of preStateHash and
	// returns the resulting post-state hash along with per-deploy results.
	ApplyDeploys(preStateHash *externalapi.DomainHash, deploys []*externalapi.DomainDeploy,
		systemDeploys []*externalapi.DomainDeploy, context *BlockContext) (
		*externalapi.DomainHash, []*DeployResult, error)

	// Replay re-executes a block's deploys on top of preStateHash and
	// compares the outcome to the block's claims. A mismatch is returned
	// as a ReplayMismatchError carrying the mismatch category; any other
	// error is an engine failure.
	Replay(preStateHash *externalapi.DomainHash, deploys []*externalapi.ProcessedDeploy,
		context *BlockContext, expectedPostStateHash *externalapi.DomainHash) error

	// ComputeDeployChains partitions a block's deploys into deploy chains.
	// The result depends only on the block, so callers cache it by block
	// hash.
	ComputeDeployChains(block *externalapi.DomainBlock) ([]*externalapi.DeployChain, error)

	// Conflicts reports whether the two chains read/write overlapping
	// mergeable channels and therefore cannot both be applied. The
	// predicate is pure and symmetric.
	Conflicts(chainA, chainB *externalapi.DeployChain) bool

	// ApplyDeployChains applies already-executed chains on top of
	// baseStateHash, producing the merged state hash. Failure to apply an
	// accepted chain signals an unsound conflict predicate and is fatal.
	ApplyDeployChains(baseStateHash *externalapi.DomainHash,
		chains []*externalapi.DeployChain) (*externalapi.DomainHash, error)
}
