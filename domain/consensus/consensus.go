package consensus

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/ruleerrors"
	"github.com/casperdag/casperd/domain/consensus/utils/signatures"
	"github.com/casperdag/casperd/domain/dagconfig"
	"github.com/casperdag/casperd/infrastructure/db/database"
)

// ErrProposeBusy is returned by ProposeBlock while a previous proposal is
// still in flight. Proposals are never queued.
var ErrProposeBusy = errors.New("a block proposal is already in flight")

// Consensus is the facade of the consensus core: block admission, block
// proposal, deploy intake and read-only queries over the DAG.
type Consensus interface {
	// ValidateAndInsertBlock runs the given block through the admission
	// pipeline under the admission lock.
	ValidateAndInsertBlock(block *externalapi.DomainBlock) error

	// ProposeBlock asynchronously builds, signs and admits a new block on
	// behalf of the given key pair. It returns ErrProposeBusy while a
	// previous proposal is in flight.
	ProposeBlock(keyPair *secp256k1.SchnorrKeyPair) (*ProposeFuture, error)

	// AddDeploy verifies the deploy's signature and adds it to the pool.
	AddDeploy(deploy *externalapi.DomainDeploy) error

	// GetSnapshot returns a point-in-time bundle of the consensus state.
	GetSnapshot() (*model.CasperSnapshot, error)

	// BlockStatus reports how far the given block made it through the
	// pipeline.
	BlockStatus(blockHash *externalapi.DomainHash) (externalapi.BlockStatus, error)

	// GetBlock returns the stored block body for the given hash.
	GetBlock(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error)

	// FaultTolerance returns the given block's normalized fault-tolerance
	// estimate.
	FaultTolerance(blockHash *externalapi.DomainHash) (float64, error)

	// EquivocationRecords returns all equivocations recorded this session.
	EquivocationRecords() ([]*externalapi.EquivocationRecord, error)
}

type consensus struct {
	// lock is the admission lock: only one block may be inside the
	// pipeline at a time.
	lock sync.Mutex

	params *dagconfig.Params

	blockMetadataStore model.BlockMetadataStore
	blockStore         model.BlockStore
	casperBuffer       model.CasperBuffer
	deployPool         model.DeployPool
	equivocationStore  model.EquivocationStore

	estimator       model.Estimator
	dagMerger       model.DagMerger
	blockProcessor  model.BlockProcessor
	finalityTracker model.FinalityTracker

	executionEngine model.ExecutionEngine

	proposeInFlight atomic.Bool
}

func (c *consensus) ValidateAndInsertBlock(block *externalapi.DomainBlock) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.blockProcessor.ValidateAndInsertBlock(block)
}

func (c *consensus) AddDeploy(deploy *externalapi.DomainDeploy) error {
	valid, err := signatures.VerifyDeploySignature(deploy)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrInvalidDeploySignature,
			"the deploy signature cannot be parsed: %s", err)
	}
	if !valid {
		return errors.Wrap(ruleerrors.ErrInvalidDeploySignature,
			"the deploy signature does not verify")
	}
	if deploy.Lifespan == 0 {
		return errors.Errorf("deploy lifespan must be positive")
	}
	return c.deployPool.Insert(deploy)
}

func (c *consensus) GetSnapshot() (*model.CasperSnapshot, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.buildSnapshot()
}

func (c *consensus) BlockStatus(blockHash *externalapi.DomainHash) (externalapi.BlockStatus, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	exists, err := c.blockMetadataStore.Exists(blockHash)
	if err != nil {
		return 0, err
	}
	if exists {
		metadata, err := c.blockMetadataStore.Lookup(blockHash)
		if err != nil {
			return 0, err
		}
		if metadata.Invalid {
			return externalapi.StatusInvalid, nil
		}
		return externalapi.StatusValid, nil
	}
	if c.casperBuffer.Contains(blockHash) {
		return externalapi.StatusPending, nil
	}
	// A stored body without DAG metadata is a block that failed the format
	// check and was kept for audit.
	stored, err := c.blockStore.Has(blockHash)
	if err != nil {
		return 0, err
	}
	if stored {
		return externalapi.StatusMalformed, nil
	}
	return 0, errors.Wrapf(database.ErrNotFound, "block %s is not known", blockHash)
}

func (c *consensus) GetBlock(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	return c.blockStore.Get(blockHash)
}

func (c *consensus) FaultTolerance(blockHash *externalapi.DomainHash) (float64, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.finalityTracker.FaultTolerance(blockHash)
}

func (c *consensus) EquivocationRecords() ([]*externalapi.EquivocationRecord, error) {
	return c.equivocationStore.Records()
}

// buildSnapshot assembles the current consensus state. Must be called with
// the admission lock held.
func (c *consensus) buildSnapshot() (*model.CasperSnapshot, error) {
	lastFinalizedBlock, err := c.blockMetadataStore.LastFinalizedBlock()
	if err != nil {
		return nil, err
	}
	lastFinalizedBody, err := c.blockStore.Get(lastFinalizedBlock)
	if err != nil {
		return nil, err
	}
	lastFinalizedMetadata, err := c.blockMetadataStore.Lookup(lastFinalizedBlock)
	if err != nil {
		return nil, err
	}
	tips, err := c.blockMetadataStore.Tips()
	if err != nil {
		return nil, err
	}
	latestMessages, err := c.blockMetadataStore.LatestMessages()
	if err != nil {
		return nil, err
	}
	maxSequenceNumbers, err := c.blockMetadataStore.MaxSequenceNumbers()
	if err != nil {
		return nil, err
	}

	fringePostStateHash := lastFinalizedBody.Header.PostStateHash
	return &model.CasperSnapshot{
		LastFinalizedBlock:  lastFinalizedBlock,
		Fringe:              []*externalapi.DomainHash{lastFinalizedBlock},
		FringePostStateHash: &fringePostStateHash,
		Tips:                tips,
		Bonds:               lastFinalizedMetadata.Bonds,
		LatestMessages:      latestMessages,
		MaxSequenceNumbers:  maxSequenceNumbers,
		PooledDeploys:       c.deployPool.PooledDeploys(),
	}, nil
}

func sortHashes(hashes []*externalapi.DomainHash) {
	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i].Less(hashes[j])
	})
}
