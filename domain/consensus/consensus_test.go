package consensus

import (
	"math"
	"sort"
	"testing"

	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/executionsimulator"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/ruleerrors"
	"github.com/casperdag/casperd/domain/consensus/utils/consensushashing"
	"github.com/casperdag/casperd/domain/consensus/utils/signatures"
	"github.com/casperdag/casperd/domain/dagconfig"
	"github.com/casperdag/casperd/infrastructure/db/database"
	"github.com/casperdag/casperd/infrastructure/db/database/ldb"
	"github.com/casperdag/casperd/infrastructure/network"
)

// setupTestNetwork bonds three freshly generated validators so that tests can
// actually sign blocks on their behalf, which the hardcoded network bonds do
// not allow. The key pairs are returned in bond order.
func setupTestNetwork(t *testing.T) (params dagconfig.Params, keyPairs []*secp256k1.SchnorrKeyPair) {
	keyPairs = make([]*secp256k1.SchnorrKeyPair, 3)
	for i := range keyPairs {
		keyPair, err := secp256k1.GenerateSchnorrKeyPair()
		if err != nil {
			t.Fatalf("generating a key pair unexpectedly failed: %+v", err)
		}
		keyPairs[i] = keyPair
	}
	sort.Slice(keyPairs, func(i, j int) bool {
		return validatorOf(t, keyPairs[i]).Less(validatorOf(t, keyPairs[j]))
	})

	bonds := make([]*externalapi.BondEntry, len(keyPairs))
	for i, keyPair := range keyPairs {
		bonds[i] = &externalapi.BondEntry{Validator: validatorOf(t, keyPair), Stake: 100}
	}
	params = dagconfig.SimnetParams
	params.GenesisBonds = bonds
	params.GenesisBlock, params.GenesisHash = dagconfig.BuildGenesisBlock(bonds)
	return params, keyPairs
}

func validatorOf(t *testing.T, keyPair *secp256k1.SchnorrKeyPair) externalapi.DomainValidator {
	validator, err := signatures.Validator(keyPair)
	if err != nil {
		t.Fatalf("deriving a validator identity unexpectedly failed: %+v", err)
	}
	return validator
}

func newTestConsensus(t *testing.T, params *dagconfig.Params) (tc Consensus, teardown func()) {
	databaseContext, err := ldb.NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("opening the test database unexpectedly failed: %+v", err)
	}
	teardown = func() {
		err := databaseContext.Close()
		if err != nil {
			t.Fatalf("closing the test database unexpectedly failed: %+v", err)
		}
	}

	tc, err = NewFactory().NewConsensus(params, databaseContext,
		executionsimulator.New(), network.NewLoopback())
	if err != nil {
		t.Fatalf("creating a consensus unexpectedly failed: %+v", err)
	}
	return tc, teardown
}

func signedDeploy(t *testing.T, params *dagconfig.Params, keyPair *secp256k1.SchnorrKeyPair,
	term string) *externalapi.DomainDeploy {

	deploy := &externalapi.DomainDeploy{
		Term:                  []byte(term),
		ValidAfterBlockNumber: 0,
		Lifespan:              params.DeployLifespan,
	}
	err := signatures.SignDeploy(deploy, keyPair)
	if err != nil {
		t.Fatalf("signing a deploy unexpectedly failed: %+v", err)
	}
	return deploy
}

func proposeBlock(t *testing.T, tc Consensus, keyPair *secp256k1.SchnorrKeyPair) (
	*externalapi.DomainBlock, *externalapi.DomainHash) {

	future, err := tc.ProposeBlock(keyPair)
	if err != nil {
		t.Fatalf("starting a block proposal unexpectedly failed: %+v", err)
	}
	block, err := future.Wait()
	if err != nil {
		t.Fatalf("a block proposal unexpectedly failed: %+v", err)
	}
	return block, consensushashing.BlockHash(block)
}

// craftBlock hand-builds and signs a block with the given claims, bypassing
// the proposal path. Parents and justifications must already be in canonical
// order.
func craftBlock(t *testing.T, params *dagconfig.Params, keyPair *secp256k1.SchnorrKeyPair,
	parentHashes []*externalapi.DomainHash, justifications []*externalapi.Justification,
	sequenceNumber, blockNumber uint64,
	preStateHash, postStateHash *externalapi.DomainHash) *externalapi.DomainBlock {

	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:            params.Version,
			ShardID:            params.ShardID,
			SequenceNumber:     sequenceNumber,
			BlockNumber:        blockNumber,
			ParentHashes:       parentHashes,
			Justifications:     justifications,
			Bonds:              externalapi.CloneBonds(params.GenesisBonds),
			PreStateHash:       *preStateHash,
			PostStateHash:      *postStateHash,
			TimeInMilliseconds: 1,
		},
	}
	err := signatures.SignBlock(block, keyPair)
	if err != nil {
		t.Fatalf("signing a crafted block unexpectedly failed: %+v", err)
	}
	return block
}

func checkStatus(t *testing.T, testName string, tc Consensus,
	blockHash *externalapi.DomainHash, expected externalapi.BlockStatus) {

	status, err := tc.BlockStatus(blockHash)
	if err != nil {
		t.Fatalf("%s: BlockStatus unexpectedly failed: %+v", testName, err)
	}
	if status != expected {
		t.Fatalf("%s: expected block %s to have status %s, got %s",
			testName, blockHash, expected, status)
	}
}

func checkEstimate(t *testing.T, testName string, got, expected float64) {
	if math.Abs(got-expected) > 1e-9 {
		t.Fatalf("%s: expected a fault tolerance of %f, got %f", testName, expected, got)
	}
}

func TestProposeAndFinalize(t *testing.T) {
	params, keyPairs := setupTestNetwork(t)
	tc, teardown := newTestConsensus(t, &params)
	defer teardown()

	deploy := signedDeploy(t, &params, keyPairs[0], "!account")
	err := tc.AddDeploy(deploy)
	if err != nil {
		t.Fatalf("TestProposeAndFinalize: AddDeploy unexpectedly failed: %+v", err)
	}

	blockA, hashA := proposeBlock(t, tc, keyPairs[0])
	if len(blockA.Header.ParentHashes) != 1 ||
		!blockA.Header.ParentHashes[0].Equal(params.GenesisHash) {
		t.Fatalf("TestProposeAndFinalize: expected the proposal to build on genesis, got %v",
			blockA.Header.ParentHashes)
	}
	if blockA.Header.BlockNumber != 1 {
		t.Fatalf("TestProposeAndFinalize: expected block number 1, got %d",
			blockA.Header.BlockNumber)
	}
	if len(blockA.Deploys) != 1 {
		t.Fatalf("TestProposeAndFinalize: expected the proposal to carry the pooled deploy, "+
			"got %d deploys", len(blockA.Deploys))
	}
	deployID := consensushashing.DeployID(deploy)
	if !deployID.Equal(&blockA.Deploys[0].ID) {
		t.Fatalf("TestProposeAndFinalize: the proposal carries the wrong deploy")
	}
	checkStatus(t, "TestProposeAndFinalize", tc, hashA, externalapi.StatusValid)

	// A single supporter holds 100 of the 300 bonded stake.
	estimate, err := tc.FaultTolerance(hashA)
	if err != nil {
		t.Fatalf("TestProposeAndFinalize: FaultTolerance unexpectedly failed: %+v", err)
	}
	checkEstimate(t, "TestProposeAndFinalize", estimate, 2.0/3.0-1)

	// A second validator's block on top pushes the estimate over the simnet
	// threshold and finalizes the first block.
	_, hashB := proposeBlock(t, tc, keyPairs[1])
	estimate, err = tc.FaultTolerance(hashA)
	if err != nil {
		t.Fatalf("TestProposeAndFinalize: FaultTolerance unexpectedly failed: %+v", err)
	}
	checkEstimate(t, "TestProposeAndFinalize", estimate, 4.0/3.0-1)

	snapshot, err := tc.GetSnapshot()
	if err != nil {
		t.Fatalf("TestProposeAndFinalize: GetSnapshot unexpectedly failed: %+v", err)
	}
	if !snapshot.LastFinalizedBlock.Equal(hashA) {
		t.Fatalf("TestProposeAndFinalize: expected %s to be finalized, the marker points at %s",
			hashA, snapshot.LastFinalizedBlock)
	}
	if len(snapshot.Tips) != 1 || !snapshot.Tips[0].Equal(hashB) {
		t.Fatalf("TestProposeAndFinalize: expected the single tip %s, got %v",
			hashB, snapshot.Tips)
	}
	if len(snapshot.PooledDeploys) != 0 {
		t.Fatalf("TestProposeAndFinalize: expected finalization to prune the pool, "+
			"%d deploys remain", len(snapshot.PooledDeploys))
	}
}

func TestDuplicateAndUnknownBlocks(t *testing.T) {
	params, keyPairs := setupTestNetwork(t)
	tc, teardown := newTestConsensus(t, &params)
	defer teardown()

	blockA, _ := proposeBlock(t, tc, keyPairs[0])
	err := tc.ValidateAndInsertBlock(blockA)
	if !errors.Is(err, ruleerrors.ErrDuplicateBlock) {
		t.Fatalf("TestDuplicateAndUnknownBlocks: expected ErrDuplicateBlock, got %+v", err)
	}

	unknown := externalapi.NewDomainHashFromByteArray(
		&[externalapi.DomainHashSize]byte{0x99})
	_, err = tc.BlockStatus(unknown)
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("TestDuplicateAndUnknownBlocks: expected ErrNotFound for an unknown "+
			"block, got %+v", err)
	}
}

func TestOutOfOrderDelivery(t *testing.T) {
	params, keyPairs := setupTestNetwork(t)
	node1, teardown1 := newTestConsensus(t, &params)
	defer teardown1()

	err := node1.AddDeploy(signedDeploy(t, &params, keyPairs[0], "!account"))
	if err != nil {
		t.Fatalf("TestOutOfOrderDelivery: AddDeploy unexpectedly failed: %+v", err)
	}
	blockA, hashA := proposeBlock(t, node1, keyPairs[0])
	blockB, hashB := proposeBlock(t, node1, keyPairs[1])

	// A second node receives the child before its parent: the child must be
	// buffered, not rejected, and decided once the parent arrives.
	node2, teardown2 := newTestConsensus(t, &params)
	defer teardown2()

	err = node2.ValidateAndInsertBlock(blockB)
	if err != nil {
		t.Fatalf("TestOutOfOrderDelivery: submitting the child first unexpectedly "+
			"failed: %+v", err)
	}
	checkStatus(t, "TestOutOfOrderDelivery", node2, hashB, externalapi.StatusPending)

	err = node2.ValidateAndInsertBlock(blockA)
	if err != nil {
		t.Fatalf("TestOutOfOrderDelivery: submitting the parent unexpectedly failed: %+v", err)
	}
	checkStatus(t, "TestOutOfOrderDelivery", node2, hashA, externalapi.StatusValid)
	checkStatus(t, "TestOutOfOrderDelivery", node2, hashB, externalapi.StatusValid)

	snapshot, err := node2.GetSnapshot()
	if err != nil {
		t.Fatalf("TestOutOfOrderDelivery: GetSnapshot unexpectedly failed: %+v", err)
	}
	if !snapshot.LastFinalizedBlock.Equal(hashA) {
		t.Fatalf("TestOutOfOrderDelivery: expected the second node to finalize %s, "+
			"the marker points at %s", hashA, snapshot.LastFinalizedBlock)
	}
}

func TestEquivocationAcrossNodes(t *testing.T) {
	params, keyPairs := setupTestNetwork(t)
	equivocator := validatorOf(t, keyPairs[0])

	// The first validator produces two sequence-0 blocks by proposing on two
	// nodes that never see each other. Only one of them carries a deploy, so
	// the blocks are guaranteed to differ.
	node1, teardown1 := newTestConsensus(t, &params)
	defer teardown1()
	err := node1.AddDeploy(signedDeploy(t, &params, keyPairs[0], "!account"))
	if err != nil {
		t.Fatalf("TestEquivocationAcrossNodes: AddDeploy unexpectedly failed: %+v", err)
	}
	blockA, hashA := proposeBlock(t, node1, keyPairs[0])
	blockB, hashB := proposeBlock(t, node1, keyPairs[1])

	forkNode, forkTeardown := newTestConsensus(t, &params)
	defer forkTeardown()
	blockAPrime, hashAPrime := proposeBlock(t, forkNode, keyPairs[0])

	receiver, receiverTeardown := newTestConsensus(t, &params)
	defer receiverTeardown()
	err = receiver.ValidateAndInsertBlock(blockA)
	if err != nil {
		t.Fatalf("TestEquivocationAcrossNodes: submitting the first fork unexpectedly "+
			"failed: %+v", err)
	}

	// The equivocating fork is recorded but still admitted: the evidence has
	// to stay in the DAG.
	err = receiver.ValidateAndInsertBlock(blockAPrime)
	if err != nil {
		t.Fatalf("TestEquivocationAcrossNodes: the equivocating fork was turned "+
			"away: %+v", err)
	}
	checkStatus(t, "TestEquivocationAcrossNodes", receiver, hashAPrime, externalapi.StatusValid)

	records, err := receiver.EquivocationRecords()
	if err != nil {
		t.Fatalf("TestEquivocationAcrossNodes: EquivocationRecords unexpectedly "+
			"failed: %+v", err)
	}
	if len(records) != 1 {
		t.Fatalf("TestEquivocationAcrossNodes: expected 1 record, got %d", len(records))
	}
	record := records[0]
	if record.Equivocator != equivocator || record.BaseSequenceNumber != 0 {
		t.Fatalf("TestEquivocationAcrossNodes: the record names the wrong "+
			"equivocation: %v", record)
	}
	if len(record.DetectedBlockHashes) != 2 ||
		!record.DetectedBlockHashes[0].Equal(hashA) ||
		!record.DetectedBlockHashes[1].Equal(hashAPrime) {
		t.Fatalf("TestEquivocationAcrossNodes: expected the forks [%s %s], got %v",
			hashA, hashAPrime, record.DetectedBlockHashes)
	}

	// The first block at the equivocated sequence number stays the latest
	// message; the fork never displaces it.
	snapshot, err := receiver.GetSnapshot()
	if err != nil {
		t.Fatalf("TestEquivocationAcrossNodes: GetSnapshot unexpectedly failed: %+v", err)
	}
	if !snapshot.LatestMessages[equivocator].Equal(hashA) {
		t.Fatalf("TestEquivocationAcrossNodes: expected the latest message %s, got %s",
			hashA, snapshot.LatestMessages[equivocator])
	}

	err = receiver.ValidateAndInsertBlock(blockB)
	if err != nil {
		t.Fatalf("TestEquivocationAcrossNodes: submitting the second validator's block "+
			"unexpectedly failed: %+v", err)
	}

	justifications := []*externalapi.Justification{
		{Validator: equivocator, BlockHash: hashAPrime},
		{Validator: validatorOf(t, keyPairs[1]), BlockHash: hashB},
	}

	// A block that justifies the second fork but only carries the first in
	// its parents' past neglects the equivocation.
	bPostStateHash := blockB.Header.PostStateHash
	neglecting := craftBlock(t, &params, keyPairs[2],
		[]*externalapi.DomainHash{hashB}, justifications, 0, 3,
		&bPostStateHash, &bPostStateHash)
	err = receiver.ValidateAndInsertBlock(neglecting)
	if !errors.Is(err, ruleerrors.ErrNeglectedEquivocation) {
		t.Fatalf("TestEquivocationAcrossNodes: expected ErrNeglectedEquivocation, "+
			"got %+v", err)
	}
	checkStatus(t, "TestEquivocationAcrossNodes", receiver,
		consensushashing.BlockHash(neglecting), externalapi.StatusInvalid)

	// Carrying both forks as parents is the admissible way to build past a
	// known equivocation.
	parentHashes := []*externalapi.DomainHash{hashAPrime, hashB}
	sortHashes(parentHashes)
	aPostStateHash := blockA.Header.PostStateHash
	merging := craftBlock(t, &params, keyPairs[2], parentHashes, justifications, 0, 3,
		&aPostStateHash, &aPostStateHash)
	err = receiver.ValidateAndInsertBlock(merging)
	if err != nil {
		t.Fatalf("TestEquivocationAcrossNodes: a block carrying both forks was turned "+
			"away: %+v", err)
	}
	checkStatus(t, "TestEquivocationAcrossNodes", receiver,
		consensushashing.BlockHash(merging), externalapi.StatusValid)
}

func TestRejectedForkIsRecordedAsEquivocation(t *testing.T) {
	params, keyPairs := setupTestNetwork(t)
	tc, teardown := newTestConsensus(t, &params)
	defer teardown()

	_, hashA := proposeBlock(t, tc, keyPairs[0])

	// A second sequence-0 block by the same validator with a wrong
	// post-state claim: it is turned away as invalid, yet it still proves
	// the fork and must be recorded.
	genesisPostStateHash := params.GenesisBlock.Header.PostStateHash
	bogusPostStateHash := externalapi.NewDomainHashFromByteArray(
		&[externalapi.DomainHashSize]byte{0x99})
	fork := craftBlock(t, &params, keyPairs[0],
		[]*externalapi.DomainHash{params.GenesisHash}, nil, 0, 1,
		&genesisPostStateHash, bogusPostStateHash)
	forkHash := consensushashing.BlockHash(fork)
	err := tc.ValidateAndInsertBlock(fork)
	if !errors.Is(err, ruleerrors.ErrPostStateMismatch) {
		t.Fatalf("TestRejectedForkIsRecordedAsEquivocation: expected ErrPostStateMismatch, "+
			"got %+v", err)
	}
	checkStatus(t, "TestRejectedForkIsRecordedAsEquivocation", tc, forkHash,
		externalapi.StatusInvalid)

	records, err := tc.EquivocationRecords()
	if err != nil {
		t.Fatalf("TestRejectedForkIsRecordedAsEquivocation: EquivocationRecords "+
			"unexpectedly failed: %+v", err)
	}
	if len(records) != 1 {
		t.Fatalf("TestRejectedForkIsRecordedAsEquivocation: expected 1 record, got %d",
			len(records))
	}
	record := records[0]
	if record.Equivocator != validatorOf(t, keyPairs[0]) || record.BaseSequenceNumber != 0 {
		t.Fatalf("TestRejectedForkIsRecordedAsEquivocation: the record names the wrong "+
			"equivocation: %v", record)
	}
	if len(record.DetectedBlockHashes) != 2 ||
		!record.DetectedBlockHashes[0].Equal(hashA) ||
		!record.DetectedBlockHashes[1].Equal(forkHash) {
		t.Fatalf("TestRejectedForkIsRecordedAsEquivocation: expected the forks [%s %s], "+
			"got %v", hashA, forkHash, record.DetectedBlockHashes)
	}
}

func TestProposeBusy(t *testing.T) {
	params, keyPairs := setupTestNetwork(t)
	tc, teardown := newTestConsensus(t, &params)
	defer teardown()

	// Holding the admission lock parks the first proposal inside its
	// goroutine, so the second call reliably observes it in flight.
	c := tc.(*consensus)
	c.lock.Lock()
	future, err := tc.ProposeBlock(keyPairs[0])
	if err != nil {
		t.Fatalf("TestProposeBusy: starting a proposal unexpectedly failed: %+v", err)
	}
	_, err = tc.ProposeBlock(keyPairs[1])
	if !errors.Is(err, ErrProposeBusy) {
		t.Fatalf("TestProposeBusy: expected ErrProposeBusy, got %+v", err)
	}
	c.lock.Unlock()

	_, err = future.Wait()
	if err != nil {
		t.Fatalf("TestProposeBusy: the parked proposal unexpectedly failed: %+v", err)
	}

	// Wait returning guarantees the slot is free again.
	retry, err := tc.ProposeBlock(keyPairs[1])
	if err != nil {
		t.Fatalf("TestProposeBusy: proposing after completion unexpectedly failed: %+v", err)
	}
	_, err = retry.Wait()
	if err != nil {
		t.Fatalf("TestProposeBusy: the second proposal unexpectedly failed: %+v", err)
	}
}

func TestInvalidBlockClaims(t *testing.T) {
	params, keyPairs := setupTestNetwork(t)
	tc, teardown := newTestConsensus(t, &params)
	defer teardown()

	err := tc.AddDeploy(signedDeploy(t, &params, keyPairs[0], "!account"))
	if err != nil {
		t.Fatalf("TestInvalidBlockClaims: AddDeploy unexpectedly failed: %+v", err)
	}
	blockA, hashA := proposeBlock(t, tc, keyPairs[0])

	// The claimed pre-state ignores the parent's channel write.
	emptyStateHash := blockA.Header.PreStateHash
	badPre := craftBlock(t, &params, keyPairs[1],
		[]*externalapi.DomainHash{hashA}, nil, 0, 2, &emptyStateHash, &emptyStateHash)
	badPreHash := consensushashing.BlockHash(badPre)
	err = tc.ValidateAndInsertBlock(badPre)
	if !errors.Is(err, ruleerrors.ErrPreStateMismatch) {
		t.Fatalf("TestInvalidBlockClaims: expected ErrPreStateMismatch, got %+v", err)
	}
	checkStatus(t, "TestInvalidBlockClaims", tc, badPreHash, externalapi.StatusInvalid)

	// Re-submitting a block that already failed validation is turned away
	// without re-validation.
	err = tc.ValidateAndInsertBlock(badPre)
	if !errors.Is(err, ruleerrors.ErrKnownInvalid) {
		t.Fatalf("TestInvalidBlockClaims: expected ErrKnownInvalid, got %+v", err)
	}

	// Bonded-stake transitions are not processed, so a block altering the
	// bonds map is inconsistent even when properly signed.
	badBonds := craftBlock(t, &params, keyPairs[1],
		[]*externalapi.DomainHash{hashA}, nil, 0, 2, &emptyStateHash, &emptyStateHash)
	badBonds.Header.Bonds[0].Stake = 1
	err = signatures.SignBlock(badBonds, keyPairs[1])
	if err != nil {
		t.Fatalf("TestInvalidBlockClaims: re-signing unexpectedly failed: %+v", err)
	}
	err = tc.ValidateAndInsertBlock(badBonds)
	if !errors.Is(err, ruleerrors.ErrBondsMismatch) {
		t.Fatalf("TestInvalidBlockClaims: expected ErrBondsMismatch, got %+v", err)
	}

	// Invalidity is contagious: a child of an invalid block is invalid no
	// matter what it claims.
	orphanChild := craftBlock(t, &params, keyPairs[2],
		[]*externalapi.DomainHash{badPreHash}, nil, 0, 3, &emptyStateHash, &emptyStateHash)
	err = tc.ValidateAndInsertBlock(orphanChild)
	if !errors.Is(err, ruleerrors.ErrInvalidParent) {
		t.Fatalf("TestInvalidBlockClaims: expected ErrInvalidParent, got %+v", err)
	}
	checkStatus(t, "TestInvalidBlockClaims", tc,
		consensushashing.BlockHash(orphanChild), externalapi.StatusInvalid)
}

func TestTamperedBlockIsMalformed(t *testing.T) {
	params, keyPairs := setupTestNetwork(t)
	tc, teardown := newTestConsensus(t, &params)
	defer teardown()

	genesisPostStateHash := params.GenesisBlock.Header.PostStateHash
	block := craftBlock(t, &params, keyPairs[0],
		[]*externalapi.DomainHash{params.GenesisHash}, nil, 0, 1,
		&genesisPostStateHash, &genesisPostStateHash)
	block.Header.BlockNumber = 2

	err := tc.ValidateAndInsertBlock(block)
	if !errors.Is(err, ruleerrors.ErrInvalidSignature) {
		t.Fatalf("TestTamperedBlockIsMalformed: expected ErrInvalidSignature, got %+v", err)
	}
	// The body is kept for audit but the block never enters the DAG.
	checkStatus(t, "TestTamperedBlockIsMalformed", tc,
		consensushashing.BlockHash(block), externalapi.StatusMalformed)

	// A re-submission is turned away up front instead of being format
	// checked and stored all over again.
	err = tc.ValidateAndInsertBlock(block)
	if !errors.Is(err, ruleerrors.ErrDuplicateBlock) {
		t.Fatalf("TestTamperedBlockIsMalformed: expected ErrDuplicateBlock, got %+v", err)
	}
}

func TestBlockWithoutHeader(t *testing.T) {
	params, _ := setupTestNetwork(t)
	tc, teardown := newTestConsensus(t, &params)
	defer teardown()

	err := tc.ValidateAndInsertBlock(&externalapi.DomainBlock{})
	if !errors.Is(err, ruleerrors.ErrMissingHeader) {
		t.Fatalf("TestBlockWithoutHeader: expected ErrMissingHeader, got %+v", err)
	}
}

func TestAddDeployValidation(t *testing.T) {
	params, keyPairs := setupTestNetwork(t)
	tc, teardown := newTestConsensus(t, &params)
	defer teardown()

	unsigned := &externalapi.DomainDeploy{
		Term:     []byte("!account"),
		Lifespan: params.DeployLifespan,
	}
	err := tc.AddDeploy(unsigned)
	if !errors.Is(err, ruleerrors.ErrInvalidDeploySignature) {
		t.Fatalf("TestAddDeployValidation: expected ErrInvalidDeploySignature, got %+v", err)
	}

	zeroLifespan := &externalapi.DomainDeploy{Term: []byte("!account"), Lifespan: 0}
	err = signatures.SignDeploy(zeroLifespan, keyPairs[0])
	if err != nil {
		t.Fatalf("TestAddDeployValidation: SignDeploy unexpectedly failed: %+v", err)
	}
	err = tc.AddDeploy(zeroLifespan)
	if err == nil {
		t.Fatalf("TestAddDeployValidation: expected a zero-lifespan deploy to be rejected")
	}

	err = tc.AddDeploy(signedDeploy(t, &params, keyPairs[0], "!account"))
	if err != nil {
		t.Fatalf("TestAddDeployValidation: AddDeploy unexpectedly failed: %+v", err)
	}
	snapshot, err := tc.GetSnapshot()
	if err != nil {
		t.Fatalf("TestAddDeployValidation: GetSnapshot unexpectedly failed: %+v", err)
	}
	if len(snapshot.PooledDeploys) != 1 {
		t.Fatalf("TestAddDeployValidation: expected 1 pooled deploy, got %d",
			len(snapshot.PooledDeploys))
	}
}
