package signatures

import (
	"testing"

	"github.com/kaspanet/go-secp256k1"

	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/consensushashing"
)

func testKeyPair(t *testing.T) *secp256k1.SchnorrKeyPair {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("generating a key pair unexpectedly failed: %+v", err)
	}
	return keyPair
}

func unsignedBlock() *externalapi.DomainBlock {
	parentHash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0x01})
	return &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:      1,
			ShardID:      "root",
			BlockNumber:  1,
			ParentHashes: []*externalapi.DomainHash{parentHash},
		},
	}
}

func TestBlockSignatureRoundTrip(t *testing.T) {
	keyPair := testKeyPair(t)
	block := unsignedBlock()

	err := SignBlock(block, keyPair)
	if err != nil {
		t.Fatalf("TestBlockSignatureRoundTrip: SignBlock unexpectedly failed: %+v", err)
	}

	validator, err := Validator(keyPair)
	if err != nil {
		t.Fatalf("TestBlockSignatureRoundTrip: Validator unexpectedly failed: %+v", err)
	}
	if block.Header.Validator != validator {
		t.Fatalf("TestBlockSignatureRoundTrip: SignBlock set validator %s, expected %s",
			block.Header.Validator, validator)
	}

	blockHash := consensushashing.BlockHash(block)
	valid, err := VerifyBlockSignature(blockHash, block)
	if err != nil {
		t.Fatalf("TestBlockSignatureRoundTrip: VerifyBlockSignature unexpectedly failed: %+v", err)
	}
	if !valid {
		t.Fatalf("TestBlockSignatureRoundTrip: a freshly signed block does not verify")
	}
}

func TestTamperedBlockDoesNotVerify(t *testing.T) {
	keyPair := testKeyPair(t)
	block := unsignedBlock()

	err := SignBlock(block, keyPair)
	if err != nil {
		t.Fatalf("TestTamperedBlockDoesNotVerify: SignBlock unexpectedly failed: %+v", err)
	}

	block.Header.BlockNumber++
	blockHash := consensushashing.BlockHash(block)
	valid, err := VerifyBlockSignature(blockHash, block)
	if err != nil {
		t.Fatalf("TestTamperedBlockDoesNotVerify: VerifyBlockSignature unexpectedly failed: %+v", err)
	}
	if valid {
		t.Fatalf("TestTamperedBlockDoesNotVerify: a tampered block still verifies")
	}
}

func TestBlockSignedByAnotherKeyDoesNotVerify(t *testing.T) {
	block := unsignedBlock()
	err := SignBlock(block, testKeyPair(t))
	if err != nil {
		t.Fatalf("TestBlockSignedByAnotherKeyDoesNotVerify: SignBlock unexpectedly failed: %+v", err)
	}

	// Claim a different validator identity than the one that signed.
	otherValidator, err := Validator(testKeyPair(t))
	if err != nil {
		t.Fatalf("TestBlockSignedByAnotherKeyDoesNotVerify: Validator unexpectedly failed: %+v", err)
	}
	block.Header.Validator = otherValidator

	blockHash := consensushashing.BlockHash(block)
	valid, err := VerifyBlockSignature(blockHash, block)
	if err != nil {
		t.Fatalf("TestBlockSignedByAnotherKeyDoesNotVerify: VerifyBlockSignature "+
			"unexpectedly failed: %+v", err)
	}
	if valid {
		t.Fatalf("TestBlockSignedByAnotherKeyDoesNotVerify: a block claiming a foreign " +
			"validator still verifies")
	}
}

func TestDeploySignatureRoundTrip(t *testing.T) {
	keyPair := testKeyPair(t)
	deploy := &externalapi.DomainDeploy{
		Term:                  []byte("!channel ?other"),
		ValidAfterBlockNumber: 3,
		Lifespan:              50,
	}

	err := SignDeploy(deploy, keyPair)
	if err != nil {
		t.Fatalf("TestDeploySignatureRoundTrip: SignDeploy unexpectedly failed: %+v", err)
	}
	valid, err := VerifyDeploySignature(deploy)
	if err != nil {
		t.Fatalf("TestDeploySignatureRoundTrip: VerifyDeploySignature unexpectedly failed: %+v", err)
	}
	if !valid {
		t.Fatalf("TestDeploySignatureRoundTrip: a freshly signed deploy does not verify")
	}

	deploy.Term = []byte("!tampered")
	valid, err = VerifyDeploySignature(deploy)
	if err != nil {
		t.Fatalf("TestDeploySignatureRoundTrip: VerifyDeploySignature unexpectedly failed: %+v", err)
	}
	if valid {
		t.Fatalf("TestDeploySignatureRoundTrip: a tampered deploy still verifies")
	}
}
