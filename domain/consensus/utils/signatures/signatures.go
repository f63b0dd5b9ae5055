package signatures

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/consensushashing"
)

// Validator returns the validator identity behind the given key pair: its
// serialized Schnorr public key.
func Validator(keyPair *secp256k1.SchnorrKeyPair) (externalapi.DomainValidator, error) {
	var validator externalapi.DomainValidator
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		return validator, errors.WithStack(err)
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		return validator, errors.WithStack(err)
	}
	validator, ok := externalapi.NewDomainValidatorFromByteSlice(serializedPublicKey[:])
	if !ok {
		return validator, errors.Errorf("serialized public key has wrong length %d",
			len(serializedPublicKey))
	}
	return validator, nil
}

// SignBlock signs the given block's hash with the given key and sets the
// block's signature and validator fields accordingly. The block hash is
// unaffected since it excludes the signature.
func SignBlock(block *externalapi.DomainBlock, keyPair *secp256k1.SchnorrKeyPair) error {
	validator, err := Validator(keyPair)
	if err != nil {
		return err
	}
	block.Header.Validator = validator

	blockHash := consensushashing.BlockHash(block)
	secpHash := secp256k1.Hash(*blockHash.ByteArray())
	signature, err := keyPair.SchnorrSign(&secpHash)
	if err != nil {
		return errors.WithStack(err)
	}
	block.Signature = signature.Serialize()[:]
	return nil
}

// VerifyBlockSignature checks the block's signature against its hash and the
// validator public key declared in its header.
func VerifyBlockSignature(blockHash *externalapi.DomainHash, block *externalapi.DomainBlock) (bool, error) {
	publicKey, err := secp256k1.DeserializeSchnorrPubKey(block.Header.Validator[:])
	if err != nil {
		return false, errors.WithStack(err)
	}
	signature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(block.Signature)
	if err != nil {
		return false, errors.WithStack(err)
	}
	secpHash := secp256k1.Hash(*blockHash.ByteArray())
	return publicKey.SchnorrVerify(&secpHash, signature), nil
}

// SignDeploy signs the deploy's signing hash and sets its deployer and
// signature fields.
func SignDeploy(deploy *externalapi.DomainDeploy, keyPair *secp256k1.SchnorrKeyPair) error {
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		return errors.WithStack(err)
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		return errors.WithStack(err)
	}
	deploy.Deployer = serializedPublicKey[:]

	signingHash := consensushashing.DeploySigningHash(deploy)
	secpHash := secp256k1.Hash(*signingHash.ByteArray())
	signature, err := keyPair.SchnorrSign(&secpHash)
	if err != nil {
		return errors.WithStack(err)
	}
	deploy.Signature = signature.Serialize()[:]
	return nil
}

// VerifyDeploySignature checks the deploy's signature against its signing
// hash and its deployer public key.
func VerifyDeploySignature(deploy *externalapi.DomainDeploy) (bool, error) {
	publicKey, err := secp256k1.DeserializeSchnorrPubKey(deploy.Deployer)
	if err != nil {
		return false, errors.WithStack(err)
	}
	signature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(deploy.Signature)
	if err != nil {
		return false, errors.WithStack(err)
	}
	signingHash := consensushashing.DeploySigningHash(deploy)
	secpHash := secp256k1.Hash(*signingHash.ByteArray())
	return publicKey.SchnorrVerify(&secpHash, signature), nil
}
