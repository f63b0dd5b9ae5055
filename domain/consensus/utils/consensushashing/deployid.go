package consensushashing

import (
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/hashes"
)

// DeployID derives a deploy's unique id from its signature.
func DeployID(deploy *externalapi.DomainDeploy) *externalapi.DomainDeployID {
	writer := hashes.NewDeployIDWriter()
	writer.InfallibleWrite(deploy.Signature)
	return externalapi.NewDomainDeployIDFromHash(writer.Finalize())
}

// DeploySigningHash returns the hash a deployer signs: everything in the
// deploy except the signature itself.
func DeploySigningHash(deploy *externalapi.DomainDeploy) *externalapi.DomainHash {
	writer := hashes.NewDeployIDWriter()
	writeLengthPrefixedBytes(writer, deploy.Deployer)
	writeLengthPrefixedBytes(writer, deploy.Term)
	writeUint64(writer, deploy.ValidAfterBlockNumber)
	writeUint64(writer, deploy.Lifespan)
	return writer.Finalize()
}
