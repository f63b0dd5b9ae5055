package consensushashing

import (
	"encoding/binary"

	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/hashes"
)

// BlockHash returns the given block's hash. The hash covers the header and
// the block body but deliberately excludes the signature, so that the hash a
// validator signs equals the hash the block is later addressed by.
func BlockHash(block *externalapi.DomainBlock) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	writeHeader(writer, block.Header)
	writeBody(writer, block)
	return writer.Finalize()
}

// HeaderHash returns the hash of the header alone. Used where only header
// identity matters (metadata digests, logs).
func HeaderHash(header *externalapi.DomainBlockHeader) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	writeHeader(writer, header)
	return writer.Finalize()
}

func writeHeader(writer hashes.HashWriter, header *externalapi.DomainBlockHeader) {
	writeUint16(writer, header.Version)
	writeLengthPrefixedBytes(writer, []byte(header.ShardID))
	writer.InfallibleWrite(header.Validator[:])
	writeUint64(writer, header.SequenceNumber)
	writeUint64(writer, header.BlockNumber)

	writeUint64(writer, uint64(len(header.ParentHashes)))
	for _, parentHash := range header.ParentHashes {
		writer.InfallibleWrite(parentHash.ByteSlice())
	}

	writeUint64(writer, uint64(len(header.Justifications)))
	for _, justification := range header.Justifications {
		writer.InfallibleWrite(justification.Validator[:])
		writer.InfallibleWrite(justification.BlockHash.ByteSlice())
	}

	writeUint64(writer, uint64(len(header.Bonds)))
	for _, bond := range header.Bonds {
		writer.InfallibleWrite(bond.Validator[:])
		writeUint64(writer, bond.Stake)
	}

	writer.InfallibleWrite(header.PreStateHash.ByteSlice())
	writer.InfallibleWrite(header.PostStateHash.ByteSlice())
	writeUint64(writer, uint64(header.TimeInMilliseconds))
}

func writeBody(writer hashes.HashWriter, block *externalapi.DomainBlock) {
	writeUint64(writer, uint64(len(block.Deploys)))
	for _, deploy := range block.Deploys {
		writeDeploy(writer, deploy.Deploy)
		writeUint64(writer, deploy.Cost)
		writeBool(writer, deploy.Errored)
		writeBool(writer, deploy.IsSystemDeploy)
	}

	writeUint64(writer, uint64(len(block.RejectedDeployIDs)))
	for _, rejectedID := range block.RejectedDeployIDs {
		writer.InfallibleWrite((*externalapi.DomainHash)(rejectedID).ByteSlice())
	}
}

func writeDeploy(writer hashes.HashWriter, deploy *externalapi.DomainDeploy) {
	writeLengthPrefixedBytes(writer, deploy.Deployer)
	writeLengthPrefixedBytes(writer, deploy.Term)
	writeUint64(writer, deploy.ValidAfterBlockNumber)
	writeUint64(writer, deploy.Lifespan)
	writeLengthPrefixedBytes(writer, deploy.Signature)
}

func writeUint16(writer hashes.HashWriter, value uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	writer.InfallibleWrite(buf[:])
}

func writeUint64(writer hashes.HashWriter, value uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	writer.InfallibleWrite(buf[:])
}

func writeBool(writer hashes.HashWriter, value bool) {
	if value {
		writer.InfallibleWrite([]byte{1})
	} else {
		writer.InfallibleWrite([]byte{0})
	}
}

func writeLengthPrefixedBytes(writer hashes.HashWriter, data []byte) {
	writeUint64(writer, uint64(len(data)))
	writer.InfallibleWrite(data)
}
