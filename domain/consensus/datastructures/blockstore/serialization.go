package blockstore

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
)

// serializeBlock encodes a block for database storage. The format is
// internal to this store and carries no cross-node compatibility promise.
func serializeBlock(block *externalapi.DomainBlock) []byte {
	buffer := &bytes.Buffer{}
	header := block.Header

	writeUint16(buffer, header.Version)
	writeByteSlice(buffer, []byte(header.ShardID))
	buffer.Write(header.Validator[:])
	writeUint64(buffer, header.SequenceNumber)
	writeUint64(buffer, header.BlockNumber)

	writeUint64(buffer, uint64(len(header.ParentHashes)))
	for _, parentHash := range header.ParentHashes {
		buffer.Write(parentHash.ByteSlice())
	}
	writeUint64(buffer, uint64(len(header.Justifications)))
	for _, justification := range header.Justifications {
		buffer.Write(justification.Validator[:])
		buffer.Write(justification.BlockHash.ByteSlice())
	}
	writeUint64(buffer, uint64(len(header.Bonds)))
	for _, bond := range header.Bonds {
		buffer.Write(bond.Validator[:])
		writeUint64(buffer, bond.Stake)
	}
	buffer.Write(header.PreStateHash.ByteSlice())
	buffer.Write(header.PostStateHash.ByteSlice())
	writeUint64(buffer, uint64(header.TimeInMilliseconds))

	writeUint64(buffer, uint64(len(block.Deploys)))
	for _, deploy := range block.Deploys {
		writeByteSlice(buffer, deploy.Deploy.Deployer)
		writeByteSlice(buffer, deploy.Deploy.Term)
		writeUint64(buffer, deploy.Deploy.ValidAfterBlockNumber)
		writeUint64(buffer, deploy.Deploy.Lifespan)
		writeByteSlice(buffer, deploy.Deploy.Signature)
		buffer.Write((*externalapi.DomainHash)(&deploy.ID).ByteSlice())
		writeUint64(buffer, deploy.Cost)
		writeBool(buffer, deploy.Errored)
		writeBool(buffer, deploy.IsSystemDeploy)
	}

	writeUint64(buffer, uint64(len(block.RejectedDeployIDs)))
	for _, rejectedID := range block.RejectedDeployIDs {
		buffer.Write((*externalapi.DomainHash)(rejectedID).ByteSlice())
	}

	writeByteSlice(buffer, block.Signature)
	return buffer.Bytes()
}

func deserializeBlock(data []byte) (*externalapi.DomainBlock, error) {
	reader := bytes.NewReader(data)
	header := &externalapi.DomainBlockHeader{}

	var err error
	header.Version, err = readUint16(reader)
	if err != nil {
		return nil, err
	}
	shardID, err := readByteSlice(reader)
	if err != nil {
		return nil, err
	}
	header.ShardID = string(shardID)
	header.Validator, err = readValidator(reader)
	if err != nil {
		return nil, err
	}
	header.SequenceNumber, err = readUint64(reader)
	if err != nil {
		return nil, err
	}
	header.BlockNumber, err = readUint64(reader)
	if err != nil {
		return nil, err
	}

	parentCount, err := readUint64(reader)
	if err != nil {
		return nil, err
	}
	header.ParentHashes = make([]*externalapi.DomainHash, 0, parentCount)
	for i := uint64(0); i < parentCount; i++ {
		parentHash, err := readHash(reader)
		if err != nil {
			return nil, err
		}
		header.ParentHashes = append(header.ParentHashes, parentHash)
	}

	justificationCount, err := readUint64(reader)
	if err != nil {
		return nil, err
	}
	header.Justifications = make([]*externalapi.Justification, 0, justificationCount)
	for i := uint64(0); i < justificationCount; i++ {
		validator, err := readValidator(reader)
		if err != nil {
			return nil, err
		}
		blockHash, err := readHash(reader)
		if err != nil {
			return nil, err
		}
		header.Justifications = append(header.Justifications,
			&externalapi.Justification{Validator: validator, BlockHash: blockHash})
	}

	bondCount, err := readUint64(reader)
	if err != nil {
		return nil, err
	}
	header.Bonds = make([]*externalapi.BondEntry, 0, bondCount)
	for i := uint64(0); i < bondCount; i++ {
		validator, err := readValidator(reader)
		if err != nil {
			return nil, err
		}
		stake, err := readUint64(reader)
		if err != nil {
			return nil, err
		}
		header.Bonds = append(header.Bonds, &externalapi.BondEntry{Validator: validator, Stake: stake})
	}

	preStateHash, err := readHash(reader)
	if err != nil {
		return nil, err
	}
	header.PreStateHash = *preStateHash
	postStateHash, err := readHash(reader)
	if err != nil {
		return nil, err
	}
	header.PostStateHash = *postStateHash
	timeInMilliseconds, err := readUint64(reader)
	if err != nil {
		return nil, err
	}
	header.TimeInMilliseconds = int64(timeInMilliseconds)

	deployCount, err := readUint64(reader)
	if err != nil {
		return nil, err
	}
	deploys := make([]*externalapi.ProcessedDeploy, 0, deployCount)
	for i := uint64(0); i < deployCount; i++ {
		deploy, err := readProcessedDeploy(reader)
		if err != nil {
			return nil, err
		}
		deploys = append(deploys, deploy)
	}

	rejectedCount, err := readUint64(reader)
	if err != nil {
		return nil, err
	}
	rejectedDeployIDs := make([]*externalapi.DomainDeployID, 0, rejectedCount)
	for i := uint64(0); i < rejectedCount; i++ {
		rejectedHash, err := readHash(reader)
		if err != nil {
			return nil, err
		}
		rejectedDeployIDs = append(rejectedDeployIDs, externalapi.NewDomainDeployIDFromHash(rejectedHash))
	}

	signature, err := readByteSlice(reader)
	if err != nil {
		return nil, err
	}

	return &externalapi.DomainBlock{
		Header:            header,
		Deploys:           deploys,
		RejectedDeployIDs: rejectedDeployIDs,
		Signature:         signature,
	}, nil
}

func readProcessedDeploy(reader io.Reader) (*externalapi.ProcessedDeploy, error) {
	deployer, err := readByteSlice(reader)
	if err != nil {
		return nil, err
	}
	term, err := readByteSlice(reader)
	if err != nil {
		return nil, err
	}
	validAfterBlockNumber, err := readUint64(reader)
	if err != nil {
		return nil, err
	}
	lifespan, err := readUint64(reader)
	if err != nil {
		return nil, err
	}
	signature, err := readByteSlice(reader)
	if err != nil {
		return nil, err
	}
	idHash, err := readHash(reader)
	if err != nil {
		return nil, err
	}
	cost, err := readUint64(reader)
	if err != nil {
		return nil, err
	}
	errored, err := readBool(reader)
	if err != nil {
		return nil, err
	}
	isSystemDeploy, err := readBool(reader)
	if err != nil {
		return nil, err
	}
	return &externalapi.ProcessedDeploy{
		Deploy: &externalapi.DomainDeploy{
			Deployer:              deployer,
			Term:                  term,
			ValidAfterBlockNumber: validAfterBlockNumber,
			Lifespan:              lifespan,
			Signature:             signature,
		},
		ID:             *externalapi.NewDomainDeployIDFromHash(idHash),
		Cost:           cost,
		Errored:        errored,
		IsSystemDeploy: isSystemDeploy,
	}, nil
}

func writeUint16(buffer *bytes.Buffer, value uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	buffer.Write(buf[:])
}

func writeUint64(buffer *bytes.Buffer, value uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	buffer.Write(buf[:])
}

func writeBool(buffer *bytes.Buffer, value bool) {
	if value {
		buffer.WriteByte(1)
	} else {
		buffer.WriteByte(0)
	}
}

func writeByteSlice(buffer *bytes.Buffer, data []byte) {
	writeUint64(buffer, uint64(len(data)))
	buffer.Write(data)
}

func readUint16(reader io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(reader, buf[:]); err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func readUint64(reader io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(reader, buf[:]); err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readBool(reader io.Reader) (bool, error) {
	var buf [1]byte
	if _, err := io.ReadFull(reader, buf[:]); err != nil {
		return false, errors.WithStack(err)
	}
	return buf[0] != 0, nil
}

func readByteSlice(reader io.Reader) ([]byte, error) {
	length, err := readUint64(reader)
	if err != nil {
		return nil, err
	}
	const maxSliceLength = 1 << 30
	if length > maxSliceLength {
		return nil, errors.Errorf("serialized slice length %d is too large", length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func readHash(reader io.Reader) (*externalapi.DomainHash, error) {
	var buf [externalapi.DomainHashSize]byte
	if _, err := io.ReadFull(reader, buf[:]); err != nil {
		return nil, errors.WithStack(err)
	}
	return externalapi.NewDomainHashFromByteArray(&buf), nil
}

func readValidator(reader io.Reader) (externalapi.DomainValidator, error) {
	var validator externalapi.DomainValidator
	if _, err := io.ReadFull(reader, validator[:]); err != nil {
		return validator, errors.WithStack(err)
	}
	return validator, nil
}
