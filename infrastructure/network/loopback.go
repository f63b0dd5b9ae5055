package network

import (
	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
)

// loopback is a stand-in Network for nodes that run without peers: announce
// and fetch requests are logged and dropped. The consensus core treats both
// operations as fire-and-forget, so nothing upstream has to care.
type loopback struct{}

// NewLoopback instantiates a Network that discards all traffic.
func NewLoopback() model.Network {
	return &loopback{}
}

func (l *loopback) BroadcastHash(blockHash *externalapi.DomainHash) {
	log.Debugf("Would broadcast block %s, but no peers are connected", blockHash)
}

func (l *loopback) RequestBlock(blockHash *externalapi.DomainHash) {
	log.Debugf("Would request block %s, but no peers are connected", blockHash)
}
