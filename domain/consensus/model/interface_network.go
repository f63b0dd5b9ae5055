package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// Network is the fire-and-forget gossip collaborator. The core never
// consumes a return value from it.
type Network interface {
	// BroadcastHash announces a newly committed block to peers.
	BroadcastHash(blockHash *externalapi.DomainHash)

	// RequestBlock asks peers for a block the node is missing.
	RequestBlock(blockHash *externalapi.DomainHash)
}
