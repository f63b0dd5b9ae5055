package model

import "github.com/casperdag/casperd/domain/consensus/model/externalapi"

// DeployPool holds deploys that were submitted to this node but not yet
// included in a finalized block.
type DeployPool interface {
	// Insert adds a deploy to the pool. Inserting a deploy whose id is
	// already pooled is a no-op.
	Insert(deploy *externalapi.DomainDeploy) error

	// PooledDeploys returns all pooled deploys, sorted by deploy id.
	PooledDeploys() []*externalapi.DomainDeploy

	// Remove drops the deploys with the given ids from the pool. Used when
	// deploys become finalized.
	Remove(deployIDs []*externalapi.DomainDeployID)

	// ExpireBelow drops every pooled deploy whose validity window is fully
	// below the given block number.
	ExpireBelow(blockNumber uint64)

	// Len returns the amount of pooled deploys.
	Len() int
}
