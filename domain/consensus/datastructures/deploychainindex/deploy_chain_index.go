package deploychainindex

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/infrastructure/db/database"
)

// deployChainIndex is a write-once/read-many cache of the deploy chains
// computed per block. A block's chains never change, so there is no
// eviction; the index is bounded by DAG size and entries are small.
type deployChainIndex struct {
	mutex sync.RWMutex

	chains map[externalapi.DomainHash][]*externalapi.DeployChain
}

// New instantiates a new DeployChainIndex
func New() model.DeployChainIndex {
	return &deployChainIndex{
		chains: make(map[externalapi.DomainHash][]*externalapi.DeployChain),
	}
}

func (dci *deployChainIndex) Has(blockHash *externalapi.DomainHash) (bool, error) {
	dci.mutex.RLock()
	defer dci.mutex.RUnlock()

	_, ok := dci.chains[*blockHash]
	return ok, nil
}

func (dci *deployChainIndex) Get(blockHash *externalapi.DomainHash) ([]*externalapi.DeployChain, error) {
	dci.mutex.RLock()
	defer dci.mutex.RUnlock()

	chains, ok := dci.chains[*blockHash]
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "deploy chains for block %s not found", blockHash)
	}
	return cloneChains(chains), nil
}

func (dci *deployChainIndex) Insert(blockHash *externalapi.DomainHash, deployChains []*externalapi.DeployChain) error {
	dci.mutex.Lock()
	defer dci.mutex.Unlock()

	if _, ok := dci.chains[*blockHash]; ok {
		return errors.Errorf("deploy chains for block %s were already computed; "+
			"the index is write-once", blockHash)
	}
	dci.chains[*blockHash] = cloneChains(deployChains)
	return nil
}

func cloneChains(chains []*externalapi.DeployChain) []*externalapi.DeployChain {
	clone := make([]*externalapi.DeployChain, len(chains))
	for i, chain := range chains {
		clone[i] = chain.Clone()
	}
	return clone
}
