package deploypool

import (
	"sort"
	"sync"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/consensushashing"
)

type deployPool struct {
	mutex sync.RWMutex

	deploys map[externalapi.DomainDeployID]*externalapi.DomainDeploy
}

// New instantiates a new DeployPool
func New() model.DeployPool {
	return &deployPool{
		deploys: make(map[externalapi.DomainDeployID]*externalapi.DomainDeploy),
	}
}

func (dp *deployPool) Insert(deploy *externalapi.DomainDeploy) error {
	dp.mutex.Lock()
	defer dp.mutex.Unlock()

	deployID := consensushashing.DeployID(deploy)
	if _, ok := dp.deploys[*deployID]; ok {
		return nil
	}
	dp.deploys[*deployID] = deploy.Clone()
	return nil
}

func (dp *deployPool) PooledDeploys() []*externalapi.DomainDeploy {
	dp.mutex.RLock()
	defer dp.mutex.RUnlock()

	deployIDs := make([]externalapi.DomainDeployID, 0, len(dp.deploys))
	for deployID := range dp.deploys {
		deployIDs = append(deployIDs, deployID)
	}
	sort.Slice(deployIDs, func(i, j int) bool {
		return deployIDs[i].Less(&deployIDs[j])
	})

	deploys := make([]*externalapi.DomainDeploy, 0, len(deployIDs))
	for _, deployID := range deployIDs {
		deploys = append(deploys, dp.deploys[deployID].Clone())
	}
	return deploys
}

func (dp *deployPool) Remove(deployIDs []*externalapi.DomainDeployID) {
	dp.mutex.Lock()
	defer dp.mutex.Unlock()

	for _, deployID := range deployIDs {
		delete(dp.deploys, *deployID)
	}
}

func (dp *deployPool) ExpireBelow(blockNumber uint64) {
	dp.mutex.Lock()
	defer dp.mutex.Unlock()

	for deployID, deploy := range dp.deploys {
		if deploy.ValidAfterBlockNumber+deploy.Lifespan <= blockNumber {
			delete(dp.deploys, deployID)
		}
	}
}

func (dp *deployPool) Len() int {
	dp.mutex.RLock()
	defer dp.mutex.RUnlock()

	return len(dp.deploys)
}
