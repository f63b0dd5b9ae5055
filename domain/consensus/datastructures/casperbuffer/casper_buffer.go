package casperbuffer

import (
	"sort"
	"sync"

	"github.com/casperdag/casperd/domain/consensus/model"
	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/hashset"
)

// casperBuffer indexes blocks waiting for missing ancestors, in both
// directions: from a block to its missing dependencies, and from a
// dependency to the blocks waiting on it.
type casperBuffer struct {
	mutex sync.Mutex

	missingDependencies map[externalapi.DomainHash]hashset.HashSet
	dependents          map[externalapi.DomainHash]hashset.HashSet
}

// New instantiates a new CasperBuffer
func New() model.CasperBuffer {
	return &casperBuffer{
		missingDependencies: make(map[externalapi.DomainHash]hashset.HashSet),
		dependents:          make(map[externalapi.DomainHash]hashset.HashSet),
	}
}

func (cb *casperBuffer) AddPending(blockHash *externalapi.DomainHash,
	missingDependencies []*externalapi.DomainHash) {

	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.detachLocked(blockHash)

	dependencySet := hashset.NewFromSlice(missingDependencies...)
	cb.missingDependencies[*blockHash] = dependencySet
	for dependency := range dependencySet {
		dependency := dependency
		dependents, ok := cb.dependents[dependency]
		if !ok {
			dependents = hashset.New()
			cb.dependents[dependency] = dependents
		}
		dependents.Add(blockHash)
	}
}

func (cb *casperBuffer) Contains(blockHash *externalapi.DomainHash) bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	_, ok := cb.missingDependencies[*blockHash]
	return ok
}

func (cb *casperBuffer) ContainsAnyOf(blockHashes []*externalapi.DomainHash) bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	for _, blockHash := range blockHashes {
		if _, ok := cb.missingDependencies[*blockHash]; ok {
			return true
		}
	}
	return false
}

func (cb *casperBuffer) Resolve(dependency *externalapi.DomainHash) []*externalapi.DomainHash {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	dependents, ok := cb.dependents[*dependency]
	if !ok {
		return nil
	}
	delete(cb.dependents, *dependency)

	ready := make([]*externalapi.DomainHash, 0)
	for dependentHash := range dependents {
		dependentHash := dependentHash
		missing, ok := cb.missingDependencies[dependentHash]
		if !ok {
			continue
		}
		missing.Remove(dependency)
		if missing.Length() == 0 {
			ready = append(ready, &dependentHash)
		}
	}
	sortHashes(ready)
	return ready
}

func (cb *casperBuffer) Remove(blockHash *externalapi.DomainHash) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.detachLocked(blockHash)
}

func (cb *casperBuffer) Len() int {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return len(cb.missingDependencies)
}

func (cb *casperBuffer) detachLocked(blockHash *externalapi.DomainHash) {
	missing, ok := cb.missingDependencies[*blockHash]
	if !ok {
		return
	}
	delete(cb.missingDependencies, *blockHash)
	for dependency := range missing {
		dependency := dependency
		if dependents, ok := cb.dependents[dependency]; ok {
			dependents.Remove(blockHash)
			if dependents.Length() == 0 {
				delete(cb.dependents, dependency)
			}
		}
	}
}

func sortHashes(hashes []*externalapi.DomainHash) {
	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i].Less(hashes[j])
	})
}
