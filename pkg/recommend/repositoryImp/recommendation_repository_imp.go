package repositoryImp

import (
	"sync"

	"agriadvisor/entities"
	"agriadvisor/pkg/recommend/repository"
)

type memCache struct {
	mu      sync.RWMutex
	byField map[uint]entities.Recommendation
}

func New() repository.RecommendationRepository {
	return &memCache{byField: map[uint]entities.Recommendation{}}
}

func (c *memCache) Get(fieldID uint) (*entities.Recommendation, bool) {
	c.mu.RLock()
	r, ok := c.byField[fieldID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return &r, true
}

func (c *memCache) Put(r entities.Recommendation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.byField[r.FieldID]; ok && cur.SnapshotVersion > r.SnapshotVersion {
		return false
	}
	c.byField[r.FieldID] = r
	return true
}

func (c *memCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byField)
}
