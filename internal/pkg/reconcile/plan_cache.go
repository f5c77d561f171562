package reconcile

import "sync"

// PlanCache maps plan keys to gateway plan ids. The cache is an optimization,
// not a correctness guarantee: a cold cache falls back to a gateway lookup.
// Clear exists for test isolation.
type PlanCache interface {
	Get(key string) (string, bool)
	Put(key, gatewayPlanID string)
	Clear()
}

// MemoryPlanCache is a process-local, unbounded plan cache. Concurrent misses
// for the same key may race and momentarily create more than one gateway plan;
// the fallback lookup converges the cache afterwards.
type MemoryPlanCache struct {
	mu    sync.RWMutex
	plans map[string]string
}

// NewMemoryPlanCache creates an empty in-memory plan cache.
func NewMemoryPlanCache() *MemoryPlanCache {
	return &MemoryPlanCache{plans: make(map[string]string)}
}

func (c *MemoryPlanCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.plans[key]
	return id, ok
}

func (c *MemoryPlanCache) Put(key, gatewayPlanID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[key] = gatewayPlanID
}

func (c *MemoryPlanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans = make(map[string]string)
}
