package tagfuse

import "sync"

// resultCache memoizes a query-construction node's materialized
// result set against the mutation version it was computed at. A
// lookup whose stored version no longer matches env.currentVersion
// is a miss: the whole cache for that key is discarded and
// recomputed, which is the "full invalidation is acceptable" strategy
// for keeping ResultMaterialized nodes consistent with a mutable
// store.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]cachedResult
}

type cachedResult struct {
	version uint64
	result  materializedResult
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]cachedResult)}
}

func (c *resultCache) get(key string, version uint64) (materializedResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || entry.version != version {
		return materializedResult{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(key string, version uint64, result materializedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cachedResult{version: version, result: result}
}
