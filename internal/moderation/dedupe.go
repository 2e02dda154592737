package moderation

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// dedupeCache remembers recently executed side effects so a replayed event
// does not repeat them.
type dedupeCache struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

func newDedupeCache(size int, ttl time.Duration) *dedupeCache {
	return &dedupeCache{cache: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

// claim returns true the first time key is seen within the TTL.
func (d *dedupeCache) claim(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cache.Contains(key) {
		return false
	}
	d.cache.Add(key, struct{}{})
	return true
}
