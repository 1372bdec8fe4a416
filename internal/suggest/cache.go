package suggest

import (
	"sync"
	"time"

	"github.com/mesh-intelligence/twine/pkg/types"
)

// cache holds recent suggestion sets keyed by container ID so repeated
// requests within the TTL window skip the AI call. Expired entries are
// evicted lazily on lookup and on store.
type cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	set     *types.SuggestionSet
	expires time.Time
}

func newCache(ttl time.Duration) *cache {
	return &cache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *cache) get(containerID string, now time.Time) (*types.SuggestionSet, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[containerID]
	if !ok {
		return nil, false
	}
	if now.After(entry.expires) {
		delete(c.entries, containerID)
		return nil, false
	}
	return cloneSet(entry.set), true
}

func (c *cache) put(containerID string, set *types.SuggestionSet, now time.Time) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, id)
		}
	}
	c.entries[containerID] = cacheEntry{set: cloneSet(set), expires: now.Add(c.ttl)}
}

// cloneSet copies the set and its suggestions slice. Stored and returned
// sets never share a backing array with callers, so a caller mutating its
// result cannot poison later cache hits.
func cloneSet(set *types.SuggestionSet) *types.SuggestionSet {
	out := *set
	out.Suggestions = append([]types.RankedCandidate(nil), set.Suggestions...)
	return &out
}

// invalidate drops the container's entry, used after a suggestion is
// accepted so the next run reflects the new link.
func (c *cache) invalidate(containerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, containerID)
}
