package match

import (
	"sync"
	"time"
)

// dedupCache drops repeated trigger messages per group by literal content.
// Entries expire after ttl so a legitimately re-posted message is accepted
// again later.
type dedupCache struct {
	ttl time.Duration

	mu   sync.Mutex
	seen map[string]map[string]time.Time // group -> content -> first seen
}

func newDedupCache(ttl time.Duration) *dedupCache {
	return &dedupCache{
		ttl:  ttl,
		seen: make(map[string]map[string]time.Time),
	}
}

// Seen records the content for the group and reports whether it was already
// present inside the TTL.
func (d *dedupCache) Seen(groupID, content string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	group := d.seen[groupID]
	if group == nil {
		group = make(map[string]time.Time)
		d.seen[groupID] = group
	}

	if at, ok := group[content]; ok && time.Since(at) < d.ttl {
		return true
	}
	group[content] = time.Now()
	return false
}

// Drop discards all entries for a finished group.
func (d *dedupCache) Drop(groupID string) {
	d.mu.Lock()
	delete(d.seen, groupID)
	d.mu.Unlock()
}

// Purge evicts expired entries and empty groups.
func (d *dedupCache) Purge() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for g, contents := range d.seen {
		for c, at := range contents {
			if now.Sub(at) >= d.ttl {
				delete(contents, c)
			}
		}
		if len(contents) == 0 {
			delete(d.seen, g)
		}
	}
}
