package match

import (
	"sync"
	"time"
)

// actionLocks drops duplicate interaction triggers: a second attempt by the
// same actor for the same group action inside the TTL is rejected. Entries
// expire by timestamp check on acquire.
type actionLocks struct {
	ttl time.Duration

	mu    sync.Mutex
	taken map[lockKey]time.Time
}

type lockKey struct {
	groupID string
	action  string
	actorID string
}

func newActionLocks(ttl time.Duration) *actionLocks {
	return &actionLocks{
		ttl:   ttl,
		taken: make(map[lockKey]time.Time),
	}
}

// TryAcquire reports whether the actor may run the action now. A false
// return means an identical trigger fired within the TTL.
func (a *actionLocks) TryAcquire(groupID, action, actorID string) bool {
	key := lockKey{groupID: groupID, action: action, actorID: actorID}

	a.mu.Lock()
	defer a.mu.Unlock()

	if at, ok := a.taken[key]; ok && time.Since(at) < a.ttl {
		return false
	}
	a.taken[key] = time.Now()
	return true
}

func (a *actionLocks) Purge() {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	for key, at := range a.taken {
		if now.Sub(at) >= a.ttl {
			delete(a.taken, key)
		}
	}
}
