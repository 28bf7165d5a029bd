package queue

import (
	"context"
	"sync"
	"time"

	"apostado/internal/config"

	"github.com/rs/zerolog"
)

// Registry tracks which match groups each player currently occupies and
// rate-limits cancellations. All state is runtime-only and resets on
// restart by design.
type Registry struct {
	logger zerolog.Logger

	maxQueues  int
	window     time.Duration
	limit      int
	punishment time.Duration
	sweepEvery time.Duration

	mu            sync.Mutex
	active        map[string]map[string]struct{} // player -> group ids
	cancellations map[string][]time.Time
	suspended     map[string]time.Time // player -> suspension expiry
}

func NewRegistry(cfg *config.Config, logger zerolog.Logger) *Registry {
	return &Registry{
		logger:        logger.With().Str("component", "queue_registry").Logger(),
		maxQueues:     cfg.MaxConcurrentQueues,
		window:        cfg.CancellationWindow,
		limit:         cfg.CancellationLimit,
		punishment:    cfg.PunishmentDuration,
		sweepEvery:    cfg.SweepInterval,
		active:        make(map[string]map[string]struct{}),
		cancellations: make(map[string][]time.Time),
		suspended:     make(map[string]time.Time),
	}
}

// CanJoin reports whether the player is below the concurrent-queue cap and
// not suspended.
func (r *Registry) CanJoin(playerID string) bool {
	if r.IsSuspended(playerID) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active[playerID]) < r.maxQueues
}

// IsSuspended purges an expired suspension on read.
func (r *Registry) IsSuspended(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.suspended[playerID]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(r.suspended, playerID)
		return false
	}
	return true
}

// SuspensionLeft returns the remaining suspension time, zero when none.
func (r *Registry) SuspensionLeft(playerID string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.suspended[playerID]
	if !ok {
		return 0
	}
	left := time.Until(until)
	if left < 0 {
		return 0
	}
	return left
}

// RegisterMembership adds the group to each player's active set. Idempotent.
func (r *Registry) RegisterMembership(groupID string, playerIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range playerIDs {
		if r.active[p] == nil {
			r.active[p] = make(map[string]struct{})
		}
		r.active[p][groupID] = struct{}{}
	}
}

// ClearMembership removes the group from each player's active set. The
// tracking entry is dropped with its last membership so memory stays
// bounded.
func (r *Registry) ClearMembership(groupID string, playerIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range playerIDs {
		if groups, ok := r.active[p]; ok {
			delete(groups, groupID)
			if len(groups) == 0 {
				delete(r.active, p)
			}
		}
	}
}

// ActiveGroups lists the group ids a player currently occupies.
func (r *Registry) ActiveGroups(playerID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	groups := make([]string, 0, len(r.active[playerID]))
	for g := range r.active[playerID] {
		groups = append(groups, g)
	}
	return groups
}

func (r *Registry) ActiveCount(playerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active[playerID])
}

type CancellationResult struct {
	Suspended    bool
	WarnIncoming bool
	Count        int
}

// RecordCancellation appends to the player's sliding window, pruning stale
// entries first. Hitting the limit suspends the player; one short of the
// limit flags a warning for the caller to surface.
func (r *Registry) RecordCancellation(playerID string) CancellationResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	recent := r.cancellations[playerID][:0]
	for _, ts := range r.cancellations[playerID] {
		if now.Sub(ts) < r.window {
			recent = append(recent, ts)
		}
	}
	recent = append(recent, now)
	r.cancellations[playerID] = recent

	if len(recent) >= r.limit {
		r.suspended[playerID] = now.Add(r.punishment)
		r.logger.Warn().
			Str("player_id", playerID).
			Int("cancellations", len(recent)).
			Dur("punishment", r.punishment).
			Msg("player suspended for repeated cancellations")
		return CancellationResult{Suspended: true, Count: len(recent)}
	}

	return CancellationResult{
		WarnIncoming: len(recent) == r.limit-1,
		Count:        len(recent),
	}
}

// Sweep purges expired suspensions and fully stale cancellation windows.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cleaned := 0

	for p, until := range r.suspended {
		if now.After(until) {
			delete(r.suspended, p)
			cleaned++
		}
	}

	for p, stamps := range r.cancellations {
		recent := stamps[:0]
		for _, ts := range stamps {
			if now.Sub(ts) < r.window {
				recent = append(recent, ts)
			}
		}
		if len(recent) == 0 {
			delete(r.cancellations, p)
			cleaned++
		} else if len(recent) < len(stamps) {
			r.cancellations[p] = recent
			cleaned++
		}
	}

	if cleaned > 0 {
		r.logger.Debug().Int("cleaned", cleaned).Msg("queue registry sweep")
	}
	return cleaned
}

// Run sweeps periodically until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

type Stats struct {
	ActivePlayers     int
	OpenMemberships   int
	SuspendedPlayers  int
	PendingCancelLogs int
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{
		ActivePlayers:     len(r.active),
		SuspendedPlayers:  len(r.suspended),
		PendingCancelLogs: len(r.cancellations),
	}
	for _, groups := range r.active {
		stats.OpenMemberships += len(groups)
	}
	return stats
}
