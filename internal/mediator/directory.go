package mediator

import (
	"fmt"
	"sync"
	"time"

	"apostado/internal/config"
	"apostado/internal/constants"
	"apostado/internal/domain"
	"apostado/internal/pix"
	"apostado/internal/store"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Directory caches mediator profiles and owns the round-robin availability
// pool. Profile reads go through a TTL cache so burst traffic does not hit
// the store file on every lookup; mutations persist synchronously and
// invalidate the cache before returning.
type Directory struct {
	store  *store.Store
	logger zerolog.Logger
	ttl    time.Duration

	cacheMu   sync.RWMutex
	cache     []domain.Mediator
	cachedAt  time.Time
	reloadsSF singleflight.Group

	// Round-robin cursor. Process-local; pool membership changes do not
	// reset it, the resulting skew is accepted.
	cursorMu sync.Mutex
	cursor   int
}

func NewDirectory(st *store.Store, cfg *config.Config, logger zerolog.Logger) *Directory {
	ttl := cfg.MediatorCacheTTL
	if ttl <= 0 {
		ttl = constants.MediatorCacheTTL
	}
	return &Directory{
		store:  st,
		logger: logger.With().Str("component", "mediator_directory").Logger(),
		ttl:    ttl,
	}
}

func (d *Directory) profiles() []domain.Mediator {
	d.cacheMu.RLock()
	if d.cache != nil && time.Since(d.cachedAt) < d.ttl {
		cached := d.cache
		d.cacheMu.RUnlock()
		return cached
	}
	d.cacheMu.RUnlock()

	v, _, _ := d.reloadsSF.Do("profiles", func() (any, error) {
		var profiles []domain.Mediator
		if err := d.store.Load(constants.TableMediators, &profiles); err != nil {
			d.logger.Error().Err(err).Msg("failed to load mediator profiles")
			return []domain.Mediator{}, nil
		}
		d.cacheMu.Lock()
		d.cache = profiles
		d.cachedAt = time.Now()
		d.cacheMu.Unlock()
		return profiles, nil
	})
	return v.([]domain.Mediator)
}

// InvalidateCache forces the next profile read to hit the store.
func (d *Directory) InvalidateCache() {
	d.cacheMu.Lock()
	d.cache = nil
	d.cachedAt = time.Time{}
	d.cacheMu.Unlock()
}

// Get returns the registered profile for id, or nil.
func (d *Directory) Get(id string) *domain.Mediator {
	for _, m := range d.profiles() {
		if m.ID == id {
			profile := m
			return &profile
		}
	}
	return nil
}

func (d *Directory) IsMediator(id string) bool {
	return d.Get(id) != nil
}

// Resolve merges the authoritative profile for id over whatever partial data
// the caller already carries. Authoritative fields always win; missing
// fields keep the caller's values, then placeholders.
func (d *Directory) Resolve(id string, partial *domain.Mediator) domain.Mediator {
	merged := domain.Mediator{
		ID:         id,
		Name:       "unknown",
		PaymentKey: "",
	}
	if partial != nil {
		if partial.Name != "" {
			merged.Name = partial.Name
		}
		merged.PaymentKey = partial.PaymentKey
		merged.QRCodeURL = partial.QRCodeURL
	}
	if authoritative := d.Get(id); authoritative != nil {
		if authoritative.Name != "" {
			merged.Name = authoritative.Name
		}
		if authoritative.PaymentKey != "" {
			merged.PaymentKey = authoritative.PaymentKey
		}
		if authoritative.QRCodeURL != "" {
			merged.QRCodeURL = authoritative.QRCodeURL
		}
	}
	return merged
}

// Update registers or updates a profile. The payment key is validated by
// shape; persistence happens before the call returns.
func (d *Directory) Update(profile domain.Mediator) error {
	if profile.ID == "" {
		return domain.Reject("mediator id is required")
	}
	if len(profile.Name) < 2 {
		return domain.Reject("name must have at least 2 characters")
	}
	if !pix.Valid(profile.PaymentKey) {
		return domain.Reject("invalid payment key")
	}

	var profiles []domain.Mediator
	err := d.store.Update(constants.TableMediators, &profiles, func() error {
		for i := range profiles {
			if profiles[i].ID == profile.ID {
				profiles[i] = profile
				return nil
			}
		}
		profiles = append(profiles, profile)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save mediator %s: %w", profile.ID, err)
	}

	d.InvalidateCache()
	d.logger.Info().Str("mediator_id", profile.ID).Str("name", profile.Name).Msg("mediator profile saved")
	return nil
}

// Remove deletes a profile. Unknown ids are a rejection, not an error.
func (d *Directory) Remove(id string) error {
	removed := false
	var profiles []domain.Mediator
	err := d.store.Update(constants.TableMediators, &profiles, func() error {
		kept := profiles[:0]
		for _, m := range profiles {
			if m.ID == id {
				removed = true
				continue
			}
			kept = append(kept, m)
		}
		profiles = kept
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove mediator %s: %w", id, err)
	}
	if !removed {
		return domain.Reject("mediator not registered")
	}

	d.InvalidateCache()
	d.logger.Info().Str("mediator_id", id).Msg("mediator profile removed")
	return nil
}

// Pool returns the ordered availability pool.
func (d *Directory) Pool() ([]domain.Mediator, error) {
	var pool []domain.Mediator
	if err := d.store.Load(constants.TableMediatorPool, &pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// JoinPool appends the mediator's current profile snapshot to the pool.
// Joining twice is a no-op; unregistered mediators are rejected.
func (d *Directory) JoinPool(id string) error {
	profile := d.Get(id)
	if profile == nil {
		return domain.Reject("register a mediator profile before joining the pool")
	}

	var pool []domain.Mediator
	err := d.store.Update(constants.TableMediatorPool, &pool, func() error {
		for _, m := range pool {
			if m.ID == id {
				return nil
			}
		}
		pool = append(pool, *profile)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to join pool: %w", err)
	}

	d.logger.Info().Str("mediator_id", id).Msg("mediator joined pool")
	return nil
}

// LeavePool removes the mediator from the pool. Idempotent.
func (d *Directory) LeavePool(id string) error {
	var pool []domain.Mediator
	err := d.store.Update(constants.TableMediatorPool, &pool, func() error {
		kept := pool[:0]
		for _, m := range pool {
			if m.ID != id {
				kept = append(kept, m)
			}
		}
		pool = kept
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to leave pool: %w", err)
	}

	d.logger.Info().Str("mediator_id", id).Msg("mediator left pool")
	return nil
}

// SelectNext picks the next mediator from pool round-robin. Returns nil on
// an empty pool and the sole member on a pool of one.
func (d *Directory) SelectNext(pool []domain.Mediator) *domain.Mediator {
	if len(pool) == 0 {
		d.logger.Warn().Msg("no mediator available")
		return nil
	}
	if len(pool) == 1 {
		m := pool[0]
		return &m
	}

	d.cursorMu.Lock()
	defer d.cursorMu.Unlock()
	m := pool[d.cursor%len(pool)]
	d.cursor = (d.cursor + 1) % len(pool)
	return &m
}

// ResetCursor restarts the round-robin rotation from the head of the pool.
func (d *Directory) ResetCursor() {
	d.cursorMu.Lock()
	d.cursor = 0
	d.cursorMu.Unlock()
	d.logger.Info().Msg("round-robin cursor reset")
}

type Stats struct {
	Registered  int `json:"registered"`
	WithKey     int `json:"with_key"`
	WithQRCode  int `json:"with_qr_code"`
	PoolMembers int `json:"pool_members"`
}

func (d *Directory) Stats() Stats {
	profiles := d.profiles()
	stats := Stats{Registered: len(profiles)}
	for _, m := range profiles {
		if m.PaymentKey != "" {
			stats.WithKey++
		}
		if m.QRCodeURL != "" {
			stats.WithQRCode++
		}
	}
	if pool, err := d.Pool(); err == nil {
		stats.PoolMembers = len(pool)
	}
	return stats
}
