package match

import (
	"fmt"
	"time"

	"apostado/internal/constants"
	"apostado/internal/domain"
	"apostado/internal/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Recorder persists durable match state: the match rows themselves, the
// sequential group counter and the subscription registry used to re-arm
// listeners after a restart.
type Recorder struct {
	store  *store.Store
	logger zerolog.Logger
}

func NewRecorder(st *store.Store, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  st,
		logger: logger.With().Str("component", "match_recorder").Logger(),
	}
}

type counterTable struct {
	Next int `json:"next"`
}

// NextSeq returns the next sequential group number, persisting the bump.
func (r *Recorder) NextSeq() (int, error) {
	var table counterTable
	var seq int
	err := r.store.Update(constants.TableGroupCounter, &table, func() error {
		if table.Next == 0 {
			table.Next = 1
		}
		seq = table.Next
		table.Next++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("advance group counter: %w", err)
	}
	return seq, nil
}

// Create appends a pending match row for a freshly formed group.
func (r *Recorder) Create(g *domain.MatchGroup) (*domain.MatchRecord, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate match id: %w", err)
	}

	rec := domain.MatchRecord{
		ID:        id,
		GroupID:   g.ID,
		Mode:      g.Mode,
		Variant:   g.Variant,
		Tier:      g.Tier,
		Players:   append([]string(nil), g.Players...),
		Status:    domain.MatchPending,
		CreatedAt: time.Now(),
	}
	if g.Mediator != nil {
		rec.MediatorID = g.Mediator.ID
	}

	var table []domain.MatchRecord
	err = r.store.Update(constants.TableMatches, &table, func() error {
		table = append(table, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist match record: %w", err)
	}
	return &rec, nil
}

// SetStatus updates the row for a group, recording the winner when one is
// known. Unknown groups are logged and skipped so display flows never fail
// on a missing row.
func (r *Recorder) SetStatus(groupID string, status domain.MatchStatus, winner string) error {
	var table []domain.MatchRecord
	err := r.store.Update(constants.TableMatches, &table, func() error {
		for i := range table {
			if table[i].GroupID == groupID {
				table[i].Status = status
				if winner != "" {
					table[i].Winner = winner
				}
				return nil
			}
		}
		r.logger.Warn().Str("group_id", groupID).Msg("no match record for group")
		return nil
	})
	if err != nil {
		return fmt.Errorf("update match record: %w", err)
	}
	return nil
}

// Record returns the row for a group, nil when absent.
func (r *Recorder) Record(groupID string) (*domain.MatchRecord, error) {
	var table []domain.MatchRecord
	if err := r.store.Load(constants.TableMatches, &table); err != nil {
		return nil, fmt.Errorf("load match records: %w", err)
	}
	for i := range table {
		if table[i].GroupID == groupID {
			return &table[i], nil
		}
	}
	return nil, nil
}

// RecentRecords returns the newest n match rows, newest first.
func (r *Recorder) RecentRecords(n int) ([]domain.MatchRecord, error) {
	var table []domain.MatchRecord
	if err := r.store.Load(constants.TableMatches, &table); err != nil {
		return nil, fmt.Errorf("load match records: %w", err)
	}
	out := make([]domain.MatchRecord, 0, n)
	for i := len(table) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, table[i])
	}
	return out, nil
}

// SaveSubscription registers a live listener so a restart can re-arm it.
// One record per group; a newer phase replaces the old one.
func (r *Recorder) SaveSubscription(rec domain.SubscriptionRecord) error {
	var table []domain.SubscriptionRecord
	err := r.store.Update(constants.TableSubscriptions, &table, func() error {
		for i := range table {
			if table[i].GroupID == rec.GroupID {
				table[i] = rec
				return nil
			}
		}
		table = append(table, rec)
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist subscription: %w", err)
	}
	return nil
}

func (r *Recorder) RemoveSubscription(groupID string) error {
	var table []domain.SubscriptionRecord
	err := r.store.Update(constants.TableSubscriptions, &table, func() error {
		kept := table[:0]
		for _, s := range table {
			if s.GroupID != groupID {
				kept = append(kept, s)
			}
		}
		table = kept
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}
	return nil
}

func (r *Recorder) Subscriptions() ([]domain.SubscriptionRecord, error) {
	var table []domain.SubscriptionRecord
	if err := r.store.Load(constants.TableSubscriptions, &table); err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	return table, nil
}
