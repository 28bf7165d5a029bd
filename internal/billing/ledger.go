package billing

import (
	"fmt"
	"time"

	"apostado/internal/constants"
	"apostado/internal/domain"
	"apostado/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Ledger tracks mediator work sessions (clock-in/out) and the append-only
// fee log, and computes earnings over rolling windows.
type Ledger struct {
	store  *store.Store
	logger zerolog.Logger
	fee    decimal.Decimal
}

func NewLedger(st *store.Store, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store:  st,
		logger: logger.With().Str("component", "billing").Logger(),
		fee:    decimal.RequireFromString(constants.MediatorFee),
	}
}

// Fee is the fixed amount charged per mediated match.
func (l *Ledger) Fee() decimal.Decimal {
	return l.fee
}

// ClockIn opens a work session. Returns false when one is already open;
// duplicate clock-in never creates a second session.
func (l *Ledger) ClockIn(mediatorID, name string) (bool, error) {
	opened := false
	var hours map[string]domain.MediatorHours
	err := l.store.Update(constants.TableMediatorHours, &hours, func() error {
		if hours == nil {
			hours = make(map[string]domain.MediatorHours)
		}
		entry := hours[mediatorID]
		entry.Name = name
		if entry.Active == nil {
			entry.Active = &domain.WorkSession{
				ID:    uuid.New().String(),
				Start: time.Now(),
			}
			opened = true
		}
		hours[mediatorID] = entry
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to clock in %s: %w", mediatorID, err)
	}

	if opened {
		l.logger.Info().Str("mediator_id", mediatorID).Str("name", name).Msg("mediator clocked in")
	} else {
		l.logger.Debug().Str("mediator_id", mediatorID).Msg("clock-in ignored, session already open")
	}
	return opened, nil
}

// ClockOut closes the open session and moves it to history. Returns false
// when no session is open.
func (l *Ledger) ClockOut(mediatorID string) (bool, error) {
	closed := false
	var minutes int
	var hours map[string]domain.MediatorHours
	err := l.store.Update(constants.TableMediatorHours, &hours, func() error {
		if hours == nil {
			hours = make(map[string]domain.MediatorHours)
		}
		entry, ok := hours[mediatorID]
		if !ok || entry.Active == nil {
			return nil
		}
		end := time.Now()
		session := *entry.Active
		session.End = &end
		entry.Sessions = append(entry.Sessions, session)
		entry.Active = nil
		hours[mediatorID] = entry
		closed = true
		minutes = int(end.Sub(session.Start).Minutes())
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to clock out %s: %w", mediatorID, err)
	}

	if closed {
		l.logger.Info().Str("mediator_id", mediatorID).Int("minutes", minutes).Msg("mediator clocked out")
	} else {
		l.logger.Debug().Str("mediator_id", mediatorID).Msg("clock-out ignored, no open session")
	}
	return closed, nil
}

// RecordMatchFee appends one fixed-fee record. Write failures surface to the
// caller, never silently.
func (l *Ledger) RecordMatchFee(mediatorID, name, mode, groupID string) error {
	record := domain.BillingRecord{
		ID:           uuid.New().String(),
		MediatorID:   mediatorID,
		MediatorName: name,
		Amount:       l.fee,
		Mode:         mode,
		GroupID:      groupID,
		Timestamp:    time.Now(),
	}

	var records []domain.BillingRecord
	err := l.store.Update(constants.TableBilling, &records, func() error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record match fee for %s: %w", mediatorID, err)
	}

	l.logger.Info().
		Str("mediator_id", mediatorID).
		Str("mode", mode).
		Str("group_id", groupID).
		Str("amount", l.fee.StringFixed(2)).
		Msg("match fee recorded")
	return nil
}

type Earnings struct {
	Total          decimal.Decimal
	MatchCount     int
	MinutesWorked  int
	AveragePerHour decimal.Decimal
	WindowDays     int
}

// ComputeEarnings sums fee records and worked time inside the trailing
// window. An in-progress session counts up to now when its start falls
// inside the window. AveragePerHour is zero when no time was worked.
func (l *Ledger) ComputeEarnings(mediatorID string, windowDays int) (Earnings, error) {
	now := time.Now()
	windowStart := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	var records []domain.BillingRecord
	if err := l.store.Load(constants.TableBilling, &records); err != nil {
		return Earnings{}, err
	}

	earnings := Earnings{Total: decimal.Zero, AveragePerHour: decimal.Zero, WindowDays: windowDays}
	for _, r := range records {
		if r.MediatorID == mediatorID && !r.Timestamp.Before(windowStart) {
			earnings.MatchCount++
			earnings.Total = earnings.Total.Add(r.Amount)
		}
	}

	var hours map[string]domain.MediatorHours
	if err := l.store.Load(constants.TableMediatorHours, &hours); err != nil {
		return Earnings{}, err
	}

	var worked time.Duration
	if entry, ok := hours[mediatorID]; ok {
		for _, s := range entry.Sessions {
			if s.End != nil && !s.Start.Before(windowStart) {
				worked += s.End.Sub(s.Start)
			}
		}
		if entry.Active != nil && !entry.Active.Start.Before(windowStart) {
			worked += now.Sub(entry.Active.Start)
		}
	}

	earnings.MinutesWorked = int(worked.Minutes())
	if worked > 0 {
		hoursWorked := decimal.NewFromFloat(worked.Hours())
		if hoursWorked.IsPositive() {
			earnings.AveragePerHour = earnings.Total.DivRound(hoursWorked, 2)
		}
	}
	return earnings, nil
}

type OverallStats struct {
	MatchCount      int
	TotalRevenue    decimal.Decimal
	ActiveMediators int
	WindowDays      int
}

// OverallStats aggregates fee records across all mediators in the window.
func (l *Ledger) OverallStats(windowDays int) (OverallStats, error) {
	windowStart := time.Now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	var records []domain.BillingRecord
	if err := l.store.Load(constants.TableBilling, &records); err != nil {
		return OverallStats{}, err
	}

	stats := OverallStats{TotalRevenue: decimal.Zero, WindowDays: windowDays}
	seen := make(map[string]struct{})
	for _, r := range records {
		if r.Timestamp.Before(windowStart) {
			continue
		}
		stats.MatchCount++
		stats.TotalRevenue = stats.TotalRevenue.Add(r.Amount)
		seen[r.MediatorID] = struct{}{}
	}
	stats.ActiveMediators = len(seen)
	return stats, nil
}

// DisplayName looks up a mediator's last known name across the hours table
// and the fee log.
func (l *Ledger) DisplayName(mediatorID string) string {
	var hours map[string]domain.MediatorHours
	if err := l.store.Load(constants.TableMediatorHours, &hours); err == nil {
		if entry, ok := hours[mediatorID]; ok && entry.Name != "" {
			return entry.Name
		}
	}

	var records []domain.BillingRecord
	if err := l.store.Load(constants.TableBilling, &records); err == nil {
		for _, r := range records {
			if r.MediatorID == mediatorID {
				return r.MediatorName
			}
		}
	}
	return "unknown"
}

// KnownMediators lists every mediator with an hours entry.
func (l *Ledger) KnownMediators() []domain.Mediator {
	var hours map[string]domain.MediatorHours
	if err := l.store.Load(constants.TableMediatorHours, &hours); err != nil {
		return nil
	}
	known := make([]domain.Mediator, 0, len(hours))
	for id, entry := range hours {
		known = append(known, domain.Mediator{ID: id, Name: entry.Name})
	}
	return known
}
