package rank

import (
	"fmt"
	"sort"
	"time"

	"apostado/internal/constants"
	"apostado/internal/domain"
	"apostado/internal/store"

	"github.com/rs/zerolog"
)

// Window selects which slice of win history a leaderboard counts.
type Window int

const (
	WindowOverall Window = iota
	WindowWeekly
	WindowMonthly
)

func (w Window) String() string {
	switch w {
	case WindowWeekly:
		return "weekly"
	case WindowMonthly:
		return "monthly"
	default:
		return "overall"
	}
}

func (w Window) duration() time.Duration {
	switch w {
	case WindowWeekly:
		return constants.WeeklyWindow
	case WindowMonthly:
		return constants.MonthlyWindow
	default:
		return 0
	}
}

// Board keeps per-player win counts plus a timestamp per win so windowed
// leaderboards can be derived from the same table.
type Board struct {
	store  *store.Store
	logger zerolog.Logger
}

func NewBoard(st *store.Store, logger zerolog.Logger) *Board {
	return &Board{
		store:  st,
		logger: logger.With().Str("component", "ranking").Logger(),
	}
}

// Award credits one win to the player.
func (b *Board) Award(playerID string) error {
	var table map[string]domain.RankingEntry
	err := b.store.Update(constants.TableRanking, &table, func() error {
		if table == nil {
			table = make(map[string]domain.RankingEntry)
		}
		entry := table[playerID]
		entry.Wins++
		entry.History = append(entry.History, time.Now())
		table[playerID] = entry
		return nil
	})
	if err != nil {
		return fmt.Errorf("award win: %w", err)
	}
	b.logger.Info().Str("player_id", playerID).Msg("win awarded")
	return nil
}

// Revoke removes one win, flooring at zero. The newest history entry goes
// with it so windowed boards stay consistent with the counter.
func (b *Board) Revoke(playerID string) error {
	var table map[string]domain.RankingEntry
	err := b.store.Update(constants.TableRanking, &table, func() error {
		if table == nil {
			return nil
		}
		entry, ok := table[playerID]
		if !ok || entry.Wins == 0 {
			return nil
		}
		entry.Wins--
		if len(entry.History) > 0 {
			newest := 0
			for i := range entry.History {
				if entry.History[i].After(entry.History[newest]) {
					newest = i
				}
			}
			entry.History = append(entry.History[:newest], entry.History[newest+1:]...)
		}
		table[playerID] = entry
		return nil
	})
	if err != nil {
		return fmt.Errorf("revoke win: %w", err)
	}
	b.logger.Info().Str("player_id", playerID).Msg("win revoked")
	return nil
}

// Standing is one leaderboard row.
type Standing struct {
	PlayerID string
	Wins     int
}

// Top returns at most n players ordered by wins inside the window, ties
// broken by player id for a stable board.
func (b *Board) Top(n int, window Window) ([]Standing, error) {
	table, err := b.load()
	if err != nil {
		return nil, err
	}

	cutoff := time.Time{}
	if d := window.duration(); d > 0 {
		cutoff = time.Now().Add(-d)
	}

	standings := make([]Standing, 0, len(table))
	for id, entry := range table {
		wins := entry.Wins
		if !cutoff.IsZero() {
			wins = 0
			for _, ts := range entry.History {
				if !ts.Before(cutoff) {
					wins++
				}
			}
		}
		if wins > 0 {
			standings = append(standings, Standing{PlayerID: id, Wins: wins})
		}
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Wins != standings[j].Wins {
			return standings[i].Wins > standings[j].Wins
		}
		return standings[i].PlayerID < standings[j].PlayerID
	})

	if n > 0 && len(standings) > n {
		standings = standings[:n]
	}
	return standings, nil
}

// Profile reports a player's overall wins and 1-based position, position
// zero when the player has no wins.
func (b *Board) Profile(playerID string) (wins, position int, err error) {
	standings, err := b.Top(0, WindowOverall)
	if err != nil {
		return 0, 0, err
	}
	for i, s := range standings {
		if s.PlayerID == playerID {
			return s.Wins, i + 1, nil
		}
	}
	return 0, 0, nil
}

func (b *Board) load() (map[string]domain.RankingEntry, error) {
	var table map[string]domain.RankingEntry
	if err := b.store.Load(constants.TableRanking, &table); err != nil {
		return nil, fmt.Errorf("load ranking: %w", err)
	}
	if table == nil {
		table = make(map[string]domain.RankingEntry)
	}
	return table, nil
}
