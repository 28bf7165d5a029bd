package rank

import (
	"testing"
	"time"

	"apostado/internal/constants"
	"apostado/internal/domain"
	"apostado/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBoard(t *testing.T) (*Board, *store.Store) {
	t.Helper()
	st, err := store.NewAt(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return NewBoard(st, zerolog.Nop()), st
}

func TestAwardAndProfile(t *testing.T) {
	b, _ := testBoard(t)

	require.NoError(t, b.Award("p1"))
	require.NoError(t, b.Award("p1"))
	require.NoError(t, b.Award("p2"))

	wins, pos, err := b.Profile("p1")
	require.NoError(t, err)
	assert.Equal(t, 2, wins)
	assert.Equal(t, 1, pos)

	wins, pos, err = b.Profile("p2")
	require.NoError(t, err)
	assert.Equal(t, 1, wins)
	assert.Equal(t, 2, pos)

	wins, pos, err = b.Profile("nobody")
	require.NoError(t, err)
	assert.Zero(t, wins)
	assert.Zero(t, pos)
}

func TestRevokeFloorsAtZero(t *testing.T) {
	b, _ := testBoard(t)

	require.NoError(t, b.Award("p1"))
	require.NoError(t, b.Revoke("p1"))
	require.NoError(t, b.Revoke("p1"))
	require.NoError(t, b.Revoke("unknown"))

	wins, _, err := b.Profile("p1")
	require.NoError(t, err)
	assert.Zero(t, wins)
}

func TestRevokePrunesNewestHistory(t *testing.T) {
	b, st := testBoard(t)

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()
	table := map[string]domain.RankingEntry{
		"p1": {Wins: 2, History: []time.Time{old, recent}},
	}
	require.NoError(t, st.Save(constants.TableRanking, table))

	require.NoError(t, b.Revoke("p1"))

	var after map[string]domain.RankingEntry
	require.NoError(t, st.Load(constants.TableRanking, &after))
	require.Len(t, after["p1"].History, 1)
	assert.WithinDuration(t, old, after["p1"].History[0], time.Second)
}

func TestTopWindows(t *testing.T) {
	b, st := testBoard(t)

	now := time.Now()
	table := map[string]domain.RankingEntry{
		"steady": {Wins: 3, History: []time.Time{
			now.Add(-60 * 24 * time.Hour),
			now.Add(-10 * 24 * time.Hour),
			now.Add(-time.Hour),
		}},
		"fresh": {Wins: 2, History: []time.Time{
			now.Add(-time.Hour),
			now.Add(-2 * time.Hour),
		}},
		"dormant": {Wins: 5, History: []time.Time{
			now.Add(-90 * 24 * time.Hour),
			now.Add(-91 * 24 * time.Hour),
			now.Add(-92 * 24 * time.Hour),
			now.Add(-93 * 24 * time.Hour),
			now.Add(-94 * 24 * time.Hour),
		}},
	}
	require.NoError(t, st.Save(constants.TableRanking, table))

	overall, err := b.Top(10, WindowOverall)
	require.NoError(t, err)
	require.Len(t, overall, 3)
	assert.Equal(t, "dormant", overall[0].PlayerID)

	weekly, err := b.Top(10, WindowWeekly)
	require.NoError(t, err)
	require.Len(t, weekly, 2)
	assert.Equal(t, "fresh", weekly[0].PlayerID)
	assert.Equal(t, 2, weekly[0].Wins)
	assert.Equal(t, "steady", weekly[1].PlayerID)
	assert.Equal(t, 1, weekly[1].Wins)

	monthly, err := b.Top(10, WindowMonthly)
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, 2, monthly[0].Wins)
	assert.Equal(t, 2, monthly[1].Wins)
	// Tie broken by id.
	assert.Equal(t, "fresh", monthly[0].PlayerID)
}

func TestTopTruncates(t *testing.T) {
	b, _ := testBoard(t)
	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, b.Award(p))
	}
	top, err := b.Top(2, WindowOverall)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestEmptyBoard(t *testing.T) {
	b, _ := testBoard(t)
	top, err := b.Top(20, WindowOverall)
	require.NoError(t, err)
	assert.Empty(t, top)
}
