package match

import (
	"testing"
	"time"

	"apostado/internal/domain"
	"apostado/internal/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecorder(t *testing.T) *Recorder {
	t.Helper()
	st, err := store.NewAt(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return NewRecorder(st, zerolog.Nop())
}

func TestNextSeqIsSequential(t *testing.T) {
	r := testRecorder(t)
	for want := 1; want <= 5; want++ {
		seq, err := r.NextSeq()
		require.NoError(t, err)
		assert.Equal(t, want, seq)
	}
}

func TestMatchRecordLifecycle(t *testing.T) {
	r := testRecorder(t)

	g := &domain.MatchGroup{
		ID:      "ch-1",
		Mode:    "1x1",
		Variant: "1emu",
		Tier:    10,
		Players: []string{"p1", "p2"},
		Mediator: &domain.Mediator{
			ID:   "med1",
			Name: "Med",
		},
		Amount: decimal.NewFromInt(10),
	}
	rec, err := r.Create(g)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, domain.MatchPending, rec.Status)
	assert.Equal(t, "med1", rec.MediatorID)
	assert.Equal(t, "1emu", rec.Variant)

	require.NoError(t, r.SetStatus("ch-1", domain.MatchAwaitingSettlement, "p2"))
	stored, err := r.Record("ch-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.MatchAwaitingSettlement, stored.Status)
	assert.Equal(t, "p2", stored.Winner)

	// Updating an unknown group is logged, not an error.
	require.NoError(t, r.SetStatus("nope", domain.MatchFinished, ""))

	missing, err := r.Record("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecentRecordsNewestFirst(t *testing.T) {
	r := testRecorder(t)
	for _, id := range []string{"ch-1", "ch-2", "ch-3"} {
		_, err := r.Create(&domain.MatchGroup{ID: id, Mode: "1x1", Tier: 10, Amount: decimal.NewFromInt(10)})
		require.NoError(t, err)
	}

	recent, err := r.RecentRecords(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "ch-3", recent[0].GroupID)
	assert.Equal(t, "ch-2", recent[1].GroupID)
}

func TestSubscriptionReplacedPerGroup(t *testing.T) {
	r := testRecorder(t)

	require.NoError(t, r.SaveSubscription(domain.SubscriptionRecord{
		GroupID: "ch-1", ChannelID: "ch-1", Kind: "room_wait", Timestamp: time.Now(),
	}))
	require.NoError(t, r.SaveSubscription(domain.SubscriptionRecord{
		GroupID: "ch-1", ChannelID: "ch-1", Kind: "room_active", Timestamp: time.Now(),
	}))

	subs, err := r.Subscriptions()
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "room_active", subs[0].Kind)

	require.NoError(t, r.RemoveSubscription("ch-1"))
	subs, err = r.Subscriptions()
	require.NoError(t, err)
	assert.Empty(t, subs)
}
