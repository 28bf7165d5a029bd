package queue

import (
	"testing"
	"time"

	"apostado/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T, window, punishment time.Duration) *Registry {
	t.Helper()
	cfg := &config.Config{
		MaxConcurrentQueues: 3,
		CancellationWindow:  window,
		CancellationLimit:   3,
		PunishmentDuration:  punishment,
		SweepInterval:       time.Minute,
	}
	return NewRegistry(cfg, zerolog.Nop())
}

func TestMembershipCap(t *testing.T) {
	r := testRegistry(t, time.Minute, time.Minute)

	assert.True(t, r.CanJoin("p1"))
	r.RegisterMembership("g1", []string{"p1"})
	r.RegisterMembership("g2", []string{"p1"})
	assert.True(t, r.CanJoin("p1"))

	r.RegisterMembership("g3", []string{"p1"})
	assert.False(t, r.CanJoin("p1"))
	assert.Equal(t, 3, r.ActiveCount("p1"))

	r.ClearMembership("g2", []string{"p1"})
	assert.True(t, r.CanJoin("p1"))
	assert.ElementsMatch(t, []string{"g1", "g3"}, r.ActiveGroups("p1"))
}

func TestMembershipIdempotent(t *testing.T) {
	r := testRegistry(t, time.Minute, time.Minute)

	r.RegisterMembership("g1", []string{"p1", "p2"})
	r.RegisterMembership("g1", []string{"p1", "p2"})
	assert.Equal(t, 1, r.ActiveCount("p1"))

	r.ClearMembership("g1", []string{"p1", "p2"})
	r.ClearMembership("g1", []string{"p1", "p2"})
	assert.Equal(t, 0, r.ActiveCount("p1"))
	assert.Equal(t, 0, r.Stats().ActivePlayers)
}

func TestCancellationEscalation(t *testing.T) {
	r := testRegistry(t, time.Minute, time.Minute)

	res := r.RecordCancellation("p1")
	assert.False(t, res.Suspended)
	assert.False(t, res.WarnIncoming)
	assert.Equal(t, 1, res.Count)

	res = r.RecordCancellation("p1")
	assert.False(t, res.Suspended)
	assert.True(t, res.WarnIncoming)
	assert.Equal(t, 2, res.Count)

	res = r.RecordCancellation("p1")
	assert.True(t, res.Suspended)
	assert.Equal(t, 3, res.Count)

	assert.True(t, r.IsSuspended("p1"))
	assert.False(t, r.CanJoin("p1"))
	assert.Greater(t, r.SuspensionLeft("p1"), time.Duration(0))

	// Unrelated players are unaffected.
	assert.False(t, r.IsSuspended("p2"))
	assert.True(t, r.CanJoin("p2"))
}

func TestCancellationWindowSlides(t *testing.T) {
	r := testRegistry(t, 50*time.Millisecond, time.Minute)

	r.RecordCancellation("p1")
	r.RecordCancellation("p1")
	time.Sleep(60 * time.Millisecond)

	// Earlier entries fell out of the window, so this is a fresh count.
	res := r.RecordCancellation("p1")
	assert.False(t, res.Suspended)
	assert.Equal(t, 1, res.Count)
}

func TestSuspensionExpiresLazily(t *testing.T) {
	r := testRegistry(t, time.Minute, 40*time.Millisecond)

	for i := 0; i < 3; i++ {
		r.RecordCancellation("p1")
	}
	require.True(t, r.IsSuspended("p1"))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, r.IsSuspended("p1"))
	assert.Equal(t, time.Duration(0), r.SuspensionLeft("p1"))
	assert.True(t, r.CanJoin("p1"))
}

func TestSweepPurgesStaleState(t *testing.T) {
	r := testRegistry(t, 30*time.Millisecond, 30*time.Millisecond)

	for i := 0; i < 3; i++ {
		r.RecordCancellation("p1")
	}
	r.RecordCancellation("p2")

	time.Sleep(40 * time.Millisecond)
	cleaned := r.Sweep()
	assert.Greater(t, cleaned, 0)

	stats := r.Stats()
	assert.Equal(t, 0, stats.SuspendedPlayers)
	assert.Equal(t, 0, stats.PendingCancelLogs)
}
