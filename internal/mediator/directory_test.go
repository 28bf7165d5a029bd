package mediator

import (
	"testing"
	"time"

	"apostado/internal/config"
	"apostado/internal/domain"
	"apostado/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	st, err := store.NewAt(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return NewDirectory(st, &config.Config{MediatorCacheTTL: time.Millisecond}, zerolog.Nop())
}

func profile(id, name, key string) domain.Mediator {
	return domain.Mediator{ID: id, Name: name, PaymentKey: key}
}

func TestUpdateValidatesPaymentKey(t *testing.T) {
	d := newTestDirectory(t)

	err := d.Update(profile("1", "Ana", "not-a-key"))
	_, ok := domain.AsRejection(err)
	assert.True(t, ok)

	require.NoError(t, d.Update(profile("1", "Ana", "12345678901")))
	assert.True(t, d.IsMediator("1"))
	assert.False(t, d.IsMediator("2"))
}

func TestUpdateOverwritesExistingProfile(t *testing.T) {
	d := newTestDirectory(t)

	require.NoError(t, d.Update(profile("1", "Ana", "12345678901")))
	require.NoError(t, d.Update(profile("1", "Ana Maria", "ana@example.com")))

	got := d.Get("1")
	require.NotNil(t, got)
	assert.Equal(t, "Ana Maria", got.Name)
	assert.Equal(t, "ana@example.com", got.PaymentKey)
}

func TestRemoveUnknownIsRejection(t *testing.T) {
	d := newTestDirectory(t)

	err := d.Remove("missing")
	_, ok := domain.AsRejection(err)
	assert.True(t, ok)
}

func TestResolveAuthoritativeWins(t *testing.T) {
	d := newTestDirectory(t)
	require.NoError(t, d.Update(domain.Mediator{
		ID: "1", Name: "Ana", PaymentKey: "12345678901", QRCodeURL: "https://cdn/qr.png",
	}))

	merged := d.Resolve("1", &domain.Mediator{ID: "1", Name: "stale", PaymentKey: "stale-key"})
	assert.Equal(t, "Ana", merged.Name)
	assert.Equal(t, "12345678901", merged.PaymentKey)
	assert.Equal(t, "https://cdn/qr.png", merged.QRCodeURL)

	// Unknown mediator keeps the partial data.
	merged = d.Resolve("2", &domain.Mediator{ID: "2", Name: "Bia", PaymentKey: "98765432109"})
	assert.Equal(t, "Bia", merged.Name)
	assert.Equal(t, "98765432109", merged.PaymentKey)
}

func TestSelectNextRoundRobin(t *testing.T) {
	d := newTestDirectory(t)
	pool := []domain.Mediator{
		profile("a", "A", "12345678901"),
		profile("b", "B", "12345678901"),
		profile("c", "C", "12345678901"),
	}

	var seen []string
	for i := 0; i < len(pool); i++ {
		m := d.SelectNext(pool)
		require.NotNil(t, m)
		seen = append(seen, m.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, seen)

	// Call N+1 wraps to the first again.
	m := d.SelectNext(pool)
	require.NotNil(t, m)
	assert.Equal(t, "a", m.ID)
}

func TestSelectNextEdgeCases(t *testing.T) {
	d := newTestDirectory(t)

	assert.Nil(t, d.SelectNext(nil))

	only := []domain.Mediator{profile("solo", "S", "12345678901")}
	for i := 0; i < 3; i++ {
		m := d.SelectNext(only)
		require.NotNil(t, m)
		assert.Equal(t, "solo", m.ID)
	}
}

func TestPoolJoinLeave(t *testing.T) {
	d := newTestDirectory(t)

	err := d.JoinPool("1")
	_, ok := domain.AsRejection(err)
	assert.True(t, ok, "unregistered mediator cannot join")

	require.NoError(t, d.Update(profile("1", "Ana", "12345678901")))
	require.NoError(t, d.JoinPool("1"))
	require.NoError(t, d.JoinPool("1")) // idempotent

	pool, err := d.Pool()
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "1", pool[0].ID)

	require.NoError(t, d.LeavePool("1"))
	require.NoError(t, d.LeavePool("1")) // idempotent

	pool, err = d.Pool()
	require.NoError(t, err)
	assert.Empty(t, pool)
}
