package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRoomCredentials(t *testing.T) {
	tests := []struct {
		name    string
		content string
		id      string
		pass    string
		ok      bool
	}{
		{"id and pass", "12345 9", "12345", "9", true},
		{"long id and pass", "1234567890 1234", "1234567890", "1234", true},
		{"extra whitespace", "  12345   99  ", "12345", "99", true},
		{"id too short", "123 9", "", "", false},
		{"id too long", "12345678901 9", "", "", false},
		{"pass too long", "12345 12345", "", "", false},
		{"single token", "12345", "", "", false},
		{"trailing chatter", "445566 12 boa sorte", "445566", "12", true},
		{"non numeric", "sala 1234", "", "", false},
		{"chatter before tokens", "sala 445566 12", "", "", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, pass, ok := ParseRoomCredentials(tt.content)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.pass, pass)
		})
	}
}

func TestDedupCacheExpires(t *testing.T) {
	d := newDedupCache(40 * time.Millisecond)

	assert.False(t, d.Seen("g1", "12345 9"))
	assert.True(t, d.Seen("g1", "12345 9"))
	assert.False(t, d.Seen("g2", "12345 9"), "groups are independent")

	time.Sleep(50 * time.Millisecond)
	assert.False(t, d.Seen("g1", "12345 9"), "expired entry is accepted again")

	d.Drop("g1")
	d.Purge()
	assert.False(t, d.Seen("g2", "12345 9"))
}

func TestActionLocksDropRepeats(t *testing.T) {
	locks := newActionLocks(40 * time.Millisecond)

	assert.True(t, locks.TryAcquire("g1", "confirm", "p1"))
	assert.False(t, locks.TryAcquire("g1", "confirm", "p1"))
	assert.True(t, locks.TryAcquire("g1", "confirm", "p2"), "different actor is not blocked")
	assert.True(t, locks.TryAcquire("g1", "cancel", "p1"), "different action is not blocked")

	time.Sleep(50 * time.Millisecond)
	assert.True(t, locks.TryAcquire("g1", "confirm", "p1"))
	locks.Purge()
}
