package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mediator is an escrow-like trusted intermediary. PaymentKey is a PIX key
// validated by shape only (see internal/pix).
type Mediator struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PaymentKey string `json:"payment_key"`
	QRCodeURL  string `json:"qrcode_url,omitempty"`
}

// GroupState is the lifecycle of a formed match group. Transitions are
// monotonically forward; Cancelled is terminal.
type GroupState int

const (
	StatePaired GroupState = iota
	StateConfirming
	StateRoomWait
	StateRoomActive
	StateResolved
	StateCancelled
)

func (s GroupState) String() string {
	switch s {
	case StatePaired:
		return "paired"
	case StateConfirming:
		return "confirming"
	case StateRoomWait:
		return "room_wait"
	case StateRoomActive:
		return "room_active"
	case StateResolved:
		return "resolved"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// MatchGroup is the serializable state of a formed pairing.
type MatchGroup struct {
	ID        string          `json:"id"` // channel/thread id
	Seq       int             `json:"seq"`
	Mode      string          `json:"mode"`    // e.g. "1x1", "3x3misto"
	Variant   string          `json:"variant"` // "", "1emu", "2emu"
	Tier      int             `json:"tier"`    // stake per player, whole BRL
	Players   []string        `json:"players"`
	Mediator  *Mediator       `json:"mediator,omitempty"`
	State     GroupState      `json:"state"`
	RoomID    string          `json:"room_id,omitempty"`
	RoomPass  string          `json:"room_pass,omitempty"`
	Winner    string          `json:"winner,omitempty"`
	Amount    decimal.Decimal `json:"amount"` // displayed payable amount
	CreatedAt time.Time       `json:"created_at"`
}

// BillingRecord is one fixed-fee entry for a mediated match. Append-only.
type BillingRecord struct {
	ID           string          `json:"id"`
	MediatorID   string          `json:"mediator_id"`
	MediatorName string          `json:"mediator_name"`
	Amount       decimal.Decimal `json:"amount"`
	Mode         string          `json:"mode"`
	GroupID      string          `json:"group_id,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// WorkSession is one clock-in/clock-out span. End is nil while open.
type WorkSession struct {
	ID    string     `json:"id"`
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// MediatorHours groups a mediator's sessions. At most one Active session.
type MediatorHours struct {
	Name     string        `json:"name"`
	Sessions []WorkSession `json:"sessions"`
	Active   *WorkSession  `json:"active,omitempty"`
}

// RankingEntry tracks a player's wins. History holds win timestamps and
// backs the windowed leaderboards.
type RankingEntry struct {
	Wins    int         `json:"wins"`
	History []time.Time `json:"history"`
}

type MatchStatus string

const (
	MatchPending            MatchStatus = "pending"
	MatchCancelled          MatchStatus = "cancelled"
	MatchAwaitingSettlement MatchStatus = "awaiting_settlement"
	MatchFinished           MatchStatus = "finished"
)

// MatchRecord is the durable row for a formed group.
type MatchRecord struct {
	ID         string      `json:"id"` // nanoid
	GroupID    string      `json:"group_id"`
	Mode       string      `json:"mode"`
	Variant    string      `json:"variant,omitempty"`
	Tier       int         `json:"tier"`
	Players    []string    `json:"players"`
	MediatorID string      `json:"mediator_id"`
	Status     MatchStatus `json:"status"`
	Winner     string      `json:"winner,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// SubscriptionRecord registers an active listener so it can be re-armed
// after a restart.
type SubscriptionRecord struct {
	GroupID   string    `json:"group_id"`
	ChannelID string    `json:"channel_id"`
	Kind      string    `json:"kind"` // "confirmation", "room_wait", "room_active"
	Timestamp time.Time `json:"timestamp"`
}
