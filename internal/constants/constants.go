package constants

import "time"

const (
	// Queue limits.
	MaxConcurrentQueues = 3
	PartySize           = 2

	// Cancellation rate-limiting.
	CancellationWindow = 50 * time.Second
	CancellationLimit  = 3
	PunishmentDuration = 10 * time.Minute

	// Timers.
	ConfirmationTimeout = 5 * time.Minute
	ActionLockTTL       = 2 * time.Second
	DedupTTL            = 10 * time.Minute
	SweepInterval       = 5 * time.Minute
)

const (
	MediatorCacheTTL = 30 * time.Second
)

// Store tables. One flat JSON document each.
const (
	TableMediators     = "mediators"
	TableMediatorPool  = "mediator_pool"
	TableBilling       = "billing"
	TableMediatorHours = "mediator_hours"
	TableRanking       = "ranking"
	TableMatches       = "matches"
	TableSubscriptions = "subscriptions"
	TableGroupCounter  = "group_counter"
)

// MediatorFee is the fixed amount charged per mediated match, in BRL.
const MediatorFee = "1.00"

const (
	LeaderboardSize = 20
	WeeklyWindow    = 7 * 24 * time.Hour
	MonthlyWindow   = 30 * 24 * time.Hour
)

const (
	ShutdownTimeout = 5 * time.Second
)
