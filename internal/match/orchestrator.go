package match

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"apostado/internal/billing"
	"apostado/internal/config"
	"apostado/internal/constants"
	"apostado/internal/display"
	"apostado/internal/domain"
	"apostado/internal/mediator"
	"apostado/internal/pix"
	"apostado/internal/platform"
	"apostado/internal/queue"
	"apostado/internal/rank"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

type bucketKey struct {
	Mode    string
	Variant string
	Tier    int
}

func (k bucketKey) label() string {
	label := k.Mode
	if k.Variant != "" {
		label += "-" + k.Variant
	}
	return fmt.Sprintf("%s-%d", label, k.Tier)
}

type liveGroup struct {
	domain.MatchGroup

	key       bucketKey
	confirms  map[string]bool
	statusMsg string
	timer     *time.Timer
	subs      []platform.Subscription
	teardown  sync.Once
}

// Orchestrator pairs queued players into match groups and drives each group
// through confirmation, room setup and outcome detection. Waiting buckets
// and live groups are runtime-only; durable rows go through the Recorder.
type Orchestrator struct {
	cfg       *config.Config
	logger    zerolog.Logger
	platform  platform.Platform
	mediators *mediator.Directory
	registry  *queue.Registry
	ledger    *billing.Ledger
	ranking   *rank.Board
	edits     *display.EditQueue
	recorder  *Recorder

	locks *actionLocks
	dedup *dedupCache

	mu      sync.Mutex
	buckets map[bucketKey][]string
	groups  map[string]*liveGroup // by channel id

	channelWatch platform.Subscription
}

func NewOrchestrator(
	cfg *config.Config,
	p platform.Platform,
	dir *mediator.Directory,
	reg *queue.Registry,
	ledger *billing.Ledger,
	board *rank.Board,
	edits *display.EditQueue,
	recorder *Recorder,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		logger:    logger.With().Str("component", "orchestrator").Logger(),
		platform:  p,
		mediators: dir,
		registry:  reg,
		ledger:    ledger,
		ranking:   board,
		edits:     edits,
		recorder:  recorder,
		locks:     newActionLocks(constants.ActionLockTTL),
		dedup:     newDedupCache(constants.DedupTTL),
		buckets:   make(map[bucketKey][]string),
		groups:    make(map[string]*liveGroup),
	}
}

// JoinResult reports whether the player was paired immediately or queued.
type JoinResult struct {
	Paired   bool
	Group    *domain.MatchGroup
	Position int
}

// Join places the player in the (mode, variant, tier) bucket, forming a
// group as soon as it holds a full party.
func (o *Orchestrator) Join(ctx context.Context, playerID, mode, variant string, tier int) (*JoinResult, error) {
	if !o.validTier(tier) {
		return nil, domain.Reject("invalid stake value: %d", tier)
	}
	if o.registry.IsSuspended(playerID) {
		left := o.registry.SuspensionLeft(playerID).Round(time.Second)
		return nil, domain.Reject("you are suspended from queues for another %s", left)
	}
	if !o.registry.CanJoin(playerID) {
		return nil, domain.Reject("you already have %d active queues", o.cfg.MaxConcurrentQueues)
	}
	pool, err := o.mediators.Pool()
	if err != nil {
		return nil, fmt.Errorf("check mediator pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, domain.Reject("no mediator is on duty right now")
	}

	key := bucketKey{Mode: mode, Variant: variant, Tier: tier}

	o.mu.Lock()
	for _, waiting := range o.buckets[key] {
		if waiting == playerID {
			o.mu.Unlock()
			return nil, domain.Reject("you are already waiting in this queue")
		}
	}
	o.buckets[key] = append(o.buckets[key], playerID)

	var party []string
	if len(o.buckets[key]) >= constants.PartySize {
		party = o.buckets[key][:constants.PartySize]
		o.buckets[key] = append([]string(nil), o.buckets[key][constants.PartySize:]...)
	}
	position := len(o.buckets[key])
	o.mu.Unlock()

	if party == nil {
		o.logger.Info().
			Str("player_id", playerID).
			Str("bucket", key.label()).
			Msg("player queued")
		return &JoinResult{Position: position}, nil
	}

	group, err := o.formGroup(ctx, key, party)
	if err != nil {
		// Give the reserved slots back so the players are not lost.
		o.mu.Lock()
		o.buckets[key] = append(party, o.buckets[key]...)
		o.mu.Unlock()
		return nil, err
	}
	return &JoinResult{Paired: true, Group: group}, nil
}

// Leave removes the player from a waiting bucket before pairing.
func (o *Orchestrator) Leave(playerID, mode, variant string, tier int) error {
	key := bucketKey{Mode: mode, Variant: variant, Tier: tier}

	o.mu.Lock()
	defer o.mu.Unlock()

	waiting := o.buckets[key]
	for i, id := range waiting {
		if id == playerID {
			o.buckets[key] = append(waiting[:i], waiting[i+1:]...)
			if len(o.buckets[key]) == 0 {
				delete(o.buckets, key)
			}
			return nil
		}
	}
	return domain.Reject("you are not waiting in this queue")
}

// Ticket describes one waiting-bucket slot held by a player.
type Ticket struct {
	Mode     string
	Variant  string
	Tier     int
	Position int
}

// Waiting lists the buckets a player currently sits in.
func (o *Orchestrator) Waiting(playerID string) []Ticket {
	o.mu.Lock()
	defer o.mu.Unlock()

	var tickets []Ticket
	for key, waiting := range o.buckets {
		for i, id := range waiting {
			if id == playerID {
				tickets = append(tickets, Ticket{
					Mode:     key.Mode,
					Variant:  key.Variant,
					Tier:     key.Tier,
					Position: i + 1,
				})
			}
		}
	}
	return tickets
}

func (o *Orchestrator) formGroup(ctx context.Context, key bucketKey, players []string) (*domain.MatchGroup, error) {
	seq, err := o.recorder.NextSeq()
	if err != nil {
		return nil, err
	}

	pool, err := o.mediators.Pool()
	if err != nil {
		return nil, fmt.Errorf("load mediator pool: %w", err)
	}
	med := o.mediators.SelectNext(pool)
	if med == nil {
		return nil, domain.ErrNoMediators
	}

	name := fmt.Sprintf("%s-%d", key.label(), seq)
	channelID, err := o.platform.CreateChannel(ctx, o.cfg.MatchParentChannel, name)
	if err != nil {
		return nil, fmt.Errorf("create match channel: %w", err)
	}

	g := &liveGroup{
		MatchGroup: domain.MatchGroup{
			ID:        channelID,
			Seq:       seq,
			Mode:      key.Mode,
			Variant:   key.Variant,
			Tier:      key.Tier,
			Players:   append([]string(nil), players...),
			Mediator:  med,
			State:     domain.StateConfirming,
			Amount:    decimal.NewFromInt(int64(key.Tier)),
			CreatedAt: time.Now(),
		},
		key:      key,
		confirms: make(map[string]bool),
	}

	o.registry.RegisterMembership(channelID, players)

	if _, err := o.recorder.Create(&g.MatchGroup); err != nil {
		o.logger.Error().Err(err).Str("group_id", channelID).Msg("match record write failed")
	}

	msgID, err := o.platform.SendMessage(ctx, channelID, o.renderStatus(g))
	if err != nil {
		o.registry.ClearMembership(channelID, players)
		return nil, fmt.Errorf("post confirmation prompt: %w", err)
	}
	g.statusMsg = msgID

	sub := o.platform.SubscribeUserAction(msgID, o.handleAction)
	g.subs = append(g.subs, sub)

	if err := o.recorder.SaveSubscription(domain.SubscriptionRecord{
		GroupID:   channelID,
		ChannelID: channelID,
		Kind:      "confirmation",
		Timestamp: time.Now(),
	}); err != nil {
		o.logger.Error().Err(err).Str("group_id", channelID).Msg("subscription registry write failed")
	}

	g.timer = time.AfterFunc(o.cfg.ConfirmationTimeout, func() {
		o.expireConfirmation(channelID)
	})

	o.mu.Lock()
	o.groups[channelID] = g
	o.mu.Unlock()

	o.logger.Info().
		Str("group_id", channelID).
		Int("seq", seq).
		Str("bucket", key.label()).
		Strs("players", players).
		Str("mediator_id", med.ID).
		Msg("match group formed")

	return &g.MatchGroup, nil
}

func (o *Orchestrator) handleAction(ev platform.UserAction) {
	ctx := context.Background()
	var err error
	switch ev.Action {
	case ActionConfirm:
		err = o.Confirm(ctx, ev.ChannelID, ev.UserID)
	case ActionCancel:
		_, err = o.Cancel(ctx, ev.ChannelID, ev.UserID)
	default:
		return
	}
	if err != nil {
		o.logger.Debug().
			Err(err).
			Str("group_id", ev.ChannelID).
			Str("user_id", ev.UserID).
			Str("action", ev.Action).
			Msg("action not applied")
	}
}

// Confirm records the player's acceptance. When every member has confirmed,
// the group advances to room setup. Repeated confirmations are no-ops.
func (o *Orchestrator) Confirm(ctx context.Context, groupID, playerID string) error {
	if !o.locks.TryAcquire(groupID, ActionConfirm, playerID) {
		return domain.ErrDuplicateTrigger
	}

	o.mu.Lock()
	g, ok := o.groups[groupID]
	if !ok {
		o.mu.Unlock()
		return domain.ErrGroupNotFound
	}
	if g.State == domain.StateResolved || g.State == domain.StateCancelled {
		o.mu.Unlock()
		return domain.ErrTerminalState
	}
	if g.State != domain.StateConfirming {
		o.mu.Unlock()
		return domain.Reject("this match is already underway")
	}
	if !g.isMember(playerID) {
		o.mu.Unlock()
		return domain.Reject("only match members can confirm")
	}
	if g.confirms[playerID] {
		o.mu.Unlock()
		return nil
	}
	g.confirms[playerID] = true

	allConfirmed := len(g.confirms) == len(g.Players)
	if allConfirmed {
		if g.timer != nil {
			g.timer.Stop()
		}
		g.State = domain.StateRoomWait
		sub := o.platform.SubscribeInboundText(g.ID, o.HandleInbound)
		g.subs = append(g.subs, sub)
	}
	o.mu.Unlock()

	o.updateDisplay(g)

	if allConfirmed {
		if err := o.recorder.SaveSubscription(domain.SubscriptionRecord{
			GroupID:   groupID,
			ChannelID: groupID,
			Kind:      "room_wait",
			Timestamp: time.Now(),
		}); err != nil {
			o.logger.Error().Err(err).Str("group_id", groupID).Msg("subscription registry write failed")
		}
		o.logger.Info().Str("group_id", groupID).Msg("all members confirmed, awaiting room")
	}
	return nil
}

// CancelResult carries the cancellation-penalty outcome for the caller to
// surface to the player.
type CancelResult struct {
	Suspended    bool
	WarnIncoming bool
	Count        int
}

// Cancel tears the group down. Members may cancel before the room is
// active; once the room is live only a mediator may. Member cancellations
// count toward the sliding-window penalty.
func (o *Orchestrator) Cancel(ctx context.Context, groupID, actorID string) (*CancelResult, error) {
	if !o.locks.TryAcquire(groupID, ActionCancel, actorID) {
		return nil, domain.ErrDuplicateTrigger
	}

	o.mu.Lock()
	g, ok := o.groups[groupID]
	if !ok {
		o.mu.Unlock()
		return nil, domain.ErrGroupNotFound
	}
	if g.State == domain.StateResolved || g.State == domain.StateCancelled {
		o.mu.Unlock()
		return nil, domain.ErrTerminalState
	}

	isMediator := o.actsAsMediator(g, actorID)
	if g.State == domain.StateRoomActive && !isMediator {
		o.mu.Unlock()
		return nil, domain.Reject("only the mediator can cancel a live match")
	}
	if !isMediator && !g.isMember(actorID) {
		o.mu.Unlock()
		return nil, domain.Reject("you are not part of this match")
	}
	g.State = domain.StateCancelled
	o.mu.Unlock()

	result := &CancelResult{}
	if !isMediator {
		res := o.registry.RecordCancellation(actorID)
		result.Suspended = res.Suspended
		result.WarnIncoming = res.WarnIncoming
		result.Count = res.Count
	}

	o.finish(ctx, g, domain.MatchCancelled, "")
	o.logger.Info().
		Str("group_id", groupID).
		Str("actor_id", actorID).
		Bool("by_mediator", isMediator).
		Msg("match cancelled")
	return result, nil
}

func (o *Orchestrator) expireConfirmation(groupID string) {
	o.mu.Lock()
	g, ok := o.groups[groupID]
	if !ok || g.State != domain.StateConfirming {
		o.mu.Unlock()
		return
	}
	g.State = domain.StateCancelled
	o.mu.Unlock()

	o.finish(context.Background(), g, domain.MatchCancelled, "")
	o.logger.Info().Str("group_id", groupID).Msg("confirmation deadline expired")
}

// HandleInbound routes a channel message by group phase: room credentials
// while waiting for a room, a payment key once the room is live.
func (o *Orchestrator) HandleInbound(ev platform.InboundText) {
	o.mu.Lock()
	g, ok := o.groups[ev.ChannelID]
	if !ok {
		o.mu.Unlock()
		return
	}
	state := g.State
	o.mu.Unlock()

	switch state {
	case domain.StateRoomWait:
		o.handleRoomCredentials(g, ev)
	case domain.StateRoomActive:
		o.handleOutcome(g, ev)
	}
}

func (o *Orchestrator) handleRoomCredentials(g *liveGroup, ev platform.InboundText) {
	roomID, roomPass, ok := ParseRoomCredentials(ev.Content)
	if !ok {
		return
	}

	o.mu.Lock()
	if g.State != domain.StateRoomWait {
		o.mu.Unlock()
		return
	}
	if !o.actsAsMediator(g, ev.UserID) {
		o.mu.Unlock()
		return
	}
	if o.dedup.Seen(g.ID, ev.Content) {
		o.mu.Unlock()
		o.logger.Debug().Str("group_id", g.ID).Msg("duplicate room credentials dropped")
		return
	}

	// The state transition is the single-fee guard: a second credential
	// message finds the group already active.
	g.State = domain.StateRoomActive
	g.RoomID = roomID
	g.RoomPass = roomPass
	if g.Mediator == nil {
		med := o.mediators.Resolve(ev.UserID, nil)
		g.Mediator = &med
	}
	med := *g.Mediator
	o.mu.Unlock()

	if err := o.ledger.RecordMatchFee(med.ID, med.Name, g.Mode, g.ID); err != nil {
		o.logger.Error().Err(err).Str("group_id", g.ID).Msg("fee record failed")
	}

	if err := o.recorder.SaveSubscription(domain.SubscriptionRecord{
		GroupID:   g.ID,
		ChannelID: g.ID,
		Kind:      "room_active",
		Timestamp: time.Now(),
	}); err != nil {
		o.logger.Error().Err(err).Str("group_id", g.ID).Msg("subscription registry write failed")
	}

	o.updateDisplay(g)
	o.logger.Info().
		Str("group_id", g.ID).
		Str("room_id", roomID).
		Str("mediator_id", med.ID).
		Msg("room credentials posted, match live")
}

func (o *Orchestrator) handleOutcome(g *liveGroup, ev platform.InboundText) {
	key := strings.TrimSpace(ev.Content)
	if !pix.Valid(key) {
		return
	}

	o.mu.Lock()
	if g.State != domain.StateRoomActive {
		o.mu.Unlock()
		return
	}
	if !g.isMember(ev.UserID) {
		o.mu.Unlock()
		return
	}
	if len(g.Players) < constants.PartySize {
		o.mu.Unlock()
		o.logger.Error().
			Str("group_id", g.ID).
			Int("members", len(g.Players)).
			Msg("outcome message in underfilled group")
		return
	}
	if o.dedup.Seen(g.ID, key) {
		o.mu.Unlock()
		return
	}
	g.State = domain.StateResolved
	g.Winner = ev.UserID
	o.mu.Unlock()

	if err := o.ranking.Award(ev.UserID); err != nil {
		o.logger.Error().Err(err).Str("player_id", ev.UserID).Msg("ranking award failed")
	}
	if err := o.recorder.SetStatus(g.ID, domain.MatchAwaitingSettlement, ev.UserID); err != nil {
		o.logger.Error().Err(err).Str("group_id", g.ID).Msg("match record update failed")
	}

	ctx := context.Background()
	if png, err := pix.QRPNG(key); err == nil {
		if _, err := o.platform.SendFile(ctx, g.ID, "payout.png", png); err != nil {
			o.logger.Warn().Err(err).Str("group_id", g.ID).Msg("payout QR send failed")
		}
	} else {
		o.logger.Warn().Err(err).Msg("payout QR generation failed")
	}
	o.updateDisplay(g)

	o.logger.Info().
		Str("group_id", g.ID).
		Str("winner", ev.UserID).
		Str("key_type", string(pix.DetectType(key))).
		Msg("winner detected")
}

// Settle closes a resolved match. Mediator only.
func (o *Orchestrator) Settle(ctx context.Context, groupID, actorID string) error {
	o.mu.Lock()
	g, ok := o.groups[groupID]
	if !ok {
		o.mu.Unlock()
		return domain.ErrGroupNotFound
	}
	if g.State != domain.StateResolved {
		o.mu.Unlock()
		return domain.Reject("this match has no winner yet")
	}
	if !o.actsAsMediator(g, actorID) {
		o.mu.Unlock()
		return domain.Reject("only the mediator can settle a match")
	}
	winner := g.Winner
	o.mu.Unlock()

	o.finish(ctx, g, domain.MatchFinished, winner)
	o.logger.Info().Str("group_id", groupID).Str("winner", winner).Msg("match settled")
	return nil
}

// AdjustAmount changes the displayed payable amount. It never re-bills the
// fee or touches the ranking.
func (o *Orchestrator) AdjustAmount(ctx context.Context, groupID, actorID string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return domain.Reject("amount cannot be negative")
	}

	o.mu.Lock()
	g, ok := o.groups[groupID]
	if !ok {
		o.mu.Unlock()
		return domain.ErrGroupNotFound
	}
	// A resolved group stays adjustable until it is settled or torn down.
	if g.State == domain.StateCancelled {
		o.mu.Unlock()
		return domain.ErrTerminalState
	}
	if !o.actsAsMediator(g, actorID) {
		o.mu.Unlock()
		return domain.Reject("only the mediator can adjust the amount")
	}
	g.Amount = amount
	o.mu.Unlock()

	o.updateDisplay(g)
	return nil
}

// Group returns a snapshot of a live group.
func (o *Orchestrator) Group(groupID string) (*domain.MatchGroup, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, ok := o.groups[groupID]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	snapshot := g.MatchGroup
	snapshot.Players = append([]string(nil), g.Players...)
	return &snapshot, nil
}

// finish tears the group down exactly once: timers stopped, subscriptions
// cancelled, memberships released, durable rows settled.
func (o *Orchestrator) finish(ctx context.Context, g *liveGroup, status domain.MatchStatus, winner string) {
	g.teardown.Do(func() {
		if g.timer != nil {
			g.timer.Stop()
		}
		for _, sub := range g.subs {
			sub.Cancel()
		}

		o.registry.ClearMembership(g.ID, g.Players)
		o.dedup.Drop(g.ID)
		o.edits.Forget(g.statusMsg)

		if err := o.recorder.SetStatus(g.ID, status, winner); err != nil {
			o.logger.Error().Err(err).Str("group_id", g.ID).Msg("match record update failed")
		}
		if err := o.recorder.RemoveSubscription(g.ID); err != nil {
			o.logger.Error().Err(err).Str("group_id", g.ID).Msg("subscription registry cleanup failed")
		}

		if err := o.platform.DeleteChannel(ctx, g.ID); err != nil {
			o.logger.Warn().Err(err).Str("group_id", g.ID).Msg("channel delete failed")
		}

		o.mu.Lock()
		delete(o.groups, g.ID)
		o.mu.Unlock()
	})
}

// Rehydrate re-arms listeners for groups that survived a restart.
// Confirmation-phase groups cannot be resumed because their prompt buttons
// are gone, so they are cancelled.
func (o *Orchestrator) Rehydrate(ctx context.Context) error {
	subs, err := o.recorder.Subscriptions()
	if err != nil {
		return err
	}

	for _, sub := range subs {
		rec, err := o.recorder.Record(sub.GroupID)
		if err != nil {
			return err
		}
		if rec == nil || rec.Status == domain.MatchCancelled || rec.Status == domain.MatchFinished {
			if err := o.recorder.RemoveSubscription(sub.GroupID); err != nil {
				o.logger.Warn().Err(err).Str("group_id", sub.GroupID).Msg("stale subscription cleanup failed")
			}
			continue
		}

		if sub.Kind == "confirmation" {
			if err := o.recorder.SetStatus(sub.GroupID, domain.MatchCancelled, ""); err != nil {
				o.logger.Warn().Err(err).Str("group_id", sub.GroupID).Msg("match record update failed")
			}
			if err := o.recorder.RemoveSubscription(sub.GroupID); err != nil {
				o.logger.Warn().Err(err).Str("group_id", sub.GroupID).Msg("stale subscription cleanup failed")
			}
			if err := o.platform.DeleteChannel(ctx, sub.ChannelID); err != nil {
				o.logger.Warn().Err(err).Str("group_id", sub.GroupID).Msg("channel delete failed")
			}
			o.logger.Info().Str("group_id", sub.GroupID).Msg("unconfirmed group dropped on restart")
			continue
		}

		state := domain.StateRoomWait
		if sub.Kind == "room_active" {
			state = domain.StateRoomActive
		}

		g := &liveGroup{
			MatchGroup: domain.MatchGroup{
				ID:        rec.GroupID,
				Mode:      rec.Mode,
				Variant:   rec.Variant,
				Tier:      rec.Tier,
				Players:   append([]string(nil), rec.Players...),
				State:     state,
				Amount:    decimal.NewFromInt(int64(rec.Tier)),
				CreatedAt: rec.CreatedAt,
			},
			key:      bucketKey{Mode: rec.Mode, Variant: rec.Variant, Tier: rec.Tier},
			confirms: make(map[string]bool),
		}
		if rec.MediatorID != "" {
			med := o.mediators.Resolve(rec.MediatorID, nil)
			g.Mediator = &med
		}

		o.registry.RegisterMembership(g.ID, g.Players)

		textSub := o.platform.SubscribeInboundText(g.ID, o.HandleInbound)
		g.subs = append(g.subs, textSub)

		o.mu.Lock()
		o.groups[g.ID] = g
		o.mu.Unlock()

		o.logger.Info().
			Str("group_id", g.ID).
			Str("phase", sub.Kind).
			Msg("group rehydrated")
	}
	return nil
}

// Start watches for externally deleted channels so their groups do not
// leak.
func (o *Orchestrator) Start() {
	o.channelWatch = o.platform.ListenChannelDeleted(func(channelID string) {
		o.mu.Lock()
		g, ok := o.groups[channelID]
		if !ok {
			o.mu.Unlock()
			return
		}
		// A resolved group already has a winner on record; losing its
		// channel must not overwrite that with a cancellation.
		status := domain.MatchCancelled
		winner := ""
		if g.State == domain.StateResolved {
			status = domain.MatchAwaitingSettlement
			winner = g.Winner
		} else if g.State != domain.StateCancelled {
			g.State = domain.StateCancelled
		}
		o.mu.Unlock()

		o.finish(context.Background(), g, status, winner)
		o.logger.Warn().Str("group_id", channelID).Msg("match channel deleted externally")
	})
}

// Stop cancels the channel watch and stops every live timer.
func (o *Orchestrator) Stop() {
	if o.channelWatch != nil {
		o.channelWatch.Cancel()
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, g := range o.groups {
		if g.timer != nil {
			g.timer.Stop()
		}
		for _, sub := range g.subs {
			sub.Cancel()
		}
	}
}

// Run purges expired dedup entries and action locks until ctx is
// cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.dedup.Purge()
			o.locks.Purge()
		}
	}
}

// updateDisplay refreshes the group's status message. Rehydrated groups
// have no status message and skip it.
func (o *Orchestrator) updateDisplay(g *liveGroup) {
	if g.statusMsg == "" {
		return
	}
	o.edits.Submit(g.ID, g.statusMsg, o.renderStatus(g))
}

func (o *Orchestrator) validTier(tier int) bool {
	for _, v := range o.cfg.TierValues {
		if v == tier {
			return true
		}
	}
	return false
}

// actsAsMediator recognizes the assigned mediator, or any registered
// mediator when the group has none assigned yet.
func (o *Orchestrator) actsAsMediator(g *liveGroup, userID string) bool {
	if g.Mediator != nil {
		return g.Mediator.ID == userID
	}
	return o.mediators.IsMediator(userID)
}

func (g *liveGroup) isMember(userID string) bool {
	for _, p := range g.Players {
		if p == userID {
			return true
		}
	}
	return false
}

func (o *Orchestrator) renderStatus(g *liveGroup) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Match %s-%d | R$ %s\n", g.key.label(), g.Seq, domain.FormatBRL(g.Amount))
	if g.Mediator != nil {
		fmt.Fprintf(&b, "Mediator: %s\n", g.Mediator.Name)
	}

	switch g.State {
	case domain.StateConfirming:
		fmt.Fprintf(&b, "Waiting for confirmation (%d/%d)", len(g.confirms), len(g.Players))
	case domain.StateRoomWait:
		fmt.Fprintf(&b, "Confirmed. Pay R$ %s plus the R$ %s mediator fee",
			domain.FormatBRL(g.Amount), domain.FormatBRL(o.ledger.Fee()))
		if g.Mediator != nil && g.Mediator.PaymentKey != "" {
			fmt.Fprintf(&b, " to key %s", g.Mediator.PaymentKey)
		}
		b.WriteString(".\nWaiting for the mediator to post the room.")
	case domain.StateRoomActive:
		fmt.Fprintf(&b, "Room %s / password %s. Winner: post your PIX key here.", g.RoomID, g.RoomPass)
	case domain.StateResolved:
		fmt.Fprintf(&b, "Winner: <@%s>. Awaiting settlement.", g.Winner)
	case domain.StateCancelled:
		b.WriteString("Match cancelled.")
	}
	return b.String()
}
