package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"apostado/internal/config"
	"apostado/internal/platform"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Adapter implements platform.Platform on top of a discordgo session.
// Match rooms are private threads under the configured parent channel.
type Adapter struct {
	session *discordgo.Session
	logger  zerolog.Logger

	mu         sync.Mutex
	nextSub    int
	actionSubs map[string]map[int]func(platform.UserAction)
	textSubs   map[string]map[int]func(platform.InboundText)
	deleteSubs map[int]func(string)

	removeHandlers []func()
}

func New(cfg *config.Config, logger zerolog.Logger) (*Adapter, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	a := &Adapter{
		session:    session,
		logger:     logger.With().Str("component", "discord").Logger(),
		actionSubs: make(map[string]map[int]func(platform.UserAction)),
		textSubs:   make(map[string]map[int]func(platform.InboundText)),
		deleteSubs: make(map[int]func(string)),
	}

	a.removeHandlers = append(a.removeHandlers,
		session.AddHandler(a.onMessageCreate),
		session.AddHandler(a.onInteractionCreate),
		session.AddHandler(a.onChannelDelete),
	)
	return a, nil
}

// Open connects the gateway session.
func (a *Adapter) Open(ctx context.Context) error {
	if err := a.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	a.logger.Info().Msg("discord gateway connected")
	return nil
}

func (a *Adapter) Close() error {
	for _, remove := range a.removeHandlers {
		remove()
	}
	if err := a.session.Close(); err != nil {
		return fmt.Errorf("close discord gateway: %w", err)
	}
	a.logger.Info().Msg("discord gateway closed")
	return nil
}

func (a *Adapter) CreateChannel(ctx context.Context, parentID, name string) (string, error) {
	thread, err := a.session.ThreadStartComplex(parentID, &discordgo.ThreadStart{
		Name:                name,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		AutoArchiveDuration: 1440,
		Invitable:           false,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("start private thread %q: %w", name, err)
	}
	return thread.ID, nil
}

func (a *Adapter) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	msg, err := a.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return msg.ID, nil
}

func (a *Adapter) SendFile(ctx context.Context, channelID, name string, data []byte) (string, error) {
	msg, err := a.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Files: []*discordgo.File{{Name: name, Reader: bytes.NewReader(data)}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send file to %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// EditMessage treats an already-deleted target as success so display
// refreshes never fail a flow that outlived its message.
func (a *Adapter) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	_, err := a.session.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownTarget(err) {
			a.logger.Debug().
				Str("channel_id", channelID).
				Str("message_id", messageID).
				Msg("edit target gone, ignoring")
			return nil
		}
		return fmt.Errorf("edit message %s: %w", messageID, err)
	}
	return nil
}

func (a *Adapter) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := a.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownTarget(err) {
			return nil
		}
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	return nil
}

func isUnknownTarget(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Message == nil {
		return false
	}
	switch rest.Message.Code {
	case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
		return true
	}
	return false
}

func (a *Adapter) SubscribeUserAction(messageID string, fn func(platform.UserAction)) platform.Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextSub++
	id := a.nextSub
	if a.actionSubs[messageID] == nil {
		a.actionSubs[messageID] = make(map[int]func(platform.UserAction))
	}
	a.actionSubs[messageID][id] = fn

	return platform.SubscriptionFunc(func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.actionSubs[messageID], id)
		if len(a.actionSubs[messageID]) == 0 {
			delete(a.actionSubs, messageID)
		}
	})
}

func (a *Adapter) SubscribeInboundText(channelID string, fn func(platform.InboundText)) platform.Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextSub++
	id := a.nextSub
	if a.textSubs[channelID] == nil {
		a.textSubs[channelID] = make(map[int]func(platform.InboundText))
	}
	a.textSubs[channelID][id] = fn

	return platform.SubscriptionFunc(func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.textSubs[channelID], id)
		if len(a.textSubs[channelID]) == 0 {
			delete(a.textSubs, channelID)
		}
	})
}

func (a *Adapter) ListenChannelDeleted(fn func(channelID string)) platform.Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextSub++
	id := a.nextSub
	a.deleteSubs[id] = fn

	return platform.SubscriptionFunc(func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.deleteSubs, id)
	})
}

func (a *Adapter) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	a.mu.Lock()
	handlers := make([]func(platform.InboundText), 0, len(a.textSubs[m.ChannelID]))
	for _, fn := range a.textSubs[m.ChannelID] {
		handlers = append(handlers, fn)
	}
	a.mu.Unlock()
	if len(handlers) == 0 {
		return
	}

	ev := platform.InboundText{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		UserID:    m.Author.ID,
		Content:   m.Content,
	}
	a.instrument("message", func() {
		for _, fn := range handlers {
			fn(ev)
		}
	})
}

func (a *Adapter) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || i.Message == nil {
		return
	}

	userID := ""
	if i.Member != nil && i.Member.User != nil {
		userID = i.Member.User.ID
	} else if i.User != nil {
		userID = i.User.ID
	}
	if userID == "" {
		return
	}

	a.mu.Lock()
	handlers := make([]func(platform.UserAction), 0, len(a.actionSubs[i.Message.ID]))
	for _, fn := range a.actionSubs[i.Message.ID] {
		handlers = append(handlers, fn)
	}
	a.mu.Unlock()
	if len(handlers) == 0 {
		return
	}

	// Ack before handling so the interaction never times out.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("message_id", i.Message.ID).Msg("interaction ack failed")
	}

	ev := platform.UserAction{
		MessageID: i.Message.ID,
		ChannelID: i.ChannelID,
		UserID:    userID,
		Action:    i.MessageComponentData().CustomID,
	}
	a.instrument("interaction", func() {
		for _, fn := range handlers {
			fn(ev)
		}
	})
}

func (a *Adapter) onChannelDelete(_ *discordgo.Session, c *discordgo.ChannelDelete) {
	a.mu.Lock()
	handlers := make([]func(string), 0, len(a.deleteSubs))
	for _, fn := range a.deleteSubs {
		handlers = append(handlers, fn)
	}
	a.mu.Unlock()

	a.instrument("channel_delete", func() {
		for _, fn := range handlers {
			fn(c.ID)
		}
	})
}

// instrument tags each dispatched gateway event with an id and logs its
// handling time.
func (a *Adapter) instrument(kind string, fn func()) {
	start := time.Now()
	eventID := uuid.New().String()
	fn()
	a.logger.Debug().
		Str("event_id", eventID).
		Str("event", kind).
		Dur("duration", time.Since(start)).
		Msg("event handled")
}
