package platform

import "context"

// UserAction is a button-style interaction on a tracked message.
type UserAction struct {
	MessageID string
	ChannelID string
	UserID    string
	Action    string
}

// InboundText is a plain message posted in a tracked channel.
type InboundText struct {
	MessageID string
	ChannelID string
	UserID    string
	Content   string
}

// Subscription is a cancelable event registration. Cancel is idempotent.
type Subscription interface {
	Cancel()
}

// Platform abstracts the chat backend. The Discord implementation lives in
// platform/discord; tests use an in-memory fake.
type Platform interface {
	// CreateChannel opens a private match room under parentID and returns
	// its id.
	CreateChannel(ctx context.Context, parentID, name string) (string, error)

	SendMessage(ctx context.Context, channelID, content string) (string, error)

	// SendFile attaches a binary payload, used for payout QR codes.
	SendFile(ctx context.Context, channelID, name string, data []byte) (string, error)

	// EditMessage tolerates an already-deleted target, returning nil.
	EditMessage(ctx context.Context, channelID, messageID, content string) error

	DeleteChannel(ctx context.Context, channelID string) error

	SubscribeUserAction(messageID string, fn func(UserAction)) Subscription

	SubscribeInboundText(channelID string, fn func(InboundText)) Subscription

	ListenChannelDeleted(fn func(channelID string)) Subscription
}

// SubscriptionFunc adapts a cancel func to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Cancel() {
	if f != nil {
		f()
	}
}
