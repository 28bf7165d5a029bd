package display

import (
	"context"
	"sync"

	"apostado/internal/platform"

	"github.com/rs/zerolog"
)

type edit struct {
	channelID string
	content   string
}

type messageQueue struct {
	mu      sync.Mutex
	pending []edit
	running bool
}

// EditQueue serializes message edits per message id with a single consumer
// each, so concurrent callers never interleave or reorder a message's
// updates. A failed edit is logged and dropped; later edits still run.
type EditQueue struct {
	platform platform.Platform
	logger   zerolog.Logger

	mu     sync.Mutex
	queues map[string]*messageQueue
	wg     sync.WaitGroup
}

func NewEditQueue(p platform.Platform, logger zerolog.Logger) *EditQueue {
	return &EditQueue{
		platform: p,
		logger:   logger.With().Str("component", "edit_queue").Logger(),
		queues:   make(map[string]*messageQueue),
	}
}

// Submit enqueues an edit for the message. Edits are applied in submission
// order per message id.
func (q *EditQueue) Submit(channelID, messageID, content string) {
	q.mu.Lock()
	mq, ok := q.queues[messageID]
	if !ok {
		mq = &messageQueue{}
		q.queues[messageID] = mq
	}
	q.mu.Unlock()

	mq.mu.Lock()
	mq.pending = append(mq.pending, edit{channelID: channelID, content: content})
	start := !mq.running
	if start {
		mq.running = true
		q.wg.Add(1)
	}
	mq.mu.Unlock()

	if start {
		go q.drain(messageID, mq)
	}
}

func (q *EditQueue) drain(messageID string, mq *messageQueue) {
	defer q.wg.Done()
	for {
		mq.mu.Lock()
		if len(mq.pending) == 0 {
			mq.running = false
			mq.mu.Unlock()
			return
		}
		next := mq.pending[0]
		mq.pending = mq.pending[1:]
		mq.mu.Unlock()

		err := q.platform.EditMessage(context.Background(), next.channelID, messageID, next.content)
		if err != nil {
			q.logger.Warn().
				Err(err).
				Str("message_id", messageID).
				Msg("message edit failed, skipping")
		}
	}
}

// Forget drops the queue for a message that no longer exists. In-flight
// edits finish first.
func (q *EditQueue) Forget(messageID string) {
	q.mu.Lock()
	delete(q.queues, messageID)
	q.mu.Unlock()
}

// Wait blocks until all in-flight edits have been applied.
func (q *EditQueue) Wait() {
	q.wg.Wait()
}
