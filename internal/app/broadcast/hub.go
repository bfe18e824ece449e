// Package broadcast fans rendered overlay frames out to watchers.
package broadcast

import (
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deathscreen/internal/app/overlay"
)

// DefaultBuffer is the per-subscriber frame buffer.
const DefaultBuffer = 32

// subscription represents a watcher's subscription.
type subscription struct {
	id      string
	frames  chan overlay.Frame
	dropped uint64
}

// Hub keeps the latest frame and delivers every frame to all subscribers.
// Render never blocks: a subscriber whose buffer is full misses frames.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	latest        overlay.Frame
	hasLatest     bool
	buffer        int
	closed        bool
}

// NewHub creates a new frame hub.
func NewHub() *Hub {
	return &Hub{
		subscriptions: make(map[string]*subscription),
		buffer:        DefaultBuffer,
	}
}

// Subscribe adds a new subscription and returns its ID and frame channel.
// The latest frame, if any, is delivered first. The channel is closed on
// Unsubscribe or Close.
func (h *Hub) Subscribe() (string, <-chan overlay.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscription{
		id:     uuid.New().String(),
		frames: make(chan overlay.Frame, h.buffer),
	}
	if h.closed {
		close(sub.frames)
		return sub.id, sub.frames
	}
	if h.hasLatest {
		sub.frames <- h.latest
	}
	h.subscriptions[sub.id] = sub

	zlog.Debug().Msgf("broadcast: subscribed: subscription_id=%s subscribers=%d", sub.id, len(h.subscriptions))
	return sub.id, sub.frames
}

// Unsubscribe removes a subscription.
func (h *Hub) Unsubscribe(subscriptionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subscriptions[subscriptionID]
	if !ok {
		return
	}
	delete(h.subscriptions, subscriptionID)
	close(sub.frames)

	if sub.dropped > 0 {
		zlog.Warn().Msgf("broadcast: subscriber missed frames: subscription_id=%s dropped=%d", sub.id, sub.dropped)
	}
}

// Render records the frame and sends it to every subscriber.
func (h *Hub) Render(frame overlay.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.latest = frame
	h.hasLatest = true

	for _, sub := range h.subscriptions {
		select {
		case sub.frames <- frame:
		default:
			// Slow subscriber, drop rather than stall the overlay.
			sub.dropped++
		}
	}
}

// Latest returns the last rendered frame and whether one exists.
func (h *Hub) Latest() (overlay.Frame, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.hasLatest
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions)
}

// Close closes every subscription and rejects later frames.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subscriptions {
		close(sub.frames)
		delete(h.subscriptions, id)
	}
}
