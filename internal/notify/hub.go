package notify

import (
	"context"
	"sync"

	"github.com/vovakirdan/dealhub-server/internal/store"
)

// subscriberBuffer bounds each subscriber channel so one stuck websocket
// can never stall dispatch.
const subscriberBuffer = 16

// Hub is an in-process fan-out of created notifications to live subscribers
// (the websocket stream). It implements Sink, so the dispatcher treats it
// like any other best-effort channel.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int64]map[chan *store.Notification]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int64]map[chan *store.Notification]struct{}),
	}
}

// Subscribe registers a listener for one user's notifications. The returned
// cancel function must be called when the listener goes away.
func (h *Hub) Subscribe(userID int64) (<-chan *store.Notification, func()) {
	ch := make(chan *store.Notification, subscriberBuffer)

	h.mu.Lock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan *store.Notification]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[userID]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.subscribers, userID)
			}
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// Deliver pushes the notification to every live subscriber of its owner.
// Subscribers with a full buffer are skipped.
func (h *Hub) Deliver(_ context.Context, n *store.Notification) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[n.UserID] {
		select {
		case ch <- n:
		default:
			// Slow consumer, drop. The row is already durable.
		}
	}

	return nil
}

var _ Sink = (*Hub)(nil)
