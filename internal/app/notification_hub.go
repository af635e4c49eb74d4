package app

import (
	"context"
	"sync"
)

// NotificationHub fans out "list changed" signals to subscribers of a recipient.
type NotificationHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan struct{}]struct{}
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{subscribers: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe returns a channel that receives a signal whenever the recipient's
// notifications change. The caller must invoke the returned cancel function to avoid leaks.
func (h *NotificationHub) Subscribe(recipient string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	subs, ok := h.subscribers[recipient]
	if !ok {
		subs = make(map[chan struct{}]struct{})
		h.subscribers[recipient] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[recipient]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, recipient)
		}
	}
	return ch, cancel
}

// Publish signals every subscriber of recipient. A subscriber that has not
// consumed the previous signal keeps it; signals carry no payload so they coalesce.
func (h *NotificationHub) Publish(_ context.Context, recipient string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[recipient] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports how many subscriptions recipient currently has.
func (h *NotificationHub) Subscribers(recipient string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[recipient])
}
