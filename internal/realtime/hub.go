package realtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber channel capacity used when none is given.
const DefaultBuffer = 64

// Hub delivers events to in-process subscribers of a household.
// The zero value is not usable; call NewHub.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	dropped atomic.Int64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription is one listener of a household's events.
type Subscription struct {
	hub     *Hub
	groupID string
	ch      chan Event
	once    sync.Once
}

// Subscribe registers a listener for groupID. Close the subscription when done.
func (h *Hub) Subscribe(groupID string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &Subscription{hub: h, groupID: groupID, ch: make(chan Event, buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[groupID] == nil {
		h.subs[groupID] = make(map[*Subscription]struct{})
	}
	h.subs[groupID][sub] = struct{}{}
	return sub
}

// Events returns the channel of delivered events. It is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[s.groupID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.groupID)
			}
		}
		close(s.ch)
	})
}

// Publish delivers ev to every subscriber of ev.GroupID without blocking.
// A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[ev.GroupID] {
		select {
		case sub.ch <- ev:
		default:
			h.dropped.Add(1)
			slog.WarnContext(ctx, "Dropping realtime event for slow subscriber",
				"group_id", ev.GroupID,
				"expense_id", ev.ExpenseID,
				"type", ev.Type,
			)
		}
	}
	return nil
}

// Subscribers returns the number of open subscriptions for groupID.
func (h *Hub) Subscribers(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[groupID])
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
