// Package realtime fans order change notifications out to connected admin clients.
package realtime

import (
	"sync"

	"wishyoulucky/internal/domain"

	"go.uber.org/zap"
)

const defaultBufferSize = 16

// Subscription receives events until it is closed by Unsubscribe.
type Subscription struct {
	id     uint64
	events chan domain.OrderEvent
	// stale is set when an event was dropped and a refetch marker is still owed.
	stale bool
}

func (s *Subscription) Events() <-chan domain.OrderEvent {
	return s.events
}

// Hub is a broadcast point for order events. Slow subscribers never block
// Broadcast: when a buffer is full the event is dropped and the subscriber gets
// a refetch marker as soon as there is room.
type Hub struct {
	mu         sync.Mutex
	subs       map[uint64]*Subscription
	nextID     uint64
	closed     bool
	bufferSize int
	logger     *zap.Logger
}

func NewHub(bufferSize int, logger *zap.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Hub{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Subscribe registers a new subscriber. After Close the returned
// subscription is already closed.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		events: make(chan domain.OrderEvent, h.bufferSize),
	}
	if h.closed {
		close(sub.events)
		return sub
	}
	h.subs[sub.id] = sub
	return sub
}

// Close ends every subscription so open streams return. Later subscriptions
// are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.events)
	}
	h.logger.Info("Order hub closed")
}

// Unsubscribe removes the subscription and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.events)
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast delivers event to every subscriber in call order.
func (h *Hub) Broadcast(event domain.OrderEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if sub.stale {
			// The client reloads everything anyway; only the marker matters.
			if h.trySend(sub, refetchFor(event)) {
				sub.stale = false
			}
			continue
		}

		if h.trySend(sub, event) {
			continue
		}

		sub.stale = true
		h.logger.Warn("Subscriber buffer full, dropping order event",
			zap.Uint64("subscriber", sub.id),
			zap.String("order_number", event.OrderNumber),
		)
		h.makeRoomForRefetch(sub, event)
	}
}

func (h *Hub) trySend(sub *Subscription, event domain.OrderEvent) bool {
	select {
	case sub.events <- event:
		return true
	default:
		return false
	}
}

// makeRoomForRefetch discards the oldest buffered event so the refetch marker
// can be queued right away.
func (h *Hub) makeRoomForRefetch(sub *Subscription, event domain.OrderEvent) {
	select {
	case <-sub.events:
	default:
	}
	if h.trySend(sub, refetchFor(event)) {
		sub.stale = false
	}
}

func refetchFor(event domain.OrderEvent) domain.OrderEvent {
	return domain.OrderEvent{Type: domain.OrderEventRefetch, OccurredAt: event.OccurredAt}
}
