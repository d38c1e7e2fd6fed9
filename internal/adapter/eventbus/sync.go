// Package eventbus provides implementations of the EventBus interface.
package eventbus

import (
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

// ErrBusClosed is returned by Close when the bus was already closed.
var ErrBusClosed = errors.New("event bus already closed")

// SyncEventBus delivers events synchronously on the publishing goroutine.
// Typed handlers run first in subscription order, followed by catch-all handlers.
//
// The subscriber lists are copied before delivery, so handlers may publish,
// subscribe or unsubscribe without deadlocking the bus.
type SyncEventBus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	byType   map[domain.EventType][]subscription
	catchAll []subscription
	nextID   uint64
	closed   bool
}

type subscription struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
// A nil logger discards handler panics silently.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SyncEventBus{
		logger: logger.With(slog.String("component", "eventbus")),
		byType: make(map[domain.EventType][]subscription),
	}
}

// Publish delivers event to every matching handler.
// Publishing on a closed bus is a no-op. A panicking handler is logged and
// does not prevent delivery to the remaining handlers.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	targets := make([]subscription, 0, len(bus.byType[event.Type()])+len(bus.catchAll))
	targets = append(targets, bus.byType[event.Type()]...)
	targets = append(targets, bus.catchAll...)
	bus.mu.RUnlock()

	for _, sub := range targets {
		bus.deliver(sub, event)
	}
}

func (bus *SyncEventBus) deliver(sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(sub.id)))
		}
	}()
	sub.handler(event)
}

// Subscribe registers a handler for events of the given type.
// It panics on a nil handler or a closed bus, both of which are wiring bugs.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	sub := bus.newSubscription("sub-", handler)
	bus.byType[eventType] = append(bus.byType[eventType], sub)
	return sub.id
}

// SubscribeAll registers a handler that receives every event.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	sub := bus.newSubscription("sub-all-", handler)
	bus.catchAll = append(bus.catchAll, sub)
	return sub.id
}

// newSubscription must be called with mu held.
func (bus *SyncEventBus) newSubscription(prefix string, handler domain.EventHandler) subscription {
	if handler == nil {
		panic("event handler cannot be nil")
	}
	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}
	bus.nextID++
	return subscription{
		id:      domain.SubscriptionID(prefix + strconv.FormatUint(bus.nextID, 10)),
		handler: handler,
	}
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
// Delivery order of the remaining handlers is preserved.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for eventType, subs := range bus.byType {
		if i := indexOf(subs, id); i >= 0 {
			bus.byType[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
	if i := indexOf(bus.catchAll, id); i >= 0 {
		bus.catchAll = append(bus.catchAll[:i:i], bus.catchAll[i+1:]...)
	}
}

func indexOf(subs []subscription, id domain.SubscriptionID) int {
	for i, sub := range subs {
		if sub.id == id {
			return i
		}
	}
	return -1
}

// HasSubscribers reports whether an event of the given type would reach any handler.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.byType[eventType]) > 0 || len(bus.catchAll) > 0
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	n := len(bus.catchAll)
	for _, subs := range bus.byType {
		n += len(subs)
	}
	return n
}

// Close drops all subscriptions. Later publishes are ignored.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrBusClosed
	}
	bus.closed = true
	bus.byType = make(map[domain.EventType][]subscription)
	bus.catchAll = nil
	return nil
}

var _ ports.EventBus = (*SyncEventBus)(nil)
