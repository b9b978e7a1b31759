// Package events provides the in-process broadcast that carries dataset
// change events from the pollers to the notifier.
package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/model"
)

// TopicDatasetChanged is the single topic carried by the bus.
const TopicDatasetChanged = "dataset.changed"

// Handler receives every event published while it is subscribed.
type Handler func(ev model.ChangeEvent)

// Publisher is the side of the bus the pollers see.
type Publisher interface {
	Publish(ev model.ChangeEvent)
}

// Bus is a synchronous fan-out of change events. It is safe for
// concurrent use; pollers publish from their own goroutines.
type Bus struct {
	mu       sync.RWMutex
	handlers map[uint64]Handler
	nextID   uint64
	closed   bool
	log      *zap.Logger
}

var _ Publisher = (*Bus)(nil)

// New creates an open bus.
func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[uint64]Handler),
		log:      log,
	}
}

// Subscribe registers h and returns a function that removes it again.
// Subscribing to a closed bus returns a no-op unsubscribe.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.nextID
	b.nextID++
	b.handlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to every current subscriber on the caller's
// goroutine. A panicking handler is logged and does not stop delivery to
// the others. Publishing on a closed bus is a no-op.
func (b *Bus) Publish(ev model.ChangeEvent) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	b.log.Debug("publish",
		zap.String("topic", TopicDatasetChanged),
		zap.String("kind", string(ev.Kind)),
		zap.Int("delta", ev.Delta),
		zap.Int("subscribers", len(handlers)),
	)

	for _, h := range handlers {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h Handler, ev model.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("change handler panicked",
				zap.String("kind", string(ev.Kind)),
				zap.Any("panic", r),
			)
		}
	}()
	h(ev)
}

// Close drops every subscriber. Further publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.handlers = make(map[uint64]Handler)
}

// SubscriberCount returns the number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
