package events

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSubscriberBuffer is the per-subscriber queue capacity.
const DefaultSubscriberBuffer = 1000

// Bus is an in-process topic-pattern broadcast primitive. Delivery is
// best-effort, at-most-once per subscriber: a full queue drops the event for
// that subscriber without ever blocking the publisher or other subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	buffer int
	logger *zap.Logger

	dropped func(topic string)
}

type subscription struct {
	pattern string
	ch      chan Event
}

// NewBus constructs a Bus. A buffer <= 0 selects DefaultSubscriberBuffer; a
// nil logger disables drop warnings.
func NewBus(buffer int, logger *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[string]*subscription),
		buffer: buffer,
		logger: logger,
	}
}

// OnDrop installs a hook invoked whenever an event is dropped for a slow
// subscriber. Intended for metrics; must be set before the bus is shared.
func (b *Bus) OnDrop(fn func(topic string)) {
	b.dropped = fn
}

// Subscribe registers interest in topics matching pattern and returns the
// subscriber id with its inbound channel. The channel is closed on
// Unsubscribe.
func (b *Bus) Subscribe(pattern string) (string, <-chan Event) {
	sub := &subscription{
		pattern: pattern,
		ch:      make(chan Event, b.buffer),
	}
	id := uuid.NewString()

	b.mu.Lock()
	b.subs[id] = sub
	b.mu.Unlock()

	return id, sub.ch
}

// Unsubscribe removes the subscriber and closes its channel. Unknown ids are
// a no-op.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	b.mu.Unlock()

	if ok {
		close(sub.ch)
	}
}

// Publish delivers the event to every subscriber whose pattern matches the
// topic. Publish order is preserved into each individual subscriber's queue.
func (b *Bus) Publish(topic string, ev Event) {
	ev.Topic = topic

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subs {
		if !MatchTopic(sub.pattern, topic) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn("event dropped for slow subscriber",
				zap.String("topic", topic),
				zap.String("subscriber_id", id),
				zap.String("event_type", string(ev.Type)),
			)
			if b.dropped != nil {
				b.dropped(topic)
			}
		}
	}
}

// SubscriberCount reports the current number of subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// MatchTopic reports whether a topic matches a subscription pattern. A
// pattern ending in "*" matches by prefix; otherwise an exact match is
// required.
func MatchTopic(pattern, topic string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(topic, prefix)
	}
	return pattern == topic
}
