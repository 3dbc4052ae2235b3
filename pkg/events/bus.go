package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

// Topic names an event stream.
type Topic string

const (
	TopicBookingCreated   Topic = "booking.created"
	TopicBookingConfirmed Topic = "booking.confirmed"
	TopicBookingCancelled Topic = "booking.cancelled"
)

// Event is a published message. Payload is deliberately loose: publishers
// send typed structs, but subscribers must tolerate map payloads from
// callers outside this module.
type Event struct {
	Topic   Topic
	Payload any
}

// Handler consumes one event. Errors are logged, never propagated to the
// publisher.
type Handler func(ctx context.Context, evt Event) error

// Bus is a small in-process publish/subscribe dispatcher. Subscriptions
// happen at process start; Publish is safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
	logg     *logger.Logger
}

// NewBus builds an empty bus.
func NewBus(logg *logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[Topic][]Handler),
		logg:     logg,
	}
}

// Subscribe attaches a handler to a topic.
func (b *Bus) Subscribe(topic Topic, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish delivers the event to every subscriber in order. A panicking or
// failing handler never affects the others or the caller.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[evt.Topic]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.dispatch(ctx, evt, handler)
	}
}

func (b *Bus) dispatch(ctx context.Context, evt Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil && b.logg != nil {
			b.logg.Error(ctx, "event handler panicked", fmt.Errorf("topic %s: %v", evt.Topic, r))
		}
	}()
	if err := handler(ctx, evt); err != nil && b.logg != nil {
		logCtx := b.logg.WithField(ctx, "topic", string(evt.Topic))
		b.logg.Error(logCtx, "event handler failed", err)
	}
}
