package hxpage

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Bus event names. Other collaborators may rely on these.
const (
	// EventStateChanged carries a map[string]any snapshot of the application state.
	EventStateChanged = "STATE_CHANGED"
	// EventAddListener carries a ListenerRequest.
	EventAddListener = "ADD_EVENT_LISTENER"
	// EventRouteChanged carries the new path as a string.
	EventRouteChanged = "ROUTE_CHANGED"
	// EventRerender has no payload.
	EventRerender = "APP_RERENDER"
	// EventNavigate carries the requested path as a string. Components publish
	// it to navigate without holding a Router.
	EventNavigate = "NAVIGATE"
)

// DefaultMaxDepth bounds nested publishes.
const DefaultMaxDepth = 64

// Subscriber receives the payload of a published event.
type Subscriber func(payload any)

// Bus is a synchronous publish/subscribe channel.
//
// Publish runs every subscriber of the event in the caller's goroutine, in
// subscription order, before returning. Subscribers may publish themselves;
// nesting deeper than the configured depth panics with ErrPublishDepth.
//
// By default a panicking subscriber aborts the publish and the panic reaches
// the publisher. WithRecover isolates subscribers instead.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string][]Subscriber
	depth       int
	maxDepth    int
	recover     bool
	logger      zerolog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithRecover makes Publish recover subscriber panics, log them and carry on
// with the remaining subscribers.
func WithRecover() BusOption {
	return func(b *Bus) {
		b.recover = true
	}
}

// WithMaxDepth sets the nested publish limit. Values below 1 disable the guard.
func WithMaxDepth(n int) BusOption {
	return func(b *Bus) {
		b.maxDepth = n
	}
}

// WithBusLogger sets the logger used for recovered panics.
func WithBusLogger(l zerolog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = l
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subscribers: make(map[string][]Subscriber),
		maxDepth:    DefaultMaxDepth,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe appends fn to the subscribers of event. Duplicates are allowed
// and there is no unsubscription.
func (b *Bus) Subscribe(event string, fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[event] = append(b.subscribers[event], fn)
}

// Subscribers returns the number of subscribers for event.
func (b *Bus) Subscribers(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[event])
}

// Publish invokes the subscribers of event registered before the call.
func (b *Bus) Publish(event string, payload any) {
	b.mu.Lock()
	subs := b.subscribers[event]
	subs = subs[:len(subs):len(subs)] // appends during dispatch must not alias
	b.depth++
	depth := b.depth
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.depth--
		b.mu.Unlock()
	}()

	if b.maxDepth > 0 && depth > b.maxDepth {
		panic(fmt.Errorf("%w: %q at depth %d", ErrPublishDepth, event, depth))
	}

	for i, fn := range subs {
		if b.recover {
			b.invokeRecovered(event, i, fn, payload)
			continue
		}
		fn(payload)
	}
}

func (b *Bus) invokeRecovered(event string, index int, fn Subscriber, payload any) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error().
				Str("event", event).
				Int("subscriber", index).
				Interface("panic", rec).
				Msg("Subscriber panicked")
		}
	}()
	fn(payload)
}
