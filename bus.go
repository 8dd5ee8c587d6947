package gateway

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MessageScope is the reserved namespace prefix. Messages outside it are
// dropped at the trust boundary: plugins are independently deployed and
// must not inject arbitrary host actions.
const MessageScope = "gateway:api"

// Message kinds understood by the shell. Newer plugin versions may send
// kinds under the scope that an older shell does not know; those are
// logged and ignored, never a crash.
const (
	RegisterRouteType   = MessageScope + ":register_route"
	NotificationType    = MessageScope + ":notification"
	SignOutType         = MessageScope + ":signout"
	InvalidateTokenType = MessageScope + ":invalidate_token"
	PluginRerenderType  = MessageScope + ":plugin_rerender"
	SiteLoadedType      = MessageScope + ":site_loaded"
)

// Message is the envelope traveling between the host and mounted plugins.
type Message struct {
	ID      uuid.UUID      `json:"id"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Subscription is a cancelable bus membership.
type Subscription struct {
	id  uuid.UUID
	bus *Bus
}

// Unsubscribe removes the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.remove(s.id)
}

// Bus is the bidirectional channel between the host and all mounted
// plugins. Delivery is synchronous and in subscription order, matching
// the single event-loop model the shell assumes.
type Bus struct {
	mu          sync.RWMutex
	logger      Logger
	subscribers []busSubscriber
}

type busSubscriber struct {
	id uuid.UUID
	fn func(Message)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{logger: defLogger{}}
}

func (b *Bus) WithLogger(logger Logger) *Bus {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Subscribe registers a handler for every valid message.
func (b *Bus) Subscribe(fn func(Message)) *Subscription {
	if fn == nil {
		return &Subscription{}
	}

	sub := busSubscriber{id: uuid.New(), fn: fn}

	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()

	return &Subscription{id: sub.id, bus: b}
}

// Publish validates the envelope and delivers it to every subscriber.
// Invalid envelopes are logged and dropped: zero handlers run.
func (b *Bus) Publish(msg Message) error {
	if err := b.validate(msg); err != nil {
		return err
	}

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	b.mu.RLock()
	subscribers := make([]busSubscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	for _, sub := range subscribers {
		sub.fn(msg)
	}
	return nil
}

func (b *Bus) validate(msg Message) error {
	if msg.Type == "" {
		b.logger.Error("dropping message with no type")
		return ErrInvalidMessage
	}

	if !strings.HasPrefix(msg.Type, MessageScope+":") {
		b.logger.Error("dropping message outside the %q scope: %s", MessageScope, msg.Type)
		return ErrInvalidMessage
	}

	if msg.Payload == nil {
		b.logger.Error("dropping message with nil payload: %s", msg.Type)
		return ErrInvalidMessage
	}

	return nil
}

func (b *Bus) remove(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub.id == id {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}
