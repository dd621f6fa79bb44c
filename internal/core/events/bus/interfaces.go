package bus

import (
	"time"

	"github.com/zeusync/ownership/internal/core/identity"
)

// EventBus defines an in-process pub/sub event bus.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string, or to every type.
// - Synchronous delivery: Publish calls handler callbacks in the caller goroutine.
// - Error aggregation: multiple handler errors are joined and returned from Publish/PublishBatch.
// - Optional observability: metrics are produced only when observers are registered.
//
// Handlers may subscribe or cancel from inside a delivery; the change applies to
// the next Publish.
type EventBus interface {
	// Publish delivers the event synchronously to all active subscribers of event.Type().
	// If one or more handlers return an error, a joined error is returned.
	Publish(event Event) error
	// PublishBatch publishes a set of events sequentially and aggregates errors across them.
	PublishBatch(events ...Event) error

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// SubscribeAll registers a handler that receives every event.
	SubscribeAll(handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil; does nothing.
	Unsubscribe(Subscription) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of accumulated metrics. Metrics are only
	// collected when at least one observer is registered.
	GetMetrics() EventBusMetrics
}

// Lifecycle event types published by registries and worlds.
const (
	EntityRegistered   = "entity.registered"
	EntityUnregistered = "entity.unregistered"
	EntitySpawned      = "entity.spawned"
	EntityDespawned    = "entity.despawned"
	EntityFreed        = "entity.freed"
)

// Event is an immutable message transported by the EventBus.
//
// Subject is the identity the event is about, or identity.None.
type Event interface {
	Type() string
	Source() string
	Subject() identity.Identity
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is a user callback invoked per delivered event.
	EventHandler func(event Event) error
)

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	// EventType returns the subscribed type, or "" for SubscribeAll.
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler from the bus. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries and errors.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
