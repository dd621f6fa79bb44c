// Package models defines what the engine knows about entities: an immutable
// identity plus a set of optional capabilities an entity may implement.
//
// Registries only require Identifiable. Worlds look for the capability
// interfaces at runtime, so an entity type opts in to updates, rendering or
// event handling simply by implementing the matching method.
package models

import (
	"time"

	"github.com/zeusync/ownership/internal/core/events/bus"
	"github.com/zeusync/ownership/internal/core/identity"
)

// Identifiable is anything keyed by an immutable identity.
type Identifiable interface {
	ID() identity.Identity
}

// Entity is a world object: an identity plus a kind used to restore it from
// snapshots.
type Entity interface {
	Identifiable
	Kind() string
}

// Updatable entities advance their state once per world tick.
type Updatable interface {
	Update(dt time.Duration)
}

// Renderable entities draw themselves onto a Canvas.
type Renderable interface {
	Render(canvas Canvas)
}

// EventConsumer entities receive events dispatched through the world.
type EventConsumer interface {
	HandleEvent(event bus.Event) error
}

// Canvas is an opaque draw sink supplied by the rendering layer.
type Canvas interface {
	Draw(id identity.Identity, layer int, payload any)
}

// Factory builds an empty entity of one kind around a persisted identity,
// ready for Deserialize.
type Factory func(id identity.Identity) Entity

// Capability names reported by Capabilities.
const (
	CapUpdate  = "update"
	CapRender  = "render"
	CapEvents  = "events"
	CapPersist = "persist"
)

// Capabilities lists which optional interfaces e implements.
func Capabilities(e any) []string {
	caps := make([]string, 0, 4)
	if _, ok := e.(Updatable); ok {
		caps = append(caps, CapUpdate)
	}
	if _, ok := e.(Renderable); ok {
		caps = append(caps, CapRender)
	}
	if _, ok := e.(EventConsumer); ok {
		caps = append(caps, CapEvents)
	}
	if _, ok := e.(interface {
		Serialize() ([]byte, error)
		Deserialize([]byte) error
	}); ok {
		caps = append(caps, CapPersist)
	}
	return caps
}
