// Package registry implements identity-keyed containers that own entities
// through strong handles and hand out weak handles for lookup and iteration.
package registry

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/zeusync/ownership/internal/core/events/bus"
	"github.com/zeusync/ownership/internal/core/handle"
	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/models"
	"github.com/zeusync/ownership/internal/core/observability/log"
	"github.com/zeusync/ownership/pkg/sequence"
)

// Stats is a snapshot of registry counters.
type Stats struct {
	Live     int
	Inserted uint64
	Removed  uint64
	Rejected uint64
	Freed    uint64
	Lookups  uint64
	Misses   uint64
}

// Registry owns one strong handle per identity. It is not safe for concurrent
// use; see Sharded for a synchronized variant.
//
// The registry must not be mutated while one of its iteration methods is
// running. Doing so panics with ErrMutationDuringIteration.
type Registry[T models.Identifiable] struct {
	entries   map[identity.Identity]*handle.Strong[T]
	iterating atomic.Int32
	opts      options
	log       log.Log

	inserted atomic.Uint64
	removed  atomic.Uint64
	rejected atomic.Uint64
	freed    atomic.Uint64
	lookups  atomic.Uint64
	misses   atomic.Uint64
}

func New[T models.Identifiable](opts ...Option) *Registry[T] {
	o := buildOptions(opts)
	return &Registry[T]{
		entries: make(map[identity.Identity]*handle.Strong[T]),
		opts:    o,
		log:     o.log.With(log.String("registry", o.name)),
	}
}

func (r *Registry[T]) Name() string { return r.opts.name }

// Insert registers h under its entity's identity and reports whether it did.
// See Add.
func (r *Registry[T]) Insert(h *handle.Strong[T]) bool {
	return r.Add(h) == nil
}

// Add takes ownership of h: on success h is moved into the registry and left
// empty, so callers that want to stay co-owners must Clone first. Empty
// handles, zero identities and identities already present are rejected and
// leave both the registry and h untouched.
func (r *Registry[T]) Add(h *handle.Strong[T]) error {
	r.checkMutable()

	entity, err := h.Get()
	if err == nil && any(entity) == nil {
		err = handle.ErrEmptyHandle
	}
	if err != nil {
		r.rejected.Add(1)
		return err
	}
	id := entity.ID()
	if id.IsZero() {
		r.rejected.Add(1)
		return ErrZeroIdentity
	}
	if _, exists := r.entries[id]; exists {
		r.rejected.Add(1)
		r.log.Warn("duplicate identity rejected", log.Stringer("id", id))
		return fmt.Errorf("%w: %s", ErrDuplicateIdentity, id)
	}

	owned := h.Move()
	r.entries[id] = owned
	r.inserted.Add(1)
	r.log.Debug("entity registered", log.Stringer("id", id), log.Int64("owners", owned.Owners()))
	r.publish(bus.EntityRegistered, id, owned.Weak())
	return nil
}

// Lookup returns a weak handle to the entity registered under id.
func (r *Registry[T]) Lookup(id identity.Identity) (handle.Weak[T], bool) {
	r.lookups.Add(1)
	h, ok := r.entries[id]
	if !ok {
		r.misses.Add(1)
		return handle.Weak[T]{}, false
	}
	return h.Weak(), true
}

// Acquire returns a new strong handle to the entity registered under id. The
// caller owns the returned handle and must release it.
func (r *Registry[T]) Acquire(id identity.Identity) (*handle.Strong[T], bool) {
	w, ok := r.Lookup(id)
	if !ok {
		return nil, false
	}
	return w.Upgrade()
}

func (r *Registry[T]) Contains(id identity.Identity) bool {
	_, ok := r.entries[id]
	return ok
}

func (r *Registry[T]) Len() int { return len(r.entries) }

// Remove drops the registry's share of the entity registered under id and
// reports whether there was one. The entity survives if other owners remain.
func (r *Registry[T]) Remove(id identity.Identity) bool {
	r.checkMutable()

	h, ok := r.take(id)
	if !ok {
		return false
	}
	r.drop(id, h)
	return true
}

// take unlinks the entry for id without releasing it.
func (r *Registry[T]) take(id identity.Identity) (*handle.Strong[T], bool) {
	h, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	delete(r.entries, id)
	r.removed.Add(1)
	return h, true
}

// drop releases a handle returned by take. It does not touch the entry map.
func (r *Registry[T]) drop(id identity.Identity, h *handle.Strong[T]) {
	w := h.Weak()
	freed := h.Release()
	r.log.Debug("entity unregistered", log.Stringer("id", id), log.Bool("freed", freed))
	r.publish(bus.EntityUnregistered, id, w)
	if freed {
		r.freed.Add(1)
		r.publish(bus.EntityFreed, id, w)
	}
}

// Clear releases every share held by the registry and returns how many
// entries there were.
func (r *Registry[T]) Clear() int {
	r.checkMutable()

	ids := r.IDs()
	for _, id := range ids {
		r.Remove(id)
	}
	return len(ids)
}

// ForEach calls visit with a weak handle for every registered entity, in no
// particular order.
func (r *Registry[T]) ForEach(visit func(handle.Weak[T])) {
	r.iterating.Add(1)
	defer r.iterating.Add(-1)

	for _, h := range r.entries {
		visit(h.Weak())
	}
}

// All yields (identity, weak handle) pairs in no particular order.
func (r *Registry[T]) All() iter.Seq2[identity.Identity, handle.Weak[T]] {
	return func(yield func(identity.Identity, handle.Weak[T]) bool) {
		r.iterating.Add(1)
		defer r.iterating.Add(-1)

		for id, h := range r.entries {
			if !yield(id, h.Weak()) {
				return
			}
		}
	}
}

// Iter exposes the registry's weak handles as a chainable iterator.
func (r *Registry[T]) Iter() *sequence.Iterator[handle.Weak[T]] {
	return sequence.Values(r.All())
}

// IDs returns the registered identities in ascending order.
func (r *Registry[T]) IDs() []identity.Identity {
	return slices.Sorted(maps.Keys(r.entries))
}

func (r *Registry[T]) Stats() Stats {
	return Stats{
		Live:     len(r.entries),
		Inserted: r.inserted.Load(),
		Removed:  r.removed.Load(),
		Rejected: r.rejected.Load(),
		Freed:    r.freed.Load(),
		Lookups:  r.lookups.Load(),
		Misses:   r.misses.Load(),
	}
}

func (r *Registry[T]) checkMutable() {
	if r.iterating.Load() > 0 {
		panic(ErrMutationDuringIteration)
	}
}

func (r *Registry[T]) publish(eventType string, id identity.Identity, w handle.Weak[T]) {
	if r.opts.events == nil {
		return
	}
	if err := r.opts.events.Publish(bus.NewEvent(eventType, r.opts.name, id, w)); err != nil {
		r.log.Warn("event handler failed", log.String("event", eventType), log.Stringer("id", id), log.Error(err))
	}
}
