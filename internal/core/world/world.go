// Package world drives a set of owned entities through a fixed-rate loop.
//
// A World is single-writer: its state may only be touched from the goroutine
// that calls Run, or from any single goroutine while Run is not active. Other
// goroutines hand work to the loop with Post and Query.
package world

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zeusync/ownership/internal/core/events/bus"
	"github.com/zeusync/ownership/internal/core/handle"
	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/models"
	"github.com/zeusync/ownership/internal/core/observability/log"
	"github.com/zeusync/ownership/internal/core/registry"
)

// Command is a unit of work executed on the world loop.
type Command func(w *World)

type World struct {
	name     string
	entities *registry.Registry[models.Entity]
	ids      *identity.Sequence
	events   bus.EventBus
	log      log.Log
	kinds    map[string]models.Factory

	tickRate time.Duration
	commands chan Command
	running  atomic.Bool

	frame   atomic.Uint64
	elapsed atomic.Int64
}

func New(opts ...Option) *World {
	o := buildOptions(opts)
	logger := o.log.Named(o.name)

	return &World{
		name: o.name,
		entities: registry.New[models.Entity](
			registry.WithName(o.name),
			registry.WithLogger(logger),
			registry.WithEvents(o.events),
		),
		ids:      o.ids,
		events:   o.events,
		log:      logger,
		kinds:    make(map[string]models.Factory),
		tickRate: o.tickRate,
		commands: make(chan Command, o.queueSize),
	}
}

func (w *World) Name() string                   { return w.name }
func (w *World) Events() bus.EventBus           { return w.events }
func (w *World) Identities() *identity.Sequence { return w.ids }

// Frame returns the number of completed updates. Safe from any goroutine.
func (w *World) Frame() uint64 { return w.frame.Load() }

// Elapsed returns the simulated time accumulated by Update. Safe from any goroutine.
func (w *World) Elapsed() time.Duration { return time.Duration(w.elapsed.Load()) }

// Spawn hands e to the world, which becomes its sole owner. The returned weak
// handle observes e until it is despawned. When Spawn fails the world's handle
// is released, so e is destroyed unless someone else already owns it.
func (w *World) Spawn(e models.Entity) (handle.Weak[models.Entity], error) {
	if e == nil {
		return handle.Weak[models.Entity]{}, handle.ErrEmptyHandle
	}
	h := handle.New(e)
	weak, err := w.Adopt(h)
	if err != nil {
		h.Release()
		return weak, err
	}
	return weak, nil
}

// Adopt registers an existing strong handle, moving it into the world. A
// rejected handle is left untouched and still belongs to the caller.
func (w *World) Adopt(h *handle.Strong[models.Entity]) (handle.Weak[models.Entity], error) {
	weak := h.Weak()
	if err := w.entities.Add(h); err != nil {
		return handle.Weak[models.Entity]{}, fmt.Errorf("spawn: %w", err)
	}

	id := identity.None
	_ = weak.Do(func(e models.Entity) {
		id = e.ID()
		if a, ok := e.(Attachable); ok {
			a.Attach(w)
		}
	})
	w.publish(bus.EntitySpawned, id, weak)
	return weak, nil
}

// Despawn drops the world's share of the entity and reports whether it was
// present.
func (w *World) Despawn(id identity.Identity) bool {
	weak, ok := w.entities.Lookup(id)
	if !ok {
		return false
	}
	_ = weak.Do(detach)
	w.entities.Remove(id)
	w.publish(bus.EntityDespawned, id, weak)
	return true
}

func (w *World) Lookup(id identity.Identity) (handle.Weak[models.Entity], bool) {
	return w.entities.Lookup(id)
}

// Acquire returns a strong handle the caller must release.
func (w *World) Acquire(id identity.Identity) (*handle.Strong[models.Entity], bool) {
	return w.entities.Acquire(id)
}

func (w *World) Len() int { return w.entities.Len() }

func (w *World) Stats() registry.Stats { return w.entities.Stats() }

// each visits every entity alive at the start of the call, in identity order.
// Entities are held by a temporary strong handle while visited, so visit may
// spawn or despawn freely.
func (w *World) each(visit func(models.Entity)) {
	for _, id := range w.entities.IDs() {
		w.hold(id, func(s *handle.Strong[models.Entity]) {
			visit(s.MustGet())
		})
	}
}

// hold runs fn with a temporary strong handle to the entity registered under
// id, if there still is one.
func (w *World) hold(id identity.Identity, fn func(s *handle.Strong[models.Entity])) {
	s, ok := w.entities.Acquire(id)
	if !ok {
		return
	}
	defer s.Release()
	fn(s)
}

func detach(e models.Entity) {
	if a, ok := e.(Attachable); ok {
		a.Detach()
	}
}

// Update advances every Updatable entity by dt.
func (w *World) Update(dt time.Duration) {
	w.each(func(e models.Entity) {
		if u, ok := e.(models.Updatable); ok {
			u.Update(dt)
		}
	})
	w.frame.Add(1)
	w.elapsed.Add(int64(dt))
}

// Render draws every Renderable entity onto canvas.
func (w *World) Render(canvas models.Canvas) {
	w.each(func(e models.Entity) {
		if r, ok := e.(models.Renderable); ok {
			r.Render(canvas)
		}
	})
}

// Dispatch delivers event to every EventConsumer and to bus subscribers. All
// failures are joined into the returned error.
func (w *World) Dispatch(event bus.Event) error {
	var errs []error
	w.each(func(e models.Entity) {
		c, ok := e.(models.EventConsumer)
		if !ok {
			return
		}
		if err := c.HandleEvent(event); err != nil {
			errs = append(errs, fmt.Errorf("entity %s: %w", e.ID(), err))
		}
	})
	if err := w.events.Publish(event); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Post queues cmd for the loop. It blocks while the queue is full.
func (w *World) Post(ctx context.Context, cmd Command) error {
	select {
	case w.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Query runs fn on the loop and waits for it to finish. fn is skipped when
// ctx is done before the loop reaches it. Once Query has returned an error fn
// may still be running, so results should be passed back over a channel
// rather than through captured variables.
func (w *World) Query(ctx context.Context, fn Command) error {
	done := make(chan struct{})
	ran := false
	err := w.Post(ctx, func(w *World) {
		defer close(done)
		if ctx.Err() != nil {
			return
		}
		fn(w)
		ran = true
	})
	if err != nil {
		return err
	}
	select {
	case <-done:
		if !ran {
			return ctx.Err()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run updates the world every tick and executes posted commands until ctx
// is done. It returns ctx.Err().
func (w *World) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer w.running.Store(false)

	w.log.Info("world loop started", log.Duration("tick", w.tickRate), log.Int("entities", w.Len()))

	ticker := time.NewTicker(w.tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("world loop stopped", log.Uint64("frame", w.Frame()), log.Error(ctx.Err()))
			return ctx.Err()
		case cmd := <-w.commands:
			cmd(w)
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			w.Update(dt)
		}
	}
}

// Shutdown releases the world's share of every entity and returns how many
// there were. It must not be called while Run is active.
func (w *World) Shutdown() int {
	w.each(detach)
	n := w.entities.Clear()
	w.log.Info("world shut down", log.Int("released", n))
	return n
}

// EntityInfo describes one live entity.
type EntityInfo struct {
	ID           identity.Identity `json:"id"`
	Kind         string            `json:"kind"`
	Owners       int64             `json:"owners"`
	Capabilities []string          `json:"capabilities"`
}

// Describe lists every entity in identity order. Owners does not count the
// temporary handle Describe holds itself.
func (w *World) Describe() []EntityInfo {
	infos := make([]EntityInfo, 0, w.Len())
	for _, id := range w.entities.IDs() {
		w.hold(id, func(s *handle.Strong[models.Entity]) {
			e := s.MustGet()
			infos = append(infos, EntityInfo{
				ID:           id,
				Kind:         e.Kind(),
				Owners:       s.Owners() - 1,
				Capabilities: models.Capabilities(e),
			})
		})
	}
	return infos
}

func (w *World) publish(eventType string, id identity.Identity, weak handle.Weak[models.Entity]) {
	if err := w.events.Publish(bus.NewEvent(eventType, w.name, id, weak)); err != nil {
		w.log.Warn("event handler failed", log.String("event", eventType), log.Stringer("id", id), log.Error(err))
	}
}
