package world

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/models"
	"github.com/zeusync/ownership/internal/core/observability/log"
	"github.com/zeusync/ownership/internal/persist"
	"github.com/zeusync/ownership/pkg/encoding"
)

type snapshot struct {
	Frame    uint64            `json:"frame"`
	LastID   identity.Identity `json:"last_id"`
	Entities []record          `json:"entities"`
}

type record struct {
	ID    identity.Identity `json:"id"`
	Kind  string            `json:"kind"`
	State json.RawMessage   `json:"state"`
}

// RegisterKind makes entities of kind restorable by Load.
func (w *World) RegisterKind(kind string, factory models.Factory) error {
	if kind == "" {
		return ErrEmptyKind
	}
	if _, exists := w.kinds[kind]; exists {
		return fmt.Errorf("%w: %s", ErrKindRegistered, kind)
	}
	w.kinds[kind] = factory
	return nil
}

// Kinds returns the registered kinds in sorted order.
func (w *World) Kinds() []string {
	kinds := make([]string, 0, len(w.kinds))
	for k := range w.kinds {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Save writes every serializable entity to name inside folder. Entities that
// do not implement encoding.Serializable are skipped.
func (w *World) Save(folder *persist.Folder, name string) error {
	snap := snapshot{
		Frame:    w.Frame(),
		LastID:   w.ids.Last(),
		Entities: make([]record, 0, w.Len()),
	}

	var failed error
	skipped := 0
	w.each(func(e models.Entity) {
		if failed != nil {
			return
		}
		s, ok := e.(encoding.Serializable)
		if !ok {
			skipped++
			return
		}
		state, err := encoding.Extract(s)
		if err != nil {
			failed = fmt.Errorf("entity %s: %w", e.ID(), err)
			return
		}
		snap.Entities = append(snap.Entities, record{ID: e.ID(), Kind: e.Kind(), State: state})
	})
	if failed != nil {
		return fmt.Errorf("save %q: %w", name, failed)
	}

	if err := folder.WriteJSON(name, snap); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	w.log.Info("snapshot saved",
		log.String("file", name),
		log.Int("entities", len(snap.Entities)),
		log.Int("skipped", skipped))
	return nil
}

// Load spawns the entities stored in name with their original identities,
// moves the identity sequence past every one of them and resumes the frame
// counter. Loading stops at the
// first entity that cannot be restored; entities spawned before it remain.
func (w *World) Load(folder *persist.Folder, name string) error {
	var snap snapshot
	if err := folder.ReadJSON(name, &snap); err != nil {
		return fmt.Errorf("load: %w", err)
	}

	w.ids.Observe(snap.LastID)
	w.frame.Store(snap.Frame)
	for _, rec := range snap.Entities {
		if err := w.restore(rec); err != nil {
			return fmt.Errorf("load %q: entity %s: %w", name, rec.ID, err)
		}
	}

	w.log.Info("snapshot loaded", log.String("file", name), log.Int("entities", len(snap.Entities)))
	return nil
}

func (w *World) restore(rec record) error {
	factory, ok := w.kinds[rec.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
	}
	w.ids.Observe(rec.ID)

	e := factory(rec.ID)
	if e.ID() != rec.ID {
		return fmt.Errorf("%w: got %s", ErrIDMismatch, e.ID())
	}
	s, ok := e.(encoding.Serializable)
	if !ok {
		return ErrNotSerializable
	}
	if err := encoding.Inject(s, rec.State); err != nil {
		return err
	}
	_, err := w.Spawn(e)
	return err
}
