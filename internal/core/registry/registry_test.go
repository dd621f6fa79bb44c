package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/ownership/internal/core/events/bus"
	"github.com/zeusync/ownership/internal/core/handle"
	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/models"
)

type unit struct {
	models.Object
	name      string
	destroy   *int
	onDestroy func()
}

func (u *unit) Destroy() {
	if u.destroy != nil {
		*u.destroy++
	}
	if u.onDestroy != nil {
		u.onDestroy()
	}
}

func newUnit(gen identity.Generator, name string) (*unit, *int) {
	n := 0
	return &unit{Object: models.NewObject(gen), name: name, destroy: &n}, &n
}

func TestInsertLookupRemove(t *testing.T) {
	gen := identity.NewSequence()
	reg := New[*unit]()

	a, freedA := newUnit(gen, "a")
	b, _ := newUnit(gen, "b")
	require.NoError(t, reg.Add(handle.New(a)))
	require.NoError(t, reg.Add(handle.New(b)))
	assert.Equal(t, 2, reg.Len())

	w, ok := reg.Lookup(a.ID())
	require.True(t, ok)
	s, ok := w.Upgrade()
	require.True(t, ok)
	assert.Same(t, a, s.MustGet())
	assert.EqualValues(t, 2, s.Owners())
	s.Release()

	dup := handle.New(&unit{Object: models.RestoreObject(a.ID()), name: "dup"})
	err := reg.Add(dup)
	require.ErrorIs(t, err, ErrDuplicateIdentity)
	assert.True(t, dup.Valid(), "rejected handle stays with the caller")
	assert.Equal(t, 2, reg.Len())

	assert.True(t, reg.Remove(a.ID()))
	assert.False(t, reg.Remove(a.ID()))
	assert.Equal(t, 1, *freedA)
	assert.False(t, w.Alive())
	_, ok = w.Upgrade()
	assert.False(t, ok)

	_, ok = reg.Lookup(a.ID())
	assert.False(t, ok)
	assert.True(t, reg.Contains(b.ID()))
}

func TestRemoveKeepsExternallyOwnedEntity(t *testing.T) {
	reg := New[*unit]()
	u, destroyed := newUnit(identity.NewSequence(), "kept")

	mine := handle.New(u)
	require.NoError(t, reg.Add(mine.Clone()))
	assert.EqualValues(t, 2, mine.Owners())

	assert.True(t, reg.Remove(u.ID()))
	assert.Zero(t, *destroyed)
	assert.EqualValues(t, 1, mine.Owners())
	assert.Same(t, u, mine.MustGet())

	assert.True(t, mine.Release())
	assert.Equal(t, 1, *destroyed)
}

func TestAddMovesHandle(t *testing.T) {
	reg := New[*unit]()
	u, _ := newUnit(identity.NewSequence(), "moved")

	h := handle.New(u)
	require.NoError(t, reg.Add(h))
	assert.False(t, h.Valid())

	w, ok := reg.Lookup(u.ID())
	require.True(t, ok)
	s, ok := w.Upgrade()
	require.True(t, ok)
	defer s.Release()
	assert.EqualValues(t, 2, s.Owners())
}

func TestAddRejectsInvalidHandles(t *testing.T) {
	reg := New[*unit]()

	assert.ErrorIs(t, reg.Add(nil), handle.ErrEmptyHandle)
	assert.ErrorIs(t, reg.Add(&handle.Strong[*unit]{}), handle.ErrEmptyHandle)
	assert.ErrorIs(t, reg.Add(handle.New(&unit{})), ErrZeroIdentity)
	assert.False(t, reg.Insert(nil))

	assert.Zero(t, reg.Len())
	assert.EqualValues(t, 4, reg.Stats().Rejected)
}

func TestMutationDuringIterationPanics(t *testing.T) {
	gen := identity.NewSequence()
	reg := New[*unit]()
	u, _ := newUnit(gen, "a")
	require.NoError(t, reg.Add(handle.New(u)))

	assert.PanicsWithValue(t, ErrMutationDuringIteration, func() {
		reg.ForEach(func(handle.Weak[*unit]) {
			other, _ := newUnit(gen, "b")
			reg.Add(handle.New(other))
		})
	})
	assert.PanicsWithValue(t, ErrMutationDuringIteration, func() {
		for id := range reg.All() {
			reg.Remove(id)
		}
	})

	// the guard is released once iteration ends
	assert.True(t, reg.Remove(u.ID()))
}

func TestIterationVisitsEveryEntity(t *testing.T) {
	gen := identity.NewSequence()
	reg := New[*unit]()
	want := make([]identity.Identity, 0, 4)
	for _, name := range []string{"a", "b", "c", "d"} {
		u, _ := newUnit(gen, name)
		want = append(want, u.ID())
		require.True(t, reg.Insert(handle.New(u)))
	}

	assert.Equal(t, want, reg.IDs())

	visited := 0
	reg.ForEach(func(w handle.Weak[*unit]) {
		assert.True(t, w.Alive())
		visited++
	})
	assert.Equal(t, 4, visited)

	named := reg.Iter().Filter(func(w handle.Weak[*unit]) bool {
		found := false
		_ = w.Do(func(u *unit) { found = u.name == "c" })
		return found
	}).Count()
	assert.Equal(t, 1, named)

	for id, w := range reg.All() {
		require.NoError(t, w.Do(func(u *unit) { assert.Equal(t, id, u.ID()) }))
	}
}

func TestClear(t *testing.T) {
	gen := identity.NewSequence()
	reg := New[*unit]()
	counts := make([]*int, 0, 3)
	for range 3 {
		u, n := newUnit(gen, "x")
		counts = append(counts, n)
		require.NoError(t, reg.Add(handle.New(u)))
	}

	assert.Equal(t, 3, reg.Clear())
	assert.Zero(t, reg.Len())
	for _, n := range counts {
		assert.Equal(t, 1, *n)
	}
}

func TestEventsPublished(t *testing.T) {
	events := bus.New()
	var seen []string
	_, err := events.SubscribeAll(func(e bus.Event) error {
		seen = append(seen, e.Type())
		_, ok := e.Data().(handle.Weak[*unit])
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	reg := New[*unit](WithName("units"), WithEvents(events))
	assert.Equal(t, "units", reg.Name())

	u, _ := newUnit(identity.NewSequence(), "a")
	require.NoError(t, reg.Add(handle.New(u)))
	require.True(t, reg.Remove(u.ID()))

	assert.Equal(t, []string{bus.EntityRegistered, bus.EntityUnregistered, bus.EntityFreed}, seen)
}

func TestStats(t *testing.T) {
	gen := identity.NewSequence()
	reg := New[*unit]()
	u, _ := newUnit(gen, "a")
	require.NoError(t, reg.Add(handle.New(u)))

	reg.Lookup(u.ID())
	reg.Lookup(gen.Next())
	reg.Remove(u.ID())

	st := reg.Stats()
	assert.Equal(t, Stats{Live: 0, Inserted: 1, Removed: 1, Freed: 1, Lookups: 2, Misses: 1}, st)
}

func TestShardedConcurrentUse(t *testing.T) {
	gen := identity.NewSequence()
	reg := NewSharded[*unit](4, WithName("sharded"))

	const workers, perWorker = 8, 200
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				u, _ := newUnit(gen, "w")
				if !assert.NoError(t, reg.Add(handle.New(u))) {
					return
				}
				if s, ok := reg.Acquire(u.ID()); assert.True(t, ok) {
					s.Release()
				}
				if u.ID().Uint64()%2 == 0 {
					assert.True(t, reg.Remove(u.ID()))
				}
			}
		}()
	}
	wg.Wait()

	total := workers * perWorker
	assert.Equal(t, total/2, reg.Len())
	assert.Len(t, reg.IDs(), total/2)

	st := reg.Stats()
	assert.EqualValues(t, total, st.Inserted)
	assert.EqualValues(t, total/2, st.Removed)
	assert.EqualValues(t, total/2, st.Freed)

	visited := 0
	reg.ForEach(func(w handle.Weak[*unit]) {
		// visitors run outside the shard locks
		_ = w.Do(func(u *unit) { reg.Contains(u.ID()) })
		visited++
	})
	assert.Equal(t, total/2, visited)

	assert.Equal(t, total/2, reg.Clear())
	assert.Zero(t, reg.Len())
}

func TestShardedRejects(t *testing.T) {
	reg := NewSharded[*unit](0)
	u, _ := newUnit(identity.NewSequence(), "a")
	require.True(t, reg.Insert(handle.New(u)))

	err := reg.Add(handle.New(&unit{Object: models.RestoreObject(u.ID())}))
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
	assert.ErrorIs(t, reg.Add(nil), handle.ErrEmptyHandle)

	_, ok := reg.Lookup(u.ID())
	assert.True(t, ok)
	assert.True(t, reg.Remove(u.ID()))
	assert.False(t, reg.Contains(u.ID()))
}

func TestShardedDestroyMayCallBack(t *testing.T) {
	gen := identity.NewSequence()
	reg := NewSharded[*unit](1)

	a, freedA := newUnit(gen, "a")
	b, freedB := newUnit(gen, "b")
	a.onDestroy = func() { reg.Remove(b.ID()) }
	require.NoError(t, reg.Add(handle.New(a)))
	require.NoError(t, reg.Add(handle.New(b)))

	assert.True(t, reg.Remove(a.ID()))
	assert.Equal(t, 1, *freedA)
	assert.Equal(t, 1, *freedB)
	assert.Zero(t, reg.Len())

	c, freedC := newUnit(gen, "c")
	seen := true
	c.onDestroy = func() { seen = reg.Contains(c.ID()) }
	require.NoError(t, reg.Add(handle.New(c)))

	assert.Equal(t, 1, reg.Clear())
	assert.Equal(t, 1, *freedC)
	assert.False(t, seen)
	assert.EqualValues(t, 3, reg.Stats().Freed)
}
