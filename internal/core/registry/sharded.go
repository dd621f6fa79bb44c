package registry

import (
	"encoding/binary"
	"slices"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/ownership/internal/core/handle"
	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/models"
)

const defaultShardCount = 16

// Sharded spreads entities over several registries, each behind its own
// RWMutex, so it can be shared between goroutines.
type Sharded[T models.Identifiable] struct {
	shards []*shard[T]
}

type shard[T models.Identifiable] struct {
	mu  sync.RWMutex
	reg *Registry[T]
}

// NewSharded creates a sharded registry. A non-positive count selects the default.
func NewSharded[T models.Identifiable](count int, opts ...Option) *Sharded[T] {
	if count <= 0 {
		count = defaultShardCount
	}
	base := buildOptions(opts)

	s := &Sharded[T]{shards: make([]*shard[T], count)}
	for i := range s.shards {
		shardOpts := append(slices.Clone(opts), WithName(base.name+"/"+strconv.Itoa(i)))
		s.shards[i] = &shard[T]{reg: New[T](shardOpts...)}
	}
	return s
}

func (s *Sharded[T]) shardFor(id identity.Identity) *shard[T] {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], id.Uint64())
	return s.shards[xxhash.Sum64(buf[:])%uint64(len(s.shards))]
}

func (s *Sharded[T]) Insert(h *handle.Strong[T]) bool {
	return s.Add(h) == nil
}

// Add has the same ownership rules as Registry.Add.
func (s *Sharded[T]) Add(h *handle.Strong[T]) error {
	entity, err := h.Get()
	if err == nil && any(entity) == nil {
		err = handle.ErrEmptyHandle
	}
	if err != nil {
		return err
	}
	sh := s.shardFor(entity.ID())
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.reg.Add(h)
}

func (s *Sharded[T]) Lookup(id identity.Identity) (handle.Weak[T], bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.reg.Lookup(id)
}

func (s *Sharded[T]) Acquire(id identity.Identity) (*handle.Strong[T], bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.reg.Acquire(id)
}

func (s *Sharded[T]) Contains(id identity.Identity) bool {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.reg.Contains(id)
}

// Remove unlinks the entry under the shard lock and releases it after
// unlocking, so a Destroy or finalizer may call back into the registry.
func (s *Sharded[T]) Remove(id identity.Identity) bool {
	sh := s.shardFor(id)
	sh.mu.Lock()
	h, ok := sh.reg.take(id)
	sh.mu.Unlock()
	if !ok {
		return false
	}
	sh.reg.drop(id, h)
	return true
}

func (s *Sharded[T]) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += sh.reg.Len()
		sh.mu.RUnlock()
	}
	return n
}

// ForEach visits a snapshot of each shard taken under its read lock. Visitors
// run without any lock held and may call back into the registry.
func (s *Sharded[T]) ForEach(visit func(handle.Weak[T])) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		snapshot := make([]handle.Weak[T], 0, sh.reg.Len())
		sh.reg.ForEach(func(w handle.Weak[T]) {
			snapshot = append(snapshot, w)
		})
		sh.mu.RUnlock()

		for _, w := range snapshot {
			visit(w)
		}
	}
}

// IDs returns all registered identities in ascending order.
func (s *Sharded[T]) IDs() []identity.Identity {
	var ids []identity.Identity
	for _, sh := range s.shards {
		sh.mu.RLock()
		ids = append(ids, sh.reg.IDs()...)
		sh.mu.RUnlock()
	}
	slices.Sort(ids)
	return ids
}

// Clear empties every shard. As with Remove, handles are released outside
// the shard locks.
func (s *Sharded[T]) Clear() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		ids := sh.reg.IDs()
		taken := make([]*handle.Strong[T], 0, len(ids))
		for _, id := range ids {
			h, _ := sh.reg.take(id)
			taken = append(taken, h)
		}
		sh.mu.Unlock()

		for i, h := range taken {
			sh.reg.drop(ids[i], h)
		}
		n += len(ids)
	}
	return n
}

// Stats sums the counters of every shard.
func (s *Sharded[T]) Stats() Stats {
	var total Stats
	for _, sh := range s.shards {
		sh.mu.RLock()
		st := sh.reg.Stats()
		sh.mu.RUnlock()
		total.Live += st.Live
		total.Inserted += st.Inserted
		total.Removed += st.Removed
		total.Rejected += st.Rejected
		total.Freed += st.Freed
		total.Lookups += st.Lookups
		total.Misses += st.Misses
	}
	return total
}
