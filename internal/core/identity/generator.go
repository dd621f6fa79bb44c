package identity

import (
	"math"
	"sync/atomic"
)

// Generator issues identities that are never handed out twice.
type Generator interface {
	Next() Identity
}

var _ Generator = (*Sequence)(nil)

// Sequence is a monotonically increasing generator. It is safe for concurrent use.
type Sequence struct {
	last atomic.Uint64
}

// NewSequence returns a generator whose first identity is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceFrom returns a generator that continues after last.
func NewSequenceFrom(last Identity) *Sequence {
	s := &Sequence{}
	s.last.Store(uint64(last))
	return s
}

// Next returns the next identity. It panics with ErrIdentitySpaceExhausted once
// the 64-bit space is used up.
func (s *Sequence) Next() Identity {
	for {
		cur := s.last.Load()
		if cur == math.MaxUint64 {
			panic(ErrIdentitySpaceExhausted)
		}
		if s.last.CompareAndSwap(cur, cur+1) {
			return Identity(cur + 1)
		}
	}
}

// Observe makes sure id will never be issued by this generator. Used when
// entities with persisted identities are restored.
func (s *Sequence) Observe(id Identity) {
	for {
		cur := s.last.Load()
		if uint64(id) <= cur {
			return
		}
		if s.last.CompareAndSwap(cur, uint64(id)) {
			return
		}
	}
}

// Last returns the most recently issued (or observed) identity.
func (s *Sequence) Last() Identity {
	return Identity(s.last.Load())
}

var process = NewSequence()

// Default returns the process-wide generator.
func Default() *Sequence {
	return process
}

// Next issues an identity from the process-wide generator.
func Next() Identity {
	return process.Next()
}
