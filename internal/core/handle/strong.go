// Package handle implements shared ownership of heap values through strong
// (owning) and weak (observing) handles backed by a shared control block.
//
// A *Strong[T] is one owner. Copying the pointer does not add an owner; use
// Clone for that, and Move to hand ownership over. The value is freed exactly
// once, synchronously, when the last owner releases it. Weak handles never keep
// a value alive and can only reach it through Upgrade.
//
// Owner counts are updated atomically, but a single *Strong[T] must not be
// mutated from several goroutines at once.
package handle

import "fmt"

// Strong is an owning handle. A nil *Strong[T] behaves as an empty handle.
type Strong[T any] struct {
	_ noCopy
	b *block[T]
}

// New takes ownership of value with an owner count of one.
func New[T any](value T, opts ...Option[T]) *Strong[T] {
	return &Strong[T]{b: newBlock(value, opts)}
}

// Valid reports whether the handle currently owns a live value.
func (s *Strong[T]) Valid() bool {
	return s != nil && s.b != nil
}

// Get returns the owned value or ErrEmptyHandle.
func (s *Strong[T]) Get() (T, error) {
	if !s.Valid() {
		var zero T
		return zero, ErrEmptyHandle
	}
	return s.b.value, nil
}

// MustGet is like Get but panics on an empty handle.
func (s *Strong[T]) MustGet() T {
	v, err := s.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Owners returns the number of strong handles sharing the value, or 0 when empty.
func (s *Strong[T]) Owners() int64 {
	if !s.Valid() {
		return 0
	}
	return s.b.owners.Load()
}

// Clone returns a new owner of the same value. Cloning an empty handle yields
// an empty handle.
func (s *Strong[T]) Clone() *Strong[T] {
	if !s.Valid() {
		return &Strong[T]{}
	}
	s.b.owners.Add(1)
	return &Strong[T]{b: s.b}
}

// Move transfers ownership to the returned handle and leaves s empty. The
// owner count does not change.
func (s *Strong[T]) Move() *Strong[T] {
	if !s.Valid() {
		return &Strong[T]{}
	}
	moved := &Strong[T]{b: s.b}
	s.b = nil
	return moved
}

// Release gives up this handle's ownership and empties it. It reports whether
// this call freed the value. Releasing an empty handle is a no-op.
func (s *Strong[T]) Release() bool {
	if !s.Valid() {
		return false
	}
	b := s.b
	s.b = nil
	return b.release()
}

// Reset empties the handle, releasing whatever it owned.
func (s *Strong[T]) Reset() {
	s.Release()
}

// ResetTo releases the current value and then takes ownership of value with a
// fresh control block. Unlike the other methods it needs a non-nil receiver.
func (s *Strong[T]) ResetTo(value T, opts ...Option[T]) {
	s.Release()
	s.b = newBlock(value, opts)
}

// Weak returns a non-owning handle to the same value.
func (s *Strong[T]) Weak() Weak[T] {
	if !s.Valid() {
		return Weak[T]{}
	}
	return Weak[T]{b: s.b}
}

// SameAs reports whether both handles share a control block.
func (s *Strong[T]) SameAs(other *Strong[T]) bool {
	return s.Valid() && other.Valid() && s.b == other.b
}

func (s *Strong[T]) String() string {
	if !s.Valid() {
		return "Strong(empty)"
	}
	return fmt.Sprintf("Strong(%p, owners=%d)", s.b, s.b.owners.Load())
}

// noCopy trips `go vet`'s copylocks check when a Strong is copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
