package handle

import "fmt"

// Weak observes a value without owning it. Two weak handles are equal when they
// refer to the same control block, so Weak is usable as a map key.
//
// There is deliberately no accessor for the value: go through Upgrade or Do.
type Weak[T any] struct {
	b *block[T]
}

// From returns a weak handle observing s.
func From[T any](s *Strong[T]) Weak[T] {
	return s.Weak()
}

// IsZero reports whether w was never bound to a value.
func (w Weak[T]) IsZero() bool {
	return w.b == nil
}

// Alive reports whether the observed value still has an owner.
func (w Weak[T]) Alive() bool {
	return w.b != nil && w.b.alive()
}

// Upgrade returns a new owner of the value if it is still alive.
func (w Weak[T]) Upgrade() (*Strong[T], bool) {
	if w.b == nil || !w.b.acquire() {
		return nil, false
	}
	return &Strong[T]{b: w.b}, true
}

// Do upgrades, calls fn with the value and releases again. It returns
// ErrStaleReference when the value is gone.
func (w Weak[T]) Do(fn func(T)) error {
	s, ok := w.Upgrade()
	if !ok {
		return ErrStaleReference
	}
	defer s.Release()
	fn(s.b.value)
	return nil
}

// Equal reports whether both handles refer to the same control block.
func (w Weak[T]) Equal(other Weak[T]) bool {
	return w.b == other.b
}

// Observes reports whether w refers to the value owned by s.
func (w Weak[T]) Observes(s *Strong[T]) bool {
	return w.b != nil && s.Valid() && w.b == s.b
}

func (w Weak[T]) String() string {
	if w.b == nil {
		return "Weak(nil)"
	}
	return fmt.Sprintf("Weak(%p, alive=%t)", w.b, w.b.alive())
}
