package handle

import "sync/atomic"

// Destroyer is implemented by values that need deterministic cleanup when the
// last owner lets go of them.
type Destroyer interface {
	Destroy()
}

// block is the control block shared by every handle aliasing the same value.
type block[T any] struct {
	value      T
	owners     atomic.Int64
	finalizers []func(T)
}

func newBlock[T any](value T, opts []Option[T]) *block[T] {
	b := &block[T]{value: value}
	for _, opt := range opts {
		opt(b)
	}
	b.owners.Store(1)
	return b
}

// acquire adds an owner unless the value has already been freed.
func (b *block[T]) acquire() bool {
	for {
		n := b.owners.Load()
		if n <= 0 {
			return false
		}
		if b.owners.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release drops one owner and frees the value when none remain.
// It reports whether this call freed it.
func (b *block[T]) release() bool {
	n := b.owners.Add(-1)
	if n > 0 {
		return false
	}
	if n < 0 {
		panic("handle: owner count underflow")
	}

	value := b.value
	for _, fn := range b.finalizers {
		fn(value)
	}
	if d, ok := any(value).(Destroyer); ok {
		d.Destroy()
	}

	var zero T
	b.value = zero
	b.finalizers = nil
	return true
}

func (b *block[T]) alive() bool {
	return b.owners.Load() > 0
}

// Option configures a freshly constructed control block.
type Option[T any] func(*block[T])

// WithFinalizer registers fn to run exactly once, when the value is freed.
func WithFinalizer[T any](fn func(T)) Option[T] {
	return func(b *block[T]) {
		if fn != nil {
			b.finalizers = append(b.finalizers, fn)
		}
	}
}
