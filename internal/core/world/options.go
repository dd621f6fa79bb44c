package world

import (
	"time"

	"github.com/zeusync/ownership/internal/core/events/bus"
	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/observability/log"
)

const (
	DefaultTickRate  = 50 * time.Millisecond
	DefaultQueueSize = 256
)

type options struct {
	name      string
	tickRate  time.Duration
	queueSize int
	ids       *identity.Sequence
	events    bus.EventBus
	log       log.Log
}

type Option func(*options)

func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithTickRate sets the interval between updates while Run is active.
func WithTickRate(d time.Duration) Option {
	return func(o *options) { o.tickRate = d }
}

// WithQueueSize bounds the number of posted commands waiting for the loop.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// WithIdentities makes the world allocate from ids instead of a private sequence.
func WithIdentities(ids *identity.Sequence) Option {
	return func(o *options) { o.ids = ids }
}

func WithEvents(events bus.EventBus) Option {
	return func(o *options) { o.events = events }
}

func WithLogger(l log.Log) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{
		name:      "world",
		tickRate:  DefaultTickRate,
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tickRate <= 0 {
		o.tickRate = DefaultTickRate
	}
	if o.queueSize <= 0 {
		o.queueSize = DefaultQueueSize
	}
	if o.ids == nil {
		o.ids = identity.NewSequence()
	}
	if o.events == nil {
		o.events = bus.New()
	}
	if o.log == nil {
		o.log = log.Nop()
	}
	return o
}
