package registry

import (
	"github.com/zeusync/ownership/internal/core/events/bus"
	"github.com/zeusync/ownership/internal/core/observability/log"
)

type options struct {
	name   string
	log    log.Log
	events bus.EventBus
}

// Option configures a Registry or Sharded registry.
type Option func(*options)

// WithName labels log lines and events coming from the registry.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func WithLogger(l log.Log) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithEvents publishes registration lifecycle events to b.
func WithEvents(b bus.EventBus) Option {
	return func(o *options) { o.events = b }
}

func buildOptions(opts []Option) options {
	o := options{name: "registry", log: log.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
