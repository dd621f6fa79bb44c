package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/ownership/internal/config"
	"github.com/zeusync/ownership/internal/core/events/bus"
	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/observability/log"
	"github.com/zeusync/ownership/internal/core/world"
	"github.com/zeusync/ownership/internal/inspector"
	"github.com/zeusync/ownership/internal/persist"
	"github.com/zeusync/ownership/internal/sandbox"
)

// App is everything a world process runs.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Events    bus.EventBus
	World     *world.World
	Folder    *persist.Folder
	Inspector *inspector.Server
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideIdentities,
	ProvideEventBus,
	ProvideWorld,
	ProvideFolder,
	ProvideInspector,
)

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	return log.NewWithFormat(level, cfg.Logging.Format)
}

func ProvideIdentities(cfg *config.Config) *identity.Sequence {
	return identity.NewSequenceFrom(identity.Identity(cfg.Identity.Start))
}

func ProvideEventBus() bus.EventBus {
	return bus.New()
}

// ProvideWorld builds the world with every sandbox kind registered.
func ProvideWorld(cfg *config.Config, logger *log.Logger, ids *identity.Sequence, events bus.EventBus) (*world.World, error) {
	w := world.New(
		world.WithName(cfg.World.Name),
		world.WithTickRate(cfg.World.TickRate),
		world.WithQueueSize(cfg.World.QueueSize),
		world.WithIdentities(ids),
		world.WithEvents(events),
		world.WithLogger(logger),
	)
	if err := sandbox.Register(w); err != nil {
		return nil, err
	}
	return w, nil
}

func ProvideFolder(cfg *config.Config) *persist.Folder {
	return persist.NewFolder(cfg.Persist.Dir)
}

func ProvideInspector(cfg *config.Config, w *world.World, logger *log.Logger) *inspector.Server {
	return inspector.New(w, logger, cfg.Inspector.PushInterval)
}
