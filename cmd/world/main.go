package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/ownership/internal/config"
	"github.com/zeusync/ownership/internal/core/observability/log"
	"github.com/zeusync/ownership/internal/injector"
	"github.com/zeusync/ownership/internal/sandbox"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to a .yaml or .toml config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	logger := app.Logger
	defer func() { _ = logger.Sync() }()

	if err = restore(app); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.World.Run(ctx)
	})
	if cfg.Inspector.Enabled {
		g.Go(func() error {
			return app.Inspector.ListenAndServe(ctx, cfg.Inspector.Addr)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		logger.Error("world stopped with error", log.Error(err))
	}

	if cfg.Persist.SaveOnExit {
		if saveErr := app.World.Save(app.Folder, cfg.Persist.Snapshot); saveErr != nil {
			logger.Error("snapshot not saved", log.Error(saveErr))
			err = errors.Join(err, saveErr)
		}
	}
	app.World.Shutdown()
	return err
}

// restore loads the configured snapshot, or spawns the demo population when
// there is none.
func restore(app *injector.App) error {
	cfg := app.Config
	if cfg.Persist.LoadOnStart && app.Folder.Exists(cfg.Persist.Snapshot) {
		return app.World.Load(app.Folder, cfg.Persist.Snapshot)
	}

	ids := app.World.Identities()
	for i := range cfg.World.Drifters {
		angle := float64(i)
		if _, err := app.World.Spawn(sandbox.NewDrifter(ids, 1+angle, 1-angle)); err != nil {
			return err
		}
	}
	for i := range cfg.World.Beacons {
		if _, err := app.World.Spawn(sandbox.NewBeacon(ids, fmt.Sprintf("beacon-%d", i))); err != nil {
			return err
		}
	}
	app.Logger.Info("demo population spawned",
		log.Int("drifters", cfg.World.Drifters),
		log.Int("beacons", cfg.World.Beacons))
	return nil
}
