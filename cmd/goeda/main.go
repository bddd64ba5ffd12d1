// SPDX-License-Identifier: MIT

// Command goeda runs the event-driven application daemon with the built-in
// adapters and the greeter demo context.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goeda/goeda/application"
	"github.com/goeda/goeda/config"
	"github.com/goeda/goeda/eventstore"
	"github.com/goeda/goeda/health"
	"github.com/goeda/goeda/infra/cli"
	"github.com/goeda/goeda/infra/httpapi"
	"github.com/goeda/goeda/infra/memorybus"
	"github.com/goeda/goeda/infra/redisbus"
	"github.com/goeda/goeda/internal/greeter"
	"github.com/goeda/goeda/log"
	"github.com/goeda/goeda/ports"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

const banner = `goeda - event-driven hexagonal application runtime`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("goeda", flag.ContinueOnError)
	showVersion := fs.Bool("version", false, "print version and exit")
	greet := fs.String("greet", "", "issue one greeting and exit (use with --one-shot)")
	replay := fs.String("replay", "", "re-dispatch journaled events not yet seen by this consumer name")
	fs.String("config", "", "path to config file (YAML)")
	oneShot := fs.Bool("one-shot", false, "run compatible ports once and exit")
	fs.Bool("v", false, "debug logging")
	fs.Bool("vv", false, "trace logging")
	fs.Bool("q", false, "errors only, no banner")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		return 0
	}

	log.Configure(log.Config{
		Level:   "info",
		Service: "goeda",
	})
	logger := log.WithComponent("main")

	greeter.Register()

	healthManager := health.NewManager(version)

	ports.Register(ports.Registration{
		Name:    "cli",
		Port:    ports.Primary,
		Layer:   ports.LayerInfrastructure,
		Adapter: &cli.LogConfigCLI{Args: args},
	})
	ports.Register(ports.Registration{
		Name:    "greeter-cli",
		Port:    ports.Primary,
		Layer:   ports.LayerInfrastructure,
		Adapter: &greeter.CLI{Who: *greet},
	})

	bus := memorybus.New()
	ports.Register(ports.Registration{
		Name:    "memorybus",
		Port:    ports.EventEmitter,
		Layer:   ports.LayerInfrastructure,
		Adapter: bus,
	})

	opts := []application.Option{
		application.WithBanner(banner),
		application.WithVersion(version),
		application.WithConfigPath(cli.ConfigPath(args)),
		application.WithAfterBootstrap(registerOptionalAdapters(healthManager, *replay)),
	}
	if *oneShot {
		opts = append(opts, application.WithOneShot())
	}

	app, err := application.New("goeda", opts...)
	if err != nil {
		logger.Error().Err(err).Msg("bootstrap failed")
		return 1
	}

	ctx, stop := application.WaitForShutdown()
	defer stop()

	if path := cli.ConfigPath(args); path != "" {
		watcher, err := config.NewWatcher(path, func(cfg config.AppConfig) {
			if err := log.SetLevel(cfg.Log.Level); err != nil {
				logger.Warn().Err(err).Str("level", cfg.Log.Level).Msg("reloaded config has invalid log level")
			}
		})
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("config watcher unavailable")
		} else {
			go func() {
				if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
					logger.Warn().Err(err).Msg("config watcher stopped")
				}
			}()
		}
	}

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("application failed")
		return 1
	}
	return 0
}

// registerOptionalAdapters finishes wiring that depends on the loaded
// config: the HTTP surface, the Redis bridge, health checkers and the
// journal replay.
func registerOptionalAdapters(healthManager *health.Manager, replayConsumer string) func(ctx context.Context, app *application.App) error {
	return func(ctx context.Context, app *application.App) error {
		cfg := app.Config()

		if cfg.Store.Path != "" {
			dir := storeDir(cfg.Store)
			healthManager.RegisterChecker(health.NewWritableDirChecker("store", dir))
		}

		if j := app.Journal(); j != nil {
			healthManager.RegisterChecker(health.NewChecker("journal", func(ctx context.Context) error {
				_, err := j.LastSeq(ctx)
				return err
			}))
			if replayConsumer != "" {
				if err := replayJournal(ctx, app, replayConsumer); err != nil {
					return fmt.Errorf("replay journal: %w", err)
				}
			}
		}

		if cfg.Redis.Enabled {
			emitter, err := redisbus.NewEmitter(cfg.Redis)
			if err != nil {
				return fmt.Errorf("redis emitter: %w", err)
			}
			app.RegisterShutdownHook("redis-emitter", func(context.Context) error { return emitter.Close() })
			app.AttachEmitter(emitter)
			healthManager.RegisterChecker(health.Informational(health.NewChecker("redis", emitter.Ping)))

			receiver, err := redisbus.NewReceiver(cfg.Redis)
			if err != nil {
				return fmt.Errorf("redis receiver: %w", err)
			}
			app.RegisterShutdownHook("redis-receiver", func(context.Context) error { return receiver.Close() })
			app.AttachPrimary(receiver)
		}

		if cfg.HTTP.Enabled {
			app.AttachPrimary(httpapi.New(healthManager))
		}
		return nil
	}
}

func storeDir(store config.StoreConfig) string {
	if store.Backend == "sqlite" {
		return filepath.Dir(store.Path)
	}
	return store.Path
}

const replayBatchSize = 256

// replayJournal re-dispatches journaled events this consumer has not seen
// yet, committing the checkpoint after every batch. Replay stops at the
// sequence the journal held when it started: events the replay cascade
// produces are journaled past that point and must not be replayed into
// themselves.
func replayJournal(ctx context.Context, app *application.App, consumerName string) error {
	dir := storeDir(app.Config().Store)
	if dir == "" {
		dir = "."
	}
	consumer, err := eventstore.NewConsumer(consumerName, dir, app.Journal())
	if err != nil {
		return err
	}
	end, err := app.Journal().LastSeq(ctx)
	if err != nil {
		return err
	}

	logger := log.WithComponent("replay")
	total := 0
	for consumer.Seq() < end {
		records, err := consumer.Next(ctx, replayBatchSize)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			break
		}
		last := consumer.Seq()
		for _, rec := range records {
			if rec.Seq > end {
				break
			}
			if _, err := app.Replay(ctx, rec.Envelope.Event()); err != nil {
				return fmt.Errorf("dispatch seq %d: %w", rec.Seq, err)
			}
			last = rec.Seq
			total++
		}
		if err := consumer.Commit(last); err != nil {
			return err
		}
	}
	if total > 0 {
		logger.Info().
			Str("consumer", consumerName).
			Int("events", total).
			Uint64("seq", consumer.Seq()).
			Msg("journal replay complete")
	}
	return nil
}
