package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/switchboard/pkg/catalog"
	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/journal"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/server"
	"mercator-hq/switchboard/pkg/telemetry/health"
	"mercator-hq/switchboard/pkg/telemetry/metrics"
	"mercator-hq/switchboard/pkg/telemetry/tracing"
)

type serveOptions struct {
	listenAddress string
	logLevel      string
	watch         bool
	dryRun        bool
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	serveFlags := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dispatch and admin HTTP API",
		Long: `Serve the dispatch and admin HTTP API.

The server runs until SIGINT or SIGTERM. With --watch (or
Server.watch_config) the configuration file is reloaded when it changes;
an unusable file is logged and the running configuration kept.

Examples:
  switchboard serve
  switchboard serve --listen 0.0.0.0:8080 --watch
  switchboard serve --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, serveFlags)
		},
	}

	cmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	cmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&serveFlags.watch, "watch", false, "reload the config file when it changes")
	cmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "build everything but do not listen")
	return cmd
}

func runServe(cmd *cobra.Command, opts *globalOptions, serveFlags *serveOptions) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.watch {
		cfg.Server.WatchConfig = true
	}

	logger, err := opts.logger(cfg, cmd.ErrOrStderr(), serveFlags.logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	tracer, err := tracing.New(ctx, cfg.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	collector := metrics.NewCollector(cfg.Metrics, nil)

	j, err := journal.Open(cfg.Journal)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	if j != nil {
		defer j.Close()
	}

	router, err := routing.New(cfg,
		routing.WithLogger(logger),
		routing.WithObserver(collector),
		routing.WithJournal(j),
		routing.WithTracerProvider(tracer.Provider()),
	)
	if err != nil {
		logger.Warn("some providers or routes were skipped", "error", err)
	}
	collector.ObserveProviders(router.Adapters())

	refresher := catalog.NewRefresher(router, cfg.Catalog,
		catalog.WithLogger(logger),
		catalog.WithObserver(collector),
	)

	checker := health.New(2 * time.Second)
	checker.RegisterCheck("providers", func(context.Context) error {
		if len(router.Adapters()) == 0 {
			return errors.New("no providers registered")
		}
		return nil
	})
	if j != nil {
		checker.RegisterCheck("journal", func(ctx context.Context) error {
			_, err := j.List(ctx, 1)
			return err
		})
	}

	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithChecker(checker),
		server.WithVersion(Version, GitCommit),
	}
	if cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, server.WithMetricsHandler(cfg.Metrics.Path, collector.Handler()))
	}
	if tracer.Enabled() {
		serverOpts = append(serverOpts, server.WithTracerProvider(tracer.Provider()))
	}
	srv := server.New(cfg.Server, router, serverOpts...)

	logger.Info("switchboard starting",
		"version", Version,
		"listen_address", cfg.Server.ListenAddress,
		"providers", len(router.Adapters()),
		"routes", len(router.Table().Routes()),
		"journal", cfg.Journal.Enabled,
		"metrics", cfg.Metrics.Enabled,
		"tracing", tracer.Enabled(),
		"catalog_refresh", cfg.Catalog.Enabled,
	)

	if serveFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "configuration valid; not starting (dry run)")
		return nil
	}

	if err := refresher.Start(ctx); err != nil {
		return cli.NewConfigError(opts.configPath(), err)
	}
	defer refresher.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	if cfg.Server.WatchConfig {
		watchConfig(gctx, g, opts, router, collector, logger)
	}

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	logger.Info("switchboard stopped")
	return nil
}

// watchConfig reloads the router when the configuration file changes. A
// missing directory disables watching rather than failing the server.
func watchConfig(ctx context.Context, g *errgroup.Group, opts *globalOptions, router *routing.Router, collector *metrics.Collector, logger *slog.Logger) {
	path := opts.configPath()
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		logger.Warn("config directory not found, hot reload disabled", "path", path, "error", err)
		return
	}

	watcher := config.NewWatcher(path, opts.loader(logger), logger)
	g.Go(func() error {
		return watcher.Watch(ctx, func(cfg *config.Config) {
			if err := router.Reconfigure(cfg); err != nil {
				logger.Warn("reloaded configuration has skipped entries", "error", err)
			}
			collector.ObserveProviders(router.Adapters())
		})
	})
}
