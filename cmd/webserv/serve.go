package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/indigo-web/webserv"
	"github.com/indigo-web/webserv/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start serving all the virtual servers",
		Long: `Binds every listen address of the database and serves until SIGINT or SIGTERM.
Connections in flight are given some time to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, store, err := opts.load()
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
			})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := webserv.New(cfg, store, logger).
				NotifyOnStop(func() {
					logger.Info("stopped")
				})

			logger.Info("starting",
				zap.String("config", opts.configPath),
				zap.Ints("servers", store.Indices()),
				zap.String("match", cfg.Resolver.Mode),
				zap.String("locking", cfg.Dispatch.Locking),
			)

			return app.Serve(ctx)
		},
	}
}
