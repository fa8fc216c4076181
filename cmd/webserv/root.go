package main

import (
	"fmt"

	"github.com/indigo-web/webserv/confdb"
	"github.com/indigo-web/webserv/config"
	"github.com/spf13/cobra"
)

// options are shared by all the subcommands.
type options struct {
	configPath string
	logLevel   string
	logFormat  string
	locking    string
	match      string
}

func newRootCmd() *cobra.Command {
	opts := new(options)

	rootCmd := &cobra.Command{
		Use:   "webserv",
		Short: "HTTP/1.1 server configured by an nginx-like directive database",
		Long: `webserv serves static files, uploads and CGI scripts for the virtual servers
declared in a pre-parsed directive database (YAML or JSON).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "webserv.yaml", "Path to the directive database")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")
	flags.StringVar(&opts.locking, "locking", "", "Locking discipline: global or path")
	flags.StringVar(&opts.match, "match", "", "Location matching mode: literal or nginx")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newCheckCmd(opts),
		newResolveCmd(opts),
	)

	return rootCmd
}

// load reads the database, applying its settings block and then the flags on top of defaults.
func (o *options) load() (*config.Config, *confdb.Store, error) {
	cfg := config.Default()

	store, err := confdb.LoadFile(o.configPath, cfg)
	if err != nil {
		return nil, nil, err
	}

	overrideIfSet(&cfg.Log.Level, o.logLevel)
	overrideIfSet(&cfg.Log.Format, o.logFormat)
	overrideIfSet(&cfg.Dispatch.Locking, o.locking)
	overrideIfSet(&cfg.Resolver.Mode, o.match)

	if err = cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid settings: %w", err)
	}

	return cfg, store, nil
}

func overrideIfSet(field *string, value string) {
	if len(value) > 0 {
		*field = value
	}
}
