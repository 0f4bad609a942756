package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/journal"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/telemetry/logging"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	cfgFile string
	verbose bool
	output  string

	// getenv looks up environment overrides; nil means os.Getenv.
	getenv func(string) string
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&globalOptions{})
}

func buildRootCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "switchboard",
		Short: "Switchboard - task-labelled LLM routing",
		Long: `Switchboard dispatches prompts to LLM providers according to a route table
that maps task labels to "provider,model" pairs.

Providers without credentials, unreachable providers and malformed replies
never fail a dispatch: the reply is simulated and says why.

The configuration file defaults to ~/.ccli/config.json and can be set with
--config or SWITCHBOARD_CONFIG. A missing file means the built-in defaults.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file path (default ~/.ccli/config.json)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format (text, json)")

	cmd.AddCommand(
		newDispatchCmd(opts),
		newRoutesCmd(opts),
		newProvidersCmd(opts),
		newJournalCmd(opts),
		newValidateCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *globalOptions) loader(logger *slog.Logger) *config.Loader {
	return &config.Loader{Getenv: o.getenv, Logger: logger}
}

// configPath returns the file the commands read and write.
func (o *globalOptions) configPath() string {
	return o.loader(nil).ResolvePath(o.cfgFile)
}

// loadConfig loads the configuration the way the router does. The loader
// reports an unusable file or ignored entries once, on stderr.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	bootstrap, err := logging.New(logging.Config{
		Level:         o.level("warn"),
		Format:        "text",
		RedactSecrets: true,
		Writer:        cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	// Load never returns a nil config; its error has already been logged.
	cfg, _ := o.loader(bootstrap).Load(o.cfgFile)
	return cfg, nil
}

// logger builds the command logger from cfg. One-shot commands log warnings
// and above unless --verbose is set.
func (o *globalOptions) logger(cfg *config.Config, w io.Writer, fallbackLevel string) (*slog.Logger, error) {
	level := fallbackLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Config{
		Level:         o.level(level),
		Format:        cfg.Logging.Format,
		AddSource:     cfg.Logging.AddSource,
		RedactSecrets: !cfg.Logging.ShowSecrets,
		Writer:        w,
	})
	if err != nil {
		return nil, cli.NewConfigError(o.configPath(), err)
	}
	return logger, nil
}

func (o *globalOptions) level(fallback string) string {
	if o.verbose {
		return "debug"
	}
	return fallback
}

func (o *globalOptions) formatter() (cli.Formatter, error) {
	return cli.NewFormatter(cli.OutputFormat(o.output))
}

// newRouter builds a router for a one-shot command. Skipped providers and
// routes are reported as warnings.
func (o *globalOptions) newRouter(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, j journal.Journal) *routing.Router {
	router, err := routing.New(cfg, routing.WithLogger(logger), routing.WithJournal(j))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	return router
}
