package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/catalog"
	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providerfactory"
	"mercator-hq/switchboard/pkg/providers"
)

// providerTable renders providers as columns. Credentials are never part of
// the view.
type providerTable []providerView

type providerView struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	BaseURL    string   `json:"api_base_url"`
	Configured bool     `json:"configured"`
	Models     []string `json:"models"`
}

func (t providerTable) Header() []string {
	return []string{"NAME", "TYPE", "CONFIGURED", "BASE URL", "MODELS"}
}

func (t providerTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, p := range t {
		rows = append(rows, []string{p.Name, p.Type, strconv.FormatBool(p.Configured), p.BaseURL, strings.Join(p.Models, ",")})
	}
	return rows
}

func viewsOf(adapters []providers.Adapter) providerTable {
	out := make(providerTable, 0, len(adapters))
	for _, a := range adapters {
		out = append(out, providerView{
			Name:       a.Name(),
			Type:       a.Type(),
			BaseURL:    a.Config().BaseURL,
			Configured: a.ValidateConfig(),
			Models:     a.GetModels(),
		})
	}
	return out
}

func newProvidersCmd(opts *globalOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the registered providers",
		Long: `List the registered providers in configuration order.

CONFIGURED is false for providers without a usable API key; dispatches to
them are simulated. With --refresh, providers that can discover their models
(ollama, openai-compatible and gemini) are asked for their current catalog
first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.formatter()
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := opts.logger(cfg, cmd.ErrOrStderr(), "warn")
			if err != nil {
				return err
			}

			router := opts.newRouter(cmd, cfg, logger, nil)
			if refresh {
				refresher := catalog.NewRefresher(router, cfg.Catalog, catalog.WithLogger(logger))
				if err := refresher.RefreshAll(cmd.Context()); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
			}
			return format.FormatTo(cmd.OutOrStdout(), viewsOf(router.Adapters()))
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "refresh model catalogs from the providers first")
	cmd.AddCommand(newProvidersAddCmd(opts))
	return cmd
}

func newProvidersAddCmd(opts *globalOptions) *cobra.Command {
	var (
		entry   config.ProviderEntry
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a provider in the config file",
		Long: `Add or replace a provider in the configuration file.

The type is inferred from the name when not given; base URL and models
default per type.

Examples:
  switchboard providers add deepseek --api-key sk-...
  switchboard providers add lmstudio --type generic --base-url http://localhost:1234/v1 --model qwen2.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry.Name = args[0]
			entry.Timeout = config.Duration(timeout)

			// Build the adapter once so an unusable entry is never saved.
			candidate := entry
			if candidate.Type == "" {
				candidate.Type = providerfactory.InferType(candidate.Name)
			}
			if candidate.BaseURL == "" {
				candidate.BaseURL = providerfactory.DefaultBaseURL(candidate.Type)
			}
			if len(candidate.Models) == 0 {
				candidate.Models = providerfactory.DefaultModels(candidate.Type)
			}
			adapter, err := providerfactory.NewAdapter(candidate.ProviderConfig())
			if err != nil {
				return cli.Usagef("%v", err)
			}

			path := opts.configPath()
			cfg, err := readForEdit(path)
			if err != nil {
				return err
			}
			cfg.Providers.Set(entry.Name, entry)
			config.ApplyDefaults(cfg)

			if err := config.Validate(cfg); err != nil {
				return cli.NewConfigError(path, err)
			}
			if err := config.WriteFile(path, cfg); err != nil {
				return cli.NewCommandError("providers add", err)
			}

			state := "configured"
			if !adapter.ValidateConfig() {
				state = "not configured, replies will be simulated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved provider %s (%s, %s) to %s\n", entry.Name, adapter.Type(), state, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&entry.Type, "type", "", "adapter family (openai, anthropic, gemini, ollama, generic, stub, ...)")
	cmd.Flags().StringVar(&entry.BaseURL, "base-url", "", "API base URL including the version segment")
	cmd.Flags().StringVar(&entry.APIKey, "api-key", "", "API key")
	cmd.Flags().StringSliceVar(&entry.Models, "model", nil, "model name; repeat for more, the first is the default")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "request timeout")
	return cmd
}
