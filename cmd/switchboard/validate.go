package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providerfactory"
	"mercator-hq/switchboard/pkg/telemetry/logging"
)

func newValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		Long: `Check the configuration file without falling back to the defaults.

Every provider must be buildable and every route must have the form
"provider,model". Routes to providers that are not configured are reported
as warnings, since dispatches to them fall back to the first provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath()
			cfg, err := opts.loader(logging.Discard()).LoadStrict(path)
			if err != nil {
				return cli.NewConfigError(path, err)
			}

			registry := providerfactory.NewRegistry(logging.Discard())
			if err := registry.LoadFromConfig(cfg.ProviderConfigs()); err != nil {
				return cli.NewConfigError(path, err)
			}

			out := cmd.OutOrStdout()
			for _, task := range slices.Sorted(maps.Keys(cfg.Router)) {
				route := cfg.Router[task]
				provider, _, _ := config.SplitRoute(route)
				if _, err := registry.Get(provider); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: route %s=%q names unknown provider %q\n", task, route, provider)
				}
			}

			unconfigured := 0
			for _, a := range registry.Adapters() {
				if !a.ValidateConfig() {
					unconfigured++
				}
			}
			fmt.Fprintf(out, "%s: valid (%d providers, %d without credentials, %d routes)\n",
				path, registry.Len(), unconfigured, len(cfg.Router))
			return nil
		},
	}
}
