package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/routing"
)

// routeTable renders route views as TASK PROVIDER MODEL columns.
type routeTable []routeView

type routeView struct {
	Task     string `json:"task"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (t routeTable) Header() []string { return []string{"TASK", "PROVIDER", "MODEL"} }

func (t routeTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		model := r.Model
		if model == "" {
			model = "(first model)"
		}
		rows = append(rows, []string{r.Task, r.Provider, model})
	}
	return rows
}

func newRoutesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Args:  cobra.NoArgs,
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

			table := opts.newRouter(cmd, cfg, logger, nil).Table()
			routes := table.Routes()
			out := make(routeTable, 0, len(routes))
			for _, task := range table.Tasks() {
				r := routes[task]
				out = append(out, routeView{Task: task, Provider: r.Provider, Model: r.Model})
			}
			return format.FormatTo(cmd.OutOrStdout(), out)
		},
	}

	cmd.AddCommand(newRoutesSetCmd(opts), newRoutesResolveCmd(opts))
	return cmd
}

func newRoutesResolveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <task>",
		Short: "Show the provider and model a task dispatches to",
		Args:  cobra.ExactArgs(1),
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

			route := opts.newRouter(cmd, cfg, logger, nil).Resolve(args[0])
			if route.IsZero() {
				return fmt.Errorf("no route for task %q and no providers registered", args[0])
			}
			return format.FormatTo(cmd.OutOrStdout(), routeTable{{Task: args[0], Provider: route.Provider, Model: route.Model}})
		},
	}
}

func newRoutesSetCmd(opts *globalOptions) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "set <task> [provider,model]",
		Short: "Point a task at a provider and model in the config file",
		Long: `Point a task at a provider and model and save the configuration file.

When the file does not exist yet it is created from the built-in defaults.

Examples:
  switchboard routes set think anthropic,claude-3-opus-20240229
  switchboard routes set review deepseek
  switchboard routes set review --delete`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := args[0]
			if remove == (len(args) == 2) {
				return cli.Usagef("give either a route or --delete")
			}

			path := opts.configPath()
			cfg, err := readForEdit(path)
			if err != nil {
				return err
			}

			if remove {
				if _, ok := cfg.Router[task]; !ok {
					return fmt.Errorf("no route for task %q in %s", task, path)
				}
				delete(cfg.Router, task)
			} else {
				route, err := routing.ParseRoute(args[1])
				if err != nil {
					return cli.Usagef("%v", err)
				}
				if _, ok := cfg.Providers.Get(route.Provider); !ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: provider %q is not configured; dispatches will fall back to the first provider\n", route.Provider)
				}
				cfg.Router[task] = route.String()
			}

			if err := config.Validate(cfg); err != nil {
				return cli.NewConfigError(path, err)
			}
			if err := config.WriteFile(path, cfg); err != nil {
				return cli.NewCommandError("routes set", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d routes to %s\n", len(cfg.Router), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "delete", false, "remove the route for the task")
	return cmd
}

// readForEdit reads path without environment overrides, so credentials from
// the environment are never written to disk. A missing file starts from the
// defaults.
func readForEdit(path string) (*config.Config, error) {
	cfg, err := config.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return config.Defaults(), nil
	case err != nil:
		return nil, cli.NewConfigError(path, err)
	}
	config.ApplyDefaults(cfg)
	return cfg, nil
}
