package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/journal"
	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/routing"
)

func newDispatchCmd(opts *globalOptions) *cobra.Command {
	var (
		temperature float64
		maxTokens   int
		system      string
		raw         bool
	)

	cmd := &cobra.Command{
		Use:   "dispatch <task> <prompt>...",
		Short: "Send a prompt through the route for a task",
		Long: `Send a prompt through the route for a task and print the reply.

Unknown tasks use the "default" route. A reply that could not be obtained
from the provider is simulated; the command still succeeds and a warning is
printed on stderr.

Examples:
  switchboard dispatch think "why is the sky blue?"
  switchboard dispatch coding --max-tokens 200 write a quicksort in Go
  switchboard dispatch default -o json hello`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, prompt := args[0], strings.Join(args[1:], " ")

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

			j, err := journal.Open(cfg.Journal)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: journal unavailable: %v\n", err)
			}
			if j != nil {
				defer j.Close()
			}
			router := opts.newRouter(cmd, cfg, logger, j)

			var dispatchOpts []routing.DispatchOption
			if cmd.Flags().Changed("temperature") {
				dispatchOpts = append(dispatchOpts, routing.WithTemperature(temperature))
			}
			if cmd.Flags().Changed("max-tokens") {
				dispatchOpts = append(dispatchOpts, routing.WithMaxTokens(maxTokens))
			}
			if system != "" {
				dispatchOpts = append(dispatchOpts, routing.WithHistory([]providers.Message{
					{Role: providers.RoleSystem, Content: system},
				}))
			}

			res := router.Dispatch(cmd.Context(), task, prompt, dispatchOpts...)
			if res.Simulated {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: simulated reply (%s)\n", res.Reason())
			}

			switch {
			case isJSON(format):
				return format.FormatTo(cmd.OutOrStdout(), res)
			case raw:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(res.Raw))
				return err
			default:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), res.Text)
				return err
			}
		},
	}

	cmd.Flags().Float64Var(&temperature, "temperature", 0.7, "sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 1000, "maximum tokens in the reply")
	cmd.Flags().StringVar(&system, "system", "", "system message sent before the prompt")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the provider's raw response body")
	return cmd
}

func isJSON(f cli.Formatter) bool {
	_, ok := f.(*cli.JSONFormatter)
	return ok
}
