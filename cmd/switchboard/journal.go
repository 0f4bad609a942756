package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/journal"
)

type journalTable []journal.Entry

func (t journalTable) Header() []string {
	return []string{"TIME", "TASK", "PROVIDER", "MODEL", "RESULT", "LATENCY"}
}

func (t journalTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		result := e.Reason
		if e.Fallback {
			result += " (fallback)"
		}
		rows = append(rows, []string{
			e.Time.Local().Format(time.DateTime),
			e.Task,
			e.Provider,
			e.Model,
			result,
			e.Latency.Round(time.Millisecond).String(),
		})
	}
	return rows
}

func newJournalCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent dispatches",
		Long: `Show recent dispatches, newest first.

Only the sqlite journal backend outlives a process, so this command needs
Journal.enabled and Journal.backend "sqlite" in the configuration.`,
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
			if !cfg.Journal.Enabled || cfg.Journal.Backend != "sqlite" {
				return cli.NewConfigError(opts.configPath(), errors.New("journal: a persistent (sqlite) journal is not enabled"))
			}

			j, err := journal.Open(cfg.Journal)
			if err != nil {
				return cli.NewCommandError("journal", err)
			}
			defer j.Close()

			entries, err := j.List(cmd.Context(), limit)
			if err != nil {
				return cli.NewCommandError("journal", err)
			}
			return format.FormatTo(cmd.OutOrStdout(), journalTable(entries))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries; 0 for all")
	return cmd
}

