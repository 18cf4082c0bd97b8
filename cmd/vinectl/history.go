package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watchvine/vinectl/internal/shell/history"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `History lists recently recorded runs, newest first. Runs are only
recorded when history.enabled is set in the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("%w: %w", errConfiguration, err)
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("run history is disabled, set history.enabled to record runs")
			}

			store, err := history.NewSQLiteStore(cfg.History.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no recorded runs")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, run := range runs {
				result := "ok"
				if run.Degraded {
					result = "degraded"
				}
				fmt.Fprintf(out, "%s  %-10s  %-8s  %d service(s)  %s\n",
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Operation,
					result,
					len(run.Services),
					run.ID,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}
