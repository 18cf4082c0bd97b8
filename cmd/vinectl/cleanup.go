package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watchvine/vinectl/internal/core/cleanup"
)

func newCleanupCmd() *cobra.Command {
	var (
		full bool
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove temporary data, archive logs",
		Long: `Cleanup empties the configured temporary directories and archives log
files with a timestamp suffix. Logs are never deleted.

With --full, destructive targets (database volumes, data containers) are
removed as well. A full cleanup asks for confirmation first: type "` + cleanup.ConfirmationToken + `"
to proceed, anything else cancels. Pass --yes to skip the prompt in
scripts. The gate is all-or-nothing: an unconfirmed full cleanup touches
nothing at all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			targets := cleanupTargets(app.cfg, full)
			if len(targets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to clean up")
				return nil
			}

			confirmed := yes
			if full && !confirmed {
				ok, err := promptConfirmation(cmd, targets)
				if err != nil {
					return err
				}
				if !ok {
					// Cancelling is a normal outcome, not an error.
					fmt.Fprintln(cmd.OutOrStdout(), "cleanup cancelled")
					return nil
				}
				confirmed = true
			}

			ctx := cmd.Context()
			if err := app.orch.Preflight(ctx); err != nil {
				return err
			}

			run, err := app.orch.Cleanup(ctx, targets, full, confirmed)
			if err != nil {
				return err
			}
			app.finish(ctx, run)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "also remove destructive targets (data volumes)")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

// cleanupTargets converts the configured targets, dropping destructive ones
// unless a full cleanup was requested.
func cleanupTargets(cfg *Config, full bool) []cleanup.Target {
	var out []cleanup.Target
	for _, t := range cfg.Cleanup.Targets {
		if t.Destructive && !full {
			continue
		}
		out = append(out, cleanup.Target{
			Kind:        cleanup.Kind(t.Kind),
			Identifier:  t.Target,
			Destructive: t.Destructive,
		})
	}
	return out
}

// promptConfirmation lists the destructive targets and reads one line from
// stdin. Only the exact confirmation token proceeds.
func promptConfirmation(cmd *cobra.Command, targets []cleanup.Target) (bool, error) {
	destructive := cleanup.Destructive(targets)
	if len(destructive) == 0 {
		return true, nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "the following will be permanently deleted:")
	for _, t := range destructive {
		fmt.Fprintf(out, "  %s %s\n", t.Kind, t.Identifier)
	}
	fmt.Fprintf(out, "type %q to continue: ", cleanup.ConfirmationToken)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	return cleanup.Confirms(line), nil
}
