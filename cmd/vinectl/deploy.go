package main

import (
	"github.com/spf13/cobra"
)

func newDeployCmd() *cobra.Command {
	var build bool

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Bring the stack up in dependency order",
		Long: `Deploy starts every service in dependency order, pulling missing
images and polling declared health endpoints until they respond or their
window expires. Services already running are left untouched, so deploy is
safe to rerun after an interruption.

A service that fails to start or come healthy degrades the summary but
does not stop the rest of the stack.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.orch.Preflight(ctx); err != nil {
				return err
			}

			plan, err := app.plan()
			if err != nil {
				return err
			}

			run := app.orch.BringUp(ctx, plan, build)
			app.finish(ctx, run)
			return nil
		},
	}

	cmd.Flags().BoolVar(&build, "build", false, "build service images before starting")
	return cmd
}

func newTeardownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teardown",
		Short: "Stop and remove the stack's containers",
		Long: `Teardown stops and removes every managed container. Services marked
preserve in the compose file are never touched. Containers that are
already gone count as torn down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.orch.Preflight(ctx); err != nil {
				return err
			}

			run := app.orch.TearDown(ctx, app.services)
			app.finish(ctx, run)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current state of every service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.orch.Preflight(ctx); err != nil {
				return err
			}

			run := app.orch.Status(ctx, app.services)
			app.finish(ctx, run)
			return nil
		},
	}
}
