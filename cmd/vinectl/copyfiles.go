package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watchvine/vinectl/internal/core/stack"
	"github.com/watchvine/vinectl/internal/shell/orchestrator"
)

func newCopyFilesCmd() *cobra.Command {
	var (
		container string
		restart   bool
	)

	cmd := &cobra.Command{
		Use:   "copy-files",
		Short: "Copy configured artifacts into a running container",
		Long: `Copy-files pushes the configured local files into the target container.
A missing local file is skipped with a warning and the remaining files
still copy; only an absent or stopped target container is fatal.

With --restart the target service is restarted after a fully clean copy
so it picks up the new files. The restart is withheld if any copy failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			target := container
			if target == "" {
				target = app.cfg.Copy.Container
			}
			if len(app.cfg.Copy.Files) == 0 {
				return fmt.Errorf("no copy files configured")
			}

			files := make([]orchestrator.CopyFile, 0, len(app.cfg.Copy.Files))
			for _, f := range app.cfg.Copy.Files {
				files = append(files, orchestrator.CopyFile{Local: f.Local, Remote: f.Remote})
			}

			ctx := cmd.Context()
			if err := app.orch.Preflight(ctx); err != nil {
				return err
			}

			if restart {
				svc, ok := serviceByContainer(app.services, target)
				if !ok {
					return fmt.Errorf("no service with container name %q", target)
				}
				run, err := app.orch.CopyAndRestart(ctx, svc, files)
				if err != nil {
					return err
				}
				app.finish(ctx, run)
				return nil
			}

			run, err := app.orch.CopyArtifacts(ctx, target, files)
			if err != nil {
				return err
			}
			app.finish(ctx, run)
			return nil
		},
	}

	cmd.Flags().StringVar(&container, "container", "", "target container name (default from config)")
	cmd.Flags().BoolVar(&restart, "restart", false, "restart the target service after a clean copy")
	return cmd
}

func serviceByContainer(services []stack.ServiceSpec, containerName string) (stack.ServiceSpec, bool) {
	for _, svc := range services {
		if svc.ContainerName == containerName {
			return svc, true
		}
	}
	return stack.ServiceSpec{}, false
}
