package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchvine/vinectl/internal/core/compose"
	"github.com/watchvine/vinectl/internal/core/report"
	"github.com/watchvine/vinectl/internal/core/stack"
	"github.com/watchvine/vinectl/internal/shell/docker"
	"github.com/watchvine/vinectl/internal/shell/history"
	"github.com/watchvine/vinectl/internal/shell/orchestrator"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vinectl",
	Short: "Deploy and manage the WatchVine container stack",
	Long: `vinectl drives the WatchVine service stack on a single Docker host:
it brings services up in dependency order with health polling, tears them
down while preserving externally managed containers, copies configuration
artifacts into running containers and runs gated cleanup.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. failed deployments)
	SilenceUsage: true,
}

// errConfiguration marks failures to load or parse configuration, so they
// get their own exit code.
var errConfiguration = errors.New("configuration error")

// Execute runs the root command and maps the result to an exit code.
func Execute() int {
	rootCmd.Version = fmt.Sprintf("%s (built %s)", Version, BuildTime)
	rootCmd.SetVersionTemplate(`{{printf "vinectl %s\n" .Version}}`)

	return exitCode(rootCmd.Execute())
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errConfiguration):
		return ExitConfigError
	default:
		return ExitFatal
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config file")

	rootCmd.AddCommand(newDeployCmd())
	rootCmd.AddCommand(newTeardownCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newCopyFilesCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newHistoryCmd())
}

// =============================================================================
// Application Wiring
// =============================================================================

// app bundles everything a subcommand needs: config, logger, the
// orchestrator and the parsed service stack.
type app struct {
	cfg      *Config
	logger   *slog.Logger
	docker   *docker.DockerClient
	orch     *orchestrator.Orchestrator
	services []stack.ServiceSpec
}

func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfiguration, err)
	}
	logger := SetupLogger(cfg)

	dockerClient, err := docker.NewDockerClient(cfg.Docker.Host)
	if err != nil {
		return nil, err
	}

	composer := docker.NewComposeRunner(cfg.Compose.File, cfg.Compose.Project)
	orch := orchestrator.NewOrchestrator(dockerClient, composer, logger, orchestrator.Options{
		Project:         cfg.Compose.Project,
		DefaultInterval: cfg.Health.Interval,
		DefaultTimeout:  cfg.Health.Timeout,
	})

	data, err := os.ReadFile(cfg.Compose.File)
	if err != nil {
		dockerClient.Close()
		return nil, fmt.Errorf("failed to read compose file %s: %w", cfg.Compose.File, err)
	}
	services, err := compose.ParseServices(string(data))
	if err != nil {
		dockerClient.Close()
		return nil, fmt.Errorf("failed to parse %s: %w", cfg.Compose.File, err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		docker:   dockerClient,
		orch:     orch,
		services: services,
	}, nil
}

func (a *app) Close() {
	a.docker.Close()
}

func (a *app) plan() (stack.DeploymentPlan, error) {
	return stack.Plan(a.services)
}

// finish prints the run report and records it when history is enabled.
func (a *app) finish(ctx context.Context, r *report.RunReport) {
	fmt.Println(report.Render(r))
	a.recordRun(ctx, r)
}

func (a *app) recordRun(ctx context.Context, r *report.RunReport) {
	if !a.cfg.History.Enabled {
		return
	}

	store, err := history.NewSQLiteStore(a.cfg.History.DSN)
	if err != nil {
		a.logger.Warn("failed to open history store", "dsn", a.cfg.History.DSN, "error", err)
		return
	}
	defer store.Close()

	run := history.NewRun(r)
	if err := store.SaveRun(ctx, run); err != nil {
		a.logger.Warn("failed to record run", "run_id", run.ID, "error", err)
		return
	}
	a.logger.Debug("recorded run", "run_id", run.ID, "operation", run.Operation)
}
