// Package orchestrator executes lifecycle operations for the service stack
// against the container runtime: bring-up in dependency order with bounded
// health polling, teardown, artifact copy, and gated cleanup. Every
// operation produces a RunReport; per-service failures degrade the report
// but never abort the rest of the run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/watchvine/vinectl/internal/core/health"
	"github.com/watchvine/vinectl/internal/core/report"
	"github.com/watchvine/vinectl/internal/core/stack"
	"github.com/watchvine/vinectl/internal/shell/docker"
)

// =============================================================================
// Orchestrator
// =============================================================================

// Orchestrator drives the container runtime one command at a time. It is
// strictly sequential: ordering correctness matters more than throughput for
// a small fixed set of named containers.
type Orchestrator struct {
	docker   docker.Client
	composer docker.Composer
	logger   *slog.Logger

	// project is the compose project name, used to derive the default
	// image name of build-only services.
	project string

	// Defaults for services that declare a health URL without a timeout
	// or interval of their own.
	defaultInterval time.Duration
	defaultTimeout  time.Duration

	stopTimeout time.Duration

	// probeFor builds the health probe for a URL. Swappable in tests.
	probeFor func(url string) health.Probe
}

// Options tune orchestrator defaults.
type Options struct {
	HTTPClient      *http.Client
	Project         string
	DefaultInterval time.Duration
	DefaultTimeout  time.Duration
	StopTimeout     time.Duration
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(dockerClient docker.Client, composer docker.Composer, logger *slog.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Second}
	}

	o := &Orchestrator{
		docker:          dockerClient,
		composer:        composer,
		logger:          logger,
		project:         opts.Project,
		defaultInterval: opts.DefaultInterval,
		defaultTimeout:  opts.DefaultTimeout,
		stopTimeout:     opts.StopTimeout,
	}
	if o.defaultInterval <= 0 {
		o.defaultInterval = health.DefaultInterval
	}
	if o.defaultTimeout <= 0 {
		o.defaultTimeout = 60 * time.Second
	}
	if o.stopTimeout <= 0 {
		o.stopTimeout = 10 * time.Second
	}
	o.probeFor = func(url string) health.Probe {
		return health.HTTPProbe(httpClient, url)
	}
	return o
}

// =============================================================================
// Preflight
// =============================================================================

// Preflight verifies the Docker daemon and the compose CLI are reachable.
// It must pass before any other operation; all of them assume it did.
func (o *Orchestrator) Preflight(ctx context.Context) error {
	if err := o.docker.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
	}
	if o.composer != nil {
		if err := o.composer.Version(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
		}
	}
	o.logger.Debug("preflight passed")
	return nil
}

// =============================================================================
// Bring Up
// =============================================================================

// BringUp starts every service in plan order. Per service it queries current
// status first: an already-running service is left as-is and no redundant
// start is issued, so rerunning after an interruption is safe. A failed
// build, pull, start or health check degrades the report for that service
// and the rest of the plan still proceeds.
func (o *Orchestrator) BringUp(ctx context.Context, plan stack.DeploymentPlan, buildFirst bool) *report.RunReport {
	run := report.New("deploy")

	o.logger.Info("bringing up stack", "services", plan.Len(), "build", buildFirst)

	for _, svc := range plan.Services() {
		o.bringUpService(ctx, run, svc, buildFirst)
	}

	o.logger.Info("bring-up finished", "services", run.Len(), "degraded", run.Degraded())
	return run
}

func (o *Orchestrator) bringUpService(ctx context.Context, run *report.RunReport, svc stack.ServiceSpec, buildFirst bool) {
	log := o.logger.With("service", svc.Name, "container", svc.ContainerName)

	info, err := o.docker.InspectContainer(ctx, svc.ContainerName)
	if err != nil && !errors.Is(err, docker.ErrContainerNotFound) {
		log.Warn("failed to inspect container", "error", err)
		run.Record(svc.Name, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
		return
	}

	if info != nil && info.Running() {
		log.Debug("container already running, leaving as-is")
		o.recordHealth(ctx, run, svc, 0)
		return
	}

	if buildFirst && svc.BuildTarget != "" && o.composer != nil {
		log.Info("building image", "target", svc.BuildTarget)
		if err := o.composer.Build(ctx, svc.BuildTarget); err != nil {
			log.Warn("build failed", "error", err)
			run.Record(svc.Name, report.Outcome{Status: report.StatusFailed, Detail: fmt.Sprintf("build failed: %v", err)})
			return
		}
	}

	if svc.Image != "" {
		exists, _ := o.docker.ImageExists(ctx, svc.Image)
		if !exists {
			log.Info("pulling image", "image", svc.Image)
			if err := o.docker.PullImage(ctx, svc.Image); err != nil {
				log.Warn("failed to pull image, trying anyway", "image", svc.Image, "error", err)
			}
		}
	}

	containerID := ""
	if info != nil {
		// Stopped container exists: start it rather than recreate.
		containerID = info.ID
	} else {
		containerID, err = o.docker.CreateContainer(ctx, o.buildContainerSpec(svc))
		if err != nil {
			log.Warn("failed to create container", "error", err)
			run.Record(svc.Name, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
			return
		}
		log.Debug("created container")
	}

	if err := o.docker.StartContainer(ctx, containerID); err != nil && !errors.Is(err, docker.ErrContainerAlreadyRunning) {
		log.Warn("failed to start container", "error", err)
		run.Record(svc.Name, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
		return
	}
	log.Info("started container")

	if svc.Detached {
		// Long-running job: started, never awaited.
		run.Record(svc.Name, report.Outcome{Status: report.StatusDetached, Detail: "started, not awaited"})
		return
	}

	o.recordHealth(ctx, run, svc, 0)
}

// recordHealth polls the service health endpoint if one is declared, else
// records the service as running. The outcome depends only on the observed
// state, never on how the service got there, so a rerun over a healthy
// stack reports the same thing as the run that started it. The poll window
// is bounded: on timeout the service is marked unhealthy and the run
// continues.
func (o *Orchestrator) recordHealth(ctx context.Context, run *report.RunReport, svc stack.ServiceSpec, baseAttempts int) {
	if svc.HealthCheck == nil {
		run.Record(svc.Name, report.Outcome{Status: report.StatusRunning})
		return
	}

	poller := o.pollerFor(svc.HealthCheck)
	attempts, err := poller.Wait(ctx, o.probeFor(svc.HealthCheck.URL))
	attempts += baseAttempts
	if err != nil {
		o.logger.Warn("health check failed", "service", svc.Name, "url", svc.HealthCheck.URL, "error", err)
		run.Record(svc.Name, report.Outcome{Status: report.StatusUnhealthy, Detail: err.Error(), Attempts: attempts})
		return
	}
	run.Record(svc.Name, report.Outcome{Status: report.StatusRunning, Attempts: attempts})
}

func (o *Orchestrator) pollerFor(hc *stack.HealthCheckSpec) health.Poller {
	interval := o.defaultInterval
	if hc.IntervalSeconds > 0 {
		interval = time.Duration(hc.IntervalSeconds) * time.Second
	}
	timeout := o.defaultTimeout
	if hc.TimeoutSeconds > 0 {
		timeout = time.Duration(hc.TimeoutSeconds) * time.Second
	}
	return health.NewPoller(interval, timeout)
}

// imageFor resolves the image a service's container is created from. A
// build-only service has no image of its own: compose names the built
// image <project>-<service>, so the create must reference that name.
func (o *Orchestrator) imageFor(svc stack.ServiceSpec) string {
	if svc.Image != "" {
		return svc.Image
	}
	if svc.BuildTarget == "" {
		return ""
	}
	if o.project == "" {
		return svc.BuildTarget
	}
	return o.project + "-" + svc.BuildTarget
}

func (o *Orchestrator) buildContainerSpec(svc stack.ServiceSpec) docker.ContainerSpec {
	spec := docker.ContainerSpec{
		Name:  svc.ContainerName,
		Image: o.imageFor(svc),
		Env:   svc.Env,
		Labels: map[string]string{
			docker.LabelManaged: "true",
			docker.LabelService: svc.Name,
		},
	}
	for _, p := range svc.Ports {
		spec.Ports = append(spec.Ports, docker.PortBinding{
			ContainerPort: p.ContainerPort,
			HostPort:      p.HostPort,
			Protocol:      p.Protocol,
		})
	}
	for _, v := range svc.Volumes {
		spec.Volumes = append(spec.Volumes, docker.VolumeMount{
			Source:   v.Source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		})
	}
	return spec
}

// =============================================================================
// Tear Down
// =============================================================================

// TearDown stops and removes each service's container. Services marked
// preserve are never touched and are reported as preserved. A container
// that is already absent counts as already torn down, not an error.
func (o *Orchestrator) TearDown(ctx context.Context, services []stack.ServiceSpec) *report.RunReport {
	run := report.New("teardown")

	for _, svc := range services {
		log := o.logger.With("service", svc.Name, "container", svc.ContainerName)

		if svc.Preserve {
			log.Debug("service is preserved, skipping")
			run.Record(svc.Name, report.Outcome{Status: report.StatusPreserved, Detail: "externally managed"})
			continue
		}

		info, err := o.docker.InspectContainer(ctx, svc.ContainerName)
		if err != nil {
			if errors.Is(err, docker.ErrContainerNotFound) {
				run.Record(svc.Name, report.Outcome{Status: report.StatusRemoved, Detail: "already absent"})
				continue
			}
			run.Record(svc.Name, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
			continue
		}

		if info.Running() {
			timeout := o.stopTimeout
			if err := o.docker.StopContainer(ctx, info.ID, &timeout); err != nil && !errors.Is(err, docker.ErrContainerNotRunning) {
				log.Warn("failed to stop container", "error", err)
				run.Record(svc.Name, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
				continue
			}
			log.Info("stopped container")
		}

		if err := o.docker.RemoveContainer(ctx, info.ID, docker.RemoveOptions{Force: true}); err != nil && !errors.Is(err, docker.ErrContainerNotFound) {
			log.Warn("failed to remove container", "error", err)
			run.Record(svc.Name, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
			continue
		}
		log.Info("removed container")
		run.Record(svc.Name, report.Outcome{Status: report.StatusRemoved})
	}

	return run
}

// =============================================================================
// Restart
// =============================================================================

// Restart restarts one service's container and re-polls its health check.
func (o *Orchestrator) Restart(ctx context.Context, svc stack.ServiceSpec, run *report.RunReport) {
	timeout := o.stopTimeout
	if err := o.docker.RestartContainer(ctx, svc.ContainerName, &timeout); err != nil {
		o.logger.Warn("failed to restart container", "container", svc.ContainerName, "error", err)
		run.Record(svc.Name, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
		return
	}
	o.logger.Info("restarted container", "container", svc.ContainerName)
	o.recordHealth(ctx, run, svc, 0)
}

// =============================================================================
// Status
// =============================================================================

// Status reports the current state of every service without mutating
// anything. Running services with a health URL get a single probe.
func (o *Orchestrator) Status(ctx context.Context, services []stack.ServiceSpec) *report.RunReport {
	run := report.New("status")

	for _, svc := range services {
		info, err := o.docker.InspectContainer(ctx, svc.ContainerName)
		if err != nil {
			if errors.Is(err, docker.ErrContainerNotFound) {
				run.Record(svc.Name, report.Outcome{Status: report.StatusMissing, Detail: "no container"})
			} else {
				run.Record(svc.Name, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
			}
			continue
		}

		if !info.Running() {
			run.Record(svc.Name, report.Outcome{Status: report.StatusMissing, Detail: fmt.Sprintf("container %s", info.Status)})
			continue
		}

		if svc.HealthCheck != nil {
			if err := o.probeFor(svc.HealthCheck.URL)(ctx); err != nil {
				run.Record(svc.Name, report.Outcome{Status: report.StatusUnhealthy, Detail: err.Error(), Attempts: 1})
				continue
			}
			run.Record(svc.Name, report.Outcome{Status: report.StatusRunning, Detail: "healthy", Attempts: 1})
			continue
		}

		run.Record(svc.Name, report.Outcome{Status: report.StatusRunning})
	}

	return run
}
