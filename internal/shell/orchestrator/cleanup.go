package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/watchvine/vinectl/internal/core/cleanup"
	"github.com/watchvine/vinectl/internal/core/report"
	"github.com/watchvine/vinectl/internal/shell/docker"
)

// =============================================================================
// Cleanup
// =============================================================================

// Cleanup executes a cleanup run. The destructive gate is checked before
// anything is touched: if it fails, zero mutations happen and the error is
// returned. Past the gate, each target is handled independently and a
// failed target degrades the report without stopping the rest.
//
// Directories are emptied and recreated, log files are archived with a
// timestamp suffix (never deleted), volumes and containers are removed.
func (o *Orchestrator) Cleanup(ctx context.Context, targets []cleanup.Target, allowDestructive, confirmed bool) (*report.RunReport, error) {
	run := report.New("cleanup")

	if err := cleanup.Gate(targets, allowDestructive, confirmed); err != nil {
		return run, err
	}

	now := time.Now()
	for _, target := range targets {
		log := o.logger.With("kind", string(target.Kind), "target", target.Identifier)

		switch target.Kind {
		case cleanup.KindDirectory:
			if err := os.RemoveAll(target.Identifier); err != nil {
				log.Warn("failed to remove directory", "error", err)
				run.Record(target.Identifier, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
				continue
			}
			if err := os.MkdirAll(target.Identifier, 0o755); err != nil {
				log.Warn("failed to recreate directory", "error", err)
				run.Record(target.Identifier, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
				continue
			}
			log.Info("emptied directory")
			run.Record(target.Identifier, report.Outcome{Status: report.StatusDeleted, Detail: "recreated empty"})

		case cleanup.KindLogFile:
			if _, err := os.Stat(target.Identifier); err != nil {
				run.Record(target.Identifier, report.Outcome{Status: report.StatusArchived, Detail: "nothing to archive"})
				continue
			}
			archived := cleanup.ArchiveName(target.Identifier, now)
			if err := os.Rename(target.Identifier, archived); err != nil {
				log.Warn("failed to archive log file", "error", err)
				run.Record(target.Identifier, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
				continue
			}
			log.Info("archived log file", "archive", archived)
			run.Record(target.Identifier, report.Outcome{Status: report.StatusArchived, Detail: fmt.Sprintf("-> %s", archived)})

		case cleanup.KindVolume:
			if err := o.docker.RemoveVolume(ctx, target.Identifier, true); err != nil {
				if errors.Is(err, docker.ErrVolumeNotFound) {
					run.Record(target.Identifier, report.Outcome{Status: report.StatusRemoved, Detail: "already absent"})
					continue
				}
				log.Warn("failed to remove volume", "error", err)
				run.Record(target.Identifier, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
				continue
			}
			log.Info("removed volume")
			run.Record(target.Identifier, report.Outcome{Status: report.StatusRemoved})

		case cleanup.KindContainer:
			o.removeContainerTarget(ctx, run, target.Identifier)

		default:
			run.Record(target.Identifier, report.Outcome{Status: report.StatusFailed, Detail: fmt.Sprintf("unknown target kind %q", target.Kind)})
		}
	}

	o.logger.Info("cleanup finished", "targets", run.Len(), "degraded", run.Degraded())
	return run, nil
}

func (o *Orchestrator) removeContainerTarget(ctx context.Context, run *report.RunReport, name string) {
	log := o.logger.With("container", name)

	info, err := o.docker.InspectContainer(ctx, name)
	if err != nil {
		if errors.Is(err, docker.ErrContainerNotFound) {
			run.Record(name, report.Outcome{Status: report.StatusRemoved, Detail: "already absent"})
			return
		}
		run.Record(name, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
		return
	}

	if info.Running() {
		timeout := o.stopTimeout
		if err := o.docker.StopContainer(ctx, info.ID, &timeout); err != nil && !errors.Is(err, docker.ErrContainerNotRunning) {
			log.Warn("failed to stop container", "error", err)
			run.Record(name, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
			return
		}
	}

	if err := o.docker.RemoveContainer(ctx, info.ID, docker.RemoveOptions{Force: true}); err != nil && !errors.Is(err, docker.ErrContainerNotFound) {
		log.Warn("failed to remove container", "error", err)
		run.Record(name, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
		return
	}
	log.Info("removed container")
	run.Record(name, report.Outcome{Status: report.StatusRemoved})
}
