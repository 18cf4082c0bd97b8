package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/watchvine/vinectl/internal/core/report"
	"github.com/watchvine/vinectl/internal/core/stack"
)

// =============================================================================
// Artifact Copy
// =============================================================================

// CopyFile maps one local artifact to its destination path inside the
// container.
type CopyFile struct {
	Local  string
	Remote string
}

// CopyArtifacts copies files into a running container. A missing local file
// or a failed transfer degrades the report for that file; the remaining
// files are still copied. Only an absent or stopped target container is
// fatal.
func (o *Orchestrator) CopyArtifacts(ctx context.Context, containerName string, files []CopyFile) (*report.RunReport, error) {
	run := report.New("copy-files")

	info, err := o.docker.InspectContainer(ctx, containerName)
	if err != nil {
		return run, fmt.Errorf("%w: %s: %w", ErrTargetNotRunning, containerName, err)
	}
	if !info.Running() {
		return run, fmt.Errorf("%w: %s is %s", ErrTargetNotRunning, containerName, info.Status)
	}

	for _, f := range files {
		log := o.logger.With("local", f.Local, "remote", f.Remote, "container", containerName)

		stat, err := os.Stat(f.Local)
		if err != nil {
			log.Warn("local file not found, skipping")
			run.Record(f.Local, report.Outcome{Status: report.StatusSkipped, Detail: "local file not found"})
			continue
		}
		if stat.IsDir() {
			log.Warn("local path is a directory, skipping")
			run.Record(f.Local, report.Outcome{Status: report.StatusSkipped, Detail: "is a directory"})
			continue
		}

		src, err := os.Open(f.Local)
		if err != nil {
			run.Record(f.Local, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
			continue
		}

		err = o.docker.CopyToContainer(ctx, info.ID, path.Dir(f.Remote), path.Base(f.Remote), src, stat.Size())
		src.Close()
		if err != nil {
			log.Warn("copy failed", "error", err)
			run.Record(f.Local, report.Outcome{Status: report.StatusFailed, Detail: err.Error()})
			continue
		}

		log.Info("copied file")
		run.Record(f.Local, report.Outcome{Status: report.StatusCopied, Detail: fmt.Sprintf("-> %s", f.Remote)})
	}

	return run, nil
}

// CopyAndRestart copies the artifacts and, when every copy succeeded,
// restarts the target service so it picks them up. With any copy degraded
// the restart is withheld and the report says so.
func (o *Orchestrator) CopyAndRestart(ctx context.Context, svc stack.ServiceSpec, files []CopyFile) (*report.RunReport, error) {
	run, err := o.CopyArtifacts(ctx, svc.ContainerName, files)
	if err != nil {
		return run, err
	}

	if run.Degraded() {
		o.logger.Warn("copies degraded, not restarting", "container", svc.ContainerName)
		run.Record(svc.Name, report.Outcome{Status: report.StatusSkipped, Detail: "restart withheld, some copies failed"})
		return run, nil
	}

	o.Restart(ctx, svc, run)
	return run, nil
}
