package docker

import (
	"context"
	"os/exec"
	"strings"
)

// =============================================================================
// Compose CLI Runner
// =============================================================================

// Composer is the compose surface the orchestrator needs: building images
// is delegated to the compose CLI, which owns build contexts and caching.
type Composer interface {
	Version(ctx context.Context) error
	Build(ctx context.Context, services ...string) error
}

// ComposeRunner shells out to `docker compose` for image builds.
type ComposeRunner struct {
	composeFile string
	projectName string
}

// NewComposeRunner creates a runner bound to one compose file and project.
func NewComposeRunner(composeFile, projectName string) *ComposeRunner {
	return &ComposeRunner{
		composeFile: composeFile,
		projectName: projectName,
	}
}

func (c *ComposeRunner) args(sub ...string) []string {
	base := []string{"compose"}
	if c.composeFile != "" {
		base = append(base, "-f", c.composeFile)
	}
	if c.projectName != "" {
		base = append(base, "-p", c.projectName)
	}
	return append(base, sub...)
}

// Version checks that the compose plugin is available. Used by preflight.
func (c *ComposeRunner) Version(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "docker", "compose", "version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return NewDockerError("ComposeVersion", "compose", "", strings.TrimSpace(string(out)), ErrComposeFailed)
	}
	return nil
}

// Build builds the named compose services. With no names, everything with a
// build section is built.
func (c *ComposeRunner) Build(ctx context.Context, services ...string) error {
	cmd := exec.CommandContext(ctx, "docker", c.args(append([]string{"build"}, services...)...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return NewDockerError("ComposeBuild", "compose", strings.Join(services, ","), strings.TrimSpace(string(out)), ErrComposeFailed)
	}
	return nil
}
