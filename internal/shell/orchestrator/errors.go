package orchestrator

import "errors"

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrRuntimeUnavailable means the Docker daemon or the compose CLI is
	// unreachable. Fatal: nothing else is attempted.
	ErrRuntimeUnavailable = errors.New("container runtime unavailable")

	// ErrTargetNotRunning means a copy target container is absent or
	// stopped. Fatal for the copy operation.
	ErrTargetNotRunning = errors.New("target container is not running")
)
