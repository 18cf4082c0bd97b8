// Package cleanup contains the pure decision logic for cleanup runs: target
// classification, the destructive-confirmation gate, and log archive naming.
// Executing the decisions (filesystem, volumes) lives in the orchestrator.
package cleanup

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// Target Types
// =============================================================================

// Kind classifies what a cleanup target is.
type Kind string

const (
	KindDirectory Kind = "directory"
	KindVolume    Kind = "volume"
	KindContainer Kind = "container"
	KindLogFile   Kind = "logfile"
)

// Target is one thing the cleanup run may touch.
type Target struct {
	Kind       Kind
	Identifier string // path, volume name or container name

	// Destructive marks data-deleting targets, e.g. the primary database
	// volume. These require explicit confirmation before removal.
	Destructive bool
}

// =============================================================================
// Confirmation Gate
// =============================================================================

var (
	// ErrConfirmationRequired means destructive targets are present but the
	// run was not confirmed. The whole cleanup aborts before touching any
	// destructive target.
	ErrConfirmationRequired = errors.New("destructive cleanup requires confirmation")

	// ErrInvalidTarget means a target is malformed.
	ErrInvalidTarget = errors.New("invalid cleanup target")
)

// ConfirmationToken is the exact line a user must enter to confirm
// destructive cleanup interactively.
const ConfirmationToken = "yes"

// Gate decides whether a cleanup run may proceed. The gate is all-or-nothing:
// if any destructive target is listed and the run is not both allowed and
// confirmed, the whole run fails before anything is touched. Runs with only
// non-destructive targets always pass.
func Gate(targets []Target, allowDestructive, confirmed bool) error {
	for _, target := range targets {
		if target.Identifier == "" {
			return fmt.Errorf("%w: %s target with empty identifier", ErrInvalidTarget, target.Kind)
		}
	}

	destructive := Destructive(targets)
	if len(destructive) == 0 {
		return nil
	}

	if !allowDestructive || !confirmed {
		names := make([]string, len(destructive))
		for i, target := range destructive {
			names[i] = target.Identifier
		}
		return fmt.Errorf("%w: %s", ErrConfirmationRequired, strings.Join(names, ", "))
	}

	return nil
}

// Destructive returns the destructive subset of targets.
func Destructive(targets []Target) []Target {
	var out []Target
	for _, target := range targets {
		if target.Destructive {
			out = append(out, target)
		}
	}
	return out
}

// Confirms reports whether an interactively entered line confirms a
// destructive cleanup. Anything but the exact token cancels.
func Confirms(line string) bool {
	return strings.TrimSpace(line) == ConfirmationToken
}

// =============================================================================
// Log Archiving
// =============================================================================

// ArchiveName returns the timestamp-suffixed name a log file is renamed to.
// Logs are archived rather than deleted so forensic history survives
// cleanup runs.
func ArchiveName(path string, now time.Time) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s.%s%s", base, now.Format("20060102-150405"), ext)
}
