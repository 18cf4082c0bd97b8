package stack

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Planning errors. All are fatal configuration errors.
	ErrNoServices         = errors.New("stack must define at least one service")
	ErrCircularDependency = errors.New("circular dependency detected")
	ErrUnknownDependency  = errors.New("depends_on references unknown service")
	ErrDuplicateService   = errors.New("duplicate service name")
	ErrInvalidService     = errors.New("invalid service definition")
)

// PlanError wraps errors with context about which service failed validation.
type PlanError struct {
	Service string // service name, if applicable
	Message string
	Err     error
}

func (e *PlanError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("service %s: %s", e.Service, e.Message)
	}
	return e.Message
}

func (e *PlanError) Unwrap() error {
	return e.Err
}

// NewPlanError creates a new PlanError.
func NewPlanError(service, message string, err error) *PlanError {
	return &PlanError{
		Service: service,
		Message: message,
		Err:     err,
	}
}
