// Package stack contains pure types and planning logic for the service stack.
// This is part of the Functional Core - all functions are pure with no I/O.
package stack

// =============================================================================
// Service Types
// =============================================================================

// ServiceSpec describes one deployable unit, backed by one named container.
type ServiceSpec struct {
	// Name is the logical service name, e.g. "search-api".
	Name string

	// ContainerName is the exact container name, e.g. "watch_search_api".
	// Explicit by design: no runtime string transformation of Name.
	ContainerName string

	// Image is the image to run. May be empty when BuildTarget is set.
	Image string

	// BuildTarget is the compose service to build, empty when the image
	// is pulled as-is.
	BuildTarget string

	// DependsOn lists service names that must be started first.
	DependsOn []string

	// HealthCheck is polled after start. Nil means "running is enough".
	HealthCheck *HealthCheckSpec

	// Preserve marks an externally managed service. The orchestrator
	// never stops or removes it.
	Preserve bool

	// Detached marks a long-running job that is started and not awaited,
	// e.g. the indexer.
	Detached bool

	// Env is the container environment.
	Env map[string]string

	// Ports are published ports.
	Ports []PortBinding

	// Volumes are volume or bind mounts.
	Volumes []VolumeMount
}

// HealthCheckSpec describes an HTTP health endpoint to poll after start.
type HealthCheckSpec struct {
	URL             string
	TimeoutSeconds  int
	IntervalSeconds int
}

// PortBinding defines a port mapping.
type PortBinding struct {
	ContainerPort int
	HostPort      int    // 0 for auto-assign
	Protocol      string // "tcp" or "udp", defaults to "tcp"
}

// VolumeMount defines a volume or bind mount.
type VolumeMount struct {
	Source   string // volume name or host path
	Target   string // container path
	ReadOnly bool
}

// =============================================================================
// Deployment Plan
// =============================================================================

// DeploymentPlan is the ordered sequence of services to bring up, derived
// from the dependency DAG. Immutable once computed for a run.
type DeploymentPlan struct {
	services []ServiceSpec
}

// Services returns the plan order. The returned slice is a copy.
func (p DeploymentPlan) Services() []ServiceSpec {
	out := make([]ServiceSpec, len(p.services))
	copy(out, p.services)
	return out
}

// Len returns the number of services in the plan.
func (p DeploymentPlan) Len() int {
	return len(p.services)
}

// Lookup returns the spec for a service name.
func (p DeploymentPlan) Lookup(name string) (ServiceSpec, bool) {
	for _, svc := range p.services {
		if svc.Name == name {
			return svc, true
		}
	}
	return ServiceSpec{}, false
}
