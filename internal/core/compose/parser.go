package compose

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"

	"github.com/watchvine/vinectl/internal/core/stack"
)

// =============================================================================
// Extension Keys
// =============================================================================

// Compose extension fields vinectl reads from each service. They carry the
// orchestration attributes compose itself has no field for.
const (
	// ExtHealthURL is the HTTP endpoint polled after start.
	ExtHealthURL = "x-health-url"
	// ExtHealthTimeout is the poll window in seconds.
	ExtHealthTimeout = "x-health-timeout"
	// ExtHealthInterval is the poll interval in seconds.
	ExtHealthInterval = "x-health-interval"
	// ExtPreserve marks an externally managed service that is never
	// stopped or removed.
	ExtPreserve = "x-preserve"
	// ExtDetached marks a long-running job that is started and not
	// awaited, e.g. the indexer.
	ExtDetached = "x-detached"
)

// =============================================================================
// Parser Functions
// =============================================================================

// ParseServices parses Docker Compose YAML into stack service specs.
// This is a pure function - no I/O, no side effects.
func ParseServices(yamlContent string) ([]stack.ServiceSpec, error) {
	if strings.TrimSpace(yamlContent) == "" {
		return nil, ErrEmptyInput
	}

	project, err := loadComposeSpec(yamlContent)
	if err != nil {
		return nil, err
	}

	if len(project.Services) == 0 {
		return nil, ErrNoServices
	}

	specs := make([]stack.ServiceSpec, 0, len(project.Services))
	for _, svc := range project.Services {
		converted, err := convertService(svc)
		if err != nil {
			return nil, err
		}
		specs = append(specs, converted)
	}

	// compose-go iterates services in map order; sort for a stable result.
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })

	return specs, nil
}

// loadComposeSpec loads a compose spec using compose-go.
func loadComposeSpec(yamlContent string) (*types.Project, error) {
	// Parse YAML into a map first
	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &dict); err != nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}
	if dict == nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: []byte(yamlContent),
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("vinectl-temp", false)
		opts.SkipValidation = false
		opts.SkipInterpolation = false
		// Don't resolve paths since we're in-memory
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "image") && strings.Contains(errStr, "build") {
			return nil, NewParseError("", "service must have image or build", ErrServiceNoImage)
		}
		return nil, NewParseError("", errStr, ErrInvalidYAML)
	}

	return project, nil
}

// convertService converts a compose-go service to a stack.ServiceSpec.
// Dependency cycles are not checked here: stack.Plan owns that invariant.
func convertService(svc types.ServiceConfig) (stack.ServiceSpec, error) {
	spec := stack.ServiceSpec{
		Name:          svc.Name,
		ContainerName: svc.ContainerName,
		Image:         svc.Image,
		Env:           make(map[string]string),
	}

	// Default container name to the service name, as compose does.
	if spec.ContainerName == "" {
		spec.ContainerName = svc.Name
	}

	if svc.Build != nil {
		spec.BuildTarget = svc.Name
	}
	if spec.Image == "" && spec.BuildTarget == "" {
		return stack.ServiceSpec{}, NewParseError("services."+svc.Name, "service must have image or build", ErrServiceNoImage)
	}

	for dep := range svc.DependsOn {
		spec.DependsOn = append(spec.DependsOn, dep)
	}
	sort.Strings(spec.DependsOn)

	for k, v := range svc.Environment {
		if v != nil {
			spec.Env[k] = *v
		}
	}

	for _, p := range svc.Ports {
		var published int
		if p.Published != "" {
			if pub, err := strconv.Atoi(p.Published); err == nil {
				published = pub
			}
		}
		spec.Ports = append(spec.Ports, stack.PortBinding{
			ContainerPort: int(p.Target),
			HostPort:      published,
			Protocol:      p.Protocol,
		})
	}

	for _, v := range svc.Volumes {
		spec.Volumes = append(spec.Volumes, stack.VolumeMount{
			Source:   v.Source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		})
	}

	health, err := parseHealthExtension(svc)
	if err != nil {
		return stack.ServiceSpec{}, err
	}
	spec.HealthCheck = health

	spec.Preserve = boolExtension(svc, ExtPreserve)
	spec.Detached = boolExtension(svc, ExtDetached)

	return spec, nil
}

// parseHealthExtension reads the x-health-* extension fields.
func parseHealthExtension(svc types.ServiceConfig) (*stack.HealthCheckSpec, error) {
	raw, ok := svc.Extensions[ExtHealthURL]
	if !ok {
		return nil, nil
	}

	url, ok := raw.(string)
	if !ok || url == "" {
		return nil, NewParseError("services."+svc.Name+"."+ExtHealthURL, "must be a non-empty string", ErrInvalidHealth)
	}

	health := &stack.HealthCheckSpec{URL: url}

	timeout, err := intExtension(svc, ExtHealthTimeout)
	if err != nil {
		return nil, err
	}
	health.TimeoutSeconds = timeout

	interval, err := intExtension(svc, ExtHealthInterval)
	if err != nil {
		return nil, err
	}
	health.IntervalSeconds = interval

	return health, nil
}

// intExtension reads an integer extension field, 0 when absent.
func intExtension(svc types.ServiceConfig, key string) (int, error) {
	raw, ok := svc.Extensions[key]
	if !ok {
		return 0, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err == nil {
			return n, nil
		}
	}
	return 0, NewParseError("services."+svc.Name+"."+key, "must be an integer", ErrInvalidHealth)
}

// boolExtension reads a boolean extension field, false when absent.
func boolExtension(svc types.ServiceConfig, key string) bool {
	raw, ok := svc.Extensions[key]
	if !ok {
		return false
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
