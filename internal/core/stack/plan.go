package stack

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// Deployment Planning
// =============================================================================

// Plan validates the service set and topologically sorts it by dependencies
// using Kahn's algorithm. Services with no dependencies come first.
//
// The function implements a BFS-based topological sort:
//  1. Build a map of service dependencies (in-degree)
//  2. Start with services that have no dependencies (in-degree = 0)
//  3. Process each service, reducing the in-degree of its dependents
//  4. When a dependent's in-degree reaches 0, add it to the queue
//
// A cycle is a fatal configuration error: Plan fails with
// ErrCircularDependency and never silently resolves the cycle.
//
// Example:
//
//	// Services: search-api → bot → db
//	services := []ServiceSpec{
//	    {Name: "search-api", DependsOn: []string{"bot"}},
//	    {Name: "bot", DependsOn: []string{"db"}},
//	    {Name: "db"},
//	}
//	plan, err := Plan(services)
//	// plan.Services() order: [db, bot, search-api]
func Plan(services []ServiceSpec) (DeploymentPlan, error) {
	if len(services) == 0 {
		return DeploymentPlan{}, ErrNoServices
	}

	if err := validate(services); err != nil {
		return DeploymentPlan{}, err
	}

	// Build dependency graph
	serviceMap := make(map[string]ServiceSpec)
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)

	for _, svc := range services {
		serviceMap[svc.Name] = svc
		inDegree[svc.Name] = len(svc.DependsOn)
		for _, dep := range svc.DependsOn {
			dependents[dep] = append(dependents[dep], svc.Name)
		}
	}

	// Start with services that have no dependencies. Sorted so the plan
	// is deterministic for a given input set.
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	// Process queue (BFS)
	var ordered []ServiceSpec
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		ordered = append(ordered, serviceMap[name])

		var released []string
		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				released = append(released, dep)
			}
		}
		sort.Strings(released)
		queue = append(queue, released...)
	}

	// Services left unprocessed are part of a cycle.
	if len(ordered) < len(services) {
		var stuck []string
		for name, degree := range inDegree {
			if degree > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return DeploymentPlan{}, NewPlanError("",
			fmt.Sprintf("cycle involves: %s", strings.Join(stuck, ", ")),
			ErrCircularDependency)
	}

	return DeploymentPlan{services: ordered}, nil
}

// validate checks structural invariants before sorting: non-empty names,
// unique names, and depends_on references that resolve within the set.
func validate(services []ServiceSpec) error {
	seen := make(map[string]bool, len(services))
	for _, svc := range services {
		if svc.Name == "" {
			return NewPlanError("", "service name must not be empty", ErrInvalidService)
		}
		if svc.ContainerName == "" {
			return NewPlanError(svc.Name, "container name must not be empty", ErrInvalidService)
		}
		if seen[svc.Name] {
			return NewPlanError(svc.Name, "service is defined twice", ErrDuplicateService)
		}
		seen[svc.Name] = true
	}

	for _, svc := range services {
		for _, dep := range svc.DependsOn {
			if !seen[dep] {
				return NewPlanError(svc.Name,
					fmt.Sprintf("depends on %q which is not defined", dep),
					ErrUnknownDependency)
			}
			if dep == svc.Name {
				return NewPlanError(svc.Name, "service depends on itself", ErrCircularDependency)
			}
		}
	}

	return nil
}
