package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Plan Tests
// =============================================================================

func TestPlan_Empty(t *testing.T) {
	_, err := Plan(nil)
	assert.ErrorIs(t, err, ErrNoServices)
}

func TestPlan_SingleService(t *testing.T) {
	plan, err := Plan([]ServiceSpec{
		{Name: "db", ContainerName: "watch_db"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, plan.Len())
	assert.Equal(t, "db", plan.Services()[0].Name)
}

func TestPlan_LinearDependencies(t *testing.T) {
	// search-api depends on bot, bot depends on db
	plan, err := Plan([]ServiceSpec{
		{Name: "search-api", ContainerName: "watch_search_api", DependsOn: []string{"bot"}},
		{Name: "bot", ContainerName: "watch_bot", DependsOn: []string{"db"}},
		{Name: "db", ContainerName: "watch_db"},
	})
	require.NoError(t, err)

	indices := planIndices(plan)
	assert.Less(t, indices["db"], indices["bot"], "db should come before bot")
	assert.Less(t, indices["bot"], indices["search-api"], "bot should come before search-api")
}

func TestPlan_DiamondDependencies(t *testing.T) {
	// indexer depends on search-api and image-api, both depend on bot
	//      indexer
	//      /     \
	// search-api image-api
	//      \     /
	//        bot
	plan, err := Plan([]ServiceSpec{
		{Name: "indexer", ContainerName: "watch_indexer", DependsOn: []string{"search-api", "image-api"}},
		{Name: "search-api", ContainerName: "watch_search_api", DependsOn: []string{"bot"}},
		{Name: "image-api", ContainerName: "watch_image_api", DependsOn: []string{"bot"}},
		{Name: "bot", ContainerName: "watch_bot"},
	})
	require.NoError(t, err)

	indices := planIndices(plan)
	assert.Equal(t, 0, indices["bot"], "bot should be first")
	assert.Equal(t, 3, indices["indexer"], "indexer should be last")
	assert.Less(t, indices["bot"], indices["search-api"])
	assert.Less(t, indices["bot"], indices["image-api"])
}

func TestPlan_MultipleRoots(t *testing.T) {
	// Two independent chains: bot→db and indexer→search-api
	plan, err := Plan([]ServiceSpec{
		{Name: "bot", ContainerName: "watch_bot", DependsOn: []string{"db"}},
		{Name: "db", ContainerName: "watch_db"},
		{Name: "indexer", ContainerName: "watch_indexer", DependsOn: []string{"search-api"}},
		{Name: "search-api", ContainerName: "watch_search_api"},
	})
	require.NoError(t, err)

	indices := planIndices(plan)
	assert.Less(t, indices["db"], indices["bot"])
	assert.Less(t, indices["search-api"], indices["indexer"])
}

func TestPlan_DeepChain(t *testing.T) {
	// a → b → c → d → e
	plan, err := Plan([]ServiceSpec{
		{Name: "a", ContainerName: "ca", DependsOn: []string{"b"}},
		{Name: "b", ContainerName: "cb", DependsOn: []string{"c"}},
		{Name: "c", ContainerName: "cc", DependsOn: []string{"d"}},
		{Name: "d", ContainerName: "cd", DependsOn: []string{"e"}},
		{Name: "e", ContainerName: "ce"},
	})
	require.NoError(t, err)

	expected := []string{"e", "d", "c", "b", "a"}
	for i, name := range expected {
		assert.Equal(t, name, plan.Services()[i].Name)
	}
}

func TestPlan_Deterministic(t *testing.T) {
	services := []ServiceSpec{
		{Name: "bot", ContainerName: "watch_bot", DependsOn: []string{"db"}},
		{Name: "db", ContainerName: "watch_db"},
		{Name: "cache", ContainerName: "watch_cache"},
	}

	first, err := Plan(services)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Plan(services)
		require.NoError(t, err)
		assert.Equal(t, first.Services(), again.Services())
	}
}

func TestPlan_Cycle(t *testing.T) {
	_, err := Plan([]ServiceSpec{
		{Name: "a", ContainerName: "ca", DependsOn: []string{"b"}},
		{Name: "b", ContainerName: "cb", DependsOn: []string{"a"}},
	})
	assert.ErrorIs(t, err, ErrCircularDependency)
}

func TestPlan_PartialCycle(t *testing.T) {
	// c is fine, a and b form a cycle: still a fatal configuration error.
	_, err := Plan([]ServiceSpec{
		{Name: "a", ContainerName: "ca", DependsOn: []string{"b"}},
		{Name: "b", ContainerName: "cb", DependsOn: []string{"a"}},
		{Name: "c", ContainerName: "cc"},
	})
	require.ErrorIs(t, err, ErrCircularDependency)

	var planErr *PlanError
	require.ErrorAs(t, err, &planErr)
	assert.Equal(t, "cycle involves: a, b", planErr.Message)
}

func TestPlan_SelfDependency(t *testing.T) {
	_, err := Plan([]ServiceSpec{
		{Name: "a", ContainerName: "ca", DependsOn: []string{"a"}},
	})
	assert.ErrorIs(t, err, ErrCircularDependency)
}

func TestPlan_UnknownDependency(t *testing.T) {
	_, err := Plan([]ServiceSpec{
		{Name: "bot", ContainerName: "watch_bot", DependsOn: []string{"db"}},
	})
	require.ErrorIs(t, err, ErrUnknownDependency)

	var planErr *PlanError
	require.ErrorAs(t, err, &planErr)
	assert.Equal(t, "bot", planErr.Service)
}

func TestPlan_DuplicateName(t *testing.T) {
	_, err := Plan([]ServiceSpec{
		{Name: "db", ContainerName: "watch_db"},
		{Name: "db", ContainerName: "watch_db_2"},
	})
	assert.ErrorIs(t, err, ErrDuplicateService)
}

func TestPlan_MissingContainerName(t *testing.T) {
	_, err := Plan([]ServiceSpec{
		{Name: "db"},
	})
	assert.ErrorIs(t, err, ErrInvalidService)
}

func TestPlan_PreservesServiceData(t *testing.T) {
	plan, err := Plan([]ServiceSpec{
		{
			Name:          "search-api",
			ContainerName: "watch_search_api",
			Image:         "watchvine/search-api:latest",
			DependsOn:     []string{"bot"},
			Env:           map[string]string{"PORT": "8001"},
			HealthCheck:   &HealthCheckSpec{URL: "http://localhost:8001/health", TimeoutSeconds: 60},
		},
		{Name: "bot", ContainerName: "watch_bot", Image: "watchvine/bot:latest"},
	})
	require.NoError(t, err)

	svc, ok := plan.Lookup("search-api")
	require.True(t, ok)
	assert.Equal(t, "watchvine/search-api:latest", svc.Image)
	assert.Equal(t, []string{"bot"}, svc.DependsOn)
	assert.Equal(t, "8001", svc.Env["PORT"])
	require.NotNil(t, svc.HealthCheck)
	assert.Equal(t, 60, svc.HealthCheck.TimeoutSeconds)
}

func TestPlan_ImmutableResult(t *testing.T) {
	plan, err := Plan([]ServiceSpec{
		{Name: "db", ContainerName: "watch_db"},
		{Name: "bot", ContainerName: "watch_bot", DependsOn: []string{"db"}},
	})
	require.NoError(t, err)

	mutated := plan.Services()
	mutated[0].Name = "clobbered"

	assert.Equal(t, "db", plan.Services()[0].Name)
}

// planIndices maps service name to its position in the plan.
func planIndices(plan DeploymentPlan) map[string]int {
	indices := make(map[string]int)
	for i, svc := range plan.Services() {
		indices[svc.Name] = i
	}
	return indices
}
