package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// RunReport Tests
// =============================================================================

func TestRunReport_RecordAndGet(t *testing.T) {
	r := New("deploy")
	r.Record("db", Outcome{Status: StatusRunning, Detail: "watch_db"})

	o, ok := r.Get("db")
	require.True(t, ok)
	assert.Equal(t, StatusRunning, o.Status)
	assert.Equal(t, "watch_db", o.Detail)

	_, ok = r.Get("bot")
	assert.False(t, ok)
}

func TestRunReport_OrderPreserved(t *testing.T) {
	r := New("deploy")
	r.Record("db", Outcome{Status: StatusRunning})
	r.Record("bot", Outcome{Status: StatusRunning})
	r.Record("search-api", Outcome{Status: StatusUnhealthy})

	assert.Equal(t, []string{"db", "bot", "search-api"}, r.Names())
}

func TestRunReport_RecordOverwrites(t *testing.T) {
	r := New("deploy")
	r.Record("bot", Outcome{Status: StatusUnhealthy})
	r.Record("bot", Outcome{Status: StatusRunning, Attempts: 4})

	o, _ := r.Get("bot")
	assert.Equal(t, StatusRunning, o.Status)
	assert.Equal(t, 4, o.Attempts)
	assert.Equal(t, 1, r.Len())
}

func TestRunReport_Degraded(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		degraded bool
	}{
		{"all running", []Status{StatusRunning, StatusRunning}, false},
		{"one unhealthy", []Status{StatusRunning, StatusUnhealthy}, true},
		{"one missing", []Status{StatusRunning, StatusMissing}, true},
		{"one failed", []Status{StatusFailed}, true},
		{"one skipped copy", []Status{StatusCopied, StatusSkipped}, true},
		{"preserved is fine", []Status{StatusRunning, StatusPreserved}, false},
		{"detached is fine", []Status{StatusRunning, StatusDetached}, false},
		{"cleanup outcomes fine", []Status{StatusArchived, StatusDeleted, StatusRemoved}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("deploy")
			for i, s := range tt.statuses {
				r.Record(string(rune('a'+i)), Outcome{Status: s})
			}
			assert.Equal(t, tt.degraded, r.Degraded())
		})
	}
}

func TestRunReport_Counts(t *testing.T) {
	r := New("teardown")
	r.Record("db", Outcome{Status: StatusStopped})
	r.Record("bot", Outcome{Status: StatusStopped})
	r.Record("evolution", Outcome{Status: StatusPreserved})

	counts := r.Counts()
	assert.Equal(t, 2, counts[StatusStopped])
	assert.Equal(t, 1, counts[StatusPreserved])
}

// =============================================================================
// Render Tests
// =============================================================================

func TestRender_ContainsAllServices(t *testing.T) {
	r := New("deploy")
	r.Record("db", Outcome{Status: StatusRunning, Detail: "watch_db"})
	r.Record("bot", Outcome{Status: StatusUnhealthy, Detail: "health check timed out", Attempts: 12})

	out := Render(r)
	assert.Contains(t, out, "deploy summary")
	assert.Contains(t, out, "db")
	assert.Contains(t, out, "bot")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "unhealthy")
	assert.Contains(t, out, "12 poll(s)")
	assert.Contains(t, out, "degraded")
}

func TestRender_AllHealthy(t *testing.T) {
	r := New("deploy")
	r.Record("db", Outcome{Status: StatusRunning})

	out := Render(r)
	assert.Contains(t, out, "all healthy")
	assert.NotContains(t, out, "degraded")
}

func TestRender_NeverEmpty(t *testing.T) {
	// The tool never exits silently: even an empty run renders a summary.
	out := Render(New("cleanup"))
	assert.Contains(t, out, "cleanup summary")
	assert.Contains(t, out, "result:")
}
