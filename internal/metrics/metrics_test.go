package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SprintGenerated("DAILY", false, time.Second, "heuristic")
	m.GenerationFailed("planner")
	m.QuizAttempted("post_sprint", true, 90)
	m.SkillTransitioned("mastered")
	m.BufferRun("ok")
	m.PlannerFellBack()
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.SprintGenerated("DAILY", false, 50*time.Millisecond, "llm")
	m.SprintGenerated("DAILY", true, 50*time.Millisecond, "llm")
	m.SprintGenerated("DAILY", true, 50*time.Millisecond, "llm")
	m.QuizAttempted("post_sprint", false, 40)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SprintsGenerated.WithLabelValues("DAILY", "regular")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SprintsGenerated.WithLabelValues("DAILY", "review")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuizAttempts.WithLabelValues("post_sprint", "failed")))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestHandlerServesRegistry(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	m.PlannerFellBack()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "pathwise_planner_fallbacks_total 1"))
}
