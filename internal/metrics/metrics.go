// Package metrics exposes prometheus instruments for the progression engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pathwise"

// Metrics groups the engine's collectors. A nil *Metrics is valid and records
// nothing, so components can be built without instrumentation.
type Metrics struct {
	SprintsGenerated   *prometheus.CounterVec
	GenerationFailures *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	QuizAttempts       *prometheus.CounterVec
	QuizScore          prometheus.Histogram
	SkillTransitions   *prometheus.CounterVec
	BufferRuns         *prometheus.CounterVec
	PlannerFallbacks   prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. When reg is nil a
// private registry is used.
func New(reg prometheus.Registerer) (*Metrics, error) {
	gatherer := prometheus.DefaultGatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{
		SprintsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sprints_generated_total",
			Help:      "Sprints created, by generation mode and kind.",
		}, []string{"mode", "kind"}),
		GenerationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sprint_generation_failures_total",
			Help:      "Failed sprint generations, by stage.",
		}, []string{"stage"}),
		GenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sprint_generation_duration_seconds",
			Help:      "Duration of a single sprint generation.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"planner"}),
		QuizAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_attempts_total",
			Help:      "Quiz attempts submitted, by quiz type and outcome.",
		}, []string{"type", "outcome"}),
		QuizScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quiz_score",
			Help:      "Distribution of quiz scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		SkillTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skill_status_transitions_total",
			Help:      "Skill status changes, by target status.",
		}, []string{"status"}),
		BufferRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_maintenance_runs_total",
			Help:      "Buffer maintenance passes, by result.",
		}, []string{"result"}),
		PlannerFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "planner_fallbacks_total",
			Help:      "Plans produced by the heuristic fallback.",
		}),
		gatherer: gatherer,
	}

	for _, c := range []prometheus.Collector{
		m.SprintsGenerated, m.GenerationFailures, m.GenerationDuration,
		m.QuizAttempts, m.QuizScore, m.SkillTransitions, m.BufferRuns,
		m.PlannerFallbacks,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) SprintGenerated(mode string, review bool, took time.Duration, planner string) {
	if m == nil {
		return
	}
	kind := "regular"
	if review {
		kind = "review"
	}
	m.SprintsGenerated.WithLabelValues(mode, kind).Inc()
	m.GenerationDuration.WithLabelValues(planner).Observe(took.Seconds())
}

func (m *Metrics) GenerationFailed(stage string) {
	if m == nil {
		return
	}
	m.GenerationFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) QuizAttempted(quizType string, passed bool, score float64) {
	if m == nil {
		return
	}
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	m.QuizAttempts.WithLabelValues(quizType, outcome).Inc()
	m.QuizScore.Observe(score)
}

func (m *Metrics) SkillTransitioned(status string) {
	if m == nil {
		return
	}
	m.SkillTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) BufferRun(result string) {
	if m == nil {
		return
	}
	m.BufferRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) PlannerFellBack() {
	if m == nil {
		return
	}
	m.PlannerFallbacks.Inc()
}
