package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_StableHighScores(t *testing.T) {
	a := Analyze([]float64{95, 96, 94, 97, 98})
	assert.Equal(t, TrendStable, a.Trend)
	assert.Equal(t, ActionIncrease, a.RecommendedAction)
	assert.InDelta(t, 96.0, a.AverageScore, 1e-9)
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		trend  Trend
		action Action
	}{
		{"empty", nil, TrendStable, ActionMaintain},
		{"single high", []float64{99}, TrendStable, ActionIncrease},
		{"improving middling", []float64{60, 65, 75, 80}, TrendImproving, ActionMaintain},
		{"declining from high", []float64{99, 98, 90, 88}, TrendDeclining, ActionDecrease},
		{"low average", []float64{50, 55, 52}, TrendStable, ActionDecrease},
		{"within threshold", []float64{70, 74}, TrendStable, ActionMaintain},
		{"exactly threshold", []float64{70, 75}, TrendStable, ActionMaintain},
		{"high but declining", []float64{100, 100, 100, 100, 90, 88}, TrendDeclining, ActionDecrease},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analyze(tt.scores)
			assert.Equal(t, tt.trend, a.Trend)
			assert.Equal(t, tt.action, a.RecommendedAction)
		})
	}
}

func TestRecalibrate(t *testing.T) {
	increase := Analysis{AverageScore: 95, Trend: TrendStable, RecommendedAction: ActionIncrease}
	decrease := Analysis{AverageScore: 50, Trend: TrendDeclining, RecommendedAction: ActionDecrease}
	maintain := Analysis{AverageScore: 75, Trend: TrendStable, RecommendedAction: ActionMaintain}

	tests := []struct {
		name   string
		a      Analysis
		cur    Pacing
		adjust bool
		next   Pacing
	}{
		{"increase", increase, Pacing{3, 1.0}, true, Pacing{4, 1.1}},
		{"increase at difficulty cap", increase, Pacing{5, 1.2}, true, Pacing{5, 1.3}},
		{"increase fully capped", increase, Pacing{5, 1.5}, false, Pacing{5, 1.5}},
		{"decrease", decrease, Pacing{3, 1.0}, true, Pacing{2, 0.9}},
		{"decrease fully floored", decrease, Pacing{1, 0.5}, false, Pacing{1, 0.5}},
		{"maintain", maintain, Pacing{3, 1.0}, false, Pacing{3, 1.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := Recalibrate(tt.a, tt.cur)
			assert.Equal(t, tt.adjust, adj.ShouldAdjust)
			assert.Equal(t, tt.next.Difficulty, adj.Next.Difficulty)
			assert.InDelta(t, tt.next.Velocity, adj.Next.Velocity, 1e-9)
			assert.NotEmpty(t, adj.Reasoning)
		})
	}
}

func TestRecalibrate_VelocityStaysInBounds(t *testing.T) {
	p := Pacing{Difficulty: 3, Velocity: 1.0}
	up := Analysis{AverageScore: 99, RecommendedAction: ActionIncrease}
	for range 20 {
		p = Recalibrate(up, p).Next
	}
	assert.Equal(t, Pacing{MaxDifficulty, MaxVelocity}, p)

	down := Analysis{AverageScore: 10, RecommendedAction: ActionDecrease}
	for range 20 {
		p = Recalibrate(down, p).Next
	}
	assert.Equal(t, Pacing{MinDifficulty, MinVelocity}, p)
}

func TestRecalibrate_OutOfRangePacingIsPulledIn(t *testing.T) {
	up := Analysis{AverageScore: 97, RecommendedAction: ActionIncrease}
	down := Analysis{AverageScore: 40, RecommendedAction: ActionDecrease}

	tests := []struct {
		name string
		a    Analysis
		cur  Pacing
		want Pacing
	}{
		{"zero velocity increases from the floor", up, Pacing{3, 0}, Pacing{4, 0.6}},
		{"fast velocity decreases from the ceiling", down, Pacing{3, 2.0}, Pacing{2, 1.4}},
		{"difficulty above range", down, Pacing{9, 1.0}, Pacing{4, 0.9}},
		{"difficulty below range at ceiling velocity", up, Pacing{0, 1.5}, Pacing{2, 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := Recalibrate(tt.a, tt.cur)
			assert.True(t, adj.ShouldAdjust)
			assert.Equal(t, tt.want, adj.Next)
			assert.Equal(t, tt.cur, adj.Previous)
		})
	}
}
