// Package performance judges a learner's recent sprint scores and adjusts
// an objective's pacing.
package performance

import (
	"fmt"
	"math"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

type Action string

const (
	ActionIncrease Action = "increase"
	ActionDecrease Action = "decrease"
	ActionMaintain Action = "maintain"
)

const (
	// TrendThreshold is the half-over-half mean difference that counts as a trend.
	TrendThreshold = 5.0
	// IncreaseAverage is the lowest average that earns harder material.
	IncreaseAverage = 90.0
	// DecreaseAverage is the average below which pacing eases off.
	DecreaseAverage = 60.0
	// DefaultWindow is how many recent sprints are analyzed by default.
	DefaultWindow = 5
)

// Pacing bounds.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
	MinVelocity   = 0.5
	MaxVelocity   = 1.5
	VelocityStep  = 0.1
)

// Analysis summarizes a window of sprint scores.
type Analysis struct {
	Scores            []float64
	AverageScore      float64
	EarlierMean       float64
	LaterMean         float64
	Trend             Trend
	RecommendedAction Action
}

// Analyze computes the average and trend of scores, oldest first. The
// trend compares the mean of the first half against the rest; fewer than
// two scores is always stable. No scores recommends maintain.
func Analyze(scores []float64) Analysis {
	a := Analysis{Scores: scores, Trend: TrendStable, RecommendedAction: ActionMaintain}
	if len(scores) == 0 {
		return a
	}
	a.AverageScore = mean(scores)

	if len(scores) >= 2 {
		mid := len(scores) / 2
		a.EarlierMean = mean(scores[:mid])
		a.LaterMean = mean(scores[mid:])
		switch diff := a.LaterMean - a.EarlierMean; {
		case diff > TrendThreshold:
			a.Trend = TrendImproving
		case diff < -TrendThreshold:
			a.Trend = TrendDeclining
		}
	}

	switch {
	case a.AverageScore >= IncreaseAverage && a.Trend != TrendDeclining:
		a.RecommendedAction = ActionIncrease
	case a.AverageScore < DecreaseAverage || a.Trend == TrendDeclining:
		a.RecommendedAction = ActionDecrease
	}
	return a
}

// Pacing is an objective's difficulty step and workload multiplier.
type Pacing struct {
	Difficulty int
	Velocity   float64
}

// Adjustment is the outcome of recalibrating pacing.
type Adjustment struct {
	ShouldAdjust bool
	Action       Action
	Previous     Pacing
	Next         Pacing
	Reasoning    string
}

// Recalibrate moves pacing one step in the direction of a's recommended
// action, within bounds. ShouldAdjust is false on maintain or when pacing
// is already at the relevant bound.
func Recalibrate(a Analysis, cur Pacing) Adjustment {
	adj := Adjustment{Action: a.RecommendedAction, Previous: cur, Next: cur}

	// Steps start from pacing pulled back into bounds.
	base := Pacing{
		Difficulty: min(max(cur.Difficulty, MinDifficulty), MaxDifficulty),
		Velocity:   math.Min(math.Max(cur.Velocity, MinVelocity), MaxVelocity),
	}
	switch a.RecommendedAction {
	case ActionIncrease:
		adj.Next.Difficulty = min(base.Difficulty+1, MaxDifficulty)
		adj.Next.Velocity = roundVelocity(math.Min(base.Velocity+VelocityStep, MaxVelocity))
	case ActionDecrease:
		adj.Next.Difficulty = max(base.Difficulty-1, MinDifficulty)
		adj.Next.Velocity = roundVelocity(math.Max(base.Velocity-VelocityStep, MinVelocity))
	default:
		adj.Reasoning = fmt.Sprintf("Average score %.1f with a %s trend; keeping the current pace.", a.AverageScore, a.Trend)
		return adj
	}

	adj.ShouldAdjust = adj.Next != cur
	switch {
	case !adj.ShouldAdjust && a.RecommendedAction == ActionIncrease:
		adj.Reasoning = fmt.Sprintf("Average score %.1f suggests harder material, but pacing is already at its maximum.", a.AverageScore)
	case !adj.ShouldAdjust:
		adj.Reasoning = fmt.Sprintf("Average score %.1f suggests easing off, but pacing is already at its minimum.", a.AverageScore)
	case a.RecommendedAction == ActionIncrease:
		adj.Reasoning = fmt.Sprintf("Average score %.1f with a %s trend; raising difficulty to %d and velocity to %.1f.",
			a.AverageScore, a.Trend, adj.Next.Difficulty, adj.Next.Velocity)
	default:
		adj.Reasoning = fmt.Sprintf("Average score %.1f with a %s trend; lowering difficulty to %d and velocity to %.1f.",
			a.AverageScore, a.Trend, adj.Next.Difficulty, adj.Next.Velocity)
	}
	return adj
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// roundVelocity keeps velocity on the 0.1 grid.
func roundVelocity(v float64) float64 {
	return math.Round(v*10) / 10
}
