package spacedrep

import "math"

// Params tunes the review interval algorithm.
type Params struct {
	// PassThreshold is the lowest review score counted as a successful recall.
	PassThreshold float64
	DefaultEase   float64
	MinEase       float64
	MaxEase       float64
	// FailPenalty is subtracted from the ease on a failed review.
	FailPenalty float64
}

func DefaultParams() Params {
	return Params{
		PassThreshold: 70,
		DefaultEase:   2.5,
		MinEase:       1.3,
		MaxEase:       3.0,
		FailPenalty:   0.2,
	}
}

// Step is the part of a review schedule the algorithm advances.
type Step struct {
	IntervalDays int
	EaseFactor   float64
	ReviewCount  int
}

// First is the step every schedule starts from.
func (p Params) First() Step {
	return Step{IntervalDays: 1, EaseFactor: p.DefaultEase}
}

// Next advances cur by one review scored 0-100.
//
// A pass adjusts the ease by the SM-2 quality delta (quality = score/20) and
// grows the interval to at least one day more than before, so consecutive
// passes always lengthen it. A fail resets the interval to 1 day and the
// review count to 0, and lowers the ease.
func Next(cur Step, score float64, p Params) Step {
	if cur.IntervalDays < 1 {
		cur.IntervalDays = 1
	}
	if cur.EaseFactor == 0 {
		cur.EaseFactor = p.DefaultEase
	}

	if math.IsNaN(score) || score < p.PassThreshold {
		return Step{
			IntervalDays: 1,
			EaseFactor:   clamp(cur.EaseFactor-p.FailPenalty, p.MinEase, p.MaxEase),
			ReviewCount:  0,
		}
	}

	ease := clamp(cur.EaseFactor+easeDelta(score), p.MinEase, p.MaxEase)
	interval := int(math.Round(float64(cur.IntervalDays) * ease))
	if interval < cur.IntervalDays+1 {
		interval = cur.IntervalDays + 1
	}
	return Step{
		IntervalDays: interval,
		EaseFactor:   ease,
		ReviewCount:  cur.ReviewCount + 1,
	}
}

// easeDelta is the SM-2 ease adjustment for a 0-100 score.
func easeDelta(score float64) float64 {
	q := clamp(score/20, 0, 5)
	return 0.1 - (5-q)*(0.08+(5-q)*0.02)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
