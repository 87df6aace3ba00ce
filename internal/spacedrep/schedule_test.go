package spacedrep

import (
	"math"
	"testing"
)

func TestNext_ConsecutivePassesStrictlyGrow(t *testing.T) {
	p := DefaultParams()
	for _, score := range []float64{70, 75, 85, 100} {
		step := p.First()
		for i := range 12 {
			next := Next(step, score, p)
			if next.IntervalDays <= step.IntervalDays {
				t.Fatalf("score %v review %d: interval %d did not grow from %d", score, i, next.IntervalDays, step.IntervalDays)
			}
			if next.ReviewCount != step.ReviewCount+1 {
				t.Fatalf("score %v review %d: count %d", score, i, next.ReviewCount)
			}
			step = next
		}
	}
}

func TestNext_FailResets(t *testing.T) {
	p := DefaultParams()
	step := Step{IntervalDays: 21, EaseFactor: 2.6, ReviewCount: 5}

	for _, score := range []float64{69.9, 40, 0, math.NaN()} {
		next := Next(step, score, p)
		if next.IntervalDays != 1 || next.ReviewCount != 0 {
			t.Fatalf("score %v: got %+v, want reset", score, next)
		}
		if math.Abs(next.EaseFactor-2.4) > 1e-9 {
			t.Fatalf("score %v: ease %v, want 2.4", score, next.EaseFactor)
		}
	}
}

func TestNext_EaseBounded(t *testing.T) {
	p := DefaultParams()

	step := p.First()
	for range 20 {
		step = Next(step, 0, p)
	}
	if step.EaseFactor != p.MinEase {
		t.Fatalf("ease after repeated failure = %v, want %v", step.EaseFactor, p.MinEase)
	}

	step = p.First()
	for range 20 {
		step = Next(step, 100, p)
	}
	if step.EaseFactor != p.MaxEase {
		t.Fatalf("ease after repeated perfection = %v, want %v", step.EaseFactor, p.MaxEase)
	}
}

func TestNext_EaseAdjustment(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		score float64
		ease  float64
	}{
		{100, 2.6},
		{80, 2.5},
		{70, 2.435},
	}
	for _, tt := range tests {
		got := Next(p.First(), tt.score, p)
		if math.Abs(got.EaseFactor-tt.ease) > 1e-9 {
			t.Errorf("score %v: ease %v, want %v", tt.score, got.EaseFactor, tt.ease)
		}
	}
}

func TestNext_IntervalSequence(t *testing.T) {
	p := DefaultParams()
	step := Step{IntervalDays: 1, EaseFactor: 2.5}
	var got []int
	for range 4 {
		step = Next(step, 90, p)
		got = append(got, step.IntervalDays)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("intervals not increasing: %v", got)
		}
	}
	if got[0] < 2 {
		t.Fatalf("first interval %d, want at least 2", got[0])
	}
}
