package mastery

import "math"

// Apply folds one observed score into a skill's level and status.
//
// The level moves by the fixed history/observed weights and is clamped to
// [0,100]; a NaN observation counts as 0. Promotions happen as soon as the
// level reaches a higher band. A demotion only happens once the level drops
// more than band below the current status's lower bound, and then lands on
// the band the level is actually in.
func Apply(prevLevel float64, prevStatus Status, observed, band float64) Update {
	if math.IsNaN(observed) {
		observed = 0
	}
	prevLevel = clampLevel(prevLevel)
	if prevStatus == "" {
		prevStatus = StatusFor(prevLevel)
	}

	newLevel := clampLevel(prevLevel*HistoryWeight + observed*ObservedWeight)

	newStatus := prevStatus
	target := StatusFor(newLevel)
	switch {
	case target.rank() > prevStatus.rank():
		newStatus = target
	case target.rank() < prevStatus.rank() && newLevel < prevStatus.lowerBound()-band:
		newStatus = target
	}

	return Update{
		PreviousLevel:  prevLevel,
		NewLevel:       newLevel,
		PreviousStatus: prevStatus,
		NewStatus:      newStatus,
		StatusChanged:  newStatus != prevStatus,
		MasteredNow:    prevStatus != StatusMastered && newStatus == StatusMastered,
	}
}

func clampLevel(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
