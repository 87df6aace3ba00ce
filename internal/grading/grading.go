// Package grading decides whether a single answer is correct.
package grading

import "strings"

// Grade checks a against q. It never fails: unknown question types are
// Incorrect and free-form types are NeedsManualReview.
func Grade(q Question, a Answer) Verdict {
	switch q.Type {
	case MultipleChoice, TrueFalse:
		return verdict(singleOption(q.CorrectOptionIDs, a.Selected))
	case MultipleSelect:
		return verdict(sameSet(q.CorrectOptionIDs, a.Selected))
	case CodeOutput:
		return verdict(NormalizeOutput(a.Text) == NormalizeOutput(q.ExpectedOutput))
	case CodeCompletion, ShortAnswer:
		return NeedsManualReview
	default:
		return Incorrect
	}
}

// NormalizeOutput collapses every whitespace run to one space and trims.
func NormalizeOutput(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func verdict(ok bool) Verdict {
	if ok {
		return Correct
	}
	return Incorrect
}

// singleOption requires exactly one designated and one submitted option.
func singleOption(correct, submitted []string) bool {
	if len(correct) != 1 || len(submitted) != 1 {
		return false
	}
	return strings.TrimSpace(submitted[0]) == correct[0]
}

// sameSet compares as sets; order and duplicates are ignored.
func sameSet(correct, submitted []string) bool {
	want := make(map[string]bool, len(correct))
	for _, id := range correct {
		want[id] = true
	}
	got := make(map[string]bool, len(submitted))
	for _, id := range submitted {
		id = strings.TrimSpace(id)
		if !want[id] {
			return false
		}
		got[id] = true
	}
	return len(want) > 0 && len(got) == len(want)
}
