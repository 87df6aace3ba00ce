// Package quiz scores knowledge checks and records learner attempts.
package quiz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/abhisek/pathwise/internal/grading"
)

// Score grades every question of q against answers, keyed by question ID.
// Unanswered questions are graded against an empty answer.
func Score(q Quiz, answers map[string]grading.Answer) Result {
	res := Result{
		SkillScores:   make(map[string]float64),
		WeakAreas:     []string{},
		GradedAnswers: make([]GradedAnswer, 0, len(q.Questions)),
	}

	tagged := make(map[string]int)
	correct := make(map[string]int)

	for _, question := range q.Questions {
		ans := answers[question.ID]
		v := grading.Grade(question, ans)

		ga := GradedAnswer{QuestionID: question.ID, Answer: ans, Verdict: v, Points: question.Points}
		res.TotalPoints += question.Points
		if v == grading.Correct {
			ga.Earned = question.Points
			res.EarnedPoints += question.Points
		}
		if v == grading.NeedsManualReview {
			res.PendingReview++
		}
		res.GradedAnswers = append(res.GradedAnswers, ga)

		for _, skill := range uniqueSkills(question.SkillIDs) {
			tagged[skill]++
			if v == grading.Correct {
				correct[skill]++
			}
		}
	}

	if res.TotalPoints > 0 {
		res.Score = clampScore(100 * res.EarnedPoints / res.TotalPoints)
	}
	res.Passed = res.Score >= q.PassingScore

	for skill, n := range tagged {
		pct := 100 * float64(correct[skill]) / float64(n)
		res.SkillScores[skill] = pct
		if pct < WeakAreaThreshold {
			res.WeakAreas = append(res.WeakAreas, skill)
		}
	}
	sort.Strings(res.WeakAreas)

	res.Recommendations = recommend(res)
	return res
}

// recommend applies the recommendation rule table in order.
func recommend(r Result) []string {
	var recs []string
	named := r.WeakAreas
	if len(named) > maxNamedWeakAreas {
		named = named[:maxNamedWeakAreas]
	}

	if r.Passed {
		switch {
		case r.Score >= 95:
			recs = append(recs, "Excellent work! You have mastered this material.")
		case r.Score >= 85:
			recs = append(recs, "Great job! You have a solid grasp of this material.")
		default:
			recs = append(recs, "You passed, but there is room for improvement.")
		}
		if len(named) > 0 {
			recs = append(recs, "Consider reviewing: "+strings.Join(named, ", "))
		}
	} else {
		recs = append(recs, "Review the material and retry the quiz.")
		if len(named) > 0 {
			recs = append(recs, "Focus on: "+strings.Join(named, ", "))
		}
		if r.Score < 50 {
			recs = append(recs, "Consider revisiting the sprint content before retrying.")
		}
	}

	if r.PendingReview > 0 {
		recs = append(recs, fmt.Sprintf("%d answer(s) need manual review; your score may change once they are graded.", r.PendingReview))
	}
	return recs
}

func uniqueSkills(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
