package sequencer

import (
	"fmt"
	"strings"

	"github.com/abhisek/pathwise/internal/performance"
	"github.com/abhisek/pathwise/internal/planner"
	"github.com/abhisek/pathwise/internal/store"
)

// plannerInput is everything loaded for one generation step.
type plannerInput struct {
	objective *store.Objective
	profile   *store.LearnerProfile
	day       int
	previous  []store.Sprint
	milestone *store.Milestone
	analysis  *performance.Analysis
	review    *planner.ReviewFocus
}

func buildContext(in plannerInput) planner.Context {
	obj := in.objective
	pc := planner.Context{
		Version: planner.ContextVersion,
		Objective: planner.ObjectiveInfo{
			ID:                 obj.ID,
			Title:              obj.Title,
			Description:        obj.Description,
			SkillIDs:           obj.SkillIDs,
			EstimatedTotalDays: obj.EstimatedTotalDays,
			Difficulty:         obj.Difficulty,
			Velocity:           obj.Velocity,
		},
		Learner: planner.LearnerInfo{
			UserID:       in.profile.UserID,
			Interests:    in.profile.Interests,
			Strengths:    in.profile.Strengths,
			Weaknesses:   in.profile.Weaknesses,
			DailyMinutes: in.profile.DailyMinutes,
		},
		Day:    in.day,
		Review: in.review,
	}

	for _, s := range in.previous {
		pc.Continuity.PreviousSprints = append(pc.Continuity.PreviousSprints, planner.PriorSprint{
			Day:             s.DayNumber,
			Title:           s.Title,
			Deliverables:    s.Deliverables,
			ReflectionNotes: s.ReflectionNotes,
			Score:           s.Score,
		})
	}
	if in.milestone != nil {
		pc.NextMilestone = &planner.MilestoneInfo{Title: in.milestone.Title, TargetDay: in.milestone.TargetDay}
	}
	if in.analysis != nil && len(in.analysis.Scores) > 0 {
		pc.Performance = &planner.PerformanceSummary{
			AverageScore: in.analysis.AverageScore,
			Trend:        string(in.analysis.Trend),
			SprintCount:  len(in.analysis.Scores),
		}
	}

	pc.Instructions = instructions(pc)
	return pc
}

// instructions are the free-text rules handed to the planner.
func instructions(pc planner.Context) []string {
	out := []string{
		"Every task must produce a concrete deliverable with completion criteria the learner can verify alone.",
	}

	if n := len(pc.Continuity.PreviousSprints); n > 0 {
		last := pc.Continuity.PreviousSprints[n-1]
		out = append(out, fmt.Sprintf("Continue from day %d (%q). Build on it; do not repeat earlier tasks or deliverables.", last.Day, last.Title))
	} else {
		out = append(out, "This is the first sprint of the objective. Start from fundamentals.")
	}

	if pc.Review != nil {
		out = append(out, fmt.Sprintf("This is a review sprint. Revisit %s with fresh exercises instead of new material.", strings.Join(pc.Review.SkillIDs, ", ")))
	}
	if len(pc.Learner.Weaknesses) > 0 {
		out = append(out, "Give extra practice on: "+strings.Join(pc.Learner.Weaknesses, ", ")+".")
	}
	if len(pc.Learner.Strengths) > 0 {
		out = append(out, "Build on existing strengths: "+strings.Join(pc.Learner.Strengths, ", ")+".")
	}
	if len(pc.Learner.Interests) > 0 {
		out = append(out, "Draw examples from the learner's interests: "+strings.Join(pc.Learner.Interests, ", ")+".")
	}
	if pc.NextMilestone != nil {
		out = append(out, fmt.Sprintf("Work toward the milestone %q due on day %d.", pc.NextMilestone.Title, pc.NextMilestone.TargetDay))
	}
	if pc.Performance != nil {
		switch {
		case pc.Performance.Trend == string(performance.TrendDeclining):
			out = append(out, "Recent scores are declining. Consolidate before introducing new concepts.")
		case pc.Performance.AverageScore >= performance.IncreaseAverage:
			out = append(out, "Recent scores are strong. Stretch slightly beyond the comfort zone.")
		}
	}
	return out
}
