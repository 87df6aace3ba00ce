package planner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Heuristic tuning.
const (
	hoursPerSkill     = 0.75
	weaknessSurcharge = 0.15
	strengthDiscount  = 0.10
	maxHeuristicTasks = 4
)

// HeuristicPlanner builds a plan without any external call. Duration comes
// from the number of skills in focus, adjusted for the learner's weaknesses
// and strengths and scaled by velocity.
type HeuristicPlanner struct{}

func NewHeuristicPlanner() *HeuristicPlanner {
	return &HeuristicPlanner{}
}

func (h *HeuristicPlanner) GeneratePlan(_ context.Context, pc Context) (*Plan, error) {
	if err := CheckVersion(pc.Version); err != nil {
		return nil, err
	}

	focus := focusSkills(pc)
	weak := lowerSet(pc.Learner.Weaknesses)
	strong := lowerSet(pc.Learner.Strengths)

	factor := 1.0
	for _, s := range focus {
		key := strings.ToLower(s)
		if weak[key] {
			factor += weaknessSurcharge
		}
		if strong[key] {
			factor -= strengthDiscount
		}
	}
	velocity := pc.Objective.Velocity
	if velocity <= 0 {
		velocity = 1
	}

	hours := hoursPerSkill * float64(len(focus)) * math.Max(factor, 0.5) * velocity
	if pc.Learner.DailyMinutes > 0 {
		hours = math.Min(hours, float64(pc.Learner.DailyMinutes)/60*velocity)
	}
	hours = math.Max(0.25, math.Round(hours*4)/4)

	// Weak skills first so they are never cut by the task cap.
	ordered := append([]string(nil), focus...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return weak[strings.ToLower(ordered[i])] && !weak[strings.ToLower(ordered[j])]
	})
	if len(ordered) > maxHeuristicTasks {
		ordered = ordered[:maxHeuristicTasks]
	}

	minutes := int(math.Round(hours * 60 / float64(len(ordered))))
	plan := &Plan{
		Title:               heuristicTitle(pc),
		TotalEstimatedHours: hours,
		DifficultyLabel:     LabelForDifficulty(pc.Objective.Difficulty),
		Source:              SourceHeuristic,
	}
	verb := "Practice"
	if pc.Review != nil {
		verb = "Revisit"
	}
	for _, skill := range ordered {
		plan.Tasks = append(plan.Tasks, Task{
			Title:            fmt.Sprintf("%s %s", verb, skill),
			Description:      fmt.Sprintf("Work through a focused exercise on %s that builds on the previous day.", skill),
			EstimatedMinutes: minutes,
			CompletionCriteria: []string{
				fmt.Sprintf("A small program using %s runs without errors", skill),
				fmt.Sprintf("Notes explain %s in your own words", skill),
			},
		})
		plan.Deliverables = append(plan.Deliverables, fmt.Sprintf("Working example of %s", skill))
	}
	plan.Summary = fmt.Sprintf("%d task(s), about %.2f hours, covering %s.", len(plan.Tasks), hours, strings.Join(ordered, ", "))
	return plan, nil
}

func focusSkills(pc Context) []string {
	if pc.Review != nil && len(pc.Review.SkillIDs) > 0 {
		return pc.Review.SkillIDs
	}
	if len(pc.Objective.SkillIDs) > 0 {
		return pc.Objective.SkillIDs
	}
	return []string{pc.Objective.Title}
}

func heuristicTitle(pc Context) string {
	if pc.Review != nil {
		return fmt.Sprintf("Day %d: Review %s", pc.Day, strings.Join(pc.Review.SkillIDs, ", "))
	}
	if pc.NextMilestone != nil {
		return fmt.Sprintf("Day %d: %s, toward %s", pc.Day, pc.Objective.Title, pc.NextMilestone.Title)
	}
	return fmt.Sprintf("Day %d: %s", pc.Day, pc.Objective.Title)
}

func lowerSet(xs []string) map[string]bool {
	out := make(map[string]bool, len(xs))
	for _, x := range xs {
		out[strings.ToLower(strings.TrimSpace(x))] = true
	}
	return out
}
