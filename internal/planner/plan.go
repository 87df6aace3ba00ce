package planner

import (
	"errors"
	"fmt"
	"strings"
)

// Difficulty labels a plan may carry.
const (
	LabelBeginner     = "beginner"
	LabelIntermediate = "intermediate"
	LabelAdvanced     = "advanced"
)

// Plan is the content of one sprint.
type Plan struct {
	Title               string   `json:"title"`
	Summary             string   `json:"summary"`
	TotalEstimatedHours float64  `json:"total_estimated_hours"`
	DifficultyLabel     string   `json:"difficulty_label"`
	Tasks               []Task   `json:"tasks"`
	Deliverables        []string `json:"deliverables"`

	// Source names the planner that produced the plan.
	Source string `json:"-"`
}

// Task is one micro-task; CompletionCriteria must be checkable by the learner.
type Task struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	EstimatedMinutes   int      `json:"estimated_minutes"`
	CompletionCriteria []string `json:"completion_criteria"`
}

// ErrUnusablePlan marks planner output that parsed but cannot be used.
var ErrUnusablePlan = errors.New("unusable plan")

// Validate checks the minimum a sprint needs.
func (p *Plan) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Title) == "" {
		problems = append(problems, "missing title")
	}
	if p.TotalEstimatedHours <= 0 {
		problems = append(problems, "total_estimated_hours must be positive")
	}
	switch p.DifficultyLabel {
	case LabelBeginner, LabelIntermediate, LabelAdvanced:
	default:
		problems = append(problems, fmt.Sprintf("unknown difficulty label %q", p.DifficultyLabel))
	}
	if len(p.Tasks) == 0 {
		problems = append(problems, "no tasks")
	}
	for i, t := range p.Tasks {
		if len(t.CompletionCriteria) == 0 {
			problems = append(problems, fmt.Sprintf("task %d has no completion criteria", i+1))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrUnusablePlan, strings.Join(problems, "; "))
	}
	return nil
}

// LabelForDifficulty maps a 1-5 difficulty step to a label.
func LabelForDifficulty(d int) string {
	switch {
	case d <= 2:
		return LabelBeginner
	case d == 3:
		return LabelIntermediate
	default:
		return LabelAdvanced
	}
}
