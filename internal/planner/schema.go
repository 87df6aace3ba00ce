package planner

import "github.com/abhisek/pathwise/internal/llm"

// PlanSchema constrains LLM output to a Plan.
var PlanSchema = &llm.Schema{
	Name:        "sprint-plan",
	Description: "One day of learning content made of verifiable micro-tasks",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Short title for the day's sprint",
			},
			"summary": map[string]any{
				"type":        "string",
				"description": "Two or three sentences on what the learner will do and why it follows from the previous day",
			},
			"total_estimated_hours": map[string]any{
				"type":        "number",
				"description": "Total time the tasks take, in hours",
			},
			"difficulty_label": map[string]any{
				"type": "string",
				"enum": []any{LabelBeginner, LabelIntermediate, LabelAdvanced},
			},
			"tasks": map[string]any{
				"type":        "array",
				"description": "Ordered micro-tasks",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":             map[string]any{"type": "string"},
						"description":       map[string]any{"type": "string"},
						"estimated_minutes": map[string]any{"type": "integer"},
						"completion_criteria": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Checks the learner can verify on their own, e.g. a test that passes",
						},
					},
					"required":             []any{"title", "description", "estimated_minutes", "completion_criteria"},
					"additionalProperties": false,
				},
			},
			"deliverables": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Concrete artifacts produced by the end of the day",
			},
		},
		"required":             []any{"title", "summary", "total_estimated_hours", "difficulty_label", "tasks", "deliverables"},
		"additionalProperties": false,
	},
}
