package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You are a curriculum planner writing one day ("sprint") of a self-paced learning objective.

Rules:
- Produce between 2 and 6 micro-tasks that fit the learner's daily time budget.
- Every task needs completion criteria the learner can verify alone: a program that runs, a test that passes, an answer that can be checked.
- Continue from the previous sprints. Never repeat a task or deliverable that was already done.
- Lean on the learner's strengths, spend extra time on their weaknesses, and use their interests for examples.
- When a review focus is given, the whole sprint revisits those skills with fresh exercises.
- Match the difficulty label to the objective's difficulty.`

// buildUserMessage renders the context as readable sections followed by the
// full JSON context.
func buildUserMessage(pc Context) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Objective: %s\n", pc.Objective.Title)
	if pc.Objective.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", pc.Objective.Description)
	}
	fmt.Fprintf(&b, "Day: %d of %d\n", pc.Day, pc.Objective.EstimatedTotalDays)
	fmt.Fprintf(&b, "Daily time budget: %d minutes\n", pc.Learner.DailyMinutes)

	b.WriteString("\nInstructions:\n")
	for _, in := range pc.Instructions {
		fmt.Fprintf(&b, "- %s\n", in)
	}

	raw, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal planner context: %w", err)
	}
	b.WriteString("\nContext:\n")
	b.Write(raw)
	return b.String(), nil
}
