package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/pathwise/internal/llm"
)

// SourceLLM and SourceHeuristic identify which planner produced a Plan.
const (
	SourceLLM       = "llm"
	SourceHeuristic = "heuristic"
)

// LLMPlanner asks an LLM for a schema-constrained plan.
type LLMPlanner struct {
	provider llm.Provider
	config   Config
}

func NewLLMPlanner(provider llm.Provider, cfg Config) *LLMPlanner {
	return &LLMPlanner{provider: provider, config: cfg}
}

// GeneratePlan returns provider errors unchanged so callers can tell an
// unavailable provider (llm.IsUnavailable) from unusable output
// (ErrUnusablePlan).
func (p *LLMPlanner) GeneratePlan(ctx context.Context, pc Context) (*Plan, error) {
	if err := CheckVersion(pc.Version); err != nil {
		return nil, err
	}
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}
	ctx = llm.WithCall(ctx, llm.Call{Purpose: "sprint-plan", ObjectiveID: pc.Objective.ID, Day: pc.Day})

	userMsg, err := buildUserMessage(pc)
	if err != nil {
		return nil, err
	}
	resp, err := p.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:      PlanSchema,
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var plan Plan
	if err := json.Unmarshal(resp.Content, &plan); err != nil {
		return nil, fmt.Errorf("%w: parse LLM response: %v", ErrUnusablePlan, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	plan.Source = SourceLLM
	return &plan, nil
}
