// Package planner turns a sprint context into sprint content, either with an
// LLM or with a deterministic heuristic.
package planner

import (
	"context"
	"time"
)

// Planner produces the plan for one sprint.
type Planner interface {
	GeneratePlan(ctx context.Context, pc Context) (*Plan, error)
}

// Config controls the LLM planner.
type Config struct {
	// Timeout bounds one GeneratePlan call.
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	// Heuristic forces the heuristic planner even when an LLM is configured.
	Heuristic bool `mapstructure:"heuristic"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:     45 * time.Second,
		MaxTokens:   2048,
		Temperature: 0.4,
	}
}
