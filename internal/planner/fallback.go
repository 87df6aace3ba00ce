package planner

import (
	"context"

	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/llm"
	"github.com/abhisek/pathwise/internal/metrics"
)

// FallbackPlanner uses fallback when primary cannot be reached. Output that
// arrived but was unusable is returned as an error, not papered over.
type FallbackPlanner struct {
	primary  Planner
	fallback Planner
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewFallbackPlanner(primary, fallback Planner, m *metrics.Metrics, logger *zap.Logger) *FallbackPlanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackPlanner{primary: primary, fallback: fallback, metrics: m, logger: logger}
}

func (f *FallbackPlanner) GeneratePlan(ctx context.Context, pc Context) (*Plan, error) {
	plan, err := f.primary.GeneratePlan(ctx, pc)
	if err == nil {
		return plan, nil
	}
	// A cancelled caller gets its error back; only the planner's own
	// deadline or an unreachable provider falls back.
	if ctx.Err() != nil || !llm.IsUnavailable(err) {
		return nil, err
	}

	f.logger.Warn("planner unavailable, using heuristic",
		zap.String("objective_id", pc.Objective.ID),
		zap.Int("day", pc.Day),
		zap.Error(err),
	)
	f.metrics.PlannerFellBack()
	return f.fallback.GeneratePlan(ctx, pc)
}

// New picks the planner for a process: heuristic only when there is no
// provider or cfg.Heuristic is set, else the LLM planner with a heuristic
// fallback.
func New(provider llm.Provider, cfg Config, m *metrics.Metrics, logger *zap.Logger) Planner {
	heuristic := NewHeuristicPlanner()
	if provider == nil || cfg.Heuristic {
		return heuristic
	}
	return NewFallbackPlanner(NewLLMPlanner(provider, cfg), heuristic, m, logger)
}
