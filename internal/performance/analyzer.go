package performance

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/fault"
	"github.com/abhisek/pathwise/internal/notify"
	"github.com/abhisek/pathwise/internal/store"
)

// Analyzer reads sprint history and persists pacing changes.
type Analyzer struct {
	objectives store.ObjectiveRepo
	sprints    store.SprintRepo
	notifier   notify.Notifier
	logger     *zap.Logger
}

func NewAnalyzer(objectives store.ObjectiveRepo, sprints store.SprintRepo, n notify.Notifier, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = notify.Nop{}
	}
	return &Analyzer{objectives: objectives, sprints: sprints, notifier: n, logger: logger}
}

// AnalyzePerformance analyzes the scores of the last n completed sprints of
// the objective. n <= 0 uses DefaultWindow.
func (a *Analyzer) AnalyzePerformance(ctx context.Context, userID, objectiveID string, n int) (Analysis, error) {
	if n <= 0 {
		n = DefaultWindow
	}
	obj, err := a.objectives.Get(ctx, objectiveID)
	if err != nil {
		return Analysis{}, err
	}
	if userID != "" && obj.UserID != userID {
		return Analysis{}, fault.NotFound("objective", objectiveID)
	}
	sprints, err := a.sprints.RecentCompleted(ctx, objectiveID, n)
	if err != nil {
		return Analysis{}, fmt.Errorf("load completed sprints: %w", err)
	}

	scores := make([]float64, 0, len(sprints))
	for _, s := range sprints {
		if s.Score != nil {
			scores = append(scores, *s.Score)
		}
	}
	return Analyze(scores), nil
}

// RecalibrateLearningPath applies Recalibrate to the objective's stored
// pacing and saves the result when it changes.
func (a *Analyzer) RecalibrateLearningPath(ctx context.Context, objectiveID string, analysis Analysis) (Adjustment, error) {
	obj, err := a.objectives.Get(ctx, objectiveID)
	if err != nil {
		return Adjustment{}, err
	}

	adj := Recalibrate(analysis, Pacing{Difficulty: obj.Difficulty, Velocity: obj.Velocity})
	if !adj.ShouldAdjust {
		return adj, nil
	}
	if err := a.objectives.UpdatePacing(ctx, objectiveID, adj.Next.Difficulty, adj.Next.Velocity); err != nil {
		return Adjustment{}, fmt.Errorf("save pacing: %w", err)
	}

	a.logger.Info("pacing recalibrated",
		zap.String("objective_id", objectiveID),
		zap.String("action", string(adj.Action)),
		zap.Int("difficulty", adj.Next.Difficulty),
		zap.Float64("velocity", adj.Next.Velocity),
	)

	ev := notify.Event{
		Type:        notify.DifficultyIncreased,
		Title:       "Leveling up",
		Message:     adj.Reasoning,
		UserID:      obj.UserID,
		ObjectiveID: objectiveID,
		Data: map[string]string{
			"difficulty": fmt.Sprint(adj.Next.Difficulty),
			"velocity":   fmt.Sprintf("%.1f", adj.Next.Velocity),
		},
	}
	if adj.Action == ActionDecrease {
		ev.Type = notify.DifficultyDecreased
		ev.Title = "Adjusting your pace"
	}
	notify.Emit(ctx, a.notifier, a.logger, ev)
	return adj, nil
}
