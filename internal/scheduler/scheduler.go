// Package scheduler runs sprint buffer maintenance on a timer.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/sequencer"
	"github.com/abhisek/pathwise/internal/store"
)

// DefaultInterval is how often every auto-generating objective is checked.
const DefaultInterval = 15 * time.Minute

// BufferMaintainer tops up one objective's sprint buffer.
type BufferMaintainer interface {
	MaintainSprintBuffer(ctx context.Context, objectiveID string) (sequencer.BufferResult, error)
}

// Summary reports one pass over all objectives.
type Summary struct {
	Objectives int
	Generated  int
	Failed     int
}

// Runner walks auto-generating objectives and keeps their buffers filled.
type Runner struct {
	cron       *gocron.Scheduler
	objectives store.ObjectiveRepo
	buffer     BufferMaintainer
	interval   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	running bool
}

func New(objectives store.ObjectiveRepo, buffer BufferMaintainer, interval time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		cron:       gocron.NewScheduler(time.UTC),
		objectives: objectives,
		buffer:     buffer,
		interval:   interval,
		logger:     logger,
	}
}

// RunOnce maintains the buffer of every auto-generating objective. A failing
// objective is logged and skipped.
func (r *Runner) RunOnce(ctx context.Context) (Summary, error) {
	objs, err := r.objectives.ListAutoGenerating(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list objectives: %w", err)
	}

	var sum Summary
	for _, obj := range objs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Objectives++
		res, err := r.buffer.MaintainSprintBuffer(ctx, obj.ID)
		sum.Generated += len(res.Generated)
		if err != nil {
			sum.Failed++
			r.logger.Warn("buffer maintenance failed",
				zap.String("objective_id", obj.ID),
				zap.Error(err),
			)
		}
	}

	r.logger.Info("buffer pass finished",
		zap.Int("objectives", sum.Objectives),
		zap.Int("generated", sum.Generated),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

// Start schedules RunOnce every interval, beginning immediately. Passes never
// overlap. ctx bounds every pass; Stop ends the schedule.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	_, err := r.cron.Every(r.interval).SingletonMode().Do(func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("buffer pass aborted", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule buffer maintenance: %w", err)
	}

	r.cron.StartAsync()
	r.running = true
	r.logger.Info("buffer maintenance scheduled", zap.Duration("interval", r.interval))
	return nil
}

func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.cron.Stop()
	r.running = false
}
