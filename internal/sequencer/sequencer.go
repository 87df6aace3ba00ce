// Package sequencer produces an objective's day-by-day sprints: one at a
// time, in batches, or as a rolling look-ahead buffer.
package sequencer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/fault"
	"github.com/abhisek/pathwise/internal/lock"
	"github.com/abhisek/pathwise/internal/metrics"
	"github.com/abhisek/pathwise/internal/notify"
	"github.com/abhisek/pathwise/internal/performance"
	"github.com/abhisek/pathwise/internal/planner"
	"github.com/abhisek/pathwise/internal/store"
	"github.com/abhisek/pathwise/internal/tracing"
)

const (
	// MaxBatch bounds GenerateSprintBatch.
	MaxBatch = 10

	continuityWindow = 3
)

// Repos are the stores the sequencer reads and writes.
type Repos struct {
	Objectives store.ObjectiveRepo
	Sprints    store.SprintRepo
	Profiles   store.ProfileRepo
	Milestones store.MilestoneRepo
}

type Sequencer struct {
	repos    Repos
	planner  planner.Planner
	locks    lock.Locker
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger

	now func() time.Time
}

// New creates a Sequencer. A nil locker serializes within this process only.
func New(repos Repos, p planner.Planner, locker lock.Locker, n notify.Notifier, m *metrics.Metrics, logger *zap.Logger) *Sequencer {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if n == nil {
		n = notify.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{
		repos:    repos,
		planner:  p,
		locks:    locker,
		notifier: n,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

type generateOptions struct {
	day           int
	reviewSkills  []string
	autoGenerated bool
}

// GenerateOption tunes a single generation.
type GenerateOption func(*generateOptions)

// WithDay generates the given day instead of the one after the last sprint.
func WithDay(day int) GenerateOption {
	return func(o *generateOptions) { o.day = day }
}

// WithReviewSkills makes the sprint a review sprint for skillIDs.
func WithReviewSkills(skillIDs ...string) GenerateOption {
	return func(o *generateOptions) { o.reviewSkills = skillIDs }
}

// WithAutoGenerated marks the sprint as produced without a learner request.
func WithAutoGenerated() GenerateOption {
	return func(o *generateOptions) { o.autoGenerated = true }
}

// GenerateNextSprint returns the sprint for the next day of the objective,
// planning and storing it first if it does not exist yet. Calling it again
// for a day that already has a sprint returns that sprint unchanged.
func (s *Sequencer) GenerateNextSprint(ctx context.Context, objectiveID, userID string, opts ...GenerateOption) (_ *store.Sprint, err error) {
	var o generateOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.day < 0 {
		return nil, fault.Invalid("day must be positive, got %d", o.day)
	}

	ctx, span := tracing.Tracer().Start(ctx, "sequencer.GenerateNextSprint")
	span.SetAttributes(attribute.String("objective_id", objectiveID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	unlock, err := s.locks.Lock(ctx, "objective:"+objectiveID)
	if err != nil {
		return nil, fmt.Errorf("lock objective %s: %w", objectiveID, err)
	}
	defer unlock()

	obj, err := s.repos.Objectives.Get(ctx, objectiveID)
	if err != nil {
		return nil, err
	}
	if userID != "" && obj.UserID != userID {
		return nil, fault.NotFound("objective", objectiveID)
	}

	day := o.day
	if day == 0 {
		last, err := s.repos.Sprints.Last(ctx, objectiveID)
		if err != nil {
			return nil, fmt.Errorf("load last sprint: %w", err)
		}
		day = 1
		if last != nil {
			day = last.DayNumber + 1
		}
	}
	span.SetAttributes(attribute.Int("day", day))

	existing, err := s.repos.Sprints.GetByDay(ctx, objectiveID, day)
	if err != nil {
		return nil, fmt.Errorf("load sprint day %d: %w", day, err)
	}
	if existing != nil {
		return existing, nil
	}

	profile, err := s.repos.Profiles.Get(ctx, obj.UserID)
	if err != nil {
		return nil, fmt.Errorf("load learner profile: %w", err)
	}
	if profile == nil {
		return nil, fault.Invalid("learner %s has no profile", obj.UserID)
	}

	in := plannerInput{objective: obj, profile: profile, day: day}
	if in.previous, err = s.repos.Sprints.Recent(ctx, objectiveID, day, continuityWindow); err != nil {
		return nil, fmt.Errorf("load previous sprints: %w", err)
	}
	if s.repos.Milestones != nil {
		if in.milestone, err = s.repos.Milestones.NextIncomplete(ctx, objectiveID); err != nil {
			return nil, fmt.Errorf("load next milestone: %w", err)
		}
	}
	completed, err := s.repos.Sprints.RecentCompleted(ctx, objectiveID, performance.DefaultWindow)
	if err != nil {
		return nil, fmt.Errorf("load completed sprints: %w", err)
	}
	if len(completed) > 0 {
		scores := make([]float64, 0, len(completed))
		for _, c := range completed {
			if c.Score != nil {
				scores = append(scores, *c.Score)
			}
		}
		a := performance.Analyze(scores)
		in.analysis = &a
	}
	if len(o.reviewSkills) > 0 {
		in.review = &planner.ReviewFocus{SkillIDs: o.reviewSkills, Reason: "due for spaced-repetition review"}
	}

	pc := buildContext(in)
	mode := obj.GenerationMode

	started := s.now()
	plan, err := s.planner.GeneratePlan(ctx, pc)
	if err != nil {
		s.metrics.GenerationFailed("planner")
		s.logger.Error("sprint generation failed",
			zap.String("objective_id", objectiveID),
			zap.Int("day", day),
			zap.Error(err),
		)
		notify.Emit(ctx, s.notifier, s.logger, notify.Event{
			Type:        notify.GenerationFailed,
			Title:       "Sprint generation failed",
			Message:     fmt.Sprintf("Day %d of %s could not be generated.", day, obj.Title),
			UserID:      obj.UserID,
			ObjectiveID: objectiveID,
			Data:        map[string]string{"day": fmt.Sprint(day)},
		})
		return nil, &fault.GenerationError{ObjectiveID: objectiveID, Day: day, Err: err}
	}

	body, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	sprint := store.Sprint{
		ID:              uuid.NewString(),
		ObjectiveID:     objectiveID,
		UserID:          obj.UserID,
		DayNumber:       day,
		Title:           plan.Title,
		Status:          store.SprintGenerated,
		IsAutoGenerated: o.autoGenerated,
		IsReview:        len(o.reviewSkills) > 0,
		ReviewSkillIDs:  o.reviewSkills,
		Deliverables:    plan.Deliverables,
		EstimatedHours:  plan.TotalEstimatedHours,
		DifficultyLabel: plan.DifficultyLabel,
		Plan:            body,
		ContextVersion:  pc.Version,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.repos.Sprints.CreateNext(ctx, sprint); err != nil {
		if !errors.Is(err, store.ErrConflict) {
			s.metrics.GenerationFailed("persist")
			return nil, fmt.Errorf("save sprint day %d: %w", day, err)
		}
		// Another process stored this day first.
		winner, gerr := s.repos.Sprints.GetByDay(ctx, objectiveID, day)
		if gerr != nil {
			return nil, fmt.Errorf("load conflicting sprint day %d: %w", day, gerr)
		}
		if winner == nil {
			return nil, fmt.Errorf("save sprint day %d: %w", day, err)
		}
		return winner, nil
	}

	s.metrics.SprintGenerated(mode, sprint.IsReview, s.now().Sub(started), plan.Source)
	s.logger.Info("sprint generated",
		zap.String("objective_id", objectiveID),
		zap.String("sprint_id", sprint.ID),
		zap.Int("day", day),
		zap.Bool("review", sprint.IsReview),
		zap.String("planner", plan.Source),
	)
	notify.Emit(ctx, s.notifier, s.logger, notify.Event{
		Type:        notify.SprintGenerated,
		Title:       fmt.Sprintf("Day %d is ready", day),
		Message:     sprint.Title,
		UserID:      obj.UserID,
		ObjectiveID: objectiveID,
		Data: map[string]string{
			"sprint_id": sprint.ID,
			"day":       fmt.Sprint(day),
		},
	})

	return s.repos.Sprints.Get(ctx, sprint.ID)
}

// GenerateSprintBatch generates count consecutive days starting at startDay,
// one after another. It stops at the first failure or cancellation and
// returns the sprints produced so far along with the error.
func (s *Sequencer) GenerateSprintBatch(ctx context.Context, objectiveID, userID string, startDay, count int, opts ...GenerateOption) ([]store.Sprint, error) {
	if count < 1 || count > MaxBatch {
		return nil, fault.Invalid("batch count must be between 1 and %d, got %d", MaxBatch, count)
	}
	if startDay < 1 {
		return nil, fault.Invalid("start day must be at least 1, got %d", startDay)
	}

	out := make([]store.Sprint, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		dayOpts := append(append([]GenerateOption{}, opts...), WithDay(startDay+i))
		sp, err := s.GenerateNextSprint(ctx, objectiveID, userID, dayOpts...)
		if err != nil {
			return out, err
		}
		out = append(out, *sp)
	}
	return out, nil
}

// Next is the outcome of ShouldGenerateNext.
type Next struct {
	Should  bool
	NextDay int
	Reason  string
}

// ShouldGenerateNext reports whether completing currentSprintID should be
// followed by generating another day. An empty currentSprintID asks about
// the day after the last generated one.
func (s *Sequencer) ShouldGenerateNext(ctx context.Context, objectiveID, currentSprintID string) (Next, error) {
	obj, err := s.repos.Objectives.Get(ctx, objectiveID)
	if err != nil {
		return Next{}, err
	}
	var cur *store.Sprint
	if currentSprintID != "" {
		cur, err = s.repos.Sprints.Get(ctx, currentSprintID)
		if err != nil {
			return Next{}, err
		}
		if cur.ObjectiveID != objectiveID {
			return Next{}, fault.Invalid("sprint %s does not belong to objective %s", currentSprintID, objectiveID)
		}
	}

	if !obj.AutoGenerate {
		return Next{Reason: "auto-generation disabled"}, nil
	}
	if cur != nil && cur.Status != store.SprintCompleted {
		return Next{Reason: "current sprint not completed"}, nil
	}

	last, err := s.repos.Sprints.Last(ctx, objectiveID)
	if err != nil {
		return Next{}, fmt.Errorf("load last sprint: %w", err)
	}
	next := 1
	if cur != nil {
		next = cur.DayNumber + 1
	}
	if last != nil && last.DayNumber >= next {
		next = last.DayNumber + 1
	}
	if next > obj.EstimatedTotalDays {
		return Next{Reason: "objective has reached its estimated length"}, nil
	}
	return Next{Should: true, NextDay: next, Reason: "next day due"}, nil
}

// BufferResult reports what one MaintainSprintBuffer pass did.
type BufferResult struct {
	Buffer    int
	Requested int
	Generated []store.Sprint
	Reason    string
}

// MaintainSprintBuffer keeps enough generated-but-uncompleted days ahead of
// the learner for the objective's mode. It never requests more than the
// mode's batch size or past the objective's estimated length.
func (s *Sequencer) MaintainSprintBuffer(ctx context.Context, objectiveID string) (BufferResult, error) {
	obj, err := s.repos.Objectives.Get(ctx, objectiveID)
	if err != nil {
		return BufferResult{}, err
	}
	if !obj.AutoGenerate {
		s.metrics.BufferRun("skipped")
		return BufferResult{Reason: "auto-generation disabled"}, nil
	}

	last, err := s.repos.Sprints.Last(ctx, objectiveID)
	if err != nil {
		s.metrics.BufferRun("error")
		s.logger.Error("buffer maintenance abandoned", zap.String("objective_id", objectiveID), zap.Error(err))
		return BufferResult{}, fmt.Errorf("load last sprint: %w", err)
	}
	lastDay := 0
	if last != nil {
		lastDay = last.DayNumber
	}

	cfg := ConfigFor(obj.GenerationMode)
	res := BufferResult{Buffer: lastDay - obj.CompletedDays}
	if res.Buffer >= cfg.MinDaysBuffer {
		res.Reason = "buffer sufficient"
		s.metrics.BufferRun("skipped")
		return res, nil
	}

	want := min(cfg.LookaheadDays-res.Buffer, cfg.BatchSize, obj.EstimatedTotalDays-lastDay)
	if want <= 0 {
		res.Reason = "objective has reached its estimated length"
		s.metrics.BufferRun("skipped")
		return res, nil
	}
	res.Requested = want

	res.Generated, err = s.GenerateSprintBatch(ctx, objectiveID, obj.UserID, lastDay+1, want, WithAutoGenerated())
	if err != nil {
		res.Reason = "generation failed"
		s.metrics.BufferRun("error")
		s.logger.Error("buffer maintenance abandoned",
			zap.String("objective_id", objectiveID),
			zap.Int("requested", want),
			zap.Int("generated", len(res.Generated)),
			zap.Error(err),
		)
		return res, err
	}

	res.Reason = fmt.Sprintf("generated %d day(s)", len(res.Generated))
	s.metrics.BufferRun("generated")
	s.logger.Info("sprint buffer topped up",
		zap.String("objective_id", objectiveID),
		zap.Int("buffer", res.Buffer),
		zap.Int("generated", len(res.Generated)),
	)
	return res, nil
}

// StartSprint moves a generated sprint to in_progress.
func (s *Sequencer) StartSprint(ctx context.Context, sprintID string) (*store.Sprint, error) {
	if err := s.repos.Sprints.Start(ctx, sprintID, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.repos.Sprints.Get(ctx, sprintID)
}

// CompleteSprint marks a sprint completed with its post-sprint score and
// reflection. score may be nil when no quiz was taken.
func (s *Sequencer) CompleteSprint(ctx context.Context, sprintID string, score *float64, reflection string) (*store.Sprint, error) {
	if score != nil && (*score < 0 || *score > 100) {
		return nil, fault.Invalid("score must be within [0, 100], got %.2f", *score)
	}
	if err := s.repos.Sprints.Complete(ctx, sprintID, score, reflection, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.repos.Sprints.Get(ctx, sprintID)
}
