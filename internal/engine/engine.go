// Package engine runs the sprint-completion flow: grade the post-sprint quiz,
// update mastery and review schedules, judge pace, then line up what comes
// next.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/fault"
	"github.com/abhisek/pathwise/internal/grading"
	"github.com/abhisek/pathwise/internal/lock"
	"github.com/abhisek/pathwise/internal/mastery"
	"github.com/abhisek/pathwise/internal/metrics"
	"github.com/abhisek/pathwise/internal/notify"
	"github.com/abhisek/pathwise/internal/performance"
	"github.com/abhisek/pathwise/internal/planner"
	"github.com/abhisek/pathwise/internal/quiz"
	"github.com/abhisek/pathwise/internal/sequencer"
	"github.com/abhisek/pathwise/internal/spacedrep"
	"github.com/abhisek/pathwise/internal/store"
	"github.com/abhisek/pathwise/internal/tracing"
)

// Engine wires the progression components together. The components are
// exported so callers can use them individually.
type Engine struct {
	Quizzes     *quiz.Service
	Mastery     *mastery.Service
	Reviews     *spacedrep.Scheduler
	Performance *performance.Analyzer
	Sequencer   *sequencer.Sequencer

	objectives store.ObjectiveRepo
	sprints    store.SprintRepo
	quizzes    store.QuizRepo
	logger     *zap.Logger
}

// Options carries the collaborators shared by every component.
type Options struct {
	Planner  planner.Planner
	Locker   lock.Locker
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// New builds an Engine over st.
func New(st *store.Store, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	n := opts.Notifier
	if n == nil {
		n = notify.Nop{}
	}
	p := opts.Planner
	if p == nil {
		p = planner.NewHeuristicPlanner()
	}

	return &Engine{
		Quizzes:     quiz.NewService(st.QuizRepo(), st.AttemptRepo(), opts.Metrics, logger.Named("quiz")),
		Mastery:     mastery.NewService(st.UserSkillRepo(), st.SkillRepo(), opts.Locker, n, opts.Metrics, logger.Named("mastery")),
		Reviews:     spacedrep.NewScheduler(st.ReviewRepo(), st.UserSkillRepo(), st.ObjectiveRepo(), opts.Locker, n, logger.Named("spacedrep")),
		Performance: performance.NewAnalyzer(st.ObjectiveRepo(), st.SprintRepo(), n, logger.Named("performance")),
		Sequencer: sequencer.New(sequencer.Repos{
			Objectives: st.ObjectiveRepo(),
			Sprints:    st.SprintRepo(),
			Profiles:   st.ProfileRepo(),
			Milestones: st.MilestoneRepo(),
		}, p, opts.Locker, n, opts.Metrics, logger.Named("sequencer")),
		objectives: st.ObjectiveRepo(),
		sprints:    st.SprintRepo(),
		quizzes:    st.QuizRepo(),
		logger:     logger,
	}
}

// CompletionRequest is a learner finishing a sprint. QuizID may be empty
// when the sprint had no post-sprint quiz.
type CompletionRequest struct {
	SprintID   string
	UserID     string
	QuizID     string
	Answers    map[string]grading.Answer
	Elapsed    time.Duration
	Reflection string
}

// Outcome summarizes every step of a completion. Failures after the sprint
// was marked completed do not undo it; they are reported in GenerationErr
// and BufferErr.
type Outcome struct {
	Sprint       *store.Sprint
	Attempt      *quiz.Attempt
	SkillUpdates []mastery.Update
	Review       spacedrep.Decision
	// PendingReview is the uncompleted review sprint that already covers
	// every due skill, when one exists; no new review is inserted then.
	PendingReview *store.Sprint
	Analysis      performance.Analysis
	Adjustment    performance.Adjustment

	// NextSprint is the review or next-day sprint generated in response,
	// if any.
	NextSprint    *store.Sprint
	GenerationErr error

	Buffer    sequencer.BufferResult
	BufferErr error
}

// CompleteSprint records the learner's quiz attempt and completion, then
// reacts to it.
func (e *Engine) CompleteSprint(ctx context.Context, req CompletionRequest) (_ *Outcome, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "engine.CompleteSprint")
	span.SetAttributes(attribute.String("sprint_id", req.SprintID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	sprint, err := e.sprints.Get(ctx, req.SprintID)
	if err != nil {
		return nil, err
	}
	if req.UserID != "" && sprint.UserID != req.UserID {
		return nil, fault.NotFound("sprint", req.SprintID)
	}
	if sprint.Status == store.SprintCompleted {
		return nil, fault.Invalid("sprint %s is already completed", req.SprintID)
	}
	obj, err := e.objectives.Get(ctx, sprint.ObjectiveID)
	if err != nil {
		return nil, err
	}
	userID := sprint.UserID
	day := sprint.DayNumber

	out := &Outcome{}
	var score *float64
	if req.QuizID != "" {
		q, err := e.quizzes.Get(ctx, req.QuizID)
		if err != nil {
			return nil, err
		}
		if q.SprintID != "" && q.SprintID != sprint.ID {
			return nil, fault.Invalid("quiz %s belongs to sprint %s", q.ID, q.SprintID)
		}

		out.Attempt, err = e.Quizzes.Submit(ctx, req.QuizID, userID, req.Answers, req.Elapsed)
		if err != nil {
			return nil, err
		}
		s := out.Attempt.Score
		score = &s

		reviewQuiz := out.Attempt.QuizType == quiz.Review || sprint.IsReview
		if out.SkillUpdates, err = e.applySkillScores(ctx, userID, day, out.Attempt.SkillScores, reviewQuiz); err != nil {
			return nil, err
		}
	}

	if out.Sprint, err = e.Sequencer.CompleteSprint(ctx, sprint.ID, score, req.Reflection); err != nil {
		return nil, err
	}

	if out.Review, err = e.Reviews.ShouldInsertReviewSprint(ctx, obj.ID, userID, day); err != nil {
		return nil, err
	}
	if out.Analysis, err = e.Performance.AnalyzePerformance(ctx, userID, obj.ID, performance.DefaultWindow); err != nil {
		return nil, err
	}
	if out.Adjustment, err = e.Performance.RecalibrateLearningPath(ctx, obj.ID, out.Analysis); err != nil {
		return nil, err
	}

	var reviewSkills []string
	if out.Review.ShouldInsert {
		if reviewSkills, out.PendingReview, err = e.uncoveredReviewSkills(ctx, obj.ID, out.Review.SkillsToReview); err != nil {
			return nil, err
		}
	}

	switch {
	case len(reviewSkills) > 0:
		out.NextSprint, out.GenerationErr = e.Sequencer.GenerateNextSprint(ctx, obj.ID, userID,
			sequencer.WithReviewSkills(reviewSkills...), sequencer.WithAutoGenerated())
	case sequencer.ConfigFor(obj.GenerationMode).GenerateOnCompletion:
		next, err := e.Sequencer.ShouldGenerateNext(ctx, obj.ID, sprint.ID)
		if err != nil {
			return nil, err
		}
		if next.Should {
			out.NextSprint, out.GenerationErr = e.Sequencer.GenerateNextSprint(ctx, obj.ID, userID,
				sequencer.WithDay(next.NextDay), sequencer.WithAutoGenerated())
		}
	}
	if out.GenerationErr != nil {
		e.logger.Warn("follow-up sprint not generated",
			zap.String("objective_id", obj.ID),
			zap.String("sprint_id", sprint.ID),
			zap.Error(out.GenerationErr),
		)
	}

	out.Buffer, out.BufferErr = e.Sequencer.MaintainSprintBuffer(ctx, obj.ID)

	e.logger.Info("sprint completed",
		zap.String("objective_id", obj.ID),
		zap.String("sprint_id", sprint.ID),
		zap.Int("day", day),
		zap.Int("skills_updated", len(out.SkillUpdates)),
		zap.Bool("review_inserted", len(reviewSkills) > 0 && out.NextSprint != nil),
		zap.String("pacing", string(out.Adjustment.Action)),
	)
	return out, nil
}

// uncoveredReviewSkills drops skills an uncompleted review sprint already
// targets. When all are covered it also returns the earliest such sprint.
func (e *Engine) uncoveredReviewSkills(ctx context.Context, objectiveID string, due []string) ([]string, *store.Sprint, error) {
	pending, err := e.sprints.PendingReviews(ctx, objectiveID)
	if err != nil {
		return nil, nil, fmt.Errorf("load pending reviews: %w", err)
	}
	covered := make(map[string]bool)
	for _, sp := range pending {
		for _, id := range sp.ReviewSkillIDs {
			covered[id] = true
		}
	}
	var rest []string
	for _, id := range due {
		if !covered[id] {
			rest = append(rest, id)
		}
	}
	if len(rest) == 0 && len(pending) > 0 {
		return nil, &pending[0], nil
	}
	return rest, nil, nil
}

// applySkillScores folds per-skill quiz scores into mastery, schedules a
// first review for newly assessed skills and advances existing schedules
// when the quiz was a review.
func (e *Engine) applySkillScores(ctx context.Context, userID string, day int, scores map[string]float64, review bool) ([]mastery.Update, error) {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	updates := make([]mastery.Update, 0, len(ids))
	for _, id := range ids {
		u, err := e.Mastery.UpdateSkill(ctx, userID, id, scores[id])
		if err != nil {
			return updates, err
		}
		updates = append(updates, u)

		if u.FirstAssessment {
			if _, err := e.Reviews.ScheduleSkillReview(ctx, userID, id, u.NewLevel, day); err != nil {
				return updates, fmt.Errorf("schedule review for %s: %w", id, err)
			}
			continue
		}
		if review {
			_, err := e.Reviews.UpdateReviewSchedule(ctx, userID, id, scores[id], day)
			if err != nil && !errors.Is(err, fault.ErrNotFound) {
				return updates, fmt.Errorf("update review for %s: %w", id, err)
			}
		}
	}
	return updates, nil
}
