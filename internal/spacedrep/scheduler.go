// Package spacedrep schedules skill reviews at growing intervals and decides
// when an objective needs a dedicated review sprint.
package spacedrep

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/fault"
	"github.com/abhisek/pathwise/internal/lock"
	"github.com/abhisek/pathwise/internal/mastery"
	"github.com/abhisek/pathwise/internal/notify"
	"github.com/abhisek/pathwise/internal/store"
)

// Decision answers whether a review sprint should be inserted.
type Decision struct {
	ShouldInsert   bool
	Reason         string
	SkillsToReview []string
}

// Scheduler owns every learner's review schedules.
type Scheduler struct {
	reviews    store.ReviewRepo
	userSkills store.UserSkillRepo
	objectives store.ObjectiveRepo
	notifier   notify.Notifier
	logger     *zap.Logger
	locks      lock.Locker
	params     Params
	now        func() time.Time
}

// NewScheduler creates a Scheduler. A nil locker serializes within this
// process only.
func NewScheduler(reviews store.ReviewRepo, userSkills store.UserSkillRepo, objectives store.ObjectiveRepo, locker lock.Locker, n notify.Notifier, logger *zap.Logger) *Scheduler {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = notify.Nop{}
	}
	return &Scheduler{
		reviews:    reviews,
		userSkills: userSkills,
		objectives: objectives,
		notifier:   n,
		logger:     logger,
		locks:      locker,
		params:     DefaultParams(),
		now:        time.Now,
	}
}

// Params returns the tuning in effect.
func (s *Scheduler) Params() Params { return s.params }

// ScheduleSkillReview creates the learner's first review schedule for a
// skill, due the day after currentDay. An existing schedule is returned
// unchanged.
func (s *Scheduler) ScheduleSkillReview(ctx context.Context, userID, skillID string, initialLevel float64, currentDay int) (*store.ReviewSchedule, error) {
	unlock, err := s.locks.Lock(ctx, "review:"+userID+":"+skillID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if existing, err := s.reviews.Get(ctx, userID, skillID); err != nil {
		return nil, fmt.Errorf("load review schedule: %w", err)
	} else if existing != nil {
		return existing, nil
	}

	first := s.params.First()
	now := s.now().UTC()
	rs := store.ReviewSchedule{
		UserID:           userID,
		SkillID:          skillID,
		NextReviewDueDay: currentDay + first.IntervalDays,
		IntervalDays:     first.IntervalDays,
		EaseFactor:       first.EaseFactor,
		ReviewCount:      first.ReviewCount,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err = s.reviews.Create(ctx, rs)
	if errors.Is(err, store.ErrConflict) {
		return s.reviews.Get(ctx, userID, skillID)
	}
	if err != nil {
		return nil, fmt.Errorf("create review schedule: %w", err)
	}

	s.logger.Debug("review scheduled",
		zap.String("user_id", userID),
		zap.String("skill_id", skillID),
		zap.Float64("initial_level", initialLevel),
		zap.Int("due_day", rs.NextReviewDueDay),
	)
	return &rs, nil
}

// UpdateReviewSchedule applies one review result and moves the due day to
// currentDay plus the new interval.
func (s *Scheduler) UpdateReviewSchedule(ctx context.Context, userID, skillID string, reviewScore float64, currentDay int) (*store.ReviewSchedule, error) {
	unlock, err := s.locks.Lock(ctx, "review:"+userID+":"+skillID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rs, err := s.reviews.Get(ctx, userID, skillID)
	if err != nil {
		return nil, fmt.Errorf("load review schedule: %w", err)
	}
	if rs == nil {
		return nil, fault.NotFound("review schedule", userID+"/"+skillID)
	}

	next := Next(Step{IntervalDays: rs.IntervalDays, EaseFactor: rs.EaseFactor, ReviewCount: rs.ReviewCount}, reviewScore, s.params)
	rs.IntervalDays = next.IntervalDays
	rs.EaseFactor = next.EaseFactor
	rs.ReviewCount = next.ReviewCount
	rs.NextReviewDueDay = currentDay + next.IntervalDays
	rs.LastReviewScore = &reviewScore
	rs.UpdatedAt = s.now().UTC()

	if err := s.reviews.Save(ctx, *rs); err != nil {
		return nil, fmt.Errorf("save review schedule: %w", err)
	}
	return rs, nil
}

// ShouldInsertReviewSprint looks at the objective's skills that are due on
// currentDay and picks those not yet mastered or whose level is falling.
// Skills are ordered most overdue first.
func (s *Scheduler) ShouldInsertReviewSprint(ctx context.Context, objectiveID, userID string, currentDay int) (Decision, error) {
	obj, err := s.objectives.Get(ctx, objectiveID)
	if err != nil {
		return Decision{}, err
	}

	due, err := s.reviews.Due(ctx, userID, obj.SkillIDs, currentDay)
	if err != nil {
		return Decision{}, fmt.Errorf("load due reviews: %w", err)
	}
	if len(due) == 0 {
		return Decision{Reason: "no review needed"}, nil
	}

	ids := make([]string, len(due))
	for i, rs := range due {
		ids[i] = rs.SkillID
	}
	recs, err := s.userSkills.List(ctx, userID, ids)
	if err != nil {
		return Decision{}, fmt.Errorf("load skill levels: %w", err)
	}
	levels := make(map[string]store.UserSkill, len(recs))
	for _, r := range recs {
		levels[r.SkillID] = r
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].NextReviewDueDay != due[j].NextReviewDueDay {
			return due[i].NextReviewDueDay < due[j].NextReviewDueDay
		}
		return due[i].SkillID < due[j].SkillID
	})

	var skills []string
	for _, rs := range due {
		us, ok := levels[rs.SkillID]
		mastered := ok && mastery.Status(us.Status) == mastery.StatusMastered
		declining := ok && us.Level < us.PreviousLevel
		if !mastered || declining {
			skills = append(skills, rs.SkillID)
		}
	}
	if len(skills) == 0 {
		return Decision{Reason: "no review needed"}, nil
	}

	d := Decision{
		ShouldInsert:   true,
		Reason:         fmt.Sprintf("%d skill(s) due for review: %s", len(skills), strings.Join(skills, ", ")),
		SkillsToReview: skills,
	}
	notify.Emit(ctx, s.notifier, s.logger, notify.Event{
		Type:        notify.ReviewNeeded,
		Title:       "Time to review",
		Message:     d.Reason,
		UserID:      userID,
		ObjectiveID: objectiveID,
		Data: map[string]string{
			"skill_ids": strings.Join(skills, ","),
			"day":       fmt.Sprint(currentDay),
		},
	})
	return d, nil
}
