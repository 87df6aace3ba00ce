// Package mastery tracks per-learner, per-skill mastery levels.
package mastery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/lock"
	"github.com/abhisek/pathwise/internal/metrics"
	"github.com/abhisek/pathwise/internal/notify"
	"github.com/abhisek/pathwise/internal/store"
)

// Service applies assessment evidence to stored mastery records. Updates to
// the same (user, skill) pair are serialized; other pairs run concurrently.
type Service struct {
	repo     store.UserSkillRepo
	skills   store.SkillRepo
	locks    lock.Locker
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger

	// HysteresisBand starts at DefaultHysteresisBand.
	HysteresisBand float64

	now func() time.Time
}

// NewService creates a mastery service. skills is optional and only used to
// put skill names into notifications. A nil locker serializes within this
// process only.
func NewService(repo store.UserSkillRepo, skills store.SkillRepo, locker lock.Locker, n notify.Notifier, m *metrics.Metrics, logger *zap.Logger) *Service {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = notify.Nop{}
	}
	return &Service{
		repo:           repo,
		skills:         skills,
		locks:          locker,
		notifier:       n,
		metrics:        m,
		logger:         logger,
		HysteresisBand: DefaultHysteresisBand,
		now:            time.Now,
	}
}

// UpdateSkill folds observed into the learner's level for skillID. It is not
// idempotent: call it exactly once per piece of evidence.
func (s *Service) UpdateSkill(ctx context.Context, userID, skillID string, observed float64) (Update, error) {
	unlock, err := s.locks.Lock(ctx, "skill:"+userID+":"+skillID)
	if err != nil {
		return Update{}, err
	}
	defer unlock()

	cur, err := s.repo.Get(ctx, userID, skillID)
	if err != nil {
		return Update{}, fmt.Errorf("load mastery for %s: %w", skillID, err)
	}

	rec := store.UserSkill{UserID: userID, SkillID: skillID, Status: string(StatusNotStarted)}
	if cur != nil {
		rec = *cur
	}

	u := Apply(rec.Level, Status(rec.Status), observed, s.HysteresisBand)
	u.UserID, u.SkillID = userID, skillID
	u.FirstAssessment = cur == nil || rec.AssessmentCount == 0

	now := s.now().UTC()
	rec.PreviousLevel = u.PreviousLevel
	rec.Level = u.NewLevel
	rec.Status = string(u.NewStatus)
	rec.AssessmentCount++
	rec.LastAssessedAt = &now
	rec.UpdatedAt = now
	if err := s.repo.Save(ctx, rec); err != nil {
		return Update{}, fmt.Errorf("save mastery for %s: %w", skillID, err)
	}

	if u.StatusChanged {
		s.metrics.SkillTransitioned(string(u.NewStatus))
		s.logger.Info("skill status changed",
			zap.String("user_id", userID),
			zap.String("skill_id", skillID),
			zap.String("from", string(u.PreviousStatus)),
			zap.String("to", string(u.NewStatus)),
			zap.Float64("level", u.NewLevel),
		)
	}
	if u.MasteredNow {
		notify.Emit(ctx, s.notifier, s.logger, notify.Event{
			Type:    notify.SkillMastered,
			Title:   "Skill mastered",
			Message: fmt.Sprintf("You have mastered %s.", s.skillName(ctx, skillID)),
			UserID:  userID,
			Data: map[string]string{
				"skill_id": skillID,
				"level":    fmt.Sprintf("%.1f", u.NewLevel),
			},
		})
	}
	return u, nil
}

// Levels returns the learner's current records for skillIDs keyed by skill.
// Skills never assessed are absent.
func (s *Service) Levels(ctx context.Context, userID string, skillIDs []string) (map[string]store.UserSkill, error) {
	recs, err := s.repo.List(ctx, userID, skillIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]store.UserSkill, len(recs))
	for _, r := range recs {
		out[r.SkillID] = r
	}
	return out, nil
}

func (s *Service) skillName(ctx context.Context, skillID string) string {
	if s.skills == nil {
		return skillID
	}
	sk, err := s.skills.Get(ctx, skillID)
	if err != nil || sk.Name == "" {
		return skillID
	}
	return sk.Name
}
