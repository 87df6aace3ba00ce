package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/fault"
	"github.com/abhisek/pathwise/internal/grading"
	"github.com/abhisek/pathwise/internal/metrics"
	"github.com/abhisek/pathwise/internal/store"
)

// maxSubmitRetries bounds how often Submit re-reads the attempt count after
// losing an attempt-number race.
const maxSubmitRetries = 3

// Service records scored quiz attempts.
type Service struct {
	quizzes  store.QuizRepo
	attempts store.AttemptRepo
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(quizzes store.QuizRepo, attempts store.AttemptRepo, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		quizzes:  quizzes,
		attempts: attempts,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit scores answers for quizID and stores the result as the learner's
// next attempt. Attempts beyond the quiz's allowance are rejected with
// fault.ErrInvalidRequest before anything is written.
func (s *Service) Submit(ctx context.Context, quizID, userID string, answers map[string]grading.Answer, elapsed time.Duration) (*Attempt, error) {
	rec, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	q := FromRecord(*rec)
	res := Score(q, answers)

	for range maxSubmitRetries {
		prior, err := s.attempts.Count(ctx, quizID, userID)
		if err != nil {
			return nil, fmt.Errorf("count attempts: %w", err)
		}
		if q.AttemptsAllowed > 0 && prior >= q.AttemptsAllowed {
			return nil, fault.Invalid("quiz %s allows %d attempts, %d used", quizID, q.AttemptsAllowed, prior)
		}

		att := &Attempt{
			ID:       uuid.NewString(),
			QuizID:   quizID,
			QuizType: q.Type,
			SprintID: rec.SprintID,
			UserID:   userID,
			Number:   prior + 1,
			Elapsed:  elapsed,
			Result:   res,
		}
		err = s.attempts.Create(ctx, toRecord(att, s.now().UTC()))
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save attempt: %w", err)
		}

		s.metrics.QuizAttempted(string(q.Type), res.Passed, res.Score)
		s.logger.Info("quiz attempt recorded",
			zap.String("quiz_id", quizID),
			zap.String("user_id", userID),
			zap.Int("attempt", att.Number),
			zap.Float64("score", res.Score),
			zap.Bool("passed", res.Passed),
		)
		return att, nil
	}
	return nil, fmt.Errorf("save attempt for quiz %s: %w", quizID, store.ErrConflict)
}

// FromRecord converts a stored quiz into its gradeable form.
func FromRecord(rec store.Quiz) Quiz {
	q := Quiz{
		ID:              rec.ID,
		Type:            Type(rec.Type),
		PassingScore:    rec.PassingScore,
		AttemptsAllowed: rec.AttemptsAllowed,
		Questions:       make([]grading.Question, len(rec.Questions)),
	}
	for i, qd := range rec.Questions {
		q.Questions[i] = grading.Question{
			ID:               qd.ID,
			Type:             grading.QuestionType(qd.Type),
			Points:           qd.Points,
			SkillIDs:         qd.SkillIDs,
			CorrectOptionIDs: qd.CorrectOptionIDs,
			ExpectedOutput:   qd.ExpectedOutput,
		}
	}
	return q
}

func toRecord(a *Attempt, at time.Time) store.QuizAttempt {
	graded := make([]store.GradedAnswerData, len(a.GradedAnswers))
	for i, ga := range a.GradedAnswers {
		answer := append([]string(nil), ga.Answer.Selected...)
		if ga.Answer.Text != "" {
			answer = append(answer, ga.Answer.Text)
		}
		graded[i] = store.GradedAnswerData{
			QuestionID: ga.QuestionID,
			Answer:     answer,
			Verdict:    string(ga.Verdict),
			Points:     ga.Points,
			Earned:     ga.Earned,
		}
	}
	return store.QuizAttempt{
		ID:            a.ID,
		QuizID:        a.QuizID,
		UserID:        a.UserID,
		AttemptNumber: a.Number,
		Score:         a.Score,
		Passed:        a.Passed,
		SkillScores:   a.SkillScores,
		GradedAnswers: graded,
		PendingReview: a.PendingReview,
		Elapsed:       a.Elapsed,
		CreatedAt:     at,
	}
}
