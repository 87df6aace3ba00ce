package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"

	"github.com/abhisek/pathwise/internal/fault"
)

type quizRepo struct {
	db *sql.DB
}

var quizColumns = []string{
	"id", "objective_id", "sprint_id", "type", "questions",
	"passing_score", "attempts_allowed", "created_at",
}

func (r *quizRepo) Create(ctx context.Context, q Quiz) error {
	questions, err := encodeJSON(q.Questions)
	if err != nil {
		return err
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	ins := builder().Insert(tableQuizzes).
		Columns(quizColumns...).
		Values(q.ID, q.ObjectiveID, nullString(q.SprintID), q.Type, questions,
			q.PassingScore, q.AttemptsAllowed, toMillis(q.CreatedAt))
	if _, err := execQuery(ctx, r.db, ins); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return ErrConflict
		}
		return fmt.Errorf("create quiz %s: %w", q.ID, err)
	}
	return nil
}

func (r *quizRepo) Get(ctx context.Context, id string) (*Quiz, error) {
	sel := builder().Select(quizColumns...).
		From(entsql.Table(tableQuizzes)).
		Where(entsql.EQ("id", id))

	var (
		q         Quiz
		sprintID  sql.NullString
		questions string
		created   int64
	)
	err := queryRow(ctx, r.db, sel).Scan(&q.ID, &q.ObjectiveID, &sprintID, &q.Type,
		&questions, &q.PassingScore, &q.AttemptsAllowed, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.NotFound("quiz", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz %s: %w", id, err)
	}
	if err := decodeJSON(questions, &q.Questions); err != nil {
		return nil, fmt.Errorf("quiz %s questions: %w", id, err)
	}
	q.SprintID = sprintID.String
	q.CreatedAt = fromMillis(created)
	return &q, nil
}

type attemptRepo struct {
	db *sql.DB
}

var attemptColumns = []string{
	"id", "quiz_id", "user_id", "attempt_number", "score", "passed",
	"skill_scores", "graded_answers", "pending_review", "elapsed_ms", "created_at",
}

func (r *attemptRepo) Count(ctx context.Context, quizID, userID string) (int, error) {
	sel := builder().Select(entsql.Count("*")).
		From(entsql.Table(tableAttempts)).
		Where(entsql.And(entsql.EQ("quiz_id", quizID), entsql.EQ("user_id", userID)))
	var n int
	if err := queryRow(ctx, r.db, sel).Scan(&n); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (r *attemptRepo) Create(ctx context.Context, a QuizAttempt) error {
	skillScores, err := encodeJSON(a.SkillScores)
	if err != nil {
		return err
	}
	graded, err := encodeJSON(a.GradedAnswers)
	if err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	ins := builder().Insert(tableAttempts).
		Columns(attemptColumns...).
		Values(a.ID, a.QuizID, a.UserID, a.AttemptNumber, a.Score, a.Passed,
			skillScores, graded, a.PendingReview, a.Elapsed.Milliseconds(), toMillis(a.CreatedAt))
	if _, err := execQuery(ctx, r.db, ins); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return ErrConflict
		}
		return fmt.Errorf("create attempt %s: %w", a.ID, err)
	}
	return nil
}

func (r *attemptRepo) List(ctx context.Context, quizID, userID string) ([]QuizAttempt, error) {
	sel := builder().Select(attemptColumns...).
		From(entsql.Table(tableAttempts)).
		Where(entsql.And(entsql.EQ("quiz_id", quizID), entsql.EQ("user_id", userID))).
		OrderBy("attempt_number")
	rows, err := queryRows(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []QuizAttempt
	for rows.Next() {
		var (
			a                   QuizAttempt
			skillScores, graded string
			elapsedMs, created  int64
		)
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &a.AttemptNumber, &a.Score, &a.Passed,
			&skillScores, &graded, &a.PendingReview, &elapsedMs, &created); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := decodeJSON(skillScores, &a.SkillScores); err != nil {
			return nil, err
		}
		if err := decodeJSON(graded, &a.GradedAnswers); err != nil {
			return nil, err
		}
		a.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		a.CreatedAt = fromMillis(created)
		out = append(out, a)
	}
	return out, rows.Err()
}
