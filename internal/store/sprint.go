package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"

	"github.com/abhisek/pathwise/internal/fault"
)

type sprintRepo struct {
	db *sql.DB
}

var sprintColumns = []string{
	"id", "objective_id", "user_id", "day_number", "title", "status",
	"completion_percentage", "started_at", "completed_at", "next_sprint_id",
	"is_auto_generated", "is_review", "review_skill_ids", "deliverables",
	"reflection_notes", "score", "estimated_hours", "difficulty_label",
	"plan", "context_version", "created_at",
}

func scanSprint(sc rowScanner) (*Sprint, error) {
	var (
		s                  Sprint
		started, completed sql.NullInt64
		next               sql.NullString
		reviewIDs, deliver string
		score              sql.NullFloat64
		plan               string
		created            int64
	)
	err := sc.Scan(&s.ID, &s.ObjectiveID, &s.UserID, &s.DayNumber, &s.Title, &s.Status,
		&s.CompletionPercentage, &started, &completed, &next,
		&s.IsAutoGenerated, &s.IsReview, &reviewIDs, &deliver,
		&s.ReflectionNotes, &score, &s.EstimatedHours, &s.DifficultyLabel,
		&plan, &s.ContextVersion, &created)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(reviewIDs, &s.ReviewSkillIDs); err != nil {
		return nil, err
	}
	if err := decodeJSON(deliver, &s.Deliverables); err != nil {
		return nil, err
	}
	s.StartedAt = timePtr(started)
	s.CompletedAt = timePtr(completed)
	s.NextSprintID = next.String
	if score.Valid {
		v := score.Float64
		s.Score = &v
	}
	s.Plan = []byte(plan)
	s.CreatedAt = fromMillis(created)
	return &s, nil
}

func (r *sprintRepo) Get(ctx context.Context, id string) (*Sprint, error) {
	return getSprint(ctx, r.db, id)
}

func getSprint(ctx context.Context, q querier, id string) (*Sprint, error) {
	sel := builder().Select(sprintColumns...).
		From(entsql.Table(tableSprints)).
		Where(entsql.EQ("id", id))
	s, err := scanSprint(queryRow(ctx, q, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.NotFound("sprint", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get sprint %s: %w", id, err)
	}
	return s, nil
}

func (r *sprintRepo) GetByDay(ctx context.Context, objectiveID string, day int) (*Sprint, error) {
	sel := builder().Select(sprintColumns...).
		From(entsql.Table(tableSprints)).
		Where(entsql.And(entsql.EQ("objective_id", objectiveID), entsql.EQ("day_number", day)))
	s, err := scanSprint(queryRow(ctx, r.db, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sprint %s day %d: %w", objectiveID, day, err)
	}
	return s, nil
}

func (r *sprintRepo) Last(ctx context.Context, objectiveID string) (*Sprint, error) {
	sel := builder().Select(sprintColumns...).
		From(entsql.Table(tableSprints)).
		Where(entsql.EQ("objective_id", objectiveID)).
		OrderBy(entsql.Desc("day_number")).
		Limit(1)
	s, err := scanSprint(queryRow(ctx, r.db, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last sprint %s: %w", objectiveID, err)
	}
	return s, nil
}

func (r *sprintRepo) Recent(ctx context.Context, objectiveID string, beforeDay, n int) ([]Sprint, error) {
	sel := builder().Select(sprintColumns...).
		From(entsql.Table(tableSprints)).
		Where(entsql.And(entsql.EQ("objective_id", objectiveID), entsql.LT("day_number", beforeDay))).
		OrderBy(entsql.Desc("day_number")).
		Limit(n)
	out, err := r.list(ctx, sel)
	if err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

func (r *sprintRepo) RecentCompleted(ctx context.Context, objectiveID string, n int) ([]Sprint, error) {
	sel := builder().Select(sprintColumns...).
		From(entsql.Table(tableSprints)).
		Where(entsql.And(
			entsql.EQ("objective_id", objectiveID),
			entsql.EQ("status", SprintCompleted),
			entsql.NotNull("score"),
		)).
		OrderBy(entsql.Desc("day_number")).
		Limit(n)
	out, err := r.list(ctx, sel)
	if err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

func (r *sprintRepo) List(ctx context.Context, objectiveID string) ([]Sprint, error) {
	sel := builder().Select(sprintColumns...).
		From(entsql.Table(tableSprints)).
		Where(entsql.EQ("objective_id", objectiveID)).
		OrderBy("day_number")
	return r.list(ctx, sel)
}

func (r *sprintRepo) PendingReviews(ctx context.Context, objectiveID string) ([]Sprint, error) {
	sel := builder().Select(sprintColumns...).
		From(entsql.Table(tableSprints)).
		Where(entsql.And(
			entsql.EQ("objective_id", objectiveID),
			entsql.EQ("is_review", true),
			entsql.In("status", SprintGenerated, SprintInProgress),
		)).
		OrderBy("day_number")
	return r.list(ctx, sel)
}

func (r *sprintRepo) list(ctx context.Context, sel *entsql.Selector) ([]Sprint, error) {
	rows, err := queryRows(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list sprints: %w", err)
	}
	defer rows.Close()

	var out []Sprint
	for rows.Next() {
		s, err := scanSprint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sprint: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// neighbourID returns the id of the closest sprint before (or after) day.
func neighbourID(ctx context.Context, q querier, objectiveID string, day int, before bool) (string, error) {
	sel := builder().Select("id").
		From(entsql.Table(tableSprints)).
		Where(entsql.EQ("objective_id", objectiveID)).
		Limit(1)
	if before {
		sel.Where(entsql.LT("day_number", day)).OrderBy(entsql.Desc("day_number"))
	} else {
		sel.Where(entsql.GT("day_number", day)).OrderBy("day_number")
	}
	var id string
	err := queryRow(ctx, q, sel).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (r *sprintRepo) CreateNext(ctx context.Context, s Sprint) error {
	reviewIDs, err := encodeJSON(nonNil(s.ReviewSkillIDs))
	if err != nil {
		return err
	}
	deliverables, err := encodeJSON(nonNil(s.Deliverables))
	if err != nil {
		return err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	if s.Status == "" {
		s.Status = SprintGenerated
	}
	plan := string(s.Plan)
	if plan == "" {
		plan = "{}"
	}

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		obj, err := getObjective(ctx, tx, s.ObjectiveID)
		if err != nil {
			return err
		}

		// Filling a gap: the new sprint points at the next existing day.
		if s.NextSprintID == "" {
			if s.NextSprintID, err = neighbourID(ctx, tx, s.ObjectiveID, s.DayNumber, false); err != nil {
				return fmt.Errorf("find successor: %w", err)
			}
		}

		var score any
		if s.Score != nil {
			score = *s.Score
		}
		ins := builder().Insert(tableSprints).
			Columns(sprintColumns...).
			Values(s.ID, s.ObjectiveID, s.UserID, s.DayNumber, s.Title, s.Status,
				s.CompletionPercentage, nullMillis(s.StartedAt), nullMillis(s.CompletedAt), nullString(s.NextSprintID),
				s.IsAutoGenerated, s.IsReview, reviewIDs, deliverables,
				s.ReflectionNotes, score, s.EstimatedHours, s.DifficultyLabel,
				plan, s.ContextVersion, toMillis(s.CreatedAt))
		if _, err := execQuery(ctx, tx, ins); err != nil {
			if sqlgraph.IsUniqueConstraintError(err) {
				return ErrConflict
			}
			return fmt.Errorf("insert sprint day %d: %w", s.DayNumber, err)
		}

		prevID, err := neighbourID(ctx, tx, s.ObjectiveID, s.DayNumber, true)
		if err != nil {
			return fmt.Errorf("find predecessor: %w", err)
		}
		if prevID != "" {
			link := builder().Update(tableSprints).
				Set("next_sprint_id", s.ID).
				Where(entsql.EQ("id", prevID))
			if _, err := execQuery(ctx, tx, link); err != nil {
				return fmt.Errorf("link sprint %s: %w", prevID, err)
			}
		}

		currentDay := max(obj.CurrentDay, s.DayNumber)
		counters := builder().Update(tableObjectives).
			Set("current_day", currentDay).
			Set("total_sprints_generated", obj.TotalSprintsGenerated+1).
			Set("updated_at", toMillis(time.Now())).
			Where(entsql.EQ("id", obj.ID))
		if _, err := execQuery(ctx, tx, counters); err != nil {
			return fmt.Errorf("advance objective %s: %w", obj.ID, err)
		}
		return nil
	})
}

func (r *sprintRepo) Start(ctx context.Context, id string, at time.Time) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		s, err := getSprint(ctx, tx, id)
		if err != nil {
			return err
		}
		switch s.Status {
		case SprintInProgress:
			return nil
		case SprintCompleted:
			return fault.Invalid("sprint %s is already completed", id)
		}
		upd := builder().Update(tableSprints).
			Set("status", SprintInProgress).
			Set("started_at", toMillis(at)).
			Where(entsql.EQ("id", id))
		if _, err := execQuery(ctx, tx, upd); err != nil {
			return fmt.Errorf("start sprint %s: %w", id, err)
		}
		return nil
	})
}

func (r *sprintRepo) Complete(ctx context.Context, id string, score *float64, reflection string, at time.Time) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		s, err := getSprint(ctx, tx, id)
		if err != nil {
			return err
		}
		if s.Status == SprintCompleted {
			return nil
		}

		upd := builder().Update(tableSprints).
			Set("status", SprintCompleted).
			Set("completion_percentage", 100.0).
			Set("completed_at", toMillis(at)).
			Set("reflection_notes", reflection).
			Where(entsql.EQ("id", id))
		if s.StartedAt == nil {
			upd.Set("started_at", toMillis(at))
		}
		if score != nil {
			upd.Set("score", *score)
		}
		if _, err := execQuery(ctx, tx, upd); err != nil {
			return fmt.Errorf("complete sprint %s: %w", id, err)
		}

		bump := builder().Update(tableObjectives).
			Add("completed_days", 1).
			Set("updated_at", toMillis(at)).
			Where(entsql.EQ("id", s.ObjectiveID))
		if _, err := execQuery(ctx, tx, bump); err != nil {
			return fmt.Errorf("advance completed days %s: %w", s.ObjectiveID, err)
		}
		return nil
	})
}
