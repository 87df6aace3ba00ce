package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/pathwise/internal/fault"
)

type objectiveRepo struct {
	db *sql.DB
}

var objectiveColumns = []string{
	"id", "user_id", "title", "description", "skill_ids", "estimated_total_days",
	"current_day", "completed_days", "generation_mode", "auto_generate",
	"total_sprints_generated", "difficulty", "velocity", "created_at", "updated_at",
}

func scanObjective(sc rowScanner) (*Objective, error) {
	var (
		o                Objective
		skillIDs         string
		created, updated int64
	)
	err := sc.Scan(&o.ID, &o.UserID, &o.Title, &o.Description, &skillIDs, &o.EstimatedTotalDays,
		&o.CurrentDay, &o.CompletedDays, &o.GenerationMode, &o.AutoGenerate,
		&o.TotalSprintsGenerated, &o.Difficulty, &o.Velocity, &created, &updated)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(skillIDs, &o.SkillIDs); err != nil {
		return nil, err
	}
	o.CreatedAt = fromMillis(created)
	o.UpdatedAt = fromMillis(updated)
	return &o, nil
}

func (r *objectiveRepo) Create(ctx context.Context, o Objective) error {
	skillIDs, err := encodeJSON(o.SkillIDs)
	if err != nil {
		return err
	}
	if o.Difficulty == 0 {
		o.Difficulty = DefaultDifficulty
	}
	if o.Velocity == 0 {
		o.Velocity = DefaultVelocity
	}
	if err := checkPacing(o.Difficulty, o.Velocity); err != nil {
		return err
	}
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = now
	}
	ins := builder().Insert(tableObjectives).
		Columns(objectiveColumns...).
		Values(o.ID, o.UserID, o.Title, o.Description, skillIDs, o.EstimatedTotalDays,
			o.CurrentDay, o.CompletedDays, o.GenerationMode, o.AutoGenerate,
			o.TotalSprintsGenerated, o.Difficulty, o.Velocity,
			toMillis(o.CreatedAt), toMillis(o.UpdatedAt))
	if _, err := execQuery(ctx, r.db, ins); err != nil {
		return fmt.Errorf("create objective %s: %w", o.ID, err)
	}
	return nil
}

func (r *objectiveRepo) Get(ctx context.Context, id string) (*Objective, error) {
	return getObjective(ctx, r.db, id)
}

func getObjective(ctx context.Context, q querier, id string) (*Objective, error) {
	sel := builder().Select(objectiveColumns...).
		From(entsql.Table(tableObjectives)).
		Where(entsql.EQ("id", id))
	o, err := scanObjective(queryRow(ctx, q, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.NotFound("objective", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get objective %s: %w", id, err)
	}
	return o, nil
}

func (r *objectiveRepo) List(ctx context.Context, userID string) ([]Objective, error) {
	sel := builder().Select(objectiveColumns...).
		From(entsql.Table(tableObjectives)).
		OrderBy("created_at", "id")
	if userID != "" {
		sel.Where(entsql.EQ("user_id", userID))
	}
	return r.list(ctx, sel)
}

func (r *objectiveRepo) ListAutoGenerating(ctx context.Context) ([]Objective, error) {
	sel := builder().Select(objectiveColumns...).
		From(entsql.Table(tableObjectives)).
		Where(entsql.EQ("auto_generate", true)).
		OrderBy("id")
	return r.list(ctx, sel)
}

func (r *objectiveRepo) list(ctx context.Context, sel *entsql.Selector) ([]Objective, error) {
	rows, err := queryRows(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list objectives: %w", err)
	}
	defer rows.Close()

	var out []Objective
	for rows.Next() {
		o, err := scanObjective(rows)
		if err != nil {
			return nil, fmt.Errorf("scan objective: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// Pacing bounds enforced on every write. Zero values on Create mean the
// defaults.
const (
	DefaultDifficulty = 3
	DefaultVelocity   = 1.0
)

func checkPacing(difficulty int, velocity float64) error {
	if difficulty < 1 || difficulty > 5 {
		return fault.Invalid("difficulty %d outside [1,5]", difficulty)
	}
	if velocity < 0.5 || velocity > 1.5 {
		return fault.Invalid("velocity %.2f outside [0.5,1.5]", velocity)
	}
	return nil
}

func (r *objectiveRepo) UpdatePacing(ctx context.Context, id string, difficulty int, velocity float64) error {
	if err := checkPacing(difficulty, velocity); err != nil {
		return err
	}
	upd := builder().Update(tableObjectives).
		Set("difficulty", difficulty).
		Set("velocity", velocity).
		Set("updated_at", toMillis(time.Now())).
		Where(entsql.EQ("id", id))
	res, err := execQuery(ctx, r.db, upd)
	if err != nil {
		return fmt.Errorf("update pacing %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.NotFound("objective", id)
	}
	return nil
}

type milestoneRepo struct {
	db *sql.DB
}

var milestoneColumns = []string{"id", "objective_id", "title", "target_day", "completed"}

func (r *milestoneRepo) Create(ctx context.Context, m Milestone) error {
	ins := builder().Insert(tableMilestones).
		Columns(milestoneColumns...).
		Values(m.ID, m.ObjectiveID, m.Title, m.TargetDay, m.Completed)
	if _, err := execQuery(ctx, r.db, ins); err != nil {
		return fmt.Errorf("create milestone %s: %w", m.ID, err)
	}
	return nil
}

func (r *milestoneRepo) NextIncomplete(ctx context.Context, objectiveID string) (*Milestone, error) {
	sel := builder().Select(milestoneColumns...).
		From(entsql.Table(tableMilestones)).
		Where(entsql.And(entsql.EQ("objective_id", objectiveID), entsql.EQ("completed", false))).
		OrderBy("target_day", "id").
		Limit(1)
	var m Milestone
	err := queryRow(ctx, r.db, sel).Scan(&m.ID, &m.ObjectiveID, &m.Title, &m.TargetDay, &m.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next milestone %s: %w", objectiveID, err)
	}
	return &m, nil
}

func (r *milestoneRepo) List(ctx context.Context, objectiveID string) ([]Milestone, error) {
	sel := builder().Select(milestoneColumns...).
		From(entsql.Table(tableMilestones)).
		Where(entsql.EQ("objective_id", objectiveID)).
		OrderBy("target_day", "id")
	rows, err := queryRows(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var out []Milestone
	for rows.Next() {
		var m Milestone
		if err := rows.Scan(&m.ID, &m.ObjectiveID, &m.Title, &m.TargetDay, &m.Completed); err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
