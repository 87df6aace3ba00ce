package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type userSkillRepo struct {
	db *sql.DB
}

var userSkillColumns = []string{
	"user_id", "skill_id", "level", "previous_level", "status",
	"assessment_count", "last_assessed_at", "updated_at",
}

func scanUserSkill(sc rowScanner) (*UserSkill, error) {
	var (
		us       UserSkill
		assessed sql.NullInt64
		updated  int64
	)
	err := sc.Scan(&us.UserID, &us.SkillID, &us.Level, &us.PreviousLevel, &us.Status,
		&us.AssessmentCount, &assessed, &updated)
	if err != nil {
		return nil, err
	}
	us.LastAssessedAt = timePtr(assessed)
	us.UpdatedAt = fromMillis(updated)
	return &us, nil
}

func (r *userSkillRepo) Get(ctx context.Context, userID, skillID string) (*UserSkill, error) {
	sel := builder().Select(userSkillColumns...).
		From(entsql.Table(tableUserSkills)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("skill_id", skillID)))
	us, err := scanUserSkill(queryRow(ctx, r.db, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user skill %s/%s: %w", userID, skillID, err)
	}
	return us, nil
}

func (r *userSkillRepo) Save(ctx context.Context, us UserSkill) error {
	if us.UpdatedAt.IsZero() {
		us.UpdatedAt = time.Now()
	}
	ins := builder().Insert(tableUserSkills).
		Columns(userSkillColumns...).
		Values(us.UserID, us.SkillID, us.Level, us.PreviousLevel, us.Status,
			us.AssessmentCount, nullMillis(us.LastAssessedAt), toMillis(us.UpdatedAt)).
		OnConflict(entsql.ConflictColumns("user_id", "skill_id"), entsql.ResolveWithNewValues())
	if _, err := execQuery(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save user skill %s/%s: %w", us.UserID, us.SkillID, err)
	}
	return nil
}

func (r *userSkillRepo) List(ctx context.Context, userID string, skillIDs []string) ([]UserSkill, error) {
	sel := builder().Select(userSkillColumns...).
		From(entsql.Table(tableUserSkills)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("skill_id")
	if len(skillIDs) > 0 {
		sel.Where(entsql.In("skill_id", anyStrings(skillIDs)...))
	}
	rows, err := queryRows(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list user skills: %w", err)
	}
	defer rows.Close()

	var out []UserSkill
	for rows.Next() {
		us, err := scanUserSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user skill: %w", err)
		}
		out = append(out, *us)
	}
	return out, rows.Err()
}
