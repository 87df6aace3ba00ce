package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/pathwise/internal/fault"
)

type rowScanner interface {
	Scan(dest ...any) error
}

type skillRepo struct {
	db *sql.DB
}

var skillColumns = []string{"id", "name", "tier"}

func (r *skillRepo) Upsert(ctx context.Context, s Skill) error {
	ins := builder().Insert(tableSkills).
		Columns(skillColumns...).
		Values(s.ID, s.Name, s.Tier).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	if _, err := execQuery(ctx, r.db, ins); err != nil {
		return fmt.Errorf("upsert skill %s: %w", s.ID, err)
	}
	return nil
}

func (r *skillRepo) Get(ctx context.Context, id string) (*Skill, error) {
	sel := builder().Select(skillColumns...).
		From(entsql.Table(tableSkills)).
		Where(entsql.EQ("id", id))
	var s Skill
	err := queryRow(ctx, r.db, sel).Scan(&s.ID, &s.Name, &s.Tier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.NotFound("skill", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get skill %s: %w", id, err)
	}
	return &s, nil
}

func (r *skillRepo) List(ctx context.Context) ([]Skill, error) {
	sel := builder().Select(skillColumns...).
		From(entsql.Table(tableSkills)).
		OrderBy("id")
	rows, err := queryRows(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var out []Skill
	for rows.Next() {
		var s Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Tier); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
