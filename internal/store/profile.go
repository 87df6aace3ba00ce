package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type profileRepo struct {
	db *sql.DB
}

var profileColumns = []string{"user_id", "interests", "strengths", "weaknesses", "daily_minutes", "updated_at"}

func (r *profileRepo) Save(ctx context.Context, p LearnerProfile) error {
	interests, err := encodeJSON(nonNil(p.Interests))
	if err != nil {
		return err
	}
	strengths, err := encodeJSON(nonNil(p.Strengths))
	if err != nil {
		return err
	}
	weaknesses, err := encodeJSON(nonNil(p.Weaknesses))
	if err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	ins := builder().Insert(tableProfiles).
		Columns(profileColumns...).
		Values(p.UserID, interests, strengths, weaknesses, p.DailyMinutes, toMillis(p.UpdatedAt)).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.ResolveWithNewValues())
	if _, err := execQuery(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}
	return nil
}

func (r *profileRepo) Get(ctx context.Context, userID string) (*LearnerProfile, error) {
	sel := builder().Select(profileColumns...).
		From(entsql.Table(tableProfiles)).
		Where(entsql.EQ("user_id", userID))

	var (
		p                               LearnerProfile
		interests, strengths, weaknesses string
		updated                         int64
	)
	err := queryRow(ctx, r.db, sel).Scan(&p.UserID, &interests, &strengths, &weaknesses, &p.DailyMinutes, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	for _, f := range []struct {
		raw string
		dst *[]string
	}{{interests, &p.Interests}, {strengths, &p.Strengths}, {weaknesses, &p.Weaknesses}} {
		if err := decodeJSON(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("profile %s: %w", userID, err)
		}
	}
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
