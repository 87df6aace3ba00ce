package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
)

type reviewRepo struct {
	db *sql.DB
}

var reviewColumns = []string{
	"user_id", "skill_id", "next_review_due_day", "interval_days", "ease_factor",
	"review_count", "last_review_score", "created_at", "updated_at",
}

func scanReview(sc rowScanner) (*ReviewSchedule, error) {
	var (
		rs               ReviewSchedule
		lastScore        sql.NullFloat64
		created, updated int64
	)
	err := sc.Scan(&rs.UserID, &rs.SkillID, &rs.NextReviewDueDay, &rs.IntervalDays,
		&rs.EaseFactor, &rs.ReviewCount, &lastScore, &created, &updated)
	if err != nil {
		return nil, err
	}
	if lastScore.Valid {
		v := lastScore.Float64
		rs.LastReviewScore = &v
	}
	rs.CreatedAt = fromMillis(created)
	rs.UpdatedAt = fromMillis(updated)
	return &rs, nil
}

func reviewValues(rs ReviewSchedule) []any {
	now := time.Now()
	if rs.CreatedAt.IsZero() {
		rs.CreatedAt = now
	}
	if rs.UpdatedAt.IsZero() {
		rs.UpdatedAt = now
	}
	var last any
	if rs.LastReviewScore != nil {
		last = *rs.LastReviewScore
	}
	return []any{
		rs.UserID, rs.SkillID, rs.NextReviewDueDay, rs.IntervalDays, rs.EaseFactor,
		rs.ReviewCount, last, toMillis(rs.CreatedAt), toMillis(rs.UpdatedAt),
	}
}

func (r *reviewRepo) Get(ctx context.Context, userID, skillID string) (*ReviewSchedule, error) {
	sel := builder().Select(reviewColumns...).
		From(entsql.Table(tableReviews)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("skill_id", skillID)))
	rs, err := scanReview(queryRow(ctx, r.db, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get review schedule %s/%s: %w", userID, skillID, err)
	}
	return rs, nil
}

func (r *reviewRepo) Create(ctx context.Context, rs ReviewSchedule) error {
	ins := builder().Insert(tableReviews).
		Columns(reviewColumns...).
		Values(reviewValues(rs)...)
	if _, err := execQuery(ctx, r.db, ins); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return ErrConflict
		}
		return fmt.Errorf("create review schedule %s/%s: %w", rs.UserID, rs.SkillID, err)
	}
	return nil
}

func (r *reviewRepo) Save(ctx context.Context, rs ReviewSchedule) error {
	// created_at keeps its first value on conflict.
	ins := builder().Insert(tableReviews).
		Columns(reviewColumns...).
		Values(reviewValues(rs)...).
		OnConflict(
			entsql.ConflictColumns("user_id", "skill_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("next_review_due_day")
				u.SetExcluded("interval_days")
				u.SetExcluded("ease_factor")
				u.SetExcluded("review_count")
				u.SetExcluded("last_review_score")
				u.SetExcluded("updated_at")
			}),
		)
	if _, err := execQuery(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save review schedule %s/%s: %w", rs.UserID, rs.SkillID, err)
	}
	return nil
}

func (r *reviewRepo) Due(ctx context.Context, userID string, skillIDs []string, day int) ([]ReviewSchedule, error) {
	if len(skillIDs) == 0 {
		return nil, nil
	}
	sel := builder().Select(reviewColumns...).
		From(entsql.Table(tableReviews)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.In("skill_id", anyStrings(skillIDs)...),
			entsql.LTE("next_review_due_day", day),
		)).
		OrderBy("next_review_due_day", "skill_id")
	rows, err := queryRows(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list due reviews: %w", err)
	}
	defer rows.Close()

	var out []ReviewSchedule
	for rows.Next() {
		rs, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review schedule: %w", err)
		}
		out = append(out, *rs)
	}
	return out, rows.Err()
}
