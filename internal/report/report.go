// Package report exports an objective's progress as an xlsx workbook.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/pathwise/internal/store"
)

// Sheet names.
const (
	SheetSummary = "Summary"
	SheetSprints = "Sprints"
	SheetSkills  = "Skills"
)

// Repos are the stores a report reads.
type Repos struct {
	Objectives store.ObjectiveRepo
	Sprints    store.SprintRepo
	UserSkills store.UserSkillRepo
	Reviews    store.ReviewRepo
}

// Progress is everything exported for one objective.
type Progress struct {
	Objective store.Objective
	Sprints   []store.Sprint
	Skills    []SkillRow
}

type SkillRow struct {
	SkillID     string
	Level       float64
	Status      string
	Assessments int
	// NextReviewDay is zero when no review is scheduled.
	NextReviewDay int
	Interval      int
}

// Collect loads the objective's sprints and its learner's skill records.
func Collect(ctx context.Context, r Repos, objectiveID string) (*Progress, error) {
	obj, err := r.Objectives.Get(ctx, objectiveID)
	if err != nil {
		return nil, err
	}
	sprints, err := r.Sprints.List(ctx, objectiveID)
	if err != nil {
		return nil, fmt.Errorf("list sprints: %w", err)
	}
	levels, err := r.UserSkills.List(ctx, obj.UserID, obj.SkillIDs)
	if err != nil {
		return nil, fmt.Errorf("list skill levels: %w", err)
	}
	byID := make(map[string]store.UserSkill, len(levels))
	for _, l := range levels {
		byID[l.SkillID] = l
	}

	p := &Progress{Objective: *obj, Sprints: sprints}
	for _, id := range obj.SkillIDs {
		row := SkillRow{SkillID: id, Status: "not_started"}
		if us, ok := byID[id]; ok {
			row.Level = us.Level
			row.Status = us.Status
			row.Assessments = us.AssessmentCount
		}
		rs, err := r.Reviews.Get(ctx, obj.UserID, id)
		if err != nil {
			return nil, fmt.Errorf("load review for %s: %w", id, err)
		}
		if rs != nil {
			row.NextReviewDay = rs.NextReviewDueDay
			row.Interval = rs.IntervalDays
		}
		p.Skills = append(p.Skills, row)
	}
	return p, nil
}

// Workbook renders p. The caller closes the returned file.
func (p *Progress) Workbook() (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", SheetSummary)

	o := p.Objective
	summary := [][]any{
		{"Objective", o.Title},
		{"Learner", o.UserID},
		{"Mode", o.GenerationMode},
		{"Estimated days", o.EstimatedTotalDays},
		{"Current day", o.CurrentDay},
		{"Completed days", o.CompletedDays},
		{"Sprints generated", o.TotalSprintsGenerated},
		{"Difficulty", o.Difficulty},
		{"Velocity", o.Velocity},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return nil, err
	}

	sprintRows := [][]any{{"Day", "Title", "Status", "Score", "Estimated hours", "Difficulty", "Review", "Completed at"}}
	for _, s := range p.Sprints {
		var score any = ""
		if s.Score != nil {
			score = *s.Score
		}
		completed := ""
		if s.CompletedAt != nil {
			completed = s.CompletedAt.UTC().Format(time.RFC3339)
		}
		sprintRows = append(sprintRows, []any{
			s.DayNumber, s.Title, s.Status, score, s.EstimatedHours, s.DifficultyLabel, s.IsReview, completed,
		})
	}
	if _, err := f.NewSheet(SheetSprints); err != nil {
		return nil, fmt.Errorf("add sheet %s: %w", SheetSprints, err)
	}
	if err := writeRows(f, SheetSprints, sprintRows); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetSprints, "B", "B", 48); err != nil {
		return nil, err
	}

	skillRows := [][]any{{"Skill", "Level", "Status", "Assessments", "Next review day", "Interval days"}}
	for _, s := range p.Skills {
		skillRows = append(skillRows, []any{s.SkillID, s.Level, s.Status, s.Assessments, s.NextReviewDay, s.Interval})
	}
	if _, err := f.NewSheet(SheetSkills); err != nil {
		return nil, fmt.Errorf("add sheet %s: %w", SheetSkills, err)
	}
	if err := writeRows(f, SheetSkills, skillRows); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteXLSX renders p and writes the workbook to w.
func (p *Progress) WriteXLSX(w io.Writer) error {
	f, err := p.Workbook()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
