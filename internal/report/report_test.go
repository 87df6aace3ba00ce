package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/pathwise/internal/fault"
	"github.com/abhisek/pathwise/internal/store"
)

func TestCollectAndWrite(t *testing.T) {
	st, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	require.NoError(t, st.ObjectiveRepo().Create(ctx, store.Objective{
		ID: "obj-1", UserID: "u1", Title: "Go concurrency", SkillIDs: []string{"channels", "select"},
		EstimatedTotalDays: 10, GenerationMode: "DAILY", AutoGenerate: true, Difficulty: 3, Velocity: 1,
	}))
	for day := 1; day <= 2; day++ {
		require.NoError(t, st.SprintRepo().CreateNext(ctx, store.Sprint{
			ID: uuid.NewString(), ObjectiveID: "obj-1", UserID: "u1", DayNumber: day,
			Title: "Day", EstimatedHours: 1.5, DifficultyLabel: "intermediate",
		}))
	}
	first, err := st.SprintRepo().GetByDay(ctx, "obj-1", 1)
	require.NoError(t, err)
	score := 88.0
	require.NoError(t, st.SprintRepo().Complete(ctx, first.ID, &score, "", time.Now()))
	require.NoError(t, st.UserSkillRepo().Save(ctx, store.UserSkill{
		UserID: "u1", SkillID: "channels", Level: 26.4, Status: "developing", AssessmentCount: 1, UpdatedAt: time.Now(),
	}))
	require.NoError(t, st.ReviewRepo().Create(ctx, store.ReviewSchedule{
		UserID: "u1", SkillID: "channels", NextReviewDueDay: 2, IntervalDays: 1, EaseFactor: 2.5,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))

	repos := Repos{
		Objectives: st.ObjectiveRepo(),
		Sprints:    st.SprintRepo(),
		UserSkills: st.UserSkillRepo(),
		Reviews:    st.ReviewRepo(),
	}
	p, err := Collect(ctx, repos, "obj-1")
	require.NoError(t, err)
	require.Len(t, p.Sprints, 2)
	require.Len(t, p.Skills, 2)
	assert.Equal(t, SkillRow{SkillID: "channels", Level: 26.4, Status: "developing", Assessments: 1, NextReviewDay: 2, Interval: 1}, p.Skills[0])
	assert.Equal(t, SkillRow{SkillID: "select", Status: "not_started"}, p.Skills[1])

	var buf bytes.Buffer
	require.NoError(t, p.WriteXLSX(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetSummary, SheetSprints, SheetSkills}, f.GetSheetList())

	rows, err := f.GetRows(SheetSprints)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Day", rows[0][0])
	assert.Equal(t, []string{"1", "Day", "completed", "88"}, rows[1][:4])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Objective", "Go concurrency"}, summary[0])
	assert.Equal(t, []string{"Completed days", "1"}, summary[5])

	_, err = Collect(ctx, repos, "missing")
	assert.True(t, fault.IsNotFound(err))
}
