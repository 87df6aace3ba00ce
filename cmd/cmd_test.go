package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pathwise/internal/fault"
	"github.com/abhisek/pathwise/internal/grading"
)

func TestParseMilestones(t *testing.T) {
	ms, err := parseMilestones([]string{"First service: deployed:5", "Capstone:30"})
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "First service: deployed", ms[0].Title)
	assert.Equal(t, 5, ms[0].TargetDay)
	assert.Equal(t, 30, ms[1].TargetDay)

	for _, bad := range []string{"no-day", ":3", "Capstone:zero", "Capstone:0"} {
		_, err := parseMilestones([]string{bad})
		assert.True(t, fault.IsInvalid(err), bad)
	}
}

func TestReadQuizFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quiz.json")
	body := `{
  "id": "q1",
  "objective_id": "obj-1",
  "type": "post_sprint",
  "passing_score": 80,
  "questions": [
    {"id": "a", "type": "multiple_choice", "points": 1, "skill_ids": ["channels"], "correct_option_ids": ["x"]}
  ],
  "answers": {"a": {"selected": ["x"]}}
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	qf, err := readQuizFile(path)
	require.NoError(t, err)
	assert.Equal(t, grading.Answer{Selected: []string{"x"}}, qf.Answers["a"])

	rec := qf.record()
	assert.Equal(t, "obj-1", rec.ObjectiveID)
	assert.Equal(t, 80.0, rec.PassingScore)
	require.Len(t, rec.Questions, 1)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"id":"q2","questions":[]}`), 0o644))
	_, err = readQuizFile(empty)
	assert.True(t, fault.IsInvalid(err))

	_, err = readQuizFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestVerdictStatus(t *testing.T) {
	assert.Equal(t, "passed", verdictStatus(grading.Correct))
	assert.Equal(t, "failed", verdictStatus(grading.Incorrect))
	assert.Equal(t, "needs_manual_review", verdictStatus(grading.NeedsManualReview))
}
