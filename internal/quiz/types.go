package quiz

import (
	"time"

	"github.com/abhisek/pathwise/internal/grading"
)

// Type is the role a quiz plays in an objective.
type Type string

const (
	PreSprint  Type = "pre_sprint"
	PostSprint Type = "post_sprint"
	SkillCheck Type = "skill_check"
	Review     Type = "review"
	Milestone  Type = "milestone"
)

// WeakAreaThreshold is the per-skill percentage below which a skill is weak.
const WeakAreaThreshold = 70.0

// maxNamedWeakAreas caps how many weak skills a recommendation names.
const maxNamedWeakAreas = 3

// Quiz is the gradeable view of a stored quiz.
type Quiz struct {
	ID              string             `json:"id"`
	Type            Type               `json:"type"`
	Questions       []grading.Question `json:"questions"`
	PassingScore    float64            `json:"passing_score"`
	AttemptsAllowed int                `json:"attempts_allowed"`
}

// GradedAnswer is one question's verdict and the points it earned.
type GradedAnswer struct {
	QuestionID string          `json:"question_id"`
	Answer     grading.Answer  `json:"answer"`
	Verdict    grading.Verdict `json:"verdict"`
	Points     float64         `json:"points"`
	Earned     float64         `json:"earned"`
}

// Result is the aggregate outcome of scoring a quiz.
type Result struct {
	Score           float64            `json:"score"`
	Passed          bool               `json:"passed"`
	EarnedPoints    float64            `json:"earned_points"`
	TotalPoints     float64            `json:"total_points"`
	SkillScores     map[string]float64 `json:"skill_scores"`
	WeakAreas       []string           `json:"weak_areas"`
	Recommendations []string           `json:"recommendations"`
	GradedAnswers   []GradedAnswer     `json:"graded_answers"`
	PendingReview   int                `json:"pending_review"`
}

// Attempt is a persisted, scored submission.
type Attempt struct {
	ID       string
	QuizID   string
	QuizType Type
	SprintID string
	UserID   string
	Number   int
	Elapsed  time.Duration
	Result
}
