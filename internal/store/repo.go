package store

import (
	"context"
	"errors"
	"time"
)

// ErrConflict is returned when a write loses a uniqueness race.
var ErrConflict = errors.New("store: conflict")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact purpose match when set
	From    time.Time
	To      time.Time
}

type Skill struct {
	ID   string
	Name string
	Tier int
}

// UserSkill is one learner's mastery record for one skill.
type UserSkill struct {
	UserID          string
	SkillID         string
	Level           float64
	PreviousLevel   float64
	Status          string
	AssessmentCount int
	LastAssessedAt  *time.Time
	UpdatedAt       time.Time
}

type ReviewSchedule struct {
	UserID           string
	SkillID          string
	NextReviewDueDay int
	IntervalDays     int
	EaseFactor       float64
	ReviewCount      int
	LastReviewScore  *float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// QuestionData is the persisted form of a quiz question.
type QuestionData struct {
	ID               string   `json:"id"`
	Type             string   `json:"type"`
	Prompt           string   `json:"prompt,omitempty"`
	Points           float64  `json:"points"`
	SkillIDs         []string `json:"skill_ids"`
	Options          []string `json:"options,omitempty"`
	CorrectOptionIDs []string `json:"correct_option_ids,omitempty"`
	ExpectedOutput   string   `json:"expected_output,omitempty"`
}

type Quiz struct {
	ID              string
	ObjectiveID     string
	SprintID        string
	Type            string
	Questions       []QuestionData
	PassingScore    float64
	AttemptsAllowed int
	CreatedAt       time.Time
}

// GradedAnswerData records how one answer was graded.
type GradedAnswerData struct {
	QuestionID string   `json:"question_id"`
	Answer     []string `json:"answer,omitempty"`
	Verdict    string   `json:"verdict"`
	Points     float64  `json:"points"`
	Earned     float64  `json:"earned"`
}

type QuizAttempt struct {
	ID            string
	QuizID        string
	UserID        string
	AttemptNumber int
	Score         float64
	Passed        bool
	SkillScores   map[string]float64
	GradedAnswers []GradedAnswerData
	PendingReview int
	Elapsed       time.Duration
	CreatedAt     time.Time
}

type Objective struct {
	ID                    string
	UserID                string
	Title                 string
	Description           string
	SkillIDs              []string
	EstimatedTotalDays    int
	CurrentDay            int
	CompletedDays         int
	GenerationMode        string
	AutoGenerate          bool
	TotalSprintsGenerated int
	Difficulty            int
	Velocity              float64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type Milestone struct {
	ID          string
	ObjectiveID string
	Title       string
	TargetDay   int
	Completed   bool
}

type LearnerProfile struct {
	UserID       string
	Interests    []string
	Strengths    []string
	Weaknesses   []string
	DailyMinutes int
	UpdatedAt    time.Time
}

// Sprint statuses.
const (
	SprintGenerated  = "generated"
	SprintInProgress = "in_progress"
	SprintCompleted  = "completed"
)

type Sprint struct {
	ID                   string
	ObjectiveID          string
	UserID               string
	DayNumber            int
	Title                string
	Status               string
	CompletionPercentage float64
	StartedAt            *time.Time
	CompletedAt          *time.Time
	NextSprintID         string
	IsAutoGenerated      bool
	IsReview             bool
	ReviewSkillIDs       []string
	Deliverables         []string
	ReflectionNotes      string
	Score                *float64
	EstimatedHours       float64
	DifficultyLabel      string
	Plan                 []byte // planner output as JSON
	ContextVersion       string
	CreatedAt            time.Time
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLMRequestEventData.
type LLMRequestEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo records and reads LLM request audit events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	// GetLLMEvent returns nil when the event does not exist.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)
}

type SkillRepo interface {
	Upsert(ctx context.Context, s Skill) error
	Get(ctx context.Context, id string) (*Skill, error)
	List(ctx context.Context) ([]Skill, error)
}

type UserSkillRepo interface {
	// Get returns nil when the learner has no record for the skill.
	Get(ctx context.Context, userID, skillID string) (*UserSkill, error)
	Save(ctx context.Context, us UserSkill) error
	List(ctx context.Context, userID string, skillIDs []string) ([]UserSkill, error)
}

type ReviewRepo interface {
	// Get returns nil when no schedule exists.
	Get(ctx context.Context, userID, skillID string) (*ReviewSchedule, error)
	// Create inserts a schedule; ErrConflict if one already exists.
	Create(ctx context.Context, rs ReviewSchedule) error
	Save(ctx context.Context, rs ReviewSchedule) error
	// Due lists schedules for skillIDs with NextReviewDueDay <= day.
	Due(ctx context.Context, userID string, skillIDs []string, day int) ([]ReviewSchedule, error)
}

type QuizRepo interface {
	Create(ctx context.Context, q Quiz) error
	Get(ctx context.Context, id string) (*Quiz, error)
}

type AttemptRepo interface {
	Count(ctx context.Context, quizID, userID string) (int, error)
	// Create inserts an attempt; ErrConflict if the attempt number is taken.
	Create(ctx context.Context, a QuizAttempt) error
	List(ctx context.Context, quizID, userID string) ([]QuizAttempt, error)
}

type ObjectiveRepo interface {
	Create(ctx context.Context, o Objective) error
	Get(ctx context.Context, id string) (*Objective, error)
	List(ctx context.Context, userID string) ([]Objective, error)
	// ListAutoGenerating returns objectives with auto-generation enabled.
	ListAutoGenerating(ctx context.Context) ([]Objective, error)
	UpdatePacing(ctx context.Context, id string, difficulty int, velocity float64) error
}

type MilestoneRepo interface {
	Create(ctx context.Context, m Milestone) error
	// NextIncomplete returns the earliest incomplete milestone, or nil.
	NextIncomplete(ctx context.Context, objectiveID string) (*Milestone, error)
	List(ctx context.Context, objectiveID string) ([]Milestone, error)
}

type ProfileRepo interface {
	Save(ctx context.Context, p LearnerProfile) error
	// Get returns nil when the learner has no profile.
	Get(ctx context.Context, userID string) (*LearnerProfile, error)
}

type SprintRepo interface {
	Get(ctx context.Context, id string) (*Sprint, error)
	// GetByDay returns nil when no sprint exists for the day.
	GetByDay(ctx context.Context, objectiveID string, day int) (*Sprint, error)
	// Last returns the highest-day sprint, or nil.
	Last(ctx context.Context, objectiveID string) (*Sprint, error)
	// Recent returns up to n sprints before beforeDay, ascending by day.
	Recent(ctx context.Context, objectiveID string, beforeDay, n int) ([]Sprint, error)
	// RecentCompleted returns up to n completed, scored sprints, ascending by day.
	RecentCompleted(ctx context.Context, objectiveID string, n int) ([]Sprint, error)
	List(ctx context.Context, objectiveID string) ([]Sprint, error)
	// PendingReviews returns review sprints not yet completed, ascending by day.
	PendingReviews(ctx context.Context, objectiveID string) ([]Sprint, error)
	// CreateNext inserts s, links the preceding sprint to it and advances
	// the objective counters in one transaction. ErrConflict when the day
	// is already taken.
	CreateNext(ctx context.Context, s Sprint) error
	Start(ctx context.Context, id string, at time.Time) error
	// Complete marks the sprint completed and bumps the objective's
	// completed day count. Completing twice is a no-op.
	Complete(ctx context.Context, id string, score *float64, reflection string, at time.Time) error
}
