package planner

import (
	"golang.org/x/mod/semver"

	"github.com/abhisek/pathwise/internal/fault"
)

// ContextVersion is the version of the Context schema this build produces.
// Planners accept any context with the same major version.
const ContextVersion = "v1.1.0"

// Context is everything a planner gets to produce one sprint.
type Context struct {
	Version string `json:"version"`

	Objective ObjectiveInfo `json:"objective"`
	Learner   LearnerInfo   `json:"learner"`

	// Day is the day number being planned.
	Day int `json:"day"`

	Continuity    Continuity          `json:"continuity"`
	Performance   *PerformanceSummary `json:"performance,omitempty"`
	NextMilestone *MilestoneInfo      `json:"next_milestone,omitempty"`
	Review        *ReviewFocus        `json:"review,omitempty"`

	Instructions []string `json:"instructions"`
}

type ObjectiveInfo struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	SkillIDs           []string `json:"skill_ids"`
	EstimatedTotalDays int      `json:"estimated_total_days"`
	Difficulty         int      `json:"difficulty"`
	Velocity           float64  `json:"velocity"`
}

type LearnerInfo struct {
	UserID       string   `json:"user_id"`
	Interests    []string `json:"interests,omitempty"`
	Strengths    []string `json:"strengths,omitempty"`
	Weaknesses   []string `json:"weaknesses,omitempty"`
	DailyMinutes int      `json:"daily_minutes"`
}

// Continuity describes the sprints immediately before Day, oldest first.
type Continuity struct {
	PreviousSprints []PriorSprint `json:"previous_sprints"`
}

type PriorSprint struct {
	Day             int      `json:"day"`
	Title           string   `json:"title"`
	Deliverables    []string `json:"deliverables,omitempty"`
	ReflectionNotes string   `json:"reflection_notes,omitempty"`
	Score           *float64 `json:"score,omitempty"`
}

type PerformanceSummary struct {
	AverageScore float64 `json:"average_score"`
	Trend        string  `json:"trend"`
	SprintCount  int     `json:"sprint_count"`
}

type MilestoneInfo struct {
	Title     string `json:"title"`
	TargetDay int    `json:"target_day"`
}

// ReviewFocus marks a review sprint and names the skills to revisit.
type ReviewFocus struct {
	SkillIDs []string `json:"skill_ids"`
	Reason   string   `json:"reason,omitempty"`
}

// CheckVersion rejects contexts whose version is malformed or has a
// different major version than ContextVersion.
func CheckVersion(v string) error {
	if !semver.IsValid(v) {
		return fault.Invalid("planner context version %q is not a semantic version", v)
	}
	if semver.Major(v) != semver.Major(ContextVersion) {
		return fault.Invalid("planner context version %s is incompatible with %s", v, ContextVersion)
	}
	return nil
}
