package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	entsqldrv "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	tableSkills     = "skills"
	tableUserSkills = "user_skills"
	tableReviews    = "review_schedules"
	tableQuizzes    = "quizzes"
	tableAttempts   = "quiz_attempts"
	tableObjectives = "objectives"
	tableMilestones = "milestones"
	tableProfiles   = "learner_profiles"
	tableSprints    = "sprints"
	tableLLMEvents  = "llm_request_events"
)

var (
	// SkillsColumns holds the columns for the "skills" table.
	SkillsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "tier", Type: field.TypeInt, Default: 1},
	}
	SkillsTable = &schema.Table{
		Name:       tableSkills,
		Columns:    SkillsColumns,
		PrimaryKey: []*schema.Column{SkillsColumns[0]},
	}

	UserSkillsColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "skill_id", Type: field.TypeString},
		{Name: "level", Type: field.TypeFloat64, Default: 0},
		{Name: "previous_level", Type: field.TypeFloat64, Default: 0},
		{Name: "status", Type: field.TypeString},
		{Name: "assessment_count", Type: field.TypeInt, Default: 0},
		{Name: "last_assessed_at", Type: field.TypeInt64, Nullable: true},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	UserSkillsTable = &schema.Table{
		Name:       tableUserSkills,
		Columns:    UserSkillsColumns,
		PrimaryKey: []*schema.Column{UserSkillsColumns[0], UserSkillsColumns[1]},
	}

	ReviewSchedulesColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "skill_id", Type: field.TypeString},
		{Name: "next_review_due_day", Type: field.TypeInt},
		{Name: "interval_days", Type: field.TypeInt},
		{Name: "ease_factor", Type: field.TypeFloat64},
		{Name: "review_count", Type: field.TypeInt, Default: 0},
		{Name: "last_review_score", Type: field.TypeFloat64, Nullable: true},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	ReviewSchedulesTable = &schema.Table{
		Name:       tableReviews,
		Columns:    ReviewSchedulesColumns,
		PrimaryKey: []*schema.Column{ReviewSchedulesColumns[0], ReviewSchedulesColumns[1]},
		Annotation: &entsql.Annotation{
			Checks: map[string]string{"interval_positive": "interval_days >= 1"},
		},
	}

	ObjectivesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Default: ""},
		{Name: "skill_ids", Type: field.TypeString, Default: "[]"},
		{Name: "estimated_total_days", Type: field.TypeInt},
		{Name: "current_day", Type: field.TypeInt, Default: 0},
		{Name: "completed_days", Type: field.TypeInt, Default: 0},
		{Name: "generation_mode", Type: field.TypeString},
		{Name: "auto_generate", Type: field.TypeBool, Default: false},
		{Name: "total_sprints_generated", Type: field.TypeInt, Default: 0},
		{Name: "difficulty", Type: field.TypeInt, Default: 3},
		{Name: "velocity", Type: field.TypeFloat64, Default: 1},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	ObjectivesTable = &schema.Table{
		Name:       tableObjectives,
		Columns:    ObjectivesColumns,
		PrimaryKey: []*schema.Column{ObjectivesColumns[0]},
		Annotation: &entsql.Annotation{
			Checks: map[string]string{
				"difficulty_range": "difficulty BETWEEN 1 AND 5",
				"velocity_range":   "velocity BETWEEN 0.5 AND 1.5",
			},
		},
	}

	MilestonesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "objective_id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "target_day", Type: field.TypeInt},
		{Name: "completed", Type: field.TypeBool, Default: false},
	}
	MilestonesTable = &schema.Table{
		Name:       tableMilestones,
		Columns:    MilestonesColumns,
		PrimaryKey: []*schema.Column{MilestonesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "milestones_objectives_milestones",
				Columns:    []*schema.Column{MilestonesColumns[1]},
				RefColumns: []*schema.Column{ObjectivesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	LearnerProfilesColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "interests", Type: field.TypeString, Default: "[]"},
		{Name: "strengths", Type: field.TypeString, Default: "[]"},
		{Name: "weaknesses", Type: field.TypeString, Default: "[]"},
		{Name: "daily_minutes", Type: field.TypeInt, Default: 60},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	LearnerProfilesTable = &schema.Table{
		Name:       tableProfiles,
		Columns:    LearnerProfilesColumns,
		PrimaryKey: []*schema.Column{LearnerProfilesColumns[0]},
	}

	SprintsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "objective_id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "day_number", Type: field.TypeInt},
		{Name: "title", Type: field.TypeString, Default: ""},
		{Name: "status", Type: field.TypeString},
		{Name: "completion_percentage", Type: field.TypeFloat64, Default: 0},
		{Name: "started_at", Type: field.TypeInt64, Nullable: true},
		{Name: "completed_at", Type: field.TypeInt64, Nullable: true},
		{Name: "next_sprint_id", Type: field.TypeString, Nullable: true},
		{Name: "is_auto_generated", Type: field.TypeBool, Default: false},
		{Name: "is_review", Type: field.TypeBool, Default: false},
		{Name: "review_skill_ids", Type: field.TypeString, Default: "[]"},
		{Name: "deliverables", Type: field.TypeString, Default: "[]"},
		{Name: "reflection_notes", Type: field.TypeString, Default: ""},
		{Name: "score", Type: field.TypeFloat64, Nullable: true},
		{Name: "estimated_hours", Type: field.TypeFloat64, Default: 0},
		{Name: "difficulty_label", Type: field.TypeString, Default: ""},
		{Name: "plan", Type: field.TypeString, Default: "{}"},
		{Name: "context_version", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeInt64},
	}
	SprintsTable = &schema.Table{
		Name:       tableSprints,
		Columns:    SprintsColumns,
		PrimaryKey: []*schema.Column{SprintsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "sprints_objectives_sprints",
				Columns:    []*schema.Column{SprintsColumns[1]},
				RefColumns: []*schema.Column{ObjectivesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "sprint_objective_day",
				Unique:  true,
				Columns: []*schema.Column{SprintsColumns[1], SprintsColumns[3]},
			},
		},
		Annotation: &entsql.Annotation{
			Checks: map[string]string{"day_positive": "day_number >= 1"},
		},
	}

	QuizzesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "objective_id", Type: field.TypeString, Default: ""},
		{Name: "sprint_id", Type: field.TypeString, Nullable: true},
		{Name: "type", Type: field.TypeString},
		{Name: "questions", Type: field.TypeString, Default: "[]"},
		{Name: "passing_score", Type: field.TypeFloat64},
		{Name: "attempts_allowed", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeInt64},
	}
	QuizzesTable = &schema.Table{
		Name:       tableQuizzes,
		Columns:    QuizzesColumns,
		PrimaryKey: []*schema.Column{QuizzesColumns[0]},
	}

	QuizAttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "quiz_id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "attempt_number", Type: field.TypeInt},
		{Name: "score", Type: field.TypeFloat64},
		{Name: "passed", Type: field.TypeBool},
		{Name: "skill_scores", Type: field.TypeString, Default: "{}"},
		{Name: "graded_answers", Type: field.TypeString, Default: "[]"},
		{Name: "pending_review", Type: field.TypeInt, Default: 0},
		{Name: "elapsed_ms", Type: field.TypeInt64, Default: 0},
		{Name: "created_at", Type: field.TypeInt64},
	}
	QuizAttemptsTable = &schema.Table{
		Name:       tableAttempts,
		Columns:    QuizAttemptsColumns,
		PrimaryKey: []*schema.Column{QuizAttemptsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "quiz_attempts_quizzes_attempts",
				Columns:    []*schema.Column{QuizAttemptsColumns[1]},
				RefColumns: []*schema.Column{QuizzesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "quiz_attempt_number",
				Unique:  true,
				Columns: []*schema.Column{QuizAttemptsColumns[1], QuizAttemptsColumns[2], QuizAttemptsColumns[3]},
			},
		},
		Annotation: &entsql.Annotation{
			Checks: map[string]string{"attempt_positive": "attempt_number >= 1"},
		},
	}

	LLMRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Default: ""},
		{Name: "response_body", Type: field.TypeString, Default: ""},
	}
	LLMRequestEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    LLMRequestEventsColumns,
		PrimaryKey: []*schema.Column{LLMRequestEventsColumns[0]},
	}

	// Tables holds every table, in dependency order.
	Tables = []*schema.Table{
		SkillsTable,
		UserSkillsTable,
		ReviewSchedulesTable,
		ObjectivesTable,
		MilestonesTable,
		LearnerProfilesTable,
		SprintsTable,
		QuizzesTable,
		QuizAttemptsTable,
		LLMRequestEventsTable,
	}
)

func init() {
	MilestonesTable.ForeignKeys[0].RefTable = ObjectivesTable
	SprintsTable.ForeignKeys[0].RefTable = ObjectivesTable
	QuizAttemptsTable.ForeignKeys[0].RefTable = QuizzesTable
}

// migrate creates missing tables and indexes. Existing tables are altered
// additively; nothing is dropped.
func migrate(ctx context.Context, db *sql.DB) error {
	m, err := schema.NewMigrate(entsqldrv.OpenDB(dialect.SQLite, db))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
