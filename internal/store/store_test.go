package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/pathwise/internal/fault"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedObjective(t *testing.T, s *Store, id string) Objective {
	t.Helper()
	o := Objective{
		ID:                 id,
		UserID:             "u1",
		Title:              "Learn Go concurrency",
		SkillIDs:           []string{"goroutines", "channels"},
		EstimatedTotalDays: 10,
		GenerationMode:     "DAILY",
		AutoGenerate:       true,
		Difficulty:         3,
		Velocity:           1.0,
	}
	if err := s.ObjectiveRepo().Create(context.Background(), o); err != nil {
		t.Fatalf("create objective: %v", err)
	}
	return o
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{tableSkills, tableUserSkills, tableReviews, tableQuizzes,
		tableAttempts, tableObjectives, tableMilestones, tableProfiles, tableSprints, tableLLMEvents} {
		var name string
		err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}

	// Running migrations again is harmless.
	if err := migrate(context.Background(), s.DB()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestDSN(t *testing.T) {
	if got := DSN("/tmp/p.db"); got != "file:/tmp/p.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)" {
		t.Errorf("DSN = %q", got)
	}
	if got := DSN("file::memory:"); got != "file::memory:" {
		t.Errorf("DSN passthrough = %q", got)
	}
}

func TestObjectiveNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ObjectiveRepo().Get(context.Background(), "missing")
	if !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestObjectiveRoundTripAndPacing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedObjective(t, s, "o1")

	repo := s.ObjectiveRepo()
	if err := repo.UpdatePacing(ctx, "o1", 4, 1.1); err != nil {
		t.Fatalf("update pacing: %v", err)
	}
	o, err := repo.Get(ctx, "o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if o.Difficulty != 4 || o.Velocity != 1.1 {
		t.Errorf("pacing = %d/%v, want 4/1.1", o.Difficulty, o.Velocity)
	}
	if len(o.SkillIDs) != 2 || o.SkillIDs[1] != "channels" {
		t.Errorf("skill ids = %v", o.SkillIDs)
	}
	if !o.AutoGenerate {
		t.Error("expected auto-generate")
	}

	auto, err := repo.ListAutoGenerating(ctx)
	if err != nil {
		t.Fatalf("list auto: %v", err)
	}
	if len(auto) != 1 {
		t.Errorf("auto objectives = %d, want 1", len(auto))
	}

	if err := repo.UpdatePacing(ctx, "nope", 1, 1); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("update missing = %v, want ErrNotFound", err)
	}
}

func TestSchemaCreatesTablesAndUniqueIndexes(t *testing.T) {
	s := openTestStore(t)

	for _, tbl := range Tables {
		var name string
		err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", tbl.Name).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", tbl.Name, err)
		}
	}
	for _, idx := range []string{"sprint_objective_day", "quiz_attempt_number"} {
		var sqlText string
		err := s.DB().QueryRow("SELECT sql FROM sqlite_master WHERE type = 'index' AND name = ?", idx).Scan(&sqlText)
		if err != nil {
			t.Errorf("index %s: %v", idx, err)
			continue
		}
		if !strings.Contains(strings.ToUpper(sqlText), "UNIQUE") {
			t.Errorf("index %s is not unique: %s", idx, sqlText)
		}
	}

	// Opening the same database again is a no-op migration.
	if err := migrate(context.Background(), s.DB()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestObjectivePacingDefaultsAndBounds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.ObjectiveRepo()

	o := Objective{ID: "o-default", UserID: "u1", Title: "t", EstimatedTotalDays: 5, GenerationMode: "DAILY"}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.Get(ctx, "o-default")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Difficulty != DefaultDifficulty || got.Velocity != DefaultVelocity {
		t.Errorf("pacing = %d/%v, want defaults", got.Difficulty, got.Velocity)
	}

	bad := o
	bad.ID = "o-fast"
	bad.Velocity = 2
	if err := repo.Create(ctx, bad); !errors.Is(err, fault.ErrInvalidRequest) {
		t.Errorf("velocity 2 = %v, want ErrInvalidRequest", err)
	}
	if err := repo.UpdatePacing(ctx, "o-default", 6, 1); !errors.Is(err, fault.ErrInvalidRequest) {
		t.Errorf("difficulty 6 = %v, want ErrInvalidRequest", err)
	}
}

func TestSprintCreateNextLinksAndCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedObjective(t, s, "o1")
	repo := s.SprintRepo()

	for day := 1; day <= 3; day++ {
		err := repo.CreateNext(ctx, Sprint{
			ID:           uuid.NewString(),
			ObjectiveID:  "o1",
			UserID:       "u1",
			DayNumber:    day,
			Title:        "day",
			Deliverables: []string{"a working program"},
			Plan:         []byte(`{"title":"day"}`),
		})
		if err != nil {
			t.Fatalf("create day %d: %v", day, err)
		}
	}

	sprints, err := repo.List(ctx, "o1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sprints) != 3 {
		t.Fatalf("sprints = %d, want 3", len(sprints))
	}
	for i, sp := range sprints {
		if sp.DayNumber != i+1 {
			t.Errorf("sprint %d day = %d", i, sp.DayNumber)
		}
		if i < 2 && sp.NextSprintID != sprints[i+1].ID {
			t.Errorf("sprint day %d next = %q, want %q", sp.DayNumber, sp.NextSprintID, sprints[i+1].ID)
		}
		if sp.Status != SprintGenerated {
			t.Errorf("status = %q", sp.Status)
		}
	}
	if sprints[2].NextSprintID != "" {
		t.Errorf("last sprint should not link forward")
	}

	o, err := s.ObjectiveRepo().Get(ctx, "o1")
	if err != nil {
		t.Fatalf("get objective: %v", err)
	}
	if o.CurrentDay != 3 || o.TotalSprintsGenerated != 3 {
		t.Errorf("counters current=%d total=%d, want 3/3", o.CurrentDay, o.TotalSprintsGenerated)
	}
}

func TestSprintCreateNextConflictRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedObjective(t, s, "o1")
	repo := s.SprintRepo()

	first := Sprint{ID: "s1", ObjectiveID: "o1", UserID: "u1", DayNumber: 1}
	if err := repo.CreateNext(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := Sprint{ID: "s2", ObjectiveID: "o1", UserID: "u1", DayNumber: 1}
	if err := repo.CreateNext(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate day err = %v, want ErrConflict", err)
	}

	o, _ := s.ObjectiveRepo().Get(ctx, "o1")
	if o.TotalSprintsGenerated != 1 {
		t.Errorf("total = %d, want 1 after rolled back conflict", o.TotalSprintsGenerated)
	}
	got, err := repo.GetByDay(ctx, "o1", 1)
	if err != nil || got == nil || got.ID != "s1" {
		t.Errorf("day 1 = %+v, %v", got, err)
	}
}

func TestSprintCreateNextFillsGap(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedObjective(t, s, "o1")
	repo := s.SprintRepo()

	for _, sp := range []Sprint{
		{ID: "d1", ObjectiveID: "o1", UserID: "u1", DayNumber: 1},
		{ID: "d3", ObjectiveID: "o1", UserID: "u1", DayNumber: 3},
		{ID: "d2", ObjectiveID: "o1", UserID: "u1", DayNumber: 2},
	} {
		if err := repo.CreateNext(ctx, sp); err != nil {
			t.Fatalf("create %s: %v", sp.ID, err)
		}
	}

	d1, _ := repo.Get(ctx, "d1")
	d2, _ := repo.Get(ctx, "d2")
	if d1.NextSprintID != "d2" || d2.NextSprintID != "d3" {
		t.Errorf("chain d1->%s d2->%s, want d2, d3", d1.NextSprintID, d2.NextSprintID)
	}
	o, _ := s.ObjectiveRepo().Get(ctx, "o1")
	if o.CurrentDay != 3 {
		t.Errorf("current day = %d, want 3", o.CurrentDay)
	}
}

func TestSprintCompleteOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedObjective(t, s, "o1")
	repo := s.SprintRepo()

	if err := repo.CreateNext(ctx, Sprint{ID: "s1", ObjectiveID: "o1", UserID: "u1", DayNumber: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	now := time.Now()
	if err := repo.Start(ctx, "s1", now); err != nil {
		t.Fatalf("start: %v", err)
	}

	score := 88.0
	for i := 0; i < 2; i++ {
		if err := repo.Complete(ctx, "s1", &score, "went well", now); err != nil {
			t.Fatalf("complete %d: %v", i, err)
		}
	}

	sp, _ := repo.Get(ctx, "s1")
	if sp.Status != SprintCompleted || sp.Score == nil || *sp.Score != 88 {
		t.Errorf("sprint = %+v", sp)
	}
	if sp.CompletedAt == nil || sp.StartedAt == nil {
		t.Error("expected timestamps")
	}
	o, _ := s.ObjectiveRepo().Get(ctx, "o1")
	if o.CompletedDays != 1 {
		t.Errorf("completed days = %d, want 1", o.CompletedDays)
	}

	if err := repo.Start(ctx, "s1", now); !errors.Is(err, fault.ErrInvalidRequest) {
		t.Errorf("start completed = %v, want ErrInvalidRequest", err)
	}

	done, err := repo.RecentCompleted(ctx, "o1", 5)
	if err != nil || len(done) != 1 {
		t.Errorf("recent completed = %v, %v", done, err)
	}
}

func TestSprintRecentIsAscending(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedObjective(t, s, "o1")
	repo := s.SprintRepo()

	for day := 1; day <= 5; day++ {
		if err := repo.CreateNext(ctx, Sprint{ID: uuid.NewString(), ObjectiveID: "o1", UserID: "u1", DayNumber: day}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	recent, err := repo.Recent(ctx, "o1", 5, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 || recent[0].DayNumber != 2 || recent[2].DayNumber != 4 {
		t.Errorf("recent days = %v", recent)
	}
	last, _ := repo.Last(ctx, "o1")
	if last.DayNumber != 5 {
		t.Errorf("last = %d", last.DayNumber)
	}
}

func TestUserSkillAndReview(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	us, err := s.UserSkillRepo().Get(ctx, "u1", "channels")
	if err != nil || us != nil {
		t.Fatalf("absent user skill = %v, %v", us, err)
	}

	now := time.Now()
	for _, level := range []float64{30, 51} {
		err := s.UserSkillRepo().Save(ctx, UserSkill{
			UserID: "u1", SkillID: "channels", Level: level, Status: "developing", LastAssessedAt: &now,
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	us, err = s.UserSkillRepo().Get(ctx, "u1", "channels")
	if err != nil || us.Level != 51 {
		t.Fatalf("user skill = %+v, %v", us, err)
	}

	rs := ReviewSchedule{UserID: "u1", SkillID: "channels", NextReviewDueDay: 2, IntervalDays: 1, EaseFactor: 2.5}
	if err := s.ReviewRepo().Create(ctx, rs); err != nil {
		t.Fatalf("create review: %v", err)
	}
	if err := s.ReviewRepo().Create(ctx, rs); !errors.Is(err, ErrConflict) {
		t.Fatalf("second create = %v, want ErrConflict", err)
	}

	due, err := s.ReviewRepo().Due(ctx, "u1", []string{"channels", "goroutines"}, 1)
	if err != nil || len(due) != 0 {
		t.Fatalf("due day 1 = %v, %v", due, err)
	}
	due, err = s.ReviewRepo().Due(ctx, "u1", []string{"channels", "goroutines"}, 2)
	if err != nil || len(due) != 1 {
		t.Fatalf("due day 2 = %v, %v", due, err)
	}

	score := 90.0
	rs.IntervalDays, rs.NextReviewDueDay, rs.ReviewCount, rs.LastReviewScore = 3, 5, 1, &score
	if err := s.ReviewRepo().Save(ctx, rs); err != nil {
		t.Fatalf("save review: %v", err)
	}
	got, _ := s.ReviewRepo().Get(ctx, "u1", "channels")
	if got.IntervalDays != 3 || got.LastReviewScore == nil || *got.LastReviewScore != 90 {
		t.Errorf("review = %+v", got)
	}
}

func TestQuizAndAttempts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	q := Quiz{
		ID:           "q1",
		Type:         "post_sprint",
		PassingScore: 80,
		Questions: []QuestionData{
			{ID: "q1-1", Type: "multiple_choice", Points: 1, SkillIDs: []string{"channels"}, CorrectOptionIDs: []string{"b"}},
		},
		AttemptsAllowed: 2,
	}
	if err := s.QuizRepo().Create(ctx, q); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	got, err := s.QuizRepo().Get(ctx, "q1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(got.Questions) != 1 || got.Questions[0].CorrectOptionIDs[0] != "b" {
		t.Errorf("questions = %+v", got.Questions)
	}
	if _, err := s.QuizRepo().Get(ctx, "nope"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("missing quiz = %v", err)
	}

	a := QuizAttempt{ID: "a1", QuizID: "q1", UserID: "u1", AttemptNumber: 1, Score: 75,
		SkillScores: map[string]float64{"channels": 75}, Elapsed: 90 * time.Second}
	if err := s.AttemptRepo().Create(ctx, a); err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	a.ID = "a2"
	if err := s.AttemptRepo().Create(ctx, a); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate attempt number = %v, want ErrConflict", err)
	}
	n, err := s.AttemptRepo().Count(ctx, "q1", "u1")
	if err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}
	list, err := s.AttemptRepo().List(ctx, "q1", "u1")
	if err != nil || len(list) != 1 || list[0].Elapsed != 90*time.Second || list[0].SkillScores["channels"] != 75 {
		t.Fatalf("attempts = %+v, %v", list, err)
	}
}

func TestProfileAndMilestones(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedObjective(t, s, "o1")

	p, err := s.ProfileRepo().Get(ctx, "u1")
	if err != nil || p != nil {
		t.Fatalf("absent profile = %v, %v", p, err)
	}
	if err := s.ProfileRepo().Save(ctx, LearnerProfile{UserID: "u1", Strengths: []string{"goroutines"}, DailyMinutes: 45}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	p, _ = s.ProfileRepo().Get(ctx, "u1")
	if p.DailyMinutes != 45 || len(p.Strengths) != 1 || len(p.Interests) != 0 {
		t.Errorf("profile = %+v", p)
	}

	for _, m := range []Milestone{
		{ID: "m2", ObjectiveID: "o1", Title: "Pipeline", TargetDay: 8},
		{ID: "m1", ObjectiveID: "o1", Title: "Worker pool", TargetDay: 4, Completed: true},
		{ID: "m3", ObjectiveID: "o1", Title: "Fan-in", TargetDay: 6},
	} {
		if err := s.MilestoneRepo().Create(ctx, m); err != nil {
			t.Fatalf("create milestone: %v", err)
		}
	}
	next, err := s.MilestoneRepo().NextIncomplete(ctx, "o1")
	if err != nil || next == nil || next.ID != "m3" {
		t.Fatalf("next milestone = %+v, %v", next, err)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	for _, purpose := range []string{"sprint-plan", "other", "sprint-plan"} {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider: "mock", Model: "mock", Purpose: purpose, Success: true, InputTokens: 10,
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "sprint-plan"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 || events[0].ID <= events[1].ID {
		t.Fatalf("events = %+v", events)
	}

	e, err := repo.GetLLMEvent(ctx, events[0].ID)
	if err != nil || e == nil || e.InputTokens != 10 || !e.Success {
		t.Fatalf("get = %+v, %v", e, err)
	}
	if e, _ := repo.GetLLMEvent(ctx, 999); e != nil {
		t.Error("expected nil for missing event")
	}
}

func TestSkills(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.SkillRepo()

	for _, sk := range []Skill{{ID: "goroutines", Name: "Goroutines", Tier: 1}, {ID: "channels", Name: "Chans", Tier: 2}} {
		if err := repo.Upsert(ctx, sk); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if err := repo.Upsert(ctx, Skill{ID: "channels", Name: "Channels", Tier: 2}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	got, err := repo.Get(ctx, "channels")
	if err != nil || got.Name != "Channels" {
		t.Fatalf("get = %+v, %v", got, err)
	}
	all, _ := repo.List(ctx)
	if len(all) != 2 || all[0].ID != "channels" {
		t.Errorf("list = %+v", all)
	}
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("missing = %v", err)
	}
}

func TestSprintPendingReviews(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedObjective(t, s, "o1")
	repo := s.SprintRepo()

	sprints := []Sprint{
		{ID: "s1", ObjectiveID: "o1", UserID: "u1", DayNumber: 1},
		{ID: "r2", ObjectiveID: "o1", UserID: "u1", DayNumber: 2, IsReview: true, ReviewSkillIDs: []string{"channels"}},
		{ID: "r3", ObjectiveID: "o1", UserID: "u1", DayNumber: 3, IsReview: true, ReviewSkillIDs: []string{"goroutines"}},
		{ID: "r4", ObjectiveID: "o1", UserID: "u1", DayNumber: 4, IsReview: true, ReviewSkillIDs: []string{"channels"}},
	}
	for _, sp := range sprints {
		if err := repo.CreateNext(ctx, sp); err != nil {
			t.Fatalf("create %s: %v", sp.ID, err)
		}
	}
	if err := repo.Start(ctx, "r3", time.Now()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := repo.Complete(ctx, "r4", nil, "", time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	pending, err := repo.PendingReviews(ctx, "o1")
	if err != nil {
		t.Fatalf("pending reviews: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "r2" || pending[1].ID != "r3" {
		t.Fatalf("pending = %+v, want r2 and r3", pending)
	}
	if pending[0].ReviewSkillIDs[0] != "channels" {
		t.Errorf("review skills = %v", pending[0].ReviewSkillIDs)
	}
}
