package spacedrep

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/abhisek/pathwise/internal/fault"
	"github.com/abhisek/pathwise/internal/notify"
	"github.com/abhisek/pathwise/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestScheduler(t *testing.T) (*Scheduler, *store.Store, *notify.Recorder) {
	t.Helper()
	st := openTestStore(t)
	rec := &notify.Recorder{}
	err := st.ObjectiveRepo().Create(context.Background(), store.Objective{
		ID:                 "obj-1",
		UserID:             "u1",
		Title:              "Go concurrency",
		SkillIDs:           []string{"goroutines", "channels", "select", "mutex"},
		EstimatedTotalDays: 30,
		GenerationMode:     "DAILY",
		AutoGenerate:       true,
		Difficulty:         3,
		Velocity:           1,
	})
	if err != nil {
		t.Fatalf("create objective: %v", err)
	}
	return NewScheduler(st.ReviewRepo(), st.UserSkillRepo(), st.ObjectiveRepo(), nil, rec, nil), st, rec
}

func TestScheduleSkillReview_CreatesOnce(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	ctx := context.Background()

	rs, err := s.ScheduleSkillReview(ctx, "u1", "channels", 30, 4)
	if err != nil {
		t.Fatalf("ScheduleSkillReview: %v", err)
	}
	if rs.IntervalDays != 1 || rs.EaseFactor != 2.5 || rs.ReviewCount != 0 || rs.NextReviewDueDay != 5 {
		t.Fatalf("unexpected schedule: %+v", rs)
	}

	again, err := s.ScheduleSkillReview(ctx, "u1", "channels", 90, 9)
	if err != nil {
		t.Fatalf("ScheduleSkillReview again: %v", err)
	}
	if again.NextReviewDueDay != 5 {
		t.Fatalf("existing schedule changed: %+v", again)
	}
}

func TestUpdateReviewSchedule(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	ctx := context.Background()

	if _, err := s.UpdateReviewSchedule(ctx, "u1", "mutex", 90, 1); !fault.IsNotFound(err) {
		t.Fatalf("expected not found for missing schedule, got %v", err)
	}

	if _, err := s.ScheduleSkillReview(ctx, "u1", "mutex", 40, 1); err != nil {
		t.Fatal(err)
	}

	prev := 1
	day := 2
	for i := range 4 {
		rs, err := s.UpdateReviewSchedule(ctx, "u1", "mutex", 85, day)
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
		if rs.IntervalDays <= prev {
			t.Fatalf("update %d: interval %d not above %d", i, rs.IntervalDays, prev)
		}
		if rs.NextReviewDueDay != day+rs.IntervalDays {
			t.Fatalf("update %d: due %d, want %d", i, rs.NextReviewDueDay, day+rs.IntervalDays)
		}
		prev = rs.IntervalDays
		day = rs.NextReviewDueDay
	}

	rs, err := s.UpdateReviewSchedule(ctx, "u1", "mutex", 30, day)
	if err != nil {
		t.Fatal(err)
	}
	if rs.IntervalDays != 1 || rs.ReviewCount != 0 || rs.NextReviewDueDay != day+1 {
		t.Fatalf("expected reset, got %+v", rs)
	}
	if rs.LastReviewScore == nil || *rs.LastReviewScore != 30 {
		t.Fatalf("last score not recorded: %+v", rs.LastReviewScore)
	}
}

func TestShouldInsertReviewSprint(t *testing.T) {
	s, st, rec := newTestScheduler(t)
	ctx := context.Background()
	users := st.UserSkillRepo()

	// Due days: channels 3 (developing), select 2 (mastered, declining),
	// mutex 2 (mastered, steady), goroutines 9.
	seed := []struct {
		skill  string
		day    int
		level  float64
		prev   float64
		status string
	}{
		{"channels", 2, 40, 30, "developing"},
		{"select", 1, 86, 92, "mastered"},
		{"mutex", 1, 95, 90, "mastered"},
		{"goroutines", 8, 20, 10, "not_started"},
	}
	for _, sd := range seed {
		if _, err := s.ScheduleSkillReview(ctx, "u1", sd.skill, sd.level, sd.day); err != nil {
			t.Fatal(err)
		}
		if err := users.Save(ctx, store.UserSkill{UserID: "u1", SkillID: sd.skill, Level: sd.level, PreviousLevel: sd.prev, Status: sd.status, AssessmentCount: 2}); err != nil {
			t.Fatal(err)
		}
	}

	d, err := s.ShouldInsertReviewSprint(ctx, "obj-1", "u1", 5)
	if err != nil {
		t.Fatalf("ShouldInsertReviewSprint: %v", err)
	}
	if !d.ShouldInsert {
		t.Fatalf("expected a review sprint, got %+v", d)
	}
	want := []string{"select", "channels"}
	if len(d.SkillsToReview) != len(want) || d.SkillsToReview[0] != want[0] || d.SkillsToReview[1] != want[1] {
		t.Fatalf("skills = %v, want %v", d.SkillsToReview, want)
	}
	if n := len(rec.OfType(notify.ReviewNeeded)); n != 1 {
		t.Fatalf("expected 1 review_needed event, got %d", n)
	}

	d, err = s.ShouldInsertReviewSprint(ctx, "obj-1", "u1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if d.ShouldInsert || d.Reason != "no review needed" {
		t.Fatalf("nothing is due on day 1, got %+v", d)
	}
}

func TestShouldInsertReviewSprint_UnknownObjective(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	if _, err := s.ShouldInsertReviewSprint(context.Background(), "nope", "u1", 1); !fault.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
