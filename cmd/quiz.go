package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/fault"
	"github.com/abhisek/pathwise/internal/grading"
	"github.com/abhisek/pathwise/internal/quiz"
	"github.com/abhisek/pathwise/internal/store"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

// quizFile is the JSON layout read by the quiz commands.
type quizFile struct {
	ID              string                    `json:"id"`
	ObjectiveID     string                    `json:"objective_id"`
	SprintID        string                    `json:"sprint_id"`
	Type            string                    `json:"type"`
	Questions       []store.QuestionData      `json:"questions"`
	PassingScore    float64                   `json:"passing_score"`
	AttemptsAllowed int                       `json:"attempts_allowed"`
	Answers         map[string]grading.Answer `json:"answers,omitempty"`
}

func readQuizFile(path string) (*quizFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quiz file: %w", err)
	}
	var qf quizFile
	if err := json.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parse quiz file: %w", err)
	}
	if len(qf.Questions) == 0 {
		return nil, fault.Invalid("quiz file %s has no questions", path)
	}
	return &qf, nil
}

func (qf *quizFile) record() store.Quiz {
	return store.Quiz{
		ID:              qf.ID,
		ObjectiveID:     qf.ObjectiveID,
		SprintID:        qf.SprintID,
		Type:            qf.Type,
		Questions:       qf.Questions,
		PassingScore:    qf.PassingScore,
		AttemptsAllowed: qf.AttemptsAllowed,
	}
}

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Grade and register quizzes",
}

var quizGradeCmd = &cobra.Command{
	Use:   "grade <file.json>",
	Short: "Score a quiz and its answers offline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qf, err := readQuizFile(args[0])
		if err != nil {
			return err
		}
		res := quiz.Score(quiz.FromRecord(qf.record()), qf.Answers)

		fmt.Println(theme.Field("Score", fmt.Sprintf("%.1f (%.1f / %.1f points)", res.Score, res.EarnedPoints, res.TotalPoints)))
		fmt.Println(theme.Field("Passed", theme.Mark(res.Passed)))
		if res.PendingReview > 0 {
			fmt.Println(theme.Field("Manual review", res.PendingReview))
		}

		fmt.Println()
		for _, ga := range res.GradedAnswers {
			fmt.Printf("  %-12s %-28s %4.1f / %.1f\n", ga.QuestionID, theme.Status(verdictStatus(ga.Verdict)), ga.Earned, ga.Points)
		}

		skills := make([]string, 0, len(res.SkillScores))
		for s := range res.SkillScores {
			skills = append(skills, s)
		}
		sort.Strings(skills)
		fmt.Println()
		for _, s := range skills {
			fmt.Printf("  %-20s %5.1f\n", s, res.SkillScores[s])
		}

		fmt.Println()
		for _, r := range res.Recommendations {
			fmt.Println(theme.Hint.Render(r))
		}
		return nil
	},
}

func verdictStatus(v grading.Verdict) string {
	switch v {
	case grading.Correct:
		return "passed"
	case grading.Incorrect:
		return "failed"
	}
	return string(v)
}

var quizAddCmd = &cobra.Command{
	Use:   "add <file.json>",
	Short: "Store a quiz so sprint completion can grade it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qf, err := readQuizFile(args[0])
		if err != nil {
			return err
		}
		if qf.ID == "" {
			qf.ID = uuid.NewString()
		}
		switch quiz.Type(qf.Type) {
		case quiz.PreSprint, quiz.PostSprint, quiz.SkillCheck, quiz.Review, quiz.Milestone:
		default:
			return fault.Invalid("unknown quiz type %q", qf.Type)
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.QuizRepo().Create(cmd.Context(), qf.record()); err != nil {
			return err
		}
		fmt.Println(qf.ID)
		return nil
	},
}

func init() {
	quizCmd.AddCommand(quizGradeCmd)
	quizCmd.AddCommand(quizAddCmd)
}
