package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/engine"
	"github.com/abhisek/pathwise/internal/grading"
	"github.com/abhisek/pathwise/internal/planner"
	"github.com/abhisek/pathwise/internal/sequencer"
	"github.com/abhisek/pathwise/internal/store"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Generate, start and complete sprints",
}

var sprintNextCmd = &cobra.Command{
	Use:   "next <objective-id>",
	Short: "Generate the next sprint, or return the one already generated for that day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, _ := cmd.Flags().GetInt("day")
		review, _ := cmd.Flags().GetStringSlice("review")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		var opts []sequencer.GenerateOption
		if day > 0 {
			opts = append(opts, sequencer.WithDay(day))
		}
		if len(review) > 0 {
			opts = append(opts, sequencer.WithReviewSkills(review...))
		}
		sp, err := e.engine.Sequencer.GenerateNextSprint(cmd.Context(), args[0], "", opts...)
		if err != nil {
			return err
		}
		printSprint(sp)
		return nil
	},
}

var sprintBatchCmd = &cobra.Command{
	Use:   "batch <objective-id>",
	Short: "Generate several consecutive days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetInt("start")
		count, _ := cmd.Flags().GetInt("count")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		sprints, err := e.engine.Sequencer.GenerateSprintBatch(cmd.Context(), args[0], "", start, count)
		for _, s := range sprints {
			printSprintLine(s)
		}
		return err
	},
}

var sprintStartCmd = &cobra.Command{
	Use:   "start <sprint-id>",
	Short: "Mark a sprint as in progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		sp, err := e.engine.Sequencer.StartSprint(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSprintLine(*sp)
		return nil
	},
}

var sprintCompleteCmd = &cobra.Command{
	Use:   "complete <sprint-id>",
	Short: "Complete a sprint, grading its post-sprint quiz when given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quizID, _ := cmd.Flags().GetString("quiz")
		answersFile, _ := cmd.Flags().GetString("answers")
		reflection, _ := cmd.Flags().GetString("reflection")
		elapsed, _ := cmd.Flags().GetDuration("elapsed")

		req := engine.CompletionRequest{
			SprintID:   args[0],
			QuizID:     quizID,
			Elapsed:    elapsed,
			Reflection: reflection,
		}
		if answersFile != "" {
			data, err := os.ReadFile(answersFile)
			if err != nil {
				return fmt.Errorf("read answers: %w", err)
			}
			if err := json.Unmarshal(data, &req.Answers); err != nil {
				return fmt.Errorf("parse answers: %w", err)
			}
		}
		if req.Answers == nil {
			req.Answers = map[string]grading.Answer{}
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		out, err := e.engine.CompleteSprint(cmd.Context(), req)
		if err != nil {
			return err
		}
		printOutcome(out)
		return nil
	},
}

var sprintBufferCmd = &cobra.Command{
	Use:   "buffer <objective-id>",
	Short: "Top up the objective's look-ahead buffer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.engine.Sequencer.MaintainSprintBuffer(cmd.Context(), args[0])
		fmt.Println(theme.Field("Buffer", res.Buffer))
		fmt.Println(theme.Field("Requested", res.Requested))
		fmt.Println(theme.Field("Result", res.Reason))
		for _, s := range res.Generated {
			printSprintLine(s)
		}
		return err
	},
}

var sprintShouldGenerateCmd = &cobra.Command{
	Use:   "should-generate <objective-id> <sprint-id>",
	Short: "Report whether completing a sprint should generate the next day",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		next, err := e.engine.Sequencer.ShouldGenerateNext(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(theme.Field("Generate", theme.Mark(next.Should)))
		if next.Should {
			fmt.Println(theme.Field("Next day", next.NextDay))
		}
		fmt.Println(theme.Field("Reason", next.Reason))
		return nil
	},
}

func printSprint(s *store.Sprint) {
	fmt.Println(theme.Title.Render(s.Title))
	fmt.Println(theme.Field("ID", s.ID))
	fmt.Println(theme.Field("Day", s.DayNumber))
	fmt.Println(theme.Field("Status", theme.Status(s.Status)))
	fmt.Println(theme.Field("Estimated hours", fmt.Sprintf("%.2f", s.EstimatedHours)))
	fmt.Println(theme.Field("Difficulty", s.DifficultyLabel))
	if s.IsReview {
		fmt.Println(theme.Field("Reviewing", fmt.Sprint(s.ReviewSkillIDs)))
	}

	var plan planner.Plan
	if err := json.Unmarshal(s.Plan, &plan); err != nil || len(plan.Tasks) == 0 {
		return
	}
	if plan.Summary != "" {
		fmt.Println()
		fmt.Println(theme.Hint.Render(plan.Summary))
	}
	fmt.Println()
	for i, t := range plan.Tasks {
		fmt.Printf("%d. %s (%d min)\n", i+1, t.Title, t.EstimatedMinutes)
		for _, c := range t.CompletionCriteria {
			fmt.Printf("   - %s\n", c)
		}
	}
	if len(plan.Deliverables) > 0 {
		fmt.Println()
		fmt.Println(theme.Title.Render("Deliverables"))
		for _, d := range plan.Deliverables {
			fmt.Printf("  - %s\n", d)
		}
	}
}

func printOutcome(out *engine.Outcome) {
	fmt.Println(theme.Title.Render(fmt.Sprintf("Day %d completed", out.Sprint.DayNumber)))
	if a := out.Attempt; a != nil {
		fmt.Println(theme.Field("Score", fmt.Sprintf("%.1f %s", a.Score, theme.Mark(a.Passed))))
		for _, r := range a.Recommendations {
			fmt.Println(theme.Hint.Render("  " + r))
		}
	}
	for _, u := range out.SkillUpdates {
		fmt.Printf("  %-20s %5.1f -> %5.1f  %s\n", u.SkillID, u.PreviousLevel, u.NewLevel, theme.Status(string(u.NewStatus)))
	}
	fmt.Println(theme.Field("Trend", theme.Status(string(out.Analysis.Trend))))
	if out.Adjustment.ShouldAdjust {
		fmt.Println(theme.Field("Pacing", out.Adjustment.Reasoning))
	}
	if out.Review.ShouldInsert {
		fmt.Println(theme.Field("Review", out.Review.Reason))
	}
	if out.NextSprint != nil {
		fmt.Println()
		printSprintLine(*out.NextSprint)
	}
	if out.GenerationErr != nil {
		fmt.Println(theme.Bad.Render("Next sprint not generated: " + out.GenerationErr.Error()))
	}
	if out.BufferErr != nil {
		fmt.Println(theme.Bad.Render("Buffer not maintained: " + out.BufferErr.Error()))
	}
}

func init() {
	sprintNextCmd.Flags().Int("day", 0, "Generate this day instead of the next one")
	sprintNextCmd.Flags().StringSlice("review", nil, "Make a review sprint for these skills")

	sprintBatchCmd.Flags().Int("start", 1, "First day to generate")
	sprintBatchCmd.Flags().Int("count", 3, fmt.Sprintf("Number of days (1-%d)", sequencer.MaxBatch))

	sprintCompleteCmd.Flags().String("quiz", "", "Post-sprint quiz ID")
	sprintCompleteCmd.Flags().String("answers", "", "JSON file mapping question IDs to answers")
	sprintCompleteCmd.Flags().String("reflection", "", "Reflection notes")
	sprintCompleteCmd.Flags().Duration("elapsed", 0, "Time spent on the quiz")

	sprintCmd.AddCommand(sprintNextCmd)
	sprintCmd.AddCommand(sprintBatchCmd)
	sprintCmd.AddCommand(sprintStartCmd)
	sprintCmd.AddCommand(sprintCompleteCmd)
	sprintCmd.AddCommand(sprintBufferCmd)
	sprintCmd.AddCommand(sprintShouldGenerateCmd)
}
