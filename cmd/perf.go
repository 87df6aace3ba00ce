package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/performance"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Analyze sprint performance",
}

var perfAnalyzeCmd = &cobra.Command{
	Use:   "analyze <objective-id>",
	Short: "Show score trend and the pacing it recommends",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window, _ := cmd.Flags().GetInt("window")
		apply, _ := cmd.Flags().GetBool("apply")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()

		obj, err := e.store.ObjectiveRepo().Get(ctx, args[0])
		if err != nil {
			return err
		}
		a, err := e.engine.Performance.AnalyzePerformance(ctx, "", obj.ID, window)
		if err != nil {
			return err
		}

		fmt.Println(theme.Field("Scores", fmt.Sprint(a.Scores)))
		fmt.Println(theme.Field("Average", fmt.Sprintf("%.1f", a.AverageScore)))
		fmt.Println(theme.Field("Trend", theme.Status(string(a.Trend))))
		fmt.Println(theme.Field("Recommendation", theme.Status(string(a.RecommendedAction))))

		adj := performance.Recalibrate(a, performance.Pacing{Difficulty: obj.Difficulty, Velocity: obj.Velocity})
		if apply {
			if adj, err = e.engine.Performance.RecalibrateLearningPath(ctx, obj.ID, a); err != nil {
				return err
			}
		}
		if !adj.ShouldAdjust {
			fmt.Println(theme.Hint.Render("Pacing unchanged."))
			return nil
		}
		fmt.Println(theme.Field("Difficulty", fmt.Sprintf("%d -> %d", adj.Previous.Difficulty, adj.Next.Difficulty)))
		fmt.Println(theme.Field("Velocity", fmt.Sprintf("%.1f -> %.1f", adj.Previous.Velocity, adj.Next.Velocity)))
		fmt.Println(theme.Hint.Render(adj.Reasoning))
		if !apply {
			fmt.Println(theme.Hint.Render("Preview only; pass --apply to save."))
		}
		return nil
	},
}

func init() {
	perfAnalyzeCmd.Flags().Int("window", performance.DefaultWindow, "Number of recent completed sprints")
	perfAnalyzeCmd.Flags().Bool("apply", false, "Save the recalibrated pacing")
	perfCmd.AddCommand(perfAnalyzeCmd)
}
