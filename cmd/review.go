package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/ui/theme"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Inspect spaced-repetition reviews",
}

var reviewCheckCmd = &cobra.Command{
	Use:   "check <objective-id>",
	Short: "Report whether a review sprint is due",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, _ := cmd.Flags().GetInt("day")

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
		if day <= 0 {
			day = obj.CurrentDay
		}

		d, err := e.engine.Reviews.ShouldInsertReviewSprint(ctx, obj.ID, obj.UserID, day)
		if err != nil {
			return err
		}
		fmt.Println(theme.Field("Day", day))
		fmt.Println(theme.Field("Review sprint", theme.Mark(d.ShouldInsert)))
		fmt.Println(theme.Field("Reason", d.Reason))
		return nil
	},
}

func init() {
	reviewCheckCmd.Flags().Int("day", 0, "Day to check (default: the objective's current day)")
	reviewCmd.AddCommand(reviewCheckCmd)
}
