package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export <objective-id>",
	Short: "Export an objective's progress to an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = args[0] + ".xlsx"
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := report.Collect(cmd.Context(), report.Repos{
			Objectives: st.ObjectiveRepo(),
			Sprints:    st.SprintRepo(),
			UserSkills: st.UserSkillRepo(),
			Reviews:    st.ReviewRepo(),
		}, args[0])
		if err != nil {
			return err
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := p.WriteXLSX(f); err != nil {
			f.Close()
			return fmt.Errorf("write report: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Println("Wrote", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "", "Output file (default <objective-id>.xlsx)")
}
