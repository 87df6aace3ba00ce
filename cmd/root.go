package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pathwise",
	Short: "Adaptive learning progression engine",
	Long: "Pathwise grades knowledge checks, tracks skill mastery, schedules spaced reviews " +
		"and sequences day-by-day learning sprints for each objective.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a pathwise.yaml config file")
	rootCmd.PersistentFlags().String("env-file", "", "Path to a .env file (default ./.env when present)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides config and PATHWISE_DB)")

	rootCmd.AddCommand(objectiveCmd)
	rootCmd.AddCommand(sprintCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(perfCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
