package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/fault"
	"github.com/abhisek/pathwise/internal/performance"
	"github.com/abhisek/pathwise/internal/sequencer"
	"github.com/abhisek/pathwise/internal/store"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

var objectiveCmd = &cobra.Command{
	Use:   "objective",
	Short: "Create and inspect learning objectives",
}

var objectiveCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an objective and the learner's profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		title, _ := cmd.Flags().GetString("title")
		desc, _ := cmd.Flags().GetString("description")
		skills, _ := cmd.Flags().GetStringSlice("skills")
		days, _ := cmd.Flags().GetInt("days")
		mode, _ := cmd.Flags().GetString("mode")
		auto, _ := cmd.Flags().GetBool("auto")
		difficulty, _ := cmd.Flags().GetInt("difficulty")
		milestones, _ := cmd.Flags().GetStringArray("milestone")

		mode = strings.ToUpper(mode)
		switch {
		case user == "" || title == "":
			return fault.Invalid("--user and --title are required")
		case len(skills) == 0:
			return fault.Invalid("at least one --skills entry is required")
		case days < 1:
			return fault.Invalid("--days must be at least 1")
		case !sequencer.ValidMode(mode):
			return fault.Invalid("unknown generation mode %q", mode)
		case difficulty < performance.MinDifficulty || difficulty > performance.MaxDifficulty:
			return fault.Invalid("--difficulty must be within [%d, %d]", performance.MinDifficulty, performance.MaxDifficulty)
		}

		ms, err := parseMilestones(milestones)
		if err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := cmd.Context()

		for _, id := range skills {
			if err := st.SkillRepo().Upsert(ctx, store.Skill{ID: id, Name: id, Tier: 1}); err != nil {
				return fmt.Errorf("register skill %s: %w", id, err)
			}
		}
		profile, err := st.ProfileRepo().Get(ctx, user)
		if err != nil {
			return err
		}
		if profile == nil || cmd.Flags().Changed("daily-minutes") || cmd.Flags().Changed("interests") ||
			cmd.Flags().Changed("strengths") || cmd.Flags().Changed("weaknesses") {
			interests, _ := cmd.Flags().GetStringSlice("interests")
			strengths, _ := cmd.Flags().GetStringSlice("strengths")
			weaknesses, _ := cmd.Flags().GetStringSlice("weaknesses")
			minutes, _ := cmd.Flags().GetInt("daily-minutes")
			err := st.ProfileRepo().Save(ctx, store.LearnerProfile{
				UserID:       user,
				Interests:    interests,
				Strengths:    strengths,
				Weaknesses:   weaknesses,
				DailyMinutes: minutes,
				UpdatedAt:    time.Now(),
			})
			if err != nil {
				return fmt.Errorf("save profile: %w", err)
			}
		}

		obj := store.Objective{
			ID:                 uuid.NewString(),
			UserID:             user,
			Title:              title,
			Description:        desc,
			SkillIDs:           skills,
			EstimatedTotalDays: days,
			GenerationMode:     mode,
			AutoGenerate:       auto,
			Difficulty:         difficulty,
			Velocity:           1,
		}
		if err := st.ObjectiveRepo().Create(ctx, obj); err != nil {
			return err
		}
		for _, m := range ms {
			m.ID = uuid.NewString()
			m.ObjectiveID = obj.ID
			if err := st.MilestoneRepo().Create(ctx, m); err != nil {
				return fmt.Errorf("create milestone %q: %w", m.Title, err)
			}
		}

		fmt.Println(obj.ID)
		return nil
	},
}

// parseMilestones reads "title:day" pairs.
func parseMilestones(raw []string) ([]store.Milestone, error) {
	var out []store.Milestone
	for _, r := range raw {
		i := strings.LastIndex(r, ":")
		if i <= 0 {
			return nil, fault.Invalid("milestone %q must look like title:day", r)
		}
		day, err := strconv.Atoi(r[i+1:])
		if err != nil || day < 1 {
			return nil, fault.Invalid("milestone %q has an invalid day", r)
		}
		out = append(out, store.Milestone{Title: r[:i], TargetDay: day})
	}
	return out, nil
}

var objectiveShowCmd = &cobra.Command{
	Use:   "show <objective-id>",
	Short: "Show an objective with its sprints and milestones",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := cmd.Context()

		o, err := st.ObjectiveRepo().Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(theme.Title.Render(o.Title))
		fmt.Println(theme.Field("ID", o.ID))
		fmt.Println(theme.Field("Learner", o.UserID))
		fmt.Println(theme.Field("Skills", strings.Join(o.SkillIDs, ", ")))
		fmt.Println(theme.Field("Mode", fmt.Sprintf("%s (auto: %v)", o.GenerationMode, o.AutoGenerate)))
		fmt.Println(theme.Field("Progress", fmt.Sprintf("%d / %d days completed", o.CompletedDays, o.EstimatedTotalDays)))
		fmt.Println(theme.Field("Pacing", fmt.Sprintf("difficulty %d, velocity %.1f", o.Difficulty, o.Velocity)))

		milestones, err := st.MilestoneRepo().List(ctx, o.ID)
		if err != nil {
			return err
		}
		if len(milestones) > 0 {
			fmt.Println()
			fmt.Println(theme.Title.Render("Milestones"))
			for _, m := range milestones {
				fmt.Printf("  %s day %-3d %s\n", theme.Mark(m.Completed), m.TargetDay, m.Title)
			}
		}

		sprints, err := st.SprintRepo().List(ctx, o.ID)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(theme.Title.Render("Sprints"))
		if len(sprints) == 0 {
			fmt.Println(theme.Hint.Render("  none generated yet"))
			return nil
		}
		for _, s := range sprints {
			printSprintLine(s)
		}
		return nil
	},
}

var objectiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List objectives",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		objs, err := st.ObjectiveRepo().List(cmd.Context(), user)
		if err != nil {
			return err
		}
		if len(objs) == 0 {
			fmt.Println("No objectives found.")
			return nil
		}

		fmt.Printf("%-36s  %-12s  %-9s  %-9s  %s\n", "ID", "Learner", "Mode", "Days", "Title")
		fmt.Println(theme.Rule(90))
		for _, o := range objs {
			fmt.Printf("%-36s  %-12s  %-9s  %4d/%-4d  %s\n",
				o.ID, o.UserID, o.GenerationMode, o.CompletedDays, o.EstimatedTotalDays, o.Title)
		}
		return nil
	},
}

func printSprintLine(s store.Sprint) {
	score := "  -  "
	if s.Score != nil {
		score = fmt.Sprintf("%5.1f", *s.Score)
	}
	kind := ""
	if s.IsReview {
		kind = theme.Hint.Render(" (review)")
	}
	fmt.Printf("  day %-3d %-24s %s  %s%s\n", s.DayNumber, theme.Status(s.Status), score, s.Title, kind)
}

func init() {
	f := objectiveCreateCmd.Flags()
	f.String("user", "", "Learner ID")
	f.String("title", "", "Objective title")
	f.String("description", "", "Objective description")
	f.StringSlice("skills", nil, "Skill IDs covered by the objective")
	f.Int("days", 30, "Estimated total days")
	f.String("mode", string(sequencer.ModeDaily), "Generation mode: DAILY, WEEKLY, MILESTONE or MANUAL")
	f.Bool("auto", true, "Generate sprints automatically")
	f.Int("difficulty", 3, "Starting difficulty (1-5)")
	f.StringArray("milestone", nil, "Milestone as title:day (repeatable)")
	f.StringSlice("interests", nil, "Learner interests")
	f.StringSlice("strengths", nil, "Learner strengths")
	f.StringSlice("weaknesses", nil, "Learner weaknesses")
	f.Int("daily-minutes", 60, "Minutes per day the learner can spend")

	objectiveListCmd.Flags().String("user", "", "Only objectives of this learner")

	objectiveCmd.AddCommand(objectiveCreateCmd)
	objectiveCmd.AddCommand(objectiveShowCmd)
	objectiveCmd.AddCommand(objectiveListCmd)
}
