package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mixcoach/internal/catalog"
	"github.com/abhisek/mixcoach/internal/skill"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the content catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List content (optionally filtered by category, type or difficulty)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var f catalog.Filter
		if s, _ := cmd.Flags().GetString("category"); s != "" {
			cat, err := skill.ParseCategory(s)
			if err != nil {
				return err
			}
			f.Category = cat
		}
		if s, _ := cmd.Flags().GetString("type"); s != "" {
			t, err := skill.ParseContentType(s)
			if err != nil {
				return err
			}
			f.Type = t
		}
		if d, _ := cmd.Flags().GetInt("difficulty"); d != 0 {
			if !skill.Difficulty(d).Valid() {
				return fmt.Errorf("difficulty must be 1-5, got %d", d)
			}
			f.Difficulty = skill.Difficulty(d)
		}

		items := catalog.Default().Query(f)
		fmt.Printf("%-28s  %-36s  %-16s  %-9s  %4s  %4s\n",
			"ID", "Title", "Category", "Type", "Diff", "Mins")
		fmt.Println(strings.Repeat("\u2500", 106))
		for _, it := range items {
			fmt.Printf("%-28s  %-36s  %-16s  %-9s  %4d  %4d\n",
				it.ID, truncate(it.Title, 36), it.Category, it.Type, it.Difficulty, it.EstimatedMins)
		}
		fmt.Printf("\n%d items\n", len(items))
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one content item with its prerequisites and dependents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		it, ok := cat.Get(args[0])
		if !ok {
			return fmt.Errorf("content %q not found", args[0])
		}

		fmt.Printf("%s\n%s\n\n", it.Title, strings.Repeat("\u2500", len(it.Title)))
		fmt.Printf("ID:          %s\n", it.ID)
		fmt.Printf("Category:    %s\n", it.Category.DisplayName())
		fmt.Printf("Type:        %s\n", it.Type)
		fmt.Printf("Difficulty:  %d (%s)\n", it.Difficulty, it.Difficulty.Label())
		fmt.Printf("Duration:    %d min\n", it.EstimatedMins)
		fmt.Printf("\n%s\n", it.Description)
		if len(it.Objectives) > 0 {
			fmt.Println("\nObjectives:")
			for _, o := range it.Objectives {
				fmt.Printf("  - %s\n", o)
			}
		}
		printRefs("Requires", cat.Prerequisites(it.ID))
		printRefs("Unlocks", cat.Dependents(it.ID))
		return nil
	},
}

var catalogSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count content per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("%-18s  %5s  %6s  %8s  %4s  %4s  %5s\n",
			"Category", "Total", "Lesson", "Practice", "Game", "Quiz", "Mins")
		fmt.Println(strings.Repeat("\u2500", 62))
		for _, s := range catalog.Default().Summary() {
			fmt.Printf("%-18s  %5d  %6d  %8d  %4d  %4d  %5d\n",
				s.Name, s.Total,
				s.ByType[skill.Lesson], s.ByType[skill.Practice], s.ByType[skill.MiniGame], s.ByType[skill.Quiz],
				s.TotalMinutes)
		}
		return nil
	},
}

func printRefs(label string, items []catalog.ContentItem) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", label)
	for _, it := range items {
		fmt.Printf("  %-28s  %s\n", it.ID, it.Title)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	catalogListCmd.Flags().String("category", "", "Filter by skill category (e.g. EQ_SKILL)")
	catalogListCmd.Flags().String("type", "", "Filter by content type (LESSON, PRACTICE, MINI_GAME, QUIZ)")
	catalogListCmd.Flags().Int("difficulty", 0, "Filter by difficulty (1-5)")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogSummaryCmd)
}
