package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mixcoach/internal/questionbank"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the balanced question set an assessment would draw",
	RunE: func(cmd *cobra.Command, args []string) error {
		per, _ := cmd.Flags().GetInt("per-category")
		showAnswers, _ := cmd.Flags().GetBool("answers")

		qs := questionbank.Default().Balanced(per)
		fmt.Printf("%-14s  %-16s  %-20s  %4s  %s\n", "ID", "Category", "Type", "Diff", "Prompt")
		fmt.Println(strings.Repeat("─", 110))
		for _, q := range qs {
			fmt.Printf("%-14s  %-16s  %-20s  %4d  %s\n",
				q.ID, q.Category, q.Type, q.Difficulty, truncate(q.Prompt, 50))
			if showAnswers {
				fmt.Printf("%-14s  answer: %s\n", "", formatAnswer(q.Answer))
			}
		}
		fmt.Printf("\n%d questions\n", len(qs))
		return nil
	},
}

func formatAnswer(a questionbank.Answer) string {
	if a.IsList() {
		return "[" + strings.Join(a.List, ", ") + "]"
	}
	return a.Value
}

func init() {
	questionsCmd.Flags().Int("per-category", questionbank.DefaultPerCategory, "Questions drawn per category")
	questionsCmd.Flags().Bool("answers", false, "Show correct answers")
}
