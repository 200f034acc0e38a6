package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List stored learners and their ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.svc.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %-8s  %-19s  %s\n", "ID", "Name", "Assessed", "Last active", "Ratings")
		fmt.Println(strings.Repeat("─", 120))
		for _, u := range users {
			assessed := "no"
			if u.HasCompletedInitialAssessment {
				assessed = "yes"
			}
			var ratings []string
			for _, r := range u.SkillRatings {
				ratings = append(ratings, fmt.Sprintf("%s=%.2f", r.Category, r.Rating))
			}
			fmt.Printf("%-36s  %-20s  %-8s  %-19s  %s\n",
				u.ID, truncate(u.DisplayName, 20), assessed,
				u.LastActiveAt.Local().Format("2006-01-02 15:04:05"),
				strings.Join(ratings, " "))
		}
		return nil
	},
}
