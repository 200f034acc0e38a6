package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mixcoach/internal/catalog"
	"github.com/abhisek/mixcoach/internal/planner"
	"github.com/abhisek/mixcoach/internal/skill"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the learning plan generated for a set of ratings",
	Example: `  mixcoach plan --ratings FREQUENCY_FINDER=2,EQ_SKILL=4,BALANCING=3,COMPRESSION=1,SONG_STRUCTURE=4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("ratings")
		ratings, err := parseRatings(raw)
		if err != nil {
			return err
		}

		cat := catalog.Default()
		p := planner.New(cat).CreatePlan("preview", ratings)

		focus := make([]string, len(p.FocusAreas))
		for i, c := range p.FocusAreas {
			focus[i] = c.DisplayName()
		}
		fmt.Printf("Focus areas: %s\n\n", strings.Join(focus, ", "))
		fmt.Printf("%5s  %-28s  %-36s  %-9s  %4s\n", "Order", "Content", "Title", "Type", "Diff")
		fmt.Println(strings.Repeat("─", 90))
		for _, it := range p.Items {
			c, _ := cat.Get(it.ContentID)
			fmt.Printf("%5d  %-28s  %-36s  %-9s  %4d\n",
				it.Order, it.ContentID, truncate(c.Title, 36), c.Type, c.Difficulty)
		}
		fmt.Printf("\n%d items\n", len(p.Items))
		return nil
	},
}

// parseRatings reads "CATEGORY=rating" pairs separated by commas.
func parseRatings(s string) ([]skill.Rating, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("--ratings is required")
	}
	var out []skill.Rating
	seen := make(map[skill.Category]bool)
	for _, pair := range strings.Split(s, ",") {
		name, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid rating %q: want CATEGORY=value", pair)
		}
		cat, err := skill.ParseCategory(strings.ToUpper(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		if seen[cat] {
			return nil, fmt.Errorf("duplicate rating for %s", cat)
		}
		seen[cat] = true
		r, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rating for %s: %w", cat, err)
		}
		if r < skill.MinRating || r > skill.MaxRating {
			return nil, fmt.Errorf("rating for %s must be between %g and %g", cat, skill.MinRating, skill.MaxRating)
		}
		out = append(out, skill.Rating{Category: cat, Rating: r})
	}
	return out, nil
}

func init() {
	planCmd.Flags().String("ratings", "", "Comma-separated CATEGORY=rating pairs")
}
