package assessment

import (
	"fmt"
	"slices"
)

// Recommendations builds learner-facing advice: one overall message keyed by
// the mean section rating, then one message per section, weakest first.
func Recommendations(sections []SectionResult) []string {
	if len(sections) == 0 {
		return []string{overallMessage(0)}
	}

	sorted := slices.Clone(sections)
	slices.SortStableFunc(sorted, func(a, b SectionResult) int {
		return a.CalculatedRating - b.CalculatedRating
	})

	recs := []string{overallMessage(meanRating(sections))}
	for _, s := range sorted {
		name := s.Category.DisplayName()
		switch {
		case s.CalculatedRating <= 2:
			recs = append(recs, fmt.Sprintf("Focus on %s fundamentals - start with beginner lessons and practice games.", name))
		case s.CalculatedRating == 3:
			recs = append(recs, fmt.Sprintf("Build on your %s skills with intermediate content and targeted practice.", name))
		case s.CalculatedRating == 4:
			recs = append(recs, fmt.Sprintf("Challenge yourself with advanced %s techniques to reach mastery.", name))
		}
	}
	return recs
}

func meanRating(sections []SectionResult) float64 {
	sum := 0
	for _, s := range sections {
		sum += s.CalculatedRating
	}
	return float64(sum) / float64(len(sections))
}

func overallMessage(avg float64) string {
	switch {
	case avg >= 4:
		return "Great overall performance! Focus on refining your weakest areas."
	case avg >= 2.5:
		return "Solid foundation! Your personalized plan will help strengthen key areas."
	default:
		return "Welcome to your learning journey! We'll build your skills step by step."
	}
}
