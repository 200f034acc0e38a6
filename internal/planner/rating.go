package planner

import (
	"slices"
	"strings"

	"github.com/abhisek/mixcoach/internal/assessment"
	"github.com/abhisek/mixcoach/internal/skill"
)

// Rating adjustment steps.
const (
	strongGain  = 0.5
	goodGain    = 0.25
	struggle    = -0.25
	quizWeight  = 1.5
	trendWindow = 3
	trendDelta  = 0.5
)

// RatingsFromResult derives one initial rating per scored section.
func RatingsFromResult(res assessment.Result) []skill.Rating {
	out := make([]skill.Rating, 0, len(res.Sections))
	for _, s := range res.Sections {
		r := float64(s.CalculatedRating)
		out = append(out, skill.Rating{
			Category:     s.Category,
			Rating:       r,
			LastAssessed: res.CompletedAt,
			History: []skill.RatingEntry{{
				Rating:     r,
				AssessedAt: res.CompletedAt,
				Source:     skill.SourceInitialTest,
			}},
		})
	}
	return out
}

// UpdateRating returns current adjusted for a score (0..100) on content of
// the given type and difficulty. current is not modified.
//
// Strong or good scores on content at least as hard as the rating raise it;
// weak scores on content no harder than the rating lower it. Quizzes weigh
// half again as much as other content.
func (p *Planner) UpdateRating(current skill.Rating, t skill.ContentType, score float64, difficulty skill.Difficulty) skill.Rating {
	d := float64(difficulty)
	var adj float64
	switch {
	case score >= 90 && d >= current.Rating:
		adj = strongGain
	case score >= CompletionScore && d >= current.Rating:
		adj = goodGain
	case score < RemedialScore && d <= current.Rating:
		adj = struggle
	}
	if t == skill.Quiz {
		adj *= quizWeight
	}

	now := p.now()
	next := skill.Clamp(current.Rating + adj)

	out := current
	out.Rating = next
	out.LastAssessed = now
	out.History = append(slices.Clone(current.History), skill.RatingEntry{
		Rating:     next,
		AssessedAt: now,
		Source:     strings.ToLower(string(t)),
	})
	return out
}

// Trend compares the first and last of the most recent history entries.
func Trend(r skill.Rating) skill.Trend {
	if len(r.History) < 2 {
		return skill.Stable
	}
	recent := r.History[max(0, len(r.History)-trendWindow):]
	first := recent[0].Rating
	last := recent[len(recent)-1].Rating
	switch {
	case last-first >= trendDelta:
		return skill.Improving
	case first-last >= trendDelta:
		return skill.Declining
	default:
		return skill.Stable
	}
}

// ReplaceRating returns ratings with the entry for r.Category swapped for r.
// ratings is not modified. If no entry matches, r is appended.
func ReplaceRating(ratings []skill.Rating, r skill.Rating) []skill.Rating {
	out := slices.Clone(ratings)
	for i := range out {
		if out[i].Category == r.Category {
			out[i] = r
			return out
		}
	}
	return append(out, r)
}

// RatingFor returns the rating for cat, if present.
func RatingFor(ratings []skill.Rating, cat skill.Category) (skill.Rating, bool) {
	for _, r := range ratings {
		if r.Category == cat {
			return r, true
		}
	}
	return skill.Rating{}, false
}
