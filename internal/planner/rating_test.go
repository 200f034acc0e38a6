package planner

import (
	"testing"
	"time"

	"github.com/abhisek/mixcoach/internal/assessment"
	"github.com/abhisek/mixcoach/internal/skill"
)

func TestUpdateRating(t *testing.T) {
	tests := []struct {
		name       string
		current    float64
		typ        skill.ContentType
		score      float64
		difficulty skill.Difficulty
		want       float64
		source     string
	}{
		{"strong quiz on harder content", 3, skill.Quiz, 95, skill.Advanced, 3.75, "quiz"},
		{"clamped at max", 5, skill.Quiz, 100, skill.Master, 5, "quiz"},
		{"strong lesson", 2, skill.Lesson, 92, skill.Advanced, 2.5, "lesson"},
		{"good game", 2, skill.MiniGame, 75, skill.Intermediate, 2.25, "mini_game"},
		{"good score on easy content", 4, skill.Lesson, 85, skill.Beginner, 4, "lesson"},
		{"struggle on easy lesson", 3, skill.Lesson, 40, skill.Beginner, 2.75, "lesson"},
		{"struggle on hard content ignored", 2, skill.Lesson, 40, skill.Expert, 2, "lesson"},
		{"clamped at min", 1, skill.Quiz, 10, skill.Beginner, 1, "quiz"},
		{"middling score", 3, skill.Practice, 60, skill.Advanced, 3, "practice"},
	}
	p := newTestPlanner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := skill.Rating{
				Category: skill.EQSkill,
				Rating:   tt.current,
				History:  []skill.RatingEntry{{Rating: tt.current, Source: skill.SourceInitialTest}},
			}
			got := p.UpdateRating(cur, tt.typ, tt.score, tt.difficulty)
			if got.Rating != tt.want {
				t.Errorf("rating = %v, want %v", got.Rating, tt.want)
			}
			if len(got.History) != 2 {
				t.Fatalf("history has %d entries, want 2", len(got.History))
			}
			last := got.History[1]
			if last.Rating != tt.want || last.Source != tt.source || !last.AssessedAt.Equal(fixedNow) {
				t.Errorf("history entry = %+v", last)
			}
			if !got.LastAssessed.Equal(fixedNow) {
				t.Errorf("lastAssessed = %v", got.LastAssessed)
			}
			if len(cur.History) != 1 || cur.Rating != tt.current {
				t.Error("input rating mutated")
			}
		})
	}
}

func TestTrend(t *testing.T) {
	hist := func(vals ...float64) skill.Rating {
		r := skill.Rating{}
		for _, v := range vals {
			r.History = append(r.History, skill.RatingEntry{Rating: v})
		}
		return r
	}
	tests := []struct {
		name string
		r    skill.Rating
		want skill.Trend
	}{
		{"improving", hist(2, 3, 4), skill.Improving},
		{"declining", hist(4, 3, 2), skill.Declining},
		{"flat", hist(3, 3.1, 3.2), skill.Stable},
		{"single entry", hist(3), skill.Stable},
		{"empty", hist(), skill.Stable},
		{"window ignores older entries", hist(1, 3, 3, 3.25), skill.Stable},
		{"two entries at threshold", hist(2, 2.5), skill.Improving},
	}
	for _, tt := range tests {
		if got := Trend(tt.r); got != tt.want {
			t.Errorf("%s: Trend = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestRatingsFromResult(t *testing.T) {
	done := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	res := assessment.Result{
		CompletedAt: done,
		Sections: []assessment.SectionResult{
			{Category: skill.FrequencyFinder, CalculatedRating: 2},
			{Category: skill.Compression, CalculatedRating: 4},
		},
	}
	got := RatingsFromResult(res)
	if len(got) != 2 {
		t.Fatalf("got %d ratings, want 2", len(got))
	}
	if got[1].Category != skill.Compression || got[1].Rating != 4 {
		t.Errorf("rating = %+v", got[1])
	}
	if len(got[0].History) != 1 || got[0].History[0].Source != skill.SourceInitialTest || !got[0].LastAssessed.Equal(done) {
		t.Errorf("history = %+v", got[0].History)
	}
}

func TestReplaceRating(t *testing.T) {
	ratings := ratingsFor(1, 2, 3)
	updated := ReplaceRating(ratings, skill.Rating{Category: skill.EQSkill, Rating: 4})
	if updated[1].Rating != 4 || ratings[1].Rating != 2 {
		t.Errorf("replace: updated %v, original %v", updated[1].Rating, ratings[1].Rating)
	}
	appended := ReplaceRating(ratings, skill.Rating{Category: skill.SongStructure, Rating: 5})
	if len(appended) != 4 {
		t.Errorf("append: got %d ratings", len(appended))
	}
	if r, ok := RatingFor(appended, skill.SongStructure); !ok || r.Rating != 5 {
		t.Errorf("RatingFor = %+v, %v", r, ok)
	}
	if _, ok := RatingFor(ratings, skill.SongStructure); ok {
		t.Error("RatingFor found a missing category")
	}
}
