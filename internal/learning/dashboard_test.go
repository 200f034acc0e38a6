package learning

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/abhisek/mixcoach/internal/planner"
	"github.com/abhisek/mixcoach/internal/skill"
	"github.com/abhisek/mixcoach/internal/store"
)

func TestDashboardBeforeAssessment(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)

	d, err := f.svc.Dashboard(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.CurrentPlan != nil || len(d.SkillRatings) != 0 || len(d.RecentActivity) != 0 {
		t.Errorf("unexpected dashboard: %+v", d)
	}
	want := []string{"Complete your initial assessment to get a personalized learning plan!"}
	if !slices.Equal(d.Recommendations, want) {
		t.Errorf("recommendations = %v", d.Recommendations)
	}

	if _, err := f.svc.Dashboard(context.Background(), "ghost"); err != ErrUserNotFound {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestDashboardAfterProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t)

	if _, _, err := f.svc.CompleteInitialAssessment(ctx, u.ID, craftedResult(u.ID)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := f.svc.UpdateProgress(ctx, u.ID, "comp-lesson-basics", 80); err != nil {
		t.Fatalf("update: %v", err)
	}

	d, err := f.svc.Dashboard(ctx, u.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if len(d.SkillRatings) != 5 {
		t.Fatalf("got %d ratings", len(d.SkillRatings))
	}
	comp := d.SkillRatings[3]
	if comp.Category != skill.Compression || comp.Rating != 1.3 || comp.MaxRating != 5 || comp.Trend != skill.Stable {
		t.Errorf("compression view = %+v", comp)
	}
	if d.SkillRatings[0].CategoryName != "Frequency Finder" {
		t.Errorf("category name = %q", d.SkillRatings[0].CategoryName)
	}

	if d.CurrentPlan == nil || d.CurrentPlan.CurrentItem == nil {
		t.Fatal("expected a current plan with a current item")
	}
	if d.CurrentPlan.CurrentItem.ID != "freq-lesson-basics" {
		t.Errorf("current item = %s", d.CurrentPlan.CurrentItem.ID)
	}
	var next []string
	for _, c := range d.CurrentPlan.NextItems {
		next = append(next, c.ID)
	}
	if !slices.Equal(next, []string{"bal-lesson-basics", "eq-lesson-basics"}) {
		t.Errorf("next items = %v", next)
	}

	if len(d.RecentActivity) != 2 {
		t.Fatalf("activity = %+v", d.RecentActivity)
	}
	if d.RecentActivity[0].Activity != "Completed: Compression 101" || *d.RecentActivity[0].Score != 80 {
		t.Errorf("newest activity = %+v", d.RecentActivity[0])
	}
	if d.RecentActivity[1].Activity != "Completed initial skill assessment" || !d.RecentActivity[1].Date.Equal(t0) {
		t.Errorf("oldest activity = %+v", d.RecentActivity[1])
	}

	want := []string{
		"Focus on improving your Compression skills (1.25/5)",
		"You're just getting started! Complete a few lessons to build momentum.",
	}
	if !slices.Equal(d.Recommendations, want) {
		t.Errorf("recommendations =\n  %q\nwant\n  %q", d.Recommendations, want)
	}
}

func TestDashboardRecommendations(t *testing.T) {
	hist := func(vals ...float64) []skill.RatingEntry {
		var out []skill.RatingEntry
		for _, v := range vals {
			out = append(out, skill.RatingEntry{Rating: v})
		}
		return out
	}
	planWith := func(done, total int) *planner.Plan {
		p := &planner.Plan{}
		for i := 0; i < total; i++ {
			st := skill.NotStarted
			if i < done {
				st = skill.Completed
			}
			p.Items = append(p.Items, planner.Item{Status: st})
		}
		return p
	}

	tests := []struct {
		name    string
		ratings []skill.Rating
		plan    *planner.Plan
		want    []string
	}{
		{
			name:    "strong learner mid plan",
			ratings: []skill.Rating{{Category: skill.EQSkill, Rating: 4, History: hist(3, 4)}},
			plan:    planWith(1, 2),
			want: []string{
				"Great progress! Keep up the consistent practice.",
				"Your EQ Skills skills are improving - great job!",
			},
		},
		{
			name: "weak learner near the end",
			ratings: []skill.Rating{
				{Category: skill.Balancing, Rating: 3.5},
				{Category: skill.SongStructure, Rating: 2.75},
			},
			plan: planWith(3, 4),
			want: []string{
				"Focus on improving your Song Structure skills (2.75/5)",
				"Almost there! Finish your current plan to unlock advanced content.",
			},
		},
		{
			name: "no plan, first improving category only",
			ratings: []skill.Rating{
				{Category: skill.FrequencyFinder, Rating: 5, History: hist(4, 5)},
				{Category: skill.Compression, Rating: 5, History: hist(3, 5)},
			},
			want: []string{"Your Frequency Finder skills are improving - great job!"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &store.User{HasCompletedInitialAssessment: true, SkillRatings: tt.ratings}
			got := dashboardRecommendations(u, tt.plan)
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestRecentActivityCapped(t *testing.T) {
	f := newFixture(t)
	plan := &planner.Plan{}
	for i := 0; i < 12; i++ {
		at := t0.Add(time.Duration(i) * time.Minute)
		plan.Items = append(plan.Items, planner.Item{ContentID: "missing", CompletedAt: &at})
	}
	got := f.svc.recentActivity(nil, plan)
	if len(got) != 10 {
		t.Fatalf("got %d entries, want 10", len(got))
	}
	if !got[0].Date.Equal(t0.Add(11*time.Minute)) || got[0].Activity != "Completed: Unknown content" {
		t.Errorf("first entry = %+v", got[0])
	}
}
