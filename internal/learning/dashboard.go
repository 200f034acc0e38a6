package learning

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/abhisek/mixcoach/internal/assessment"
	"github.com/abhisek/mixcoach/internal/catalog"
	"github.com/abhisek/mixcoach/internal/planner"
	"github.com/abhisek/mixcoach/internal/skill"
	"github.com/abhisek/mixcoach/internal/store"
)

const (
	maxActivity        = 10
	maxRecommendations = 5
	dashboardNextItems = 3
)

// RatingView is one category rating as shown on the dashboard.
type RatingView struct {
	Category     skill.Category `json:"category"`
	CategoryName string         `json:"categoryName"`
	Rating       float64        `json:"rating"`
	MaxRating    int            `json:"maxRating"`
	Trend        skill.Trend    `json:"trend"`
}

// PlanSummary is the learner's position in their current plan.
type PlanSummary struct {
	ID          string                `json:"id"`
	Progress    float64               `json:"progress"`
	CurrentItem *catalog.ContentItem  `json:"currentItem,omitempty"`
	NextItems   []catalog.ContentItem `json:"nextItems"`
}

// Activity is a completed plan item or assessment.
type Activity struct {
	Date     time.Time `json:"date"`
	Activity string    `json:"activity"`
	Score    *float64  `json:"score,omitempty"`
}

// Dashboard is the learner overview returned by Service.Dashboard.
type Dashboard struct {
	User            *store.User  `json:"user"`
	SkillRatings    []RatingView `json:"skillRatings"`
	CurrentPlan     *PlanSummary `json:"currentPlan,omitempty"`
	RecentActivity  []Activity   `json:"recentActivity"`
	Recommendations []string     `json:"recommendations"`
}

// Dashboard summarizes a learner's ratings, plan position, recent activity
// and what to do next.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var plan *planner.Plan
	if u.CurrentPlanID != "" {
		plan, err = s.currentPlan(ctx, u)
		if err != nil && !errors.Is(err, ErrPlanNotFound) {
			return nil, err
		}
	}

	history, err := s.history.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	d := &Dashboard{
		User:            u,
		SkillRatings:    make([]RatingView, len(u.SkillRatings)),
		RecentActivity:  s.recentActivity(history, plan),
		Recommendations: dashboardRecommendations(u, plan),
	}
	for i, r := range u.SkillRatings {
		d.SkillRatings[i] = RatingView{
			Category:     r.Category,
			CategoryName: r.Category.DisplayName(),
			Rating:       math.Round(r.Rating*10) / 10,
			MaxRating:    int(skill.MaxRating),
			Trend:        planner.Trend(r),
		}
	}
	if plan != nil {
		next := s.planner.NextItems(*plan, dashboardNextItems)
		sum := &PlanSummary{ID: plan.ID, Progress: planner.Progress(*plan), NextItems: []catalog.ContentItem{}}
		if len(next) > 0 {
			sum.CurrentItem = &next[0]
			sum.NextItems = next[1:]
		}
		d.CurrentPlan = sum
	}
	return d, nil
}

func (s *Service) recentActivity(history []assessment.Result, plan *planner.Plan) []Activity {
	var out []Activity
	for _, res := range history {
		score := res.OverallScore
		out = append(out, Activity{
			Date:     res.CompletedAt,
			Activity: "Completed initial skill assessment",
			Score:    &score,
		})
	}
	if plan != nil {
		for _, it := range plan.Items {
			if it.CompletedAt == nil {
				continue
			}
			title := "Unknown content"
			if c, ok := s.content.Get(it.ContentID); ok {
				title = c.Title
			}
			out = append(out, Activity{
				Date:     *it.CompletedAt,
				Activity: "Completed: " + title,
				Score:    it.Score,
			})
		}
	}

	slices.SortStableFunc(out, func(a, b Activity) int {
		return b.Date.Compare(a.Date)
	})
	if len(out) > maxActivity {
		out = out[:maxActivity]
	}
	return out
}

func dashboardRecommendations(u *store.User, plan *planner.Plan) []string {
	if !u.HasCompletedInitialAssessment {
		return []string{"Complete your initial assessment to get a personalized learning plan!"}
	}

	var recs []string
	if len(u.SkillRatings) > 0 {
		weakest := slices.MinFunc(u.SkillRatings, func(a, b skill.Rating) int {
			return cmp.Compare(a.Rating, b.Rating)
		})
		if weakest.Rating <= planner.FocusThreshold {
			recs = append(recs, fmt.Sprintf("Focus on improving your %s skills (%s/5)",
				weakest.Category.DisplayName(), strconv.FormatFloat(weakest.Rating, 'f', -1, 64)))
		}
	}

	if plan != nil {
		switch p := planner.Progress(*plan); {
		case p < 25:
			recs = append(recs, "You're just getting started! Complete a few lessons to build momentum.")
		case p < 75:
			recs = append(recs, "Great progress! Keep up the consistent practice.")
		default:
			recs = append(recs, "Almost there! Finish your current plan to unlock advanced content.")
		}
	}

	for _, r := range u.SkillRatings {
		if planner.Trend(r) == skill.Improving {
			recs = append(recs, fmt.Sprintf("Your %s skills are improving - great job!", r.Category.DisplayName()))
			break
		}
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
