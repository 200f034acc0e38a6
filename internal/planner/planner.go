// Package planner turns skill ratings into an ordered content curriculum
// and repairs that curriculum as the learner progresses.
//
// Every operation is a pure transformation: it reads the values it is given
// and returns new ones. Persisting the results is the caller's job.
package planner

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mixcoach/internal/catalog"
	"github.com/abhisek/mixcoach/internal/skill"
)

// ContentLookup is the catalog surface the planner reads.
type ContentLookup interface {
	Get(id string) (catalog.ContentItem, bool)
	ByCategory(cat skill.Category) []catalog.ContentItem
	UpToDifficulty(cat skill.Category, max skill.Difficulty) []catalog.ContentItem
}

// Score thresholds.
const (
	CompletionScore = 70
	RemedialScore   = 50
	MaxRemedial     = 2
	FocusThreshold  = 3
	FallbackFocus   = 2
)

// Planner builds and updates learning plans.
type Planner struct {
	content ContentLookup
	now     func() time.Time
	newID   func() string
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock sets the time source stamped on plans, items and ratings.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// New creates a Planner that resolves content through lookup.
func New(lookup ContentLookup, opts ...Option) *Planner {
	p := &Planner{
		content: lookup,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// MaxDifficultyFor returns the hardest content difficulty suitable for rating.
func MaxDifficultyFor(rating float64) skill.Difficulty {
	switch {
	case rating <= 1:
		return skill.Beginner
	case rating <= 2:
		return skill.Intermediate
	case rating <= 3:
		return skill.Advanced
	case rating <= 4:
		return skill.Expert
	default:
		return skill.Master
	}
}

// FocusAreas returns the categories rated at or below FocusThreshold, weakest
// first. When every category is strong it falls back to the two lowest rated.
func FocusAreas(ratings []skill.Rating) []skill.Category {
	sorted := sortedWeakestFirst(ratings)
	var focus []skill.Category
	for _, r := range sorted {
		if r.Rating <= FocusThreshold {
			focus = append(focus, r.Category)
		}
	}
	if len(focus) == 0 {
		for _, r := range sorted[:min(FallbackFocus, len(sorted))] {
			focus = append(focus, r.Category)
		}
	}
	return focus
}

func sortedWeakestFirst(ratings []skill.Rating) []skill.Rating {
	sorted := slices.Clone(ratings)
	slices.SortStableFunc(sorted, func(a, b skill.Rating) int {
		switch {
		case a.Rating < b.Rating:
			return -1
		case a.Rating > b.Rating:
			return 1
		}
		return 0
	})
	return sorted
}

// CreatePlan builds a fresh plan from one rating per category.
func (p *Planner) CreatePlan(userID string, ratings []skill.Rating) Plan {
	focus := FocusAreas(ratings)

	var selected []catalog.ContentItem
	for _, r := range sortedWeakestFirst(ratings) {
		pool := p.content.UpToDifficulty(r.Category, MaxDifficultyFor(r.Rating))
		selected = append(selected, selectContent(pool, slices.Contains(focus, r.Category))...)
	}

	// Lessons before practice before games before quizzes, easiest first,
	// selection order otherwise.
	slices.SortStableFunc(selected, func(a, b catalog.ContentItem) int {
		if d := a.Type.Priority() - b.Type.Priority(); d != 0 {
			return d
		}
		return int(a.Difficulty) - int(b.Difficulty)
	})

	items := make([]Item, len(selected))
	for i, c := range selected {
		items[i] = Item{
			ID:        p.newID(),
			ContentID: c.ID,
			Order:     i,
			Status:    skill.NotStarted,
		}
	}

	now := p.now()
	return Plan{
		ID:               p.newID(),
		UserID:           userID,
		CreatedAt:        now,
		UpdatedAt:        now,
		Items:            items,
		FocusAreas:       focus,
		CurrentItemIndex: 0,
		IsActive:         true,
	}
}

// selectContent keeps every lesson, game and quiz for a focus area, and only
// the easiest of each for other categories.
func selectContent(pool []catalog.ContentItem, focus bool) []catalog.ContentItem {
	var out []catalog.ContentItem
	for _, t := range []skill.ContentType{skill.Lesson, skill.MiniGame, skill.Quiz} {
		var ofType []catalog.ContentItem
		for _, c := range pool {
			if c.Type == t {
				ofType = append(ofType, c)
			}
		}
		if len(ofType) == 0 {
			continue
		}
		if focus {
			out = append(out, ofType...)
			continue
		}
		easiest := ofType[0]
		for _, c := range ofType[1:] {
			if c.Difficulty < easiest.Difficulty {
				easiest = c
			}
		}
		out = append(out, easiest)
	}
	return out
}

// UpdatePlan records a completion of contentID with score (0..100) and
// returns the updated plan. An unknown contentID returns plan unchanged.
//
// A score at or above CompletionScore completes the item; lower scores leave
// it in progress. Completed and mastered items never move back to in progress.
// A score below RemedialScore splices up to MaxRemedial easier lessons from
// the same category right after the item.
//
// ratings is accepted for callers that re-plan on rating changes; the
// current policy does not consult it.
func (p *Planner) UpdatePlan(plan Plan, ratings []skill.Rating, contentID string, score float64) Plan {
	idx := plan.ItemFor(contentID)
	if idx < 0 {
		return plan
	}

	out := plan.Clone()
	now := p.now()

	it := &out.Items[idx]
	switch {
	case it.Status.Done():
		// no regression
	case score >= CompletionScore:
		it.Status = skill.Completed
	default:
		it.Status = skill.InProgress
	}
	if it.StartedAt == nil {
		started := now
		it.StartedAt = &started
	}
	completed := now
	it.CompletedAt = &completed
	s := score
	it.Score = &s
	it.Attempts++

	if score < RemedialScore {
		if c, ok := p.content.Get(contentID); ok {
			remedial := p.remedialFor(c)
			if len(remedial) > 0 {
				inserted := make([]Item, len(remedial))
				for i, r := range remedial {
					inserted[i] = Item{
						ID:        p.newID(),
						ContentID: r.ID,
						Status:    skill.NotStarted,
					}
				}
				out.Items = slices.Insert(out.Items, idx+1, inserted...)
			}
		}
	}

	renumber(out.Items)
	out.CurrentItemIndex = currentIndex(out.Items)
	out.UpdatedAt = now
	return out
}

// remedialFor picks up to MaxRemedial easier lessons in c's category that
// c does not already list as prerequisites.
func (p *Planner) remedialFor(c catalog.ContentItem) []catalog.ContentItem {
	var out []catalog.ContentItem
	for _, cand := range p.content.ByCategory(c.Category) {
		if cand.Type != skill.Lesson || cand.Difficulty >= c.Difficulty || c.HasPrerequisite(cand.ID) {
			continue
		}
		out = append(out, cand)
		if len(out) == MaxRemedial {
			break
		}
	}
	return out
}

// NextItems returns the content of the first count actionable items in plan
// order. Items whose content is unknown are skipped.
func (p *Planner) NextItems(plan Plan, count int) []catalog.ContentItem {
	var out []catalog.ContentItem
	for _, it := range plan.Items {
		if len(out) >= count {
			break
		}
		if !it.Status.Actionable() {
			continue
		}
		if c, ok := p.content.Get(it.ContentID); ok {
			out = append(out, c)
		}
	}
	return out
}

// Progress returns the percentage of items completed or mastered.
func Progress(plan Plan) float64 {
	if len(plan.Items) == 0 {
		return 0
	}
	done := 0
	for _, it := range plan.Items {
		if it.Status.Done() {
			done++
		}
	}
	return float64(done) / float64(len(plan.Items)) * 100
}
