package planner

import (
	"slices"
	"time"

	"github.com/abhisek/mixcoach/internal/skill"
)

// Item is one scheduled piece of content within a plan.
type Item struct {
	ID          string       `json:"id"`
	ContentID   string       `json:"contentId"`
	Order       int          `json:"order"`
	Status      skill.Status `json:"status"`
	StartedAt   *time.Time   `json:"startedAt,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Score       *float64     `json:"score,omitempty"`
	Attempts    int          `json:"attempts"`
}

// Plan is an ordered curriculum owned by one user.
type Plan struct {
	ID               string           `json:"id"`
	UserID           string           `json:"userId"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	Items            []Item           `json:"items"`
	FocusAreas       []skill.Category `json:"focusAreas"`
	CurrentItemIndex int              `json:"currentItemIndex"`
	IsActive         bool             `json:"isActive"`
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	out := p
	out.Items = make([]Item, len(p.Items))
	for i, it := range p.Items {
		out.Items[i] = it.clone()
	}
	out.FocusAreas = slices.Clone(p.FocusAreas)
	return out
}

func (it Item) clone() Item {
	out := it
	if it.StartedAt != nil {
		t := *it.StartedAt
		out.StartedAt = &t
	}
	if it.CompletedAt != nil {
		t := *it.CompletedAt
		out.CompletedAt = &t
	}
	if it.Score != nil {
		s := *it.Score
		out.Score = &s
	}
	return out
}

// IsFocus reports whether cat is one of the plan's focus areas.
func (p Plan) IsFocus(cat skill.Category) bool {
	return slices.Contains(p.FocusAreas, cat)
}

// ItemFor returns the index of the first item referencing contentID, or -1.
func (p Plan) ItemFor(contentID string) int {
	for i, it := range p.Items {
		if it.ContentID == contentID {
			return i
		}
	}
	return -1
}

// Exhausted reports whether no actionable items remain.
func (p Plan) Exhausted() bool {
	return p.CurrentItemIndex >= len(p.Items)
}

// currentIndex returns the position of the first actionable item, or
// len(items) when none remain.
func currentIndex(items []Item) int {
	for i, it := range items {
		if it.Status.Actionable() {
			return i
		}
	}
	return len(items)
}

// renumber assigns a dense 0..N-1 order matching slice position.
func renumber(items []Item) {
	for i := range items {
		items[i].Order = i
	}
}
