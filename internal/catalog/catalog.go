package catalog

import (
	"fmt"
	"slices"
	"sync"

	"github.com/abhisek/mixcoach/internal/skill"
)

// Catalog is the read-only content library with precomputed indices.
// It is safe for concurrent use.
type Catalog struct {
	items        []ContentItem
	byID         map[string]int
	byCategory   map[skill.Category][]ContentItem
	byType       map[skill.ContentType][]ContentItem
	byDifficulty map[skill.Difficulty][]ContentItem
	dependents   map[string][]string
}

// New validates items and builds a Catalog over them.
func New(items []ContentItem) (*Catalog, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}
	return build(items), nil
}

// Load parses YAML content and builds a validated Catalog.
func Load(data []byte) (*Catalog, error) {
	items, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return New(items)
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded content catalog.
// It panics if the embedded data fails validation.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(contentYAML)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded content: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// build constructs all indices. Items keep their declaration order within
// every index.
func build(items []ContentItem) *Catalog {
	c := &Catalog{
		items:        slices.Clone(items),
		byID:         make(map[string]int, len(items)),
		byCategory:   make(map[skill.Category][]ContentItem),
		byType:       make(map[skill.ContentType][]ContentItem),
		byDifficulty: make(map[skill.Difficulty][]ContentItem),
		dependents:   make(map[string][]string),
	}
	for i, it := range c.items {
		c.byID[it.ID] = i
		c.byCategory[it.Category] = append(c.byCategory[it.Category], it)
		c.byType[it.Type] = append(c.byType[it.Type], it)
		c.byDifficulty[it.Difficulty] = append(c.byDifficulty[it.Difficulty], it)
		for _, p := range it.Prerequisites {
			c.dependents[p] = append(c.dependents[p], it.ID)
		}
	}
	return c
}

// Get returns the item with the given ID.
func (c *Catalog) Get(id string) (ContentItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return ContentItem{}, false
	}
	return c.items[i], true
}

// All returns every item in declaration order.
func (c *Catalog) All() []ContentItem {
	return slices.Clone(c.items)
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// ByCategory returns all items in a category.
func (c *Catalog) ByCategory(cat skill.Category) []ContentItem {
	return slices.Clone(c.byCategory[cat])
}

// UpToDifficulty returns items in a category at or below max.
func (c *Catalog) UpToDifficulty(cat skill.Category, max skill.Difficulty) []ContentItem {
	var out []ContentItem
	for _, it := range c.byCategory[cat] {
		if it.Difficulty <= max {
			out = append(out, it)
		}
	}
	return out
}

// ByType returns all items of a content type.
func (c *Catalog) ByType(t skill.ContentType) []ContentItem {
	return slices.Clone(c.byType[t])
}

// ByDifficulty returns all items at exactly difficulty d.
func (c *Catalog) ByDifficulty(d skill.Difficulty) []ContentItem {
	return slices.Clone(c.byDifficulty[d])
}

// Prerequisites returns the direct prerequisite items of id.
func (c *Catalog) Prerequisites(id string) []ContentItem {
	it, ok := c.Get(id)
	if !ok {
		return nil
	}
	out := make([]ContentItem, 0, len(it.Prerequisites))
	for _, p := range it.Prerequisites {
		if pi, ok := c.Get(p); ok {
			out = append(out, pi)
		}
	}
	return out
}

// Dependents returns items that list id as a direct prerequisite.
func (c *Catalog) Dependents(id string) []ContentItem {
	ids := c.dependents[id]
	out := make([]ContentItem, 0, len(ids))
	for _, d := range ids {
		if it, ok := c.Get(d); ok {
			out = append(out, it)
		}
	}
	return out
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	Category   skill.Category
	Type       skill.ContentType
	Difficulty skill.Difficulty
}

// Query returns items matching every set field of f, in declaration order.
func (c *Catalog) Query(f Filter) []ContentItem {
	src := c.items
	if f.Category != "" {
		src = c.byCategory[f.Category]
	}
	var out []ContentItem
	for _, it := range src {
		if f.Type != "" && it.Type != f.Type {
			continue
		}
		if f.Difficulty != 0 && it.Difficulty != f.Difficulty {
			continue
		}
		out = append(out, it)
	}
	return out
}

// CategorySummary counts a category's content by type and difficulty.
type CategorySummary struct {
	Category     skill.Category            `json:"category"`
	Name         string                    `json:"categoryName"`
	Total        int                       `json:"totalContent"`
	ByType       map[skill.ContentType]int `json:"byType"`
	ByDifficulty map[string]int            `json:"difficulties"`
	TotalMinutes int                       `json:"totalMinutes"`
}

// Summary returns one CategorySummary per category in display order.
func (c *Catalog) Summary() []CategorySummary {
	out := make([]CategorySummary, 0, len(skill.AllCategories()))
	for _, cat := range skill.AllCategories() {
		s := CategorySummary{
			Category:     cat,
			Name:         cat.DisplayName(),
			ByType:       make(map[skill.ContentType]int),
			ByDifficulty: make(map[string]int),
		}
		for _, it := range c.byCategory[cat] {
			s.Total++
			s.ByType[it.Type]++
			s.ByDifficulty[it.Difficulty.Label()]++
			s.TotalMinutes += it.EstimatedMins
		}
		out = append(out, s)
	}
	return out
}
