package catalog

import (
	"fmt"
	"strings"

	"github.com/abhisek/mixcoach/internal/skill"
)

// validateItems performs all structural checks on the given content set.
// Returns a combined error describing all problems found, or nil if valid.
func validateItems(items []ContentItem) error {
	var errs []string

	idSet := make(map[string]bool, len(items))
	categorySet := make(map[skill.Category]bool)

	for _, c := range items {
		if c.ID == "" {
			errs = append(errs, fmt.Sprintf("content %q has an empty ID", c.Title))
			continue
		}
		if idSet[c.ID] {
			errs = append(errs, fmt.Sprintf("duplicate content ID: %q", c.ID))
		}
		idSet[c.ID] = true
		categorySet[c.Category] = true

		if !c.Category.Valid() {
			errs = append(errs, fmt.Sprintf("content %q has unknown category %q", c.ID, c.Category))
		}
		if !c.Type.Valid() {
			errs = append(errs, fmt.Sprintf("content %q has unknown type %q", c.ID, c.Type))
		}
		if !c.Difficulty.Valid() {
			errs = append(errs, fmt.Sprintf("content %q: difficulty must be in 1..5, got %d", c.ID, c.Difficulty))
		}
		if c.EstimatedMins <= 0 {
			errs = append(errs, fmt.Sprintf("content %q: estimated duration must be > 0, got %d", c.ID, c.EstimatedMins))
		}
	}

	for _, c := range items {
		for _, prereqID := range c.Prerequisites {
			if !idSet[prereqID] {
				errs = append(errs, fmt.Sprintf("content %q references nonexistent prerequisite %q", c.ID, prereqID))
			}
			if prereqID == c.ID {
				errs = append(errs, fmt.Sprintf("content %q lists itself as a prerequisite", c.ID))
			}
		}
	}

	// Cycle check (Kahn's algorithm). Self-references are reported above.
	inDegree := make(map[string]int, len(items))
	adjList := make(map[string][]string)
	for _, c := range items {
		inDegree[c.ID] = 0
	}
	for _, c := range items {
		for _, prereqID := range c.Prerequisites {
			if _, ok := inDegree[prereqID]; !ok || prereqID == c.ID {
				continue
			}
			inDegree[c.ID]++
			adjList[prereqID] = append(adjList[prereqID], c.ID)
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, depID := range adjList[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}
	if visited < len(inDegree) {
		var cycleNodes []string
		for _, c := range items {
			if inDegree[c.ID] > 0 {
				cycleNodes = append(cycleNodes, c.ID)
			}
		}
		errs = append(errs, fmt.Sprintf("cycle detected involving content: %s", strings.Join(cycleNodes, ", ")))
	}

	// A category with no content silently degrades every plan that touches it.
	for _, cat := range skill.AllCategories() {
		if !categorySet[cat] {
			errs = append(errs, fmt.Sprintf("category %q has no content", cat))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("content catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
