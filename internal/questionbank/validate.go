package questionbank

import (
	"fmt"
	"strings"

	"github.com/abhisek/mixcoach/internal/skill"
)

// validateQuestions performs all structural checks on the given question set.
// Returns a combined error describing all problems found, or nil if valid.
func validateQuestions(questions []Question) error {
	var errs []string

	idSet := make(map[string]bool, len(questions))
	categorySet := make(map[skill.Category]bool)

	for _, q := range questions {
		if q.ID == "" {
			errs = append(errs, fmt.Sprintf("question %q has an empty ID", q.Prompt))
			continue
		}
		if idSet[q.ID] {
			errs = append(errs, fmt.Sprintf("duplicate question ID: %q", q.ID))
		}
		idSet[q.ID] = true
		categorySet[q.Category] = true

		prefix := fmt.Sprintf("question %q", q.ID)
		if !q.Category.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown category %q", prefix, q.Category))
		}
		if !q.Type.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown question type %q", prefix, q.Type))
		}
		if !q.Difficulty.Valid() {
			errs = append(errs, fmt.Sprintf("%s: difficulty must be in 1..5, got %d", prefix, q.Difficulty))
		}
		if q.Points <= 0 {
			errs = append(errs, fmt.Sprintf("%s: points must be > 0, got %d", prefix, q.Points))
		}
		if strings.TrimSpace(q.Prompt) == "" {
			errs = append(errs, fmt.Sprintf("%s: empty prompt", prefix))
		}
		if q.Answer.Empty() {
			errs = append(errs, fmt.Sprintf("%s: missing correct answer", prefix))
			continue
		}

		switch {
		case q.Tolerance != nil:
			if !q.Answer.IsList() {
				errs = append(errs, fmt.Sprintf("%s: toleranced answer must be a list of param:value tokens", prefix))
				break
			}
			if _, err := ParseParams(q.Answer.List); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", prefix, err))
			}
		case len(q.Options) > 0:
			vals := q.Answer.List
			if !q.Answer.IsList() {
				vals = []string{q.Answer.Value}
			}
			for _, v := range vals {
				if !q.HasOption(v) {
					errs = append(errs, fmt.Sprintf("%s: answer %q is not one of its options", prefix, v))
				}
			}
		}
	}

	for _, cat := range skill.AllCategories() {
		if !categorySet[cat] {
			errs = append(errs, fmt.Sprintf("category %q has no questions", cat))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("question bank validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
