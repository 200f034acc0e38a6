package questionbank

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/mixcoach/internal/skill"
)

//go:embed questions.yaml
var questionsYAML []byte

// DefaultPerCategory is the number of questions per category in an initial assessment.
const DefaultPerCategory = 3

// Bank is the read-only question library, indexed by category once at load.
type Bank struct {
	questions  []Question
	byID       map[string]int
	byCategory map[skill.Category][]Question
}

// Parse decodes a YAML question list.
func Parse(data []byte) ([]Question, error) {
	var qs []Question
	if err := yaml.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return qs, nil
}

// New validates questions and builds a Bank over them.
func New(questions []Question) (*Bank, error) {
	if err := validateQuestions(questions); err != nil {
		return nil, err
	}
	b := &Bank{
		questions:  slices.Clone(questions),
		byID:       make(map[string]int, len(questions)),
		byCategory: make(map[skill.Category][]Question),
	}
	for i := range b.questions {
		q := &b.questions[i]
		if q.Tolerance != nil {
			// Validation guarantees the tokens parse.
			q.expected, _ = ParseParams(q.Answer.List)
		}
		b.byID[q.ID] = i
	}
	for _, q := range b.questions {
		b.byCategory[q.Category] = append(b.byCategory[q.Category], q)
	}
	for cat, qs := range b.byCategory {
		b.byCategory[cat] = slices.Clip(qs)
	}
	return b, nil
}

// Load parses YAML questions and builds a validated Bank.
func Load(data []byte) (*Bank, error) {
	qs, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return New(qs)
}

var (
	defaultOnce sync.Once
	defaultBank *Bank
)

// Default returns the embedded question bank.
// It panics if the embedded data fails validation.
func Default() *Bank {
	defaultOnce.Do(func() {
		b, err := Load(questionsYAML)
		if err != nil {
			panic(fmt.Sprintf("questionbank: embedded questions: %v", err))
		}
		defaultBank = b
	})
	return defaultBank
}

// Get returns the question with the given ID.
func (b *Bank) Get(id string) (Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Question{}, false
	}
	return b.questions[i], true
}

// All returns every question in declaration order.
func (b *Bank) All() []Question {
	return slices.Clone(b.questions)
}

// Len returns the number of questions.
func (b *Bank) Len() int {
	return len(b.questions)
}

// ByCategory returns the questions of a category in declaration order.
// Repeated calls return the same backing slice; callers must not modify it.
func (b *Bank) ByCategory(cat skill.Category) []Question {
	return b.byCategory[cat]
}

// Balanced selects up to perCategory questions from every category, easiest
// first with declaration order breaking ties, concatenated in category
// display order. A non-positive perCategory selects DefaultPerCategory.
func (b *Bank) Balanced(perCategory int) []Question {
	if perCategory <= 0 {
		perCategory = DefaultPerCategory
	}
	var out []Question
	for _, cat := range skill.AllCategories() {
		sorted := slices.Clone(b.byCategory[cat])
		slices.SortStableFunc(sorted, func(x, y Question) int {
			return int(x.Difficulty) - int(y.Difficulty)
		})
		if len(sorted) > perCategory {
			sorted = sorted[:perCategory]
		}
		out = append(out, sorted...)
	}
	return out
}
