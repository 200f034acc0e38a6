package assessment

import (
	"github.com/abhisek/mixcoach/internal/questionbank"
	"github.com/abhisek/mixcoach/internal/skill"
)

// SafeQuestion is a question as shown to a learner: no correct answer and
// no target values.
type SafeQuestion struct {
	ID            string                    `json:"id"`
	Category      skill.Category            `json:"category"`
	Type          questionbank.QuestionType `json:"questionType"`
	Difficulty    skill.Difficulty          `json:"difficulty"`
	Prompt        string                    `json:"prompt"`
	AudioURL      string                    `json:"audioUrl,omitempty"`
	Options       []questionbank.Option     `json:"options,omitempty"`
	Points        int                       `json:"points"`
	TimeLimitSecs int                       `json:"timeLimit,omitempty"`
	Tracks        []string                  `json:"tracks,omitempty"`
	Tolerance     *questionbank.Tolerance   `json:"tolerance,omitempty"`
}

// Safe strips answer material from q.
func Safe(q questionbank.Question) SafeQuestion {
	return SafeQuestion{
		ID:            q.ID,
		Category:      q.Category,
		Type:          q.Type,
		Difficulty:    q.Difficulty,
		Prompt:        q.Prompt,
		AudioURL:      q.AudioURL,
		Options:       q.Options,
		Points:        q.Points,
		TimeLimitSecs: q.TimeLimitSecs,
		Tracks:        q.Tracks,
		Tolerance:     q.Tolerance,
	}
}

// SafeView strips answer material from every question.
func SafeView(qs []questionbank.Question) []SafeQuestion {
	out := make([]SafeQuestion, len(qs))
	for i, q := range qs {
		out[i] = Safe(q)
	}
	return out
}
