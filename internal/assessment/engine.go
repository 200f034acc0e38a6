// Package assessment generates initial skill assessments and scores them
// into per-category ratings and recommendations.
package assessment

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mixcoach/internal/questionbank"
	"github.com/abhisek/mixcoach/internal/skill"
)

// QuestionSource supplies the balanced question sample.
type QuestionSource interface {
	Balanced(perCategory int) []questionbank.Question
}

// Engine generates and scores assessments. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	questions QuestionSource
	now       func() time.Time
}

// NewEngine creates an Engine drawing questions from src.
func NewEngine(src QuestionSource) *Engine {
	return &Engine{questions: src, now: time.Now}
}

// Generated is a freshly generated assessment.
type Generated struct {
	ID        string
	Questions []questionbank.Question
}

// Generate samples a balanced question set under a new unique assessment ID.
func (e *Engine) Generate(perCategory int) Generated {
	return Generated{
		ID:        uuid.NewString(),
		Questions: e.questions.Balanced(perCategory),
	}
}

// UserAnswer is one scored response.
type UserAnswer struct {
	QuestionID    string              `json:"questionId"`
	Answer        questionbank.Answer `json:"answer"`
	TimeTakenSecs int                 `json:"timeTaken"`
	Correct       bool                `json:"isCorrect"`
	PointsEarned  int                 `json:"pointsEarned"`
}

// SectionResult aggregates one category's answers.
type SectionResult struct {
	Category         skill.Category `json:"category"`
	TotalQuestions   int            `json:"totalQuestions"`
	CorrectAnswers   int            `json:"correctAnswers"`
	TotalPoints      int            `json:"totalPoints"`
	EarnedPoints     int            `json:"earnedPoints"`
	PercentageScore  float64        `json:"percentageScore"`
	CalculatedRating int            `json:"calculatedRating"`
	Answers          []UserAnswer   `json:"answers"`
}

// Result is a scored assessment. It is not modified after Score returns it.
type Result struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	StartedAt       time.Time       `json:"startedAt"`
	CompletedAt     time.Time       `json:"completedAt"`
	Sections        []SectionResult `json:"sections"`
	OverallScore    float64         `json:"overallScore"`
	Recommendations []string        `json:"recommendations"`
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	out := r
	out.Sections = make([]SectionResult, len(r.Sections))
	for i, sec := range r.Sections {
		answers := make([]UserAnswer, len(sec.Answers))
		for j, a := range sec.Answers {
			a.Answer.List = slices.Clone(a.Answer.List)
			answers[j] = a
		}
		if sec.Answers == nil {
			answers = nil
		}
		sec.Answers = answers
		out.Sections[i] = sec
	}
	if r.Sections == nil {
		out.Sections = nil
	}
	out.Recommendations = slices.Clone(r.Recommendations)
	return out
}

// Score grades answers against questions. Missing or malformed answers
// score as incorrect; Score never fails.
func (e *Engine) Score(id, userID string, answers map[string]questionbank.Answer, questions []questionbank.Question, startedAt time.Time) Result {
	byCategory := make(map[skill.Category][]questionbank.Question)
	scored := make(map[skill.Category][]UserAnswer)
	for _, q := range questions {
		a, ok := answers[q.ID]
		sub := prepare(q, a, ok)
		byCategory[q.Category] = append(byCategory[q.Category], q)
		scored[q.Category] = append(scored[q.Category], scoreAnswer(q, sub))
	}

	var sections []SectionResult
	for _, cat := range skill.AllCategories() {
		if len(scored[cat]) == 0 {
			continue
		}
		sections = append(sections, sectionResult(cat, scored[cat], byCategory[cat]))
	}

	return Result{
		ID:              id,
		UserID:          userID,
		StartedAt:       startedAt,
		CompletedAt:     e.now(),
		Sections:        sections,
		OverallScore:    overallScore(sections),
		Recommendations: Recommendations(sections),
	}
}

func sectionResult(cat skill.Category, answers []UserAnswer, questions []questionbank.Question) SectionResult {
	s := SectionResult{
		Category:       cat,
		TotalQuestions: len(answers),
		Answers:        answers,
	}
	diffSum := 0
	for _, q := range questions {
		s.TotalPoints += q.Points
		diffSum += int(q.Difficulty)
	}
	for _, a := range answers {
		s.EarnedPoints += a.PointsEarned
		if a.Correct {
			s.CorrectAnswers++
		}
	}
	if s.TotalPoints > 0 {
		s.PercentageScore = float64(s.EarnedPoints) / float64(s.TotalPoints) * 100
	}
	avg := float64(diffSum) / float64(len(questions))
	s.CalculatedRating = CalculateRating(s.PercentageScore, avg)
	return s
}

func overallScore(sections []SectionResult) float64 {
	earned, possible := 0, 0
	for _, s := range sections {
		earned += s.EarnedPoints
		possible += s.TotalPoints
	}
	if possible == 0 {
		return 0
	}
	return float64(earned) / float64(possible) * 100
}

// CalculateRating maps a percentage score to a 1..5 rating, crediting
// harder question sets and discounting weak results on easy ones.
func CalculateRating(percentage, avgDifficulty float64) int {
	var rating int
	switch {
	case percentage >= 90:
		rating = 5
	case percentage >= 75:
		rating = 4
	case percentage >= 60:
		rating = 3
	case percentage >= 40:
		rating = 2
	default:
		rating = 1
	}

	switch {
	case avgDifficulty >= float64(skill.Advanced) && percentage >= 50:
		rating = min(5, rating+1)
	case avgDifficulty <= float64(skill.Beginner) && percentage < 80:
		rating = max(1, rating-1)
	}
	return rating
}
