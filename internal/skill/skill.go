package skill

import (
	"fmt"
	"time"
)

// Category is one of the five fixed mixing competency areas.
type Category string

const (
	FrequencyFinder Category = "FREQUENCY_FINDER"
	EQSkill         Category = "EQ_SKILL"
	Balancing       Category = "BALANCING"
	Compression     Category = "COMPRESSION"
	SongStructure   Category = "SONG_STRUCTURE"
)

// AllCategories returns all categories in display order.
func AllCategories() []Category {
	return []Category{
		FrequencyFinder,
		EQSkill,
		Balancing,
		Compression,
		SongStructure,
	}
}

// DisplayName returns a human-readable name for a category.
func (c Category) DisplayName() string {
	switch c {
	case FrequencyFinder:
		return "Frequency Finder"
	case EQSkill:
		return "EQ Skills"
	case Balancing:
		return "Mix Balancing"
	case Compression:
		return "Compression"
	case SongStructure:
		return "Song Structure"
	default:
		return string(c)
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, k := range AllCategories() {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory converts a wire value into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown skill category: %q", s)
	}
	return c, nil
}

// Difficulty is an ordinal level from 1 (beginner) to 5 (master).
// Ratings and difficulties share this numeric domain and are compared directly.
type Difficulty int

const (
	Beginner Difficulty = iota + 1
	Intermediate
	Advanced
	Expert
	Master
)

// Label returns the display label for a difficulty.
func (d Difficulty) Label() string {
	switch d {
	case Beginner:
		return "Beginner"
	case Intermediate:
		return "Intermediate"
	case Advanced:
		return "Advanced"
	case Expert:
		return "Expert"
	case Master:
		return "Master"
	default:
		return "Unknown"
	}
}

// Valid reports whether d lies in 1..5.
func (d Difficulty) Valid() bool {
	return d >= Beginner && d <= Master
}

// ContentType classifies a catalog item.
type ContentType string

const (
	Lesson   ContentType = "LESSON"
	Practice ContentType = "PRACTICE"
	MiniGame ContentType = "MINI_GAME"
	Quiz     ContentType = "QUIZ"
)

// AllContentTypes returns all content types in learning order.
func AllContentTypes() []ContentType {
	return []ContentType{Lesson, Practice, MiniGame, Quiz}
}

// Priority orders content types for plan sequencing: lessons first, quizzes last.
func (t ContentType) Priority() int {
	switch t {
	case Lesson:
		return 1
	case Practice:
		return 2
	case MiniGame:
		return 3
	case Quiz:
		return 4
	default:
		return 5
	}
}

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t.Priority() <= 4
}

// ParseContentType converts a wire value into a ContentType.
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown content type: %q", s)
	}
	return t, nil
}

// Status is the progress state of a plan item.
type Status string

const (
	NotStarted Status = "NOT_STARTED"
	InProgress Status = "IN_PROGRESS"
	Completed  Status = "COMPLETED"
	Mastered   Status = "MASTERED"
)

// Actionable reports whether an item in this status still needs work.
func (s Status) Actionable() bool {
	return s == NotStarted || s == InProgress
}

// Done reports whether an item in this status counts toward plan progress.
func (s Status) Done() bool {
	return s == Completed || s == Mastered
}

// Trend summarizes the direction of recent rating changes.
type Trend string

const (
	Improving Trend = "improving"
	Stable    Trend = "stable"
	Declining Trend = "declining"
)

// Rating bounds.
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// SourceInitialTest tags history entries produced by the initial assessment.
const SourceInitialTest = "initial_test"

// RatingEntry is one point in a rating's history.
type RatingEntry struct {
	Rating     float64   `json:"rating"`
	AssessedAt time.Time `json:"assessedAt"`
	Source     string    `json:"source"`
}

// Rating is a learner's proficiency in one category.
type Rating struct {
	Category     Category      `json:"category"`
	Rating       float64       `json:"rating"`
	LastAssessed time.Time     `json:"lastAssessed"`
	History      []RatingEntry `json:"history"`
}

// Clamp bounds r to [MinRating, MaxRating].
func Clamp(r float64) float64 {
	if r < MinRating {
		return MinRating
	}
	if r > MaxRating {
		return MaxRating
	}
	return r
}
