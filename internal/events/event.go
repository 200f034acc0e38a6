// Package events publishes domain events about learner activity.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	UserCreated         Type = "user.created"
	AssessmentStarted   Type = "assessment.started"
	AssessmentCompleted Type = "assessment.completed"
	ProgressUpdated     Type = "progress.updated"
)

const schemaVersion = "1"

// Event is the envelope every published event shares.
type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
	UserID    string `json:"userId"`
	Payload   any    `json:"payload,omitempty"`
}

// New builds an event stamped with a fresh id and the current time.
func New(t Type, userID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().Unix(),
		Version:   schemaVersion,
		UserID:    userID,
		Payload:   payload,
	}
}

// Publisher delivers events to some sink.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// AssessmentCompletedPayload accompanies AssessmentCompleted.
type AssessmentCompletedPayload struct {
	AssessmentID string   `json:"assessmentId"`
	OverallScore float64  `json:"overallScore"`
	PlanID       string   `json:"planId"`
	FocusAreas   []string `json:"focusAreas"`
}

// ProgressUpdatedPayload accompanies ProgressUpdated.
type ProgressUpdatedPayload struct {
	PlanID    string  `json:"planId"`
	ContentID string  `json:"contentId"`
	Score     float64 `json:"score"`
	Category  string  `json:"category"`
	NewRating float64 `json:"newRating"`
	Progress  float64 `json:"progress"`
}
