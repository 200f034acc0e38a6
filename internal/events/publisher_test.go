package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewEvent(t *testing.T) {
	a := New(ProgressUpdated, "u1", ProgressUpdatedPayload{ContentID: "eq-lesson-basics", Score: 80})
	b := New(ProgressUpdated, "u1", nil)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "1", a.Version)
	assert.Equal(t, ProgressUpdated, a.Type)
	assert.NotZero(t, a.Timestamp)
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	require.NoError(t, p.Publish(context.Background(), New(UserCreated, "u1", nil)))
	require.NoError(t, p.Close())

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "events", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "user.created", fields["type"])
	assert.Equal(t, "u1", fields["user_id"])
}

func TestAMQPPublisherDisabled(t *testing.T) {
	p, err := NewAMQPPublisher("", "mixcoach.events", zap.NewNop())
	require.NoError(t, err)

	assert.NoError(t, p.Publish(context.Background(), New(AssessmentCompleted, "u1", nil)))
	assert.NoError(t, p.Close())
}

func TestPublishingMessage(t *testing.T) {
	ev := New(AssessmentCompleted, "u1", AssessmentCompletedPayload{AssessmentID: "a1", OverallScore: 72.5})

	msg, err := publishing(ev)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp091.Persistent, msg.DeliveryMode)
	assert.Equal(t, ev.ID, msg.MessageId)
	assert.Equal(t, "assessment.completed", msg.Type)
	assert.Equal(t, "1", msg.Headers["version"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "u1", decoded["userId"])
	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, "a1", payload["assessmentId"])
	assert.Equal(t, 72.5, payload["overallScore"])
}
