package events

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExerciseEvent_Envelope(t *testing.T) {
	e := NewExerciseEvent(EventInstanceStarted, InstanceStartedEvent{InstanceID: "i1"})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, EventInstanceStarted, e.Type)
	assert.Equal(t, EventSource, e.Source)
	assert.Equal(t, EventVersion, e.Version)
	assert.False(t, e.Timestamp.IsZero())
	assert.NotEqual(t, e.ID, NewExerciseEvent(EventInstanceStarted, nil).ID)
}

func TestNewMessage_Metadata(t *testing.T) {
	e := NewExerciseEvent(EventCorrectionFailed, CorrectionFailedEvent{InstanceID: "i1", Retryable: true})

	msg, err := newMessage(e)
	require.NoError(t, err)
	assert.Equal(t, e.ID, msg.UUID)
	assert.Equal(t, "correction.failed", msg.Metadata.Get("event_type"))
	assert.Equal(t, EventSource, msg.Metadata.Get("source"))
	assert.Contains(t, string(msg.Payload), `"retryable":true`)
}

func TestMockEventPublisher_ConcurrentPublish(t *testing.T) {
	m := NewMockEventPublisher(slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.PublishExerciseEvent(context.Background(), NewExerciseEvent(EventAnswerChanged, nil))
		}()
	}
	wg.Wait()

	assert.Len(t, m.GetPublishedEvents(), 20)
	m.ClearEvents()
	assert.Empty(t, m.EventTypes())
}
