package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

// EventType represents the lifecycle events of an exercise instance
type EventType string

const (
	EventInstanceStarted     EventType = "instance.started"
	EventAnswerChanged       EventType = "answer.changed"
	EventCorrectionRequested EventType = "correction.requested"
	EventCorrectionCompleted EventType = "correction.completed"
	EventCorrectionFailed    EventType = "correction.failed"
	EventInstanceDisposed    EventType = "instance.disposed"
)

const (
	EventSource  = "exercise-engine"
	EventVersion = "1.0"
)

// ExerciseEvent is the envelope shared by all exercise events
type ExerciseEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewExerciseEvent wraps data in an envelope with a fresh id
func NewExerciseEvent(eventType EventType, data interface{}) *ExerciseEvent {
	return &ExerciseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    EventSource,
		Version:   EventVersion,
		Data:      data,
	}
}

// Event payloads

type InstanceStartedEvent struct {
	InstanceID   string              `json:"instance_id"`
	StateKey     string              `json:"state_key,omitempty"`
	QuestionID   string              `json:"question_id"`
	ExerciseType models.ExerciseType `json:"exercise_type"`
	Restored     bool                `json:"restored"`
	Respondido   bool                `json:"respondido"`
}

type AnswerChangedEvent struct {
	InstanceID   string              `json:"instance_id"`
	ExerciseType models.ExerciseType `json:"exercise_type"`
	Operation    string              `json:"operation"`
	// SlotID and TokenID are set for word bank operations
	SlotID    string    `json:"slot_id,omitempty"`
	TokenID   string    `json:"token_id,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type CorrectionRequestedEvent struct {
	InstanceID   string              `json:"instance_id"`
	QuestionID   string              `json:"question_id"`
	ExerciseType models.ExerciseType `json:"exercise_type"`
	RequestedAt  time.Time           `json:"requested_at"`
}

type CorrectionCompletedEvent struct {
	InstanceID   string              `json:"instance_id"`
	QuestionID   string              `json:"question_id"`
	ExerciseType models.ExerciseType `json:"exercise_type"`
	Correct      bool                `json:"correct"`
	Score        *float64            `json:"score,omitempty"`
	CompletedAt  time.Time           `json:"completed_at"`
}

type CorrectionFailedEvent struct {
	InstanceID   string              `json:"instance_id"`
	QuestionID   string              `json:"question_id"`
	ExerciseType models.ExerciseType `json:"exercise_type"`
	Error        string              `json:"error"`
	Retryable    bool                `json:"retryable"`
	FailedAt     time.Time           `json:"failed_at"`
}

type InstanceDisposedEvent struct {
	InstanceID string    `json:"instance_id"`
	Pending    bool      `json:"pending"`
	DisposedAt time.Time `json:"disposed_at"`
}
