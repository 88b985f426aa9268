//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/SAP-F-2025/exercise-engine/internal/events"
	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

func setupRabbitMQ(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get AMQP URL: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return amqpURL, cleanup
}

func TestIntegration_AMQPPublisher_RoutesByEventType(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	publisher, err := events.NewAMQPEventPublisher(events.AMQPConfig{
		URL:      amqpURL,
		Exchange: "exercise.events",
		Logger:   slog.Default(),
	})
	require.NoError(t, err)
	defer publisher.Close()

	conn, err := amqp.Dial(amqpURL)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "correction.*", "exercise.events", false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, publisher.PublishExerciseEvent(ctx, events.NewExerciseEvent(events.EventAnswerChanged, nil)))
	completed := events.NewExerciseEvent(events.EventCorrectionCompleted, events.CorrectionCompletedEvent{
		InstanceID:   "inst-1",
		QuestionID:   "q1",
		ExerciseType: models.MultipleChoice,
		Correct:      true,
	})
	require.NoError(t, publisher.PublishExerciseEvent(ctx, completed))

	select {
	case d := <-deliveries:
		assert.Equal(t, completed.ID, d.MessageId)
		assert.Equal(t, string(events.EventCorrectionCompleted), d.RoutingKey)

		var got events.ExerciseEvent
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, events.EventCorrectionCompleted, got.Type)
		assert.Equal(t, events.EventSource, got.Source)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestIntegration_AMQPPublisher_InvalidURL(t *testing.T) {
	_, err := events.NewAMQPEventPublisher(events.AMQPConfig{
		URL:      "amqp://invalid:5672",
		Exchange: "exercise.events",
		Logger:   slog.Default(),
	})
	assert.Error(t, err)
}
