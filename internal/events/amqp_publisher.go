package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPEventPublisher publishes exercise events to a RabbitMQ topic exchange.
// The routing key is the event type.
type AMQPEventPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
	mu       sync.Mutex
}

// AMQPConfig holds configuration for the RabbitMQ event publisher
type AMQPConfig struct {
	URL      string
	Exchange string
	Logger   *slog.Logger
}

// NewAMQPEventPublisher dials RabbitMQ and declares the events exchange
func NewAMQPEventPublisher(config AMQPConfig) (*AMQPEventPublisher, error) {
	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		config.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", config.Exchange, err)
	}

	config.Logger.Info("connected to RabbitMQ", "exchange", config.Exchange)

	return &AMQPEventPublisher{
		conn:     conn,
		channel:  ch,
		exchange: config.Exchange,
		logger:   config.Logger,
	}, nil
}

// PublishExerciseEvent publishes an exercise event to the exchange
func (p *AMQPEventPublisher) PublishExerciseEvent(ctx context.Context, event *ExerciseEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal exercise event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Timestamp,
			Type:         string(event.Type),
			Headers: amqp.Table{
				"source":  event.Source,
				"version": event.Version,
			},
			Body: body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish exercise event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return fmt.Errorf("failed to publish exercise event: %w", err)
	}
	return nil
}

// Close closes the channel and the connection
func (p *AMQPEventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn.Close()
	}
	return nil
}
