// Package messaging publishes client update notifications to RabbitMQ after a
// progression turn settles. Publishing is best effort: a failed update never
// fails the turn that produced it.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"rpg-server/internal/models"
)

// ClientUpdatePublisher defines the interface for publishing updates to the client.
type ClientUpdatePublisher interface {
	PublishClientUpdate(ctx context.Context, payload models.ClientUpdate) error
}

type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQClientUpdatePublisher opens a channel on the given connection and
// declares the client updates queue.
func NewRabbitMQClientUpdatePublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (ClientUpdatePublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("client update publisher: failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("client update publisher: failed to declare queue %q: %w", queueName, err)
	}
	log := logger.Named("ClientUpdatePublisher")
	log.Info("Queue declared", zap.String("queue", queueName))
	return &rabbitMQPublisher{channel: ch, queueName: queueName, logger: log}, nil
}

func (p *rabbitMQPublisher) PublishClientUpdate(ctx context.Context, payload models.ClientUpdate) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal client update: %w", err)
	}
	return p.publishMessage(ctx, body)
}

func (p *rabbitMQPublisher) publishMessage(ctx context.Context, body []byte) error {
	if p.channel == nil {
		return errors.New("rabbitmq channel is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (default)
			p.queueName, // routing key = queue name
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "rpg-server",
			},
		)
		if err == nil {
			return nil
		}
		p.logger.Warn("Publish attempt failed",
			zap.Int("attempt", attempt), zap.String("queue", p.queueName), zap.Error(err))
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return fmt.Errorf("failed to publish to queue %s after retries: %w", p.queueName, err)
}

// noopPublisher is used when RabbitMQ is not configured.
type noopPublisher struct{}

// NewNoopClientUpdatePublisher returns a publisher that drops every update.
func NewNoopClientUpdatePublisher() ClientUpdatePublisher {
	return noopPublisher{}
}

func (noopPublisher) PublishClientUpdate(context.Context, models.ClientUpdate) error {
	return nil
}
