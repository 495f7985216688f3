package broker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"plantasset/internal/config"
)

// Rabbit holds the broker connection and declares the pipeline queues.
type Rabbit struct {
	conn   *amqp.Connection
	cfg    config.RabbitConfig
	logger *zap.Logger
}

func NewRabbit(cfg config.RabbitConfig, logger *zap.Logger) (*Rabbit, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbit: %w", err)
	}
	return &Rabbit{conn: conn, cfg: cfg, logger: logger}, nil
}

func (r *Rabbit) Close() error {
	if r == nil || r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// Channel opens a channel with the configured prefetch and declares the queue
// durable. Each consumer gets its own channel.
func (r *Rabbit) Channel(queue string) (*amqp.Channel, error) {
	if r == nil || r.conn == nil {
		return nil, fmt.Errorf("rabbit connection not initialized")
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.Qos(r.cfg.Prefetch, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}
	return ch, nil
}

// PublishJSON sends a persistent JSON message to the named queue via the
// default exchange.
func (r *Rabbit) PublishJSON(ctx context.Context, queue string, payload interface{}) error {
	ch, err := r.Channel(queue)
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// Consume starts delivering from the named queue with manual acknowledgement.
// The returned channel closes when the amqp channel does.
func (r *Rabbit) Consume(queue, consumerTag string) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := r.Channel(queue)
	if err != nil {
		return nil, nil, err
	}
	deliveries, err := ch.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return ch, deliveries, nil
}
