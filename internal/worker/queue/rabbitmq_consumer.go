package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Message is a queue delivery decoupled from the AMQP types so the dispatch
// worker can be exercised without a broker.
type Message struct {
	Body      []byte
	Timestamp time.Time
	Ack       func(multiple bool) error
	Nack      func(multiple bool, requeue bool) error
}

type Consumer interface {
	Consume(ctx context.Context) (<-chan Message, error)
	QueueLength() (int, error)
	Close() error
}

type rabbitMQConsumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       string
	consumerTag string
	logger      zerolog.Logger
}

// NewRabbitMQConsumer dials the broker and binds to the notification queue.
// The queue declaration mirrors the publisher's, so either side can start
// first.
func NewRabbitMQConsumer(url, exchange, queueName, consumerTag string, logger zerolog.Logger) (Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(queue.Name, "notification.#", exchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &rabbitMQConsumer{
		conn:        conn,
		channel:     channel,
		queue:       queueName,
		consumerTag: consumerTag,
		logger:      logger,
	}, nil
}

func (c *rabbitMQConsumer) Consume(ctx context.Context) (<-chan Message, error) {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.queue,
		c.consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	output := make(chan Message)

	go func() {
		defer close(output)

		for {
			select {
			case <-ctx.Done():
				c.logger.Info().Msg("Stopping RabbitMQ consumer")
				return
			case d, ok := <-deliveries:
				if !ok {
					c.logger.Warn().Msg("RabbitMQ delivery channel closed")
					return
				}

				msg := Message{
					Body:      d.Body,
					Timestamp: d.Timestamp,
					Ack:       d.Ack,
					Nack:      d.Nack,
				}

				select {
				case output <- msg:
				case <-ctx.Done():
					d.Nack(false, true)
					return
				}
			}
		}
	}()

	c.logger.Info().
		Str("queue", c.queue).
		Str("consumer_tag", c.consumerTag).
		Msg("RabbitMQ consumer started")

	return output, nil
}

func (c *rabbitMQConsumer) QueueLength() (int, error) {
	queue, err := c.channel.QueueDeclarePassive(c.queue, true, false, false, false, nil)
	if err != nil {
		return 0, err
	}
	return queue.Messages, nil
}

func (c *rabbitMQConsumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Cancel(c.consumerTag, false); err != nil {
			c.logger.Error().Err(err).Msg("Failed to cancel RabbitMQ consumer")
		}
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}

	c.logger.Info().Msg("RabbitMQ consumer closed")
	return nil
}
