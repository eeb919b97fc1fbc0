package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultPrefetch = 1

type MessageHandler func(ctx context.Context, d amqp.Delivery)

// ConsumerConfig describes the durable queue a Consumer reads and the topic
// bindings that feed it.
type ConsumerConfig struct {
	Exchange    string
	Queue       string
	Tag         string
	RoutingKeys []string
	Prefetch    int
}

func (c ConsumerConfig) validate() error {
	switch {
	case c.Exchange == "":
		return errors.New("consumer exchange cannot be empty")
	case c.Queue == "":
		return errors.New("consumer queue cannot be empty")
	case len(c.RoutingKeys) == 0:
		return errors.New("consumer needs at least one routing key")
	}
	return nil
}

type consumeChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
	Close() error
}

// Consumer hands deliveries from one queue to a handler, one at a time.
// The handler owns acknowledgement.
type Consumer struct {
	channel consumeChannel
	cfg     ConsumerConfig
	handler MessageHandler
	logger  *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewConsumer(conn *amqp.Connection, cfg ConsumerConfig, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if conn == nil {
		return nil, errors.New("RabbitMQ connection cannot be nil")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	c, err := newConsumer(ch, cfg, handler, logger)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return c, nil
}

func newConsumer(ch consumeChannel, cfg ConsumerConfig, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = defaultPrefetch
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", cfg.Exchange, err)
	}
	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue '%s': %w", cfg.Queue, err)
	}
	cfg.Queue = q.Name

	for _, key := range cfg.RoutingKeys {
		if err := ch.QueueBind(q.Name, key, cfg.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("failed to bind queue '%s' with key '%s': %w", q.Name, key, err)
		}
	}
	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	logger = logger.With("component", "consumer", "queue", q.Name)
	logger.Info("Queue bound", "exchange", cfg.Exchange, "routingKeys", cfg.RoutingKeys, "prefetch", cfg.Prefetch)

	return &Consumer{channel: ch, cfg: cfg, handler: handler, logger: logger}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.Consume(c.cfg.Queue, c.cfg.Tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.logger.Info("Consuming messages")
		for {
			select {
			case <-loopCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					c.logger.Warn("RabbitMQ delivery channel closed")
					return
				}
				c.handler(loopCtx, d)
			}
		}
	}()

	return nil
}

// Stop cancels the subscription, waits for the in-flight delivery and closes
// the channel.
func (c *Consumer) Stop() {
	if c.cancel == nil {
		c.logger.Warn("Consumer stop called before start")
		return
	}

	if err := c.channel.Cancel(c.cfg.Tag, false); err != nil {
		c.logger.Warn("Failed to cancel consumer", "tag", c.cfg.Tag, "error", err)
	}
	c.cancel()
	c.wg.Wait()

	if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		c.logger.Error("Failed to close consumer channel", "error", err)
	}
	c.logger.Info("Consumer stopped")
}
