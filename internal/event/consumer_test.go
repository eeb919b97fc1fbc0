package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsumeChannel struct {
	deliveries chan amqp.Delivery
	bindings   []string
	prefetch   int
	bindErr    error
	consumeErr error
	cancelled  []string
	closed     int
}

func newFakeConsumeChannel() *fakeConsumeChannel {
	return &fakeConsumeChannel{deliveries: make(chan amqp.Delivery, 4)}
}

func (c *fakeConsumeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return nil
}

func (c *fakeConsumeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}

func (c *fakeConsumeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	if c.bindErr != nil {
		return c.bindErr
	}
	c.bindings = append(c.bindings, exchange+"/"+key+"->"+name)
	return nil
}

func (c *fakeConsumeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	c.prefetch = prefetchCount
	return nil
}

func (c *fakeConsumeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if c.consumeErr != nil {
		return nil, c.consumeErr
	}
	return c.deliveries, nil
}

func (c *fakeConsumeChannel) Cancel(consumer string, noWait bool) error {
	c.cancelled = append(c.cancelled, consumer)
	return nil
}

func (c *fakeConsumeChannel) Close() error {
	c.closed++
	return nil
}

var paymentConsumerConfig = ConsumerConfig{
	Exchange:    "loan-engine",
	Queue:       "loan-engine.payments",
	Tag:         "test-consumer",
	RoutingKeys: []string{RoutingKeyPaymentCompleted},
}

func TestNewConsumer(t *testing.T) {
	t.Run("Binds queue with default prefetch", func(t *testing.T) {
		ch := newFakeConsumeChannel()
		_, err := newConsumer(ch, paymentConsumerConfig, func(context.Context, amqp.Delivery) {}, discardLogger)
		require.NoError(t, err)

		assert.Equal(t, []string{"loan-engine/payment.completed->loan-engine.payments"}, ch.bindings)
		assert.Equal(t, defaultPrefetch, ch.prefetch)
	})

	t.Run("Rejects incomplete config", func(t *testing.T) {
		cfg := paymentConsumerConfig
		cfg.RoutingKeys = nil
		_, err := newConsumer(newFakeConsumeChannel(), cfg, nil, discardLogger)
		assert.EqualError(t, err, "consumer needs at least one routing key")
	})

	t.Run("Bind failure", func(t *testing.T) {
		ch := newFakeConsumeChannel()
		ch.bindErr = errors.New("access refused")
		_, err := newConsumer(ch, paymentConsumerConfig, nil, discardLogger)
		assert.ErrorContains(t, err, "failed to bind queue")
	})

	t.Run("Nil connection", func(t *testing.T) {
		_, err := NewConsumer(nil, paymentConsumerConfig, nil, discardLogger)
		assert.Error(t, err)
	})
}

func TestConsumerDeliversUntilStopped(t *testing.T) {
	ch := newFakeConsumeChannel()

	var (
		mu       sync.Mutex
		received []string
	)
	handled := make(chan struct{}, 2)
	handler := func(_ context.Context, d amqp.Delivery) {
		mu.Lock()
		received = append(received, d.MessageId)
		mu.Unlock()
		handled <- struct{}{}
	}

	c, err := newConsumer(ch, paymentConsumerConfig, handler, discardLogger)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	ch.deliveries <- amqp.Delivery{MessageId: "m-1"}
	ch.deliveries <- amqp.Delivery{MessageId: "m-2"}
	for range 2 {
		select {
		case <-handled:
		case <-time.After(time.Second):
			t.Fatal("delivery was not handled")
		}
	}

	c.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"m-1", "m-2"}, received)
	assert.Equal(t, []string{"test-consumer"}, ch.cancelled)
	assert.Equal(t, 1, ch.closed)
}

func TestConsumerStartFailure(t *testing.T) {
	ch := newFakeConsumeChannel()
	ch.consumeErr = errors.New("channel closed")

	c, err := newConsumer(ch, paymentConsumerConfig, func(context.Context, amqp.Delivery) {}, discardLogger)
	require.NoError(t, err)

	assert.ErrorContains(t, c.Start(context.Background()), "failed to register a consumer")
	c.Stop()
	assert.Empty(t, ch.cancelled)
}
