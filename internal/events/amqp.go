package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"civiceye/backend/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// AMQPBus publishes to a durable topic exchange with the event type as the
// routing key. Each subscriber gets its own exclusive queue bound to "#".
type AMQPBus struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
	logger  *zap.Logger
}

func NewAMQPBus(url string, logger *zap.Logger) (*AMQPBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("channel: %w", err)
	}
	if err := declareExchange(ch); err != nil {
		conn.Close()
		return nil, err
	}
	logger.Info("RabbitMQ connected", zap.String("exchange", ExchangeName))
	return &AMQPBus{conn: conn, channel: ch, logger: logger}, nil
}

func declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	return nil
}

func (b *AMQPBus) Publish(ctx context.Context, e models.Event) error {
	body, err := Encode(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	err = b.channel.PublishWithContext(
		ctx,
		ExchangeName,
		string(e.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.At,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (b *AMQPBus) Subscribe(ctx context.Context) (<-chan models.Event, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "#", ExchangeName, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("queue bind: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}

	out := make(chan models.Event)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				e, err := Decode(d.Body)
				if err != nil {
					b.logger.Warn("Dropping malformed event", zap.String("routing_key", d.RoutingKey), zap.Error(err))
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *AMQPBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channel != nil {
		b.channel.Close()
	}
	return b.conn.Close()
}
