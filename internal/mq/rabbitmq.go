package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/usersoap/usersvc/config"
)

const (
	defaultDialTimeout = 3 * time.Second
	contentTypeJSON    = "application/json"
)

// RabbitMQClient publishes to and consumes from durable queues on the
// default exchange. Each Publish opens and closes its own connection, so the
// client holds no broker state between calls.
type RabbitMQClient struct {
	url           string
	dialTimeout   time.Duration
	prefetchCount int
}

// NewRabbitMQClient constructs a RabbitMQ client from config.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("rabbitmq host is required")
	}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	return &RabbitMQClient{
		url:           cfg.URL(),
		dialTimeout:   timeout,
		prefetchCount: 1,
	}, nil
}

// Publish declares the named durable queue and sends a persistent message to it.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}

	conn, ch, err := r.open(ctx)
	if err != nil {
		return "", err
	}
	defer closeAll(conn, ch)

	if _, err := declareQueue(ch, channel); err != nil {
		return "", fmt.Errorf("declare queue %q: %w", channel, err)
	}

	headers := amqp.Table{}
	for key, value := range attrs {
		headers[key] = value
	}

	messageID := uuid.NewString()
	err = ch.PublishWithContext(ctx, "", channel, false, false, amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         data,
	})
	if err != nil {
		return "", fmt.Errorf("publish to %q: %w", channel, err)
	}
	return messageID, nil
}

// Subscribe consumes messages from the named queue until ctx is done.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}

	conn, ch, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer closeAll(conn, ch)

	if r.prefetchCount > 0 {
		if err := ch.Qos(r.prefetchCount, 0, false); err != nil {
			return err
		}
	}

	if _, err := declareQueue(ch, channel); err != nil {
		return err
	}

	consumerTag := fmt.Sprintf("consumer-%s", uuid.NewString())
	deliveries, err := ch.Consume(channel, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = ch.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			message := Message{
				ID:         delivery.MessageId,
				Data:       delivery.Body,
				Attributes: headersToAttributes(delivery.Headers),
			}
			if err := handler(ctx, message); err != nil {
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Ping opens and closes a connection to verify the broker is reachable.
func (r *RabbitMQClient) Ping(ctx context.Context) error {
	conn, ch, err := r.open(ctx)
	if err != nil {
		return err
	}
	closeAll(conn, ch)
	return nil
}

// Close is a no-op; connections are scoped to individual calls.
func (r *RabbitMQClient) Close() error {
	return nil
}

func (r *RabbitMQClient) open(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	conn, err := amqp.DialConfig(r.url, amqp.Config{Dial: amqp.DefaultDial(r.timeoutFor(ctx))})
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	return conn, ch, nil
}

// timeoutFor bounds the dial by the context deadline when it is sooner.
func (r *RabbitMQClient) timeoutFor(ctx context.Context) time.Duration {
	timeout := r.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return timeout
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
}

func closeAll(conn *amqp.Connection, ch *amqp.Channel) {
	if ch != nil {
		_ = ch.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}
