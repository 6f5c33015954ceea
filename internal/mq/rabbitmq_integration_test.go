//go:build integration

package mq_test

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/usersoap/usersvc/config"
	"github.com/usersoap/usersvc/internal/mq"
)

func startRabbit(t *testing.T) (config.RabbitMQConfig, string) {
	t.Helper()
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.13-management-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)
	amqpURL, err := container.AmqpURL(ctx)
	require.NoError(t, err)

	return config.RabbitMQConfig{
		Host:        host,
		Port:        port.Int(),
		User:        "guest",
		Password:    "guest",
		VHost:       "/",
		DialTimeout: 5 * time.Second,
	}, amqpURL
}

func TestRabbitMQClient_PublishDurablePersistent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cfg, amqpURL := startRabbit(t)

	client, err := mq.NewRabbitMQClient(cfg)
	require.NoError(t, err)
	require.NoError(t, client.Ping(context.Background()))

	id, err := client.Publish(context.Background(), "user-events", []byte(`{"event":"UserRegistered"}`), map[string]string{"event": "UserRegistered"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	conn, err := amqp.Dial(amqpURL)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	// Redeclaring with durable=true only succeeds if the queue is durable.
	_, err = ch.QueueDeclare("user-events", true, false, false, false, nil)
	require.NoError(t, err)

	delivery, ok, err := ch.Get("user-events", true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint8(amqp.Persistent), delivery.DeliveryMode)
	assert.Equal(t, "application/json", delivery.ContentType)
	assert.Equal(t, id, delivery.MessageId)
	assert.JSONEq(t, `{"event":"UserRegistered"}`, string(delivery.Body))
}

func TestRabbitMQClient_Subscribe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cfg, _ := startRabbit(t)

	client, err := mq.NewRabbitMQClient(cfg)
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), "user-events", []byte(`{}`), map[string]string{"event": "UserRegistrationFailed"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	received := make(chan mq.Message, 1)
	err = client.Subscribe(ctx, "user-events", func(ctx context.Context, msg mq.Message) error {
		received <- msg
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	msg := <-received
	assert.Equal(t, "UserRegistrationFailed", msg.Attributes["event"])
}
