package rabbitmq

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/clickflow/transport"
	"github.com/drblury/clickflow/transport/transporttest"
)

func TestRegister(t *testing.T) {
	transport.DefaultRegistry = transport.NewRegistry()
	Register()

	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "rabbitmq", caps.Name)
	assert.True(t, caps.SupportsDelay)
	assert.True(t, caps.SupportsNativeDLQ)
	assert.True(t, caps.SupportsPriority)
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, transport.RabbitMQCapabilities, Capabilities())
}

func TestBuild(t *testing.T) {
	t.Run("shares one connection between publisher and subscriber", func(t *testing.T) {
		originalConnFactory := ConnectionFactory
		originalPubFactory := PublisherFactory
		originalSubFactory := SubscriberFactory
		defer func() {
			ConnectionFactory = originalConnFactory
			PublisherFactory = originalPubFactory
			SubscriberFactory = originalSubFactory
		}()

		sharedConn := &amqp.ConnectionWrapper{}
		ConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
			assert.Equal(t, "amqp://localhost:5672", cfg.AmqpURI)
			return sharedConn, nil
		}

		pub := transporttest.NewPublisher()
		sub := transporttest.NewSubscriber()
		PublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
			assert.Same(t, sharedConn, conn)
			return pub, nil
		}
		SubscriberFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Subscriber, error) {
			assert.Same(t, sharedConn, conn)
			return sub, nil
		}

		cfg := &transporttest.Config{RabbitMQURL: "amqp://localhost:5672"}
		tr, err := Build(context.Background(), cfg, watermill.NopLogger{})

		require.NoError(t, err)
		assert.Equal(t, message.Publisher(pub), tr.Publisher)
		assert.Equal(t, message.Subscriber(sub), tr.Subscriber)
	})

	t.Run("returns error when connection fails", func(t *testing.T) {
		originalConnFactory := ConnectionFactory
		defer func() { ConnectionFactory = originalConnFactory }()

		ConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
			return nil, errors.New("connection refused")
		}

		cfg := &transporttest.Config{RabbitMQURL: "amqp://localhost:5672"}
		_, err := Build(context.Background(), cfg, watermill.NopLogger{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("returns error when publisher factory fails", func(t *testing.T) {
		originalConnFactory := ConnectionFactory
		originalPubFactory := PublisherFactory
		defer func() {
			ConnectionFactory = originalConnFactory
			PublisherFactory = originalPubFactory
		}()

		ConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
			return &amqp.ConnectionWrapper{}, nil
		}
		PublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
			return nil, errors.New("publisher error")
		}

		cfg := &transporttest.Config{RabbitMQURL: "amqp://localhost:5672"}
		_, err := Build(context.Background(), cfg, watermill.NopLogger{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "publisher error")
	})

	t.Run("returns error when subscriber factory fails", func(t *testing.T) {
		originalConnFactory := ConnectionFactory
		originalPubFactory := PublisherFactory
		originalSubFactory := SubscriberFactory
		defer func() {
			ConnectionFactory = originalConnFactory
			PublisherFactory = originalPubFactory
			SubscriberFactory = originalSubFactory
		}()

		ConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
			return &amqp.ConnectionWrapper{}, nil
		}
		PublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
			return transporttest.NewPublisher(), nil
		}
		SubscriberFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Subscriber, error) {
			return nil, errors.New("subscriber error")
		}

		cfg := &transporttest.Config{RabbitMQURL: "amqp://localhost:5672"}
		_, err := Build(context.Background(), cfg, watermill.NopLogger{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "subscriber error")
	})
}
