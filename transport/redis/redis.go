// Package redis provides a Redis Streams queue backend.
package redis

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/drblury/clickflow/transport"
)

// TransportName is the name used to register this backend.
const TransportName = "redis"

// DefaultConsumerGroup is the stream consumer group used when none is set.
const DefaultConsumerGroup = "clickflow"

// ClientFactory allows overriding the Redis client creation for testing.
var ClientFactory = func(url string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg redisstream.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return redisstream.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg redisstream.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return redisstream.NewSubscriber(cfg, logger)
}

func init() {
	Register()
}

// Register adds the Redis Streams backend to the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.RedisCapabilities)
}

// Build creates a new Redis Streams transport. Publisher and subscriber
// share one client; the subscriber joins the default consumer group so
// multiple consumer processes split the stream.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	client, err := ClientFactory(cfg.GetRedisURL())
	if err != nil {
		return transport.Transport{}, err
	}

	publisher, err := PublisherFactory(
		redisstream.PublisherConfig{
			Client:     client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}

	subscriber, err := SubscriberFactory(
		redisstream.SubscriberConfig{
			Client:        client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: DefaultConsumerGroup,
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}

	return transport.Transport{
		Publisher:  publisher,
		Subscriber: subscriber,
	}, nil
}

// Capabilities returns the capabilities of this backend.
func Capabilities() transport.Capabilities {
	return transport.RedisCapabilities
}
