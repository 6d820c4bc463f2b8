// Package kafka provides the Apache Kafka queue backend.
package kafka

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/clickflow/transport"
)

// TransportName is the name used to register this backend.
const TransportName = "kafka"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return kafka.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg kafka.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return kafka.NewSubscriber(cfg, logger)
}

func init() {
	Register()
}

// Register adds the Kafka backend to the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.KafkaCapabilities)
}

// Build creates a new Kafka transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	brokers := cfg.GetKafkaBrokers()
	clientID := cfg.GetKafkaClientID()
	consumerGroup := cfg.GetKafkaConsumerGroup()

	publisherConfig := kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}
	if clientID != "" {
		saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
		saramaConfig.ClientID = clientID
		publisherConfig.OverwriteSaramaConfig = saramaConfig
	}

	publisher, err := PublisherFactory(publisherConfig, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	subscriberConfig := kafka.SubscriberConfig{
		Brokers:       brokers,
		Unmarshaler:   kafka.DefaultMarshaler{},
		ConsumerGroup: consumerGroup,
	}
	if clientID != "" {
		saramaConfig := kafka.DefaultSaramaSubscriberConfig()
		saramaConfig.ClientID = clientID
		subscriberConfig.OverwriteSaramaConfig = saramaConfig
	}

	subscriber, err := SubscriberFactory(subscriberConfig, logger)
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
	return transport.KafkaCapabilities
}
