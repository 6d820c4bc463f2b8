package transport

// Capabilities describes the features a queue backend supports. The consumer
// uses this to decide which delivery concerns it must emulate at the
// application level.
type Capabilities struct {
	// SupportsDelay indicates the backend can natively delay message delivery.
	SupportsDelay bool

	// SupportsNativeDLQ indicates the backend has built-in dead letter storage.
	// When false, dead-lettering happens by republishing to the DLQ topic.
	SupportsNativeDLQ bool

	// SupportsOrdering indicates messages within a partition/stream arrive in
	// publish order.
	SupportsOrdering bool

	// SupportsTracing indicates the backend propagates tracing headers natively.
	SupportsTracing bool

	// SupportsBatching indicates the backend can batch multiple messages.
	SupportsBatching bool

	// SupportsAck indicates the backend supports explicit acknowledgment.
	SupportsAck bool

	// SupportsNack indicates the backend supports negative acknowledgment
	// with redelivery.
	SupportsNack bool

	// SupportsPriority indicates the backend supports priority queues.
	SupportsPriority bool

	// SupportsPartitioning indicates the backend supports message partitioning.
	SupportsPartitioning bool

	// MaxMessageSize is the maximum message size in bytes (0 = unlimited/unknown).
	MaxMessageSize int64

	// MaxDelayDuration is the maximum delay in milliseconds (0 = unlimited/unknown).
	MaxDelayDuration int64

	// Name is the human-readable backend name.
	Name string

	// Version is the backend/driver version.
	Version string
}

// RequiresDelayEmulation reports whether delayed delivery must be emulated
// at the application level.
func (c Capabilities) RequiresDelayEmulation() bool {
	return !c.SupportsDelay
}

// RequiresDLQEmulation reports whether dead-lettering must be emulated by
// republishing to the DLQ topic.
func (c Capabilities) RequiresDLQEmulation() bool {
	return !c.SupportsNativeDLQ
}

// SupportsReliableDelivery reports whether the backend supports
// at-least-once delivery (ack + nack).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// Predefined capability sets for the built-in backends.
var (
	// ChannelCapabilities for the in-process Go channel backend.
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
	}

	// KafkaCapabilities for Apache Kafka.
	KafkaCapabilities = Capabilities{
		Name:                 "kafka",
		SupportsOrdering:     true,
		SupportsTracing:      true,
		SupportsBatching:     true,
		SupportsAck:          true,
		SupportsPartitioning: true,
		MaxMessageSize:       1048576,
	}

	// RabbitMQCapabilities for RabbitMQ/AMQP.
	RabbitMQCapabilities = Capabilities{
		Name:              "rabbitmq",
		SupportsDelay:     true,
		SupportsNativeDLQ: true,
		SupportsOrdering:  true,
		SupportsTracing:   true,
		SupportsAck:       true,
		SupportsNack:      true,
		SupportsPriority:  true,
	}

	// NATSCapabilities for NATS Core. Core NATS is fire-and-forget.
	NATSCapabilities = Capabilities{
		Name:            "nats",
		SupportsTracing: true,
		MaxMessageSize:  1048576,
	}

	// NATSJetStreamCapabilities for NATS JetStream.
	NATSJetStreamCapabilities = Capabilities{
		Name:              "nats-jetstream",
		SupportsDelay:     true,
		SupportsNativeDLQ: true,
		SupportsOrdering:  true,
		SupportsTracing:   true,
		SupportsBatching:  true,
		SupportsAck:       true,
		SupportsNack:      true,
		MaxMessageSize:    1048576,
	}

	// RedisCapabilities for Redis Streams.
	RedisCapabilities = Capabilities{
		Name:             "redis",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
	}

	// AWSCapabilities for AWS SNS/SQS.
	AWSCapabilities = Capabilities{
		Name:              "aws",
		SupportsDelay:     true,
		SupportsNativeDLQ: true,
		SupportsOrdering:  true,
		SupportsTracing:   true,
		SupportsBatching:  true,
		SupportsAck:       true,
		SupportsNack:      true,
		MaxMessageSize:    262144,
		MaxDelayDuration:  900000,
	}

	// SQLiteCapabilities for the SQLite-backed queue.
	SQLiteCapabilities = Capabilities{
		Name:              "sqlite",
		SupportsDelay:     true,
		SupportsNativeDLQ: true,
		SupportsOrdering:  true,
		SupportsBatching:  true,
		SupportsAck:       true,
		SupportsNack:      true,
	}

	// PostgresCapabilities for the PostgreSQL-backed queue.
	PostgresCapabilities = Capabilities{
		Name:              "postgres",
		SupportsDelay:     true,
		SupportsNativeDLQ: true,
		SupportsOrdering:  true,
		SupportsBatching:  true,
		SupportsAck:       true,
		SupportsNack:      true,
		SupportsPriority:  true,
	}

	// HTTPCapabilities for the HTTP backend.
	HTTPCapabilities = Capabilities{
		Name:            "http",
		SupportsTracing: true,
	}

	// IOCapabilities for the file-based backend.
	IOCapabilities = Capabilities{
		Name:             "io",
		SupportsOrdering: true,
	}
)

// GetCapabilities returns the capabilities for a backend by name, looked up
// in the default registry. Returns a zero Capabilities struct if unknown.
func GetCapabilities(backendName string) Capabilities {
	return DefaultRegistry.GetCapabilities(backendName)
}
