// Package clickflow turns ClickUp webhook deliveries into a queue-backed
// event pipeline on top of Watermill. An HTTP ingress validates and
// normalizes each delivery into a typed Event (a closed enumeration of 28
// webhook kinds), publishes it to the configured queue backend, and a
// dispatcher consumes the topic and fans every event out to the handlers
// registered for its kind.
//
// Producers and consumers are fully decoupled: PublishEvent succeeds whether
// or not a dispatcher runs, and the ingress answers the sender as soon as
// the event reaches the queue. Failed handler runs are redelivered with a
// bounded attempt counter carried in message metadata; events that exhaust
// their attempts, or that handlers reject outright, land on a dead letter
// topic next to the source topic. A minimal setup fills Config, creates a
// Service, registers handlers on a Registry, calls RegisterDispatcher, and
// then Start.
//
// # Queue backends
//
// Clickflow supports 11 queue backends out of the box:
//   - channel: In-memory Go channels for testing and single-process setups
//   - kafka: High-throughput streaming with consumer groups
//   - rabbitmq: AMQP-based durable queues
//   - nats: High-performance messaging
//   - jetstream: NATS JetStream with persistence and redelivery
//   - redis: Redis Streams with consumer groups
//   - aws: AWS SNS/SQS with LocalStack support
//   - http: Request/response messaging
//   - io: File-based persistence
//   - sqlite: Embedded persistent queue with delayed messages and DLQ management
//   - postgres: Production-ready PostgreSQL queue with SKIP LOCKED and DLQ
//
// # Handler registration
//
// Handlers come in two equivalent shapes. RegisterFunc binds a plain
// function to one event kind; RegisterCallbacks inspects a value for the
// per-kind callback interfaces (OnTaskCreated, OnListDeleted, and so on)
// and binds every one it finds. Both run identically at dispatch time.
// Handler sources registered by name let a consumer process pick its
// handler set from configuration.
//
// # Middleware
//
// The default middleware chain includes correlation ID injection, structured
// logging, envelope validation, OpenTelemetry tracing, Prometheus metrics,
// retry with exponential backoff, poison queue forwarding, and panic
// recovery. Custom middleware can be added via ServiceDependencies.
//
// # Job Hooks
//
// JobHooksMiddleware provides OnJobStart, OnJobDone, and OnJobError
// callbacks for custom logging, metrics collection, and alerting around
// handler execution.
package clickflow
