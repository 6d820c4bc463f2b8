/*
Package runtime provides the core event pipeline infrastructure for clickflow.

# Architecture Overview

The runtime package implements a message-driven pipeline built on top of
Watermill. ClickUp webhook deliveries enter through the HTTP ingress, are
normalized into typed events, published onto a queue backend, and consumed
by a dispatcher that fans each event out to the registered handlers.

# Package Structure

## Core Service (service.go)

The Service struct is the central orchestrator that wires together:
  - Message router (Watermill)
  - Publisher and subscriber connections for the configured backend
  - Middleware chain
  - HTTP servers for metrics and introspection

## Publish API (publisher.go)

PublishEvent and PublishEventAfter encode events into queue messages and
publish them to the configured topic. Producers and consumers are fully
decoupled: publishing succeeds whether or not a dispatcher is running.

## Dispatcher (dispatcher.go)

RegisterDispatcher attaches the consumer loop to the topic. Each message is
decoded, dispatched to every handler registered for its event kind, and then
acked, requeued with an advanced attempt counter, or dead-lettered depending
on the handler outcomes.

## Ingress (ingress.go)

WebhookServer terminates the HTTP side: body limits, optional signature
verification, payload normalization, and publishing.

## Middleware (middleware.go)

The middleware system provides composable message processing stages:
  - CorrelationID: Ensures message traceability
  - LogMessages: Debug logging of message payloads
  - EventValidate: Envelope validation before handlers run
  - Tracer: OpenTelemetry distributed tracing
  - Metrics: Prometheus metrics collection
  - Retry: Exponential backoff retry logic
  - PoisonQueue: Routes undecodable messages away from the retry loop
  - Recoverer: Panic recovery

## Observability (models.go, metrics.go, hooks.go, introspect.go)

Per-handler stats (latency percentiles, throughput, error breakdown,
backlog), dead letter queue metrics, job lifecycle hooks, and a JSON
introspection endpoint listing the registered handlers.
*/
package runtime
