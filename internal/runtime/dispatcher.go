package runtime

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/clickflow/internal/runtime/errors"
	eventpkg "github.com/drblury/clickflow/internal/runtime/event"
	loggingpkg "github.com/drblury/clickflow/internal/runtime/logging"
	registrypkg "github.com/drblury/clickflow/internal/runtime/registry"
	transportpkg "github.com/drblury/clickflow/internal/runtime/transport"
)

// DispatcherName is the router handler name of the consumer loop.
const DispatcherName = "webhook-dispatcher"

// RegisterDispatcher attaches the consumer loop to the service router: it
// pulls messages from the configured topic, decodes the event envelope, and
// runs every registered handler for the event's kind in registration order.
//
// Message lifecycle after dispatch:
//   - every handler succeeded (or skipped): the message is acked.
//   - any outcome classifies as dead-letter: the message goes to the dead
//     letter topic and the original is acked.
//   - retryable failure: the message is republished with an advanced attempt
//     counter and the original is acked, so bounded redelivery holds on
//     backends without native redelivery counting. Once the attempt counter
//     reaches the delivery cap the message is dead-lettered instead.
//
// The registry must be frozen before registration; the dispatcher takes no
// locks at dispatch time.
func (s *Service) RegisterDispatcher(reg *registrypkg.Registry) error {
	if s == nil {
		return errspkg.ErrServiceRequired
	}
	if reg == nil {
		return errspkg.ErrRegistryRequired
	}

	return s.registerNoPublisherHandler(noPublisherRegistration{
		Name:         DispatcherName,
		ConsumeQueue: s.topic(),
		Handler:      s.dispatchHandler(reg),
	})
}

func (s *Service) dispatchHandler(reg *registrypkg.Registry) message.NoPublishHandlerFunc {
	topic := s.topic()

	return func(msg *message.Message) error {
		ctx := msg.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		msg.Metadata.Set(eventpkg.KeyHandler, DispatcherName)
		msg.Metadata.Set(eventpkg.KeyTopic, topic)

		evt, err := eventpkg.Decode(msg.Payload)
		if err != nil {
			// Never crash the loop on garbage: hand the message to the
			// poison queue middleware.
			return &UnprocessableEventError{
				eventMessage: string(msg.Payload),
				err:          err,
			}
		}

		attempt := eventpkg.Attempt(msg.Metadata) + 1
		eventpkg.SetAttempt(msg.Metadata, attempt)

		outcomes := reg.Dispatch(ctx, evt)
		s.logOutcomes(evt, attempt, outcomes)

		return s.handleDispatchResult(ctx, evt, msg, attempt, outcomes.Err())
	}
}

// handleDispatchResult routes the message according to the classified
// dispatch error. A nil return acks the message; a non-nil return hands it
// back to the router (retry middleware, then nack).
func (s *Service) handleDispatchResult(ctx context.Context, evt eventpkg.Event, msg *message.Message, attempt int, err error) error {
	result, delay := eventpkg.ClassifyError(err)

	switch result {
	case eventpkg.ResultAck:
		return nil

	case eventpkg.ResultSkip:
		s.Logger.Debug("Skipping event", loggingpkg.LogFields{
			"delivery_id": evt.DeliveryID,
			"event_kind":  evt.Kind,
		})
		return nil

	case eventpkg.ResultDeadLetter:
		return s.sendToDeadLetter(ctx, evt, msg, attempt, err)

	case eventpkg.ResultRetry, eventpkg.ResultRetryAfter:
		if attempt >= s.maxDeliveryAttempts(msg.Metadata) {
			return s.sendToDeadLetter(ctx, evt, msg, attempt, err)
		}
		return s.requeue(ctx, evt, msg, attempt, delay, err)

	default:
		return err
	}
}

// requeue republishes the message with the advanced attempt counter and acks
// the original, keeping redelivery bounded on every backend. If the requeue
// publish itself fails the original error is returned so the message stays
// unacked and the backend redelivers it.
func (s *Service) requeue(ctx context.Context, evt eventpkg.Event, msg *message.Message, attempt int, delay time.Duration, cause error) error {
	requeued := message.NewMessage(msg.UUID, msg.Payload)
	for k, v := range msg.Metadata {
		requeued.Metadata.Set(k, v)
	}
	eventpkg.SetAttempt(requeued.Metadata, attempt)

	if delay > 0 {
		caps := transportpkg.GetCapabilities(s.Conf.QueueBackend)
		if caps.SupportsDelay {
			eventpkg.SetDelay(requeued.Metadata, delay)
		}
	}
	if ctx != nil {
		requeued.SetContext(ctx)
	}

	if pubErr := s.publisher.Publish(s.topic(), requeued); pubErr != nil {
		s.Logger.Error("Failed to requeue event", pubErr, loggingpkg.LogFields{
			"delivery_id": evt.DeliveryID,
			"event_kind":  evt.Kind,
			"attempt":     attempt,
		})
		return cause
	}

	s.Logger.Debug("Requeued event for redelivery", loggingpkg.LogFields{
		"delivery_id": evt.DeliveryID,
		"event_kind":  evt.Kind,
		"attempt":     attempt,
		"delay":       delay,
	})
	return nil
}

// sendToDeadLetter publishes the message to the dead letter topic and acks
// the original. A failed dead-letter publish is logged and the original is
// still acked; retrying a message the handlers already gave up on would loop
// forever against a backend that cannot take the dead letter either.
func (s *Service) sendToDeadLetter(ctx context.Context, evt eventpkg.Event, msg *message.Message, attempt int, cause error) error {
	dlqTopic := s.deadLetterTopic()

	dead := message.NewMessage(msg.UUID, msg.Payload)
	for k, v := range msg.Metadata {
		dead.Metadata.Set(k, v)
	}
	eventpkg.SetAttempt(dead.Metadata, attempt)
	eventpkg.MarkDeadLetter(dead.Metadata, s.topic(), cause)
	if ctx != nil {
		dead.SetContext(ctx)
	}

	fields := loggingpkg.LogFields{
		"delivery_id": evt.DeliveryID,
		"event_kind":  evt.Kind,
		"dlq_topic":   dlqTopic,
		"attempts":    attempt,
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	s.Logger.Info("Sending event to dead letter topic", fields)

	if pubErr := s.publisher.Publish(dlqTopic, dead); pubErr != nil {
		s.Logger.Error("Failed to publish to dead letter topic", pubErr, loggingpkg.LogFields{
			"delivery_id": evt.DeliveryID,
			"dlq_topic":   dlqTopic,
		})
		return nil
	}

	if s.dlqMetrics != nil {
		age := time.Duration(0)
		if enqueued := eventpkg.EnqueuedAt(msg.Metadata); !enqueued.IsZero() {
			age = time.Since(enqueued)
		}
		s.dlqMetrics.RecordMessageToDLQ(s.topic(), DispatcherName, attempt, age)
	}

	return nil
}

// maxDeliveryAttempts resolves the delivery cap: message metadata first,
// then the configured value, then the library default.
func (s *Service) maxDeliveryAttempts(md message.Metadata) int {
	if md.Get(eventpkg.KeyMaxAttempts) != "" {
		return eventpkg.MaxAttempts(md)
	}
	if s.Conf != nil && s.Conf.MaxDeliveryAttempts > 0 {
		return s.Conf.MaxDeliveryAttempts
	}
	return eventpkg.DefaultMaxAttempts
}

func (s *Service) logOutcomes(evt eventpkg.Event, attempt int, outcomes registrypkg.Outcomes) {
	for _, outcome := range outcomes.Failed() {
		s.Logger.Error("Handler failed", outcome.Err, loggingpkg.LogFields{
			"handler":     outcome.Handler,
			"event_kind":  evt.Kind,
			"delivery_id": evt.DeliveryID,
			"attempt":     attempt,
			"duration_ms": outcome.Duration.Milliseconds(),
		})
	}
}
