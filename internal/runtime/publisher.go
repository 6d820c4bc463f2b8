package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/clickflow/internal/runtime/errors"
	eventpkg "github.com/drblury/clickflow/internal/runtime/event"
	idspkg "github.com/drblury/clickflow/internal/runtime/ids"
)

// PublishError reports that an event could not be handed to the queue
// backend. The ingress maps it to a server error so the sender retries per
// its own webhook delivery contract.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("clickflow: publish to %s: %v", e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// NewEventMessage wraps an encoded event in the queue message envelope. The
// message UUID is the event's delivery ID so duplicate webhook deliveries
// stay traceable across the queue; events without one get a generated ULID.
func NewEventMessage(evt eventpkg.Event) (*message.Message, error) {
	payload, err := evt.Encode()
	if err != nil {
		return nil, err
	}

	uuid := evt.DeliveryID
	if uuid == "" {
		uuid = idspkg.CreateULID()
	}

	msg := message.NewMessage(uuid, payload)
	msg.Metadata.Set(eventpkg.KeyEventKind, evt.Kind.String())
	msg.Metadata.Set(eventpkg.KeyDeliveryID, uuid)
	eventpkg.SetEnqueuedAt(msg.Metadata, eventpkg.Now())
	return msg, nil
}

// PublishEvent encodes the event and publishes it to the configured topic.
// It is safe for concurrent producers and returns as soon as the backend has
// the message, whether or not any consumer is running.
func (s *Service) PublishEvent(ctx context.Context, evt eventpkg.Event) error {
	return s.publishEvent(ctx, evt, 0)
}

// PublishEventAfter publishes an event with a hold request. Delay-capable
// backends keep the message back for the given duration; the rest deliver
// it immediately.
func (s *Service) PublishEventAfter(ctx context.Context, evt eventpkg.Event, delay time.Duration) error {
	return s.publishEvent(ctx, evt, delay)
}

func (s *Service) publishEvent(ctx context.Context, evt eventpkg.Event, delay time.Duration) error {
	if s == nil {
		return errors.New("clickflow: event service is nil")
	}
	if s.publisher == nil {
		return errspkg.ErrPublisherRequired
	}

	msg, err := NewEventMessage(evt)
	if err != nil {
		return err
	}

	if delay > 0 {
		eventpkg.SetDelay(msg.Metadata, delay)
	}
	if s.Conf != nil && s.Conf.MaxDeliveryAttempts > 0 {
		eventpkg.SetMaxAttempts(msg.Metadata, s.Conf.MaxDeliveryAttempts)
	}
	if ctx != nil {
		msg.SetContext(ctx)
	}

	topic := s.topic()
	if err := s.publisher.Publish(topic, msg); err != nil {
		return &PublishError{Topic: topic, Err: err}
	}
	return nil
}
