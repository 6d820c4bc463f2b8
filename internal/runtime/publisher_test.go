package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	eventpkg "github.com/drblury/clickflow/internal/runtime/event"
)

func TestNewEventMessageUsesDeliveryID(t *testing.T) {
	evt := testEvent(t, eventpkg.KindTaskCreated)

	msg, err := NewEventMessage(evt)
	if err != nil {
		t.Fatalf("NewEventMessage failed: %v", err)
	}
	if msg.UUID != evt.DeliveryID {
		t.Fatalf("expected UUID %q, got %q", evt.DeliveryID, msg.UUID)
	}
	if got := msg.Metadata.Get(eventpkg.KeyEventKind); got != string(eventpkg.KindTaskCreated) {
		t.Fatalf("unexpected kind metadata %q", got)
	}
	if got := msg.Metadata.Get(eventpkg.KeyDeliveryID); got != evt.DeliveryID {
		t.Fatalf("unexpected delivery id metadata %q", got)
	}
	if eventpkg.EnqueuedAt(msg.Metadata).IsZero() {
		t.Fatal("enqueued-at metadata missing")
	}

	decoded, err := eventpkg.Decode(msg.Payload)
	if err != nil {
		t.Fatalf("payload does not round-trip: %v", err)
	}
	if decoded.Kind != evt.Kind {
		t.Fatalf("round-trip kind mismatch: %q", decoded.Kind)
	}
}

func TestNewEventMessageGeneratesUUIDWithoutDeliveryID(t *testing.T) {
	evt := testEvent(t, eventpkg.KindTaskCreated)
	evt.DeliveryID = ""

	msg, err := NewEventMessage(evt)
	if err != nil {
		t.Fatalf("NewEventMessage failed: %v", err)
	}
	if msg.UUID == "" {
		t.Fatal("expected generated UUID")
	}
}

func TestNewEventMessageRejectsInvalidEvent(t *testing.T) {
	_, err := NewEventMessage(eventpkg.Event{Kind: "notAKind", Body: map[string]any{}})
	if err == nil {
		t.Fatal("expected encode error for unknown kind")
	}
}

func TestPublishEventTargetsConfiguredTopic(t *testing.T) {
	svc := newTestService(t)
	svc.Conf.Topic = "custom.topic"
	pub := svc.publisher.(*testPublisher)

	if err := svc.PublishEvent(context.Background(), testEvent(t, eventpkg.KindListDeleted)); err != nil {
		t.Fatalf("PublishEvent failed: %v", err)
	}

	topics := pub.Topics()
	if len(topics) != 1 || topics[0] != "custom.topic" {
		t.Fatalf("unexpected publish topics %v", topics)
	}
}

func TestPublishEventWrapsBackendFailure(t *testing.T) {
	svc := newTestService(t)
	backendErr := errors.New("connection refused")
	svc.publisher.(*testPublisher).err = backendErr

	err := svc.PublishEvent(context.Background(), testEvent(t, eventpkg.KindTaskCreated))
	var publishErr *PublishError
	if !errors.As(err, &publishErr) {
		t.Fatalf("expected PublishError, got %v", err)
	}
	if publishErr.Topic != DefaultTopic {
		t.Fatalf("unexpected topic in error: %q", publishErr.Topic)
	}
	if !errors.Is(err, backendErr) {
		t.Fatal("PublishError must unwrap to the backend error")
	}
}

func TestPublishEventAfterSetsDelayMetadata(t *testing.T) {
	svc := newTestService(t)
	pub := svc.publisher.(*testPublisher)

	if err := svc.PublishEventAfter(context.Background(), testEvent(t, eventpkg.KindGoalCreated), 45*time.Second); err != nil {
		t.Fatalf("PublishEventAfter failed: %v", err)
	}

	published := pub.Messages()
	if len(published) != 1 {
		t.Fatalf("expected one message, got %d", len(published))
	}
	if got := eventpkg.Delay(published[0].msg.Metadata); got != 45*time.Second {
		t.Fatalf("expected 45s delay metadata, got %v", got)
	}
}

func TestPublishEventCarriesConfiguredAttemptCap(t *testing.T) {
	svc := newTestService(t)
	svc.Conf.MaxDeliveryAttempts = 5
	pub := svc.publisher.(*testPublisher)

	if err := svc.PublishEvent(context.Background(), testEvent(t, eventpkg.KindSpaceCreated)); err != nil {
		t.Fatalf("PublishEvent failed: %v", err)
	}

	md := pub.Messages()[0].msg.Metadata
	if got := eventpkg.MaxAttempts(md); got != 5 {
		t.Fatalf("expected max attempts 5, got %d", got)
	}
}

func TestPublishEventRequiresPublisher(t *testing.T) {
	svc := newTestService(t)
	svc.publisher = nil

	if err := svc.PublishEvent(context.Background(), testEvent(t, eventpkg.KindTaskCreated)); err == nil {
		t.Fatal("expected error without publisher")
	}
}
