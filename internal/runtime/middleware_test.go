package runtime

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	eventpkg "github.com/drblury/clickflow/internal/runtime/event"
)

func passthroughHandler(msgs []*message.Message, err error) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		return msgs, err
	}
}

func TestCorrelationIDMiddlewareInjectsWhenMissing(t *testing.T) {
	svc := newTestService(t)
	mw := svc.correlationIDMiddleware()

	msg := message.NewMessage("id", nil)
	var seen string
	handler := mw(func(msg *message.Message) ([]*message.Message, error) {
		seen = eventpkg.CorrelationID(msg.Metadata)
		return nil, nil
	})

	if _, err := handler(msg); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if seen == "" {
		t.Fatal("correlation ID not injected")
	}
}

func TestCorrelationIDMiddlewareKeepsExisting(t *testing.T) {
	svc := newTestService(t)
	mw := svc.correlationIDMiddleware()

	msg := message.NewMessage("id", nil)
	eventpkg.SetCorrelationID(msg.Metadata, "existing")

	handler := mw(passthroughHandler(nil, nil))
	if _, err := handler(msg); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if got := eventpkg.CorrelationID(msg.Metadata); got != "existing" {
		t.Fatalf("correlation ID overwritten: %q", got)
	}
}

func TestEventValidateMiddlewarePassesValidEnvelope(t *testing.T) {
	svc := newTestService(t)
	mw := svc.eventValidateMiddleware()

	msg := message.NewMessage("id", encodeTestEvent(t, eventpkg.KindTaskCreated))
	called := false
	handler := mw(func(msg *message.Message) ([]*message.Message, error) {
		called = true
		return nil, nil
	})

	if _, err := handler(msg); err != nil {
		t.Fatalf("valid envelope rejected: %v", err)
	}
	if !called {
		t.Fatal("handler not invoked")
	}
	if got := msg.Metadata.Get(eventpkg.KeyEventKind); got != string(eventpkg.KindTaskCreated) {
		t.Fatalf("kind metadata not backfilled, got %q", got)
	}
}

func TestEventValidateMiddlewareRejectsGarbage(t *testing.T) {
	svc := newTestService(t)
	mw := svc.eventValidateMiddleware()

	msg := message.NewMessage("id", []byte(`{"type":"notAnEvent","body":{}}`))
	handler := mw(func(msg *message.Message) ([]*message.Message, error) {
		t.Fatal("handler must not run for invalid envelopes")
		return nil, nil
	})

	_, err := handler(msg)
	var unprocessable *UnprocessableEventError
	if !errors.As(err, &unprocessable) {
		t.Fatalf("expected UnprocessableEventError, got %v", err)
	}
}

func TestRetryMiddlewareSkipsUnprocessable(t *testing.T) {
	svc := newTestService(t)
	mw := svc.retryMiddlewareWithConfig(RetryMiddlewareConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	})

	calls := 0
	unprocessable := &UnprocessableEventError{eventMessage: "x", err: errors.New("bad")}
	handler := mw(func(msg *message.Message) ([]*message.Message, error) {
		calls++
		return nil, unprocessable
	})

	msg := message.NewMessage("id", nil)
	msg.SetContext(t.Context())
	if _, err := handler(msg); !errors.As(err, new(*UnprocessableEventError)) {
		t.Fatalf("expected unprocessable error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("unprocessable errors must not be retried, got %d calls", calls)
	}
}

func TestRetryMiddlewareRetriesTransientErrors(t *testing.T) {
	svc := newTestService(t)
	mw := svc.retryMiddlewareWithConfig(RetryMiddlewareConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	})

	calls := 0
	handler := mw(func(msg *message.Message) ([]*message.Message, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("transient")
		}
		return nil, nil
	})

	msg := message.NewMessage("id", nil)
	msg.SetContext(t.Context())
	if _, err := handler(msg); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryMiddlewareConfigFallsBackToServiceConfig(t *testing.T) {
	cfg := RetryMiddlewareConfig{}.withDefaults()
	if cfg.MaxRetries != 5 {
		t.Fatalf("unexpected default max retries %d", cfg.MaxRetries)
	}
	if cfg.InitialInterval != time.Second {
		t.Fatalf("unexpected default initial interval %v", cfg.InitialInterval)
	}
	if cfg.MaxInterval != 16*time.Second {
		t.Fatalf("unexpected default max interval %v", cfg.MaxInterval)
	}
}

func TestRegisterMiddlewareValidation(t *testing.T) {
	svc := newTestService(t)

	if err := svc.RegisterMiddleware(MiddlewareRegistration{Name: "empty"}); err == nil {
		t.Fatal("expected error for registration without middleware or builder")
	}

	buildErr := errors.New("build failed")
	err := svc.RegisterMiddleware(MiddlewareRegistration{
		Name:    "failing",
		Builder: func(*Service) (message.HandlerMiddleware, error) { return nil, buildErr },
	})
	if !errors.Is(err, buildErr) {
		t.Fatalf("expected builder error, got %v", err)
	}

	// A nil middleware from a builder means "not applicable", not an error.
	err = svc.RegisterMiddleware(MiddlewareRegistration{
		Name:    "disabled",
		Builder: func(*Service) (message.HandlerMiddleware, error) { return nil, nil },
	})
	if err != nil {
		t.Fatalf("nil middleware must be skipped silently, got %v", err)
	}
}

func TestDefaultMiddlewaresOrder(t *testing.T) {
	names := []string{}
	for _, reg := range DefaultMiddlewares() {
		names = append(names, reg.Name)
	}

	want := []string{"correlation_id", "log_messages", "event_validate", "tracer", "metrics", "retry", "poison_queue", "recoverer"}
	if len(names) != len(want) {
		t.Fatalf("expected %d middlewares, got %d: %v", len(want), len(names), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("middleware %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestIsUnprocessable(t *testing.T) {
	if isUnprocessable(errors.New("plain")) {
		t.Fatal("plain errors are not unprocessable")
	}
	wrapped := &UnprocessableEventError{eventMessage: "x", err: errors.New("bad")}
	if !isUnprocessable(wrapped) {
		t.Fatal("expected unprocessable detection")
	}
}
