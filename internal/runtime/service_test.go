package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"

	configpkg "github.com/drblury/clickflow/internal/runtime/config"
	errspkg "github.com/drblury/clickflow/internal/runtime/errors"
	transportpkg "github.com/drblury/clickflow/internal/runtime/transport"
)

type stubTransportFactory struct {
	transport transportpkg.Transport
	err       error
	calls     int
}

func (f *stubTransportFactory) Build(_ context.Context, _ *configpkg.Config, _ watermill.LoggerAdapter) (transportpkg.Transport, error) {
	f.calls++
	if f.err != nil {
		return transportpkg.Transport{}, f.err
	}
	return f.transport, nil
}

func TestTryNewServiceRequiresConfig(t *testing.T) {
	_, err := TryNewService(nil, newTestLogger(), context.Background(), ServiceDependencies{})
	if !errors.Is(err, errspkg.ErrConfigRequired) {
		t.Fatalf("expected ErrConfigRequired, got %v", err)
	}
}

func TestTryNewServiceRequiresLogger(t *testing.T) {
	_, err := TryNewService(&configpkg.Config{QueueBackend: "channel"}, nil, context.Background(), ServiceDependencies{})
	if !errors.Is(err, errspkg.ErrLoggerRequired) {
		t.Fatalf("expected ErrLoggerRequired, got %v", err)
	}
}

func TestTryNewServiceRejectsInvalidConfig(t *testing.T) {
	cfg := &configpkg.Config{QueueBackend: "kafka"} // no brokers
	_, err := TryNewService(cfg, newTestLogger(), context.Background(), ServiceDependencies{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var validationErr errspkg.ConfigValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ConfigValidationError, got %T: %v", err, err)
	}
}

func TestTryNewServiceUsesProvidedFactory(t *testing.T) {
	pub := &testPublisher{}
	sub := &testSubscriber{}
	factory := &stubTransportFactory{
		transport: transportpkg.Transport{Publisher: pub, Subscriber: sub},
	}

	cfg := &configpkg.Config{QueueBackend: "channel"}
	svc, err := TryNewService(cfg, newTestLogger(), context.Background(), ServiceDependencies{
		TransportFactory: factory,
	})
	if err != nil {
		t.Fatalf("TryNewService failed: %v", err)
	}
	if factory.calls != 1 {
		t.Fatalf("expected one factory call, got %d", factory.calls)
	}
	if svc.publisher != pub {
		t.Fatal("expected stub publisher to be assigned")
	}
	if svc.subscriber != sub {
		t.Fatal("expected stub subscriber to be assigned")
	}
	if svc.Conf != cfg {
		t.Fatal("service config not set")
	}
	if svc.router == nil {
		t.Fatal("router not created")
	}
}

func TestTryNewServicePropagatesFactoryError(t *testing.T) {
	factoryErr := errors.New("broker unreachable")
	factory := &stubTransportFactory{err: factoryErr}

	_, err := TryNewService(&configpkg.Config{QueueBackend: "channel"}, newTestLogger(), context.Background(), ServiceDependencies{
		TransportFactory: factory,
	})
	if !errors.Is(err, factoryErr) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestNewServicePanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewService(nil, newTestLogger(), context.Background(), ServiceDependencies{})
}

func TestTopicResolution(t *testing.T) {
	svc := newTestService(t)

	if got := svc.topic(); got != DefaultTopic {
		t.Fatalf("expected default topic %q, got %q", DefaultTopic, got)
	}
	if got := svc.deadLetterTopic(); got != DefaultTopic+".dead" {
		t.Fatalf("expected derived DLQ topic, got %q", got)
	}
	if got := svc.poisonQueue(); got != DefaultTopic+".dead" {
		t.Fatalf("expected poison queue to fall back to DLQ topic, got %q", got)
	}

	svc.Conf.Topic = "events.custom"
	svc.Conf.DeadLetterTopic = "events.custom.failed"
	svc.Conf.PoisonQueue = "events.custom.poison"

	if got := svc.topic(); got != "events.custom" {
		t.Fatalf("unexpected topic %q", got)
	}
	if got := svc.deadLetterTopic(); got != "events.custom.failed" {
		t.Fatalf("unexpected DLQ topic %q", got)
	}
	if got := svc.poisonQueue(); got != "events.custom.poison" {
		t.Fatalf("unexpected poison queue %q", got)
	}
}

func TestHandlersReturnsCopy(t *testing.T) {
	svc := newTestService(t)
	svc.trackHandler("a", "q", "")
	svc.trackHandler("b", "q", "out")

	handlers := svc.Handlers()
	if len(handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(handlers))
	}
	handlers[0] = nil
	if svc.Handlers()[0] == nil {
		t.Fatal("Handlers must return a copy")
	}
}

func TestCloseNilServiceIsSafe(t *testing.T) {
	var svc *Service
	if err := svc.Close(); err != nil {
		t.Fatalf("Close on nil service returned %v", err)
	}
}

func TestCloseTearsDownTransport(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestGetTransportCapabilities(t *testing.T) {
	svc := newTestService(t)
	caps := svc.GetTransportCapabilities()
	if caps.Name != "channel" {
		t.Fatalf("expected channel capabilities, got %q", caps.Name)
	}
}
