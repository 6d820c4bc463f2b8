package runtime

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	configpkg "github.com/drblury/clickflow/internal/runtime/config"
	eventpkg "github.com/drblury/clickflow/internal/runtime/event"
	loggingpkg "github.com/drblury/clickflow/internal/runtime/logging"
)

type publishedMessage struct {
	topic string
	msg   *message.Message
}

type testPublisher struct {
	mu        sync.Mutex
	published []publishedMessage
	err       error
	// errOnTopic fails publishes to a single topic only.
	errOnTopic string
}

func (p *testPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil && (p.errOnTopic == "" || p.errOnTopic == topic) {
		return p.err
	}
	for _, msg := range messages {
		p.published = append(p.published, publishedMessage{topic: topic, msg: msg})
	}
	return nil
}

func (p *testPublisher) Close() error { return nil }

func (p *testPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, len(p.published))
	for i, rec := range p.published {
		topics[i] = rec.topic
	}
	return topics
}

func (p *testPublisher) Messages() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	clone := make([]publishedMessage, len(p.published))
	copy(clone, p.published)
	return clone
}

type testSubscriber struct {
	err error
}

func (s *testSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan *message.Message)
	close(ch)
	return ch, nil
}

func (s *testSubscriber) Close() error { return nil }

func newTestSlogLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestLogger() loggingpkg.ServiceLogger {
	return loggingpkg.NewSlogServiceLogger(newTestSlogLogger())
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := newTestLogger()
	wmLogger := loggingpkg.NewWatermillAdapter(log)
	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		t.Fatalf("router init failed: %v", err)
	}
	return &Service{
		Conf:            &configpkg.Config{QueueBackend: "channel"},
		Logger:          log,
		router:          router,
		publisher:       &testPublisher{},
		subscriber:      &testSubscriber{},
		errorClassifier: defaultErrorClassifier,
		resourceTracker: newResourceTracker(),
	}
}

func testEvent(t *testing.T, kind eventpkg.Kind) eventpkg.Event {
	t.Helper()
	return eventpkg.Event{
		Kind:       kind,
		Body:       map[string]any{"event": string(kind), "task_id": "abc123"},
		ReceivedAt: time.Now().UTC().Truncate(time.Millisecond),
		DeliveryID: "delivery-" + string(kind),
	}
}

func encodeTestEvent(t *testing.T, kind eventpkg.Kind) []byte {
	t.Helper()
	payload, err := testEvent(t, kind).Encode()
	if err != nil {
		t.Fatalf("encode event failed: %v", err)
	}
	return payload
}
