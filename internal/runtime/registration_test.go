package runtime

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/clickflow/internal/runtime/errors"
)

func noopHandler(msg *message.Message) ([]*message.Message, error) {
	return nil, nil
}

func TestRegisterMessageHandlerValidation(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name string
		cfg  MessageHandlerRegistration
		want error
	}{
		{
			name: "missing handler",
			cfg:  MessageHandlerRegistration{Name: "h", ConsumeQueue: "in"},
			want: errspkg.ErrHandlerRequired,
		},
		{
			name: "missing consume queue",
			cfg:  MessageHandlerRegistration{Name: "h", Handler: noopHandler},
			want: errspkg.ErrConsumeQueueRequired,
		},
		{
			name: "missing name",
			cfg:  MessageHandlerRegistration{ConsumeQueue: "in", Handler: noopHandler},
			want: errspkg.ErrHandlerNameRequired,
		},
	}

	for _, tc := range cases {
		if err := RegisterMessageHandler(svc, tc.cfg); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if err := RegisterMessageHandler(nil, MessageHandlerRegistration{}); !errors.Is(err, errspkg.ErrServiceRequired) {
		t.Fatalf("expected ErrServiceRequired, got %v", err)
	}
}

func TestRegisterMessageHandlerTracksInfo(t *testing.T) {
	svc := newTestService(t)

	err := RegisterMessageHandler(svc, MessageHandlerRegistration{
		Name:         "bridge",
		ConsumeQueue: "in",
		PublishQueue: "out",
		Handler:      noopHandler,
	})
	if err != nil {
		t.Fatalf("RegisterMessageHandler failed: %v", err)
	}

	handlers := svc.Handlers()
	if len(handlers) != 1 {
		t.Fatalf("expected one handler, got %d", len(handlers))
	}
	info := handlers[0]
	if info.Name != "bridge" || info.ConsumeQueue != "in" || info.PublishQueue != "out" {
		t.Fatalf("unexpected handler info %+v", info)
	}
	if info.Stats == nil {
		t.Fatal("handler stats not attached")
	}
}

func TestWrapHandlerWithStatsRecordsOutcome(t *testing.T) {
	stats := newHandlerStats("h", "in", "", nil)

	wrapped := wrapHandlerWithStats(func(msg *message.Message) ([]*message.Message, error) {
		return nil, errors.New("fail")
	}, stats, defaultErrorClassifier)

	if _, err := wrapped(message.NewMessage("id", nil)); err == nil {
		t.Fatal("expected handler error passed through")
	}
	if stats.MessagesProcessed != 1 || stats.MessagesFailed != 1 {
		t.Fatalf("unexpected counters processed=%d failed=%d", stats.MessagesProcessed, stats.MessagesFailed)
	}
}

func TestWrapNoPublishHandlerWithStatsRecordsOutcome(t *testing.T) {
	stats := newHandlerStats("h", "in", "", nil)

	wrapped := wrapNoPublishHandlerWithStats(func(msg *message.Message) error {
		return nil
	}, stats, defaultErrorClassifier)

	if err := wrapped(message.NewMessage("id", nil)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if stats.MessagesProcessed != 1 || stats.MessagesFailed != 0 {
		t.Fatalf("unexpected counters processed=%d failed=%d", stats.MessagesProcessed, stats.MessagesFailed)
	}
}
