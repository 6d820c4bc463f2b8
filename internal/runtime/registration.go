package runtime

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/clickflow/internal/runtime/errors"
)

// MessageHandlerRegistration wires a raw Watermill handler. It is the
// low-level escape hatch below the event dispatcher, for consumers that need
// the wire message itself (DLQ inspectors, bridges to other topics).
type MessageHandlerRegistration struct {
	Name         string
	ConsumeQueue string
	PublishQueue string
	Handler      message.HandlerFunc
	Subscriber   message.Subscriber
	Publisher    message.Publisher
}

// RegisterMessageHandler attaches the provided handler to the service router.
func RegisterMessageHandler(svc *Service, cfg MessageHandlerRegistration) error {
	if svc == nil {
		return errspkg.ErrServiceRequired
	}
	if cfg.Handler == nil {
		return errspkg.ErrHandlerRequired
	}
	if cfg.ConsumeQueue == "" {
		return errspkg.ErrConsumeQueueRequired
	}
	if cfg.Name == "" {
		return errspkg.ErrHandlerNameRequired
	}
	if cfg.Subscriber == nil {
		cfg.Subscriber = svc.subscriber
	}
	if cfg.Publisher == nil {
		cfg.Publisher = svc.publisher
	}

	stats := svc.trackHandler(cfg.Name, cfg.ConsumeQueue, cfg.PublishQueue)

	svc.router.AddHandler(
		cfg.Name,
		cfg.ConsumeQueue,
		cfg.Subscriber,
		cfg.PublishQueue,
		cfg.Publisher,
		wrapHandlerWithStats(cfg.Handler, stats, svc.getErrorClassifier()),
	)

	return nil
}

// noPublisherRegistration wires a consume-only handler, the shape the event
// dispatcher uses.
type noPublisherRegistration struct {
	Name         string
	ConsumeQueue string
	Subscriber   message.Subscriber
	Handler      message.NoPublishHandlerFunc
}

func (s *Service) registerNoPublisherHandler(cfg noPublisherRegistration) error {
	if cfg.Handler == nil {
		return errspkg.ErrHandlerRequired
	}
	if cfg.ConsumeQueue == "" {
		return errspkg.ErrConsumeQueueRequired
	}
	if cfg.Name == "" {
		return errspkg.ErrHandlerNameRequired
	}
	if cfg.Subscriber == nil {
		cfg.Subscriber = s.subscriber
	}

	stats := s.trackHandler(cfg.Name, cfg.ConsumeQueue, "")

	s.router.AddNoPublisherHandler(
		cfg.Name,
		cfg.ConsumeQueue,
		cfg.Subscriber,
		wrapNoPublishHandlerWithStats(cfg.Handler, stats, s.getErrorClassifier()),
	)

	return nil
}

// trackHandler records a HandlerInfo for the introspection endpoint and
// returns its stats collector.
func (s *Service) trackHandler(name, consumeQueue, publishQueue string) *HandlerStats {
	stats := newHandlerStats(name, consumeQueue, publishQueue, s.getResourceTracker())
	info := &HandlerInfo{
		Name:         name,
		ConsumeQueue: consumeQueue,
		PublishQueue: publishQueue,
		Stats:        stats,
	}

	s.handlersMu.Lock()
	s.handlers = append(s.handlers, info)
	s.handlersMu.Unlock()

	return stats
}

func wrapHandlerWithStats(handler message.HandlerFunc, stats *HandlerStats, classifier ErrorClassifier) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		invocation := stats.onMessageStart(msg)
		start := time.Now()
		msgs, err := handler(msg)
		duration := time.Since(start)

		stats.onMessageFinish(invocation, duration, err, classifier)

		return msgs, err
	}
}

func wrapNoPublishHandlerWithStats(handler message.NoPublishHandlerFunc, stats *HandlerStats, classifier ErrorClassifier) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		invocation := stats.onMessageStart(msg)
		start := time.Now()
		err := handler(msg)
		duration := time.Since(start)

		stats.onMessageFinish(invocation, duration, err, classifier)

		return err
	}
}
