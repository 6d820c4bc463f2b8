package runtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"

	configpkg "github.com/drblury/clickflow/internal/runtime/config"
	errspkg "github.com/drblury/clickflow/internal/runtime/errors"
	loggingpkg "github.com/drblury/clickflow/internal/runtime/logging"
	transportpkg "github.com/drblury/clickflow/internal/runtime/transport"
)

// DefaultTopic is the queue topic used when the configuration does not name
// one. It matches the topic the ClickUp webhook ingress publishes to.
const DefaultTopic = "clickup.webhooks"

var routerRun = func(router *message.Router, ctx context.Context) error {
	return router.Run(ctx)
}

// ServiceDependencies holds the optional collaborators that the Service can use.
// Leave fields nil to skip the related wiring.
type ServiceDependencies struct {
	Middlewares               []MiddlewareRegistration // Appended after the default middleware chain.
	DisableDefaultMiddlewares bool                     // Skips registering the default middleware chain when true.
	TransportFactory          transportpkg.Factory
	ErrorClassifier           ErrorClassifier
	DLQMetrics                *DLQMetrics // Fed by the dispatcher when a message is dead-lettered.
}

// Service wires a Watermill router, publisher, subscriber, and middleware
// chain around the webhook event pipeline. The ingress publishes through it,
// the dispatcher consumes through it.
type Service struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router

	handlers   []*HandlerInfo
	handlersMu sync.RWMutex

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex

	errorClassifier ErrorClassifier
	resourceTracker *resourceTracker
	dlqMetrics      *DLQMetrics
}

// NewService constructs a Service for the supplied configuration, panicking
// on wiring errors. Register the dispatcher on the returned Service before
// calling Start. Use TryNewService when the caller wants the error instead.
func NewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ServiceDependencies) *Service {
	s, err := TryNewService(conf, log, ctx, deps)
	if err != nil {
		panic(err)
	}
	return s
}

// TryNewService is NewService with an error return.
func TryNewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ServiceDependencies) (*Service, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, errspkg.NewConfigValidationError(err)
	}

	wmLogger := loggingpkg.NewWatermillAdapter(log)
	log.Info("Creating event pipeline service",
		loggingpkg.LogFields{
			"queue_backend": conf.QueueBackend,
			"topic":         conf.Topic,
			"config":        conf,
		})

	s := &Service{
		Conf:            conf,
		Logger:          log,
		resourceTracker: newResourceTracker(),
		dlqMetrics:      deps.DLQMetrics,
	}

	if deps.ErrorClassifier != nil {
		s.errorClassifier = deps.ErrorClassifier
	} else {
		s.errorClassifier = defaultErrorClassifier
	}

	factory := deps.TransportFactory
	if factory == nil {
		factory = transportpkg.DefaultFactory()
	}
	transport, err := factory.Build(ctx, conf, wmLogger)
	if err != nil {
		return nil, err
	}

	s.publisher = transport.Publisher
	s.subscriber = transport.Subscriber

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}

	s.router = router
	s.router.AddPlugin(plugin.SignalsHandler)

	if err := s.registerConfiguredMiddlewares(deps); err != nil {
		return nil, err
	}

	return s, nil
}

// Start runs the underlying Watermill router until the provided context is
// cancelled or a shutdown signal arrives. In-flight messages finish before
// the router returns; messages pulled but never acked stay with the backend
// for redelivery.
func (s *Service) Start(ctx context.Context) error {
	s.StartIntrospectServer()
	s.startHTTPServers()
	return routerRun(s.router, ctx)
}

// Close tears down the router and both transport ends. Start callers do not
// need it; it exists for explicit teardown in tests and short-lived tools.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	var firstErr error
	if s.router != nil {
		firstErr = s.router.Close()
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.subscriber != nil {
		if err := s.subscriber.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Handlers returns the registered handler infos, newest last.
func (s *Service) Handlers() []*HandlerInfo {
	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()
	out := make([]*HandlerInfo, len(s.handlers))
	copy(out, s.handlers)
	return out
}

// GetTransportCapabilities returns the capabilities of the configured backend.
func (s *Service) GetTransportCapabilities() transportpkg.Capabilities {
	if s == nil || s.Conf == nil {
		return transportpkg.Capabilities{}
	}
	return transportpkg.GetCapabilities(s.Conf.QueueBackend)
}

// topic resolves the configured queue topic.
func (s *Service) topic() string {
	if s.Conf != nil && s.Conf.Topic != "" {
		return s.Conf.Topic
	}
	return DefaultTopic
}

// deadLetterTopic resolves the configured dead letter topic.
func (s *Service) deadLetterTopic() string {
	if s.Conf != nil && s.Conf.DeadLetterTopic != "" {
		return s.Conf.DeadLetterTopic
	}
	return s.topic() + ".dead"
}

// poisonQueue resolves the topic for undecodable messages.
func (s *Service) poisonQueue() string {
	if s.Conf != nil && s.Conf.PoisonQueue != "" {
		return s.Conf.PoisonQueue
	}
	return s.deadLetterTopic()
}

func (s *Service) registerConfiguredMiddlewares(deps ServiceDependencies) error {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)

	for _, reg := range registrations {
		if err := s.RegisterMiddleware(reg); err != nil {
			name := reg.Name
			if name == "" {
				name = "anonymous_middleware"
			}
			return fmt.Errorf("failed to register middleware %s: %w", name, err)
		}
	}
	return nil
}

func (s *Service) getErrorClassifier() ErrorClassifier {
	if s.errorClassifier == nil {
		return defaultErrorClassifier
	}
	return s.errorClassifier
}

func (s *Service) getResourceTracker() *resourceTracker {
	if s.resourceTracker == nil {
		s.resourceTracker = newResourceTracker()
	}
	return s.resourceTracker
}

func (s *Service) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	if s.httpServers == nil {
		s.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := s.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		s.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (s *Service) startHTTPServers() {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	for port, mux := range s.httpServers {
		addr := fmt.Sprintf(":%d", port)
		s.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": addr})
		go func(addr string, handler http.Handler) {
			if err := http.ListenAndServe(addr, handler); err != nil {
				s.Logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": addr})
			}
		}(addr, mux)
	}
}
