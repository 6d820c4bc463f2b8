package clickflow

import (
	runtimepkg "github.com/drblury/clickflow/internal/runtime"
	configpkg "github.com/drblury/clickflow/internal/runtime/config"
	errspkg "github.com/drblury/clickflow/internal/runtime/errors"
	eventpkg "github.com/drblury/clickflow/internal/runtime/event"
	idspkg "github.com/drblury/clickflow/internal/runtime/ids"
	jsoncodec "github.com/drblury/clickflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/clickflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/clickflow/internal/runtime/metadata"
	registrypkg "github.com/drblury/clickflow/internal/runtime/registry"
	transportpkg "github.com/drblury/clickflow/internal/runtime/transport"
	pubtransport "github.com/drblury/clickflow/transport"
)

type (
	Config              = configpkg.Config
	Service             = runtimepkg.Service
	ServiceDependencies = runtimepkg.ServiceDependencies
	Transport           = transportpkg.Transport
	TransportFactory    = transportpkg.Factory

	// Event model
	Event              = eventpkg.Event
	Kind               = eventpkg.Kind
	NormalizationError = eventpkg.NormalizationError
	RetryAfterError    = eventpkg.RetryAfterError
	DeadLetterError    = eventpkg.DeadLetterError
	HandlerResult      = eventpkg.HandlerResult

	// Handler registry
	Registry       = registrypkg.Registry
	Handler        = registrypkg.Handler
	HandlerFunc    = registrypkg.HandlerFunc
	Outcome        = registrypkg.Outcome
	Outcomes       = registrypkg.Outcomes
	Source         = registrypkg.Source
	SourceRegistry = registrypkg.SourceRegistry
	DiscoveryError = registrypkg.DiscoveryError

	// Raw Watermill handler escape hatch
	MessageHandlerRegistration = runtimepkg.MessageHandlerRegistration

	MiddlewareBuilder      = runtimepkg.MiddlewareBuilder
	MiddlewareRegistration = runtimepkg.MiddlewareRegistration
	RetryMiddlewareConfig  = runtimepkg.RetryMiddlewareConfig

	// Ingress
	WebhookServer = runtimepkg.WebhookServer

	Metadata = metadatapkg.Metadata

	LogFields                 = loggingpkg.LogFields
	ServiceLogger             = loggingpkg.ServiceLogger
	EntryLogger               = loggingpkg.EntryLogger
	EntryLoggerAdapter[T any] = loggingpkg.EntryLoggerAdapter[T]

	UnprocessableEventError = runtimepkg.UnprocessableEventError
	PublishError            = runtimepkg.PublishError

	HandlerInfo           = runtimepkg.HandlerInfo
	HandlerStats          = runtimepkg.HandlerStats
	ConfigValidationError = errspkg.ConfigValidationError

	// Job lifecycle hooks
	JobContext = runtimepkg.JobContext
	JobHooks   = runtimepkg.JobHooks

	// Pipeline metrics
	DLQMetrics         = runtimepkg.DLQMetrics
	DLQTopicMetrics    = runtimepkg.DLQTopicMetrics
	DLQMetricsSnapshot = runtimepkg.DLQMetricsSnapshot
	IngressMetrics     = runtimepkg.IngressMetrics

	// Error classification
	ErrorClassifier = runtimepkg.ErrorClassifier
	ErrorCategory   = runtimepkg.ErrorCategory

	// Transport capabilities
	Capabilities = transportpkg.Capabilities

	// Modular transport types
	TransportBuilder         = pubtransport.Builder
	TransportConfig          = pubtransport.Config
	TransportRegistry        = pubtransport.Registry
	TransportDLQManager      = pubtransport.DLQManager
	TransportQueueIntrospect = pubtransport.QueueIntrospector
	TransportDelayedPub      = pubtransport.DelayedPublisher
)

// Kind constants, one per ClickUp webhook event type.
const (
	KindTaskCreated             = eventpkg.KindTaskCreated
	KindTaskUpdated             = eventpkg.KindTaskUpdated
	KindTaskDeleted             = eventpkg.KindTaskDeleted
	KindTaskPriorityUpdated     = eventpkg.KindTaskPriorityUpdated
	KindTaskStatusUpdated       = eventpkg.KindTaskStatusUpdated
	KindTaskAssigneeUpdated     = eventpkg.KindTaskAssigneeUpdated
	KindTaskDueDateUpdated      = eventpkg.KindTaskDueDateUpdated
	KindTaskTagUpdated          = eventpkg.KindTaskTagUpdated
	KindTaskMoved               = eventpkg.KindTaskMoved
	KindTaskCommentPosted       = eventpkg.KindTaskCommentPosted
	KindTaskCommentUpdated      = eventpkg.KindTaskCommentUpdated
	KindTaskTimeEstimateUpdated = eventpkg.KindTaskTimeEstimateUpdated
	KindTaskTimeTrackedUpdated  = eventpkg.KindTaskTimeTrackedUpdated
	KindListCreated             = eventpkg.KindListCreated
	KindListUpdated             = eventpkg.KindListUpdated
	KindListDeleted             = eventpkg.KindListDeleted
	KindFolderCreated           = eventpkg.KindFolderCreated
	KindFolderUpdated           = eventpkg.KindFolderUpdated
	KindFolderDeleted           = eventpkg.KindFolderDeleted
	KindSpaceCreated            = eventpkg.KindSpaceCreated
	KindSpaceUpdated            = eventpkg.KindSpaceUpdated
	KindSpaceDeleted            = eventpkg.KindSpaceDeleted
	KindGoalCreated             = eventpkg.KindGoalCreated
	KindGoalUpdated             = eventpkg.KindGoalUpdated
	KindGoalDeleted             = eventpkg.KindGoalDeleted
	KindKeyResultCreated        = eventpkg.KindKeyResultCreated
	KindKeyResultUpdated        = eventpkg.KindKeyResultUpdated
	KindKeyResultDeleted        = eventpkg.KindKeyResultDeleted
)

// Handler dispatch results.
const (
	ResultAck        = eventpkg.ResultAck
	ResultRetry      = eventpkg.ResultRetry
	ResultRetryAfter = eventpkg.ResultRetryAfter
	ResultDeadLetter = eventpkg.ResultDeadLetter
	ResultSkip       = eventpkg.ResultSkip
)

// Error categories reported by classifiers.
const (
	ErrorCategoryNone       = runtimepkg.ErrorCategoryNone
	ErrorCategoryValidation = runtimepkg.ErrorCategoryValidation
	ErrorCategoryTransport  = runtimepkg.ErrorCategoryTransport
	ErrorCategoryDownstream = runtimepkg.ErrorCategoryDownstream
	ErrorCategoryOther      = runtimepkg.ErrorCategoryOther
)

// Delivery-state metadata keys carried on queue messages.
const (
	KeyAttempt       = eventpkg.KeyAttempt
	KeyMaxAttempts   = eventpkg.KeyMaxAttempts
	KeyDeadLetter    = eventpkg.KeyDeadLetter
	KeyOriginalTopic = eventpkg.KeyOriginalTopic
	KeyErrorMessage  = eventpkg.KeyErrorMessage
	KeyEnqueuedAt    = eventpkg.KeyEnqueuedAt
	KeyDelayMs       = eventpkg.KeyDelayMs
	KeyCorrelationID = eventpkg.KeyCorrelationID
	KeyEventKind     = eventpkg.KeyEventKind
	KeyDeliveryID    = eventpkg.KeyDeliveryID

	DefaultMaxAttempts = eventpkg.DefaultMaxAttempts
	DefaultTopic       = runtimepkg.DefaultTopic
	DefaultWebhookPath = runtimepkg.DefaultWebhookPath
)

var (
	NewService    = runtimepkg.NewService
	TryNewService = runtimepkg.TryNewService
	FromEnv       = configpkg.FromEnv
	MustFromEnv   = configpkg.MustFromEnv

	// Event model
	ParseKind       = eventpkg.ParseKind
	Kinds           = eventpkg.Kinds
	Normalize       = eventpkg.Normalize
	DecodeEvent     = eventpkg.Decode
	NewEventMessage = runtimepkg.NewEventMessage

	// Handler registry
	NewRegistry    = registrypkg.NewRegistry
	Named          = registrypkg.Named
	RegisterSource = registrypkg.RegisterSource
	SourceNames    = registrypkg.SourceNames
	BuildRegistry  = registrypkg.BuildRegistry

	RegisterMessageHandler = runtimepkg.RegisterMessageHandler

	// Ingress
	NewWebhookServer = runtimepkg.NewWebhookServer

	DefaultMiddlewares      = runtimepkg.DefaultMiddlewares
	CorrelationIDMiddleware = runtimepkg.CorrelationIDMiddleware
	LogMessagesMiddleware   = runtimepkg.LogMessagesMiddleware
	EventValidateMiddleware = runtimepkg.EventValidateMiddleware
	TracerMiddleware        = runtimepkg.TracerMiddleware
	MetricsMiddleware       = runtimepkg.MetricsMiddleware
	RetryMiddleware         = runtimepkg.RetryMiddleware
	PoisonQueueMiddleware   = runtimepkg.PoisonQueueMiddleware
	RecovererMiddleware     = runtimepkg.RecovererMiddleware

	// Job lifecycle hooks
	JobHooksMiddleware = runtimepkg.JobHooksMiddleware
	LoggingHooks       = runtimepkg.LoggingHooks
	MetricsHooks       = runtimepkg.MetricsHooks
	AlertingHooks      = runtimepkg.AlertingHooks

	// Pipeline metrics
	NewDLQMetrics     = runtimepkg.NewDLQMetrics
	NewIngressMetrics = runtimepkg.NewIngressMetrics

	// Handler control errors
	ErrRetry                = eventpkg.ErrRetry
	ErrDeadLetter           = eventpkg.ErrDeadLetter
	ErrSkip                 = eventpkg.ErrSkip
	ErrUnprocessable        = eventpkg.ErrUnprocessable
	ErrRetryAfter           = eventpkg.ErrRetryAfter
	ErrDeadLetterWithReason = eventpkg.ErrDeadLetterWithReason
	ClassifyError           = eventpkg.ClassifyError
	IsRetryable             = eventpkg.IsRetryable
	ShouldDeadLetter        = eventpkg.ShouldDeadLetter

	// Delivery-state metadata helpers
	Attempt            = eventpkg.Attempt
	SetAttempt         = eventpkg.SetAttempt
	IncrementAttempt   = eventpkg.IncrementAttempt
	MaxAttempts        = eventpkg.MaxAttempts
	SetMaxAttempts     = eventpkg.SetMaxAttempts
	ExceedsMaxAttempts = eventpkg.ExceedsMaxAttempts
	IsDeadLetter       = eventpkg.IsDeadLetter
	MarkDeadLetter     = eventpkg.MarkDeadLetter
	OriginalTopic      = eventpkg.OriginalTopic
	ErrorMessage       = eventpkg.ErrorMessage
	Delay              = eventpkg.Delay
	SetDelay           = eventpkg.SetDelay
	EnqueuedAt         = eventpkg.EnqueuedAt
	SetEnqueuedAt      = eventpkg.SetEnqueuedAt
	CorrelationID      = eventpkg.CorrelationID
	SetCorrelationID   = eventpkg.SetCorrelationID
	DeadLetterTopic    = eventpkg.DeadLetterTopic

	// Transport capabilities
	GetCapabilities = transportpkg.GetCapabilities

	// Modular transport registry.
	// Import individual backends via: _ "github.com/drblury/clickflow/transport/kafka"
	DefaultTransportRegistry = pubtransport.DefaultRegistry
	RegisterTransport        = pubtransport.Register
	BuildTransport           = pubtransport.Build

	// Logging and helpers
	NewSlogServiceLogger       = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger  = loggingpkg.NewWatermillServiceLogger
	NewWatermillLoggerAdapter  = loggingpkg.NewWatermillAdapter
	CreateULID                 = idspkg.CreateULID
	NewMetadata                = metadatapkg.New
	MetadataFromHTTPHeader     = metadatapkg.FromHTTPHeader

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrServiceRequired      = errspkg.ErrServiceRequired
	ErrHandlerRequired      = errspkg.ErrHandlerRequired
	ErrConsumeQueueRequired = errspkg.ErrConsumeQueueRequired
	ErrHandlerNameRequired  = errspkg.ErrHandlerNameRequired
	ErrPublisherRequired    = errspkg.ErrPublisherRequired
	ErrTopicRequired        = errspkg.ErrTopicRequired
	ErrConfigRequired       = errspkg.ErrConfigRequired
	ErrLoggerRequired       = errspkg.ErrLoggerRequired
	ErrRegistryRequired     = errspkg.ErrRegistryRequired
	ErrUnknownSource        = registrypkg.ErrUnknownSource
)
