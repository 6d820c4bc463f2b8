package runtime

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	eventpkg "github.com/drblury/clickflow/internal/runtime/event"
	"github.com/drblury/clickflow/internal/runtime/logging"
)

// JobContext describes one handler invocation to lifecycle hooks.
type JobContext struct {
	// HandlerName is the name of the handler processing the message.
	HandlerName string
	// Topic is the topic the message was consumed from.
	Topic string
	// MessageUUID is the unique identifier of the message.
	MessageUUID string
	// EventKind is the event kind of the envelope, when known.
	EventKind string
	// Metadata contains the message metadata.
	Metadata message.Metadata
	// Context is the context associated with the message.
	Context context.Context
	// StartedAt is when the handler started processing.
	StartedAt time.Time
	// Duration is how long the handler took (set in OnJobDone and OnJobError).
	Duration time.Duration
	// Attempt is the 1-based delivery attempt of this message.
	Attempt int
}

// JobHooks defines callbacks for job lifecycle events.
// All hooks are optional, nil hooks are simply not called.
type JobHooks struct {
	// OnJobStart is called before the handler function is invoked.
	OnJobStart func(ctx JobContext)

	// OnJobDone is called when a handler completes without error.
	OnJobDone func(ctx JobContext)

	// OnJobError is called when a handler returns an error.
	OnJobError func(ctx JobContext, err error)
}

// Merge combines two JobHooks into one that calls both.
// The hooks from other run after the hooks from h.
func (h JobHooks) Merge(other JobHooks) JobHooks {
	return JobHooks{
		OnJobStart: chainStartHooks(h.OnJobStart, other.OnJobStart),
		OnJobDone:  chainDoneHooks(h.OnJobDone, other.OnJobDone),
		OnJobError: chainErrorHooks(h.OnJobError, other.OnJobError),
	}
}

func chainStartHooks(a, b func(JobContext)) func(JobContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx JobContext) {
		a(ctx)
		b(ctx)
	}
}

func chainDoneHooks(a, b func(JobContext)) func(JobContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx JobContext) {
		a(ctx)
		b(ctx)
	}
}

func chainErrorHooks(a, b func(JobContext, error)) func(JobContext, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx JobContext, err error) {
		a(ctx, err)
		b(ctx, err)
	}
}

// JobHooksMiddleware creates a middleware that invokes the provided hooks
// around every handler invocation.
func JobHooksMiddleware(hooks JobHooks) MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "job_hooks",
		Builder: func(s *Service) (message.HandlerMiddleware, error) {
			return jobHooksMiddleware(hooks), nil
		},
	}
}

func jobHooksMiddleware(hooks JobHooks) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			startTime := time.Now()

			jobCtx := JobContext{
				HandlerName: msg.Metadata.Get(eventpkg.KeyHandler),
				Topic:       msg.Metadata.Get(eventpkg.KeyTopic),
				MessageUUID: msg.UUID,
				EventKind:   msg.Metadata.Get(eventpkg.KeyEventKind),
				Metadata:    msg.Metadata,
				Context:     msg.Context(),
				StartedAt:   startTime,
				Attempt:     eventpkg.Attempt(msg.Metadata),
			}

			if hooks.OnJobStart != nil {
				hooks.OnJobStart(jobCtx)
			}

			msgs, err := h(msg)

			jobCtx.Duration = time.Since(startTime)

			if err != nil {
				if hooks.OnJobError != nil {
					hooks.OnJobError(jobCtx, err)
				}
			} else {
				if hooks.OnJobDone != nil {
					hooks.OnJobDone(jobCtx)
				}
			}

			return msgs, err
		}
	}
}

// LoggingHooks returns pre-built hooks that log job lifecycle events.
func LoggingHooks(logger logging.ServiceLogger) JobHooks {
	return JobHooks{
		OnJobStart: func(ctx JobContext) {
			logger.Info("Job started", logging.LogFields{
				"handler":      ctx.HandlerName,
				"topic":        ctx.Topic,
				"message_uuid": ctx.MessageUUID,
				"event_kind":   ctx.EventKind,
				"attempt":      ctx.Attempt,
			})
		},
		OnJobDone: func(ctx JobContext) {
			logger.Info("Job completed", logging.LogFields{
				"handler":      ctx.HandlerName,
				"topic":        ctx.Topic,
				"message_uuid": ctx.MessageUUID,
				"event_kind":   ctx.EventKind,
				"duration_ms":  ctx.Duration.Milliseconds(),
			})
		},
		OnJobError: func(ctx JobContext, err error) {
			logger.Error("Job failed", err, logging.LogFields{
				"handler":      ctx.HandlerName,
				"topic":        ctx.Topic,
				"message_uuid": ctx.MessageUUID,
				"event_kind":   ctx.EventKind,
				"duration_ms":  ctx.Duration.Milliseconds(),
				"attempt":      ctx.Attempt,
			})
		},
	}
}

// MetricsHooks returns pre-built hooks that record job counters.
func MetricsHooks(onStart, onDone, onError func(handlerName, topic string)) JobHooks {
	return JobHooks{
		OnJobStart: func(ctx JobContext) {
			if onStart != nil {
				onStart(ctx.HandlerName, ctx.Topic)
			}
		},
		OnJobDone: func(ctx JobContext) {
			if onDone != nil {
				onDone(ctx.HandlerName, ctx.Topic)
			}
		},
		OnJobError: func(ctx JobContext, err error) {
			if onError != nil {
				onError(ctx.HandlerName, ctx.Topic)
			}
		},
	}
}

// AlertingHooks returns pre-built hooks that trigger alerts on job errors.
func AlertingHooks(alertFunc func(ctx JobContext, err error)) JobHooks {
	return JobHooks{
		OnJobError: alertFunc,
	}
}
