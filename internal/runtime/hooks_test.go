package runtime

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	eventpkg "github.com/drblury/clickflow/internal/runtime/event"
)

func TestJobHooksMerge(t *testing.T) {
	var calls []string

	first := JobHooks{
		OnJobStart: func(JobContext) { calls = append(calls, "first-start") },
		OnJobDone:  func(JobContext) { calls = append(calls, "first-done") },
	}
	second := JobHooks{
		OnJobStart: func(JobContext) { calls = append(calls, "second-start") },
		OnJobError: func(JobContext, error) { calls = append(calls, "second-error") },
	}

	merged := first.Merge(second)
	merged.OnJobStart(JobContext{})
	merged.OnJobDone(JobContext{})
	merged.OnJobError(JobContext{}, errors.New("x"))

	want := []string{"first-start", "second-start", "first-done", "second-error"}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: expected %q, got %q", i, want[i], calls[i])
		}
	}
}

func TestJobHooksMergeNilHooks(t *testing.T) {
	merged := JobHooks{}.Merge(JobHooks{})
	if merged.OnJobStart != nil || merged.OnJobDone != nil || merged.OnJobError != nil {
		t.Fatal("merging empty hooks must stay empty")
	}
}

func TestJobHooksMiddlewareInvokesDone(t *testing.T) {
	var started, done JobContext
	hooks := JobHooks{
		OnJobStart: func(ctx JobContext) { started = ctx },
		OnJobDone:  func(ctx JobContext) { done = ctx },
		OnJobError: func(JobContext, error) { t.Fatal("error hook must not fire on success") },
	}

	mw := jobHooksMiddleware(hooks)
	handler := mw(func(msg *message.Message) ([]*message.Message, error) {
		return nil, nil
	})

	msg := message.NewMessage("uuid-1", nil)
	msg.Metadata.Set(eventpkg.KeyHandler, "dispatcher")
	msg.Metadata.Set(eventpkg.KeyTopic, "clickup.webhooks")
	msg.Metadata.Set(eventpkg.KeyEventKind, "taskCreated")
	eventpkg.SetAttempt(msg.Metadata, 2)

	if _, err := handler(msg); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if started.HandlerName != "dispatcher" {
		t.Fatalf("unexpected handler name %q", started.HandlerName)
	}
	if started.Topic != "clickup.webhooks" {
		t.Fatalf("unexpected topic %q", started.Topic)
	}
	if started.EventKind != "taskCreated" {
		t.Fatalf("unexpected event kind %q", started.EventKind)
	}
	if started.Attempt != 2 {
		t.Fatalf("unexpected attempt %d", started.Attempt)
	}
	if done.Duration < 0 {
		t.Fatal("done hook must carry a duration")
	}
}

func TestJobHooksMiddlewareInvokesError(t *testing.T) {
	handlerErr := errors.New("boom")
	var gotErr error
	hooks := JobHooks{
		OnJobDone:  func(JobContext) { t.Fatal("done hook must not fire on failure") },
		OnJobError: func(_ JobContext, err error) { gotErr = err },
	}

	mw := jobHooksMiddleware(hooks)
	handler := mw(func(msg *message.Message) ([]*message.Message, error) {
		return nil, handlerErr
	})

	if _, err := handler(message.NewMessage("uuid-1", nil)); !errors.Is(err, handlerErr) {
		t.Fatalf("middleware must pass the error through, got %v", err)
	}
	if !errors.Is(gotErr, handlerErr) {
		t.Fatalf("error hook saw %v", gotErr)
	}
}

func TestLoggingHooksDoNotPanic(t *testing.T) {
	hooks := LoggingHooks(newTestLogger())

	ctx := JobContext{HandlerName: "h", Topic: "t", MessageUUID: "u", Attempt: 1}
	hooks.OnJobStart(ctx)
	hooks.OnJobDone(ctx)
	hooks.OnJobError(ctx, errors.New("x"))
}

func TestMetricsHooks(t *testing.T) {
	var starts, dones, errs int
	hooks := MetricsHooks(
		func(string, string) { starts++ },
		func(string, string) { dones++ },
		func(string, string) { errs++ },
	)

	hooks.OnJobStart(JobContext{})
	hooks.OnJobDone(JobContext{})
	hooks.OnJobError(JobContext{}, errors.New("x"))

	if starts != 1 || dones != 1 || errs != 1 {
		t.Fatalf("unexpected counts: %d %d %d", starts, dones, errs)
	}
}

func TestAlertingHooks(t *testing.T) {
	fired := false
	hooks := AlertingHooks(func(JobContext, error) { fired = true })

	if hooks.OnJobStart != nil || hooks.OnJobDone != nil {
		t.Fatal("alerting hooks must only wire the error callback")
	}
	hooks.OnJobError(JobContext{}, errors.New("x"))
	if !fired {
		t.Fatal("alert not fired")
	}
}

func TestJobHooksMiddlewareRegistration(t *testing.T) {
	svc := newTestService(t)
	reg := JobHooksMiddleware(JobHooks{})
	if reg.Name != "job_hooks" {
		t.Fatalf("unexpected registration name %q", reg.Name)
	}
	mw, err := reg.Builder(svc)
	if err != nil {
		t.Fatalf("builder failed: %v", err)
	}
	if mw == nil {
		t.Fatal("builder returned nil middleware")
	}
}
