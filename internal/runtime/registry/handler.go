package registry

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/drblury/clickflow/internal/runtime/event"
)

// Handler processes one event. Returning nil acknowledges the delivery;
// returned errors are classified by event.ClassifyError to decide between
// retry, skip, and dead-letter.
type Handler interface {
	HandleEvent(ctx context.Context, evt event.Event) error
}

// HandlerFunc adapts a plain function to the Handler interface. This is the
// function registration style; see RegisterCallbacks for the struct style.
type HandlerFunc func(ctx context.Context, evt event.Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt event.Event) error {
	return f(ctx, evt)
}

// Named attaches an explicit display name to a handler. Without it, names
// are derived from the handler's type or function symbol.
func Named(name string, h Handler) Handler {
	return namedHandler{name: name, inner: h}
}

type namedHandler struct {
	name  string
	inner Handler
}

func (n namedHandler) HandleEvent(ctx context.Context, evt event.Event) error {
	return n.inner.HandleEvent(ctx, evt)
}

// handlerName derives a stable display name for logs, stats, and outcomes.
func handlerName(h Handler) string {
	switch t := h.(type) {
	case namedHandler:
		return t.name
	case HandlerFunc:
		return funcName(t)
	default:
		return trimPackagePath(fmt.Sprintf("%T", h))
	}
}

func funcName(f HandlerFunc) string {
	pc := reflect.ValueOf(f).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "func"
	}
	name := trimPackagePath(fn.Name())
	return strings.TrimSuffix(name, "-fm")
}

func trimPackagePath(name string) string {
	name = strings.TrimPrefix(name, "*")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
