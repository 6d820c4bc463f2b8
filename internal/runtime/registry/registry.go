// Package registry maps event kinds to application handlers and dispatches
// normalized events to them. Registration happens once at startup, in both
// the function style (Register / RegisterFunc) and the struct callback style
// (RegisterCallbacks); after Freeze the registry is read-only and dispatch
// runs lock-free.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drblury/clickflow/internal/runtime/event"
	interrors "github.com/drblury/clickflow/internal/runtime/errors"
)

type binding struct {
	name    string
	handler Handler
}

// Registry holds the ordered handler bindings per event kind.
type Registry struct {
	mu       sync.RWMutex
	frozen   atomic.Bool
	bindings map[event.Kind][]binding
	total    int
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[event.Kind][]binding)}
}

// Register appends a handler for the given kind. Handlers run in
// registration order; registering the same handler twice runs it twice.
// Registering after Freeze, with a nil handler, or for an unknown kind is a
// programmer error and panics.
func (r *Registry) Register(kind event.Kind, h Handler) {
	if h == nil {
		panic(interrors.ErrHandlerRequired)
	}
	r.register(kind, binding{name: handlerName(h), handler: h})
}

// RegisterFunc is Register for a bare function.
func (r *Registry) RegisterFunc(kind event.Kind, fn func(ctx context.Context, evt event.Event) error) {
	if fn == nil {
		panic(interrors.ErrHandlerRequired)
	}
	f := HandlerFunc(fn)
	r.register(kind, binding{name: handlerName(f), handler: f})
}

func (r *Registry) register(kind event.Kind, b binding) {
	if !kind.Valid() {
		panic(fmt.Sprintf("clickflow: cannot register handler for unknown kind %q", string(kind)))
	}
	if r.frozen.Load() {
		panic("clickflow: handler registry is frozen after startup")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[kind] = append(r.bindings[kind], b)
	r.total++
}

// Freeze marks the registry read-only. Dispatch skips locking afterwards.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

// Frozen reports whether the registry has been frozen.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Len returns the total number of registered bindings.
func (r *Registry) Len() int {
	if r.frozen.Load() {
		return r.total
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Kinds returns the kinds that have at least one handler, in canonical
// order.
func (r *Registry) Kinds() []event.Kind {
	var out []event.Kind
	for _, k := range event.Kinds() {
		if len(r.bindingsFor(k)) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// HandlerNames returns the display names bound to a kind, in registration
// order.
func (r *Registry) HandlerNames(kind event.Kind) []string {
	bindings := r.bindingsFor(kind)
	if len(bindings) == 0 {
		return nil
	}
	names := make([]string, len(bindings))
	for i, b := range bindings {
		names[i] = b.name
	}
	return names
}

func (r *Registry) bindingsFor(kind event.Kind) []binding {
	if r.frozen.Load() {
		return r.bindings[kind]
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bindings[kind]
}

// Outcome records one handler invocation during a dispatch.
type Outcome struct {
	Handler  string
	Kind     event.Kind
	Err      error
	Duration time.Duration
}

// Outcomes is the per-handler result list of one dispatch, in registration
// order.
type Outcomes []Outcome

// Err joins the failures of the dispatch. Handlers that returned
// event.ErrSkip do not count as failures. Returns nil when every handler
// succeeded.
func (o Outcomes) Err() error {
	var errs []error
	for _, out := range o {
		if !out.failed() {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", out.Handler, out.Err))
	}
	return errors.Join(errs...)
}

// OK reports whether every handler succeeded or skipped.
func (o Outcomes) OK() bool {
	for _, out := range o {
		if out.failed() {
			return false
		}
	}
	return true
}

// Failed returns the subset of outcomes that count as failures.
func (o Outcomes) Failed() Outcomes {
	var out Outcomes
	for _, oc := range o {
		if oc.failed() {
			out = append(out, oc)
		}
	}
	return out
}

func (o Outcome) failed() bool {
	if o.Err == nil {
		return false
	}
	result, _ := event.ClassifyError(o.Err)
	return result != event.ResultSkip
}

// Dispatch invokes every handler registered for the event's kind, in
// registration order. A failing or panicking handler never prevents the
// handlers after it from running; its error lands in the outcome list
// instead. Dispatching a kind without handlers returns an empty list.
func (r *Registry) Dispatch(ctx context.Context, evt event.Event) Outcomes {
	bindings := r.bindingsFor(evt.Kind)
	if len(bindings) == 0 {
		return nil
	}

	outcomes := make(Outcomes, 0, len(bindings))
	for _, b := range bindings {
		start := time.Now()
		err := safeInvoke(ctx, b.handler, evt)
		outcomes = append(outcomes, Outcome{
			Handler:  b.name,
			Kind:     evt.Kind,
			Err:      err,
			Duration: time.Since(start),
		})
	}
	return outcomes
}

func safeInvoke(ctx context.Context, h Handler, evt event.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("clickflow: handler panic: %v", rec)
		}
	}()
	return h.HandleEvent(ctx, evt)
}
