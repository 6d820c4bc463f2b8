package registry

import (
	"context"
	"fmt"

	"github.com/drblury/clickflow/internal/runtime/event"
	interrors "github.com/drblury/clickflow/internal/runtime/errors"
)

// Struct registration style. A type implements whichever subset of the
// callback interfaces below it cares about; RegisterCallbacks probes the
// value against every interface and binds one handler per implemented
// callback. Callbacks the type does not implement are simply not bound, so
// a handler struct subscribes to exactly the kinds it declares methods for.

type TaskCreatedHandler interface {
	OnTaskCreated(ctx context.Context, evt event.Event) error
}

type TaskUpdatedHandler interface {
	OnTaskUpdated(ctx context.Context, evt event.Event) error
}

type TaskDeletedHandler interface {
	OnTaskDeleted(ctx context.Context, evt event.Event) error
}

type TaskPriorityUpdatedHandler interface {
	OnTaskPriorityUpdated(ctx context.Context, evt event.Event) error
}

type TaskStatusUpdatedHandler interface {
	OnTaskStatusUpdated(ctx context.Context, evt event.Event) error
}

type TaskAssigneeUpdatedHandler interface {
	OnTaskAssigneeUpdated(ctx context.Context, evt event.Event) error
}

type TaskDueDateUpdatedHandler interface {
	OnTaskDueDateUpdated(ctx context.Context, evt event.Event) error
}

type TaskTagUpdatedHandler interface {
	OnTaskTagUpdated(ctx context.Context, evt event.Event) error
}

type TaskMovedHandler interface {
	OnTaskMoved(ctx context.Context, evt event.Event) error
}

type TaskCommentPostedHandler interface {
	OnTaskCommentPosted(ctx context.Context, evt event.Event) error
}

type TaskCommentUpdatedHandler interface {
	OnTaskCommentUpdated(ctx context.Context, evt event.Event) error
}

type TaskTimeEstimateUpdatedHandler interface {
	OnTaskTimeEstimateUpdated(ctx context.Context, evt event.Event) error
}

type TaskTimeTrackedUpdatedHandler interface {
	OnTaskTimeTrackedUpdated(ctx context.Context, evt event.Event) error
}

type ListCreatedHandler interface {
	OnListCreated(ctx context.Context, evt event.Event) error
}

type ListUpdatedHandler interface {
	OnListUpdated(ctx context.Context, evt event.Event) error
}

type ListDeletedHandler interface {
	OnListDeleted(ctx context.Context, evt event.Event) error
}

type FolderCreatedHandler interface {
	OnFolderCreated(ctx context.Context, evt event.Event) error
}

type FolderUpdatedHandler interface {
	OnFolderUpdated(ctx context.Context, evt event.Event) error
}

type FolderDeletedHandler interface {
	OnFolderDeleted(ctx context.Context, evt event.Event) error
}

type SpaceCreatedHandler interface {
	OnSpaceCreated(ctx context.Context, evt event.Event) error
}

type SpaceUpdatedHandler interface {
	OnSpaceUpdated(ctx context.Context, evt event.Event) error
}

type SpaceDeletedHandler interface {
	OnSpaceDeleted(ctx context.Context, evt event.Event) error
}

type GoalCreatedHandler interface {
	OnGoalCreated(ctx context.Context, evt event.Event) error
}

type GoalUpdatedHandler interface {
	OnGoalUpdated(ctx context.Context, evt event.Event) error
}

type GoalDeletedHandler interface {
	OnGoalDeleted(ctx context.Context, evt event.Event) error
}

type KeyResultCreatedHandler interface {
	OnKeyResultCreated(ctx context.Context, evt event.Event) error
}

type KeyResultUpdatedHandler interface {
	OnKeyResultUpdated(ctx context.Context, evt event.Event) error
}

type KeyResultDeletedHandler interface {
	OnKeyResultDeleted(ctx context.Context, evt event.Event) error
}

type callbackProbe struct {
	kind   event.Kind
	method string
	bind   func(v any) (HandlerFunc, bool)
}

var callbackProbes = []callbackProbe{
	{event.KindTaskCreated, "OnTaskCreated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskCreatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskCreated, true
	}},
	{event.KindTaskUpdated, "OnTaskUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskUpdated, true
	}},
	{event.KindTaskDeleted, "OnTaskDeleted", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskDeletedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskDeleted, true
	}},
	{event.KindTaskPriorityUpdated, "OnTaskPriorityUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskPriorityUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskPriorityUpdated, true
	}},
	{event.KindTaskStatusUpdated, "OnTaskStatusUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskStatusUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskStatusUpdated, true
	}},
	{event.KindTaskAssigneeUpdated, "OnTaskAssigneeUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskAssigneeUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskAssigneeUpdated, true
	}},
	{event.KindTaskDueDateUpdated, "OnTaskDueDateUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskDueDateUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskDueDateUpdated, true
	}},
	{event.KindTaskTagUpdated, "OnTaskTagUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskTagUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskTagUpdated, true
	}},
	{event.KindTaskMoved, "OnTaskMoved", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskMovedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskMoved, true
	}},
	{event.KindTaskCommentPosted, "OnTaskCommentPosted", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskCommentPostedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskCommentPosted, true
	}},
	{event.KindTaskCommentUpdated, "OnTaskCommentUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskCommentUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskCommentUpdated, true
	}},
	{event.KindTaskTimeEstimateUpdated, "OnTaskTimeEstimateUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskTimeEstimateUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskTimeEstimateUpdated, true
	}},
	{event.KindTaskTimeTrackedUpdated, "OnTaskTimeTrackedUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(TaskTimeTrackedUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnTaskTimeTrackedUpdated, true
	}},
	{event.KindListCreated, "OnListCreated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(ListCreatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnListCreated, true
	}},
	{event.KindListUpdated, "OnListUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(ListUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnListUpdated, true
	}},
	{event.KindListDeleted, "OnListDeleted", func(v any) (HandlerFunc, bool) {
		h, ok := v.(ListDeletedHandler)
		if !ok {
			return nil, false
		}
		return h.OnListDeleted, true
	}},
	{event.KindFolderCreated, "OnFolderCreated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(FolderCreatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnFolderCreated, true
	}},
	{event.KindFolderUpdated, "OnFolderUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(FolderUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnFolderUpdated, true
	}},
	{event.KindFolderDeleted, "OnFolderDeleted", func(v any) (HandlerFunc, bool) {
		h, ok := v.(FolderDeletedHandler)
		if !ok {
			return nil, false
		}
		return h.OnFolderDeleted, true
	}},
	{event.KindSpaceCreated, "OnSpaceCreated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(SpaceCreatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnSpaceCreated, true
	}},
	{event.KindSpaceUpdated, "OnSpaceUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(SpaceUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnSpaceUpdated, true
	}},
	{event.KindSpaceDeleted, "OnSpaceDeleted", func(v any) (HandlerFunc, bool) {
		h, ok := v.(SpaceDeletedHandler)
		if !ok {
			return nil, false
		}
		return h.OnSpaceDeleted, true
	}},
	{event.KindGoalCreated, "OnGoalCreated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(GoalCreatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnGoalCreated, true
	}},
	{event.KindGoalUpdated, "OnGoalUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(GoalUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnGoalUpdated, true
	}},
	{event.KindGoalDeleted, "OnGoalDeleted", func(v any) (HandlerFunc, bool) {
		h, ok := v.(GoalDeletedHandler)
		if !ok {
			return nil, false
		}
		return h.OnGoalDeleted, true
	}},
	{event.KindKeyResultCreated, "OnKeyResultCreated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(KeyResultCreatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnKeyResultCreated, true
	}},
	{event.KindKeyResultUpdated, "OnKeyResultUpdated", func(v any) (HandlerFunc, bool) {
		h, ok := v.(KeyResultUpdatedHandler)
		if !ok {
			return nil, false
		}
		return h.OnKeyResultUpdated, true
	}},
	{event.KindKeyResultDeleted, "OnKeyResultDeleted", func(v any) (HandlerFunc, bool) {
		h, ok := v.(KeyResultDeletedHandler)
		if !ok {
			return nil, false
		}
		return h.OnKeyResultDeleted, true
	}},
}

// RegisterCallbacks binds every callback interface v implements and returns
// the number of bindings made. Binding order follows the canonical kind
// order, so a struct implementing several callbacks registers them
// deterministically.
func (r *Registry) RegisterCallbacks(v any) int {
	if v == nil {
		panic(interrors.ErrHandlerRequired)
	}

	bound := 0
	for _, probe := range callbackProbes {
		fn, ok := probe.bind(v)
		if !ok {
			continue
		}
		name := trimPackagePath(fmt.Sprintf("%T", v)) + "." + probe.method
		r.register(probe.kind, binding{name: name, handler: fn})
		bound++
	}
	return bound
}
