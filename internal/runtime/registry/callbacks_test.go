package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/clickflow/internal/runtime/event"
)

// taskAuditor implements three callbacks; the other 25 stay unbound.
type taskAuditor struct {
	rec *recorder
	err error
}

func (a *taskAuditor) OnTaskCreated(ctx context.Context, evt event.Event) error {
	a.rec.add("created:" + evt.Body["task_id"].(string))
	return nil
}

func (a *taskAuditor) OnTaskDeleted(ctx context.Context, evt event.Event) error {
	a.rec.add("deleted")
	return a.err
}

func (a *taskAuditor) OnSpaceCreated(ctx context.Context, evt event.Event) error {
	a.rec.add("space")
	return nil
}

// notAHandler implements none of the callback interfaces.
type notAHandler struct{}

func TestRegisterCallbacksBindsImplementedOnly(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()

	bound := reg.RegisterCallbacks(&taskAuditor{rec: rec})

	assert.Equal(t, 3, bound)
	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, []event.Kind{event.KindTaskCreated, event.KindTaskDeleted, event.KindSpaceCreated}, reg.Kinds())

	// Unimplemented callbacks have no binding.
	assert.Nil(t, reg.HandlerNames(event.KindTaskUpdated))
}

func TestRegisterCallbacksDispatch(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	reg.RegisterCallbacks(&taskAuditor{rec: rec})

	outcomes := reg.Dispatch(context.Background(), taskEvent(t, event.KindTaskCreated))
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes.OK())
	assert.Equal(t, []string{"created:t1"}, rec.snapshot())
}

func TestRegisterCallbacksErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	reg := NewRegistry()
	reg.RegisterCallbacks(&taskAuditor{rec: rec, err: boom})

	outcomes := reg.Dispatch(context.Background(), taskEvent(t, event.KindTaskDeleted))
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, boom)
}

func TestRegisterCallbacksNoneImplemented(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, 0, reg.RegisterCallbacks(&notAHandler{}))
	assert.Equal(t, 0, reg.Len())
}

func TestRegisterCallbacksNilPanics(t *testing.T) {
	reg := NewRegistry()
	assert.Panics(t, func() { reg.RegisterCallbacks(nil) })
}

func TestRegisterCallbacksNames(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCallbacks(&taskAuditor{rec: &recorder{}})

	names := reg.HandlerNames(event.KindTaskCreated)
	require.Len(t, names, 1)
	assert.Contains(t, names[0], "taskAuditor.OnTaskCreated")
}

// Registration-style transparency: the same logic registered as a function
// and as a callback struct behaves identically through dispatch.
func TestRegistrationStylesAreEquivalent(t *testing.T) {
	boom := errors.New("boom")
	evt := taskEvent(t, event.KindTaskDeleted)

	funcRec := &recorder{}
	funcReg := NewRegistry()
	funcReg.RegisterFunc(event.KindTaskDeleted, func(ctx context.Context, e event.Event) error {
		funcRec.add("deleted")
		return boom
	})

	structRec := &recorder{}
	structReg := NewRegistry()
	structReg.RegisterCallbacks(&taskAuditor{rec: structRec, err: boom})

	funcOutcomes := funcReg.Dispatch(context.Background(), evt)
	structOutcomes := structReg.Dispatch(context.Background(), evt)

	assert.Equal(t, funcRec.snapshot(), structRec.snapshot())
	require.Len(t, funcOutcomes, 1)
	require.Len(t, structOutcomes, 1)
	assert.ErrorIs(t, funcOutcomes[0].Err, boom)
	assert.ErrorIs(t, structOutcomes[0].Err, boom)
	assert.Equal(t, funcOutcomes.OK(), structOutcomes.OK())
}

// fullAuditor implements every callback interface once.
type fullAuditor struct {
	rec *recorder
}

func (f *fullAuditor) note(label string) error {
	f.rec.add(label)
	return nil
}

func (f *fullAuditor) OnTaskCreated(ctx context.Context, evt event.Event) error {
	return f.note("taskCreated")
}
func (f *fullAuditor) OnTaskUpdated(ctx context.Context, evt event.Event) error {
	return f.note("taskUpdated")
}
func (f *fullAuditor) OnTaskDeleted(ctx context.Context, evt event.Event) error {
	return f.note("taskDeleted")
}
func (f *fullAuditor) OnTaskPriorityUpdated(ctx context.Context, evt event.Event) error {
	return f.note("taskPriorityUpdated")
}
func (f *fullAuditor) OnTaskStatusUpdated(ctx context.Context, evt event.Event) error {
	return f.note("taskStatusUpdated")
}
func (f *fullAuditor) OnTaskAssigneeUpdated(ctx context.Context, evt event.Event) error {
	return f.note("taskAssigneeUpdated")
}
func (f *fullAuditor) OnTaskDueDateUpdated(ctx context.Context, evt event.Event) error {
	return f.note("taskDueDateUpdated")
}
func (f *fullAuditor) OnTaskTagUpdated(ctx context.Context, evt event.Event) error {
	return f.note("taskTagUpdated")
}
func (f *fullAuditor) OnTaskMoved(ctx context.Context, evt event.Event) error {
	return f.note("taskMoved")
}
func (f *fullAuditor) OnTaskCommentPosted(ctx context.Context, evt event.Event) error {
	return f.note("taskCommentPosted")
}
func (f *fullAuditor) OnTaskCommentUpdated(ctx context.Context, evt event.Event) error {
	return f.note("taskCommentUpdated")
}
func (f *fullAuditor) OnTaskTimeEstimateUpdated(ctx context.Context, evt event.Event) error {
	return f.note("taskTimeEstimateUpdated")
}
func (f *fullAuditor) OnTaskTimeTrackedUpdated(ctx context.Context, evt event.Event) error {
	return f.note("taskTimeTrackedUpdated")
}
func (f *fullAuditor) OnListCreated(ctx context.Context, evt event.Event) error {
	return f.note("listCreated")
}
func (f *fullAuditor) OnListUpdated(ctx context.Context, evt event.Event) error {
	return f.note("listUpdated")
}
func (f *fullAuditor) OnListDeleted(ctx context.Context, evt event.Event) error {
	return f.note("listDeleted")
}
func (f *fullAuditor) OnFolderCreated(ctx context.Context, evt event.Event) error {
	return f.note("folderCreated")
}
func (f *fullAuditor) OnFolderUpdated(ctx context.Context, evt event.Event) error {
	return f.note("folderUpdated")
}
func (f *fullAuditor) OnFolderDeleted(ctx context.Context, evt event.Event) error {
	return f.note("folderDeleted")
}
func (f *fullAuditor) OnSpaceCreated(ctx context.Context, evt event.Event) error {
	return f.note("spaceCreated")
}
func (f *fullAuditor) OnSpaceUpdated(ctx context.Context, evt event.Event) error {
	return f.note("spaceUpdated")
}
func (f *fullAuditor) OnSpaceDeleted(ctx context.Context, evt event.Event) error {
	return f.note("spaceDeleted")
}
func (f *fullAuditor) OnGoalCreated(ctx context.Context, evt event.Event) error {
	return f.note("goalCreated")
}
func (f *fullAuditor) OnGoalUpdated(ctx context.Context, evt event.Event) error {
	return f.note("goalUpdated")
}
func (f *fullAuditor) OnGoalDeleted(ctx context.Context, evt event.Event) error {
	return f.note("goalDeleted")
}
func (f *fullAuditor) OnKeyResultCreated(ctx context.Context, evt event.Event) error {
	return f.note("keyResultCreated")
}
func (f *fullAuditor) OnKeyResultUpdated(ctx context.Context, evt event.Event) error {
	return f.note("keyResultUpdated")
}
func (f *fullAuditor) OnKeyResultDeleted(ctx context.Context, evt event.Event) error {
	return f.note("keyResultDeleted")
}

func TestRegisterCallbacksFullCoverage(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()

	bound := reg.RegisterCallbacks(&fullAuditor{rec: rec})
	assert.Equal(t, len(event.Kinds()), bound)

	for _, k := range event.Kinds() {
		outcomes := reg.Dispatch(context.Background(), taskEvent(t, k))
		require.Len(t, outcomes, 1, "kind %s", k)
		assert.True(t, outcomes.OK(), "kind %s", k)
	}

	calls := rec.snapshot()
	require.Len(t, calls, len(event.Kinds()))
	assert.Equal(t, "taskCreated", calls[0])
	assert.Equal(t, "keyResultDeleted", calls[len(calls)-1])
}
