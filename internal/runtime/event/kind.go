package event

import "fmt"

// Kind identifies a ClickUp webhook event type. The set of kinds is closed:
// ParseKind rejects anything else, so code past the ingress boundary only
// ever sees the constants below.
type Kind string

const (
	KindTaskCreated             Kind = "taskCreated"
	KindTaskUpdated             Kind = "taskUpdated"
	KindTaskDeleted             Kind = "taskDeleted"
	KindTaskPriorityUpdated     Kind = "taskPriorityUpdated"
	KindTaskStatusUpdated       Kind = "taskStatusUpdated"
	KindTaskAssigneeUpdated     Kind = "taskAssigneeUpdated"
	KindTaskDueDateUpdated      Kind = "taskDueDateUpdated"
	KindTaskTagUpdated          Kind = "taskTagUpdated"
	KindTaskMoved               Kind = "taskMoved"
	KindTaskCommentPosted       Kind = "taskCommentPosted"
	KindTaskCommentUpdated      Kind = "taskCommentUpdated"
	KindTaskTimeEstimateUpdated Kind = "taskTimeEstimateUpdated"
	KindTaskTimeTrackedUpdated  Kind = "taskTimeTrackedUpdated"
	KindListCreated             Kind = "listCreated"
	KindListUpdated             Kind = "listUpdated"
	KindListDeleted             Kind = "listDeleted"
	KindFolderCreated           Kind = "folderCreated"
	KindFolderUpdated           Kind = "folderUpdated"
	KindFolderDeleted           Kind = "folderDeleted"
	KindSpaceCreated            Kind = "spaceCreated"
	KindSpaceUpdated            Kind = "spaceUpdated"
	KindSpaceDeleted            Kind = "spaceDeleted"
	KindGoalCreated             Kind = "goalCreated"
	KindGoalUpdated             Kind = "goalUpdated"
	KindGoalDeleted             Kind = "goalDeleted"
	KindKeyResultCreated        Kind = "keyResultCreated"
	KindKeyResultUpdated        Kind = "keyResultUpdated"
	KindKeyResultDeleted        Kind = "keyResultDeleted"
)

// allKinds fixes the canonical ordering used by Kinds and callback binding.
var allKinds = [...]Kind{
	KindTaskCreated,
	KindTaskUpdated,
	KindTaskDeleted,
	KindTaskPriorityUpdated,
	KindTaskStatusUpdated,
	KindTaskAssigneeUpdated,
	KindTaskDueDateUpdated,
	KindTaskTagUpdated,
	KindTaskMoved,
	KindTaskCommentPosted,
	KindTaskCommentUpdated,
	KindTaskTimeEstimateUpdated,
	KindTaskTimeTrackedUpdated,
	KindListCreated,
	KindListUpdated,
	KindListDeleted,
	KindFolderCreated,
	KindFolderUpdated,
	KindFolderDeleted,
	KindSpaceCreated,
	KindSpaceUpdated,
	KindSpaceDeleted,
	KindGoalCreated,
	KindGoalUpdated,
	KindGoalDeleted,
	KindKeyResultCreated,
	KindKeyResultUpdated,
	KindKeyResultDeleted,
}

var kindSet = func() map[Kind]struct{} {
	set := make(map[Kind]struct{}, len(allKinds))
	for _, k := range allKinds {
		set[k] = struct{}{}
	}
	return set
}()

// ParseKind converts a raw event name into a Kind. Names outside the closed
// set produce an error.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kindSet[k]; !ok {
		return "", fmt.Errorf("clickflow: unknown event kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindSet[k]
	return ok
}

func (k Kind) String() string {
	return string(k)
}

// Kinds returns all known kinds in canonical order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds[:])
	return out
}
