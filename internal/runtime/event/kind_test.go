package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKindAccepted(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(string(k))
		require.NoError(t, err, "kind %s", k)
		assert.Equal(t, k, parsed)
		assert.True(t, parsed.Valid())
	}
}

func TestParseKindRejected(t *testing.T) {
	cases := []string{
		"",
		"taskCreated ",
		"TaskCreated",
		"taskArchived",
		"task.created",
		"keyresultcreated",
	}
	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseKind(name)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unknown event kind")
		})
	}
}

func TestKindsComplete(t *testing.T) {
	kinds := Kinds()
	assert.Len(t, kinds, 28)

	// Spot-check each entity family.
	assert.Contains(t, kinds, KindTaskCreated)
	assert.Contains(t, kinds, KindTaskTimeTrackedUpdated)
	assert.Contains(t, kinds, KindListDeleted)
	assert.Contains(t, kinds, KindFolderUpdated)
	assert.Contains(t, kinds, KindSpaceCreated)
	assert.Contains(t, kinds, KindGoalDeleted)
	assert.Contains(t, kinds, KindKeyResultUpdated)
}

func TestKindsReturnsCopy(t *testing.T) {
	first := Kinds()
	first[0] = Kind("mutated")
	assert.Equal(t, KindTaskCreated, Kinds()[0])
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "taskCommentPosted", KindTaskCommentPosted.String())
	assert.False(t, Kind("randomKind").Valid())
}
