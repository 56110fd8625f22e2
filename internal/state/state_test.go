package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	store, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndReattach(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.RecordStarted("42", "deploy", map[string]string{"env": "staging"}))

	id, err := store.ActiveExecution("deploy")
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	// Other scripts are unaffected.
	id, err = store.ActiveExecution("backup")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, store.MarkFinished("42"))
	id, err = store.ActiveExecution("deploy")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestActiveExecutionPicksMostRecent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.RecordStarted("1", "deploy", nil))
	require.NoError(t, store.MarkFinished("1"))
	require.NoError(t, store.RecordStarted("2", "deploy", nil))

	id, err := store.ActiveExecution("deploy")
	require.NoError(t, err)
	assert.Equal(t, "2", id)
}

func TestHistory(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.RecordStarted("1", "deploy", map[string]string{"env": "staging"}))
	require.NoError(t, store.RecordStarted("2", "backup", nil))
	require.NoError(t, store.MarkFinished("1"))

	history, err := store.History(10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	byID := map[string]Execution{}
	for _, e := range history {
		byID[e.ID] = e
	}
	assert.Equal(t, "deploy", byID["1"].Script)
	assert.False(t, byID["1"].Running)
	assert.Equal(t, map[string]string{"env": "staging"}, byID["1"].Parameters)
	assert.Equal(t, "backup", byID["2"].Script)
	assert.True(t, byID["2"].Running)
}

func TestMarkFinishedUnknownID(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.MarkFinished("nope"))
}
