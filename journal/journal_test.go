package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndList(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal"))
	require.NoError(t, err)

	operations := []string{"Sum", "Count", "Fetch", "Count"}
	for i, op := range operations {
		require.NoError(t, j.Record(Entry{
			Session:    "session",
			Operation:  op,
			NodeID:     uint64(i + 4),
			Checkpoint: uint64(i + 4),
			Graph:      []byte(`{"operations":[],"checkpoint":0}`),
			Response:   "1",
		}))
	}

	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, len(operations))
	for i, entry := range entries {
		assert.Equal(t, operations[i], entry.Operation)
		assert.Equal(t, uint64(i+4), entry.NodeID)
		assert.NotEmpty(t, entry.ID)
		assert.False(t, entry.Time.IsZero())
		assert.JSONEq(t, `{"operations":[],"checkpoint":0}`, string(entry.Graph))
	}
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].ID, entries[i].ID)
	}

	last, err := j.Last(2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "Fetch", last[0].Operation)
	assert.Equal(t, "Count", last[1].Operation)
}

func TestListSkipsTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "partial.json.tmp"), []byte("{"), 0644))

	entries, err := j.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListRejectsCorruptEntries(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "01ARZ3NDEKTSV4RRFFQ69G5FAV.json"), []byte("{"), 0644))

	_, err = j.List()
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	j, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, j.Record(Entry{Session: "s", Operation: "Count", NodeID: 2, Response: "7"}))
	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got, err := j.Get(entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Count", got.Operation)
	assert.Equal(t, "7", got.Response)

	_, err = j.Get("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = j.Get("../config")
	assert.ErrorIs(t, err, ErrNotFound)
}
