package table

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/octoframe/journal"
	"github.com/cube2222/octoframe/plan"
)

func TestWriteGraph(t *testing.T) {
	g := plan.NewGraph()
	g.Append(plan.Node{ID: 1, Kind: plan.Read, Args: []string{"deniro.csv"}})
	g.Append(plan.Node{ID: 2, Kind: plan.Select, Args: []string{"Year", "Title"}})

	var buf bytes.Buffer
	require.NoError(t, NewOutput(&buf, false).WriteGraph(g))

	out := buf.String()
	assert.Contains(t, out, "operation")
	assert.Contains(t, out, "deniro.csv")
	assert.Contains(t, out, "Year Title")
	assert.Contains(t, out, "Empty")
	assert.Contains(t, out, "checkpoint")
}

func TestWriteEntries(t *testing.T) {
	entries := []journal.Entry{
		{
			Session:    "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			Operation:  "Sum",
			NodeID:     4,
			Checkpoint: 4,
			Response:   "5965",
			Time:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewOutput(&buf, true).WriteEntries(entries))

	out := buf.String()
	assert.Contains(t, out, "2024-03-01T12:00:00Z")
	assert.Contains(t, out, "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.Contains(t, out, "5965")
}
