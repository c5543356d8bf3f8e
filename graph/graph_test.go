package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShow(t *testing.T) {
	read := NewNode("Read")
	read.AddField("id", "1")
	read.AddField("args", "deniro.csv")

	where := NewNode("Where")
	where.AddField("id", "2")
	where.AddField("args", "Score > 90")
	where.AddChild("input", read)

	g, err := Show(where)
	require.NoError(t, err)

	out := g.String()
	assert.True(t, strings.HasPrefix(out, "digraph"))
	assert.Contains(t, out, "Where_0")
	assert.Contains(t, out, "Read_0")
	assert.Contains(t, out, `Score \> 90`)
	assert.Contains(t, out, "Where_0:input")
}

func TestShowRepeatedNames(t *testing.T) {
	first := NewNode("Select")
	second := NewNode("Select")
	second.AddChild("input", first)

	g, err := Show(second)
	require.NoError(t, err)

	out := g.String()
	assert.Contains(t, out, "Select_0")
	assert.Contains(t, out, "Select_1")
}

func TestShowEmpty(t *testing.T) {
	g, err := Show(nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(g.String(), "digraph"))
}

func TestShowHighlighted(t *testing.T) {
	read := NewNode("Read")
	sum := NewNode("Sum")
	sum.Highlighted = true
	sum.AddChild("input", read)

	g, err := Show(sum)
	require.NoError(t, err)

	assert.Equal(t, "lightgrey", g.Nodes.Lookup["Sum_0"].Attrs["fillcolor"])
	_, ok := g.Nodes.Lookup["Read_0"].Attrs["fillcolor"]
	assert.False(t, ok)
}
