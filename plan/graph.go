package plan

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/kr/text"

	"github.com/cube2222/octoframe/graph"
)

type Node struct {
	ID   uint64
	Kind Kind
	Args []string
}

func (n Node) String() string {
	return fmt.Sprintf("%s(%s) #%d", n.Kind, strings.Join(n.Args, " "), n.ID)
}

// Graph is the ordered buffer of operations waiting to be sent to the executor,
// together with the id of the last node the executor has run.
type Graph struct {
	Operations []Node
	Checkpoint uint64
}

// NewGraph returns a graph holding only the Empty placeholder (id 0).
func NewGraph() Graph {
	return Graph{
		Operations: []Node{
			{
				ID:   0,
				Kind: Empty,
				Args: []string{},
			},
		},
	}
}

func (g *Graph) Append(node Node) {
	g.Operations = append(g.Operations, node)
}

func (g *Graph) Len() int {
	return len(g.Operations)
}

// Reset drops every buffered node and records checkpoint as executed.
func (g *Graph) Reset(checkpoint uint64) {
	g.Operations = []Node{}
	g.Checkpoint = checkpoint
}

// Retain keeps only the lazy nodes, in order, and records checkpoint as executed.
func (g *Graph) Retain(checkpoint uint64) {
	kept := make([]Node, 0, len(g.Operations))
	for _, node := range g.Operations {
		if node.Kind.Lazy() {
			kept = append(kept, node)
		}
	}
	g.Operations = kept
	g.Checkpoint = checkpoint
}

// Truncate rolls the buffer back to its first n nodes.
func (g *Graph) Truncate(n int) {
	if n < 0 || n >= len(g.Operations) {
		return
	}
	g.Operations = g.Operations[:n]
}

func (g Graph) Clone() Graph {
	out := Graph{
		Operations: make([]Node, len(g.Operations)),
		Checkpoint: g.Checkpoint,
	}
	for i, node := range g.Operations {
		args := make([]string, len(node.Args))
		copy(args, node.Args)
		out.Operations[i] = Node{
			ID:   node.ID,
			Kind: node.Kind,
			Args: args,
		}
	}
	return out
}

// Visualize renders the buffer as a chain, the newest node being the root and
// each node pointing at the one appended before it.
func (g Graph) Visualize() *graph.Node {
	var root *graph.Node
	for _, op := range g.Operations {
		node := graph.NewNode(op.Kind.String())
		node.Highlighted = op.Kind.Eager()
		node.AddField("id", fmt.Sprint(op.ID))
		if len(op.Args) > 0 {
			node.AddField("args", strings.Join(op.Args, " "))
		}
		if root != nil {
			node.AddChild("input", root)
		}
		root = node
	}
	if root == nil {
		root = graph.NewNode("Graph")
	}
	root.AddField("checkpoint", fmt.Sprint(g.Checkpoint))
	return root
}

func (g Graph) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "checkpoint: %d\n", g.Checkpoint)
	for i := len(g.Operations) - 1; i >= 0; i-- {
		depth := len(g.Operations) - 1 - i
		buf.WriteString(text.Indent(g.Operations[i].String()+"\n", strings.Repeat("  ", depth)))
	}
	return buf.String()
}
