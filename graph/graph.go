package graph

import (
	"fmt"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

type Field struct {
	Name, Value string
}

type Child struct {
	Name string
	Node *Node
}

// Node is a renderable description of a single operation, with its inputs as children.
type Node struct {
	Name     string
	Fields   []Field
	Children []Child

	// Highlighted nodes are drawn filled, e.g. the action that triggers a flush.
	Highlighted bool
}

func NewNode(name string) *Node {
	return &Node{
		Name: name,
	}
}

func (n *Node) AddField(name, value string) {
	n.Fields = append(n.Fields, Field{
		Name:  name,
		Value: value,
	})
}

func (n *Node) AddChild(name string, node *Node) {
	n.Children = append(n.Children, Child{
		Name: name,
		Node: node,
	})
}

type Visualizer interface {
	Visualize() *Node
}

// Show lays the tree rooted at node out as a left-to-right graphviz digraph.
func Show(node *Node) (*gographviz.Graph, error) {
	g := gographviz.NewGraph()
	if err := g.SetDir(true); err != nil {
		return nil, errors.Wrap(err, "couldn't make graph directed")
	}
	if err := g.AddAttr("", "rankdir", "LR"); err != nil {
		return nil, errors.Wrap(err, "couldn't set graph direction")
	}
	builder := &graphBuilder{
		graph:        g,
		nameCounters: make(map[string]int),
	}

	if node == nil {
		return g, nil
	}
	if _, err := builder.addNode(node); err != nil {
		return nil, err
	}

	return g, nil
}

type graphBuilder struct {
	graph        *gographviz.Graph
	nameCounters map[string]int
}

func (gb *graphBuilder) getID(name string) string {
	count := gb.nameCounters[name]
	gb.nameCounters[name]++
	return fmt.Sprintf("%s_%d", strings.Replace(name, " ", "_", -1), count)
}

func (gb *graphBuilder) addNode(node *Node) (string, error) {
	fields := make([]string, len(node.Fields))
	for i, field := range node.Fields {
		fields[i] = fmt.Sprintf("<%s> %s: %s", field.Name, field.Name, escapeLabel(field.Value))
	}
	childPorts := make([]string, len(node.Children))
	for i, child := range node.Children {
		childPorts[i] = fmt.Sprintf("<%s> %s", child.Name, child.Name)
	}

	labelParts := []string{fmt.Sprintf("<f0> %s", node.Name)}
	if len(fields) > 0 {
		labelParts = append(labelParts, strings.Join(fields, "|"))
	}
	if len(childPorts) > 0 {
		labelParts = append(labelParts, strings.Join(childPorts, "|"))
	}

	label := fmt.Sprintf(
		"\"{{%s}}\"",
		strings.Join(labelParts, "}|{"),
	)

	attrs := map[string]string{
		"shape": "record",
		"label": label,
	}
	if node.Highlighted {
		attrs["style"] = "filled"
		attrs["fillcolor"] = "lightgrey"
	}

	id := gb.getID(node.Name)
	if err := gb.graph.AddNode("", id, attrs); err != nil {
		return "", errors.Wrapf(err, "couldn't add node %s", id)
	}

	for _, child := range node.Children {
		childID, err := gb.addNode(child.Node)
		if err != nil {
			return "", err
		}
		if err := gb.graph.AddPortEdge(id, child.Name, childID, "", true, map[string]string{}); err != nil {
			return "", errors.Wrapf(err, "couldn't connect %s to %s", id, childID)
		}
	}
	return id, nil
}

// Record labels treat these characters as structure.
var labelEscaper = strings.NewReplacer(
	`"`, `\"`,
	`<`, `\<`,
	`>`, `\>`,
	`{`, `\{`,
	`}`, `\}`,
	`|`, `\|`,
)

func escapeLabel(s string) string {
	return labelEscaper.Replace(s)
}
