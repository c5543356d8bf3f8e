package serialization

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/cube2222/octoframe/plan"
)

var (
	ErrEncode    = errors.New("couldn't encode graph")
	ErrMalformed = errors.New("malformed graph message")
)

type wireNode struct {
	ID           uint64    `json:"id"`
	FunctionName plan.Kind `json:"function_name"`
	Args         []string  `json:"args"`
}

type wireGraph struct {
	Operations []wireNode `json:"operations"`
	Checkpoint uint64     `json:"checkpoint"`
}

// EncodeGraph renders the graph in the executor's message format:
//
//	{"operations":[{"id":1,"function_name":"Read","args":["deniro.csv"]}],"checkpoint":0}
func EncodeGraph(g plan.Graph) ([]byte, error) {
	msg := wireGraph{
		Operations: make([]wireNode, len(g.Operations)),
		Checkpoint: g.Checkpoint,
	}
	for i, node := range g.Operations {
		args := node.Args
		if args == nil {
			args = []string{}
		}
		msg.Operations[i] = wireNode{
			ID:           node.ID,
			FunctionName: node.Kind,
			Args:         args,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&msg); err != nil {
		return nil, errors.Wrapf(ErrEncode, "%s", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodeGraph parses a graph message, rejecting anything EncodeGraph wouldn't produce.
func DecodeGraph(data []byte) (plan.Graph, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return plan.Graph{}, errors.Wrapf(ErrMalformed, "couldn't parse json: %s", err)
	}
	if v.Type() != fastjson.TypeObject {
		return plan.Graph{}, errors.Wrapf(ErrMalformed, "expected JSON object, got %s", v.Type())
	}

	operations := v.Get("operations")
	if operations == nil {
		return plan.Graph{}, errors.Wrap(ErrMalformed, "missing operations")
	}
	ops, err := operations.Array()
	if err != nil {
		return plan.Graph{}, errors.Wrapf(ErrMalformed, "operations: %s", err)
	}
	checkpointValue := v.Get("checkpoint")
	if checkpointValue == nil {
		return plan.Graph{}, errors.Wrap(ErrMalformed, "missing checkpoint")
	}
	checkpoint, err := checkpointValue.Uint64()
	if err != nil {
		return plan.Graph{}, errors.Wrapf(ErrMalformed, "checkpoint: %s", err)
	}

	out := plan.Graph{
		Operations: make([]plan.Node, len(ops)),
		Checkpoint: checkpoint,
	}
	for i, op := range ops {
		node, err := decodeNode(op)
		if err != nil {
			return plan.Graph{}, errors.Wrapf(err, "operation %d", i)
		}
		out.Operations[i] = node
	}
	return out, nil
}

func decodeNode(v *fastjson.Value) (plan.Node, error) {
	if v.Type() != fastjson.TypeObject {
		return plan.Node{}, errors.Wrapf(ErrMalformed, "expected JSON object, got %s", v.Type())
	}

	idValue := v.Get("id")
	if idValue == nil {
		return plan.Node{}, errors.Wrap(ErrMalformed, "missing id")
	}
	id, err := idValue.Uint64()
	if err != nil {
		return plan.Node{}, errors.Wrapf(ErrMalformed, "id: %s", err)
	}

	nameValue := v.Get("function_name")
	if nameValue == nil {
		return plan.Node{}, errors.Wrap(ErrMalformed, "missing function_name")
	}
	name, err := nameValue.StringBytes()
	if err != nil {
		return plan.Node{}, errors.Wrapf(ErrMalformed, "function_name: %s", err)
	}
	kind, err := plan.ParseKind(string(name))
	if err != nil {
		return plan.Node{}, errors.Wrapf(ErrMalformed, "%s", err)
	}

	argsValue := v.Get("args")
	if argsValue == nil {
		return plan.Node{}, errors.Wrap(ErrMalformed, "missing args")
	}
	rawArgs, err := argsValue.Array()
	if err != nil {
		return plan.Node{}, errors.Wrapf(ErrMalformed, "args: %s", err)
	}
	args := make([]string, len(rawArgs))
	for i := range rawArgs {
		arg, err := rawArgs[i].StringBytes()
		if err != nil {
			return plan.Node{}, errors.Wrapf(ErrMalformed, "args[%d]: %s", i, err)
		}
		args[i] = string(arg)
	}

	return plan.Node{
		ID:   id,
		Kind: kind,
		Args: args,
	}, nil
}
