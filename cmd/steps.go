package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/cube2222/octoframe/dataframe"
	"github.com/cube2222/octoframe/plan"
)

// step is one builder call written as "kind" or "kind:argument",
// e.g. "read:deniro.csv", "select:Year Title", "sum:Year" or "count".
type step struct {
	kind plan.Kind
	arg  string
}

func parseStep(s string) (step, error) {
	name, arg, hasArg := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return step{}, fmt.Errorf("empty step '%s'", s)
	}
	kind, err := plan.ParseKind(strings.ToUpper(name[:1]) + strings.ToLower(name[1:]))
	if err != nil || kind == plan.Empty {
		return step{}, fmt.Errorf("unknown step '%s', expected one of read, select, where, sum, count, fetch", name)
	}

	switch kind {
	case plan.Read, plan.Select, plan.Where, plan.Sum:
		if !hasArg {
			return step{}, fmt.Errorf("step '%s' needs an argument, as in '%s:...'", name, strings.ToLower(name))
		}
	case plan.Count, plan.Fetch:
		if hasArg {
			return step{}, fmt.Errorf("step '%s' takes no argument", name)
		}
	}
	return step{kind: kind, arg: arg}, nil
}

func parseSteps(args []string) ([]step, error) {
	steps := make([]step, len(args))
	for i := range args {
		s, err := parseStep(args[i])
		if err != nil {
			return nil, fmt.Errorf("couldn't parse step %d: %w", i+1, err)
		}
		steps[i] = s
	}
	return steps, nil
}

// args returns the node arguments the step produces.
func (s step) args() []string {
	switch s.kind {
	case plan.Read, plan.Sum:
		return []string{s.arg}
	case plan.Select, plan.Where:
		return dataframe.Tokenize(s.arg)
	default:
		return []string{}
	}
}

// apply runs the step against df. Lazy steps return a nil result.
func (s step) apply(ctx context.Context, df *dataframe.Dataframe) (*dataframe.Result, error) {
	var res dataframe.Result
	var err error
	switch s.kind {
	case plan.Read:
		df.Read(s.arg)
		return nil, nil
	case plan.Select:
		df.Select(s.arg)
		return nil, nil
	case plan.Where:
		df.Where(s.arg)
		return nil, nil
	case plan.Sum:
		res, err = df.Sum(ctx, s.arg)
	case plan.Count:
		res, err = df.Count(ctx)
	case plan.Fetch:
		res, err = df.Fetch(ctx)
	default:
		return nil, fmt.Errorf("unsupported step %s", s.kind)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func formatResult(res *dataframe.Result) string {
	return fmt.Sprintf("%s #%d: %s", res.Operation, res.NodeID, res.Text)
}
