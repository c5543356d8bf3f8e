package dataframe

import (
	"github.com/pkg/errors"

	"github.com/cube2222/octoframe/journal"
	"github.com/cube2222/octoframe/metrics"
	"github.com/cube2222/octoframe/plan"
)

// ContextMode decides what survives a successful flush.
type ContextMode int

const (
	// ResetOnFlush clears the whole buffer, so every eager operation after the
	// first one is sent without the earlier Read, Select and Where nodes.
	ResetOnFlush ContextMode = iota
	// RetainContext keeps the buffered lazy nodes, so later eager operations
	// are evaluated against the same source, selection and filters.
	RetainContext
)

var ErrUnknownContextMode = errors.New("unknown context mode")

func ParseContextMode(s string) (ContextMode, error) {
	switch s {
	case "reset", "":
		return ResetOnFlush, nil
	case "retain":
		return RetainContext, nil
	default:
		return ResetOnFlush, errors.Wrapf(ErrUnknownContextMode, "'%s'", s)
	}
}

func (m ContextMode) String() string {
	if m == RetainContext {
		return "retain"
	}
	return "reset"
}

// Recorder persists completed flushes.
type Recorder interface {
	Record(entry journal.Entry) error
}

type Option func(df *Dataframe)

// WithAllocator shares an id allocator between several dataframes.
func WithAllocator(allocator *plan.Allocator) Option {
	return func(df *Dataframe) {
		df.allocator = allocator
	}
}

func WithContextMode(mode ContextMode) Option {
	return func(df *Dataframe) {
		df.mode = mode
	}
}

func WithJournal(recorder Recorder) Option {
	return func(df *Dataframe) {
		df.journal = recorder
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(df *Dataframe) {
		df.metrics = collector
	}
}

// WithSession overrides the generated session id used in logs and the journal.
func WithSession(session string) Option {
	return func(df *Dataframe) {
		df.session = session
	}
}
